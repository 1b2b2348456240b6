// Package auth verifies the bearer tokens back-office operators present.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"carbooking/internal/app/middleware"
	"carbooking/internal/domain/shared/apperr"
)

var (
	ErrInvalidToken    = apperr.New(apperr.CodeUnauthorized, "the operator token is invalid")
	ErrMissingToken    = apperr.New(apperr.CodeUnauthorized, "an operator bearer token is required")
	ErrOperatorIDEmpty = errors.New("auth: operator id is required")
)

type SecretHasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) error
}

type TokenGenerator interface {
	NewToken() (string, error)
}

// Service authenticates tokens of the form "<operator>.<secret>" against the
// configured bcrypt hash of each operator's secret.
type Service struct {
	Hashes  map[string]string
	Secrets SecretHasher
	Logger  *slog.Logger

	verified sync.Map // sha256(token) -> operator id
}

func (s *Service) Authenticate(ctx context.Context, token string) (middleware.Operator, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return middleware.Operator{}, ErrMissingToken
	}
	digest := fingerprint(token)
	if id, ok := s.verified.Load(digest); ok {
		return middleware.Operator{ID: id.(string)}, nil
	}
	id, secret, ok := strings.Cut(token, ".")
	if !ok || id == "" || secret == "" {
		return middleware.Operator{}, ErrInvalidToken
	}
	hash, known := s.Hashes[id]
	if !known || s.Secrets == nil {
		s.logFailure(ctx, id, "unknown operator")
		return middleware.Operator{}, ErrInvalidToken
	}
	if err := s.Secrets.Compare(hash, secret); err != nil {
		s.logFailure(ctx, id, "secret mismatch")
		return middleware.Operator{}, ErrInvalidToken
	}
	s.verified.Store(digest, id)
	return middleware.Operator{ID: id}, nil
}

// Issue creates a new token for operatorID and the hash to configure for it.
func (s *Service) Issue(operatorID string, tokens TokenGenerator) (token, hash string, err error) {
	operatorID = strings.TrimSpace(operatorID)
	if operatorID == "" || strings.ContainsAny(operatorID, ".:;") {
		return "", "", ErrOperatorIDEmpty
	}
	secret, err := tokens.NewToken()
	if err != nil {
		return "", "", err
	}
	hash, err = s.Secrets.Hash(secret)
	if err != nil {
		return "", "", fmt.Errorf("auth: hash secret: %w", err)
	}
	return operatorID + "." + secret, hash, nil
}

func (s *Service) logFailure(ctx context.Context, operatorID, reason string) {
	if s.Logger != nil {
		s.Logger.WarnContext(ctx, "operator authentication failed", "operator", operatorID, "reason", reason)
	}
}

func fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
