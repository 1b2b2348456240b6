package ginserver

import (
	"context"
	"log/slog"
	"strings"

	gin "github.com/gin-gonic/gin"

	"carbooking/internal/app/middleware"
	"carbooking/internal/domain/shared/apperr"
)

const operatorContextKey = "operator_id"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (middleware.Operator, error)
}

// OperatorAuth resolves a bearer token to an operator when one is presented.
// Requests without a token continue anonymously; a bad token is rejected.
type OperatorAuth struct {
	Service Authenticator
	Logger  *slog.Logger
}

func (m OperatorAuth) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Service == nil {
		c.Next()
		return
	}
	op, err := m.Service.Authenticate(c.Request.Context(), token)
	if err != nil {
		respondError(c, err, m.Logger)
		c.Abort()
		return
	}
	c.Set(operatorContextKey, op.ID)
	c.Request = c.Request.WithContext(middleware.ContextWithOperator(c.Request.Context(), op))
	c.Next()
}

// RequireOperator rejects requests that did not authenticate an operator.
func RequireOperator(c *gin.Context) {
	if _, ok := middleware.OperatorFromContext(c.Request.Context()); !ok {
		respondError(c, apperr.New(apperr.CodeUnauthorized, "an authenticated operator is required"), nil)
		c.Abort()
		return
	}
	c.Next()
}

// RequireIdempotencyKey rejects mutating requests without an Idempotency-Key.
func RequireIdempotencyKey(c *gin.Context) {
	if strings.TrimSpace(c.GetHeader("Idempotency-Key")) == "" {
		respondError(c, apperr.New(apperr.CodeInvalidInput, "the Idempotency-Key header is required"), nil)
		c.Abort()
		return
	}
	c.Next()
}

func idempotencyKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("Idempotency-Key"))
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
