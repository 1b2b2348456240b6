package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbooking/internal/domain/shared/apperr"
)

type plainHasher struct{ compares int }

func (h *plainHasher) Hash(secret string) (string, error) { return "h:" + secret, nil }

func (h *plainHasher) Compare(hash, secret string) error {
	h.compares++
	if hash != "h:"+secret {
		return assert.AnError
	}
	return nil
}

type fixedTokens string

func (f fixedTokens) NewToken() (string, error) { return string(f), nil }

func TestService_IssueThenAuthenticate(t *testing.T) {
	hasher := &plainHasher{}
	svc := &Service{Secrets: hasher}
	token, hash, err := svc.Issue("desk-1", fixedTokens("abc"))
	require.NoError(t, err)
	assert.Equal(t, "desk-1.abc", token)

	svc.Hashes = map[string]string{"desk-1": hash}
	op, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "desk-1", op.ID)

	_, err = svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, 1, hasher.compares, "second lookup is served from the verified cache")
}

func TestService_RejectsBadTokens(t *testing.T) {
	svc := &Service{Secrets: &plainHasher{}, Hashes: map[string]string{"desk-1": "h:abc"}}

	for _, token := range []string{"", "no-dot", "desk-1.wrong", "desk-2.abc", ".abc"} {
		_, err := svc.Authenticate(context.Background(), token)
		assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err), "token %q", token)
	}
}

func TestService_IssueValidatesOperatorID(t *testing.T) {
	svc := &Service{Secrets: &plainHasher{}}
	_, _, err := svc.Issue("bad.id", fixedTokens("x"))
	assert.ErrorIs(t, err, ErrOperatorIDEmpty)
}
