package booking

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
)

const (
	DefaultNumberPrefix   = "CBR"
	DefaultNumberAttempts = 5
)

var ErrBookingNumberExhausted = errors.New("booking: could not generate a unique booking number")

// NumberGenerator yields candidate booking numbers. Candidates may collide;
// AssignNumber checks them against the persisted set.
type NumberGenerator interface {
	Next(ctx context.Context) (string, error)
}

// SequenceNumberGenerator yields Prefix followed by a zero-padded counter.
type SequenceNumberGenerator struct {
	prefix string
	width  int

	mu   sync.Mutex
	next int64
}

func NewSequenceNumberGenerator(prefix string, start int64) *SequenceNumberGenerator {
	if prefix == "" {
		prefix = DefaultNumberPrefix
	}
	return &SequenceNumberGenerator{prefix: prefix, width: 3, next: start}
}

func (g *SequenceNumberGenerator) Next(context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.next
	g.next++
	return fmt.Sprintf("%s%0*d", g.prefix, g.width, n), nil
}

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandomNumberGenerator yields Prefix followed by six random base-36 characters.
type RandomNumberGenerator struct {
	prefix string
	length int
}

func NewRandomNumberGenerator(prefix string) *RandomNumberGenerator {
	if prefix == "" {
		prefix = DefaultNumberPrefix
	}
	return &RandomNumberGenerator{prefix: prefix, length: 6}
}

func (g *RandomNumberGenerator) Next(context.Context) (string, error) {
	var sb strings.Builder
	sb.WriteString(g.prefix)
	limit := big.NewInt(int64(len(base36)))
	for i := 0; i < g.length; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("booking: random number: %w", err)
		}
		sb.WriteByte(base36[n.Int64()])
	}
	return sb.String(), nil
}

// ExistsFunc reports whether a booking number is already taken.
type ExistsFunc func(ctx context.Context, number string) (bool, error)

// AssignNumber draws candidates from gen until one is free, giving up after
// maxAttempts collisions.
func AssignNumber(ctx context.Context, gen NumberGenerator, exists ExistsFunc, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultNumberAttempts
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate, err := gen.Next(ctx)
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrBookingNumberExhausted, maxAttempts)
}
