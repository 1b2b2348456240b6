package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingCommand struct{}

func (pingCommand) Key() string { return "test.ping" }

type otherCommand struct{}

func (otherCommand) Key() string { return "test.other" }

func TestInMemoryBus_DispatchesToRegisteredHandler(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler(bus, pingCommand{}.Key(), HandlerFunc[pingCommand, string](func(context.Context, pingCommand) (string, error) {
		return "pong", nil
	}))

	res, err := Dispatch[pingCommand, string](context.Background(), bus, pingCommand{})
	require.NoError(t, err)
	assert.Equal(t, "pong", res)
	assert.Equal(t, []string{"test.ping"}, bus.Keys())
}

func TestInMemoryBus_RejectsDuplicateRegistration(t *testing.T) {
	bus := NewInMemoryBus()
	h := HandlerFunc[pingCommand, string](func(context.Context, pingCommand) (string, error) { return "", nil })
	RegisterHandler(bus, pingCommand{}.Key(), h)

	assert.Panics(t, func() { RegisterHandler(bus, pingCommand{}.Key(), h) })
}

func TestDispatch_ReportsMissingHandlerAndResultMismatch(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler(bus, pingCommand{}.Key(), HandlerFunc[pingCommand, string](func(context.Context, pingCommand) (string, error) {
		return "pong", nil
	}))

	_, err := Dispatch[otherCommand, string](context.Background(), bus, otherCommand{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)
	assert.Contains(t, err.Error(), "test.other")

	_, err = Dispatch[pingCommand, int](context.Background(), bus, pingCommand{})
	assert.ErrorIs(t, err, ErrResultType)

	_, err = Dispatch[pingCommand, string](context.Background(), nil, pingCommand{})
	assert.ErrorIs(t, err, ErrNilBus)
}
