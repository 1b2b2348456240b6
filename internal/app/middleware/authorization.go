package middleware

import (
	"context"

	"carbooking/internal/app/commands"
	"carbooking/internal/app/queries"
	"carbooking/internal/domain/shared/apperr"
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}

// Operator identifies the authenticated back-office caller.
type Operator struct {
	ID string
}

type operatorKey struct{}

func ContextWithOperator(ctx context.Context, op Operator) context.Context {
	return context.WithValue(ctx, operatorKey{}, op)
}

func OperatorFromContext(ctx context.Context) (Operator, bool) {
	op, ok := ctx.Value(operatorKey{}).(Operator)
	return op, ok && op.ID != ""
}

// OperatorAuthorizer admits only messages dispatched on behalf of an operator.
type OperatorAuthorizer struct{}

func (OperatorAuthorizer) Authorize(ctx context.Context, _ any) error {
	if _, ok := OperatorFromContext(ctx); !ok {
		return apperr.New(apperr.CodeUnauthorized, "an authenticated operator is required")
	}
	return nil
}
