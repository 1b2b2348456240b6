package support

import (
	"context"
	"errors"

	"carbooking/internal/app/uow"
)

var ErrUnitOfWorkRequired = errors.New("handlers: unit of work required")

// BeginReadOnlyUnit reuses the unit from ctx or starts a read-only one. The
// returned cleanup is nil when the unit was not started here.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.Inject(ctx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}

// UnitFromContext returns the write unit opened by the transaction middleware.
func UnitFromContext(ctx context.Context) (uow.UnitOfWork, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, ErrUnitOfWorkRequired
	}
	return unit, nil
}
