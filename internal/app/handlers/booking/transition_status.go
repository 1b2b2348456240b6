package booking

import (
	"context"
	"log/slog"

	"carbooking/internal/app/commands"
	"carbooking/internal/app/dto"
	"carbooking/internal/app/handlers/support"
	"carbooking/internal/app/middleware"
	"carbooking/internal/app/uow"
	domainbooking "carbooking/internal/domain/booking"
	"carbooking/internal/domain/shared/apperr"
	"carbooking/internal/domain/shared/money"
)

const (
	transitionStatusKey = "booking.transition"
	processRefundKey    = "booking.refund"
)

type RefundInput struct {
	Amount   int64  `json:"amount"`
	Reason   string `json:"reason"`
	Override bool   `json:"override"`
}

// TransitionStatusCommand moves a booking forward. A refund may ride along
// with a cancellation.
type TransitionStatusCommand struct {
	BookingID       string       `json:"booking_id" validate:"required"`
	Status          string       `json:"status" validate:"required"`
	Reason          string       `json:"reason"`
	Refund          *RefundInput `json:"refund"`
	IdempotencyKeyV string       `json:"-"`
}

func (c TransitionStatusCommand) Key() string { return transitionStatusKey }

func (c TransitionStatusCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c TransitionStatusCommand) ResultPrototype() any { return &dto.Booking{} }

type TransitionStatusHandler struct {
	Deps
	Logger *slog.Logger
}

func (h *TransitionStatusHandler) Handle(ctx context.Context, cmd TransitionStatusCommand) (*dto.Booking, error) {
	res, err := h.handle(ctx, cmd)
	if err != nil {
		return nil, support.Classify(err)
	}
	return res, nil
}

func (h *TransitionStatusHandler) handle(ctx context.Context, cmd TransitionStatusCommand) (*dto.Booking, error) {
	to, err := domainbooking.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	if cmd.Refund != nil && to != domainbooking.StatusCancelled {
		return nil, apperr.New(apperr.CodeInvalidRefund, "a refund can only accompany a cancellation")
	}
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	now := h.now()
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	from := b.Status
	if to == domainbooking.StatusCancelled {
		err = b.Cancel(cmd.Reason, now)
	} else {
		err = b.Transition(to, now)
	}
	if err != nil {
		return nil, err
	}
	if cmd.Refund != nil {
		amount := money.Money{Amount: cmd.Refund.Amount, Currency: b.Price.Currency()}
		if _, err := b.RecordRefund(h.newID(), amount, cmd.Refund.Reason, cmd.Refund.Override, now); err != nil {
			return nil, err
		}
	}
	if err := h.save(ctx, unit, b); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking status changed", "booking", b.Number, "from", from, "to", b.Status)
	}
	out := dto.MapBooking(b)
	return &out, nil
}

func (h *TransitionStatusHandler) save(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return err
	}
	return support.RecordEvents(ctx, unit, h.Outbox, h.Encoder, b.Drain(), h.Logger)
}

// ProcessRefundCommand records refund metadata. The status is not changed.
type ProcessRefundCommand struct {
	BookingID       string `json:"booking_id" validate:"required"`
	Amount          int64  `json:"amount"`
	Reason          string `json:"reason"`
	Override        bool   `json:"override"`
	IdempotencyKeyV string `json:"-"`
}

func (c ProcessRefundCommand) Key() string { return processRefundKey }

func (c ProcessRefundCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c ProcessRefundCommand) ResultPrototype() any { return &dto.Booking{} }

type ProcessRefundHandler struct {
	Deps
	Logger *slog.Logger
}

func (h *ProcessRefundHandler) Handle(ctx context.Context, cmd ProcessRefundCommand) (*dto.Booking, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, support.Classify(err)
	}
	amount := money.Money{Amount: cmd.Amount, Currency: b.Price.Currency()}
	refund, err := b.RecordRefund(h.newID(), amount, cmd.Reason, cmd.Override, h.now())
	if err != nil {
		return nil, support.Classify(err)
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, support.Classify(err)
	}
	if err := support.RecordEvents(ctx, unit, h.Outbox, h.Encoder, b.Drain(), h.Logger); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("refund recorded", "booking", b.Number, "amount", refund.Amount.String(), "override", refund.Override)
	}
	out := dto.MapBooking(b)
	return &out, nil
}

var (
	_ commands.Handler[TransitionStatusCommand, *dto.Booking] = (*TransitionStatusHandler)(nil)
	_ commands.Handler[ProcessRefundCommand, *dto.Booking]    = (*ProcessRefundHandler)(nil)
	_ middleware.IdempotentCommand                            = TransitionStatusCommand{}
	_ middleware.IdempotentCommand                            = ProcessRefundCommand{}
)
