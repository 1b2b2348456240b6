package customers

import (
	"context"

	"carbooking/internal/app/dto"
	"carbooking/internal/app/handlers/support"
	"carbooking/internal/app/queries"
	"carbooking/internal/app/uow"
	domaincustomer "carbooking/internal/domain/customer"
)

const (
	searchCustomersKey = "customers.search"
	defaultLimit       = 25
)

// SearchCustomersQuery matches a substring of the name or email.
type SearchCustomersQuery struct {
	Query string `json:"q"`
	Limit int    `json:"limit" validate:"gte=0,lte=100"`
}

func (q SearchCustomersQuery) Key() string { return searchCustomersKey }

type SearchCustomersHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SearchCustomersHandler) Handle(ctx context.Context, q SearchCustomersQuery) (dto.CustomerCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CustomerCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	found, err := unit.Customers().Search(execCtx, domaincustomer.SearchParams{Query: q.Query, Limit: limit})
	if err != nil {
		return dto.CustomerCollection{}, err
	}
	out := dto.CustomerCollection{Items: make([]dto.Customer, 0, len(found))}
	for _, c := range found {
		out.Items = append(out.Items, dto.MapCustomer(c))
	}
	return out, nil
}

var _ queries.Handler[SearchCustomersQuery, dto.CustomerCollection] = (*SearchCustomersHandler)(nil)
