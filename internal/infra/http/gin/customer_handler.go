package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"carbooking/internal/app/dto"
	customersapp "carbooking/internal/app/handlers/customers"
	"carbooking/internal/app/queries"
)

type CustomerHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h CustomerHandler) Search(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		badRequest(c, err)
		return
	}
	q := customersapp.SearchCustomersQuery{Query: strings.TrimSpace(c.Query("q")), Limit: limit}
	result, err := queries.Ask[customersapp.SearchCustomersQuery, dto.CustomerCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err, h.Logger)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ CustomerHTTP = CustomerHandler{}
