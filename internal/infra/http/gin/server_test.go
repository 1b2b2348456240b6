package ginserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbooking/internal/app/commands"
	availabilityapp "carbooking/internal/app/handlers/availability"
	bookingapp "carbooking/internal/app/handlers/booking"
	customersapp "carbooking/internal/app/handlers/customers"
	fleetapp "carbooking/internal/app/handlers/fleet"
	pricingapp "carbooking/internal/app/handlers/pricing"
	"carbooking/internal/app/middleware"
	"carbooking/internal/app/queries"
	domainbooking "carbooking/internal/domain/booking"
	"carbooking/internal/domain/shared/apperr"
	"carbooking/internal/infra/obs"
	"carbooking/internal/infra/storage/memory"
)

const deskToken = "desk.secret"

type stubAuthenticator struct{}

func (stubAuthenticator) Authenticate(_ context.Context, token string) (middleware.Operator, error) {
	if token != deskToken {
		return middleware.Operator{}, apperr.New(apperr.CodeUnauthorized, "invalid operator token")
	}
	return middleware.Operator{ID: "desk"}, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	factory := memory.Factory{Store: memory.NewStore()}
	box := memory.NewOutbox(nil, nil)
	deps := bookingapp.Deps{Outbox: box}

	cmdBus := commands.NewInMemoryBus()
	commands.RegisterHandler(cmdBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		Deps:    deps,
		Numbers: domainbooking.NewSequenceNumberGenerator("CBR", 0),
	})
	commands.RegisterHandler(cmdBus, bookingapp.UpdateBookingCommand{}.Key(), &bookingapp.UpdateBookingHandler{Deps: deps})
	commands.RegisterHandler(cmdBus, bookingapp.TransitionStatusCommand{}.Key(), &bookingapp.TransitionStatusHandler{Deps: deps})
	commands.RegisterHandler(cmdBus, bookingapp.ProcessRefundCommand{}.Key(), &bookingapp.ProcessRefundHandler{Deps: deps})
	commands.RegisterHandler(cmdBus, fleetapp.SaveVehicleCommand{}.Key(), &fleetapp.SaveVehicleHandler{})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, bookingapp.ListVehicleBookingsQuery{}.Key(), &bookingapp.ListVehicleBookingsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, pricingapp.PreviewPriceQuery{}.Key(), &pricingapp.PreviewPriceHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, availabilityapp.CheckAvailabilityQuery{}.Key(), &availabilityapp.CheckAvailabilityHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, fleetapp.SearchVehiclesQuery{}.Key(), &fleetapp.SearchVehiclesHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, fleetapp.GetVehicleQuery{}.Key(), &fleetapp.GetVehicleHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, customersapp.SearchCustomersQuery{}.Key(), &customersapp.SearchCustomersHandler{UoWFactory: factory})

	validator := middleware.NewStructValidator()
	cmds := middleware.ChainCommands(cmdBus,
		middleware.Authorization(middleware.OperatorAuthorizer{}),
		middleware.Validation(validator),
		middleware.Idempotency(memory.NewIdempotencyStore(0), nil),
		middleware.OutboxFlush(box, nil),
		middleware.Transaction(factory, nil),
	)
	qs := middleware.ChainQueries(queryBus, middleware.QueryValidation(validator))

	return NewRouter(obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Fleet:     FleetHandler{Commands: cmds, Queries: qs},
		Pricing:   PricingHandler{Queries: qs},
		Booking:   BookingHandler{Commands: cmds, Queries: qs},
		Customers: CustomerHandler{Queries: qs},
		Auth:      OperatorAuth{Service: stubAuthenticator{}},
	})
}

type call struct {
	method string
	path   string
	body   string
	token  string
	key    string
}

func serve(r *gin.Engine, c call) *httptest.ResponseRecorder {
	var req *http.Request
	if c.body != "" {
		req = httptest.NewRequest(c.method, c.path, strings.NewReader(c.body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(c.method, c.path, nil)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.key != "" {
		req.Header.Set("Idempotency-Key", c.key)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error errorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return string(body.Error.Code)
}

const golf = `{
	"name": "VW Golf",
	"type": "compact",
	"location": "Lisbon",
	"daily_rate": 5000,
	"currency": "EUR",
	"total_quantity": 1,
	"extras": [{"name": "GPS", "daily_rate": 1000}],
	"premium_insurance": {"enabled": true, "daily_rate": 1500}
}`

const bookingBody = `{
	"vehicle_id": "golf",
	"customer": {"first_name": "Ana", "last_name": "Silva", "email": "ana@example.com"},
	"pickup_date": "2030-06-03",
	"pickup_time": "10:00",
	"return_date": "2030-06-05",
	"return_time": "10:00",
	"selected_extras": [0],
	"selected_insurance": "premium"
}`

func seedVehicle(t *testing.T, r *gin.Engine) {
	t.Helper()
	rec := serve(r, call{method: http.MethodPut, path: "/api/v1/vehicles/golf", body: golf, token: deskToken, key: "seed-golf"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestVehicleRoutes_ArePublic(t *testing.T) {
	r := newTestRouter(t)
	seedVehicle(t, r)

	rec := serve(r, call{method: http.MethodGet, path: "/api/v1/vehicles/golf"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"VW Golf"`)

	rec = serve(r, call{method: http.MethodGet, path: "/api/v1/vehicles/missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))
}

func TestBookingRoutes_RequireOperator(t *testing.T) {
	r := newTestRouter(t)

	rec := serve(r, call{method: http.MethodPost, path: "/api/v1/bookings", body: bookingBody, key: "k1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorCode(t, rec))

	rec = serve(r, call{method: http.MethodGet, path: "/api/v1/bookings/b-1", token: "desk.wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMutatingRoutes_RequireIdempotencyKey(t *testing.T) {
	r := newTestRouter(t)

	rec := serve(r, call{method: http.MethodPost, path: "/api/v1/bookings", body: bookingBody, token: deskToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", errorCode(t, rec))
}

func TestCreateBooking_PricesAndReplays(t *testing.T) {
	r := newTestRouter(t)
	seedVehicle(t, r)

	rec := serve(r, call{method: http.MethodPost, path: "/api/v1/bookings", body: bookingBody, token: deskToken, key: "create-1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID     string `json:"id"`
		Number string `json:"booking_number"`
		Status string `json:"status"`
		Days   int    `json:"rental_days"`
		Price  struct {
			FinalTotal struct {
				Amount int64 `json:"amount"`
			} `json:"final_total"`
		} `json:"pricing_breakdown"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "CBR000", created.Number)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, 2, created.Days)
	assert.Equal(t, int64(2*5000+2*1000+2*1500), created.Price.FinalTotal.Amount)

	replay := serve(r, call{method: http.MethodPost, path: "/api/v1/bookings", body: bookingBody, token: deskToken, key: "create-1"})
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Contains(t, replay.Body.String(), `"booking_number":"CBR000"`)

	rec = serve(r, call{method: http.MethodGet, path: "/api/v1/bookings?number=cbr000", token: deskToken})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID)
}

func TestCreateBooking_ConflictsWhenFleetIsBooked(t *testing.T) {
	r := newTestRouter(t)
	seedVehicle(t, r)

	rec := serve(r, call{method: http.MethodPost, path: "/api/v1/bookings", body: bookingBody, token: deskToken, key: "first"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(r, call{method: http.MethodPost, path: "/api/v1/bookings", body: bookingBody, token: deskToken, key: "second"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "availability", errorCode(t, rec))

	rec = serve(r, call{method: http.MethodGet, path: "/api/v1/vehicles/golf/availability?pickup_date=2030-06-04&return_date=2030-06-06"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_available":false`)
}

func TestCreateBooking_RejectsMalformedDate(t *testing.T) {
	r := newTestRouter(t)
	seedVehicle(t, r)

	body := strings.Replace(bookingBody, "2030-06-05", "05/06/2030", 1)
	rec := serve(r, call{method: http.MethodPost, path: "/api/v1/bookings", body: body, token: deskToken, key: "bad-date"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_date_range", errorCode(t, rec))
}

func TestCancelBooking_WithoutBody(t *testing.T) {
	r := newTestRouter(t)
	seedVehicle(t, r)

	rec := serve(r, call{method: http.MethodPost, path: "/api/v1/bookings", body: bookingBody, token: deskToken, key: "c1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = serve(r, call{method: http.MethodPost, path: "/api/v1/bookings/" + created.ID + "/cancel", token: deskToken, key: "c2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)

	rec = serve(r, call{method: http.MethodPost, path: "/api/v1/bookings/" + created.ID + "/status", body: `{"status":"active"}`, token: deskToken, key: "c3"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", errorCode(t, rec))
}

func TestPricingPreview_IsPublic(t *testing.T) {
	r := newTestRouter(t)
	seedVehicle(t, r)

	body := `{"vehicle_id":"golf","pickup_date":"2030-06-03","return_date":"2030-06-04"}`
	rec := serve(r, call{method: http.MethodPost, path: "/api/v1/pricing/preview", body: body})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"days":1`)
}

func TestDocsRoutes(t *testing.T) {
	r := newTestRouter(t)

	rec := serve(r, call{method: http.MethodGet, path: "/docs"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), openAPIPath)

	rec = serve(r, call{method: http.MethodGet, path: openAPIPath})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, json.Valid(rec.Body.Bytes()))
}

func TestDeskViews_ListVehicleBookingsAndCustomers(t *testing.T) {
	r := newTestRouter(t)
	seedVehicle(t, r)

	rec := serve(r, call{method: http.MethodPost, path: "/api/v1/bookings", body: bookingBody, token: deskToken, key: "desk-1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(r, call{method: http.MethodGet, path: "/api/v1/vehicles/golf/bookings"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(r, call{method: http.MethodGet, path: "/api/v1/vehicles/golf/bookings", token: deskToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var data struct {
		TotalQuantity int `json:"total_quantity"`
		Occupancies   []struct {
			Number string `json:"booking_number"`
		} `json:"occupancies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.Equal(t, 1, data.TotalQuantity)
	assert.Len(t, data.Occupancies, 1)

	rec = serve(r, call{method: http.MethodGet, path: "/api/v1/customers?q=silva", token: deskToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"email":"ana@example.com"`)
}

func TestSearchVehicles_LimitCountsOnlyAvailableVehicles(t *testing.T) {
	r := newTestRouter(t)
	seedVehicle(t, r)
	polo := strings.Replace(golf, "VW Golf", "VW Polo", 1)
	rec := serve(r, call{method: http.MethodPut, path: "/api/v1/vehicles/polo", body: polo, token: deskToken, key: "seed-polo"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(r, call{method: http.MethodPost, path: "/api/v1/bookings", body: bookingBody, token: deskToken, key: "book-golf"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(r, call{method: http.MethodGet, path: "/api/v1/vehicles?limit=1&pickup_date=2030-06-03&return_date=2030-06-05"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var found struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.Len(t, found.Items, 1)
	assert.Equal(t, "polo", found.Items[0].ID)
}
