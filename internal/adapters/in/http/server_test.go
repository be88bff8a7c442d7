package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	httpadapter "tracking/internal/adapters/in/http"
	"tracking/internal/adapters/in/ws"
	"tracking/internal/adapters/out/hub"
	"tracking/internal/adapters/out/memory"
	"tracking/internal/core/application/usecases/commands"
	"tracking/internal/core/application/usecases/queries"
	"tracking/internal/core/domain/model/actor"
	"tracking/internal/core/domain/model/catalog"
	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/domain/model/order"
	"tracking/internal/core/ports"
	"tracking/internal/pkg/errs"
	"tracking/internal/pkg/metrics"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// stubIdentity treats the token as "<role>:<id>".
type stubIdentity struct{}

func (stubIdentity) Authenticate(_ context.Context, token string) (actor.Actor, error) {
	role, id, ok := strings.Cut(token, ":")
	if !ok {
		return actor.Actor{}, errs.NewUnauthenticatedError(nil)
	}
	parsedID, err := kernel.ParseID(id)
	if err != nil {
		return actor.Actor{}, errs.NewUnauthenticatedError(err)
	}
	parsedRole, err := actor.ParseRole(role)
	if err != nil {
		return actor.Actor{}, errs.NewUnauthenticatedError(err)
	}
	return actor.Actor{ID: parsedID, Role: parsedRole}, nil
}

type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]kernel.ID
}

func (m *memoryIdempotency) Forget(_ context.Context, scope, key string, orderID kernel.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.keys[scope+"|"+key]; ok && id.IsEqual(orderID) {
		delete(m.keys, scope+"|"+key)
	}
	return nil
}

func (m *memoryIdempotency) Remember(_ context.Context, scope, key string, orderID kernel.ID) (kernel.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.keys[scope+"|"+key]; ok {
		return id, nil
	}
	m.keys[scope+"|"+key] = orderID
	return orderID, nil
}

const (
	customerToken = "Customer:c1"
	d1Token       = "DeliveryPartner:d1"
	d2Token       = "DeliveryPartner:d2"
	d3Token       = "DeliveryPartner:d3"
	adminToken    = "Admin:a1"
)

type fixture struct {
	echo  *echo.Echo
	store *memory.OrderStore
	hub   *hub.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	home, err := kernel.NewGeoLocation(12.8, 77.5, "12 Lake Road")
	require.NoError(t, err)
	branchLoc, err := kernel.NewGeoLocation(12.9, 77.6, "")
	require.NoError(t, err)

	dir := memory.NewDirectory()
	dir.PutCustomer(actor.Customer{ID: kernel.MustParseID("c1"), Name: "Asha", LiveLocation: &home})
	dir.PutDeliveryPartner(actor.DeliveryPartner{ID: kernel.MustParseID("d1"), Name: "Ravi", Activated: true})
	dir.PutDeliveryPartner(actor.DeliveryPartner{ID: kernel.MustParseID("d2"), Name: "Meera", Activated: true})
	dir.PutDeliveryPartner(actor.DeliveryPartner{ID: kernel.MustParseID("d3"), Name: "Karan"})
	dir.PutAdmin(actor.Admin{ID: kernel.MustParseID("a1"), Name: "Root", Email: "root@example.com"})
	dir.PutBranch(catalog.Branch{ID: kernel.MustParseID("b1"), Name: "Central", Location: branchLoc})
	dir.PutProduct(catalog.Product{ID: kernel.MustParseID("p1"), Name: "Milk", Price: decimal.NewFromInt(10)})

	store := memory.NewOrderStore()
	factory := memory.NewUnitOfWorkFactory(store)

	h := hub.New()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	pub := hub.NewPublisher(h)

	reg := prometheus.NewRegistry()
	srv := httpadapter.NewServer(
		httpadapter.Handlers{
			CreateOrder:  commands.NewCreateOrderCommandHandler(factory, dir, dir, dir),
			ClaimOrder:   commands.NewClaimOrderCommandHandler(factory, dir, pub),
			UpdateStatus: commands.NewUpdateOrderStatusCommandHandler(factory, dir, pub),
			GetOrder:     queries.NewGetOrderQueryHandler(store, time.Second),
			ListOrders:   queries.NewListOrdersQueryHandler(store, time.Second),
			GetProfile:   queries.NewGetProfileQueryHandler(dir, dir, dir, time.Second),
		},
		stubIdentity{},
		httpadapter.WithIdempotency(&memoryIdempotency{keys: map[string]kernel.ID{}}),
		httpadapter.WithLiveChannel(ws.NewHandler(h)),
		httpadapter.WithHealth(func() any { return h.Stats() }),
		httpadapter.WithMetrics(metrics.NewHTTPMetrics(reg), metrics.Handler(reg)),
	)

	e := echo.New()
	srv.Register(e)

	return &fixture{echo: e, store: store, hub: h}
}

type response struct {
	Code    int
	Message string         `json:"message"`
	Error   string         `json:"error"`
	Order   map[string]any `json:"order"`
	Orders  []any          `json:"orders"`
	User    map[string]any `json:"user"`
}

func (f *fixture) do(t *testing.T, method, path, token, body string, headers ...string) response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)

	resp := response{Code: rec.Code}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return resp
}

const createBody = `{"items":[{"id":"p1","count":2}],"branch":"b1","totalPrice":20}`

func (f *fixture) createOrder(t *testing.T) string {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/order", customerToken, createBody)
	require.Equal(t, http.StatusCreated, resp.Code)
	return resp.Order["id"].(string)
}

func locationBody(extra string) string {
	return `{` + extra + `"currentLocation":{"latitude":12.85,"longitude":77.55,"address":"Gate 2"}}`
}

func TestScenarioA_CreateOrder(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/order", customerToken, createBody)

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "Order created successfully", resp.Message)
	assert.Equal(t, "available", resp.Order["status"])
	assert.NotContains(t, resp.Order, "deliveryPartner")
	assert.Equal(t, "c1", resp.Order["customer"])
	assert.Equal(t, "b1", resp.Order["branch"])

	items := resp.Order["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Milk", items[0].(map[string]any)["item"])

	pickup := resp.Order["pickupLocation"].(map[string]any)
	assert.Equal(t, kernel.NoAddressProvided, pickup["address"])
	delivery := resp.Order["deliveryLocation"].(map[string]any)
	assert.Equal(t, "12 Lake Road", delivery["address"])
}

func TestCreateOrder_Failures(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		token string
		body  string
		code  int
		kind  string
	}{
		{"no token", "", createBody, http.StatusUnauthorized, "Unauthenticated"},
		{"bad token", "nonsense", createBody, http.StatusUnauthorized, "Unauthenticated"},
		{"wrong role", d1Token, createBody, http.StatusForbidden, "Forbidden"},
		{"no items", customerToken, `{"items":[],"branch":"b1","totalPrice":20}`, http.StatusBadRequest, "ValidationError"},
		{"zero count", customerToken, `{"items":[{"id":"p1","count":0}],"branch":"b1","totalPrice":20}`, http.StatusBadRequest, "ValidationError"},
		{"no branch", customerToken, `{"items":[{"id":"p1","count":2}],"totalPrice":20}`, http.StatusBadRequest, "ValidationError"},
		{"no total", customerToken, `{"items":[{"id":"p1","count":2}],"branch":"b1"}`, http.StatusBadRequest, "ValidationError"},
		{"total mismatch", customerToken, `{"items":[{"id":"p1","count":2}],"branch":"b1","totalPrice":25}`, http.StatusBadRequest, "ValidationError"},
		{"unknown product", customerToken, `{"items":[{"id":"p9","count":2}],"branch":"b1","totalPrice":20}`, http.StatusBadRequest, "ValidationError"},
		{"unknown branch", customerToken, `{"items":[{"id":"p1","count":2}],"branch":"b9","totalPrice":20}`, http.StatusNotFound, "NotFound"},
		{"unknown customer", "Customer:c9", createBody, http.StatusNotFound, "NotFound"},
		{"malformed body", customerToken, `{"items":`, http.StatusBadRequest, "ValidationError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, http.MethodPost, "/order", tt.token, tt.body)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.kind, resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}

	orders, err := f.store.Find(t.Context(), ports.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrder_IdempotencyKeyReplaysFirstOrder(t *testing.T) {
	f := newFixture(t)

	first := f.do(t, http.MethodPost, "/order", customerToken, createBody, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, first.Code)
	second := f.do(t, http.MethodPost, "/order", customerToken, createBody, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Order["id"], second.Order["id"])

	third := f.do(t, http.MethodPost, "/order", customerToken, createBody, "Idempotency-Key", "k-2")
	assert.NotEqual(t, first.Order["id"], third.Order["id"])

	orders, err := f.store.Find(t.Context(), ports.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestCreateOrder_ConcurrentSameIdempotencyKey(t *testing.T) {
	const requests = 8
	f := newFixture(t)

	responses := make([]response, requests)
	var g errgroup.Group
	for i := range requests {
		g.Go(func() error {
			responses[i] = f.do(t, http.MethodPost, "/order", customerToken, createBody, "Idempotency-Key", "k-race")
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, r := range responses {
		require.Equal(t, http.StatusCreated, r.Code)
		assert.Equal(t, responses[0].Order["id"], r.Order["id"])
	}

	orders, err := f.store.Find(t.Context(), ports.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, responses[0].Order["id"], orders[0].ID().String())
}

func TestCreateOrder_FailedCreateReleasesIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	wrongTotal := `{"items":[{"id":"p1","count":2}],"branch":"b1","totalPrice":25}`

	failed := f.do(t, http.MethodPost, "/order", customerToken, wrongTotal, "Idempotency-Key", "k-retry")
	require.Equal(t, http.StatusBadRequest, failed.Code)

	retried := f.do(t, http.MethodPost, "/order", customerToken, createBody, "Idempotency-Key", "k-retry")
	require.Equal(t, http.StatusCreated, retried.Code)

	orders, err := f.store.Find(t.Context(), ports.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, retried.Order["id"], orders[0].ID().String())
}

func TestScenarioB_ConcurrentClaims(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t)

	codes := make([]response, 2)
	var g errgroup.Group
	for i, token := range []string{d1Token, d2Token} {
		g.Go(func() error {
			codes[i] = f.do(t, http.MethodPost, "/order/"+orderID+"/confirm", token, locationBody(""))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var winner, loser response
	switch {
	case codes[0].Code == http.StatusOK:
		winner, loser = codes[0], codes[1]
	default:
		winner, loser = codes[1], codes[0]
	}
	require.Equal(t, http.StatusOK, winner.Code)
	assert.Equal(t, "confirmed", winner.Order["status"])
	assert.Equal(t, http.StatusBadRequest, loser.Code)
	assert.Equal(t, "InvalidTransition", loser.Error)

	stored := f.do(t, http.MethodGet, "/order/"+orderID, adminToken, "")
	assert.Equal(t, winner.Order["deliveryPartner"], stored.Order["deliveryPartner"])
}

func TestScenarioC_DeliverThenRefuse(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/order/"+orderID+"/confirm", d1Token, locationBody("")).Code)

	resp := f.do(t, http.MethodPatch, "/order/"+orderID+"/status", d1Token, locationBody(`"status":"delivered",`))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "delivered", resp.Order["status"])
	assert.Equal(t, "Order status updated successfully", resp.Message)

	again := f.do(t, http.MethodPatch, "/order/"+orderID+"/status", d1Token, locationBody(`"status":"delivered",`))
	assert.Equal(t, http.StatusBadRequest, again.Code)
	assert.Equal(t, "InvalidTransition", again.Error)
}

func TestScenarioD_NonOwnerIsForbidden(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/order/"+orderID+"/confirm", d1Token, locationBody("")).Code)

	for _, status := range []string{"confirmed", "delivered", "cancelled"} {
		resp := f.do(t, http.MethodPatch, "/order/"+orderID+"/status", d2Token, locationBody(`"status":"`+status+`",`))
		assert.Equal(t, http.StatusForbidden, resp.Code, status)
	}

	stored := f.do(t, http.MethodGet, "/order/"+orderID, customerToken, "")
	assert.Equal(t, "confirmed", stored.Order["status"])
}

func TestScenarioE_ClaimWithoutLongitude(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t)

	resp := f.do(t, http.MethodPost, "/order/"+orderID+"/confirm", d1Token, `{"currentLocation":{"latitude":12.85}}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "ValidationError", resp.Error)

	stored := f.do(t, http.MethodGet, "/order/"+orderID, d1Token, "")
	assert.Equal(t, "available", stored.Order["status"])
	assert.NotContains(t, stored.Order, "deliveryPartner")
}

func TestClaimOrder_Failures(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t)

	deactivated := f.do(t, http.MethodPost, "/order/"+orderID+"/confirm", d3Token, locationBody(""))
	assert.Equal(t, http.StatusForbidden, deactivated.Code)

	unknownPartner := f.do(t, http.MethodPost, "/order/"+orderID+"/confirm", "DeliveryPartner:d9", locationBody(""))
	assert.Equal(t, http.StatusForbidden, unknownPartner.Code)

	customer := f.do(t, http.MethodPost, "/order/"+orderID+"/confirm", customerToken, locationBody(""))
	assert.Equal(t, http.StatusForbidden, customer.Code)

	missing := f.do(t, http.MethodPost, "/order/o-missing/confirm", d1Token, locationBody(""))
	assert.Equal(t, http.StatusNotFound, missing.Code)

	legacyField := f.do(t, http.MethodPost, "/order/"+orderID+"/confirm", d1Token,
		`{"deliveryPersonLocation":{"latitude":12.85,"longitude":77.55}}`)
	require.Equal(t, http.StatusOK, legacyField.Code)
	assert.Equal(t, "d1", legacyField.Order["deliveryPartner"])
}

func TestUpdateStatus_Validation(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/order/"+orderID+"/confirm", d1Token, locationBody("")).Code)

	unknown := f.do(t, http.MethodPatch, "/order/"+orderID+"/status", d1Token, locationBody(`"status":"lost",`))
	assert.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.Equal(t, "ValidationError", unknown.Error)

	available := f.do(t, http.MethodPatch, "/order/"+orderID+"/status", d1Token, locationBody(`"status":"available",`))
	assert.Equal(t, http.StatusBadRequest, available.Code)

	noStatus := f.do(t, http.MethodPatch, "/order/"+orderID+"/status", d1Token, locationBody(""))
	assert.Equal(t, http.StatusBadRequest, noStatus.Code)

	refresh := f.do(t, http.MethodPatch, "/order/"+orderID+"/status", d1Token, locationBody(`"status":"confirmed",`))
	assert.Equal(t, http.StatusOK, refresh.Code)
	assert.Equal(t, "confirmed", refresh.Order["status"])
}

func TestGetAndListOrders(t *testing.T) {
	f := newFixture(t)
	first := f.createOrder(t)
	second := f.createOrder(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/order/"+first+"/confirm", d1Token, locationBody("")).Code)

	all := f.do(t, http.MethodGet, "/orders", adminToken, "")
	require.Equal(t, http.StatusOK, all.Code)
	assert.Equal(t, "Orders fetched successfully", all.Message)
	assert.Len(t, all.Orders, 2)

	available := f.do(t, http.MethodGet, "/orders?status=available", d2Token, "")
	require.Len(t, available.Orders, 1)
	assert.Equal(t, second, available.Orders[0].(map[string]any)["id"])

	mine := f.do(t, http.MethodGet, "/orders?deliveryPartnerId=d1", d1Token, "")
	require.Len(t, mine.Orders, 1)
	assert.Equal(t, first, mine.Orders[0].(map[string]any)["id"])

	none := f.do(t, http.MethodGet, "/orders?customerId=c9", customerToken, "")
	require.Equal(t, http.StatusOK, none.Code)
	assert.Empty(t, none.Orders)

	badStatus := f.do(t, http.MethodGet, "/orders?status=lost", customerToken, "")
	assert.Equal(t, http.StatusBadRequest, badStatus.Code)

	badLimit := f.do(t, http.MethodGet, "/orders?limit=100000", customerToken, "")
	assert.Equal(t, http.StatusBadRequest, badLimit.Code)

	unauthenticated := f.do(t, http.MethodGet, "/orders", "", "")
	assert.Equal(t, http.StatusUnauthorized, unauthenticated.Code)

	got := f.do(t, http.MethodGet, "/order/"+first, customerToken, "")
	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, "Order fetched successfully", got.Message)

	missing := f.do(t, http.MethodGet, "/order/o-missing", customerToken, "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestGetProfile(t *testing.T) {
	f := newFixture(t)

	customer := f.do(t, http.MethodGet, "/me", customerToken, "")
	require.Equal(t, http.StatusOK, customer.Code)
	assert.Equal(t, "Customer", customer.User["role"])
	assert.Equal(t, "Asha", customer.User["name"])

	partner := f.do(t, http.MethodGet, "/me", d3Token, "")
	require.Equal(t, http.StatusOK, partner.Code)
	assert.Equal(t, false, partner.User["isActivated"])

	admin := f.do(t, http.MethodGet, "/me", adminToken, "")
	require.Equal(t, http.StatusOK, admin.Code)
	assert.Equal(t, "root@example.com", admin.User["email"])

	missing := f.do(t, http.MethodGet, "/me", "Admin:a9", "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)
	f.createOrder(t)

	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","hub":{"channels":0,"subscribers":0}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	f.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tracking_http_requests_total{method="POST",route="/order",status="201"} 1`)
}

func TestLiveChannel_ReceivesLifecycleEvents(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t)

	srv := httptest.NewServer(f.echo)
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/orders/" + orderID + "?token=" + customerToken

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return f.hub.Stats().Subscribers == 1 }, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/order/"+orderID+"/confirm", d1Token, locationBody("")).Code)
	require.Equal(t, http.StatusOK,
		f.do(t, http.MethodPatch, "/order/"+orderID+"/status", d1Token, locationBody(`"status":"delivered",`)).Code)

	want := []struct {
		event  order.EventName
		status string
	}{
		{order.EventOrderConfirmed, "confirmed"},
		{order.EventLiveTrackingUpdate, "delivered"},
		{order.EventOrderStatusUpdated, "delivered"},
	}
	for _, w := range want {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var frame struct {
			Event   string         `json:"event"`
			OrderID string         `json:"orderId"`
			Data    map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &frame))
		assert.Equal(t, w.event.String(), frame.Event)
		assert.Equal(t, orderID, frame.OrderID)
		assert.Equal(t, w.status, frame.Data["status"])
	}
}

func TestLiveChannel_RequiresToken(t *testing.T) {
	f := newFixture(t)

	srv := httptest.NewServer(f.echo)
	t.Cleanup(srv.Close)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/orders/o1", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
