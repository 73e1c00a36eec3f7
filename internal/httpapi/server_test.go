package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"runnerDispatch/internal/config"
	"runnerDispatch/internal/feed"
	"runnerDispatch/internal/lifecycle"
	"runnerDispatch/internal/notify"
	"runnerDispatch/internal/orders"
	"runnerDispatch/internal/testutil"
	"runnerDispatch/models"
	"runnerDispatch/repository"
)

type testServer struct {
	router    *gin.Engine
	orders    *repository.OrderRepository
	merchants *repository.MerchantRepository
}

func newTestServer(t *testing.T, name string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	d := testutil.OpenInMemoryDB(t, name)
	broker := feed.NewBroker()
	t.Cleanup(broker.Close)

	runners := repository.NewRunnerRepository(d)
	merchants := repository.NewMerchantRepository(d)
	ordersRepo := repository.NewOrderRepository(d, broker)
	history := repository.NewHistoryRepository(d)
	earnings := repository.NewEarningsRepository(d)

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Runner.BaseFee = config.DefaultBaseFee
	cfg.Runner.MaxActive = config.DefaultMaxActive

	fetcher := orders.NewFetcher(ordersRepo, merchants)
	control := lifecycle.NewController(ordersRepo, history, earnings, notify.NewFanout(), cfg.Runner.BaseFee, cfg.Runner.MaxActive)
	srv := New(cfg, runners, earnings, fetcher, control, broker)

	return &testServer{router: srv.Router(), orders: ordersRepo, merchants: merchants}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) login(t *testing.T, name string) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/login", "", gin.H{"name": name})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", name, w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("login %s: bad response %s", name, w.Body.String())
	}
	return resp.Token
}

func (ts *testServer) seedOrder(t *testing.T) *models.Order {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	m := testutil.SeedMerchant(t, ctx, ts.merchants)
	return testutil.SeedOrder(t, ctx, ts.orders, m.ID)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "http_health")
	w := ts.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
}

func TestOrdersRequireAuth(t *testing.T) {
	ts := newTestServer(t, "http_auth")
	if w := ts.do(t, http.MethodGet, "/api/orders", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status %d, want 401", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/api/orders", "not-a-jwt", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status %d, want 401", w.Code)
	}
}

func TestListOrdersViews(t *testing.T) {
	ts := newTestServer(t, "http_views")
	tok := ts.login(t, "alice")
	ts.seedOrder(t)

	w := ts.do(t, http.MethodGet, "/api/orders?view=available", tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("available: status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Count  int             `json:"count"`
		Orders []orders.Detail `json:"orders"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 1 || len(resp.Orders) != 1 {
		t.Fatalf("available = %s", w.Body.String())
	}
	if resp.Orders[0].Merchant == nil {
		t.Error("listing should join merchant data")
	}

	if w := ts.do(t, http.MethodGet, "/api/orders?view=archived", tok, nil); w.Code != http.StatusBadRequest {
		t.Errorf("unknown view: status %d, want 400", w.Code)
	}
}

func TestAcceptConflictBetweenRunners(t *testing.T) {
	ts := newTestServer(t, "http_conflict")
	alice := ts.login(t, "alice")
	bob := ts.login(t, "bob")
	o := ts.seedOrder(t)

	path := fmt.Sprintf("/api/orders/%d/accept", o.ID)
	if w := ts.do(t, http.MethodPost, path, alice, nil); w.Code != http.StatusOK {
		t.Fatalf("alice accept: status %d: %s", w.Code, w.Body.String())
	}
	w := ts.do(t, http.MethodPost, path, bob, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("bob accept: status %d, want 409: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Reason != string(lifecycle.ReasonAlreadyAssigned) {
		t.Errorf("reason = %q, want ALREADY_ASSIGNED", resp.Reason)
	}
}

func TestDeliveryFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t, "http_flow")
	tok := ts.login(t, "alice")
	o := ts.seedOrder(t)

	steps := []string{"accept", "collect", "transit"}
	for _, step := range steps {
		w := ts.do(t, http.MethodPost, fmt.Sprintf("/api/orders/%d/%s", o.ID, step), tok, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status %d: %s", step, w.Code, w.Body.String())
		}
	}

	deliver := fmt.Sprintf("/api/orders/%d/deliver", o.ID)

	// Malformed PIN fails binding before the core is touched.
	if w := ts.do(t, http.MethodPost, deliver, tok, gin.H{"pin": "12"}); w.Code != http.StatusBadRequest {
		t.Errorf("short pin: status %d, want 400", w.Code)
	}
	// Well-formed but wrong PIN is a business rejection.
	w := ts.do(t, http.MethodPost, deliver, tok, gin.H{"pin": "9999"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("wrong pin: status %d, want 422: %s", w.Code, w.Body.String())
	}
	var rej struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &rej); err != nil || rej.Reason != string(lifecycle.ReasonInvalidPin) {
		t.Errorf("reason = %q, want INVALID_PIN", rej.Reason)
	}

	if w := ts.do(t, http.MethodPost, deliver, tok, gin.H{"pin": "1234"}); w.Code != http.StatusOK {
		t.Fatalf("deliver: status %d: %s", w.Code, w.Body.String())
	}

	// Earnings now show the delivery.
	w = ts.do(t, http.MethodGet, "/api/earnings", tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("earnings: status %d", w.Code)
	}
	var earn struct {
		Count int     `json:"count"`
		Total float64 `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &earn); err != nil {
		t.Fatal(err)
	}
	if earn.Count != 1 || earn.Total != config.DefaultBaseFee {
		t.Errorf("earnings = %s", w.Body.String())
	}
}

func TestGetOrderNotFound(t *testing.T) {
	ts := newTestServer(t, "http_notfound")
	tok := ts.login(t, "alice")

	if w := ts.do(t, http.MethodGet, "/api/orders/99999", tok, nil); w.Code != http.StatusNotFound {
		t.Errorf("missing order: status %d, want 404", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/api/orders/abc", tok, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: status %d, want 400", w.Code)
	}
	if w := ts.do(t, http.MethodPost, "/api/orders/99999/accept", tok, nil); w.Code != http.StatusNotFound {
		t.Errorf("accept missing: status %d, want 404", w.Code)
	}
}

func TestLoginIsIdempotentPerName(t *testing.T) {
	ts := newTestServer(t, "http_login")

	w1 := ts.do(t, http.MethodPost, "/api/login", "", gin.H{"name": "alice"})
	w2 := ts.do(t, http.MethodPost, "/api/login", "", gin.H{"name": "alice"})
	if w1.Code != http.StatusOK || w2.Code != http.StatusOK {
		t.Fatalf("login status %d, %d", w1.Code, w2.Code)
	}
	var r1, r2 struct {
		Runner models.Runner `json:"runner"`
	}
	if err := json.Unmarshal(w1.Body.Bytes(), &r1); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(w2.Body.Bytes(), &r2); err != nil {
		t.Fatal(err)
	}
	if r1.Runner.ID != r2.Runner.ID {
		t.Errorf("repeat login created a second runner: %d vs %d", r1.Runner.ID, r2.Runner.ID)
	}

	if w := ts.do(t, http.MethodPost, "/api/login", "", gin.H{}); w.Code != http.StatusBadRequest {
		t.Errorf("missing name: status %d, want 400", w.Code)
	}
}
