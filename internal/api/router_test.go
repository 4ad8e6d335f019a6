package api

import (
	"bytes"
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"wealth-planner/internal/api/models"
	"wealth-planner/internal/config"
	"wealth-planner/internal/model"
	"wealth-planner/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubSim answers every request at once; the destitution area echoes the
// initial wealth so ranking order is predictable.
type stubSim struct {
	mu    sync.Mutex
	calls int
}

func (s *stubSim) Simulate(ctx context.Context, req *model.SimulationRequest) (*model.SimulationResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return &model.SimulationResult{
		Timesteps:       []float64{0, req.EndStep},
		Destitution:     []float64{0, 0.1},
		Real:            model.MoneySeries{Mean: []float64{req.InitialWealth, 100}, Percentiles: map[string][]float64{"50.0": {req.InitialWealth, 100}}, FinalMedian: 100},
		Nominal:         model.MoneySeries{Mean: []float64{req.InitialWealth, 200}, Percentiles: map[string][]float64{"50.0": {req.InitialWealth, 200}}, FinalMedian: 200},
		DestitutionArea: req.InitialWealth / 1e6,
	}, nil
}

type testServer struct {
	router   *gin.Engine
	sessions *session.Manager
	sim      *stubSim
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	plans := map[string]string{
		"rich.yaml": "plan:\n  name: Rich\n  params:\n    initial_wealth: 900000\n",
		"poor.yaml": "plan:\n  name: Poor\n  description: starts small\n  params:\n    initial_wealth: 1000\n",
	}
	for name, body := range plans {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	sim := &stubSim{}
	mgr := session.NewManager(session.Options{Simulator: sim})
	t.Cleanup(mgr.Close)
	r := NewRouter(Options{
		Sessions:    mgr,
		Simulator:   sim,
		DefaultPlan: config.DefaultPlan(),
		PlanDir:     dir,
		ServiceStatus: func(context.Context) (string, error) {
			return "running", nil
		},
	})
	return &testServer{router: r, sessions: mgr, sim: sim}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		buf.Write(raw)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func (ts *testServer) create(t *testing.T, body interface{}) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/v1/sessions", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	return decode[models.SessionResponse](t, w).ID
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (%s)", w.Code, status, w.Body.String())
	}
	if got := decode[models.ErrorResponse](t, w).Error.Code; got != code {
		t.Fatalf("code = %s, want %s", got, code)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"simulation":"running"`) {
		t.Fatalf("health = %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	id := ts.create(t, nil)

	w := ts.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d", w.Code)
	}
	got := decode[models.SessionResponse](t, w)
	if got.State.Horizon != 720 || len(got.State.Cashflow) != 4 {
		t.Fatalf("state = %+v", got.State)
	}

	list := decode[models.SessionListResponse](t, ts.do(t, http.MethodGet, "/api/v1/sessions", nil))
	if len(list.Sessions) != 1 || list.Sessions[0] != id {
		t.Fatalf("sessions = %v", list.Sessions)
	}

	if w := ts.do(t, http.MethodDelete, "/api/v1/sessions/"+id, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	expectError(t, ts.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil), http.StatusNotFound, "SESSION_NOT_FOUND")
}

func TestCreateSession_FromPreset(t *testing.T) {
	ts := newTestServer(t)
	id := ts.create(t, models.CreateSessionRequest{Plan: "poor"})
	s, ok := ts.sessions.Get(id)
	if !ok {
		t.Fatal("session not registered")
	}
	if snap := s.Snapshot(); snap.Plan != "Poor" || *snap.Params.InitialWealth != 1000 {
		t.Fatalf("snapshot = %+v", snap)
	}
	expectError(t, ts.do(t, http.MethodPost, "/api/v1/sessions", models.CreateSessionRequest{Plan: "missing"}), http.StatusNotFound, "NOT_FOUND")
	expectError(t, ts.do(t, http.MethodPost, "/api/v1/sessions", models.CreateSessionRequest{Plan: "../etc"}), http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestCashflowPoints(t *testing.T) {
	ts := newTestServer(t)
	id := ts.create(t, nil)
	base := "/api/v1/sessions/" + id + "/cashflow"

	w := ts.do(t, http.MethodPost, base+"/points", map[string]int{"step": 120})
	if w.Code != http.StatusOK {
		t.Fatalf("add: %d %s", w.Code, w.Body.String())
	}
	if got := decode[models.EditResponse](t, w); len(got.State.Cashflow) != 5 {
		t.Fatalf("cashflow = %+v", got.State.Cashflow)
	}

	// too close to the new neighbor
	expectError(t, ts.do(t, http.MethodPost, base+"/points", map[string]int{"step": 125}), http.StatusConflict, "EDIT_REJECTED")
	expectError(t, ts.do(t, http.MethodPost, base+"/points", map[string]string{}), http.StatusBadRequest, "INVALID_REQUEST")

	w = ts.do(t, http.MethodPut, base+"/points/120", map[string]string{"text": "12.5"})
	if w.Code != http.StatusOK {
		t.Fatalf("set text: %d %s", w.Code, w.Body.String())
	}
	if got := decode[models.EditResponse](t, w); got.State.Cashflow[1].Value != 12.5 {
		t.Fatalf("value = %v", got.State.Cashflow[1].Value)
	}
	expectError(t, ts.do(t, http.MethodPut, base+"/points/120", map[string]string{"text": "lots"}), http.StatusBadRequest, "VALIDATION_ERROR")
	expectError(t, ts.do(t, http.MethodPut, base+"/points/abc", map[string]float64{"value": 1}), http.StatusBadRequest, "INVALID_STEP")

	if w := ts.do(t, http.MethodDelete, base+"/points/120", nil); w.Code != http.StatusOK {
		t.Fatalf("remove: %d %s", w.Code, w.Body.String())
	}
	expectError(t, ts.do(t, http.MethodDelete, base+"/points/0", nil), http.StatusConflict, "EDIT_REJECTED")

	expectError(t, ts.do(t, http.MethodPut, base+"/bounds", map[string]float64{"max_inflow": 1000, "max_outflow": 5}), http.StatusBadRequest, "VALIDATION_ERROR")
	w = ts.do(t, http.MethodPut, base+"/bounds", map[string]float64{"max_inflow": 1000, "max_outflow": -20000})
	if w.Code != http.StatusOK {
		t.Fatalf("bounds: %d %s", w.Code, w.Body.String())
	}
	if got := decode[models.EditResponse](t, w); got.State.Cashflow[0].Value != 1000 || got.State.Cashflow[3].Value != -20000 {
		t.Fatalf("not re-clamped: %+v", got.State.Cashflow)
	}
}

func TestCashflowDrag(t *testing.T) {
	ts := newTestServer(t)
	id := ts.create(t, nil)
	path := "/api/v1/sessions/" + id + "/cashflow/drag"

	if w := ts.do(t, http.MethodPost, path, map[string]interface{}{"phase": "begin", "step": 360}); w.Code != http.StatusOK {
		t.Fatalf("begin: %d %s", w.Code, w.Body.String())
	}
	// structural edits wait for the gesture
	expectError(t, ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/cashflow/points", map[string]int{"step": 120}), http.StatusConflict, "EDIT_REJECTED")
	// a move must say where the point goes
	expectError(t, ts.do(t, http.MethodPost, path, map[string]interface{}{"phase": "move", "new_step": 100}), http.StatusBadRequest, "INVALID_REQUEST")
	expectError(t, ts.do(t, http.MethodPost, path, map[string]interface{}{"phase": "move", "value": 1000}), http.StatusBadRequest, "INVALID_REQUEST")

	if w := ts.do(t, http.MethodPost, path, map[string]interface{}{"phase": "move", "new_step": 100, "value": 1000}); w.Code != http.StatusOK {
		t.Fatalf("move: %d %s", w.Code, w.Body.String())
	}
	w := ts.do(t, http.MethodPost, path, map[string]string{"phase": "end"})
	if w.Code != http.StatusOK {
		t.Fatalf("end: %d %s", w.Code, w.Body.String())
	}
	got := decode[models.EditResponse](t, w).State
	if got.Cashflow[1].Step != 96 || got.Cashflow[1].Value != 1000 {
		t.Fatalf("dragged point = %+v", got.Cashflow[1])
	}

	expectError(t, ts.do(t, http.MethodPost, path, map[string]string{"phase": "end"}), http.StatusConflict, "EDIT_REJECTED")
	expectError(t, ts.do(t, http.MethodPost, path, map[string]string{"phase": "fling"}), http.StatusBadRequest, "INVALID_REQUEST")

	// segment drag between 361 and 720
	if w := ts.do(t, http.MethodPost, path, map[string]interface{}{"phase": "segment", "x": 500}); w.Code != http.StatusOK {
		t.Fatalf("segment: %d %s", w.Code, w.Body.String())
	}
	if w := ts.do(t, http.MethodPost, path, map[string]interface{}{"phase": "move", "delta": -10000}); w.Code != http.StatusOK {
		t.Fatalf("segment move: %d %s", w.Code, w.Body.String())
	}
	got = decode[models.EditResponse](t, ts.do(t, http.MethodPost, path, map[string]string{"phase": "end"})).State
	if got.Cashflow[2].Value != -50000 || got.Cashflow[3].Value != -50000 {
		t.Fatalf("segment = %+v", got.Cashflow)
	}
}

func TestWeightsEditing(t *testing.T) {
	ts := newTestServer(t)
	id := ts.create(t, nil)
	base := "/api/v1/sessions/" + id + "/weights"

	expectError(t, ts.do(t, http.MethodPost, base+"/drag", map[string]interface{}{"phase": "begin", "step": 360, "handle": "cash"}), http.StatusBadRequest, "VALIDATION_ERROR")

	for _, body := range []map[string]interface{}{
		{"phase": "begin", "step": 360, "handle": "bonds"},
		{"phase": "move", "new_step": 360, "boundary": 0.5},
	} {
		if w := ts.do(t, http.MethodPost, base+"/drag", body); w.Code != http.StatusOK {
			t.Fatalf("%v: %d %s", body, w.Code, w.Body.String())
		}
	}
	expectError(t, ts.do(t, http.MethodPost, base+"/drag", map[string]interface{}{"phase": "move", "new_step": 360}), http.StatusBadRequest, "INVALID_REQUEST")
	got := decode[models.EditResponse](t, ts.do(t, http.MethodPost, base+"/drag", map[string]string{"phase": "end"})).State
	if w := got.Weights[1]; math.Abs(w.Bonds-0.5) > 1e-9 || math.Abs(w.Stocks-0.5) > 1e-9 {
		t.Fatalf("weights = %+v", w)
	}

	expectError(t, ts.do(t, http.MethodPut, base+"/points/360", map[string]float64{"bonds": 0.8, "stocks": 0.8}), http.StatusBadRequest, "VALIDATION_ERROR")
	w := ts.do(t, http.MethodPut, base+"/points/360", map[string]float64{"bonds": 0.2, "stocks": 0.3})
	if w.Code != http.StatusOK {
		t.Fatalf("set: %d %s", w.Code, w.Body.String())
	}
	if c := decode[models.EditResponse](t, w).State.Weights[1].Cash; c < 0.49 || c > 0.51 {
		t.Fatalf("cash = %v", c)
	}

	if w := ts.do(t, http.MethodPost, base+"/points", map[string]int{"step": 600}); w.Code != http.StatusOK {
		t.Fatalf("add: %d %s", w.Code, w.Body.String())
	}
	if w := ts.do(t, http.MethodDelete, base+"/points/600", nil); w.Code != http.StatusOK {
		t.Fatalf("remove: %d %s", w.Code, w.Body.String())
	}
}

func TestParamsHorizonAndRequest(t *testing.T) {
	ts := newTestServer(t)
	id := ts.create(t, nil)
	base := "/api/v1/sessions/" + id

	expectError(t, ts.do(t, http.MethodPut, base+"/params", map[string]int{"iterations": 0}), http.StatusBadRequest, "VALIDATION_ERROR")
	if w := ts.do(t, http.MethodPut, base+"/params", map[string]float64{"initial_wealth": 75000}); w.Code != http.StatusOK {
		t.Fatalf("params: %d %s", w.Code, w.Body.String())
	}
	if w := ts.do(t, http.MethodPut, base+"/horizon", map[string]int{"years": 40}); w.Code != http.StatusOK {
		t.Fatalf("horizon: %d %s", w.Code, w.Body.String())
	}

	w := ts.do(t, http.MethodGet, base+"/request", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("request: %d %s", w.Code, w.Body.String())
	}
	req := decode[model.SimulationRequest](t, w)
	if req.EndStep != 40 || req.InitialWealth != 75000 || req.NumberOfSimulations != 1000 {
		t.Fatalf("request = %+v", req)
	}
	if last := req.SavingsRates[len(req.SavingsRates)-1]; last.Step != 40 {
		t.Fatalf("savings rates end at %v", last.Step)
	}
	if ts.sim.calls != 0 {
		t.Fatal("preview called the simulator")
	}
}

func TestSimulateAndResult(t *testing.T) {
	ts := newTestServer(t)
	id := ts.create(t, nil)
	base := "/api/v1/sessions/" + id

	if got := decode[models.ResultResponse](t, ts.do(t, http.MethodGet, base+"/result", nil)); got.Status != "pending" {
		t.Fatalf("status before simulate = %s", got.Status)
	}

	w := ts.do(t, http.MethodPost, base+"/simulate", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("simulate: %d %s", w.Code, w.Body.String())
	}
	if gen := decode[models.SimulateResponse](t, w).Generation; gen != 1 {
		t.Fatalf("generation = %d", gen)
	}
	s, _ := ts.sessions.Get(id)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	got := decode[models.ResultResponse](t, ts.do(t, http.MethodGet, base+"/result", nil))
	if got.Status != "ready" || got.View.FinalMedian != 100 || got.View.Steps[1] != 720 {
		t.Fatalf("result = %+v", got)
	}

	expectError(t, ts.do(t, http.MethodPut, base+"/display", map[string]string{"money_type": "gold"}), http.StatusBadRequest, "VALIDATION_ERROR")
	w = ts.do(t, http.MethodPut, base+"/display", map[string]string{"money_type": "nominal", "scale": "log"})
	if w.Code != http.StatusOK {
		t.Fatalf("display: %d %s", w.Code, w.Body.String())
	}
	got = decode[models.ResultResponse](t, w)
	if got.View.MoneyType != model.MoneyNominal || got.View.Scale != model.ScaleLog || got.View.FinalMedian != 200 {
		t.Fatalf("display view = %+v", got.View)
	}
}

func TestSimulateWithoutSimulator(t *testing.T) {
	mgr := session.NewManager(session.Options{})
	defer mgr.Close()
	r := NewRouter(Options{Sessions: mgr, DefaultPlan: config.DefaultPlan(), PlanDir: t.TempDir()})
	ts := &testServer{router: r, sessions: mgr}
	id := ts.create(t, nil)
	expectError(t, ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/simulate", nil), http.StatusServiceUnavailable, "NO_SIMULATOR")
	expectError(t, ts.do(t, http.MethodGet, "/api/v1/plans/rank", nil), http.StatusServiceUnavailable, "NO_SIMULATOR")
}

func TestPlans(t *testing.T) {
	ts := newTestServer(t)
	list := decode[models.PlanListResponse](t, ts.do(t, http.MethodGet, "/api/v1/plans", nil))
	if len(list.Plans) != 2 || list.Plans[0].ID != "poor" || list.Plans[0].Description != "starts small" {
		t.Fatalf("plans = %+v", list.Plans)
	}

	w := ts.do(t, http.MethodGet, "/api/v1/plans/rank?money=real", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rank: %d %s", w.Code, w.Body.String())
	}
	rank := decode[models.RankResponse](t, w)
	if len(rank.Rankings) != 2 || rank.Rankings[0].Plan != "poor" || rank.Rankings[1].Rank != 2 {
		t.Fatalf("rankings = %+v", rank.Rankings)
	}

	rank = decode[models.RankResponse](t, ts.do(t, http.MethodGet, "/api/v1/plans/rank?ids=rich&limit=5", nil))
	if len(rank.Rankings) != 1 || rank.Rankings[0].Plan != "rich" {
		t.Fatalf("rankings = %+v", rank.Rankings)
	}
	expectError(t, ts.do(t, http.MethodGet, "/api/v1/plans/rank?limit=0", nil), http.StatusBadRequest, "INVALID_REQUEST")
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestUnknownAPIRoute(t *testing.T) {
	ts := newTestServer(t)
	expectError(t, ts.do(t, http.MethodGet, "/api/v1/nothing", nil), http.StatusNotFound, "NOT_FOUND")
}

func TestEventsStream(t *testing.T) {
	ts := newTestServer(t)
	id := ts.create(t, map[string]bool{"auto_simulate": false})
	s, ok := ts.sessions.Get(id)
	if !ok {
		t.Fatal("session missing")
	}

	srv := httptest.NewServer(ts.router)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/" + id + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// more events than the per-client buffer before the first read
	for i := 0; i < 300; i++ {
		s.Events().Emit(session.Event{Type: session.EventChange, Editor: "test", Op: "burst"})
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var first session.Event
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if first.Type != session.EventChange || first.Snapshot == nil {
		t.Fatalf("first event = %+v, want change with snapshot", first)
	}

	var ev session.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read burst: %v", err)
	}
	if ev.Op != "burst" {
		t.Fatalf("event = %+v, want a burst event", ev)
	}
}
