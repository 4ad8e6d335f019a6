package simclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"wealth-planner/internal/model"
)

const resultJSON = `{
	"timesteps": [0, 1, 2],
	"destitution": [0, 0.01, 0.05],
	"real": {"mean": [10, 11, 12], "percentiles": {"5.0": [9, 9, 8], "50.0": [10, 11, 12]}, "final_mean": 12},
	"nominal": {"mean": [10, 12, 14], "percentiles": {"5.0": [9, 10, 10]}, "final_mean": 14},
	"simulation_time": 0.25,
	"total_parameters": 123,
	"destitution_area": 0.06
}`

func testRequest() *model.SimulationRequest {
	return &model.SimulationRequest{
		NumberOfSimulations: 100,
		EndStep:             2,
		InitialWealth:       10,
		SavingsRates:        []model.CashflowPoint{{Step: 0, Value: 1}, {Step: 2, Value: 1}},
		Weights:             []model.WeightsPoint{{Step: 0, Bonds: 0.5, Stocks: 0.5}, {Step: 2, Bonds: 0.5, Stocks: 0.5}},
		StepSize:            model.StepSizeAnnual,
		Percentiles:         []float64{5, 50},
	}
}

func TestSimulate_Success(t *testing.T) {
	var got model.SimulationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/simulation" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(resultJSON))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	res, err := c.Simulate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if res.Len() != 3 || res.DestitutionArea != 0.06 || res.TotalParameters != 123 {
		t.Fatalf("result = %+v", res)
	}
	if p, ok := res.Real.Percentile(5); !ok || p[2] != 8 {
		t.Fatalf("real p5 = %v, %v", p, ok)
	}
	if got.NumberOfSimulations != 100 || got.StepSize != "annual" || len(got.Weights) != 2 {
		t.Fatalf("server saw %+v", got)
	}
}

func TestSimulate_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		header map[string]string
		code   string
	}{
		{"unprocessable", http.StatusUnprocessableEntity, `{"detail":"end_step must be positive"}`, nil, "REQUEST_REJECTED"},
		{"busy", http.StatusTooManyRequests, ``, map[string]string{"Retry-After": "3"}, "SERVICE_BUSY"},
		{"server error", http.StatusInternalServerError, `boom`, nil, "API_ERROR"},
		{"empty result", http.StatusOK, `{"timesteps": []}`, nil, "EMPTY_RESULT"},
		{"bad json", http.StatusOK, `{"timesteps": [`, nil, "DECODE_FAILED"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tc.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL, time.Second).Simulate(context.Background(), testRequest())
			var te *model.TransportError
			if !errors.As(err, &te) {
				t.Fatalf("expected TransportError, got %v", err)
			}
			if te.Code != tc.code {
				t.Fatalf("code = %s, want %s (%v)", te.Code, tc.code, te)
			}
		})
	}
}

func TestSimulate_RejectedDetailInMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"end_step must be positive"}`))
	}))
	defer srv.Close()
	_, err := New(srv.URL, time.Second).Simulate(context.Background(), testRequest())
	if err == nil || err.Error() != "simulation service rejected the request: end_step must be positive" {
		t.Fatalf("err = %v", err)
	}
}

func TestSimulate_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).Simulate(context.Background(), testRequest())
	var te *model.TransportError
	if !errors.As(err, &te) || te.Code != "UNREACHABLE" {
		t.Fatalf("err = %v", err)
	}
}

func TestSimulate_CacheSkipsSecondCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(resultJSON))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	c.Cache = NewResponseCache(time.Minute)
	defer c.Cache.Close()

	for i := 0; i < 3; i++ {
		if _, err := c.Simulate(context.Background(), testRequest()); err != nil {
			t.Fatal(err)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("service called %d times, want 1", n)
	}

	other := testRequest()
	other.InitialWealth = 11
	if _, err := c.Simulate(context.Background(), other); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("service called %d times, want 2", n)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"status":"running"}`))
	}))
	defer srv.Close()

	status, err := New(srv.URL, time.Second).Health(context.Background())
	if err != nil || status != "running" {
		t.Fatalf("Health = %q, %v", status, err)
	}
}

func TestResponseCache_Expiry(t *testing.T) {
	c := NewResponseCache(time.Minute)
	defer c.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", &model.SimulationResult{Timesteps: []float64{0}})
	if _, ok := c.Get("k"); !ok {
		t.Fatal("fresh entry missing")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry returned")
	}
	c.evictExpired()
	if c.Len() != 0 {
		t.Fatalf("Len = %d after eviction", c.Len())
	}

	var nilCache *ResponseCache
	nilCache.Set("k", nil)
	if _, ok := nilCache.Get("k"); ok {
		t.Fatal("nil cache returned a hit")
	}
}
