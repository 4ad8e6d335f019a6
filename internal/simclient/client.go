// Package simclient is the HTTP client for the external simulation service.
package simclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"wealth-planner/internal/model"
)

// DefaultBaseURL is where the simulation service listens in local setups.
const DefaultBaseURL = "http://127.0.0.1:5000"

const simulationPath = "/api/simulation"

// Client calls the external Monte Carlo simulation service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Cache memoizes responses by request body. Nil disables it.
	Cache *ResponseCache
}

// New creates a client. If baseURL is empty, DefaultBaseURL is used.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Simulate posts req and decodes the result. Every failure is returned as a
// *model.TransportError.
func (c *Client) Simulate(ctx context.Context, req *model.SimulationRequest) (*model.SimulationResult, error) {
	if req == nil {
		return nil, &model.TransportError{Code: "INVALID_REQUEST", Message: "request is required"}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &model.TransportError{Code: "ENCODE_FAILED", Message: "failed to encode request", Err: err}
	}

	key := CacheKey(body)
	if cached, ok := c.Cache.Get(key); ok {
		log.Printf("[SimClient] Cache hit: %d timesteps (key=%s)", cached.Len(), key[:12])
		return cached, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+simulationPath, bytes.NewReader(body))
	if err != nil {
		return nil, &model.TransportError{Code: "INVALID_URL", Message: "failed to create request", Err: err}
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	log.Printf("[SimClient] Request: POST %s (id=%s, simulations=%d, end_step=%v)",
		simulationPath, requestID, req.NumberOfSimulations, req.EndStep)

	start := time.Now()
	resp, err := c.httpClient().Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		log.Printf("[SimClient] Request failed: %v (id=%s, duration: %v)", err, requestID, duration)
		return nil, &model.TransportError{Code: "UNREACHABLE", Message: "simulation service unreachable", Err: err}
	}
	defer resp.Body.Close()

	log.Printf("[SimClient] Response: %d %s (id=%s, duration: %v)", resp.StatusCode, resp.Status, requestID, duration)

	if err := statusError(resp); err != nil {
		return nil, err
	}

	var result model.SimulationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Printf("[SimClient] Error decoding response: %v (id=%s)", err, requestID)
		return nil, &model.TransportError{StatusCode: resp.StatusCode, Code: "DECODE_FAILED", Message: "failed to decode response", Err: err}
	}
	if len(result.Timesteps) == 0 {
		return nil, &model.TransportError{StatusCode: resp.StatusCode, Code: "EMPTY_RESULT", Message: "simulation returned no timesteps"}
	}

	log.Printf("[SimClient] Success: %d timesteps, simulation_time=%.3fs (id=%s)",
		len(result.Timesteps), result.SimulationTime, requestID)

	c.Cache.Set(key, &result)
	return &result, nil
}

// Health probes the service root, which answers {"status":"running"}.
func (c *Client) Health(ctx context.Context) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return "", &model.TransportError{Code: "INVALID_URL", Message: "failed to create request", Err: err}
	}
	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return "", &model.TransportError{Code: "UNREACHABLE", Message: "simulation service unreachable", Err: err}
	}
	defer resp.Body.Close()
	if err := statusError(resp); err != nil {
		return "", err
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &model.TransportError{StatusCode: resp.StatusCode, Code: "DECODE_FAILED", Message: "failed to decode health response", Err: err}
	}
	return body.Status, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

// statusError maps non-2xx responses to TransportErrors. The service reports
// problems as {"detail": ...}; the detail is kept in the message when present.
func statusError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	detail := readDetail(resp.Body)
	switch resp.StatusCode {
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		log.Printf("[SimClient] Error: %d request rejected: %s", resp.StatusCode, detail)
		return &model.TransportError{
			StatusCode: resp.StatusCode,
			Code:       "REQUEST_REJECTED",
			Message:    withDetail("simulation service rejected the request", detail),
		}
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		retryAfter := resp.Header.Get("Retry-After")
		log.Printf("[SimClient] Error: %d busy - Retry after: %s", resp.StatusCode, retryAfter)
		return &model.TransportError{
			StatusCode: resp.StatusCode,
			Code:       "SERVICE_BUSY",
			Message:    fmt.Sprintf("simulation service busy. Retry after: %s", retryAfter),
			RetryAfter: retryAfter,
		}
	default:
		log.Printf("[SimClient] Error: %d %s", resp.StatusCode, resp.Status)
		return &model.TransportError{
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    withDetail(fmt.Sprintf("simulation service returned status %d", resp.StatusCode), detail),
		}
	}
}

func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Detail != nil {
		if s, ok := body.Detail.(string); ok {
			return s
		}
		if b, err := json.Marshal(body.Detail); err == nil {
			return string(b)
		}
	}
	return strings.TrimSpace(string(raw))
}

func withDetail(msg, detail string) string {
	if detail == "" {
		return msg
	}
	return msg + ": " + detail
}
