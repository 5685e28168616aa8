package batteryplanner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://bp.stenite.com"

	// maxErrorBodyBytes bounds how much of an upstream error payload is
	// echoed into error messages.
	maxErrorBodyBytes = 2048
)

// Client talks to the Stenite Battery Planner API.
//
// CreatePlan performs exactly one request: the planning computation may be
// expensive and rate limited upstream, so a failed attempt is never retried
// here. Retry policy, if any, belongs to the caller.
type Client interface {
	CreatePlan(ctx context.Context, systemID, apiToken string, params PlanParams) (*Plan, error)
	ValidateToken(ctx context.Context, apiToken string) error
}

type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// planPayload mirrors Plan with pointer fields so missing required fields
// can be told apart from zero values.
type planPayload struct {
	BaselineCost  *float64        `json:"baseline_cost"`
	OptimizedCost *float64        `json:"optimized_cost"`
	Schedule      []ScheduleEntry `json:"schedule"`
}

// CreatePlan POSTs the plan inputs and decodes the planner's response.
// The auth transport (Authorization: Token <token> header, system id in
// the URL path) must not change: it is the contract of the existing API.
func (c *HTTPClient) CreatePlan(ctx context.Context, systemID, apiToken string, params PlanParams) (*Plan, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/api/battery_planner/%s/plan", c.baseURL, systemID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp)
	}

	var payload planPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.BaselineCost == nil || payload.OptimizedCost == nil || payload.Schedule == nil {
		return nil, fmt.Errorf("response is missing required fields")
	}

	return &Plan{
		BaselineCost:  *payload.BaselineCost,
		OptimizedCost: *payload.OptimizedCost,
		Schedule:      payload.Schedule,
	}, nil
}

// ValidateToken performs the cheap auth probe used before accepting a
// config entry.
func (c *HTTPClient) ValidateToken(ctx context.Context, apiToken string) error {
	reqURL := c.baseURL + "/auth/api/validate-api-token"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	return nil
}

func statusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return &StatusError{
		Code: resp.StatusCode,
		Body: strings.TrimSpace(string(body)),
	}
}
