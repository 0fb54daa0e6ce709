// Package client is the Go consumer of the TecniService REST API. Reads
// of catalog data are memoized for a fixed window to avoid redundant
// round trips; any mutation through the client invalidates the cached
// reads of the same resource family.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tecniservice/internal/domain"
	"tecniservice/internal/service"
)

const (
	serviciosEndpoint   = "/servicios"
	solicitudesEndpoint = "/solicitudes"
)

// envelope mirrors the API's uniform response shape
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
}

// APIError is a non-success answer from the API
type APIError struct {
	StatusCode int
	Message    string
	Errors     []string
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("api error %d: %s (%s)", e.StatusCode, e.Message, strings.Join(e.Errors, "; "))
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to the TecniService API
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *queryCache

	ttl time.Duration
	now func() time.Time
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock injects the cache clock
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithCacheTTL overrides the memoization window
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// New creates a Client for the API at baseURL (e.g. "http://localhost:4000/api")
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		ttl:        DefaultCacheTTL,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.cache = newQueryCache(c.ttl, c.now)
	return c
}

// Clear drops every memoized read
func (c *Client) Clear() {
	c.cache.clear()
}

// InvalidatePrefix drops memoized reads whose endpoint starts with prefix
func (c *Client) InvalidatePrefix(prefix string) {
	c.cache.invalidatePrefix(prefix)
}

// get performs a memoized GET and decodes the envelope data into out
func (c *Client) get(ctx context.Context, endpoint string, params map[string]string, out interface{}) error {
	key := cacheKey(endpoint, params)

	if data, ok := c.cache.get(key); ok {
		return json.Unmarshal(data, out)
	}

	data, err := c.do(ctx, http.MethodGet, key, nil)
	if err != nil {
		return err
	}

	c.cache.set(key, data)
	return json.Unmarshal(data, out)
}

// mutate performs a write and invalidates the resource family it touched
func (c *Client) mutate(ctx context.Context, method, endpoint, family string, body interface{}, out interface{}) error {
	data, err := c.do(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	c.cache.invalidatePrefix(family)

	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body interface{}) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if !env.Success {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    env.Message,
			Errors:     env.Errors,
		}
	}

	return env.Data, nil
}

// ListServices fetches catalog entries matching the optional filter
func (c *Client) ListServices(ctx context.Context, filter map[string]string) ([]*domain.Service, error) {
	var services []*domain.Service
	if err := c.get(ctx, serviciosEndpoint, filter, &services); err != nil {
		return nil, err
	}
	return services, nil
}

// GetService fetches one catalog entry
func (c *Client) GetService(ctx context.Context, id string) (*domain.Service, error) {
	var svc domain.Service
	if err := c.get(ctx, serviciosEndpoint+"/"+id, nil, &svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

// CreateService creates a catalog entry
func (c *Client) CreateService(ctx context.Context, in *service.CreateServiceInput) (*domain.Service, error) {
	var svc domain.Service
	if err := c.mutate(ctx, http.MethodPost, serviciosEndpoint, serviciosEndpoint, in, &svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

// UpdateService applies a partial update to a catalog entry
func (c *Client) UpdateService(ctx context.Context, id string, in *service.UpdateServiceInput) (*domain.Service, error) {
	var svc domain.Service
	if err := c.mutate(ctx, http.MethodPut, serviciosEndpoint+"/"+id, serviciosEndpoint, in, &svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

// DeleteService soft-deletes a catalog entry
func (c *Client) DeleteService(ctx context.Context, id string) (*domain.Service, error) {
	var svc domain.Service
	if err := c.mutate(ctx, http.MethodDelete, serviciosEndpoint+"/"+id, serviciosEndpoint, nil, &svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

// ListRequests fetches service requests matching the optional filter
func (c *Client) ListRequests(ctx context.Context, filter map[string]string) ([]*domain.ServiceRequest, error) {
	var requests []*domain.ServiceRequest
	if err := c.get(ctx, solicitudesEndpoint, filter, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// GetRequest fetches one service request
func (c *Client) GetRequest(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	var request domain.ServiceRequest
	if err := c.get(ctx, solicitudesEndpoint+"/"+id, nil, &request); err != nil {
		return nil, err
	}
	return &request, nil
}

// GetRequestsByCustomer fetches all requests submitted with the given email
func (c *Client) GetRequestsByCustomer(ctx context.Context, email string) ([]*domain.ServiceRequest, error) {
	var requests []*domain.ServiceRequest
	if err := c.get(ctx, solicitudesEndpoint+"/cliente/"+email, nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// CreateRequest submits a new service request
func (c *Client) CreateRequest(ctx context.Context, in *service.CreateRequestInput) (*domain.ServiceRequest, error) {
	var request domain.ServiceRequest
	if err := c.mutate(ctx, http.MethodPost, solicitudesEndpoint, solicitudesEndpoint, in, &request); err != nil {
		return nil, err
	}
	return &request, nil
}

// UpdateRequest applies a partial update to a service request
func (c *Client) UpdateRequest(ctx context.Context, id string, in *service.UpdateRequestInput) (*domain.ServiceRequest, error) {
	var request domain.ServiceRequest
	if err := c.mutate(ctx, http.MethodPut, solicitudesEndpoint+"/"+id, solicitudesEndpoint, in, &request); err != nil {
		return nil, err
	}
	return &request, nil
}

// UpdateRequestStatus sets the lifecycle field of a service request
func (c *Client) UpdateRequestStatus(ctx context.Context, id string, status domain.Status) (*domain.ServiceRequest, error) {
	body := map[string]string{"estado": string(status)}
	var request domain.ServiceRequest
	if err := c.mutate(ctx, http.MethodPatch, solicitudesEndpoint+"/"+id+"/estado", solicitudesEndpoint, body, &request); err != nil {
		return nil, err
	}
	return &request, nil
}

// DeleteRequest hard-deletes a service request
func (c *Client) DeleteRequest(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, solicitudesEndpoint+"/"+id, solicitudesEndpoint, nil, nil)
}
