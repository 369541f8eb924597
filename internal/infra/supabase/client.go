// Package supabase provides the Data Store Client over Supabase PostgREST.
// It owns every network call of the service and coerces raw rows into
// typed domain records before they reach the aggregation engine.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pnlfinance/family-finance/internal/domain"
	"github.com/pnlfinance/family-finance/internal/infra/resilience"
	"github.com/pnlfinance/family-finance/internal/port"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

var _ port.FinanceStore = (*Client)(nil)

// ErrorObserver is notified of every failed store call, labelled by table.
type ErrorObserver interface {
	IncrExternalError(service string)
}

// Client wraps HTTP calls to Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	errors         ErrorObserver
	logger         *zap.Logger
}

// NewClient creates a Supabase client. errs may be nil.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, errs ErrorObserver, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		errors:         errs,
		logger:         logger,
	}
}

// doRequest executes an authenticated GET-style request to Supabase PostgREST.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	c.setHeaders(req, "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil // no data
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, statusError(fmt.Sprintf("supabase returned status %d: %s", resp.StatusCode, string(body)), resp.StatusCode, body)
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	return body, nil
}

func (c *Client) setHeaders(req *http.Request, prefer string) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
}

// read runs an idempotent GET through the circuit breaker with retries.
func (c *Client) read(ctx context.Context, table, path string) ([]byte, error) {
	var body []byte
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			b, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
	})
	if err != nil {
		return nil, c.wrap(table, err)
	}
	return body, nil
}

// write runs a mutation through the circuit breaker. Writes are not retried.
func (c *Client) write(table string, fn func() ([]byte, error)) ([]byte, error) {
	res, err := c.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, c.wrap(table, err)
	}
	body, _ := res.([]byte)
	return body, nil
}

func (c *Client) wrap(table string, err error) error {
	if mapped := rejected(table, err); mapped != nil {
		return mapped
	}
	if c.errors != nil {
		c.errors.IncrExternalError("supabase/" + table)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrCircuitOpen{Service: "supabase"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.ErrTimeout{Operation: "supabase/" + table}
	}
	return &domain.ErrExternalService{Service: "supabase/" + table, Err: err}
}

// rejected maps a permanent 4xx caused by the request itself to a domain
// error. Auth failures and everything else stay store errors (nil here).
func rejected(table string, err error) error {
	var se *StatusError
	if !resilience.IsPermanent(err) || !errors.As(err, &se) {
		return nil
	}

	detail := se.Detail
	if detail == "" {
		detail = "rejected by data store"
	}
	switch se.Status {
	case http.StatusNotFound:
		return &domain.ErrNotFound{Resource: singular(table)}
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return &domain.ErrValidation{Field: singular(table), Message: detail}
	}
	return nil
}

func singular(table string) string {
	switch table {
	case "families":
		return "family"
	case "categories":
		return "category"
	}
	return strings.TrimSuffix(table, "s")
}

// Ping checks that PostgREST answers. Used by the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()
	span.SetAttributes(attribute.String("supabase.url", c.baseURL))

	_, err := c.doRequest(ctx, http.MethodGet, "ledgers?select=id&limit=1")
	return err
}
