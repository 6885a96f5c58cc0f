// Package httpclient is the JSON client for the commerce REST backend.
//
// Every call carries the request correlation id and opens a span. Reads are
// retried on transport failures and 5xx answers; writes are sent once.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

const (
	headerCorrelationID = "X-Correlation-ID"
	maxErrorBody        = 4 << 10
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend: %d", e.Status)
}

// Temporary reports whether the failure is on the backend side or may pass
// on its own: 5xx, 408 and 429.
func (e *APIError) Temporary() bool {
	switch e.Status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return e.Status >= http.StatusInternalServerError
}

// Contains reports whether code or message mention s, case-insensitively.
func (e *APIError) Contains(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(strings.ToLower(e.Code), s) || strings.Contains(strings.ToLower(e.Message), s)
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Config configures a Client.
type Config struct {
	// BaseURL is the backend API root, e.g. https://api.example.com/api/v1.
	BaseURL string
	// Timeout bounds one attempt. Zero means 10 seconds.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts for reads.
	MaxRetries uint64
	// RetryBase is the first backoff step. Zero means 100ms.
	RetryBase time.Duration
	// Tracer scope name, e.g. "auth.outbound.backend".
	Scope string
}

// Client talks JSON to the backend.
type Client struct {
	base    string
	http    *http.Client
	retries uint64
	backoff time.Duration
	scope   string
	ins     instrument.Instrumentation
}

// New builds a Client. A nil hc gets a client with cfg.Timeout.
func New(cfg Config, hc *http.Client, ins instrument.Instrumentation) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 100 * time.Millisecond
	}
	if cfg.Scope == "" {
		cfg.Scope = "httpclient"
	}
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		retries: cfg.MaxRetries,
		backoff: cfg.RetryBase,
		scope:   cfg.Scope,
		ins:     ins,
	}
}

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	// Token is sent as a bearer token when set.
	Token string
	Query  map[string]string
	Body   any
	// Header adds extra headers, e.g. Idempotency-Key.
	Header map[string]string
}

// JSON sends req and decodes a 2xx body into out when out is non-nil.
func (c *Client) JSON(ctx context.Context, req Request, out any) (err error) {
	raw, err := c.Raw(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("backend: decode %s %s: %w", req.Method, req.Path, err)
	}
	return nil
}

// Raw sends req and returns the 2xx body as is.
func (c *Client) Raw(ctx context.Context, req Request) (body []byte, err error) {
	ctx, span := c.ins.Tracer(c.scope).Start(ctx, req.Method+" "+req.Path)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var payload []byte
	if req.Body != nil {
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return nil, err
		}
	}

	if req.Method != http.MethodGet || c.retries == 0 {
		return c.do(ctx, req, payload)
	}

	b := retry.WithMaxRetries(c.retries, retry.NewFibonacci(c.backoff))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		var rerr error
		body, rerr = c.do(ctx, req, payload)
		if rerr == nil {
			return nil
		}
		if apiErr, ok := AsAPIError(rerr); ok && !apiErr.Temporary() {
			return rerr
		}
		return retry.RetryableError(rerr)
	})

	return body, err
}

func (c *Client) do(ctx context.Context, req Request, payload []byte) ([]byte, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}

	hr, err := http.NewRequestWithContext(ctx, req.Method, c.base+"/"+strings.TrimLeft(req.Path, "/"), rd)
	if err != nil {
		return nil, err
	}

	if len(req.Query) > 0 {
		q := hr.URL.Query()
		for k, v := range req.Query {
			if v != "" {
				q.Set(k, v)
			}
		}
		hr.URL.RawQuery = q.Encode()
	}

	hr.Header.Set("Accept", "application/json")
	if payload != nil {
		hr.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		hr.Header.Set("Authorization", "Bearer "+req.Token)
	}
	if cID := instrument.GetCorrelationID(ctx); cID != "" {
		hr.Header.Set(headerCorrelationID, cID)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(hr.Header))
	for k, v := range req.Header {
		hr.Header.Set(k, v)
	}

	resp, err := c.http.Do(hr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}

	return io.ReadAll(resp.Body)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var body struct {
		Code    string `json:"code"`
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return apiErr
	}

	apiErr.Code = body.Code
	if s, ok := body.Error.(string); ok && apiErr.Code == "" {
		apiErr.Code = s
	}
	apiErr.Message = body.Message

	return apiErr
}
