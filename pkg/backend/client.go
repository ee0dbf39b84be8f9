// Package backend talks to the resource store that owns every record.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"library_admin/pkg/circuitbreaker"
	"library_admin/pkg/schema"
)

// ErrCircuitOpen is wrapped by a TransportError when calls are being
// short-circuited after repeated backend failures.
var ErrCircuitOpen = circuitbreaker.ErrOpen

// Store is the key-indexed resource store, addressed by resource path.
type Store interface {
	List(ctx context.Context, path string, query url.Values) ([]schema.Record, error)
	Get(ctx context.Context, path, id string) (schema.Record, error)
	Create(ctx context.Context, path string, rec schema.Record) (schema.Record, error)
	Update(ctx context.Context, path, id string, rec schema.Record) (schema.Record, error)
	Delete(ctx context.Context, path, id string) error
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func WithBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(cl *Client) { cl.breaker = cb }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: circuitbreaker.NewCircuitBreaker(5, 30*time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) List(ctx context.Context, path string, query url.Values) ([]schema.Record, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var records []schema.Record
	if err := c.do(ctx, http.MethodGet, path, target, nil, http.StatusOK, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []schema.Record{}
	}
	return records, nil
}

func (c *Client) Get(ctx context.Context, path, id string) (schema.Record, error) {
	var rec schema.Record
	err := c.do(ctx, http.MethodGet, path, c.itemURL(path, id), nil, http.StatusOK, &rec)
	return rec, err
}

func (c *Client) Create(ctx context.Context, path string, rec schema.Record) (schema.Record, error) {
	var created schema.Record
	err := c.do(ctx, http.MethodPost, path, c.baseURL+path, rec, http.StatusCreated, &created)
	return created, err
}

func (c *Client) Update(ctx context.Context, path, id string, rec schema.Record) (schema.Record, error) {
	var updated schema.Record
	err := c.do(ctx, http.MethodPut, path, c.itemURL(path, id), rec, http.StatusOK, &updated)
	return updated, err
}

func (c *Client) Delete(ctx context.Context, path, id string) error {
	return c.do(ctx, http.MethodDelete, path, c.itemURL(path, id), nil, http.StatusNoContent, nil)
}

func (c *Client) itemURL(path, id string) string {
	return fmt.Sprintf("%s%s/%s", c.baseURL, path, url.PathEscape(id))
}

// do performs one request and decodes the response into out. Any failure
// comes back as a *TransportError.
func (c *Client) do(ctx context.Context, method, path, target string, body any, want int, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &TransportError{Op: method, Path: path, Err: fmt.Errorf("failed to encode request body: %w", err)}
		}
	}

	status := 0
	err := c.breaker.Execute(func() error {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		if resp.StatusCode != want && !(want == http.StatusCreated && resp.StatusCode == http.StatusOK) {
			return statusError(resp.StatusCode, readErrorMessage(resp.Body))
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode the response: %w", err)
		}
		return nil
	}, func(err error) circuitbreaker.Outcome { return classify(ctx, err) })
	if err != nil {
		return &TransportError{Op: method, Path: path, Status: status, Err: err}
	}
	return nil
}

// classify tells the breaker what a failed call says about the store. A
// call whose context is done was abandoned by its caller, even when the
// transport reports the cancel cause instead of context.Canceled. Non-5xx
// answers prove the store reachable.
func classify(ctx context.Context, err error) circuitbreaker.Outcome {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return circuitbreaker.Ignored
	}
	var se *statusErr
	if errors.As(err, &se) && se.code < 500 {
		return circuitbreaker.Success
	}
	return circuitbreaker.Failure
}

func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(data))
}
