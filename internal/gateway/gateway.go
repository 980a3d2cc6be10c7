// Package gateway is the single place the client talks HTTP to the booking API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/flyeazy/flyeazy-client/internal/apperr"
	"github.com/flyeazy/flyeazy-client/internal/storage"
	"go.uber.org/zap"
)

// AuthHeader carries the session token on authenticated requests
const AuthHeader = "auth-token"

// Requester issues one API call. Implemented by *Client and by test mocks.
type Requester interface {
	Request(ctx context.Context, path, method string, body any, authRequired bool) (*Response, error)
}

// Response is a successful (2xx) API response
type Response struct {
	Status int
	Body   []byte
	// JSON is true when Body parsed as a JSON document
	JSON bool
}

// Decode unmarshals a JSON body into v
func (r *Response) Decode(v any) error {
	if !r.JSON {
		return fmt.Errorf("response is not JSON: %q", r.Text())
	}
	return json.Unmarshal(r.Body, v)
}

// Text returns the raw body
func (r *Response) Text() string {
	return string(r.Body)
}

// Decode is a typed helper around Response.Decode
func Decode[T any](r *Response) (*T, error) {
	var v T
	if err := r.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Client implements Requester over net/http
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      storage.Store
	log        *zap.Logger
}

// NewClient creates a gateway client. The token for authenticated calls is
// read from store on every request so logins in other processes are picked up.
func NewClient(baseURL string, store storage.Store, log *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		store:      store,
		log:        log,
	}
}

// WithHTTPClient replaces the underlying http.Client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) Request(ctx context.Context, path, method string, body any, authRequired bool) (*Response, error) {
	op := method + " " + path
	if method == "" {
		method = http.MethodGet
		op = method + " " + path
	}

	var token string
	if authRequired {
		t, ok := c.store.Get(storage.KeyToken)
		if !ok || t == "" {
			return nil, &apperr.Error{Kind: apperr.KindAuthRequired, Op: op, Message: "Authentication required"}
		}
		token = t
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, op, fmt.Errorf("failed to encode request body: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authRequired {
		req.Header.Set(AuthHeader, token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("API request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, apperr.Wrap(apperr.KindNetwork, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, op, fmt.Errorf("failed to read response: %w", err))
	}

	c.log.Debug("API response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.HTTP(op, resp.StatusCode, errorText(data))
	}

	return &Response{
		Status: resp.StatusCode,
		Body:   data,
		JSON:   json.Valid(data),
	}, nil
}

// errorText prefers the "error" or "message" field of a JSON error body.
func errorText(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return string(bytes.TrimSpace(data))
}
