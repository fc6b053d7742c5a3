// Package backend is the single adapter for the remote attendance service:
// REST endpoints, the session event stream, and the snake/camel response
// normalization boundary. Internal code only ever sees canonical shapes.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core"
)

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: %s (%d)", http.StatusText(e.Code), e.Code)
}

// StatusCode exposes the HTTP status for tolerance policies upstream.
func (e *StatusError) StatusCode() int { return e.Code }

type Client struct {
	conf    *core.Config
	log     core.Logger
	httpCli *http.Client
	baseURL string

	mu           sync.RWMutex
	token        string
	unauthorized func()
}

func NewClient(conf *core.Config, log core.Logger) *Client {
	return &Client{
		conf:    conf,
		log:     log,
		httpCli: &http.Client{},
		baseURL: conf.Backend.BaseURL,
		token:   conf.Backend.Token,
	}
}

// OnUnauthorized registers the process-wide 401 handler. Every endpoint and
// the event stream defer to it instead of handling 401 locally.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.unauthorized = fn
	c.mu.Unlock()
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// TokenExpired inspects the bearer token's unverified claims. A missing token
// counts as expired; an opaque (non-JWT) token does not.
func (c *Client) TokenExpired() bool {
	token := c.Token()
	if token == "" {
		return true
	}
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return false
	}
	return !claims.VerifyExpiresAt(time.Now().Unix(), false)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrapf(err, "building %s %s", method, path)
	}
	req = req.WithContext(ctx)
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doJSON sends a JSON request and decodes a JSON response into out (out may
// be nil for void endpoints).
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var rdr io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "encoding %s %s", method, path)
		}
		rdr = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, method, path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.roundTrip(req, out)
}

// roundTrip executes req and applies the shared status policy: 401 routes to
// the global unauthorized handler, any other non-2xx becomes a StatusError.
func (c *Client) roundTrip(req *http.Request, out interface{}) error {
	resp, err := c.httpCli.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.notifyUnauthorized()
		return errors.WithMessagef(core.ErrUnauthorized, "%s %s", req.Method, req.URL.Path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding %s %s", req.Method, req.URL.Path)
	}
	return nil
}

func (c *Client) notifyUnauthorized() {
	c.mu.RLock()
	fn := c.unauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
