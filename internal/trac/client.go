// Package trac is a client for the Trac JSON-RPC interface.
package trac

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Sentinel errors for tracker operations.
var (
	ErrRPC        = errors.New("trac rpc call failed")
	ErrHTTPStatus = errors.New("unexpected http status")
	ErrDecode     = errors.New("cannot decode rpc result")
	ErrBadBaseURL = errors.New("invalid trac base url")
)

const defaultTimeout = 15 * time.Second

// Client talks to one Trac environment over JSON-RPC.
type Client struct {
	envID    string
	rpcURL   string
	user     string
	password string
	hc       *http.Client
	log      glog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBasicAuth enables authenticated RPC. Authenticated environments
// expose the RPC endpoint under login/jsonrpc instead of jsonrpc.
func WithBasicAuth(user, password string) ClientOption {
	return func(c *Client) {
		c.user = user
		c.password = password
	}
}

// WithTimeout sets the per-call HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.hc.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithLogger sets the client logger.
func WithLogger(log glog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a client for the environment envID below baseURL.
func NewClient(baseURL, envID string, opts ...ClientOption) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("%w: %q", ErrBadBaseURL, baseURL)
	}

	c := &Client{
		envID: envID,
		hc:    &http.Client{Timeout: defaultTimeout},
		log:   glog.NewLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	endpoint := "jsonrpc"
	if c.user != "" {
		endpoint = "login/jsonrpc"
	}
	c.rpcURL = base.JoinPath(envID, endpoint).String()
	return c, nil
}

// EnvironmentID returns the Trac environment id this client is bound to.
func (c *Client) EnvironmentID() string {
	return c.envID
}

type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

type rpcError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC round trip and unmarshals the result into
// out, which may be nil for calls whose result is discarded.
func (c *Client) call(ctx context.Context, method string, out any, params ...any) error {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRPC, method, err)
	}

	c.log.Debug("rpc call", "method", method, "url", c.rpcURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRPC, method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRPC, method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("rpc http error", "method", method, "status", resp.Status)
		return fmt.Errorf("%w: %s: %s", ErrHTTPStatus, method, resp.Status)
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, method, err)
	}
	if envelope.Error != nil {
		c.log.Error("rpc error", "method", method, "message", envelope.Error.Message)
		return fmt.Errorf("%w: %s: %s", ErrRPC, method, envelope.Error.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, method, err)
	}
	return nil
}
