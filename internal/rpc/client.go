// Package rpc implements the remote collaborator over HTTP JSON-RPC, the
// wire protocol the backend speaks. ORM calls go through the generic
// call_kw endpoint; route calls post to their own path.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/matheus3301/mailmirror/internal/actions"
)

const callKwRoute = "/web/dataset/call_kw"

// Client posts JSON-RPC envelopes to the backend. Safe for concurrent use.
type Client struct {
	base   *url.URL
	http   *http.Client
	nextID atomic.Int64
}

// NewClient builds a client for the backend at baseURL. A nil httpClient
// uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: base, http: httpClient}, nil
}

type envelope struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.Code, e.Message)
}

// Call implements actions.Caller.
func (c *Client) Call(ctx context.Context, req actions.Request) (json.RawMessage, error) {
	route := req.Route
	params := any(req.Params)
	if route == "" {
		route = callKwRoute
		kwargs := req.Kwargs
		if kwargs == nil {
			kwargs = map[string]any{}
		}
		args := req.Args
		if args == nil {
			args = []any{}
		}
		params = map[string]any{
			"model":  req.Model,
			"method": req.Method,
			"args":   args,
			"kwargs": kwargs,
		}
	}
	if params == nil {
		params = map[string]any{}
	}

	body, err := json.Marshal(envelope{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  "call",
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	target := c.base.JoinPath(route).String()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", route, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("post %s: unexpected status %d", route, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var env response
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if env.Error != nil {
		return nil, env.Error
	}
	return env.Result, nil
}
