// Copyright 2026 The Kodipack Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package kodi implements the client for the JSON-RPC API of Kodi that is used
// to reload the addon after it has been published.
package kodi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kodipack/kodipack/internal/logging"
	"github.com/sourcegraph/jsonrpc2"
)

// MethodExecuteAddon is the JSON-RPC method that runs an addon in Kodi.
const MethodExecuteAddon = "Addons.ExecuteAddon"

const (
	requestID = 1
	maxBody   = 1 << 20 // bytes read from a response at most
)

// errStatus is returned for responses that are not 2xx.
var errStatus = errors.New("unexpected response status")

// Options are the connection settings of a [Client].
type Options struct {
	Host     string
	User     string
	Password string
	Port     int
	Timeout  time.Duration
}

// Client sends requests to the JSON-RPC HTTP endpoint of Kodi.
type Client struct {
	endpoint *url.URL
	http     *http.Client
}

// Reply is the response of Kodi to a request.
type Reply struct {
	// Body is the raw response body.
	Body []byte

	// RPCError is the error object of the response if Kodi answered with
	// a JSON-RPC error.
	RPCError *jsonrpc2.Error
}

// ExecuteAddonParams are the parameters of [MethodExecuteAddon].
type ExecuteAddonParams struct {
	AddonID string        `json:"addonid"`
	Params  BuiltinParams `json:"params"`
}

// BuiltinParams tell the helper addon to run a built-in function of Kodi.
type BuiltinParams struct {
	Info string `json:"info"`
	ID   string `json:"id"`
}

// NetworkError is returned when the request to Kodi fails or Kodi responds
// with a status other than 2xx.
type NetworkError struct {
	Endpoint   string // endpoint with the password redacted
	StatusCode int    // zero if there was no response
	Err        error
}

// NewClient returns a new client for the endpoint described by opts. The
// credentials are embedded in the endpoint only if the user is set.
func NewClient(opts Options) *Client {
	u := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
		Path:   "/jsonrpc",
	}

	switch {
	case opts.User != "" && opts.Password != "":
		u.User = url.UserPassword(opts.User, opts.Password)
	case opts.User != "":
		u.User = url.User(opts.User)
	}

	return &Client{
		endpoint: u,
		http:     &http.Client{Timeout: opts.Timeout}, //nolint:exhaustruct // defaults for the rest
	}
}

// Endpoint returns the endpoint URL with the password redacted.
func (c *Client) Endpoint() string {
	return c.endpoint.Redacted()
}

// NewRequest returns the JSON-RPC request that runs the built-in function
// command through the addon with the given ID.
func NewRequest(id uint64, addonID, command string) (*jsonrpc2.Request, error) {
	req := &jsonrpc2.Request{Method: MethodExecuteAddon, ID: jsonrpc2.ID{Num: id}} //nolint:exhaustruct

	params := ExecuteAddonParams{
		AddonID: addonID,
		Params:  BuiltinParams{Info: "builtin", ID: command},
	}

	if err := req.SetParams(params); err != nil {
		return nil, fmt.Errorf("failed to encode request parameters: %w", err)
	}

	return req, nil
}

// ExecuteBuiltin asks Kodi to run the built-in function command, for example
// "ReloadSkin()", through the addon with the given ID. The call is synchronous
// and bounded by the timeout of the client.
func (c *Client) ExecuteBuiltin(ctx context.Context, addonID, command string) (*Reply, error) {
	req, err := NewRequest(requestID, addonID, command)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	logging.DebugContext(ctx, "sending request to Kodi", "endpoint", c.Endpoint(), "method", req.Method)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, &NetworkError{Endpoint: c.Endpoint(), Err: err}
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Endpoint: c.Endpoint(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &NetworkError{Endpoint: c.Endpoint(), StatusCode: resp.StatusCode, Err: err}
	}

	logging.TraceContext(ctx, "received response from Kodi", "status", resp.StatusCode, "body", string(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{
			Endpoint:   c.Endpoint(),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %s", errStatus, resp.Status),
		}
	}

	reply := &Reply{Body: data}

	var rpcResp jsonrpc2.Response
	if err = json.Unmarshal(data, &rpcResp); err == nil && rpcResp.Error != nil {
		reply.RPCError = rpcResp.Error
	}

	return reply, nil
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
