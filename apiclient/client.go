// Package apiclient implements an HTTP client for the election platform REST
// API. It is the single boundary between the console's decision logic and the
// backend: every reply is decoded here and every error reply is normalized
// into an APIerror before it reaches any caller.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"

	"github.com/civixvote/console/log"
)

const (
	// HTTPGET is the method string used for calling Request()
	HTTPGET = "GET"
	// HTTPPOST is the method string used for calling Request()
	HTTPPOST = "POST"
	// HTTPPATCH is the method string used for calling Request()
	HTTPPATCH = "PATCH"
	// HTTPDELETE is the method string used for calling Request()
	HTTPDELETE = "DELETE"

	// electionCacheSize bounds the in-memory election record cache.
	electionCacheSize = 128
)

// ServerInfo describes the API backend, as reported by its status endpoint.
type ServerInfo struct {
	Version     string `json:"version"`
	Network     string `json:"network"`
	BlockHeight uint64 `json:"block_height"`
}

// HTTPclient is the election platform API HTTP client.
type HTTPclient struct {
	c         *http.Client
	token     *uuid.UUID
	addr      *url.URL
	network   string
	elections *lru.Cache
}

// New connects to the API server at addr and returns a ready client. The
// bearer token identifies the voter/admin session and may be nil for
// anonymous read-only access.
func New(addr *url.URL, bearerToken *uuid.UUID) (*HTTPclient, error) {
	tr := &http.Transport{
		IdleConnTimeout:    10 * time.Second,
		DisableCompression: false,
		WriteBufferSize:    1 * 1024 * 1024, // 1 MiB
		ReadBufferSize:     1 * 1024 * 1024, // 1 MiB
	}
	cache, err := lru.New(electionCacheSize)
	if err != nil {
		return nil, err
	}
	c := &HTTPclient{
		c:         &http.Client{Transport: tr, Timeout: time.Second * 8},
		token:     bearerToken,
		addr:      addr,
		elections: cache,
	}
	registerMetrics()
	info, err := c.ServerInfo(context.Background())
	if err != nil {
		return nil, fmt.Errorf("cannot fetch server info: %w", err)
	}
	c.network = info.Network
	return c, nil
}

// Network returns the blockchain network name the API backend is connected to.
func (c *HTTPclient) Network() string {
	return c.network
}

// SetAuthToken configures the bearer authentication token.
func (c *HTTPclient) SetAuthToken(token *uuid.UUID) {
	c.token = token
}

// SetHostAddr configures the host address of the API server.
func (c *HTTPclient) SetHostAddr(ctx context.Context, addr *url.URL) error {
	c.addr = addr
	info, err := c.ServerInfo(ctx)
	if err != nil {
		return fmt.Errorf("cannot fetch server info: %w", err)
	}
	c.network = info.Network
	c.elections.Purge()
	return nil
}

// ServerInfo fetches the backend description from its status endpoint.
func (c *HTTPclient) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	info := &ServerInfo{}
	if err := c.Call(ctx, HTTPGET, nil, info, "status"); err != nil {
		return nil, err
	}
	return info, nil
}

// Request performs a `method` type raw request to the endpoint specified in
// the urlPath parameter. If jsonBody is non-nil it is attached as a JSON
// body. Returns the response body, the status code and an error.
func (c *HTTPclient) Request(ctx context.Context, method string, jsonBody any,
	urlPath ...string) ([]byte, int, error) {
	return c.request(ctx, method, nil, jsonBody, urlPath...)
}

func (c *HTTPclient) request(ctx context.Context, method string, query url.Values,
	jsonBody any, urlPath ...string) ([]byte, int, error) {
	u, err := url.Parse(c.addr.String())
	if err != nil {
		return nil, 0, err
	}
	u.Path = path.Join(u.Path, path.Join(urlPath...))
	if query != nil {
		u.RawQuery = query.Encode()
	}
	var body io.Reader
	if jsonBody != nil {
		b, err := json.Marshal(jsonBody)
		if err != nil {
			return nil, 0, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", "Civix console client / 1.0")
	if jsonBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		req.Header.Set("Authorization", "Bearer "+c.token.String())
	}
	log.Debugf("%s %s", method, u)
	resp, err := c.c.Do(req)
	if err != nil {
		requestMetric(urlPath, "network_error")
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		requestMetric(urlPath, "network_error")
		return nil, 0, err
	}
	requestMetric(urlPath, fmt.Sprintf("%d", resp.StatusCode))
	return data, resp.StatusCode, nil
}

// Call performs a request and decodes a successful JSON reply into out (when
// out is non-nil). Non-2xx replies are normalized into an APIerror.
func (c *HTTPclient) Call(ctx context.Context, method string, jsonBody, out any,
	urlPath ...string) error {
	return c.call(ctx, method, nil, jsonBody, out, urlPath...)
}

func (c *HTTPclient) call(ctx context.Context, method string, query url.Values,
	jsonBody, out any, urlPath ...string) error {
	data, status, err := c.request(ctx, method, query, jsonBody, urlPath...)
	if err != nil {
		return err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return normalizeError(status, data)
	}
	if out == nil || status == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("could not unmarshal response: %w", err)
	}
	return nil
}
