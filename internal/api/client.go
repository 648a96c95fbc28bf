// Package api is the HTTP boundary shared by session creation and chat
// messages: JSON POSTs with an optional bearer token and tolerant decoding of
// whatever comes back.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/csheth/studybot/internal/kv"
)

const (
	DefaultBaseURL     = "http://localhost:3000/api/v1"
	defaultHTTPTimeout = 60 * time.Second
)

// TokenSource yields the bearer token for a request, or "" for none.
type TokenSource func(ctx context.Context) string

// StaticToken always returns token.
func StaticToken(token string) TokenSource {
	return func(context.Context) string { return token }
}

// StoreToken reads the token from the kv store on every request so a token
// written by the login flow is picked up without a restart.
func StoreToken(store kv.Store) TokenSource {
	return func(ctx context.Context) string {
		token, ok, err := store.Get(ctx, kv.KeyAuthToken)
		if err != nil || !ok {
			return ""
		}
		return token
	}
}

// FirstToken returns the first non-empty token of sources.
func FirstToken(sources ...TokenSource) TokenSource {
	return func(ctx context.Context) string {
		for _, src := range sources {
			if src == nil {
				continue
			}
			if token := src(ctx); token != "" {
				return token
			}
		}
		return ""
	}
}

// Config describes how to build a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      TokenSource
	Logger     *zap.Logger
}

// Client posts JSON to the assistant backend.
type Client struct {
	base   string
	client *http.Client
	token  TokenSource
	log    *zap.Logger
}

func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base:   base,
		client: pickHTTPClient(cfg.HTTPClient),
		token:  cfg.Token,
		log:    log,
	}
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// BaseURL reports the normalized base URL.
func (c *Client) BaseURL() string {
	return c.base
}

// Response is a successful reply. Object is the body decoded as a JSON object
// with any "data" envelope removed; it is empty when the body was not JSON.
type Response struct {
	Status int
	Body   []byte
	Object Object
}

// PostJSON sends payload (nil for an empty body) to path. Non-success
// statuses and transport failures are reported as *NetworkError.
func (c *Client) PostJSON(ctx context.Context, path string, payload any) (Response, error) {
	endpoint := c.base + path
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return Response{}, err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return Response{}, &NetworkError{Op: http.MethodPost, URL: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		if token := c.token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Response{}, &NetworkError{Op: http.MethodPost, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &NetworkError{Op: http.MethodPost, URL: endpoint, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := strings.TrimSpace(string(raw))
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		return Response{}, &NetworkError{Op: http.MethodPost, URL: endpoint, Status: resp.StatusCode, Body: text}
	}

	obj, ok := DecodeObject(raw)
	if !ok {
		c.log.Debug("response body is not a JSON object; using empty object",
			zap.String("url", endpoint),
			zap.Int("bytes", len(raw)))
	}
	return Response{Status: resp.StatusCode, Body: raw, Object: obj.Unwrap()}, nil
}
