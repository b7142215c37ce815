package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "PHOTOMAP_HTTP_TIMEOUT"
)

// Client is a simple HTTP client for the photomap API.
type Client struct {
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	timeout := httpTimeoutFromEnv()
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: timeout,
		},
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) GetInfo(ctx context.Context) (InfoResponse, error) {
	var resp InfoResponse
	err := c.do(ctx, http.MethodGet, "/v1/info", nil, &resp)
	return resp, err
}

// CreateImage ingests one image reference.
func (c *Client) CreateImage(ctx context.Context, uri string) (ImageResponse, error) {
	var resp ImageResponse
	err := c.do(ctx, http.MethodPost, "/v1/images", ImageCreateRequest{URI: uri}, &resp)
	return resp, err
}

func (c *Client) ListImages(ctx context.Context) ([]ImageResponse, error) {
	var resp []ImageResponse
	err := c.do(ctx, http.MethodGet, "/v1/images", nil, &resp)
	return resp, err
}

func (c *Client) GetImage(ctx context.Context, id int64) (ImageResponse, error) {
	var resp ImageResponse
	err := c.do(ctx, http.MethodGet, "/v1/images/"+strconv.FormatInt(id, 10), nil, &resp)
	return resp, err
}

func (c *Client) Gallery(ctx context.Context) (GalleryResponse, error) {
	var resp GalleryResponse
	err := c.do(ctx, http.MethodGet, "/v1/gallery", nil, &resp)
	return resp, err
}

func (c *Client) Markers(ctx context.Context) (MarkersResponse, error) {
	var resp MarkersResponse
	err := c.do(ctx, http.MethodGet, "/v1/markers", nil, &resp)
	return resp, err
}

// Refresh forces the server to rebuild its view from the store.
func (c *Client) Refresh(ctx context.Context) (RefreshResponse, error) {
	var resp RefreshResponse
	err := c.do(ctx, http.MethodPost, "/v1/refresh", nil, &resp)
	return resp, err
}

// StreamURL returns the websocket URL of the projection stream.
func (c *Client) StreamURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/v1/stream")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported api url scheme %q", u.Scheme)
	}
	return u.String(), nil
}

// Stream calls fn for every projection the server publishes until ctx is
// done, fn returns an error, or the connection drops.
func (c *Client) Stream(ctx context.Context, fn func(ProjectionEvent) error) error {
	endpoint, err := c.StreamURL()
	if err != nil {
		return err
	}
	conn, resp, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			defer resp.Body.Close()
			return decodeError(resp)
		}
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	for {
		var event ProjectionEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	endpoint := c.baseURL + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		apiErr.Code = errResp.Code
		apiErr.ErrorCode = errResp.ErrorCode
		apiErr.Message = errResp.Error
		return apiErr
	}
	apiErr.Message = fmt.Sprintf("api error: %s", resp.Status)
	return apiErr
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
