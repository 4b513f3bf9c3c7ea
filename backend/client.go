// Package backend is the HTTP client of the short-drama backend.
//
// It speaks three endpoints: GET /video/{id} for title details, POST /episode-play-url to
// resolve an episode page into a media URL and GET /search. Each call is a single attempt;
// retrying is left to the caller.
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
	"strconv"
	"strings"
	"time"

	"github.com/shortplay/shortplay/config"
	"github.com/shortplay/shortplay/key"
	"github.com/shortplay/shortplay/log"
	"github.com/shortplay/shortplay/network"
	"github.com/shortplay/shortplay/retry"
	"github.com/shortplay/shortplay/source"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

// maxBodySize bounds how much of a response is read.
const maxBodySize = 4 << 20

// maxQueryLength is the longest search term the backend accepts.
const maxQueryLength = 100

// StatusError is a non-successful backend answer.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Message)
}

// Temporary reports whether repeating the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests || e.Code == http.StatusRequestTimeout
}

// ErrNoPlayURL is returned when the backend answered successfully but without a media URL.
var ErrNoPlayURL = errors.New("backend returned no play url")

// ErrInvalidQuery is returned by Search for terms the backend would reject.
var ErrInvalidQuery = errors.New("invalid search query")

// Client talks to one backend instance.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the shared network client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.http = c
	}
}

// WithRate limits the client to perMinute requests with a small burst. Zero or less disables pacing.
func WithRate(perMinute int) Option {
	return func(client *Client) {
		if perMinute <= 0 {
			client.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		client.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), min(perMinute, 5))
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse backend url: unsupported scheme %q", u.Scheme)
	}

	c := &Client{
		base:    u,
		http:    network.Client,
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FromConfig creates a client from the backend.* configuration keys.
func FromConfig() (*Client, error) {
	return New(
		viper.GetString(key.BackendURL),
		WithHTTPClient(network.NewClient(time.Duration(viper.GetInt(key.BackendTimeout))*time.Second)),
		WithRate(viper.GetInt(key.BackendRatePerMinute)),
	)
}

// GetTitle fetches a title with at most maxEpisodes resolved play URLs. maxEpisodes is clamped to 1..100.
func (c *Client) GetTitle(ctx context.Context, id string, maxEpisodes int) (*source.Title, error) {
	if err := source.ValidateID(id); err != nil {
		return nil, retry.Permanent(err)
	}

	query := url.Values{
		"async":        {"true"},
		"max_episodes": {strconv.Itoa(config.ClampEpisodes(maxEpisodes))},
	}

	var body videoResponse
	status, err := c.do(ctx, http.MethodGet, c.endpoint(query, "video", id), nil, &body)
	if err != nil {
		return nil, fmt.Errorf("get title %s: %w", id, err)
	}

	if !body.Success || body.Data == nil {
		return nil, fmt.Errorf("get title %s: %w", id, classify(status, body.Error))
	}

	title := body.Data.toTitle(id)
	log.Debugf("backend: title %s has %d episodes (max_episodes=%d)", id, len(title.Episodes), maxEpisodes)
	return title, nil
}

// ResolveEpisode turns an episode page URL into a playable media URL.
func (c *Client) ResolveEpisode(ctx context.Context, episodeURL string) (string, error) {
	if strings.TrimSpace(episodeURL) == "" {
		return "", retry.Permanent(errors.New("resolve episode: empty episode url"))
	}

	var body resolveResponse
	status, err := c.do(ctx, http.MethodPost, c.endpoint(nil, "episode-play-url"), resolveRequest{EpisodeURL: episodeURL}, &body)
	if err != nil {
		return "", fmt.Errorf("resolve episode: %w", err)
	}

	if !body.Success {
		return "", fmt.Errorf("resolve episode: %w", classify(status, body.Error))
	}
	if strings.TrimSpace(body.PlayURL) == "" {
		return "", fmt.Errorf("resolve episode: %w", ErrNoPlayURL)
	}

	return strings.TrimSpace(body.PlayURL), nil
}

// Search looks titles up by keyword.
func (c *Client) Search(ctx context.Context, query string) ([]source.Result, error) {
	query = strings.TrimSpace(query)
	if err := validateQuery(query); err != nil {
		return nil, retry.Permanent(err)
	}

	var body searchResponse
	status, err := c.do(ctx, http.MethodGet, c.endpoint(url.Values{"q": {query}}, "search"), nil, &body)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	// the backend answers 404 when nothing matched
	if status == http.StatusNotFound {
		return nil, nil
	}
	if body.Error != "" || status >= 300 {
		return nil, fmt.Errorf("search %q: %w", query, classify(status, body.Error))
	}

	return body.Items, nil
}

// Health queries the backend health endpoint.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var body Health
	status, err := c.do(ctx, http.MethodGet, c.endpoint(nil, "health"), nil, &body)
	if err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	if status >= 300 {
		return &body, fmt.Errorf("health: %w", classify(status, body.Error))
	}
	return &body, nil
}

func (c *Client) endpoint(query url.Values, segments ...string) string {
	u := c.base.JoinPath(segments...)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do performs one request and decodes a JSON body into out regardless of the status code,
// since the backend reports failures as JSON too. It returns the status code.
func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit: %w", err)
	}

	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, retry.Permanent(fmt.Errorf("marshal request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		if resp.StatusCode >= 300 {
			return resp.StatusCode, classify(resp.StatusCode, "")
		}
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}

	return resp.StatusCode, nil
}

// classify turns a failed answer into an error, marking it permanent unless repeating could help.
func classify(status int, message string) error {
	if status < 300 {
		status = http.StatusBadGateway
	}

	err := &StatusError{Code: status, Message: message}
	if err.Temporary() {
		return err
	}
	return retry.Permanent(err)
}

func validateQuery(q string) error {
	switch {
	case q == "":
		return fmt.Errorf("%w: empty", ErrInvalidQuery)
	case len([]rune(q)) > maxQueryLength:
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidQuery, maxQueryLength)
	case strings.ContainsAny(q, `<>"'&`),
		strings.Contains(strings.ToLower(q), "javascript:"),
		strings.Contains(strings.ToLower(q), "data:"):
		return fmt.Errorf("%w: contains forbidden characters", ErrInvalidQuery)
	}
	return nil
}
