package searchapi

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

	"github.com/sirupsen/logrus"

	"warda/internal/domain"
)

// DefaultURL is the search endpoint of a locally running backend.
const DefaultURL = "http://localhost:8000/search"

// APIError is returned for any non-2xx reply. Body is the raw response text.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

// Client is a minimal REST client for the semantic-search backend.
// It does not retry and sets no client-side timeout: the backend is told how
// long the LLM may take through SearchRequest.Timeout.
type Client struct {
	searchURL string
	healthURL string
	client    *http.Client
	log       logrus.FieldLogger
}

// Config configures the search client.
type Config struct {
	URL        string
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

// NewClient validates the endpoint URL and derives the health URL from it.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		raw = DefaultURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q: want http(s)://host/path", raw)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Client{
		searchURL: u.String(),
		healthURL: healthURL(u),
		client:    hc,
		log:       log,
	}, nil
}

// URL returns the search endpoint.
func (c *Client) URL() string { return c.searchURL }

// Search posts req and decodes the ranked fragments.
func (c *Client) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	var out domain.SearchResponse
	if err := c.postJSON(ctx, c.searchURL, req, &out); err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"top_k":   out.TopK,
		"results": len(out.Results),
		"mode":    req.Mode,
	}).Debug("search completed")
	return &out, nil
}

// Health probes GET /health on the same host as the search endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health %s: %w", c.healthURL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("health %s: read body: %w", c.healthURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	var status struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return fmt.Errorf("health %s: decode: %w", c.healthURL, err)
	}
	if status.Status != "ok" {
		return fmt.Errorf("health %s: status %q", c.healthURL, status.Status)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.log.WithField("url", endpoint).Debug("POST")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		txt, err := io.ReadAll(resp.Body)
		entry := c.log.WithField("status", resp.StatusCode)
		if err != nil {
			entry.WithError(err).Warn("read error body failed, body may be truncated")
		}
		entry.Warn("search backend rejected request")
		return &APIError{Status: resp.StatusCode, Body: string(txt)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// IsAPIError reports whether err carries a backend status.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func healthURL(search *url.URL) string {
	u := *search
	u.RawQuery = ""
	u.Fragment = ""
	path := strings.TrimSuffix(u.Path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[:i]
	}
	u.Path = path + "/health"
	u.RawPath = ""
	return u.String()
}
