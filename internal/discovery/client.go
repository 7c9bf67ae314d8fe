package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"newsrelay/internal/config"
	"newsrelay/internal/domain"
	"newsrelay/internal/domain/models"
)

const userAgent = "newsrelay/1.0"

// Client queries the Watson Discovery v1 API.
// Implements services.DiscoveryClient.
type Client struct {
	baseURL    string
	auth       Authenticator
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets the http.Client used for queries.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout bounds each query. Zero leaves the client without a timeout.
// It applies to whichever http.Client the other options select.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for upstream diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Discovery client rooted at baseURL (the service
// instance URL, e.g. https://api.us-south.discovery.watson.cloud.ibm.com/instances/<id>).
func NewClient(baseURL string, auth Authenticator, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		auth:       auth,
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.timeout > 0 {
		bounded := *c.httpClient
		bounded.Timeout = c.timeout
		c.httpClient = &bounded
	}
	return c
}

// queryResponse is the subset of the v1 query response the relay reads.
// Results stay raw so they are forwarded exactly as received.
type queryResponse struct {
	MatchingResults int               `json:"matching_results"`
	Results         []json.RawMessage `json:"results"`
}

// Query runs a natural-language query against one collection.
// Failures are returned as *domain.QueryError.
func (c *Client) Query(ctx context.Context, scope models.Scope, naturalLanguageQuery string) (*models.QueryResult, error) {
	endpoint := c.queryURL(scope, naturalLanguageQuery)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.NewQueryError(domain.KindBadQuery, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	if err := c.auth.Authenticate(ctx, req); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("discovery query",
		"collection", scope.CollectionID,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, fmt.Errorf("read response: %w", err))
	}

	var qr queryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, &domain.QueryError{
			Kind:   domain.KindDecode,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("parse response: %w", err),
		}
	}

	results := make([]models.Result, len(qr.Results))
	for i, r := range qr.Results {
		results[i] = models.Result(r)
	}

	return &models.QueryResult{
		Results:       results,
		MatchingCount: qr.MatchingResults,
	}, nil
}

// queryURL builds GET /v1/environments/{env}/collections/{collection}/query
func (c *Client) queryURL(scope models.Scope, naturalLanguageQuery string) string {
	params := url.Values{}
	params.Set("version", scope.Version)
	params.Set("natural_language_query", naturalLanguageQuery)
	params.Set("count", strconv.Itoa(scope.Count))

	return fmt.Sprintf("%s/v1/environments/%s/collections/%s/query?%s",
		c.baseURL,
		url.PathEscape(scope.EnvironmentID),
		url.PathEscape(scope.CollectionID),
		params.Encode(),
	)
}

// NewFromConfig builds a Client and its authenticator from process configuration.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	// The token exchange shares the query timeout
	auth, err := NewAuthenticator(cfg, &http.Client{Timeout: cfg.DiscoveryTimeout})
	if err != nil {
		return nil, err
	}

	logger.Info("discovery client configured",
		"url", cfg.DiscoveryURL,
		"auth_type", cfg.AuthType,
		"environment_id", cfg.Scope.EnvironmentID,
		"collection_id", cfg.Scope.CollectionID,
		"timeout", cfg.DiscoveryTimeout.String(),
	)

	return NewClient(cfg.DiscoveryURL, auth,
		WithTimeout(cfg.DiscoveryTimeout),
		WithLogger(logger),
	), nil
}
