package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"newsrelay/internal/domain/models"
)

// DefaultEndpoint is where a locally started relay answers queries.
const DefaultEndpoint = "http://localhost:7000/api/query"

// ErrRequestFailed marks failures to get a usable answer from the relay:
// network errors, non-200 statuses and bodies that are not an envelope.
var ErrRequestFailed = errors.New("relay request failed")

// Relay is the console's view of the relay service.
type Relay interface {
	Query(ctx context.Context, query string) (*models.Envelope, error)
}

// Client posts queries to a relay endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a relay client. A nil httpClient means http.DefaultClient.
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

// Query sends {"query": query} and decodes the envelope.
// Any error returned wraps ErrRequestFailed.
func (c *Client) Query(ctx context.Context, query string) (*models.Envelope, error) {
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	var env models.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrRequestFailed, err)
	}
	return &env, nil
}
