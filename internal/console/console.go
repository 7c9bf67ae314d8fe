package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"newsrelay/internal/domain/models"
)

// User-facing messages. Only these two failures are distinguished.
const (
	MsgTransport   = "Failed request. Please make sure the correct endpoint is set."
	MsgCredentials = "There was a back-end error. Please make sure your Discovery credentials are correctly set."
)

var (
	// ErrBusy is returned by Submit while a query is in flight.
	ErrBusy = errors.New("a query is already in flight")

	// ErrNoSuchTile is returned for a tile index outside the result list.
	ErrNoSuchTile = errors.New("no such tile")
)

// Status is the observable state of the console.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Tile is one result as displayed: collapsed shows title and date,
// expanded adds text and source URL.
type Tile struct {
	models.ResultSummary
	Expanded bool
}

// Snapshot is a copy of the console state safe to read without locking.
type Snapshot struct {
	Status  Status
	Query   string
	Loading bool
	Error   string
	Tiles   []Tile
}

// Console holds the state behind the query form and the result tiles.
type Console struct {
	relay    Relay
	logger   *slog.Logger
	onChange func(Snapshot)

	mu      sync.Mutex
	query   string
	loading bool
	errMsg  string
	tiles   []Tile
}

// Option configures a Console.
type Option func(*Console)

// WithOnChange registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that caused the change, outside the console lock.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *Console) { c.onChange = fn }
}

// New creates an idle console talking to relay.
func New(relay Relay, logger *slog.Logger, opts ...Option) *Console {
	c := &Console{relay: relay, logger: logger}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Submit runs one query. While a query is in flight it returns ErrBusy and
// leaves the state alone. A failed query keeps the previous tiles and sets
// the error message; a successful one replaces the tiles, all collapsed.
func (c *Console) Submit(ctx context.Context, query string) error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.loading = true
	c.query = query
	c.errMsg = ""
	c.mu.Unlock()
	c.notify()

	env, err := c.relay.Query(ctx, query)

	c.mu.Lock()
	c.loading = false
	switch {
	case err != nil:
		c.logger.Error("query request failed", "error", err)
		c.errMsg = MsgTransport
	case env.Err:
		c.logger.Warn("relay reported a back-end error", "query", query)
		c.errMsg = MsgCredentials
	default:
		c.tiles = newTiles(env.Results, c.logger)
	}
	c.mu.Unlock()
	c.notify()

	return nil
}

func newTiles(results []models.Result, logger *slog.Logger) []Tile {
	tiles := make([]Tile, len(results))
	for i, r := range results {
		summary, err := models.Summarize(r)
		if err != nil {
			logger.Warn("result is not a record", "index", i, "error", err)
		}
		tiles[i] = Tile{ResultSummary: summary}
	}
	return tiles
}

// DismissError clears the error message.
func (c *Console) DismissError() {
	c.mu.Lock()
	c.errMsg = ""
	c.mu.Unlock()
	c.notify()
}

// Toggle flips the expansion of tile i only.
func (c *Console) Toggle(i int) error {
	return c.update(i, func(t *Tile) { t.Expanded = !t.Expanded })
}

// SetExpanded expands or collapses tile i only.
func (c *Console) SetExpanded(i int, expanded bool) error {
	return c.update(i, func(t *Tile) { t.Expanded = expanded })
}

func (c *Console) update(i int, fn func(*Tile)) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.tiles) {
		n := len(c.tiles)
		c.mu.Unlock()
		return fmt.Errorf("%w: %d (have %d)", ErrNoSuchTile, i, n)
	}
	fn(&c.tiles[i])
	c.mu.Unlock()
	c.notify()
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Console) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Console) snapshotLocked() Snapshot {
	tiles := make([]Tile, len(c.tiles))
	copy(tiles, c.tiles)

	status := StatusIdle
	switch {
	case c.loading:
		status = StatusLoading
	case c.errMsg != "":
		status = StatusError
	case len(tiles) > 0:
		status = StatusSuccess
	}

	return Snapshot{
		Status:  status,
		Query:   c.query,
		Loading: c.loading,
		Error:   c.errMsg,
		Tiles:   tiles,
	}
}

func (c *Console) notify() {
	if c.onChange != nil {
		c.onChange(c.Snapshot())
	}
}
