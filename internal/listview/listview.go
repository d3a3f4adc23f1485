// Package listview keeps the user list shown on the index page and runs the
// confirm-then-delete flow.
package listview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"example.com/userdesk/internal/core"
)

var (
	// ErrNothingPending is returned by Confirm when no delete was requested.
	ErrNothingPending = errors.New("listview: no delete awaiting confirmation")
	ErrClosed         = errors.New("listview: closed")
	// ErrReload wraps the error of the reload after a successful delete.
	ErrReload = errors.New("listview: deleted but reload failed")
	// ErrStale is returned to a load that was overtaken by a newer one or by Close.
	ErrStale = errors.New("listview: result discarded")
)

type Gateway interface {
	List(ctx context.Context) ([]core.User, error)
	Remove(ctx context.Context, id string) error
}

// Controller owns the last loaded collection. Any successful delete is
// followed by a full reload; rows are never patched locally.
type Controller struct {
	gw Gateway

	mu      sync.Mutex
	rows    []core.User
	loaded  bool
	err     error
	pending string
	gen     uint64
	closed  bool
}

func New(gw Gateway) *Controller {
	return &Controller{gw: gw}
}

// Load replaces the rows with a single List call. When loads overlap only
// the most recently started one is applied.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	rows, err := c.gw.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return ErrStale
	}
	if err != nil {
		c.err = err
		return err
	}
	c.rows = rows
	c.loaded = true
	c.err = nil
	return nil
}

// RequestDelete opens the confirmation gate for id. Nothing is sent yet.
func (c *Controller) RequestDelete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = id
}

// Cancel closes the confirmation gate.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = ""
}

// Confirm deletes the pending record and reloads the list. If the delete
// fails the rows are left as they were and the error is kept for display;
// if only the reload fails the error matches ErrReload.
func (c *Controller) Confirm(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	id := c.pending
	c.pending = ""
	if id == "" {
		c.mu.Unlock()
		return ErrNothingPending
	}
	gen := c.gen
	c.mu.Unlock()

	if err := c.gw.Remove(ctx, id); err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.gen {
			return ErrStale
		}
		c.err = err
		return err
	}

	err := c.Load(ctx)
	switch {
	case err == nil, errors.Is(err, ErrStale):
		return nil
	case errors.Is(err, ErrClosed):
		return err
	}
	return fmt.Errorf("%w: %w", ErrReload, err)
}

// Close discards the results of calls still in flight.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.gen++
}

// Rows returns a copy of the last loaded collection.
func (c *Controller) Rows() []core.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.User(nil), c.rows...)
}

// Loaded reports whether a List call has succeeded yet.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Pending is the id awaiting confirmation, or "".
func (c *Controller) Pending() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Err is the error of the last failed action, cleared by a successful load.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
