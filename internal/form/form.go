// Package form drives one add/edit user form: it loads the record being
// edited, validates input and submits it through the gateway.
package form

import (
	"context"
	"errors"
	"sync"

	"example.com/userdesk/internal/core"
)

// State of a form controller.
type State int

const (
	Loading State = iota
	Ready
	Submitting
	Failed
	Done
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Submitting:
		return "submitting"
	case Failed:
		return "error"
	case Done:
		return "done"
	}
	return "unknown"
}

var (
	ErrInFlight  = errors.New("form: submission already in progress")
	ErrNotReady  = errors.New("form: record is still loading")
	ErrCompleted = errors.New("form: already submitted")
	ErrClosed    = errors.New("form: closed")
	// ErrStale is returned to a caller whose result arrived after Close.
	ErrStale = errors.New("form: result discarded")
)

type Gateway interface {
	Get(ctx context.Context, id string) (core.User, error)
	Create(ctx context.Context, u core.User) (core.User, error)
	Update(ctx context.Context, id string, u core.User) (core.User, error)
}

type Validator interface {
	Validate(u core.User) core.FieldErrors
	Normalize(u core.User) core.User
}

// Controller holds the state of one form. It is safe for concurrent use;
// at most one submission is in flight at a time.
type Controller struct {
	gw Gateway
	v  Validator
	id string

	mu     sync.Mutex
	state  State
	values core.User
	fields core.FieldErrors
	err    error
	result core.User
	gen    uint64
	closed bool

	loaded   bool
	fetching bool
}

// New returns a controller for the record id, or for a new record when id
// is empty. An edit controller starts in Loading and needs Load.
func New(gw Gateway, v Validator, id string) *Controller {
	c := &Controller{gw: gw, v: v, id: id, state: Ready}
	if id != "" {
		c.state = Loading
	}
	return c
}

// ID is the bound record id, empty in create mode.
func (c *Controller) ID() string { return c.id }

// Editing reports whether the controller edits an existing record.
func (c *Controller) Editing() bool { return c.id != "" }

// Load fetches the bound record and makes the form editable. It is a no-op
// in create mode, once loaded, or while another Load is running; after a
// failed load it tries again.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.id == "" || c.loaded || c.fetching {
		c.mu.Unlock()
		return nil
	}
	c.fetching = true
	c.state = Loading
	c.err = nil
	gen := c.gen
	c.mu.Unlock()

	u, err := c.gw.Get(ctx, c.id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetching = false
	if gen != c.gen {
		return ErrStale
	}
	if err != nil {
		c.state = Failed
		c.err = err
		return err
	}
	u.ID = c.id
	c.values = u
	c.loaded = true
	c.state = Ready
	return nil
}

// Submit validates input and, when valid, creates or updates the record.
// Invalid input returns a *core.ValidationError without touching the
// gateway. On success the controller is Done and the stored record is kept
// in Result; on failure it is Failed and accepts another Submit.
func (c *Controller) Submit(ctx context.Context, input core.User) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.state == Submitting:
		c.mu.Unlock()
		return ErrInFlight
	case c.state == Loading, c.id != "" && !c.loaded:
		c.mu.Unlock()
		return ErrNotReady
	case c.state == Done:
		c.mu.Unlock()
		return ErrCompleted
	}

	input.ID = c.id
	c.values = input
	if errs := c.v.Validate(input); len(errs) > 0 {
		c.fields = errs
		c.err = nil
		c.state = Ready
		c.mu.Unlock()
		return &core.ValidationError{Fields: errs}
	}
	c.fields = nil
	c.err = nil
	c.state = Submitting
	gen := c.gen
	c.mu.Unlock()

	payload := c.v.Normalize(input)
	var (
		saved core.User
		err   error
	)
	if c.id == "" {
		saved, err = c.gw.Create(ctx, payload)
	} else {
		saved, err = c.gw.Update(ctx, c.id, payload)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return ErrStale
	}
	if err != nil {
		c.state = Failed
		c.err = err
		return err
	}
	c.state = Done
	c.result = saved
	return nil
}

// Close detaches the controller from its view. Results of calls still in
// flight are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.gen++
}

// Result is the record returned by the backend after a successful Submit.
func (c *Controller) Result() (core.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.state == Done
}

// View is a snapshot of the controller for rendering.
type View struct {
	Editing bool
	State   State
	Values  core.User
	Fields  core.FieldErrors
	Err     error
}

// Disabled reports whether the inputs should be disabled.
func (v View) Disabled() bool {
	return v.State == Loading || v.State == Submitting || v.State == Done
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	fields := make(core.FieldErrors, len(c.fields))
	for k, msg := range c.fields {
		fields[k] = msg
	}
	return View{
		Editing: c.id != "",
		State:   c.state,
		Values:  c.values,
		Fields:  fields,
		Err:     c.err,
	}
}
