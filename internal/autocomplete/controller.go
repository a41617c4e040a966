// Package autocomplete implements the debounced type-ahead controller.
//
// The controller observes text input, coalesces bursty keystrokes into at
// most one lookup per quiet period, and drives a suggestion panel: results
// shown, a selection applied to the name and ticker fields, or the panel
// dismissed. All panel state is instance-scoped so controllers are
// testable in isolation.
package autocomplete

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/quickfin/tickerfind/internal/search"
)

// State is the controller's panel state.
type State int

const (
	// StateIdle means no pending lookup and the panel hidden.
	StateIdle State = iota
	// StatePendingLookup means the debounce timer is armed.
	StatePendingLookup
	// StateShowingResults means the panel is visible with entries.
	StateShowingResults
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingLookup:
		return "pending_lookup"
	case StateShowingResults:
		return "showing_results"
	default:
		return "unknown"
	}
}

// LookupFunc issues one suggestion lookup for the query.
type LookupFunc func(ctx context.Context, query string) ([]search.Suggestion, error)

// Callbacks receive panel transitions. Nil members are skipped, so a host
// can bind only the surfaces it has (a missing name field still leaves
// dismissal working).
type Callbacks struct {
	// ShowResults replaces the panel content with the given entries
	// and makes the panel visible.
	ShowResults func(items []search.Suggestion)
	// HidePanel clears and hides the panel.
	HidePanel func()
	// ApplySelection copies the selected entry into the name and
	// ticker fields.
	ApplySelection func(name, ticker string)
}

// Controller debounces input and manages the suggestion panel lifecycle.
type Controller struct {
	quiet  time.Duration
	minLen int
	lookup LookupFunc
	cb     Callbacks
	ctx    context.Context

	mu    sync.Mutex
	timer *time.Timer
	state State
	items []search.Suggestion
}

// Options configures a Controller.
type Options struct {
	// QuietPeriod is the debounce window; <= 0 uses 300ms.
	QuietPeriod time.Duration
	// MinQueryLen gates lookups; <= 0 uses 3.
	MinQueryLen int
	// Context bounds lookup calls; nil uses context.Background().
	Context context.Context
}

// New creates a controller that calls lookup after the quiet period and
// reports panel transitions through cb.
func New(lookup LookupFunc, cb Callbacks, opts Options) *Controller {
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = 300 * time.Millisecond
	}
	if opts.MinQueryLen <= 0 {
		opts.MinQueryLen = 3
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	return &Controller{
		quiet:  opts.QuietPeriod,
		minLen: opts.MinQueryLen,
		lookup: lookup,
		cb:     cb,
		ctx:    opts.Context,
		state:  StateIdle,
	}
}

// OnInput handles a text change in the name field.
// Any pending scheduled lookup is superseded: its timer is cancelled and
// only the newest input survives. Queries below the minimum length hide
// the panel synchronously and never schedule a lookup.
func (c *Controller) OnInput(text string) {
	c.mu.Lock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	if utf8.RuneCountInString(text) < c.minLen {
		c.items = nil
		c.state = StateIdle
		c.mu.Unlock()
		c.hidePanel()
		return
	}

	c.state = StatePendingLookup
	c.timer = time.AfterFunc(c.quiet, func() {
		c.fire(text)
	})
	c.mu.Unlock()
}

// fire runs the scheduled lookup. There is deliberately no generation
// guard on in-flight lookups: once two requests are in flight, whichever
// resolves last owns the panel. Cancellation covers scheduled timers only.
func (c *Controller) fire(query string) {
	items, err := c.lookup(c.ctx, query)
	if err != nil {
		slog.Warn("lookup_failed",
			slog.String("query", query),
			slog.String("error", err.Error()))
		c.setHidden()
		return
	}

	if len(items) == 0 {
		c.setHidden()
		return
	}

	c.mu.Lock()
	c.items = items
	c.state = StateShowingResults
	c.mu.Unlock()

	if c.cb.ShowResults != nil {
		c.cb.ShowResults(items)
	}
}

// Select applies the entry at index i: its name and ticker are copied to
// the bound fields and the panel is hidden. Out-of-range indexes and
// selection with no entries are no-ops. Entries stay selectable while a
// fresh lookup is pending; selecting one cancels the pending lookup.
func (c *Controller) Select(i int) {
	c.mu.Lock()
	if i < 0 || i >= len(c.items) {
		c.mu.Unlock()
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	item := c.items[i]
	c.items = nil
	c.state = StateIdle
	c.mu.Unlock()

	if c.cb.ApplySelection != nil {
		c.cb.ApplySelection(item.Name, item.Ticker)
	}
	c.hidePanel()
}

// Dismiss hides the panel without applying a selection. Idempotent:
// dismissing an already-hidden panel is a no-op beyond the hide callback.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	c.items = nil
	c.state = StateIdle
	c.mu.Unlock()
	c.hidePanel()
}

// Stop cancels any pending lookup timer.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// State returns the current panel state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Items returns a snapshot of the current panel entries.
func (c *Controller) Items() []search.Suggestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]search.Suggestion, len(c.items))
	copy(out, c.items)
	return out
}

// setHidden transitions to Idle and hides the panel.
func (c *Controller) setHidden() {
	c.mu.Lock()
	c.items = nil
	c.state = StateIdle
	c.mu.Unlock()
	c.hidePanel()
}

func (c *Controller) hidePanel() {
	if c.cb.HidePanel != nil {
		c.cb.HidePanel()
	}
}
