// Package listview implements the client-side controller behind the
// directory table: it owns the current query, the displayed page, the
// entry editor and the delete confirmation, and reconciles the view with
// the server after every change.
package listview

import (
	"context"
	"slices"
	"sync"

	"github.com/fwojciec/citydir"
)

// Status is the loading state of the displayed page.
type Status int

// Status constants.
const (
	Idle Status = iota
	Loading
	Loaded
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Error:
		return "error"
	}
	return "unknown"
}

// State is a snapshot of the controller. Snapshots are never modified
// after they are handed out.
type State struct {
	Status Status
	Query  citydir.Query

	// Page is the last successfully loaded page. It stays visible while a
	// new page loads and after a failed load.
	Page *citydir.ResultPage

	// Err is the failure of the last load when Status is Error.
	Err error

	// Editing is the entry open in the editor, or nil when the editor is
	// closed. An entry with an empty ID is a new entry.
	Editing *citydir.Entry

	// PendingDeleteID is the entry awaiting delete confirmation.
	PendingDeleteID string

	// MutationInFlight is set while a create, update or delete is running.
	MutationInFlight bool
}

// Controller drives the directory table. It is safe for concurrent use;
// service calls are made without holding the lock, and query responses
// superseded by a newer query are dropped when they arrive.
type Controller struct {
	entries citydir.EntryService

	mu       sync.Mutex
	state    State
	token    uint64
	observer func(State)
}

// Option configures a Controller.
type Option func(*Controller)

// WithQuery sets the initial query. It is normalized before use.
func WithQuery(q citydir.Query) Option {
	return func(c *Controller) {
		c.state.Query = q.Normalize()
	}
}

// WithObserver registers fn to receive a snapshot after every state change.
// fn is called without the controller lock held.
func WithObserver(fn func(State)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// NewController creates an idle controller over entries.
func NewController(entries citydir.EntryService, opts ...Option) *Controller {
	c := &Controller{
		entries: entries,
		state:   State{Status: Idle, Query: citydir.DefaultQuery()},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Load re-issues the current query.
func (c *Controller) Load(ctx context.Context) error {
	return c.query(ctx, func(q *citydir.Query) {})
}

// SetPage loads the given page, keeping filters and sort.
func (c *Controller) SetPage(ctx context.Context, page int) error {
	return c.query(ctx, func(q *citydir.Query) {
		q.Page = page
	})
}

// SetPageSize changes the page size and returns to the first page.
func (c *Controller) SetPageSize(ctx context.Context, size int) error {
	return c.query(ctx, func(q *citydir.Query) {
		q.PageSize = size
		q.Page = 1
	})
}

// SetSearch changes the free-text filter and returns to the first page.
func (c *Controller) SetSearch(ctx context.Context, term string) error {
	return c.query(ctx, func(q *citydir.Query) {
		q.Search = term
		q.Page = 1
	})
}

// SetCategory changes the category filter and returns to the first page.
// An empty category clears the filter.
func (c *Controller) SetCategory(ctx context.Context, category string) error {
	return c.query(ctx, func(q *citydir.Query) {
		q.Category = category
		q.Page = 1
	})
}

// SetSubCategory changes the sub-category filter and returns to the first
// page. An empty value clears the filter.
func (c *Controller) SetSubCategory(ctx context.Context, subCategory string) error {
	return c.query(ctx, func(q *citydir.Query) {
		q.SubCategory = subCategory
		q.Page = 1
	})
}

// SetSort changes the ordering and returns to the first page.
func (c *Controller) SetSort(ctx context.Context, sort citydir.Sort) error {
	return c.query(ctx, func(q *citydir.Query) {
		q.Sort = sort
		q.Page = 1
	})
}

// ToggleSort orders by field, flipping the direction when the listing is
// already ordered by it.
func (c *Controller) ToggleSort(ctx context.Context, field citydir.SortField) error {
	return c.query(ctx, func(q *citydir.Query) {
		dir := citydir.SortAscending
		if q.Sort.Field == field && q.Sort.Direction == citydir.SortAscending {
			dir = citydir.SortDescending
		}
		q.Sort = citydir.Sort{Field: field, Direction: dir}
		q.Page = 1
	})
}

// query applies change to the current query and loads the result.
func (c *Controller) query(ctx context.Context, change func(q *citydir.Query)) error {
	c.mu.Lock()
	change(&c.state.Query)
	c.state.Query = c.state.Query.Normalize()
	q, token := c.beginLoad()
	snap := c.state
	c.mu.Unlock()

	c.notify(snap)
	return c.fetch(ctx, q, token)
}

// beginLoad issues a new request token and moves to Loading.
// Must be called with c.mu held.
func (c *Controller) beginLoad() (citydir.Query, uint64) {
	c.token++
	c.state.Status = Loading
	c.state.Err = nil
	return c.state.Query, c.token
}

// fetch runs q and applies the result if token is still the latest.
func (c *Controller) fetch(ctx context.Context, q citydir.Query, token uint64) error {
	for {
		page, err := c.entries.FindEntries(ctx, q)

		c.mu.Lock()
		if token != c.token {
			c.mu.Unlock()
			return nil
		}

		if err != nil {
			c.state.Status = Error
			c.state.Err = err
			snap := c.state
			c.mu.Unlock()
			c.notify(snap)
			return err
		}

		// A page past the end is clamped to the last page, or to the
		// first when nothing matches.
		if last := max(page.TotalPages, 1); len(page.Items) == 0 && q.Page > last {
			c.state.Query.Page = last
			q, token = c.beginLoad()
			snap := c.state
			c.mu.Unlock()
			c.notify(snap)
			continue
		}

		c.state.Status = Loaded
		c.state.Page = page
		snap := c.state
		c.mu.Unlock()
		c.notify(snap)
		return nil
	}
}

func (c *Controller) notify(s State) {
	if c.observer != nil {
		c.observer(s)
	}
}

// beginMutation claims the single mutation slot.
func (c *Controller) beginMutation() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.MutationInFlight {
		return citydir.Errorf(citydir.ECONFLICT, "another change is still being saved")
	}
	c.state.MutationInFlight = true
	return nil
}

func (c *Controller) endMutation() {
	c.mu.Lock()
	c.state.MutationInFlight = false
	snap := c.state
	c.mu.Unlock()
	c.notify(snap)
}

// Create stores a new entry and re-issues the current query, since the
// new row may sort into any page. The returned error is that of the
// mutation; a failed refresh shows up as the Error status.
func (c *Controller) Create(ctx context.Context, entry *citydir.Entry) error {
	if err := c.beginMutation(); err != nil {
		return err
	}
	err := c.entries.CreateEntry(ctx, entry)
	c.endMutation()
	if err != nil {
		return err
	}
	_ = c.Load(ctx)
	return nil
}

// Update applies upd to the entry and reconciles the displayed page. The
// row is replaced in place when the change cannot move it; otherwise the
// current query is re-issued. A vanished entry refreshes the page and
// returns ENOTFOUND.
func (c *Controller) Update(ctx context.Context, id string, upd citydir.EntryUpdate) (*citydir.Entry, error) {
	if err := c.beginMutation(); err != nil {
		return nil, err
	}
	entry, err := c.entries.UpdateEntry(ctx, id, upd)
	c.endMutation()
	if err != nil {
		if citydir.ErrorCode(err) == citydir.ENOTFOUND {
			_ = c.Load(ctx)
		}
		return nil, err
	}

	c.mu.Lock()
	page := c.state.Page
	i := -1
	if page != nil {
		i = page.Index(id)
	}
	if i < 0 || moves(c.state.Query, page.Items[i], entry) {
		c.mu.Unlock()
		_ = c.Load(ctx)
		return entry, nil
	}
	next := *page
	next.Items = slices.Clone(page.Items)
	next.Items[i] = entry
	c.state.Page = &next
	snap := c.state
	c.mu.Unlock()

	c.notify(snap)
	return entry, nil
}

// moves reports whether changing before into after could move the row
// within the listing of q or drop it from the listing.
func moves(q citydir.Query, before, after *citydir.Entry) bool {
	changed := func(f citydir.SortField) bool {
		return before.Value(string(f)) != after.Value(string(f))
	}
	if changed(q.Sort.Field) {
		return true
	}
	if q.Category != "" && changed(citydir.SortByCategory) {
		return true
	}
	if q.SubCategory != "" && changed(citydir.SortBySubCategory) {
		return true
	}
	if q.Search != "" {
		for _, f := range citydir.SearchFields {
			if changed(f) {
				return true
			}
		}
	}
	return false
}

// Delete removes the entry, drops it from the displayed page and
// decrements the total, then re-issues the current query to backfill the
// page. A vanished entry refreshes the page and returns ENOTFOUND.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.beginMutation(); err != nil {
		return err
	}
	err := c.entries.DeleteEntry(ctx, id)
	c.endMutation()
	if err != nil {
		if citydir.ErrorCode(err) == citydir.ENOTFOUND {
			_ = c.Load(ctx)
		}
		return err
	}

	c.mu.Lock()
	if page := c.state.Page; page != nil {
		if i := page.Index(id); i >= 0 {
			next := *page
			next.Items = slices.Delete(slices.Clone(page.Items), i, i+1)
			next.TotalItems--
			next.TotalPages = citydir.TotalPages(next.TotalItems, next.PageSize)
			c.state.Page = &next
		}
	}
	snap := c.state
	c.mu.Unlock()
	c.notify(snap)

	_ = c.Load(ctx)
	return nil
}
