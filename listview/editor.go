package listview

import (
	"context"

	"github.com/fwojciec/citydir"
)

// OpenCreate opens the editor on a blank entry and returns its empty draft.
func (c *Controller) OpenCreate() citydir.Draft {
	c.mu.Lock()
	c.state.Editing = &citydir.Entry{}
	snap := c.state
	c.mu.Unlock()

	c.notify(snap)
	return citydir.Draft{}
}

// OpenEdit opens the editor on the entry with the given ID and returns a
// draft pre-filled with its values. Entries not on the displayed page are
// fetched from the service.
func (c *Controller) OpenEdit(ctx context.Context, id string) (citydir.Draft, error) {
	c.mu.Lock()
	var entry *citydir.Entry
	if page := c.state.Page; page != nil {
		if i := page.Index(id); i >= 0 {
			entry = page.Items[i]
		}
	}
	c.mu.Unlock()

	if entry == nil {
		var err error
		if entry, err = c.entries.FindEntryByID(ctx, id); err != nil {
			return citydir.Draft{}, err
		}
	}

	c.mu.Lock()
	c.state.Editing = entry
	snap := c.state
	c.mu.Unlock()

	c.notify(snap)
	return citydir.NewDraft(entry), nil
}

// CloseEditor discards the open editor without side effects.
func (c *Controller) CloseEditor() {
	c.mu.Lock()
	c.state.Editing = nil
	snap := c.state
	c.mu.Unlock()

	c.notify(snap)
}

// Submit validates d and saves it as the entry open in the editor. Field
// failures are returned as an EINVALID error and leave the editor open.
// Every field is submitted on update, so cleared fields reach the store.
// The editor closes after a successful save or when the edited entry no
// longer exists.
func (c *Controller) Submit(ctx context.Context, d citydir.Draft) (*citydir.Entry, error) {
	c.mu.Lock()
	editing := c.state.Editing
	c.mu.Unlock()
	if editing == nil {
		return nil, citydir.Errorf(citydir.EINVALID, "no entry is being edited")
	}

	entry, err := d.Validate()
	if err != nil {
		return nil, err
	}

	if editing.ID == "" {
		err = c.Create(ctx, entry)
	} else {
		entry, err = c.Update(ctx, editing.ID, citydir.NewEntryUpdate(entry))
	}
	if err != nil && citydir.ErrorCode(err) != citydir.ENOTFOUND {
		return nil, err
	}

	c.mu.Lock()
	if c.state.Editing == editing {
		c.state.Editing = nil
	}
	snap := c.state
	c.mu.Unlock()
	c.notify(snap)

	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RequestDelete marks id as awaiting confirmation.
func (c *Controller) RequestDelete(id string) {
	c.mu.Lock()
	c.state.PendingDeleteID = id
	snap := c.state
	c.mu.Unlock()

	c.notify(snap)
}

// CancelDelete clears the pending deletion without side effects.
func (c *Controller) CancelDelete() {
	c.RequestDelete("")
}

// ConfirmDelete deletes the pending entry. It fails with EINVALID when no
// deletion is pending. The pending ID is kept only when the deletion was
// refused because another change was in flight.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	id := c.state.PendingDeleteID
	c.mu.Unlock()
	if id == "" {
		return citydir.Errorf(citydir.EINVALID, "no deletion pending")
	}

	err := c.Delete(ctx, id)
	if citydir.ErrorCode(err) == citydir.ECONFLICT {
		return err
	}

	c.mu.Lock()
	if c.state.PendingDeleteID == id {
		c.state.PendingDeleteID = ""
	}
	snap := c.state
	c.mu.Unlock()
	c.notify(snap)

	return err
}
