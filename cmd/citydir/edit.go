package main

import (
	"fmt"
	"slices"

	"github.com/fwojciec/citydir"
	"github.com/fwojciec/citydir/listview"
)

// Run executes the edit command.
func (c *EditCmd) Run(deps *Dependencies) error {
	if len(c.Set) == 0 {
		fmt.Fprintf(deps.Stderr, "error: nothing to change, use --set field=value\n")
		return citydir.Errorf(citydir.EINVALID, "nothing to change")
	}

	// Apply changes in a stable order so errors are reported predictably.
	keys := make([]string, 0, len(c.Set))
	for k := range c.Set {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	ctrl := listview.NewController(deps.Entries)
	if _, err := ctrl.OpenEdit(deps.Ctx, c.ID); err != nil {
		printError(deps.Stderr, err)
		return err
	}

	entry := *ctrl.State().Editing
	for _, k := range keys {
		if !entry.Set(k, c.Set[k]) {
			fmt.Fprintf(deps.Stderr, "error: unknown field %q\n", k)
			return citydir.Errorf(citydir.EINVALID, "unknown field %q", k)
		}
	}

	updated, err := ctrl.Submit(deps.Ctx, citydir.NewDraft(&entry))
	if err != nil {
		printError(deps.Stderr, err)
		return err
	}

	fmt.Fprintf(deps.Stdout, "Updated entry %q (%s)\n", displayName(updated), updated.ID)
	return nil
}
