package main

import (
	"fmt"

	"github.com/fwojciec/citydir"
	"github.com/fwojciec/citydir/listview"
)

// Run executes the delete command. --force is the confirmation step.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	ctrl := listview.NewController(deps.Entries)
	ctrl.RequestDelete(c.ID)

	if !c.Force {
		ctrl.CancelDelete()
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return citydir.Errorf(citydir.EINVALID, "use --force to confirm deletion")
	}

	if err := ctrl.ConfirmDelete(deps.Ctx); err != nil {
		if citydir.ErrorCode(err) == citydir.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: entry %q not found. Use 'citydir list' to see entries.\n", c.ID)
			return err
		}
		printError(deps.Stderr, err)
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted entry %s\n", c.ID)
	return nil
}
