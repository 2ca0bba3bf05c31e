package main

import (
	"fmt"
	"io"

	"github.com/fwojciec/citydir"
	"github.com/fwojciec/citydir/listview"
)

// Run executes the add command.
func (c *AddCmd) Run(deps *Dependencies) error {
	ctrl := listview.NewController(deps.Entries)

	d := ctrl.OpenCreate()
	d.Category = c.Category
	d.SubCategory = c.SubCategory
	d.LastName = c.LastName
	d.FirstName = c.FirstName
	d.OrganizationName = c.OrganizationName
	d.Address = c.Address
	d.PostalCode = c.PostalCode
	d.City = c.City
	d.Phone = c.Phone
	d.Mobile = c.Mobile
	d.Email = c.Email
	d.Website = c.Website

	entry, err := ctrl.Submit(deps.Ctx, d)
	if err != nil {
		printError(deps.Stderr, err)
		return err
	}

	fmt.Fprintf(deps.Stdout, "Added entry %q (%s)\n", displayName(entry), entry.ID)
	return nil
}

// printError writes err to w, one line per failing field for validation
// errors.
func printError(w io.Writer, err error) {
	fields := citydir.ErrorFields(err)
	if len(fields) == 0 {
		fmt.Fprintf(w, "error: %s\n", citydir.ErrorMessage(err))
		return
	}
	for _, f := range fields {
		fmt.Fprintf(w, "error: %s: %s\n", f.Field, f.Message)
	}
}
