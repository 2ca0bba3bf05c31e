package main

import (
	"fmt"

	"github.com/fwojciec/citydir"
	"github.com/fwojciec/citydir/etree"
	"github.com/fwojciec/citydir/fs"
)

// Run executes the export command. Entries are fetched page by page in
// creation order.
func (c *ExportCmd) Run(deps *Dependencies) error {
	entries, err := c.collect(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", citydir.ErrorMessage(err))
		return err
	}

	if c.Output == "-" {
		if err := etree.WriteEntries(deps.Stdout, entries, deps.Now()); err != nil {
			fmt.Fprintf(deps.Stderr, "error: writing export: %v\n", err)
			return err
		}
		return nil
	}

	f, err := fs.CreateAtomic(c.Output)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: cannot create %s: %v\n", c.Output, err)
		return err
	}
	defer f.Abort()

	if err := etree.WriteEntries(f, entries, deps.Now()); err != nil {
		fmt.Fprintf(deps.Stderr, "error: writing export: %v\n", err)
		return err
	}
	if err := f.Commit(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: saving %s: %v\n", c.Output, err)
		return err
	}

	fmt.Fprintf(deps.Stderr, "Exported %d entries to %s\n", len(entries), c.Output)
	return nil
}

func (c *ExportCmd) collect(deps *Dependencies) ([]*citydir.Entry, error) {
	q := citydir.DefaultQuery()
	q.PageSize = c.PageSize
	q.Sort = citydir.Sort{Field: citydir.SortByCreatedAt, Direction: citydir.SortAscending}
	q.Category = c.Category
	q = q.Normalize()

	entries := []*citydir.Entry{}
	for {
		page, err := deps.Entries.FindEntries(deps.Ctx, q)
		if err != nil {
			return nil, err
		}
		entries = append(entries, page.Items...)
		if page.Page >= page.TotalPages || len(page.Items) == 0 {
			return entries, nil
		}
		// The store may clamp the page size; continue with the effective one.
		q.PageSize = page.PageSize
		q.Page = page.Page + 1
	}
}
