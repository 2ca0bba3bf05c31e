package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fwojciec/citydir"
	"github.com/fwojciec/citydir/listview"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	q := citydir.Query{
		Page:        c.Page,
		PageSize:    c.PageSize,
		Sort:        citydir.ParseSort(c.Sort),
		Search:      c.Search,
		Category:    c.Category,
		SubCategory: c.SubCategory,
	}
	ctrl := listview.NewController(deps.Entries, listview.WithQuery(q))

	if err := ctrl.Load(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", citydir.ErrorMessage(err))
		return err
	}

	state := ctrl.State()
	page := state.Page
	if page.TotalItems == 0 {
		fmt.Fprintln(deps.Stdout, "No entries found. Use 'citydir add' to create one.")
		return nil
	}
	if state.Query.Page != q.Normalize().Page {
		fmt.Fprintf(deps.Stderr, "Page %d is past the end, showing page %d\n", q.Page, state.Query.Page)
	}

	w := tabwriter.NewWriter(deps.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tCITY\tPHONE\tEMAIL")
	for _, e := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", e.ID, displayName(e), displayCategory(e), e.City, e.Phone, e.Email)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "\nPage %d of %d (%d entries)\n", page.Page, page.TotalPages, page.TotalItems)
	return nil
}

// displayName prefers the organization name, then the contact's name.
func displayName(e *citydir.Entry) string {
	if e.OrganizationName != "" {
		return e.OrganizationName
	}
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

func displayCategory(e *citydir.Entry) string {
	if e.SubCategory != "" {
		return e.Category + " / " + e.SubCategory
	}
	return e.Category
}

// Run executes the categories command.
func (c *CategoriesCmd) Run(deps *Dependencies) error {
	categories, err := deps.Entries.FindCategories(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", citydir.ErrorMessage(err))
		return err
	}

	for _, category := range categories {
		fmt.Fprintln(deps.Stdout, category)
	}
	return nil
}
