package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fwojciec/citydir"
	"github.com/fwojciec/citydir/etree"
	"github.com/fwojciec/citydir/goquery"
)

// Run executes the import command. Each row goes through the same
// validation as the entry form; invalid rows are reported and skipped.
func (c *ImportCmd) Run(deps *Dependencies) error {
	content, err := c.read(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", citydir.ErrorMessage(err))
		return err
	}

	entries, err := c.parse(content)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", citydir.ErrorMessage(err))
		return err
	}

	var imported, skipped int
	for i, e := range entries {
		d := citydir.NewDraft(e)
		if d.Category == "" {
			d.Category = c.Category
		}
		entry, err := d.Validate()
		if err == nil && !c.DryRun {
			err = deps.Entries.CreateEntry(deps.Ctx, entry)
		}
		if err != nil {
			if citydir.ErrorCode(err) != citydir.EINVALID {
				fmt.Fprintf(deps.Stderr, "error: %s\n", citydir.ErrorMessage(err))
				return err
			}
			skipped++
			for _, f := range citydir.ErrorFields(err) {
				fmt.Fprintf(deps.Stderr, "row %d: %s: %s\n", i+1, f.Field, f.Message)
			}
			continue
		}
		imported++
	}

	verb := "Imported"
	if c.DryRun {
		verb = "Validated"
	}
	fmt.Fprintf(deps.Stdout, "%s %d entries, skipped %d\n", verb, imported, skipped)
	return nil
}

func (c *ImportCmd) read(deps *Dependencies) (string, error) {
	if strings.HasPrefix(c.Source, "http://") || strings.HasPrefix(c.Source, "https://") {
		return deps.Fetcher.Fetch(deps.Ctx, c.Source)
	}
	b, err := os.ReadFile(c.Source)
	if err != nil {
		return "", citydir.Errorf(citydir.EINVALID, "cannot read %s: %v", c.Source, err)
	}
	return string(b), nil
}

func (c *ImportCmd) parse(content string) ([]*citydir.Entry, error) {
	format := c.Format
	if format == "auto" {
		format = "html"
		head := strings.TrimSpace(content)
		if strings.HasSuffix(strings.ToLower(c.Source), ".xml") ||
			strings.HasPrefix(head, "<?xml") || strings.HasPrefix(head, "<directory") {
			format = "xml"
		}
	}

	if format == "xml" {
		return etree.ReadEntries(strings.NewReader(content))
	}
	return goquery.ParseEntries(content, c.Category)
}
