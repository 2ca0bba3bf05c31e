// Package etree reads and writes the XML open-data export of the directory
// using github.com/beevik/etree.
package etree

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/fwojciec/citydir"
)

// WriteEntries writes entries as a <directory> document. Empty fields are
// omitted; timestamps are RFC 3339 in UTC.
func WriteEntries(w io.Writer, entries []*citydir.Entry, generated time.Time) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("directory")
	root.CreateAttr("generated", generated.UTC().Format(time.RFC3339))
	root.CreateAttr("count", strconv.Itoa(len(entries)))

	for _, e := range entries {
		el := root.CreateElement("entry")
		if e.ID != "" {
			el.CreateAttr("id", e.ID)
		}
		if !e.CreatedAt.IsZero() {
			el.CreateAttr("created", e.CreatedAt.UTC().Format(time.RFC3339Nano))
		}
		if !e.UpdatedAt.IsZero() {
			el.CreateAttr("updated", e.UpdatedAt.UTC().Format(time.RFC3339Nano))
		}
		for _, field := range citydir.EntryFields {
			if v := e.Value(field); v != "" {
				el.CreateElement(field).SetText(v)
			}
		}
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}

// ReadEntries parses a document written by WriteEntries. Unknown child
// elements are ignored.
func ReadEntries(r io.Reader) ([]*citydir.Entry, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, citydir.Errorf(citydir.EINVALID, "parsing directory XML: %v", err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "directory" {
		return nil, citydir.Errorf(citydir.EINVALID, "not a directory export")
	}

	entries := []*citydir.Entry{}
	for _, el := range root.SelectElements("entry") {
		e := &citydir.Entry{ID: el.SelectAttrValue("id", "")}

		var err error
		if e.CreatedAt, err = parseAttrTime(el, "created"); err != nil {
			return nil, err
		}
		if e.UpdatedAt, err = parseAttrTime(el, "updated"); err != nil {
			return nil, err
		}

		for _, child := range el.ChildElements() {
			e.Set(child.Tag, strings.TrimSpace(child.Text()))
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseAttrTime(el *etree.Element, name string) (time.Time, error) {
	v := el.SelectAttrValue(name, "")
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, citydir.Errorf(citydir.EINVALID, "invalid %s time %q", name, v)
	}
	return t, nil
}
