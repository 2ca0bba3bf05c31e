// Package goquery reads directory entries out of HTML documents using
// github.com/PuerkitoBio/goquery.
package goquery

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/citydir"
)

// headerFields maps normalized column headers to entry field names. Both
// the API field names and the labels of the legacy French directory pages
// are recognized.
var headerFields = map[string]string{
	"category":         "category",
	"categorie":        "category",
	"catégorie":        "category",
	"rubrique":         "category",
	"subcategory":      "subCategory",
	"souscategorie":    "subCategory",
	"souscatégorie":    "subCategory",
	"lastname":         "lastName",
	"nom":              "lastName",
	"firstname":        "firstName",
	"prenom":           "firstName",
	"prénom":           "firstName",
	"organizationname": "organizationName",
	"organization":     "organizationName",
	"organisation":     "organizationName",
	"denomination":     "organizationName",
	"dénomination":     "organizationName",
	"raisonsociale":    "organizationName",
	"address":          "address",
	"adresse":          "address",
	"postalcode":       "postalCode",
	"codepostal":       "postalCode",
	"cp":               "postalCode",
	"city":             "city",
	"ville":            "city",
	"commune":          "city",
	"phone":            "phone",
	"telephone":        "phone",
	"téléphone":        "phone",
	"tel":              "phone",
	"tél":              "phone",
	"mobile":           "mobile",
	"portable":         "mobile",
	"email":            "email",
	"mail":             "email",
	"courriel":         "email",
	"website":          "website",
	"siteweb":          "website",
	"site":             "website",
	"url":              "website",
}

// ParseEntries extracts entries from the first table in html whose header
// row names at least one known field. Unknown columns are ignored, blank
// rows are skipped, and rows without a category get defaultCategory.
// Values are trimmed but not validated.
func ParseEntries(html string, defaultCategory string) ([]*citydir.Entry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, citydir.Errorf(citydir.EINVALID, "failed to parse HTML: %v", err)
	}

	var entries []*citydir.Entry
	found := false

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		columns, ok := headerColumns(rows.First())
		if !ok {
			return true
		}
		found = true

		rows.Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
			if entry := parseRow(row, columns, defaultCategory); entry != nil {
				entries = append(entries, entry)
			}
		})
		return false
	})

	if !found {
		return nil, citydir.Errorf(citydir.EINVALID, "no directory table found")
	}
	if entries == nil {
		entries = []*citydir.Entry{}
	}
	return entries, nil
}

// headerColumns maps each cell of the header row to a field name, or ""
// for unknown columns. It reports whether any column is known.
func headerColumns(row *goquery.Selection) ([]string, bool) {
	cells := row.Find("th, td")
	columns := make([]string, cells.Length())
	known := false
	cells.Each(func(i int, cell *goquery.Selection) {
		columns[i] = headerFields[normalizeHeader(cell.Text())]
		if columns[i] != "" {
			known = true
		}
	})
	return columns, known
}

func parseRow(row *goquery.Selection, columns []string, defaultCategory string) *citydir.Entry {
	entry := &citydir.Entry{}
	blank := true

	row.Find("td, th").Each(func(i int, cell *goquery.Selection) {
		if i >= len(columns) || columns[i] == "" {
			return
		}
		value := cellValue(cell, columns[i])
		if value == "" {
			return
		}
		blank = false
		entry.Set(columns[i], value)
	})

	if blank {
		return nil
	}
	if entry.Category == "" {
		entry.Category = defaultCategory
	}
	return entry
}

// cellValue returns the trimmed text of cell. Links are preferred for
// email and website columns, which often show a label instead of the
// address.
func cellValue(cell *goquery.Selection, field string) string {
	if field == "email" || field == "website" {
		if href, ok := cell.Find("a[href]").First().Attr("href"); ok {
			href = strings.TrimSpace(href)
			if field == "email" {
				if addr, ok := strings.CutPrefix(href, "mailto:"); ok {
					return addr
				}
			} else if !strings.HasPrefix(href, "#") && !strings.HasPrefix(href, "mailto:") {
				return href
			}
		}
	}
	return strings.Join(strings.Fields(cell.Text()), " ")
}

// normalizeHeader lowercases s and drops everything but letters and digits.
func normalizeHeader(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}
