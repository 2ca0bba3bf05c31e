package citydir

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Query defaults.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// SortField names an entry field that listings can be ordered by.
type SortField string

// SortField constants. Values are the JSON field names of Entry.
const (
	SortByCategory         SortField = "category"
	SortBySubCategory      SortField = "subCategory"
	SortByLastName         SortField = "lastName"
	SortByFirstName        SortField = "firstName"
	SortByOrganizationName SortField = "organizationName"
	SortByAddress          SortField = "address"
	SortByPostalCode       SortField = "postalCode"
	SortByCity             SortField = "city"
	SortByPhone            SortField = "phone"
	SortByMobile           SortField = "mobile"
	SortByEmail            SortField = "email"
	SortByWebsite          SortField = "website"
	SortByCreatedAt        SortField = "createdAt"
)

// DefaultSortField is used whenever the requested sort field is absent or
// not in the allow-list.
const DefaultSortField = SortByOrganizationName

// sortFields is the sort allow-list. It is never modified after init.
var sortFields = map[SortField]struct{}{
	SortByCategory:         {},
	SortBySubCategory:      {},
	SortByLastName:         {},
	SortByFirstName:        {},
	SortByOrganizationName: {},
	SortByAddress:          {},
	SortByPostalCode:       {},
	SortByCity:             {},
	SortByPhone:            {},
	SortByMobile:           {},
	SortByEmail:            {},
	SortByWebsite:          {},
	SortByCreatedAt:        {},
}

// Valid reports whether f is in the sort allow-list.
func (f SortField) Valid() bool {
	_, ok := sortFields[f]
	return ok
}

// SortDirection represents ordering direction for a sort field.
type SortDirection string

// SortDirection constants.
const (
	SortAscending  SortDirection = "ascending"
	SortDescending SortDirection = "descending"
)

// Sort captures the ordering of a listing.
type Sort struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

// ParseSort converts a raw sort token such as "-createdAt" into a Sort.
// A leading "-" selects descending order. Unknown or empty fields resolve
// to DefaultSortField ascending.
func ParseSort(token string) Sort {
	token = strings.TrimSpace(token)
	dir := SortAscending
	if strings.HasPrefix(token, "-") {
		dir = SortDescending
		token = token[1:]
	}
	field := SortField(token)
	if !field.Valid() {
		return Sort{Field: DefaultSortField, Direction: SortAscending}
	}
	return Sort{Field: field, Direction: dir}
}

// String returns the raw token form of the sort, e.g. "-createdAt".
func (s Sort) String() string {
	if s.Direction == SortDescending {
		return "-" + string(s.Field)
	}
	return string(s.Field)
}

// SearchFields lists the fields matched by the free-text filter.
var SearchFields = []SortField{
	SortByOrganizationName,
	SortByLastName,
	SortByFirstName,
	SortByCategory,
	SortBySubCategory,
	SortByCity,
}

// Query is the validated, fully defaulted form of a directory listing
// request. Empty filter strings mean the filter is absent.
type Query struct {
	Page        int    `json:"page"`
	PageSize    int    `json:"pageSize"`
	Sort        Sort   `json:"sort"`
	Search      string `json:"search"`
	Category    string `json:"category"`
	SubCategory string `json:"subCategory"`
}

// DefaultQuery returns the query used when no parameters are given.
func DefaultQuery() Query {
	return Query{
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
		Sort:     Sort{Field: DefaultSortField, Direction: SortAscending},
	}
}

// ParseQuery normalizes untrusted request parameters into a Query.
// It never fails: malformed or missing values fall back to defaults.
func ParseQuery(raw url.Values) Query {
	q := DefaultQuery()
	q.Page = parsePositive(raw.Get("page"), DefaultPage)
	q.PageSize = parsePositive(raw.Get("pageSize"), DefaultPageSize)
	q.Sort = ParseSort(raw.Get("sort"))
	q.Search = strings.TrimSpace(raw.Get("search"))
	q.Category = strings.TrimSpace(raw.Get("category"))
	q.SubCategory = strings.TrimSpace(raw.Get("subCategory"))
	return q
}

// Normalize returns q with every out-of-range value replaced by its default.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if !q.Sort.Field.Valid() {
		q.Sort = Sort{Field: DefaultSortField, Direction: SortAscending}
	} else if q.Sort.Direction != SortDescending {
		q.Sort.Direction = SortAscending
	}
	q.Search = strings.TrimSpace(q.Search)
	q.Category = strings.TrimSpace(q.Category)
	q.SubCategory = strings.TrimSpace(q.SubCategory)
	return q
}

// Values encodes q as request parameters. Default values are omitted.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Page != DefaultPage {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize != DefaultPageSize {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Sort != (Sort{Field: DefaultSortField, Direction: SortAscending}) {
		v.Set("sort", q.Sort.String())
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.SubCategory != "" {
		v.Set("subCategory", q.SubCategory)
	}
	return v
}

// Offset returns the number of rows skipped before the query's page. It
// saturates at math.MaxInt instead of wrapping for very large pages.
func (q Query) Offset() int {
	if q.Page < 2 || q.PageSize < 1 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.PageSize {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PageSize
}

func parsePositive(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// ResultPage is one page of a directory listing.
type ResultPage struct {
	Items      []*Entry `json:"items"`
	TotalItems int      `json:"totalItems"`
	TotalPages int      `json:"totalPages"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
}

// NewResultPage builds a page envelope, deriving TotalPages from the total
// item count. Items is never nil.
func NewResultPage(items []*Entry, totalItems, page, pageSize int) *ResultPage {
	if items == nil {
		items = []*Entry{}
	}
	return &ResultPage{
		Items:      items,
		TotalItems: totalItems,
		TotalPages: TotalPages(totalItems, pageSize),
		Page:       page,
		PageSize:   pageSize,
	}
}

// TotalPages returns ceil(totalItems / pageSize), or 0 when pageSize < 1.
func TotalPages(totalItems, pageSize int) int {
	if pageSize < 1 || totalItems < 1 {
		return 0
	}
	n := totalItems / pageSize
	if totalItems%pageSize != 0 {
		n++
	}
	return n
}

// Index returns the position of the entry with the given ID, or -1.
func (p *ResultPage) Index(id string) int {
	for i, e := range p.Items {
		if e.ID == id {
			return i
		}
	}
	return -1
}
