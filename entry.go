package citydir

import (
	"context"
	"strings"
	"time"
)

// Entry represents one row of the directory: a business, association or
// public service listed with its category and contact details.
type Entry struct {
	ID               string    `json:"id"`
	Category         string    `json:"category"`
	SubCategory      string    `json:"subCategory"`
	LastName         string    `json:"lastName"`
	FirstName        string    `json:"firstName"`
	OrganizationName string    `json:"organizationName"`
	Address          string    `json:"address"`
	PostalCode       string    `json:"postalCode"`
	City             string    `json:"city"`
	Phone            string    `json:"phone"`
	Mobile           string    `json:"mobile"`
	Email            string    `json:"email"`
	Website          string    `json:"website"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// EntryFields lists the editable fields of Entry in display order, by the
// names accepted by Value and Set.
var EntryFields = []string{
	"category",
	"subCategory",
	"lastName",
	"firstName",
	"organizationName",
	"address",
	"postalCode",
	"city",
	"phone",
	"mobile",
	"email",
	"website",
}

// Validate returns an error if the entry contains invalid fields.
// Only the category is required; every other field is free text.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.Category) == "" {
		return ValidationError([]FieldError{{Field: "category", Message: "category required"}})
	}
	return nil
}

// Value returns the value of the named field, or "" for unknown names.
// Names are the JSON field names used by the sort allow-list.
func (e *Entry) Value(field string) string {
	switch field {
	case "category":
		return e.Category
	case "subCategory":
		return e.SubCategory
	case "lastName":
		return e.LastName
	case "firstName":
		return e.FirstName
	case "organizationName":
		return e.OrganizationName
	case "address":
		return e.Address
	case "postalCode":
		return e.PostalCode
	case "city":
		return e.City
	case "phone":
		return e.Phone
	case "mobile":
		return e.Mobile
	case "email":
		return e.Email
	case "website":
		return e.Website
	case "createdAt":
		return e.CreatedAt.Format(time.RFC3339Nano)
	}
	return ""
}

// Set assigns value to the named editable field and reports whether the
// name is known. Names are the same as for Value; createdAt is read-only.
func (e *Entry) Set(field, value string) bool {
	var dst *string
	switch field {
	case "category":
		dst = &e.Category
	case "subCategory":
		dst = &e.SubCategory
	case "lastName":
		dst = &e.LastName
	case "firstName":
		dst = &e.FirstName
	case "organizationName":
		dst = &e.OrganizationName
	case "address":
		dst = &e.Address
	case "postalCode":
		dst = &e.PostalCode
	case "city":
		dst = &e.City
	case "phone":
		dst = &e.Phone
	case "mobile":
		dst = &e.Mobile
	case "email":
		dst = &e.Email
	case "website":
		dst = &e.Website
	default:
		return false
	}
	*dst = value
	return true
}

// Apply copies every non-nil field of upd onto the entry.
func (e *Entry) Apply(upd EntryUpdate) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&e.Category, upd.Category)
	set(&e.SubCategory, upd.SubCategory)
	set(&e.LastName, upd.LastName)
	set(&e.FirstName, upd.FirstName)
	set(&e.OrganizationName, upd.OrganizationName)
	set(&e.Address, upd.Address)
	set(&e.PostalCode, upd.PostalCode)
	set(&e.City, upd.City)
	set(&e.Phone, upd.Phone)
	set(&e.Mobile, upd.Mobile)
	set(&e.Email, upd.Email)
	set(&e.Website, upd.Website)
}

// EntryService represents a service for querying and managing directory entries.
type EntryService interface {
	// FindEntries returns one page of entries matching the query, along
	// with the total count across all pages.
	FindEntries(ctx context.Context, q Query) (*ResultPage, error)

	// FindEntryByID retrieves an entry by ID.
	// Returns ENOTFOUND if entry does not exist.
	FindEntryByID(ctx context.Context, id string) (*Entry, error)

	// FindCategories returns the distinct categories in use, sorted.
	FindCategories(ctx context.Context) ([]string, error)

	// CreateEntry creates a new entry. The ID and timestamps are assigned
	// by the store. Returns EINVALID with field errors on validation failure.
	CreateEntry(ctx context.Context, entry *Entry) error

	// UpdateEntry applies a partial update to an existing entry.
	// Returns ENOTFOUND if entry does not exist.
	UpdateEntry(ctx context.Context, id string, upd EntryUpdate) (*Entry, error)

	// DeleteEntry permanently removes an entry.
	// Returns ENOTFOUND if entry does not exist, including on a repeated delete.
	DeleteEntry(ctx context.Context, id string) error
}

// EntryUpdate represents fields that can be updated on an entry.
// A nil field is left untouched; a non-nil empty string clears the field.
type EntryUpdate struct {
	Category         *string `json:"category,omitempty"`
	SubCategory      *string `json:"subCategory,omitempty"`
	LastName         *string `json:"lastName,omitempty"`
	FirstName        *string `json:"firstName,omitempty"`
	OrganizationName *string `json:"organizationName,omitempty"`
	Address          *string `json:"address,omitempty"`
	PostalCode       *string `json:"postalCode,omitempty"`
	City             *string `json:"city,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	Mobile           *string `json:"mobile,omitempty"`
	Email            *string `json:"email,omitempty"`
	Website          *string `json:"website,omitempty"`
}

// NewEntryUpdate returns an update setting every editable field of e,
// empty strings included.
func NewEntryUpdate(e *Entry) EntryUpdate {
	str := func(s string) *string { return &s }
	return EntryUpdate{
		Category:         str(e.Category),
		SubCategory:      str(e.SubCategory),
		LastName:         str(e.LastName),
		FirstName:        str(e.FirstName),
		OrganizationName: str(e.OrganizationName),
		Address:          str(e.Address),
		PostalCode:       str(e.PostalCode),
		City:             str(e.City),
		Phone:            str(e.Phone),
		Mobile:           str(e.Mobile),
		Email:            str(e.Email),
		Website:          str(e.Website),
	}
}
