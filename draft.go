package citydir

import (
	"net/url"
	"regexp"
	"strings"
)

// emailRe accepts exactly one "@", at least one "." after it and no whitespace.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Draft holds the raw field values of the entry form before validation.
type Draft struct {
	Category         string
	SubCategory      string
	LastName         string
	FirstName        string
	OrganizationName string
	Address          string
	PostalCode       string
	City             string
	Phone            string
	Mobile           string
	Email            string
	Website          string
}

// NewDraft returns a draft pre-filled from an existing entry.
func NewDraft(e *Entry) Draft {
	return Draft{
		Category:         e.Category,
		SubCategory:      e.SubCategory,
		LastName:         e.LastName,
		FirstName:        e.FirstName,
		OrganizationName: e.OrganizationName,
		Address:          e.Address,
		PostalCode:       e.PostalCode,
		City:             e.City,
		Phone:            e.Phone,
		Mobile:           e.Mobile,
		Email:            e.Email,
		Website:          e.Website,
	}
}

// Validate trims every field and checks the category, email and website.
// On success it returns the entry to submit, with the website
// scheme-qualified. On failure it returns an EINVALID error listing every
// failing field.
func (d Draft) Validate() (*Entry, error) {
	e := &Entry{
		Category:         strings.TrimSpace(d.Category),
		SubCategory:      strings.TrimSpace(d.SubCategory),
		LastName:         strings.TrimSpace(d.LastName),
		FirstName:        strings.TrimSpace(d.FirstName),
		OrganizationName: strings.TrimSpace(d.OrganizationName),
		Address:          strings.TrimSpace(d.Address),
		PostalCode:       strings.TrimSpace(d.PostalCode),
		City:             strings.TrimSpace(d.City),
		Phone:            strings.TrimSpace(d.Phone),
		Mobile:           strings.TrimSpace(d.Mobile),
		Email:            strings.TrimSpace(d.Email),
		Website:          strings.TrimSpace(d.Website),
	}

	var fields []FieldError
	if e.Category == "" {
		fields = append(fields, FieldError{Field: "category", Message: "category required"})
	}
	if e.Email != "" && !emailRe.MatchString(e.Email) {
		fields = append(fields, FieldError{Field: "email", Message: "invalid email address"})
	}
	if e.Website != "" {
		website, ok := NormalizeWebsite(e.Website)
		if !ok {
			fields = append(fields, FieldError{Field: "website", Message: "invalid website URL"})
		}
		e.Website = website
	}

	if len(fields) > 0 {
		return nil, ValidationError(fields)
	}
	return e, nil
}

// NormalizeWebsite prefixes "https://" when s has no scheme and reports
// whether the result parses as an absolute URL with a host.
func NormalizeWebsite(s string) (string, bool) {
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() || u.Host == "" || strings.ContainsAny(s, " \t\n") {
		return s, false
	}
	return s, true
}
