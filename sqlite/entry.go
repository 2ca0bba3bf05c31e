package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/fwojciec/citydir"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ citydir.EntryService = (*EntryService)(nil)

// entryColumns lists the selected columns in scan order.
const entryColumns = `id, category, sub_category, last_name, first_name, organization_name,
	address, postal_code, city, phone, mobile, email, website, created_at, updated_at`

// sortColumns maps each allow-listed sort field to its column. Only these
// fixed strings are ever written into ORDER BY.
var sortColumns = map[citydir.SortField]string{
	citydir.SortByCategory:         "category",
	citydir.SortBySubCategory:      "sub_category",
	citydir.SortByLastName:         "last_name",
	citydir.SortByFirstName:        "first_name",
	citydir.SortByOrganizationName: "organization_name",
	citydir.SortByAddress:          "address",
	citydir.SortByPostalCode:       "postal_code",
	citydir.SortByCity:             "city",
	citydir.SortByPhone:            "phone",
	citydir.SortByMobile:           "mobile",
	citydir.SortByEmail:            "email",
	citydir.SortByWebsite:          "website",
	citydir.SortByCreatedAt:        "created_at",
}

// EntryService implements citydir.EntryService using SQLite.
type EntryService struct {
	db *DB

	// MaxPageSize clamps the page size of FindEntries. Zero means no limit.
	MaxPageSize int
}

// NewEntryService creates a new EntryService.
func NewEntryService(db *DB) *EntryService {
	return &EntryService{db: db}
}

// FindEntries returns one page of entries matching q.
func (s *EntryService) FindEntries(ctx context.Context, q citydir.Query) (*citydir.ResultPage, error) {
	q = q.Normalize()
	if s.MaxPageSize > 0 && q.PageSize > s.MaxPageSize {
		q.PageSize = s.MaxPageSize
	}

	where, args := entryWhere(q)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries"+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	// Past the last page there is nothing to read, and the offset of a huge
	// page number would not fit in an int.
	if q.Page > citydir.TotalPages(total, q.PageSize) {
		return citydir.NewResultPage(nil, total, q.Page, q.PageSize), nil
	}

	var query strings.Builder
	query.WriteString("SELECT " + entryColumns + " FROM entries")
	query.WriteString(where)
	query.WriteString(entryOrderBy(q.Sort))
	appendPagination(&query, &args, q.PageSize, q.Offset())

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*citydir.Entry, 0, min(q.PageSize, total-q.Offset()))
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return citydir.NewResultPage(items, total, q.Page, q.PageSize), nil
}

// entryWhere composes the filter clauses of q. Each present clause is
// ANDed; with no clauses the result is empty and matches every entry.
func entryWhere(q citydir.Query) (string, []any) {
	var clauses []string
	var args []any

	if q.Search != "" {
		pattern := containsPattern(q.Search)
		ors := make([]string, 0, len(citydir.SearchFields))
		for _, f := range citydir.SearchFields {
			ors = append(ors, sortColumns[f]+` LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}
	if q.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, q.Category)
	}
	if q.SubCategory != "" {
		clauses = append(clauses, `sub_category LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(q.SubCategory))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// entryOrderBy returns the ORDER BY clause for sort. Ties are broken by
// insertion order in the same direction so pages are stable.
func entryOrderBy(sort citydir.Sort) string {
	col, ok := sortColumns[sort.Field]
	if !ok {
		col = sortColumns[citydir.DefaultSortField]
	}
	dir := "ASC"
	if sort.Direction == citydir.SortDescending {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir + ", rowid " + dir
}

// FindEntryByID retrieves an entry by ID.
func (s *EntryService) FindEntryByID(ctx context.Context, id string) (*citydir.Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM entries WHERE id = ?", id)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, citydir.Errorf(citydir.ENOTFOUND, "entry not found")
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// FindCategories returns the distinct categories in use, sorted.
func (s *EntryService) FindCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT category FROM entries ORDER BY category ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// CreateEntry creates a new entry.
func (s *EntryService) CreateEntry(ctx context.Context, entry *citydir.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	entry.ID = uuid.New().String()
	now := s.db.now()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Category, entry.SubCategory, entry.LastName, entry.FirstName,
		entry.OrganizationName, entry.Address, entry.PostalCode, entry.City, entry.Phone,
		entry.Mobile, entry.Email, entry.Website, formatTime(entry.CreatedAt), formatTime(entry.UpdatedAt))

	return err
}

// UpdateEntry applies a partial update to an existing entry.
func (s *EntryService) UpdateEntry(ctx context.Context, id string, upd citydir.EntryUpdate) (*citydir.Entry, error) {
	entry, err := s.FindEntryByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entry.Apply(upd)

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	entry.UpdatedAt = s.db.now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE entries
		SET category = ?, sub_category = ?, last_name = ?, first_name = ?, organization_name = ?,
			address = ?, postal_code = ?, city = ?, phone = ?, mobile = ?, email = ?, website = ?,
			updated_at = ?
		WHERE id = ?
	`, entry.Category, entry.SubCategory, entry.LastName, entry.FirstName, entry.OrganizationName,
		entry.Address, entry.PostalCode, entry.City, entry.Phone, entry.Mobile, entry.Email,
		entry.Website, formatTime(entry.UpdatedAt), id)
	if err != nil {
		return nil, err
	}

	// The entry may have been deleted between the read and the write.
	if n, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, citydir.Errorf(citydir.ENOTFOUND, "entry not found")
	}

	return entry, nil
}

// DeleteEntry permanently removes an entry.
func (s *EntryService) DeleteEntry(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return citydir.Errorf(citydir.ENOTFOUND, "entry not found")
	}

	return nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*citydir.Entry, error) {
	var e citydir.Entry
	var createdAt, updatedAt string

	if err := row.Scan(&e.ID, &e.Category, &e.SubCategory, &e.LastName, &e.FirstName,
		&e.OrganizationName, &e.Address, &e.PostalCode, &e.City, &e.Phone, &e.Mobile,
		&e.Email, &e.Website, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if e.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &e, nil
}
