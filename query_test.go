package citydir_test

import (
	"math"
	"net/url"
	"testing"

	"github.com/fwojciec/citydir"
	"github.com/stretchr/testify/assert"
)

func TestParseQuery(t *testing.T) {
	t.Parallel()

	t.Run("returns defaults for empty params", func(t *testing.T) {
		t.Parallel()

		q := citydir.ParseQuery(url.Values{})

		assert.Equal(t, citydir.DefaultQuery(), q)
		assert.Equal(t, 1, q.Page)
		assert.Equal(t, 10, q.PageSize)
		assert.Equal(t, citydir.SortByOrganizationName, q.Sort.Field)
		assert.Equal(t, citydir.SortAscending, q.Sort.Direction)
	})

	t.Run("falls back to page 1 for invalid pages", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"0", "-3", "abc", "", "1.5", " "} {
			q := citydir.ParseQuery(url.Values{"page": {raw}})
			assert.Equal(t, 1, q.Page, "page=%q", raw)
		}
	})

	t.Run("falls back to default page size for invalid sizes", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"0", "-1", "ten"} {
			q := citydir.ParseQuery(url.Values{"pageSize": {raw}})
			assert.Equal(t, 10, q.PageSize, "pageSize=%q", raw)
		}
	})

	t.Run("does not cap large page sizes", func(t *testing.T) {
		t.Parallel()

		q := citydir.ParseQuery(url.Values{"pageSize": {"5000"}})

		assert.Equal(t, 5000, q.PageSize)
	})

	t.Run("parses page and trims filters", func(t *testing.T) {
		t.Parallel()

		q := citydir.ParseQuery(url.Values{
			"page":        {"3"},
			"pageSize":    {"25"},
			"search":      {"  boulangerie "},
			"category":    {" Commerces"},
			"subCategory": {"pain "},
		})

		assert.Equal(t, 3, q.Page)
		assert.Equal(t, 25, q.PageSize)
		assert.Equal(t, "boulangerie", q.Search)
		assert.Equal(t, "Commerces", q.Category)
		assert.Equal(t, "pain", q.SubCategory)
	})

	t.Run("treats whitespace-only filters as absent", func(t *testing.T) {
		t.Parallel()

		q := citydir.ParseQuery(url.Values{"search": {"   "}, "category": {"\t"}})

		assert.Empty(t, q.Search)
		assert.Empty(t, q.Category)
	})
}

func TestParseSort(t *testing.T) {
	t.Parallel()

	t.Run("leading minus selects descending order", func(t *testing.T) {
		t.Parallel()

		s := citydir.ParseSort("-createdAt")

		assert.Equal(t, citydir.Sort{Field: citydir.SortByCreatedAt, Direction: citydir.SortDescending}, s)
	})

	t.Run("no sign selects ascending order", func(t *testing.T) {
		t.Parallel()

		s := citydir.ParseSort("city")

		assert.Equal(t, citydir.Sort{Field: citydir.SortByCity, Direction: citydir.SortAscending}, s)
	})

	t.Run("unknown fields resolve to the default sort", func(t *testing.T) {
		t.Parallel()

		def := citydir.Sort{Field: citydir.DefaultSortField, Direction: citydir.SortAscending}
		for _, token := range []string{"", "-", "password", "-id", "name; DROP TABLE entries", "--city", "City"} {
			assert.Equal(t, def, citydir.ParseSort(token), "sort=%q", token)
		}
	})

	t.Run("every allow-listed field is accepted", func(t *testing.T) {
		t.Parallel()

		fields := []string{
			"category", "subCategory", "lastName", "firstName", "organizationName", "address",
			"postalCode", "city", "phone", "mobile", "email", "website", "createdAt",
		}
		for _, f := range fields {
			assert.Equal(t, citydir.SortField(f), citydir.ParseSort(f).Field)
			assert.Equal(t, citydir.SortDescending, citydir.ParseSort("-"+f).Direction)
		}
	})
}

func TestSort_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "-createdAt", citydir.ParseSort("-createdAt").String())
	assert.Equal(t, "city", citydir.ParseSort("city").String())
}

func TestQuery_Values(t *testing.T) {
	t.Parallel()

	t.Run("omits defaults", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, citydir.DefaultQuery().Values())
	})

	t.Run("parses back to the same query", func(t *testing.T) {
		t.Parallel()

		q := citydir.Query{
			Page:        2,
			PageSize:    50,
			Sort:        citydir.Sort{Field: citydir.SortByCity, Direction: citydir.SortDescending},
			Search:      "école",
			Category:    "Éducation",
			SubCategory: "primaire",
		}

		assert.Equal(t, q, citydir.ParseQuery(q.Values()))
	})
}

func TestQuery_Normalize(t *testing.T) {
	t.Parallel()

	q := citydir.Query{Page: -1, PageSize: 0, Sort: citydir.Sort{Field: "bogus"}, Search: " x "}.Normalize()

	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.PageSize)
	assert.Equal(t, citydir.DefaultSortField, q.Sort.Field)
	assert.Equal(t, citydir.SortAscending, q.Sort.Direction)
	assert.Equal(t, "x", q.Search)
}

func TestTotalPages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, citydir.TotalPages(0, 10))
	assert.Equal(t, 1, citydir.TotalPages(1, 10))
	assert.Equal(t, 1, citydir.TotalPages(10, 10))
	assert.Equal(t, 2, citydir.TotalPages(11, 10))
	assert.Equal(t, 3, citydir.TotalPages(25, 10))
	assert.Equal(t, 0, citydir.TotalPages(25, 0))
	assert.Equal(t, 1, citydir.TotalPages(2, math.MaxInt))
	assert.Equal(t, 2, citydir.TotalPages(math.MaxInt, math.MaxInt-1))
}

func TestQuery_Offset(t *testing.T) {
	t.Parallel()

	t.Run("skips whole pages", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, 0, citydir.Query{Page: 1, PageSize: 10}.Offset())
		assert.Equal(t, 20, citydir.Query{Page: 3, PageSize: 10}.Offset())
	})

	t.Run("saturates instead of wrapping", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, math.MaxInt, citydir.Query{Page: 4611686018427387905, PageSize: 2}.Offset())
		assert.Equal(t, math.MaxInt, citydir.Query{Page: 2, PageSize: math.MaxInt}.Offset())
	})
}

func TestNewResultPage(t *testing.T) {
	t.Parallel()

	t.Run("never returns nil items", func(t *testing.T) {
		t.Parallel()

		p := citydir.NewResultPage(nil, 0, 1, 10)

		assert.NotNil(t, p.Items)
		assert.Empty(t, p.Items)
		assert.Equal(t, 0, p.TotalPages)
	})

	t.Run("finds items by id", func(t *testing.T) {
		t.Parallel()

		p := citydir.NewResultPage([]*citydir.Entry{{ID: "a"}, {ID: "b"}}, 2, 1, 10)

		assert.Equal(t, 1, p.Index("b"))
		assert.Equal(t, -1, p.Index("c"))
	})
}
