package listview_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/citydir"
	"github.com/fwojciec/citydir/listview"
	"github.com/fwojciec/citydir/mock"
	"github.com/fwojciec/citydir/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupStore returns a mock delegating to an in-memory store, and a
// counter of FindEntries calls.
func setupStore(t *testing.T) (*mock.EntryService, *atomic.Int32) {
	t.Helper()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	store := sqlite.NewEntryService(db)

	var finds atomic.Int32
	svc := &mock.EntryService{
		FindEntriesFn: func(ctx context.Context, q citydir.Query) (*citydir.ResultPage, error) {
			finds.Add(1)
			return store.FindEntries(ctx, q)
		},
		FindEntryByIDFn:  store.FindEntryByID,
		FindCategoriesFn: store.FindCategories,
		CreateEntryFn:    store.CreateEntry,
		UpdateEntryFn:    store.UpdateEntry,
		DeleteEntryFn:    store.DeleteEntry,
	}
	return svc, &finds
}

// seed creates one entry per organization name in category "Sport".
func seed(t *testing.T, svc citydir.EntryService, names ...string) []*citydir.Entry {
	t.Helper()
	entries := make([]*citydir.Entry, 0, len(names))
	for _, name := range names {
		e := &citydir.Entry{Category: "Sport", OrganizationName: name}
		require.NoError(t, svc.CreateEntry(context.Background(), e))
		entries = append(entries, e)
	}
	return entries
}

func names(page *citydir.ResultPage) []string {
	out := make([]string, 0, len(page.Items))
	for _, e := range page.Items {
		out = append(out, e.OrganizationName)
	}
	return out
}

func TestController_Load(t *testing.T) {
	t.Parallel()

	t.Run("moves through loading to loaded", func(t *testing.T) {
		t.Parallel()

		svc, _ := setupStore(t)
		seed(t, svc, "Beta", "Alpha")

		var statuses []listview.Status
		c := listview.NewController(svc, listview.WithObserver(func(s listview.State) {
			statuses = append(statuses, s.Status)
		}))
		assert.Equal(t, listview.Idle, c.State().Status)

		require.NoError(t, c.Load(context.Background()))

		state := c.State()
		assert.Equal(t, listview.Loaded, state.Status)
		assert.Equal(t, []string{"Alpha", "Beta"}, names(state.Page))
		assert.Equal(t, []listview.Status{listview.Loading, listview.Loaded}, statuses)
	})

	t.Run("keeps previous page on error", func(t *testing.T) {
		t.Parallel()

		fail := false
		svc := &mock.EntryService{
			FindEntriesFn: func(ctx context.Context, q citydir.Query) (*citydir.ResultPage, error) {
				if fail {
					return nil, citydir.Errorf(citydir.EUNAVAILABLE, "directory unavailable")
				}
				items := []*citydir.Entry{{ID: "e1", Category: "Sport"}}
				return citydir.NewResultPage(items, 1, q.Page, q.PageSize), nil
			},
		}
		c := listview.NewController(svc)
		require.NoError(t, c.Load(context.Background()))

		fail = true
		err := c.SetSearch(context.Background(), "pool")

		assert.Equal(t, citydir.EUNAVAILABLE, citydir.ErrorCode(err))
		state := c.State()
		assert.Equal(t, listview.Error, state.Status)
		assert.Equal(t, err, state.Err)
		require.NotNil(t, state.Page)
		assert.Equal(t, "e1", state.Page.Items[0].ID)
		assert.Equal(t, "pool", state.Query.Search)
	})
}

func TestController_QueryChanges(t *testing.T) {
	t.Parallel()

	capture := func() (*mock.EntryService, *[]citydir.Query) {
		var got []citydir.Query
		svc := &mock.EntryService{
			FindEntriesFn: func(ctx context.Context, q citydir.Query) (*citydir.ResultPage, error) {
				got = append(got, q)
				items := make([]*citydir.Entry, q.PageSize)
				for i := range items {
					items[i] = &citydir.Entry{ID: fmt.Sprint(i), Category: "Sport"}
				}
				return citydir.NewResultPage(items, 100, q.Page, q.PageSize), nil
			},
		}
		return svc, &got
	}

	t.Run("filter changes return to first page", func(t *testing.T) {
		t.Parallel()

		svc, got := capture()
		q := citydir.DefaultQuery()
		q.Page = 4
		c := listview.NewController(svc, listview.WithQuery(q))
		ctx := context.Background()

		require.NoError(t, c.SetSearch(ctx, " club "))
		require.NoError(t, c.SetPage(ctx, 3))
		require.NoError(t, c.SetCategory(ctx, "Sport"))
		require.NoError(t, c.SetPage(ctx, 2))
		require.NoError(t, c.SetSubCategory(ctx, "Tennis"))

		require.Len(t, *got, 5)
		assert.Equal(t, 1, (*got)[0].Page)
		assert.Equal(t, "club", (*got)[0].Search)
		assert.Equal(t, 3, (*got)[1].Page)
		assert.Equal(t, "club", (*got)[1].Search, "page change keeps filters")
		assert.Equal(t, 1, (*got)[2].Page)
		assert.Equal(t, 1, (*got)[4].Page)
		assert.Equal(t, "Tennis", (*got)[4].SubCategory)
		assert.Equal(t, "Sport", (*got)[4].Category)
	})

	t.Run("sort changes return to first page", func(t *testing.T) {
		t.Parallel()

		svc, got := capture()
		c := listview.NewController(svc)
		ctx := context.Background()

		require.NoError(t, c.SetPage(ctx, 5))
		require.NoError(t, c.ToggleSort(ctx, citydir.SortByCity))
		require.NoError(t, c.ToggleSort(ctx, citydir.SortByCity))
		require.NoError(t, c.SetSort(ctx, citydir.ParseSort("-createdAt")))

		require.Len(t, *got, 4)
		assert.Equal(t, "city", (*got)[1].Sort.String())
		assert.Equal(t, 1, (*got)[1].Page)
		assert.Equal(t, "-city", (*got)[2].Sort.String())
		assert.Equal(t, "-createdAt", (*got)[3].Sort.String())
	})

	t.Run("page size change returns to first page", func(t *testing.T) {
		t.Parallel()

		svc, got := capture()
		c := listview.NewController(svc)
		ctx := context.Background()

		require.NoError(t, c.SetPage(ctx, 3))
		require.NoError(t, c.SetPageSize(ctx, 25))

		assert.Equal(t, 1, (*got)[1].Page)
		assert.Equal(t, 25, (*got)[1].PageSize)
	})

	t.Run("normalizes invalid values", func(t *testing.T) {
		t.Parallel()

		svc, got := capture()
		c := listview.NewController(svc)

		require.NoError(t, c.SetPage(context.Background(), -2))

		assert.Equal(t, 1, (*got)[0].Page)
	})
}

func TestController_StaleResponse(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	svc := &mock.EntryService{
		FindEntriesFn: func(ctx context.Context, q citydir.Query) (*citydir.ResultPage, error) {
			if q.Search == "a" {
				close(started)
				<-release
			}
			items := []*citydir.Entry{{ID: "result-for-" + q.Search, Category: "Sport"}}
			return citydir.NewResultPage(items, 1, q.Page, q.PageSize), nil
		},
	}
	c := listview.NewController(svc)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	var staleErr error
	go func() {
		defer wg.Done()
		staleErr = c.SetSearch(ctx, "a")
	}()
	<-started

	require.NoError(t, c.SetSearch(ctx, "ab"))
	close(release)
	wg.Wait()

	require.NoError(t, staleErr)
	state := c.State()
	assert.Equal(t, listview.Loaded, state.Status)
	assert.Equal(t, "ab", state.Query.Search)
	assert.Equal(t, "result-for-ab", state.Page.Items[0].ID)
}

func TestController_Clamp(t *testing.T) {
	t.Parallel()

	t.Run("clamps page past the end to last page", func(t *testing.T) {
		t.Parallel()

		svc, finds := setupStore(t)
		seed(t, svc, "A", "B", "C")
		q := citydir.DefaultQuery()
		q.PageSize = 2
		c := listview.NewController(svc, listview.WithQuery(q))

		require.NoError(t, c.SetPage(context.Background(), 5))

		state := c.State()
		assert.Equal(t, listview.Loaded, state.Status)
		assert.Equal(t, 2, state.Query.Page)
		assert.Equal(t, 2, state.Page.Page)
		assert.Equal(t, []string{"C"}, names(state.Page))
		assert.Equal(t, int32(2), finds.Load())
	})

	t.Run("clamps to first page when nothing matches", func(t *testing.T) {
		t.Parallel()

		svc, _ := setupStore(t)
		q := citydir.DefaultQuery()
		q.Page = 3
		c := listview.NewController(svc, listview.WithQuery(q))

		require.NoError(t, c.Load(context.Background()))

		state := c.State()
		assert.Equal(t, 1, state.Query.Page)
		assert.Empty(t, state.Page.Items)
		assert.Equal(t, 0, state.Page.TotalPages)
	})
}

func TestController_Create(t *testing.T) {
	t.Parallel()

	svc, finds := setupStore(t)
	seed(t, svc, "Beta")
	c := listview.NewController(svc)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	err := c.Create(ctx, &citydir.Entry{Category: "Sport", OrganizationName: "Alpha"})

	require.NoError(t, err)
	state := c.State()
	assert.Equal(t, []string{"Alpha", "Beta"}, names(state.Page))
	assert.Equal(t, 2, state.Page.TotalItems)
	assert.Equal(t, int32(2), finds.Load(), "create re-issues the query")
	assert.False(t, state.MutationInFlight)
}

func TestController_Update(t *testing.T) {
	t.Parallel()

	t.Run("replaces row in place when order cannot change", func(t *testing.T) {
		t.Parallel()

		svc, finds := setupStore(t)
		entries := seed(t, svc, "Alpha", "Beta")
		c := listview.NewController(svc)
		ctx := context.Background()
		require.NoError(t, c.Load(ctx))

		city := "Rennes"
		entry, err := c.Update(ctx, entries[1].ID, citydir.EntryUpdate{City: &city})

		require.NoError(t, err)
		assert.Equal(t, "Rennes", entry.City)
		state := c.State()
		assert.Equal(t, "Rennes", state.Page.Items[1].City)
		assert.Equal(t, int32(1), finds.Load(), "no re-query")
	})

	t.Run("re-queries when sort field changes", func(t *testing.T) {
		t.Parallel()

		svc, finds := setupStore(t)
		entries := seed(t, svc, "Alpha", "Beta")
		c := listview.NewController(svc)
		ctx := context.Background()
		require.NoError(t, c.Load(ctx))

		name := "Zulu"
		_, err := c.Update(ctx, entries[0].ID, citydir.EntryUpdate{OrganizationName: &name})

		require.NoError(t, err)
		assert.Equal(t, []string{"Beta", "Zulu"}, names(c.State().Page))
		assert.Equal(t, int32(2), finds.Load())
	})

	t.Run("re-queries when filtered field changes", func(t *testing.T) {
		t.Parallel()

		svc, finds := setupStore(t)
		entries := seed(t, svc, "Alpha", "Beta")
		q := citydir.DefaultQuery()
		q.Category = "Sport"
		c := listview.NewController(svc, listview.WithQuery(q))
		ctx := context.Background()
		require.NoError(t, c.Load(ctx))

		category := "Culture"
		_, err := c.Update(ctx, entries[0].ID, citydir.EntryUpdate{Category: &category})

		require.NoError(t, err)
		assert.Equal(t, []string{"Beta"}, names(c.State().Page))
		assert.Equal(t, int32(2), finds.Load())
	})

	t.Run("refreshes page when entry vanished", func(t *testing.T) {
		t.Parallel()

		svc, finds := setupStore(t)
		entries := seed(t, svc, "Alpha", "Beta")
		c := listview.NewController(svc)
		ctx := context.Background()
		require.NoError(t, c.Load(ctx))
		require.NoError(t, svc.DeleteEntry(ctx, entries[0].ID))

		city := "Rennes"
		_, err := c.Update(ctx, entries[0].ID, citydir.EntryUpdate{City: &city})

		assert.Equal(t, citydir.ENOTFOUND, citydir.ErrorCode(err))
		assert.Equal(t, []string{"Beta"}, names(c.State().Page))
		assert.Equal(t, int32(2), finds.Load())
	})
}

func TestController_Delete(t *testing.T) {
	t.Parallel()

	t.Run("removes locally then backfills from server", func(t *testing.T) {
		t.Parallel()

		svc, _ := setupStore(t)
		entries := seed(t, svc, "A", "B", "C")
		q := citydir.DefaultQuery()
		q.PageSize = 2

		var snapshots []listview.State
		c := listview.NewController(svc, listview.WithQuery(q), listview.WithObserver(func(s listview.State) {
			snapshots = append(snapshots, s)
		}))
		ctx := context.Background()
		require.NoError(t, c.Load(ctx))
		snapshots = nil

		require.NoError(t, c.Delete(ctx, entries[0].ID))

		var optimistic *listview.State
		for i := range snapshots {
			if snapshots[i].Status == listview.Loaded && snapshots[i].Page.TotalItems == 2 && len(snapshots[i].Page.Items) == 1 {
				optimistic = &snapshots[i]
				break
			}
		}
		require.NotNil(t, optimistic, "optimistic removal was observed")
		assert.Equal(t, []string{"B"}, names(optimistic.Page))

		state := c.State()
		assert.Equal(t, []string{"B", "C"}, names(state.Page))
		assert.Equal(t, 2, state.Page.TotalItems)
		assert.Equal(t, 1, state.Page.TotalPages)
	})

	t.Run("refreshes page when entry vanished", func(t *testing.T) {
		t.Parallel()

		svc, finds := setupStore(t)
		entries := seed(t, svc, "A", "B")
		c := listview.NewController(svc)
		ctx := context.Background()
		require.NoError(t, c.Load(ctx))
		require.NoError(t, svc.DeleteEntry(ctx, entries[0].ID))

		err := c.Delete(ctx, entries[0].ID)

		assert.Equal(t, citydir.ENOTFOUND, citydir.ErrorCode(err))
		assert.Equal(t, []string{"B"}, names(c.State().Page))
		assert.Equal(t, int32(2), finds.Load())
	})
}

func TestController_MutationInFlight(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	svc := &mock.EntryService{
		FindEntriesFn: func(ctx context.Context, q citydir.Query) (*citydir.ResultPage, error) {
			return citydir.NewResultPage(nil, 0, q.Page, q.PageSize), nil
		},
		CreateEntryFn: func(ctx context.Context, entry *citydir.Entry) error {
			close(started)
			<-release
			return nil
		},
		DeleteEntryFn: func(ctx context.Context, id string) error {
			return errors.New("must not be called")
		},
	}
	c := listview.NewController(svc)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- c.Create(ctx, &citydir.Entry{Category: "Sport"})
	}()
	<-started

	assert.True(t, c.State().MutationInFlight)
	err := c.Delete(ctx, "e1")
	assert.Equal(t, citydir.ECONFLICT, citydir.ErrorCode(err))

	close(release)
	require.NoError(t, <-done)
	assert.False(t, c.State().MutationInFlight)
}
