package mock

import (
	"context"

	"github.com/fwojciec/citydir"
)

var _ citydir.EntryService = (*EntryService)(nil)

// EntryService is a mock implementation of citydir.EntryService.
type EntryService struct {
	FindEntriesFn    func(ctx context.Context, q citydir.Query) (*citydir.ResultPage, error)
	FindEntryByIDFn  func(ctx context.Context, id string) (*citydir.Entry, error)
	FindCategoriesFn func(ctx context.Context) ([]string, error)
	CreateEntryFn    func(ctx context.Context, entry *citydir.Entry) error
	UpdateEntryFn    func(ctx context.Context, id string, upd citydir.EntryUpdate) (*citydir.Entry, error)
	DeleteEntryFn    func(ctx context.Context, id string) error
}

func (s *EntryService) FindEntries(ctx context.Context, q citydir.Query) (*citydir.ResultPage, error) {
	return s.FindEntriesFn(ctx, q)
}

func (s *EntryService) FindEntryByID(ctx context.Context, id string) (*citydir.Entry, error) {
	return s.FindEntryByIDFn(ctx, id)
}

func (s *EntryService) FindCategories(ctx context.Context) ([]string, error) {
	return s.FindCategoriesFn(ctx)
}

func (s *EntryService) CreateEntry(ctx context.Context, entry *citydir.Entry) error {
	return s.CreateEntryFn(ctx, entry)
}

func (s *EntryService) UpdateEntry(ctx context.Context, id string, upd citydir.EntryUpdate) (*citydir.Entry, error) {
	return s.UpdateEntryFn(ctx, id, upd)
}

func (s *EntryService) DeleteEntry(ctx context.Context, id string) error {
	return s.DeleteEntryFn(ctx, id)
}
