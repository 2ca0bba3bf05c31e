// Package slog provides log/slog decorators for citydir services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/citydir"
)

// Ensure LoggingEntryService implements citydir.EntryService.
var _ citydir.EntryService = (*LoggingEntryService)(nil)

// LoggingEntryService wraps an EntryService and logs every operation with
// its duration and error.
type LoggingEntryService struct {
	next   citydir.EntryService
	logger *slog.Logger
}

// NewLoggingEntryService creates a new LoggingEntryService.
func NewLoggingEntryService(next citydir.EntryService, logger *slog.Logger) *LoggingEntryService {
	return &LoggingEntryService{next: next, logger: logger}
}

// FindEntries delegates to the wrapped service and logs the effective query.
func (s *LoggingEntryService) FindEntries(ctx context.Context, q citydir.Query) (page *citydir.ResultPage, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"page", q.Page,
			"pageSize", q.PageSize,
			"sort", q.Sort.String(),
			"search", q.Search,
			"category", q.Category,
			"subCategory", q.SubCategory,
			"duration", time.Since(begin),
		}
		if page != nil {
			attrs = append(attrs, "items", len(page.Items), "total", page.TotalItems)
		}
		s.log(ctx, "find entries", err, attrs...)
	}(time.Now())
	return s.next.FindEntries(ctx, q)
}

// FindEntryByID delegates to the wrapped service.
func (s *LoggingEntryService) FindEntryByID(ctx context.Context, id string) (entry *citydir.Entry, err error) {
	defer func(begin time.Time) {
		s.log(ctx, "find entry", err, "id", id, "duration", time.Since(begin))
	}(time.Now())
	return s.next.FindEntryByID(ctx, id)
}

// FindCategories delegates to the wrapped service.
func (s *LoggingEntryService) FindCategories(ctx context.Context) (categories []string, err error) {
	defer func(begin time.Time) {
		s.log(ctx, "find categories", err, "count", len(categories), "duration", time.Since(begin))
	}(time.Now())
	return s.next.FindCategories(ctx)
}

// CreateEntry delegates to the wrapped service.
func (s *LoggingEntryService) CreateEntry(ctx context.Context, entry *citydir.Entry) (err error) {
	defer func(begin time.Time) {
		s.log(ctx, "create entry", err, "id", entry.ID, "category", entry.Category, "duration", time.Since(begin))
	}(time.Now())
	return s.next.CreateEntry(ctx, entry)
}

// UpdateEntry delegates to the wrapped service.
func (s *LoggingEntryService) UpdateEntry(ctx context.Context, id string, upd citydir.EntryUpdate) (entry *citydir.Entry, err error) {
	defer func(begin time.Time) {
		s.log(ctx, "update entry", err, "id", id, "duration", time.Since(begin))
	}(time.Now())
	return s.next.UpdateEntry(ctx, id, upd)
}

// DeleteEntry delegates to the wrapped service.
func (s *LoggingEntryService) DeleteEntry(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		s.log(ctx, "delete entry", err, "id", id, "duration", time.Since(begin))
	}(time.Now())
	return s.next.DeleteEntry(ctx, id)
}

// log writes msg at Info, or at Warn for internal errors. Expected
// application errors (not found, invalid) stay at Info with their code.
func (s *LoggingEntryService) log(ctx context.Context, msg string, err error, attrs ...any) {
	level := slog.LevelInfo
	if err != nil {
		attrs = append(attrs, "code", citydir.ErrorCode(err), "err", err)
		if citydir.ErrorCode(err) == citydir.EINTERNAL {
			level = slog.LevelWarn
		}
	}
	s.logger.Log(ctx, level, msg, attrs...)
}
