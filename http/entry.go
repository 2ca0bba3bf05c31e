package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/citydir"
	"github.com/go-chi/chi/v5"
)

// handleListEntries serves one page of the directory. Malformed parameters
// fall back to defaults; the response carries an ETag so pollers can
// revalidate with If-None-Match.
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	q := citydir.ParseQuery(r.URL.Query())

	page, err := s.entries.FindEntries(r.Context(), q)
	if err != nil {
		s.Error(w, r, err)
		return
	}

	body, err := json.Marshal(page)
	if err != nil {
		s.Error(w, r, err)
		return
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))
	w.Header().Set("ETag", etag)
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		s.metrics.IncrementNotModified()
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// etagMatches reports whether an If-None-Match header value matches etag
// using the weak comparison: "*" matches anything and W/ prefixes are
// ignored on either side.
func etagMatches(header, etag string) bool {
	etag = strings.TrimPrefix(etag, "W/")
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" || strings.TrimPrefix(tag, "W/") == etag {
			return true
		}
	}
	return false
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.entries.FindEntryByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.entries.FindCategories(r.Context())
	if err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// handleCreateEntry passes the submitted entry to the store. Client-assigned
// IDs and timestamps are ignored.
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var entry citydir.Entry
	if err := decodeBody(w, r, &entry); err != nil {
		s.Error(w, r, err)
		return
	}

	if err := s.entries.CreateEntry(r.Context(), &entry); err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, &entry)
}

// handleUpdateEntry applies the keys present in the body. A key set to ""
// clears the field; an absent or null key leaves it untouched.
func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var upd citydir.EntryUpdate
	if err := decodeBody(w, r, &upd); err != nil {
		s.Error(w, r, err)
		return
	}

	entry, err := s.entries.UpdateEntry(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.entries.DeleteEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return citydir.Errorf(citydir.EINVALID, "invalid JSON body: %v", err)
	}
	return nil
}
