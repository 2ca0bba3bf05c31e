package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/citydir"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Ensure EntryClient implements citydir.EntryService at compile time.
var _ citydir.EntryService = (*EntryClient)(nil)

// EntryClient implements citydir.EntryService against a remote directory
// API. Error envelopes are decoded back into *citydir.Error; requests that
// never reach the server fail with EUNAVAILABLE.
type EntryClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// ClientOption configures an EntryClient.
type ClientOption func(*EntryClient)

// WithTimeout sets the timeout for API requests.
// Defaults to DefaultClientTimeout if not specified.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *EntryClient) {
		c.timeout = d
	}
}

// NewEntryClient creates a client for the API served at baseURL.
func NewEntryClient(baseURL string, opts ...ClientOption) *EntryClient {
	c := &EntryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultClientTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.client = &http.Client{
		Timeout: c.timeout,
	}

	return c
}

// FindEntries returns one page of entries matching q.
func (c *EntryClient) FindEntries(ctx context.Context, q citydir.Query) (*citydir.ResultPage, error) {
	path := "/api/entries"
	if v := q.Values(); len(v) > 0 {
		path += "?" + v.Encode()
	}
	var page citydir.ResultPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []*citydir.Entry{}
	}
	return &page, nil
}

// FindEntryByID retrieves an entry by ID.
func (c *EntryClient) FindEntryByID(ctx context.Context, id string) (*citydir.Entry, error) {
	var entry citydir.Entry
	if err := c.do(ctx, http.MethodGet, entryPath(id), nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindCategories returns the distinct categories in use.
func (c *EntryClient) FindCategories(ctx context.Context) ([]string, error) {
	categories := []string{}
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateEntry creates entry on the server and copies back the stored
// version, including its ID and timestamps.
func (c *EntryClient) CreateEntry(ctx context.Context, entry *citydir.Entry) error {
	var created citydir.Entry
	if err := c.do(ctx, http.MethodPost, "/api/entries", entry, &created); err != nil {
		return err
	}
	*entry = created
	return nil
}

// UpdateEntry applies a partial update and returns the stored entry.
func (c *EntryClient) UpdateEntry(ctx context.Context, id string, upd citydir.EntryUpdate) (*citydir.Entry, error) {
	var entry citydir.Entry
	if err := c.do(ctx, http.MethodPatch, entryPath(id), upd, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteEntry permanently removes an entry.
func (c *EntryClient) DeleteEntry(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, entryPath(id), nil, nil)
}

func entryPath(id string) string {
	return "/api/entries/" + url.PathEscape(id)
}

// do sends a request with an optional JSON body and decodes a JSON
// response into out when out is non-nil.
func (c *EntryClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return citydir.Errorf(citydir.EUNAVAILABLE, "directory unavailable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return citydir.Errorf(citydir.EUNAVAILABLE, "invalid response from directory: %v", err)
	}
	return nil
}

// decodeError turns an error response into an application error. Bodies
// that are not an error envelope are classified by status code alone.
func decodeError(resp *http.Response) error {
	var envelope ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Code == "" {
		return citydir.Errorf(fromStatusCode(resp.StatusCode), "HTTP %d", resp.StatusCode)
	}
	return &citydir.Error{
		Code:    envelope.Code,
		Message: envelope.Description,
		Fields:  envelope.Fields,
	}
}
