package citydir

import "context"

// Fetcher retrieves HTML documents, such as a legacy directory page that
// is imported into the directory.
type Fetcher interface {
	// Fetch returns the body of the document at url.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)
}
