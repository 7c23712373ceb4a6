// Package fetcher opens procurement workbooks from local files, in-memory
// uploads and HTTP URLs.
package fetcher

import (
	"context"
	"io"
	"net/url"
)

// Fetcher defines the interface for downloading remote workbooks.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadBytes fetches the URL into memory.
	DownloadBytes(ctx context.Context, url string) ([]byte, error)
}

// IsURL reports whether s is an http or https URL rather than a local path.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
