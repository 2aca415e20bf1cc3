// Package catalog builds the site tools manifest: it discovers HTML pages
// under a root directory, extracts their metadata, applies the visibility
// gate, and serializes the aggregated manifest to disk.
package catalog

import (
	stderrors "errors"

	"github.com/hpungsan/sitecat/internal/errors"
)

// Entry is one manifest record for a visible page. Field order here is the
// serialization order consumed by the site front end.
type Entry struct {
	Icon        string   `json:"icon"`
	Title       string   `json:"title"`
	Keywords    string   `json:"keywords"`
	Features    []string `json:"features"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Rank        int      `json:"rank"`
}

// Manifest is the aggregated catalog document written to disk.
type Manifest struct {
	Tools []Entry `json:"tools"`
}

// PageError records one isolated per-page failure from a build or list run.
type PageError struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// newPageError converts an error into a PageError for reporting.
func newPageError(path string, err error) PageError {
	pe := PageError{
		Path:    path,
		Code:    string(errors.ErrInternal),
		Message: err.Error(),
	}
	var e *errors.SiteError
	if stderrors.As(err, &e) {
		pe.Code = string(e.Code)
		pe.Message = e.Message
	}
	return pe
}
