package catalog

import (
	"path/filepath"
	"time"
)

// BuildInput contains parameters for the Build operation.
type BuildInput struct {
	Root   string // directory scanned for pages
	Output string // manifest path to write
	Strict bool   // abort on the first page error instead of isolating it
}

// BuildOutput contains the result of the Build operation.
type BuildOutput struct {
	Root         string      `json:"root"`
	Output       string      `json:"output"`
	PagesScanned int         `json:"pages_scanned"`
	ToolsCount   int         `json:"tools_count"`
	Skipped      int         `json:"skipped"`
	Failed       int         `json:"failed"`
	DurationMS   int64       `json:"duration_ms"`
	Errors       []PageError `json:"errors,omitempty"`
}

// Build runs the full pipeline: discover pages, extract each one, and write
// the manifest. A failing page is reported and skipped rather than aborting
// the run, unless Strict is set.
func Build(input BuildInput) (*BuildOutput, error) {
	start := time.Now()

	pages, err := Discover(input.Root)
	if err != nil {
		return nil, err
	}

	out := &BuildOutput{
		Root:         input.Root,
		Output:       input.Output,
		PagesScanned: len(pages),
	}

	// Tools starts non-nil so an all-hidden tree still serializes as [].
	manifest := &Manifest{Tools: []Entry{}}

	for _, path := range pages {
		entry, err := ExtractPage(path, filepath.ToSlash(path))
		if err != nil {
			if input.Strict {
				return nil, err
			}
			out.Errors = append(out.Errors, newPageError(path, err))
			out.Failed++
			continue
		}
		if entry == nil {
			out.Skipped++
			continue
		}
		manifest.Tools = append(manifest.Tools, *entry)
	}

	if err := WriteManifest(manifest, input.Output); err != nil {
		return nil, err
	}

	out.ToolsCount = len(manifest.Tools)
	out.DurationMS = time.Since(start).Milliseconds()
	return out, nil
}
