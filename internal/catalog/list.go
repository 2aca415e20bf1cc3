package catalog

// ListInput contains parameters for the List operation.
type ListInput struct {
	Root string
}

// PageInfo is one row in the list output.
type PageInfo struct {
	Path    string `json:"path"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Visible bool   `json:"visible"`
	Rank    int    `json:"rank"`
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Root   string      `json:"root"`
	Pages  []PageInfo  `json:"pages"`
	Errors []PageError `json:"errors,omitempty"`
}

// List reports every discovered page with its visibility, hidden pages
// included. Pages that fail extraction are reported in Errors and omitted
// from the rows.
func List(input ListInput) (*ListOutput, error) {
	pages, err := Discover(input.Root)
	if err != nil {
		return nil, err
	}

	out := &ListOutput{Root: input.Root, Pages: []PageInfo{}}
	for _, path := range pages {
		info, err := Inspect(InspectInput{Path: path})
		if err != nil {
			out.Errors = append(out.Errors, newPageError(path, err))
			continue
		}
		out.Pages = append(out.Pages, PageInfo{
			Path:    info.Path,
			URL:     info.URL,
			Title:   info.Entry.Title,
			Visible: info.Visible,
			Rank:    info.Entry.Rank,
		})
	}

	return out, nil
}
