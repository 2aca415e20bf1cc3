package catalog

import "path/filepath"

// InspectInput contains parameters for the Inspect operation.
type InspectInput struct {
	Path string
}

// InspectOutput reports everything extracted from one page. Entry is always
// populated with the record the page would contribute if it were visible.
type InspectOutput struct {
	Path    string `json:"path"`
	URL     string `json:"url"`
	Show    string `json:"show"`
	Visible bool   `json:"visible"`
	Entry   *Entry `json:"entry"`
}

// Inspect extracts a single page without applying the visibility gate.
// Useful for answering "why is my page missing from the manifest".
func Inspect(input InspectInput) (*InspectOutput, error) {
	doc, err := loadDoc(input.Path)
	if err != nil {
		return nil, err
	}

	url := filepath.ToSlash(input.Path)
	show, present := metaContent(doc, "show")

	entry, err := entryFromDoc(doc, input.Path, url)
	if err != nil {
		return nil, err
	}

	return &InspectOutput{
		Path:    input.Path,
		URL:     url,
		Show:    show,
		Visible: pageVisible(show, present),
		Entry:   entry,
	}, nil
}
