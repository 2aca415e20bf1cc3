package catalog

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hpungsan/sitecat/internal/errors"
)

// featureSeparator splits the features meta content. The site authors its
// feature lists with the full-width comma.
const featureSeparator = "，"

// ExtractPage reads one HTML file and returns its manifest entry.
// Hidden pages (show meta absent or "false") return (nil, nil); the gate is
// applied before any other metadata is read, so a hidden page can never
// fail on a bad rank.
func ExtractPage(path, url string) (*Entry, error) {
	doc, err := loadDoc(path)
	if err != nil {
		return nil, err
	}

	show, present := metaContent(doc, "show")
	if !pageVisible(show, present) {
		return nil, nil
	}

	return entryFromDoc(doc, path, url)
}

// pageVisible applies the visibility gate: the show meta must exist and its
// content must not be the literal "false". Any other value, including an
// empty one, makes the page visible.
func pageVisible(show string, present bool) bool {
	return present && show != "false"
}

// loadDoc reads and parses one HTML file.
func loadDoc(path string) (*goquery.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound(path)
		}
		return nil, errors.NewIO("read "+path, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewParse(path, err)
	}
	return doc, nil
}

// entryFromDoc extracts every manifest field from a parsed page. The
// visibility gate is the caller's concern.
func entryFromDoc(doc *goquery.Document, path, url string) (*Entry, error) {
	entry := &Entry{}

	// The basename fallback applies only when the document has no title
	// element at all; a present-but-empty title stays empty. The fallback
	// truncates at the first dot, so "my.tool.html" becomes "my".
	title := doc.Find("title")
	if title.Length() > 0 {
		entry.Title = title.First().Text()
	} else {
		base := filepath.Base(path)
		if i := strings.Index(base, "."); i >= 0 {
			base = base[:i]
		}
		entry.Title = base
	}

	entry.Keywords, _ = metaContent(doc, "keywords")
	entry.Description, _ = metaContent(doc, "description")
	entry.Icon, _ = metaContent(doc, "icon")

	// Splitting the empty string yields [""], so a page without features
	// gets a single empty feature rather than an empty list.
	features, _ := metaContent(doc, "features")
	entry.Features = strings.Split(features, featureSeparator)

	if rank, ok := metaContent(doc, "rank"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(rank))
		if err != nil {
			return nil, errors.NewValue(path, "rank", rank)
		}
		entry.Rank = n
	}

	entry.URL = url
	return entry, nil
}

// metaContent returns the content attribute of the first meta tag with the
// given name, and whether such a tag exists. A tag without a content
// attribute reports as present with an empty value.
func metaContent(doc *goquery.Document, name string) (string, bool) {
	sel := doc.Find(`meta[name="` + name + `"]`)
	if sel.Length() == 0 {
		return "", false
	}
	content, _ := sel.First().Attr("content")
	return content, true
}
