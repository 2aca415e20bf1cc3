package catalog

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/sitecat/internal/errors"
)

// Discover walks root and returns the path of every .html file, in
// traversal order. WalkDir visits each directory's entries in lexical
// order, so the result is stable across runs.
func Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound(root)
		}
		return nil, errors.NewIO("stat "+root, err)
	}
	if !info.IsDir() {
		return nil, errors.NewInvalidRequest("root is not a directory: " + root)
	}

	var pages []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".html") {
			pages = append(pages, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewIO("walk "+root, err)
	}

	return pages, nil
}
