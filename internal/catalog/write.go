package catalog

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/hpungsan/sitecat/internal/errors"
)

// WriteManifest serializes the manifest to path as indented UTF-8 JSON with
// non-ASCII characters kept literal. The document is written to a temp file
// and renamed into place, so a failed run never truncates an existing
// manifest.
func WriteManifest(m *Manifest, path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.NewIO("create output directory "+dir, err)
		}
	}

	// Write to temp file first, then atomic rename to preserve existing file on failure
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(err)
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.NewIO("create manifest file", err)
	}

	// Clean up temp file on failure (original file is preserved)
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(m); err != nil {
		return errors.NewIO("encode manifest", err)
	}

	// Ensure file is written
	if err := file.Sync(); err != nil {
		return errors.NewIO("sync manifest", err)
	}

	// Close before atomic replace (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return errors.NewIO("close manifest", err)
	}
	file = nil

	// Check if destination is a symlink (os.Rename would follow it)
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewIO("manifest path is a symlink", nil)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return errors.NewIO("finalize manifest", err)
	}

	success = true
	return nil
}
