package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteManifest_NonASCIIKeptLiteral(t *testing.T) {
	tmpDir := t.TempDir()
	outPath := filepath.Join(tmpDir, "tools-config.json")

	m := &Manifest{Tools: []Entry{{
		Title:    "单位换算器",
		Features: []string{"转换", "换算"},
		URL:      "pages/tools/convert.html",
	}}}

	if err := WriteManifest(m, outPath); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	content := string(data)
	if !strings.Contains(content, "单位换算器") {
		t.Error("title should appear as literal UTF-8, not escaped")
	}
	if strings.Contains(content, `\u`) {
		t.Errorf("manifest contains unicode escapes:\n%s", content)
	}
}

func TestWriteManifest_NoHTMLEscaping(t *testing.T) {
	tmpDir := t.TempDir()
	outPath := filepath.Join(tmpDir, "tools-config.json")

	m := &Manifest{Tools: []Entry{{
		Icon:     "<i class='fa'>&</i>",
		Features: []string{""},
		URL:      "pages/a.html",
	}}}

	if err := WriteManifest(m, outPath); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "<i class='fa'>&</i>") {
		t.Errorf("manifest escaped HTML characters:\n%s", data)
	}
}

func TestWriteManifest_OverwritesExisting(t *testing.T) {
	tmpDir := t.TempDir()
	outPath := filepath.Join(tmpDir, "tools-config.json")

	if err := os.WriteFile(outPath, []byte("old content"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	m := &Manifest{Tools: []Entry{}}
	if err := WriteManifest(m, outPath); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if strings.Contains(string(data), "old content") {
		t.Error("old content should be replaced")
	}
	if !strings.Contains(string(data), `"tools": []`) {
		t.Errorf("manifest = %s, want empty tools array", data)
	}
}

func TestWriteManifest_CreatesOutputDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	outPath := filepath.Join(tmpDir, "dist", "config", "tools-config.json")

	m := &Manifest{Tools: []Entry{}}
	if err := WriteManifest(m, outPath); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}

	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("Stat failed: %v", err)
	}
}

func TestWriteManifest_NoTempFileLeftBehind(t *testing.T) {
	tmpDir := t.TempDir()
	outPath := filepath.Join(tmpDir, "tools-config.json")

	m := &Manifest{Tools: []Entry{}}
	if err := WriteManifest(m, outPath); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriteManifest_RefusesSymlinkDestination(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "real.json")
	if err := os.WriteFile(target, []byte("{}"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	link := filepath.Join(tmpDir, "tools-config.json")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	m := &Manifest{Tools: []Entry{}}
	if err := WriteManifest(m, link); err == nil {
		t.Fatal("expected error writing through symlink, got nil")
	}

	// The symlink target is untouched.
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("target = %s, want untouched {}", data)
	}
}
