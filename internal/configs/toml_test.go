package configs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoadTOML(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "test.toml")

	type TestStruct struct {
		Name   string
		Format string `toml:"signature_format"`
	}

	originalData := TestStruct{
		Name:   "Ada",
		Format: "separate",
	}

	if err := SaveTOML(testFile, originalData); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	loadedData := TestStruct{}
	meta, err := LoadTOML(testFile, &loadedData)
	if err != nil {
		t.Fatalf("LoadTOML failed: %v", err)
	}

	if loadedData != originalData {
		t.Errorf("Expected %+v, got %+v", originalData, loadedData)
	}

	if !meta.IsDefined("signature_format") {
		t.Error("Expected signature_format to be reported as defined")
	}
}

func TestLoadTOMLNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "nonexistent.toml")

	var data struct{ Name string }
	if _, err := LoadTOML(testFile, &data); err == nil {
		t.Fatal("Expected error for non-existent file, got nil")
	}
}

func TestSaveTOMLCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "subdir", "test.toml")

	if err := SaveTOML(testFile, struct{ Name string }{Name: "Test"}); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	info, err := os.Stat(testFile)
	if err != nil {
		t.Fatalf("File was not created: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}

	entries, err := os.ReadDir(filepath.Dir(testFile))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the saved file, found %d entries", len(entries))
	}
}

func TestSaveTOMLWithHeader(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "config.toml")

	if err := saveTOMLWithHeader(testFile, "# header\n\n", struct{ Name string }{Name: "x"}); err != nil {
		t.Fatalf("saveTOMLWithHeader failed: %v", err)
	}

	data, err := os.ReadFile(testFile)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data[:10]) != "# header\n\n" {
		t.Errorf("Expected header at top of file, got %q", string(data))
	}

	var loaded struct{ Name string }
	if _, err := LoadTOML(testFile, &loaded); err != nil || loaded.Name != "x" {
		t.Errorf("Expected commented file to decode, got %+v, %v", loaded, err)
	}
}
