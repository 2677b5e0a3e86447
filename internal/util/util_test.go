package util

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFindProjectFilePrefersJSON(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"suite.yaml", "suite.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	path, err := FindProjectFile(dir, "suite")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if filepath.Base(path) != "suite.json" {
		t.Fatalf("expected suite.json got %s", filepath.Base(path))
	}
}

func TestFindProjectFileFallsBackToYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte("project: x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	path, err := FindProjectFile(dir, "config")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if filepath.Base(path) != "config.yml" {
		t.Fatalf("expected config.yml got %s", filepath.Base(path))
	}
}

func TestFindProjectFileMissing(t *testing.T) {
	_, err := FindProjectFile(t.TempDir(), "config")
	if !errors.Is(err, ErrProjectFileNotFound) {
		t.Fatalf("expected ErrProjectFileNotFound got %v", err)
	}
}

func TestStopwatch(t *testing.T) {
	var zero Stopwatch
	if zero.Elapsed() != 0 {
		t.Fatalf("unstarted stopwatch should report zero")
	}
	sw := StartStopwatch()
	time.Sleep(2 * time.Millisecond)
	if sw.Elapsed() <= 0 {
		t.Fatalf("expected positive elapsed time")
	}
}

func TestDecodeProjectFileByExtension(t *testing.T) {
	var out struct {
		Name string `json:"name" yaml:"name"`
	}
	if err := DecodeProjectFile("suite.json", []byte(`{"name":"\ud83d\ude00"}`), &out); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if out.Name != "😀" {
		t.Fatalf("expected 😀 got %q", out.Name)
	}
	if err := DecodeProjectFile("suite.yml", []byte("name: greet\n"), &out); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if out.Name != "greet" {
		t.Fatalf("expected greet got %q", out.Name)
	}
	if err := DecodeProjectFile("suite.json", []byte("name: greet\n"), &out); err == nil {
		t.Fatalf("expected yaml content in a .json file to fail")
	}
}
