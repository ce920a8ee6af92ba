package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "skiff.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return path
}

func TestFindSkiffTomlWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeManifest(t, root, "[image]\npath = \"heap.skf\"\n")

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("failed to create nested dirs: %v", err)
	}

	got, ok, err := findSkiffToml(nested)
	if err != nil {
		t.Fatalf("findSkiffToml failed: %v", err)
	}
	if !ok {
		t.Fatal("manifest not found from nested directory")
	}
	if got != want {
		t.Fatalf("found %q, want %q", got, want)
	}
}

func TestFindSkiffTomlAbsent(t *testing.T) {
	_, ok, err := findSkiffToml(t.TempDir())
	if err != nil {
		t.Fatalf("findSkiffToml failed: %v", err)
	}
	if ok {
		t.Fatal("found a manifest in an empty directory tree")
	}
}

func TestLoadImageManifest(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[image]\npath = \"snapshots/main.skf\"\n")

	m, ok, err := loadImageManifest(root)
	if err != nil {
		t.Fatalf("loadImageManifest failed: %v", err)
	}
	if !ok {
		t.Fatal("manifest not found")
	}
	if m.Config.Image.Path != "snapshots/main.skf" {
		t.Fatalf("image path = %q", m.Config.Image.Path)
	}
	if m.Root != root {
		t.Fatalf("root = %q, want %q", m.Root, root)
	}
}

func TestLoadImageManifestBadTOML(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[image\n")

	_, ok, err := loadImageManifest(root)
	if !ok {
		t.Fatal("manifest file exists, ok must be true")
	}
	if err == nil {
		t.Fatal("expected parse error")
	}
}
