package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const noSkiffTomlMessage = "no skiff.toml found and no image given\nname the snapshot explicitly, e.g.:\n  skiff dump path/to/heap.skf"

type imageManifest struct {
	Path   string
	Root   string
	Config manifestConfig
}

type manifestConfig struct {
	Image imageConfig `toml:"image"`
}

type imageConfig struct {
	Path string `toml:"path"`
}

// findSkiffToml walks upwards from startDir looking for a skiff.toml.
func findSkiffToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "skiff.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadImageManifest(startDir string) (*imageManifest, bool, error) {
	manifestPath, ok, err := findSkiffToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	var cfg manifestConfig
	if _, err := toml.DecodeFile(manifestPath, &cfg); err != nil {
		return nil, true, fmt.Errorf("%s: failed to parse TOML: %w", manifestPath, err)
	}
	return &imageManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

// resolveImagePath picks the snapshot to operate on: an explicit argument
// wins, otherwise the manifest's image.path relative to the manifest.
func resolveImagePath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	m, ok, err := loadImageManifest(".")
	if err != nil {
		return "", err
	}
	if !ok || m.Config.Image.Path == "" {
		return "", errors.New(noSkiffTomlMessage)
	}
	return filepath.Join(m.Root, m.Config.Image.Path), nil
}
