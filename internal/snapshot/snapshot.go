// Package snapshot persists heap images so they can be inspected and
// replayed outside the process that produced them.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"skiff/internal/heap"
)

// Current schema version - increment when Payload format changes
const schemaVersion uint16 = 1

// Payload is the on-disk form of a heap image. The target fields travel
// with the bytes so a reader on a different build refuses layouts it
// cannot interpret instead of misreading them.
type Payload struct {
	Schema     uint16
	WordSize   uint8
	SkewOffset uint8
	ByteOrder  string
	Capacity   uint64
	Brk        uint64
	Mem        []byte
}

// Capture freezes img into a payload.
func Capture(img *heap.Image) *Payload {
	target := heap.DefaultTarget()
	return &Payload{
		Schema:     schemaVersion,
		WordSize:   uint8(target.WordSize),
		SkewOffset: uint8(target.SkewOffset),
		ByteOrder:  target.ByteOrder,
		Capacity:   uint64(img.Capacity()),
		Brk:        uint64(img.Brk()),
		Mem:        img.Used(),
	}
}

// Save writes img to path atomically.
func Save(path string, img *heap.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(Capture(img)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Load reads a heap image from path. It fails on schema or target
// mismatch rather than guess at a foreign layout.
func Load(path string) (*heap.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var p Payload
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%s: failed to decode snapshot: %w", path, err)
	}
	return Restore(&p, path)
}

// Restore rebuilds a heap image from a decoded payload.
func Restore(p *Payload, origin string) (*heap.Image, error) {
	if p.Schema != schemaVersion {
		return nil, fmt.Errorf("%s: snapshot schema %d, this build reads %d", origin, p.Schema, schemaVersion)
	}
	target := heap.DefaultTarget()
	if int(p.WordSize) != target.WordSize || int(p.SkewOffset) != target.SkewOffset || p.ByteOrder != target.ByteOrder {
		return nil, fmt.Errorf("%s: snapshot target (%d-byte words, skew %d, %s) does not match this build",
			origin, p.WordSize, p.SkewOffset, p.ByteOrder)
	}
	if uint64(len(p.Mem)) != p.Brk {
		return nil, fmt.Errorf("%s: snapshot carries %d bytes but records a break of %d", origin, len(p.Mem), p.Brk)
	}
	img, fault := heap.FromBytes(p.Mem, int(p.Capacity))
	if fault != nil {
		return nil, fmt.Errorf("%s: %w", origin, fault)
	}
	return img, nil
}
