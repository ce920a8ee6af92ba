package heap_test

import (
	"bytes"
	"testing"

	"skiff/internal/heap"
)

type recordingTracer struct {
	refs  []heap.Ref
	bytes []int
}

func (tr *recordingTracer) TraceAlloc(r heap.Ref, n int) {
	tr.refs = append(tr.refs, r)
	tr.bytes = append(tr.bytes, n)
}

func TestAllocBytesWordAligned(t *testing.T) {
	img := heap.NewImage(1024)
	r1, f := img.AllocBytes(3)
	if f != nil {
		t.Fatalf("AllocBytes failed: %v", f)
	}
	r2, f := img.AllocBytes(8)
	if f != nil {
		t.Fatalf("AllocBytes failed: %v", f)
	}
	if d := r2.Unskew() - r1.Unskew(); d != heap.WordSize {
		t.Fatalf("3-byte allocation spans %d bytes, want one word", d)
	}
	if r1.Unskew()%heap.WordSize != 0 || r2.Unskew()%heap.WordSize != 0 {
		t.Fatalf("allocations not word aligned: %d, %d", r1.Unskew(), r2.Unskew())
	}
}

func TestAllocWordsMatchesBytes(t *testing.T) {
	a := heap.NewImage(1024)
	b := heap.NewImage(1024)
	ra, f := a.AllocWords(3)
	if f != nil {
		t.Fatalf("AllocWords failed: %v", f)
	}
	rb, f := b.AllocBytes(3 * heap.WordSize)
	if f != nil {
		t.Fatalf("AllocBytes failed: %v", f)
	}
	if ra != rb {
		t.Fatalf("AllocWords(3) = %v, AllocBytes(24) = %v, want identical", ra, rb)
	}
}

func TestAllocExhaustion(t *testing.T) {
	img := heap.NewImage(4 * heap.WordSize)
	if _, f := img.AllocWords(2); f != nil {
		t.Fatalf("first allocation failed: %v", f)
	}
	_, f := img.AllocWords(2)
	if f == nil || f.Code != heap.FaultExhausted {
		t.Fatalf("over-allocation = %v, want exhausted fault", f)
	}
	if _, f := img.AllocWords(1); f != nil {
		t.Fatalf("exhaustion must not corrupt the bump pointer: %v", f)
	}
}

func TestAllocNegative(t *testing.T) {
	img := heap.NewImage(1024)
	if _, f := img.AllocBytes(-1); f == nil {
		t.Fatal("AllocBytes(-1) must fault")
	}
}

func TestAllocTracer(t *testing.T) {
	img := heap.NewImage(1024)
	tr := &recordingTracer{}
	img.SetTracer(tr)

	r, f := img.AllocBlob([]byte("abc"))
	if f != nil {
		t.Fatalf("AllocBlob failed: %v", f)
	}
	if len(tr.refs) != 1 || tr.refs[0] != r {
		t.Fatalf("tracer saw %v, want [%v]", tr.refs, r)
	}

	img.SetTracer(nil)
	if _, f := img.AllocInt(1); f != nil {
		t.Fatalf("AllocInt failed: %v", f)
	}
	if len(tr.refs) != 1 {
		t.Fatalf("tracer called after removal")
	}
}

func TestRawCopyBetweenBlobs(t *testing.T) {
	img := heap.NewImage(1024)
	src, f := img.AllocBlob([]byte{1, 2, 3, 4, 5})
	if f != nil {
		t.Fatalf("AllocBlob failed: %v", f)
	}
	dst, f := img.AllocBlob(make([]byte, 5))
	if f != nil {
		t.Fatalf("AllocBlob failed: %v", f)
	}

	if f := img.RawCopy(dst.FieldAddr(2), src.FieldAddr(2), 5); f != nil {
		t.Fatalf("RawCopy failed: %v", f)
	}
	got, f := img.Bytes(dst)
	if f != nil {
		t.Fatalf("Bytes failed: %v", f)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("copied payload = %v", got)
	}
}

func TestRawCopyBounds(t *testing.T) {
	img := heap.NewImage(64)
	if f := img.RawCopy(8, 8, 1024); f == nil || f.Code != heap.FaultBadAddress {
		t.Fatalf("oversized RawCopy = %v, want bad-address fault", f)
	}
	if f := img.RawCopy(0, 8, 8); f == nil || f.Code != heap.FaultBadAddress {
		t.Fatalf("RawCopy into reserved word = %v, want bad-address fault", f)
	}
}

func TestFromBytesRoundTrip(t *testing.T) {
	img := heap.NewImage(1024)
	blob, f := img.AllocBlob([]byte("persisted"))
	if f != nil {
		t.Fatalf("AllocBlob failed: %v", f)
	}

	clone, f := heap.FromBytes(img.Used(), img.Capacity())
	if f != nil {
		t.Fatalf("FromBytes failed: %v", f)
	}
	if clone.Brk() != img.Brk() {
		t.Fatalf("clone brk = %d, want %d", clone.Brk(), img.Brk())
	}
	got, f := clone.Bytes(blob)
	if f != nil {
		t.Fatalf("Bytes on clone failed: %v", f)
	}
	if string(got) != "persisted" {
		t.Fatalf("clone payload = %q", got)
	}
}
