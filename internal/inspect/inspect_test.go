package inspect_test

import (
	"strings"
	"testing"

	"skiff/internal/heap"
	"skiff/internal/inspect"
)

func buildImage(t *testing.T) (*heap.Image, heap.Ref) {
	t.Helper()
	img := heap.NewImage(4096)
	blob, f := img.AllocBlob([]byte("hello"))
	if f != nil {
		t.Fatalf("AllocBlob failed: %v", f)
	}
	boxed, f := img.AllocInt(-3)
	if f != nil {
		t.Fatalf("AllocInt failed: %v", f)
	}
	if _, f := img.AllocArray([]heap.Ref{blob, boxed}); f != nil {
		t.Fatalf("AllocArray failed: %v", f)
	}
	return img, blob
}

func TestWalkVisitsEveryObject(t *testing.T) {
	img, _ := buildImage(t)
	recs, f := inspect.Walk(img)
	if f != nil {
		t.Fatalf("Walk failed: %v", f)
	}
	if len(recs) != 3 {
		t.Fatalf("Walk found %d objects, want 3", len(recs))
	}
	wantTags := []heap.Tag{heap.TagBlob, heap.TagInt, heap.TagArray}
	for i, rec := range recs {
		if rec.Tag != wantTags[i] {
			t.Fatalf("record %d tag = %v, want %v", i, rec.Tag, wantTags[i])
		}
	}
	// records must tile the allocated region exactly
	end := img.Base()
	for _, rec := range recs {
		if rec.Addr != end {
			t.Fatalf("record at %#x, expected %#x", uint64(rec.Addr), uint64(end))
		}
		end += heap.Addr(rec.Words) * heap.WordSize
	}
	if end != img.Brk() {
		t.Fatalf("walk ends at %#x, brk is %#x", uint64(end), uint64(img.Brk()))
	}
}

func TestWalkStopsOnCorruptTag(t *testing.T) {
	img, blob := buildImage(t)
	if f := img.SetWordAt(blob.FieldAddr(0), 77); f != nil {
		t.Fatalf("SetWordAt failed: %v", f)
	}
	recs, f := inspect.Walk(img)
	if f == nil || f.Code != heap.FaultBadTag {
		t.Fatalf("Walk on corrupt image = %v, want bad-tag fault", f)
	}
	if len(recs) != 0 {
		t.Fatalf("corruption sits at the first object, got %d records", len(recs))
	}
}

func TestDumpListsObjects(t *testing.T) {
	img, _ := buildImage(t)
	var sb strings.Builder
	if err := inspect.Dump(&sb, img, inspect.DumpOptions{}); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	out := sb.String()
	for _, want := range []string{"blob", "int", "array", `"hello"`, "3 objects"} {
		if !strings.Contains(out, want) {
			t.Fatalf("dump output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckCleanImage(t *testing.T) {
	img, _ := buildImage(t)
	if problems := inspect.Check(img); len(problems) != 0 {
		t.Fatalf("clean image reported problems: %v", problems)
	}
}

func TestCheckFindsWildReference(t *testing.T) {
	img := heap.NewImage(1024)
	blob, f := img.AllocBlob([]byte("x"))
	if f != nil {
		t.Fatalf("AllocBlob failed: %v", f)
	}
	arr, f := img.AllocArray([]heap.Ref{blob})
	if f != nil {
		t.Fatalf("AllocArray failed: %v", f)
	}

	// point the element far outside the allocated region
	if f := img.SetWordAt(arr.FieldAddr(2), uint64(heap.Skew(1<<16))); f != nil {
		t.Fatalf("SetWordAt failed: %v", f)
	}
	problems := inspect.Check(img)
	if len(problems) != 1 {
		t.Fatalf("problems = %v, want exactly one", problems)
	}
	if !strings.Contains(problems[0].Message, "outside the heap") {
		t.Fatalf("problem = %v, want wild-reference report", problems[0])
	}
}

func TestCheckFindsOversizedObject(t *testing.T) {
	img, blob := buildImage(t)
	// inflate the blob's length word far past the break
	if f := img.SetWordAt(blob.FieldAddr(1), 4000); f != nil {
		t.Fatalf("SetWordAt failed: %v", f)
	}
	problems := inspect.Check(img)
	if len(problems) == 0 {
		t.Fatal("oversized object went unreported")
	}
	if !strings.Contains(problems[0].Message, "past the break") {
		t.Fatalf("problem = %v, want past-the-break report", problems[0])
	}
}

func TestCheckSurvivesWildForwarding(t *testing.T) {
	img := heap.NewImage(1024)
	a, f := img.AllocBlob(nil)
	if f != nil {
		t.Fatalf("AllocBlob failed: %v", f)
	}
	if _, f := img.AllocSome(a); f != nil {
		t.Fatalf("AllocSome failed: %v", f)
	}
	// forward the blob to an address near the top of the 64-bit range
	if f := img.SetForwarding(a, heap.Ref(^uint64(0)-8)); f != nil {
		t.Fatalf("SetForwarding failed: %v", f)
	}

	problems := inspect.Check(img)
	if len(problems) == 0 {
		t.Fatal("wild forwarding went unreported")
	}
	found := false
	for _, p := range problems {
		if strings.Contains(p.Message, "outside the image") {
			found = true
		}
	}
	if !found {
		t.Fatalf("problems = %v, want a bad-address report", problems)
	}
}

func TestWalkFaultsOnWrappedLength(t *testing.T) {
	img, blob := buildImage(t)
	arr, f := img.AllocArray([]heap.Ref{blob})
	if f != nil {
		t.Fatalf("AllocArray failed: %v", f)
	}
	// a length word this large once wrapped the span to zero words and
	// pinned the walk in place; it has to surface as a fault instead
	if f := img.SetWordAt(arr.FieldAddr(1), 1<<63-2); f != nil {
		t.Fatalf("SetWordAt failed: %v", f)
	}

	recs, f := inspect.Walk(img)
	if f == nil || f.Code != heap.FaultOutOfBounds {
		t.Fatalf("Walk on wrapped length = %v, want out-of-bounds fault", f)
	}
	if len(recs) != 3 {
		t.Fatalf("walk stopped after %d records, want the 3 before the corruption", len(recs))
	}
	if problems := inspect.Check(img); len(problems) == 0 {
		t.Fatal("wrapped length went unreported by Check")
	}
}

func TestCheckFindsCyclicForwarding(t *testing.T) {
	img := heap.NewImage(1024)
	a, f := img.AllocBlob(nil)
	if f != nil {
		t.Fatalf("AllocBlob failed: %v", f)
	}
	b, f := img.AllocBlob(nil)
	if f != nil {
		t.Fatalf("AllocBlob failed: %v", f)
	}
	if _, f := img.AllocSome(a); f != nil {
		t.Fatalf("AllocSome failed: %v", f)
	}
	if f := img.SetForwarding(a, b); f != nil {
		t.Fatalf("SetForwarding failed: %v", f)
	}
	if f := img.SetForwarding(b, a); f != nil {
		t.Fatalf("SetForwarding failed: %v", f)
	}

	problems := inspect.Check(img)
	if len(problems) == 0 {
		t.Fatal("cyclic forwarding went unreported")
	}
	found := false
	for _, p := range problems {
		if strings.Contains(p.Message, heap.FaultCorruptChain.String()) {
			found = true
		}
	}
	if !found {
		t.Fatalf("problems = %v, want a corrupt-chain report", problems)
	}
}
