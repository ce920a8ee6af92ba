package heap

// Allocator is the managed allocator's entry points as native code sees
// them. Native code only ever requests growth; the managed runtime owns
// every byte it hands back. A returned region carries no tag yet and must
// be fully initialized before any other code can observe it. The region is
// not promised to be zeroed.
//
// Any call that allocates may trigger a collection cycle, so every cached
// reference must be re-resolved through Resolve afterwards.
type Allocator interface {
	AllocBytes(n int) (Ref, *Fault)
	AllocWords(n int) (Ref, *Fault)
}

// AllocTracer observes allocations as they happen.
type AllocTracer interface {
	TraceAlloc(ref Ref, bytes int)
}

var _ Allocator = (*Image)(nil)

func roundWords(n int) int {
	return (n + WordSize - 1) / WordSize
}

// AllocBytes reserves n bytes of fresh heap space, rounded up to a whole
// number of words, and returns a reference to the start of the region.
func (img *Image) AllocBytes(n int) (Ref, *Fault) {
	if n < 0 {
		return NilRef, badAddress(img.brk, n)
	}
	size := Addr(roundWords(n) * WordSize)
	if img.brk+size > Addr(len(img.mem)) {
		return NilRef, exhausted(n, len(img.mem)-int(img.brk))
	}
	a := img.brk
	img.brk += size
	r := Skew(a)
	if img.tracer != nil {
		img.tracer.TraceAlloc(r, n)
	}
	return r, nil
}

// AllocWords reserves n words of fresh heap space.
func (img *Image) AllocWords(n int) (Ref, *Fault) {
	return img.AllocBytes(n * WordSize)
}

// AllocBlob allocates and initializes a blob holding payload.
func (img *Image) AllocBlob(payload []byte) (Ref, *Fault) {
	r, f := img.AllocWords(2 + roundWords(len(payload)))
	if f != nil {
		return NilRef, f
	}
	if f := img.InitBlob(r, payload); f != nil {
		return NilRef, f
	}
	return r, nil
}

// AllocString allocates a blob holding the bytes of s. Text blobs share
// the blob layout; the caller vouches for the encoding.
func (img *Image) AllocString(s string) (Ref, *Fault) {
	return img.AllocBlob([]byte(s))
}

// AllocArray allocates and initializes an array of the given elements.
func (img *Image) AllocArray(elems []Ref) (Ref, *Fault) {
	r, f := img.AllocWords(2 + len(elems))
	if f != nil {
		return NilRef, f
	}
	if f := img.InitArray(r, elems); f != nil {
		return NilRef, f
	}
	return r, nil
}

// AllocObject allocates and initializes a general record.
func (img *Image) AllocObject(fields []Ref) (Ref, *Fault) {
	r, f := img.AllocWords(2 + len(fields))
	if f != nil {
		return NilRef, f
	}
	if f := img.InitObject(r, fields); f != nil {
		return NilRef, f
	}
	return r, nil
}

// AllocInt allocates a boxed machine-width integer.
func (img *Image) AllocInt(v int64) (Ref, *Fault) {
	r, f := img.AllocWords(2)
	if f != nil {
		return NilRef, f
	}
	if f := img.InitInt(r, v); f != nil {
		return NilRef, f
	}
	return r, nil
}

// AllocMutBox allocates a mutable box holding cell.
func (img *Image) AllocMutBox(cell uint64) (Ref, *Fault) {
	r, f := img.AllocWords(2)
	if f != nil {
		return NilRef, f
	}
	if f := img.InitMutBox(r, cell); f != nil {
		return NilRef, f
	}
	return r, nil
}

// AllocSome allocates an optional-value wrapper around value.
func (img *Image) AllocSome(value Ref) (Ref, *Fault) {
	r, f := img.AllocWords(2)
	if f != nil {
		return NilRef, f
	}
	if f := img.InitSome(r, value); f != nil {
		return NilRef, f
	}
	return r, nil
}

// AllocVariant allocates a tagged-union value.
func (img *Image) AllocVariant(discriminant uint64, payload Ref) (Ref, *Fault) {
	r, f := img.AllocWords(3)
	if f != nil {
		return NilRef, f
	}
	if f := img.InitVariant(r, discriminant, payload); f != nil {
		return NilRef, f
	}
	return r, nil
}

// AllocObjInd allocates an object-level indirection to target.
func (img *Image) AllocObjInd(target Ref) (Ref, *Fault) {
	r, f := img.AllocWords(2)
	if f != nil {
		return NilRef, f
	}
	if f := img.InitObjInd(r, target); f != nil {
		return NilRef, f
	}
	return r, nil
}

// AllocReference allocates a back-reference wrapper around target. The
// edge is not an ownership edge.
func (img *Image) AllocReference(target Ref) (Ref, *Fault) {
	r, f := img.AllocWords(2)
	if f != nil {
		return NilRef, f
	}
	if f := img.InitReference(r, target); f != nil {
		return NilRef, f
	}
	return r, nil
}

// AllocClosure allocates a closure over funcID capturing captures.
func (img *Image) AllocClosure(funcID uint64, captures []Ref) (Ref, *Fault) {
	r, f := img.AllocWords(3 + len(captures))
	if f != nil {
		return NilRef, f
	}
	if f := img.InitClosure(r, funcID, captures); f != nil {
		return NilRef, f
	}
	return r, nil
}

// AllocSmallWord allocates a packed sub-word scalar.
func (img *Image) AllocSmallWord(v uint32) (Ref, *Fault) {
	r, f := img.AllocWords(2)
	if f != nil {
		return NilRef, f
	}
	if f := img.InitSmallWord(r, v); f != nil {
		return NilRef, f
	}
	return r, nil
}

// AllocBigInt allocates a big integer with the given opaque payload. The
// payload's encoding belongs to the arbitrary-precision collaborator.
func (img *Image) AllocBigInt(payload []byte) (Ref, *Fault) {
	r, f := img.AllocWords(2 + roundWords(len(payload)))
	if f != nil {
		return NilRef, f
	}
	if f := img.InitBigInt(r, payload); f != nil {
		return NilRef, f
	}
	return r, nil
}
