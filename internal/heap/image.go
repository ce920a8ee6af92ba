package heap

import "encoding/binary"

// Image is the native-visible view of the managed runtime's heap: a
// word-addressed byte arena plus the allocator's bump pointer. Addresses
// are byte offsets into the arena. The first word is reserved so that no
// valid reference ever encodes to NilRef.
//
// The managed runtime is the single logical owner of the heap; an Image is
// a transient window onto it and must only be touched from the call that
// received it. Nothing here blocks or spawns.
type Image struct {
	mem    []byte
	brk    Addr // next free byte; everything below is allocated
	tracer AllocTracer

	// words are stored little-endian, matching the managed code generator
	byteOrder binary.ByteOrder
}

// NewImage returns an empty image with the given capacity in bytes,
// rounded up to a whole number of words.
func NewImage(capacity int) *Image {
	if capacity < WordSize {
		capacity = WordSize
	}
	words := (capacity + WordSize - 1) / WordSize
	return &Image{
		mem:       make([]byte, words*WordSize),
		brk:       WordSize,
		byteOrder: binary.LittleEndian,
	}
}

// FromBytes reconstructs an image whose allocated portion is mem, with at
// least capacity bytes of arena. Used by the snapshot loader.
func FromBytes(mem []byte, capacity int) (*Image, *Fault) {
	if len(mem) < WordSize || len(mem)%WordSize != 0 {
		return nil, badAddress(Addr(len(mem)), 0)
	}
	if capacity < len(mem) {
		capacity = len(mem)
	}
	img := NewImage(capacity)
	copy(img.mem, mem)
	img.brk = Addr(len(mem))
	return img, nil
}

// Base returns the address of the first allocatable word.
func (img *Image) Base() Addr {
	return WordSize
}

// Brk returns the bump pointer: objects occupy [Base, Brk).
func (img *Image) Brk() Addr {
	return img.brk
}

// Capacity returns the arena size in bytes.
func (img *Image) Capacity() int {
	return len(img.mem)
}

// Used returns a copy of the allocated portion of the arena, reserved
// word included. Used by the snapshot writer.
func (img *Image) Used() []byte {
	out := make([]byte, img.brk)
	copy(out, img.mem[:img.brk])
	return out
}

// SetTracer installs an allocation observer. Pass nil to remove it.
func (img *Image) SetTracer(t AllocTracer) {
	img.tracer = t
}

// inBounds rejects any n-byte access not fully inside the arena. Written
// without address additions: a corrupt word read back out of an image can
// sit anywhere in the 64-bit range, and a+n must not wrap past the check.
func (img *Image) inBounds(a Addr, n int) bool {
	if n < 0 || a < WordSize || a > Addr(len(img.mem)) {
		return false
	}
	return Addr(len(img.mem))-a >= Addr(n)
}

func (img *Image) word(a Addr) (uint64, *Fault) {
	if !img.inBounds(a, WordSize) {
		return 0, badAddress(a, WordSize)
	}
	return img.byteOrder.Uint64(img.mem[a : a+WordSize]), nil
}

func (img *Image) setWord(a Addr, w uint64) *Fault {
	if !img.inBounds(a, WordSize) {
		return badAddress(a, WordSize)
	}
	img.byteOrder.PutUint64(img.mem[a:a+WordSize], w)
	return nil
}

func (img *Image) view(a Addr, n int) ([]byte, *Fault) {
	if !img.inBounds(a, n) {
		return nil, badAddress(a, n)
	}
	return img.mem[a : a+Addr(n)], nil
}

// WordAt is the raw header view: it reads one word without resolving
// indirections or checking tags. Collaborators that walk the heap before
// knowing an object's kind (the inspector, the relocating collector) use
// it; everything else goes through the typed accessors.
func (img *Image) WordAt(a Addr) (uint64, *Fault) {
	return img.word(a)
}

// SetWordAt writes one raw word. Reserved for collaborators that own a
// documented mutation, such as relocation.
func (img *Image) SetWordAt(a Addr, w uint64) *Fault {
	return img.setWord(a, w)
}

// BytesAt returns a zero-copy view of n bytes starting at a. The view
// must not outlive the current call into native code.
func (img *Image) BytesAt(a Addr, n int) ([]byte, *Fault) {
	return img.view(a, n)
}

// RawCopy copies n bytes from src to dst inside the image, blob payloads
// included. Callers must capture stable addresses via Resolve first; a
// copy racing a relocation is the caller's corruption to keep.
func (img *Image) RawCopy(dst, src Addr, n int) *Fault {
	s, f := img.view(src, n)
	if f != nil {
		return f
	}
	d, f := img.view(dst, n)
	if f != nil {
		return f
	}
	copy(d, s)
	return nil
}
