package heap

// Addr is a raw byte offset into a heap image. Field words live at
// word-aligned addresses; Addr(0) is never handed out (see Image).
type Addr uint64

// Ref is a skewed reference to a heap object. The skew keeps every live
// reference distinct from the all-zero pattern, so NilRef can safely mean
// "no object" throughout the runtime.
//
// Only this codec converts between Ref and Addr. Every other component
// works on Ref exclusively and reaches fields through FieldAddr.
type Ref uint64

// NilRef is the null reference. It must never be unskewed.
const NilRef Ref = 0

// WordSize is the width of a heap word in bytes. Together with skewOffset
// and the tag-first field order this is a frozen ABI shared with the
// managed runtime's code generator.
const WordSize = 8

// skewOffset is the fixed one-byte displacement applied to every raw
// address to form a reference.
const skewOffset = 1

// Skew encodes the raw address of an object's tag word as a reference.
func Skew(a Addr) Ref {
	return Ref(uint64(a) - skewOffset)
}

// Unskew recovers the raw address of the tag word. Callers must never pass
// NilRef; the codec does not check for it.
func (r Ref) Unskew() Addr {
	return Addr(uint64(r) + skewOffset)
}

// FieldAddr returns the address of field i of the object r points at,
// counting the tag word as field 0.
func (r Ref) FieldAddr(i int) Addr {
	return r.Unskew() + Addr(i)*WordSize
}
