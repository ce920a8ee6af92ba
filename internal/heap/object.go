package heap

import "fortio.org/safecast"

// maxForwardHops bounds indirection chains. A well-formed heap never
// forwards more than a handful of times between collections; a chain this
// deep is cyclic corruption.
const maxForwardHops = 64

// Resolve follows forwarding until it reaches an object whose tag is not
// Indirection, and returns that object's reference. Non-indirection
// references come back unchanged. The result is only stable until the
// next call that may allocate; after that, resolve again.
func (img *Image) Resolve(r Ref) (Ref, *Fault) {
	for hop := 0; hop < maxForwardHops; hop++ {
		w, f := img.word(r.FieldAddr(0))
		if f != nil {
			return NilRef, f
		}
		if Tag(w) != TagIndirection {
			return r, nil
		}
		t, f := img.word(r.FieldAddr(1))
		if f != nil {
			return NilRef, f
		}
		r = Ref(t)
	}
	return NilRef, corruptChain(maxForwardHops)
}

// TagOf returns the object's kind, resolving indirections first.
func (img *Image) TagOf(r Ref) (Tag, *Fault) {
	r, f := img.Resolve(r)
	if f != nil {
		return TagInvalid, f
	}
	w, f := img.word(r.FieldAddr(0))
	if f != nil {
		return TagInvalid, f
	}
	t := Tag(w)
	if !t.Valid() {
		return TagInvalid, badTag(w)
	}
	return t, nil
}

// want resolves r and checks that it carries the expected tag.
func (img *Image) want(r Ref, t Tag) (Ref, *Fault) {
	r, f := img.Resolve(r)
	if f != nil {
		return NilRef, f
	}
	w, f := img.word(r.FieldAddr(0))
	if f != nil {
		return NilRef, f
	}
	got := Tag(w)
	if !got.Valid() {
		return NilRef, badTag(w)
	}
	if got != t {
		return NilRef, invalidKind(t, got)
	}
	return r, nil
}

func (img *Image) lenWord(r Ref) (int, *Fault) {
	w, f := img.word(r.FieldAddr(1))
	if f != nil {
		return 0, f
	}
	n, err := safecast.Conv[int](w)
	if err != nil {
		return 0, &Fault{Code: FaultOutOfBounds, Message: "length word overflows the native integer range"}
	}
	return n, nil
}

// Len returns the element count of an array or the byte count of a blob.
func (img *Image) Len(r Ref) (int, *Fault) {
	r, f := img.Resolve(r)
	if f != nil {
		return 0, f
	}
	t, f := img.TagOf(r)
	if f != nil {
		return 0, f
	}
	if !t.HasLen() {
		return 0, invalidKind(TagArray, t)
	}
	return img.lenWord(r)
}

// Elem returns array element i.
func (img *Image) Elem(r Ref, i int) (Ref, *Fault) {
	r, f := img.want(r, TagArray)
	if f != nil {
		return NilRef, f
	}
	n, f := img.lenWord(r)
	if f != nil {
		return NilRef, f
	}
	if i < 0 || i >= n {
		return NilRef, outOfBounds(i, n)
	}
	w, f := img.word(r.FieldAddr(2 + i))
	if f != nil {
		return NilRef, f
	}
	return Ref(w), nil
}

// SetElem writes array element i. Array elements are only written while
// the object is still being initialized by the code that allocated it.
func (img *Image) SetElem(r Ref, i int, v Ref) *Fault {
	r, f := img.want(r, TagArray)
	if f != nil {
		return f
	}
	n, f := img.lenWord(r)
	if f != nil {
		return f
	}
	if i < 0 || i >= n {
		return outOfBounds(i, n)
	}
	return img.setWord(r.FieldAddr(2+i), uint64(v))
}

// Bytes returns a zero-copy view of a blob's payload. The view must not
// outlive the current call.
func (img *Image) Bytes(r Ref) ([]byte, *Fault) {
	r, f := img.want(r, TagBlob)
	if f != nil {
		return nil, f
	}
	n, f := img.lenWord(r)
	if f != nil {
		return nil, f
	}
	return img.view(r.FieldAddr(2), n)
}

// IntVal returns the value of a boxed integer.
func (img *Image) IntVal(r Ref) (int64, *Fault) {
	r, f := img.want(r, TagInt)
	if f != nil {
		return 0, f
	}
	w, f := img.word(r.FieldAddr(1))
	if f != nil {
		return 0, f
	}
	return int64(w), nil
}

// MutBoxGet reads the cell of a mutable box.
func (img *Image) MutBoxGet(r Ref) (uint64, *Fault) {
	r, f := img.want(r, TagMutBox)
	if f != nil {
		return 0, f
	}
	return img.word(r.FieldAddr(1))
}

// MutBoxSet writes the cell of a mutable box. The cell is the only
// general-purpose mutable field in the layout.
func (img *Image) MutBoxSet(r Ref, v uint64) *Fault {
	r, f := img.want(r, TagMutBox)
	if f != nil {
		return f
	}
	return img.setWord(r.FieldAddr(1), v)
}

// SomeValue returns the wrapped reference of an optional value.
func (img *Image) SomeValue(r Ref) (Ref, *Fault) {
	r, f := img.want(r, TagSome)
	if f != nil {
		return NilRef, f
	}
	w, f := img.word(r.FieldAddr(1))
	if f != nil {
		return NilRef, f
	}
	return Ref(w), nil
}

// VariantTag returns the discriminant of a tagged-union value.
func (img *Image) VariantTag(r Ref) (uint64, *Fault) {
	r, f := img.want(r, TagVariant)
	if f != nil {
		return 0, f
	}
	return img.word(r.FieldAddr(1))
}

// VariantPayload returns the payload reference of a tagged-union value.
func (img *Image) VariantPayload(r Ref) (Ref, *Fault) {
	r, f := img.want(r, TagVariant)
	if f != nil {
		return NilRef, f
	}
	w, f := img.word(r.FieldAddr(2))
	if f != nil {
		return NilRef, f
	}
	return Ref(w), nil
}

// ObjIndTarget returns the target of an object-level indirection.
func (img *Image) ObjIndTarget(r Ref) (Ref, *Fault) {
	r, f := img.want(r, TagObjInd)
	if f != nil {
		return NilRef, f
	}
	w, f := img.word(r.FieldAddr(1))
	if f != nil {
		return NilRef, f
	}
	return Ref(w), nil
}

// ReferenceTarget returns the target of a back-reference wrapper.
func (img *Image) ReferenceTarget(r Ref) (Ref, *Fault) {
	r, f := img.want(r, TagReference)
	if f != nil {
		return NilRef, f
	}
	w, f := img.word(r.FieldAddr(1))
	if f != nil {
		return NilRef, f
	}
	return Ref(w), nil
}

// ClosureFunc returns the function identifier of a closure.
func (img *Image) ClosureFunc(r Ref) (uint64, *Fault) {
	r, f := img.want(r, TagClosure)
	if f != nil {
		return 0, f
	}
	return img.word(r.FieldAddr(1))
}

// ClosureLen returns the number of captured-environment fields.
func (img *Image) ClosureLen(r Ref) (int, *Fault) {
	r, f := img.want(r, TagClosure)
	if f != nil {
		return 0, f
	}
	w, f := img.word(r.FieldAddr(2))
	if f != nil {
		return 0, f
	}
	n, err := safecast.Conv[int](w)
	if err != nil {
		return 0, &Fault{Code: FaultOutOfBounds, Message: "capture count overflows the native integer range"}
	}
	return n, nil
}

// ClosureCapture returns captured-environment field i.
func (img *Image) ClosureCapture(r Ref, i int) (Ref, *Fault) {
	r, f := img.want(r, TagClosure)
	if f != nil {
		return NilRef, f
	}
	n, f := img.ClosureLen(r)
	if f != nil {
		return NilRef, f
	}
	if i < 0 || i >= n {
		return NilRef, outOfBounds(i, n)
	}
	w, f := img.word(r.FieldAddr(3 + i))
	if f != nil {
		return NilRef, f
	}
	return Ref(w), nil
}

// ObjectFieldCount returns the field count of a general record.
func (img *Image) ObjectFieldCount(r Ref) (int, *Fault) {
	r, f := img.want(r, TagObject)
	if f != nil {
		return 0, f
	}
	return img.lenWord(r)
}

// ObjectField returns field i of a general record.
func (img *Image) ObjectField(r Ref, i int) (Ref, *Fault) {
	r, f := img.want(r, TagObject)
	if f != nil {
		return NilRef, f
	}
	n, f := img.lenWord(r)
	if f != nil {
		return NilRef, f
	}
	if i < 0 || i >= n {
		return NilRef, outOfBounds(i, n)
	}
	w, f := img.word(r.FieldAddr(2 + i))
	if f != nil {
		return NilRef, f
	}
	return Ref(w), nil
}

// SmallWordVal returns the packed sub-word scalar.
func (img *Image) SmallWordVal(r Ref) (uint32, *Fault) {
	r, f := img.want(r, TagSmallWord)
	if f != nil {
		return 0, f
	}
	w, f := img.word(r.FieldAddr(1))
	if f != nil {
		return 0, f
	}
	v, err := safecast.Conv[uint32](w)
	if err != nil {
		return 0, &Fault{Code: FaultInvalidKind, Message: "smallword payload exceeds the sub-word range"}
	}
	return v, nil
}

// BigIntBytes returns a zero-copy view of a big integer's payload. Its
// encoding is owned by the arbitrary-precision collaborator; this layer
// only carries it.
func (img *Image) BigIntBytes(r Ref) ([]byte, *Fault) {
	r, f := img.want(r, TagBigInt)
	if f != nil {
		return nil, f
	}
	n, f := img.lenWord(r)
	if f != nil {
		return nil, f
	}
	return img.view(r.FieldAddr(2), n)
}

// SetForwarding retags the object at r into an indirection to target.
// This is the relocation write: the target goes in before the tag flips,
// so a reader never observes an indirection without a destination. r must
// be the unresolved reference to the object being moved.
func (img *Image) SetForwarding(r Ref, target Ref) *Fault {
	if f := img.setWord(r.FieldAddr(1), uint64(target)); f != nil {
		return f
	}
	return img.setWord(r.FieldAddr(0), uint64(TagIndirection))
}

// SpanAt returns the size in words of the object whose tag word sits at
// a, without resolving indirections. The inspector uses it to walk the
// image object by object. Length words come straight out of the image,
// so a span is only reported when it fits inside [a, Brk); anything
// larger is a fault, which also keeps the arithmetic below away from
// overflow.
func (img *Image) SpanAt(a Addr) (int, *Fault) {
	w, f := img.word(a)
	if f != nil {
		return 0, f
	}
	t := Tag(w)
	if !t.Valid() {
		return 0, badTag(w)
	}
	remaining := 0
	if a < img.brk {
		remaining = int((img.brk - a) / WordSize)
	}
	switch t {
	case TagObject, TagArray:
		n, f := img.lenWord(Skew(a))
		if f != nil {
			return 0, f
		}
		if n > remaining-2 {
			return 0, spanFault(n, remaining)
		}
		return 2 + n, nil
	case TagBlob, TagBigInt:
		n, f := img.lenWord(Skew(a))
		if f != nil {
			return 0, f
		}
		if n > (remaining-2)*WordSize {
			return 0, spanFault(n, remaining)
		}
		return 2 + roundWords(n), nil
	case TagClosure:
		n, f := img.ClosureLen(Skew(a))
		if f != nil {
			return 0, f
		}
		if n > remaining-3 {
			return 0, spanFault(n, remaining)
		}
		return 3 + n, nil
	case TagVariant:
		if remaining < 3 {
			return 0, spanFault(0, remaining)
		}
		return 3, nil
	default:
		// objind, reference, int, mutbox, some, indirection, smallword
		if remaining < 2 {
			return 0, spanFault(0, remaining)
		}
		return 2, nil
	}
}
