package heap

// Initialization of freshly allocated regions. The allocator hands back an
// untagged region; exactly one of these must run, to completion, before any
// other code observes the reference. Nothing else may look at the region
// yet, so write order inside them does not matter.

// InitBlob writes a blob header and payload into a fresh region.
func (img *Image) InitBlob(r Ref, payload []byte) *Fault {
	if f := img.setWord(r.FieldAddr(0), uint64(TagBlob)); f != nil {
		return f
	}
	if f := img.setWord(r.FieldAddr(1), uint64(len(payload))); f != nil {
		return f
	}
	dst, f := img.view(r.FieldAddr(2), len(payload))
	if f != nil {
		return f
	}
	copy(dst, payload)
	return nil
}

// InitArray writes an array header and elements into a fresh region.
func (img *Image) InitArray(r Ref, elems []Ref) *Fault {
	if f := img.setWord(r.FieldAddr(0), uint64(TagArray)); f != nil {
		return f
	}
	if f := img.setWord(r.FieldAddr(1), uint64(len(elems))); f != nil {
		return f
	}
	for i, e := range elems {
		if f := img.setWord(r.FieldAddr(2+i), uint64(e)); f != nil {
			return f
		}
	}
	return nil
}

// InitObject writes a general record header and fields into a fresh region.
func (img *Image) InitObject(r Ref, fields []Ref) *Fault {
	if f := img.setWord(r.FieldAddr(0), uint64(TagObject)); f != nil {
		return f
	}
	if f := img.setWord(r.FieldAddr(1), uint64(len(fields))); f != nil {
		return f
	}
	for i, e := range fields {
		if f := img.setWord(r.FieldAddr(2+i), uint64(e)); f != nil {
			return f
		}
	}
	return nil
}

// InitInt writes a boxed integer into a fresh region.
func (img *Image) InitInt(r Ref, v int64) *Fault {
	if f := img.setWord(r.FieldAddr(0), uint64(TagInt)); f != nil {
		return f
	}
	return img.setWord(r.FieldAddr(1), uint64(v))
}

// InitMutBox writes a mutable box into a fresh region.
func (img *Image) InitMutBox(r Ref, cell uint64) *Fault {
	if f := img.setWord(r.FieldAddr(0), uint64(TagMutBox)); f != nil {
		return f
	}
	return img.setWord(r.FieldAddr(1), cell)
}

// InitSome writes an optional-value wrapper into a fresh region.
func (img *Image) InitSome(r Ref, value Ref) *Fault {
	if f := img.setWord(r.FieldAddr(0), uint64(TagSome)); f != nil {
		return f
	}
	return img.setWord(r.FieldAddr(1), uint64(value))
}

// InitVariant writes a tagged-union value into a fresh region.
func (img *Image) InitVariant(r Ref, discriminant uint64, payload Ref) *Fault {
	if f := img.setWord(r.FieldAddr(0), uint64(TagVariant)); f != nil {
		return f
	}
	if f := img.setWord(r.FieldAddr(1), discriminant); f != nil {
		return f
	}
	return img.setWord(r.FieldAddr(2), uint64(payload))
}

// InitObjInd writes an object-level indirection into a fresh region.
func (img *Image) InitObjInd(r Ref, target Ref) *Fault {
	if f := img.setWord(r.FieldAddr(0), uint64(TagObjInd)); f != nil {
		return f
	}
	return img.setWord(r.FieldAddr(1), uint64(target))
}

// InitReference writes a back-reference wrapper into a fresh region.
func (img *Image) InitReference(r Ref, target Ref) *Fault {
	if f := img.setWord(r.FieldAddr(0), uint64(TagReference)); f != nil {
		return f
	}
	return img.setWord(r.FieldAddr(1), uint64(target))
}

// InitClosure writes a closure into a fresh region.
func (img *Image) InitClosure(r Ref, funcID uint64, captures []Ref) *Fault {
	if f := img.setWord(r.FieldAddr(0), uint64(TagClosure)); f != nil {
		return f
	}
	if f := img.setWord(r.FieldAddr(1), funcID); f != nil {
		return f
	}
	if f := img.setWord(r.FieldAddr(2), uint64(len(captures))); f != nil {
		return f
	}
	for i, c := range captures {
		if f := img.setWord(r.FieldAddr(3+i), uint64(c)); f != nil {
			return f
		}
	}
	return nil
}

// InitSmallWord writes a packed sub-word scalar into a fresh region.
func (img *Image) InitSmallWord(r Ref, v uint32) *Fault {
	if f := img.setWord(r.FieldAddr(0), uint64(TagSmallWord)); f != nil {
		return f
	}
	return img.setWord(r.FieldAddr(1), uint64(v))
}

// InitBigInt writes a big integer header and opaque payload into a fresh
// region.
func (img *Image) InitBigInt(r Ref, payload []byte) *Fault {
	if f := img.setWord(r.FieldAddr(0), uint64(TagBigInt)); f != nil {
		return f
	}
	if f := img.setWord(r.FieldAddr(1), uint64(len(payload))); f != nil {
		return f
	}
	dst, f := img.view(r.FieldAddr(2), len(payload))
	if f != nil {
		return f
	}
	copy(dst, payload)
	return nil
}
