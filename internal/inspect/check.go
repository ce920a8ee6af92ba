package inspect

import (
	"fmt"

	"skiff/internal/heap"
)

// Problem is one invariant violation found by Check.
type Problem struct {
	Addr    heap.Addr
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%#x: %s", uint64(p.Addr), p.Message)
}

// Check verifies the image's representation invariants: every tag word is
// a member of the closed enumeration, lengths stay inside the image,
// every reference field lands on an allocated object, and no forwarding
// chain is cyclic. It reports everything it can find rather than stopping
// at the first violation.
func Check(img *heap.Image) []Problem {
	var problems []Problem

	recs, fault := Walk(img)
	if fault != nil {
		resume := img.Base()
		for _, rec := range recs {
			resume += heap.Addr(rec.Words) * heap.WordSize
		}
		problems = append(problems, Problem{Addr: resume, Message: fault.Error()})
	}

	starts := make(map[heap.Addr]bool, len(recs))
	for _, rec := range recs {
		starts[rec.Addr] = true
	}

	for _, rec := range recs {
		end := rec.Addr + heap.Addr(rec.Words)*heap.WordSize
		if end > img.Brk() {
			problems = append(problems, Problem{Addr: rec.Addr, Message: fmt.Sprintf("object of %d words extends past the break (%#x)", rec.Words, uint64(img.Brk()))})
		}
		for _, field := range refFields(rec) {
			w, f := img.WordAt(rec.Ref.FieldAddr(field))
			if f != nil {
				problems = append(problems, Problem{Addr: rec.Addr, Message: f.Error()})
				continue
			}
			target := heap.Ref(w)
			if target == heap.NilRef {
				problems = append(problems, Problem{Addr: rec.Addr, Message: fmt.Sprintf("field %d holds the null pattern", field)})
				continue
			}
			ta := target.Unskew()
			if ta < img.Base() || ta >= img.Brk() {
				problems = append(problems, Problem{Addr: rec.Addr, Message: fmt.Sprintf("field %d points outside the heap (%#x)", field, uint64(ta))})
				continue
			}
			if !starts[ta] {
				problems = append(problems, Problem{Addr: rec.Addr, Message: fmt.Sprintf("field %d points into the middle of an object (%#x)", field, uint64(ta))})
				continue
			}
			if _, f := img.Resolve(target); f != nil {
				problems = append(problems, Problem{Addr: rec.Addr, Message: fmt.Sprintf("field %d: %v", field, f)})
			}
		}
	}
	return problems
}

// refFields returns the field indexes of rec that hold references. Field
// counts come from rec.Words, which Walk has already bounded against the
// break, not from rereading length words out of the image.
func refFields(rec Record) []int {
	switch rec.Tag {
	case heap.TagArray, heap.TagObject:
		fields := make([]int, 0, rec.Words-2)
		for i := 0; i < rec.Words-2; i++ {
			fields = append(fields, 2+i)
		}
		return fields
	case heap.TagClosure:
		fields := make([]int, 0, rec.Words-3)
		for i := 0; i < rec.Words-3; i++ {
			fields = append(fields, 3+i)
		}
		return fields
	case heap.TagSome, heap.TagObjInd, heap.TagReference, heap.TagIndirection:
		return []int{1}
	case heap.TagVariant:
		return []int{2}
	default:
		// int, smallword, mutbox, blob, bigint carry no reference fields
		// this layer can vouch for
		return nil
	}
}
