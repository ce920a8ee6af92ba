// Package inspect walks heap images object by object and reports on what
// it finds. It reads through the raw header view, never the resolving
// accessors, so indirection hulls and half-corrupt images stay visible
// instead of being smoothed over.
package inspect

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"

	"skiff/internal/heap"
)

const previewWidth = 32

// Record describes one object encountered during a walk.
type Record struct {
	Addr    heap.Addr
	Ref     heap.Ref
	Tag     heap.Tag
	Words   int
	Len     int // element or byte count; -1 when the kind has none
	Preview string
}

// Walk visits every object between the image base and its break, in
// address order. It returns the records gathered so far plus the fault
// that stopped it, if any.
func Walk(img *heap.Image) ([]Record, *heap.Fault) {
	var recs []Record
	for a := img.Base(); a < img.Brk(); {
		words, f := img.SpanAt(a)
		if f != nil {
			return recs, f
		}
		w, f := img.WordAt(a)
		if f != nil {
			return recs, f
		}
		rec := Record{
			Addr:  a,
			Ref:   heap.Skew(a),
			Tag:   heap.Tag(w),
			Words: words,
			Len:   -1,
		}
		rec.Len, rec.Preview = describe(img, rec)
		recs = append(recs, rec)
		a += heap.Addr(words) * heap.WordSize
	}
	return recs, nil
}

func describe(img *heap.Image, rec Record) (int, string) {
	r := rec.Ref
	switch rec.Tag {
	case heap.TagBlob:
		n := rawLen(img, r)
		b, f := img.BytesAt(r.FieldAddr(2), n)
		if f != nil {
			return n, ""
		}
		return n, blobPreview(b)
	case heap.TagBigInt:
		n := rawLen(img, r)
		return n, fmt.Sprintf("%d opaque bytes", n)
	case heap.TagArray, heap.TagObject:
		return rawLen(img, r), ""
	case heap.TagClosure:
		fn, _ := img.WordAt(r.FieldAddr(1))
		n64, _ := img.WordAt(r.FieldAddr(2))
		return int(n64), fmt.Sprintf("func #%d", fn)
	case heap.TagInt:
		w, _ := img.WordAt(r.FieldAddr(1))
		return -1, fmt.Sprintf("%d", int64(w))
	case heap.TagSmallWord:
		w, _ := img.WordAt(r.FieldAddr(1))
		return -1, fmt.Sprintf("%d", w)
	case heap.TagMutBox:
		w, _ := img.WordAt(r.FieldAddr(1))
		return -1, fmt.Sprintf("cell=%#x", w)
	case heap.TagVariant:
		d, _ := img.WordAt(r.FieldAddr(1))
		return -1, fmt.Sprintf("case #%d", d)
	case heap.TagSome, heap.TagObjInd, heap.TagReference, heap.TagIndirection:
		w, _ := img.WordAt(r.FieldAddr(1))
		return -1, fmt.Sprintf("-> %#x", w)
	default:
		return -1, ""
	}
}

func rawLen(img *heap.Image, r heap.Ref) int {
	w, f := img.WordAt(r.FieldAddr(1))
	if f != nil {
		return 0
	}
	return int(w)
}

// blobPreview renders a payload as normalized text when it is valid
// encoded text, and as hex otherwise.
func blobPreview(b []byte) string {
	if utf8.Valid(b) && isPrintable(b) {
		s := norm.NFC.String(string(b))
		return fmt.Sprintf("%q", runewidth.Truncate(s, previewWidth, "…"))
	}
	var sb strings.Builder
	for i, c := range b {
		if i >= previewWidth/2 {
			sb.WriteString("…")
			break
		}
		fmt.Fprintf(&sb, "%02x", c)
	}
	return sb.String()
}

func isPrintable(b []byte) bool {
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && r != '\n' && r != '\t' {
			return false
		}
	}
	return true
}
