package inspect

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"skiff/internal/heap"
)

// DumpOptions controls dump rendering.
type DumpOptions struct {
	Color bool
}

var tagColors = map[heap.Tag]lipgloss.Color{
	heap.TagObject:      lipgloss.Color("4"),
	heap.TagObjInd:      lipgloss.Color("12"),
	heap.TagArray:       lipgloss.Color("2"),
	heap.TagReference:   lipgloss.Color("12"),
	heap.TagInt:         lipgloss.Color("3"),
	heap.TagMutBox:      lipgloss.Color("5"),
	heap.TagClosure:     lipgloss.Color("6"),
	heap.TagSome:        lipgloss.Color("10"),
	heap.TagVariant:     lipgloss.Color("10"),
	heap.TagBlob:        lipgloss.Color("2"),
	heap.TagIndirection: lipgloss.Color("1"),
	heap.TagSmallWord:   lipgloss.Color("3"),
	heap.TagBigInt:      lipgloss.Color("3"),
}

// Dump writes a human-readable listing of every object in the image. It
// returns the walk fault when the image is malformed, after printing what
// could be read up to that point.
func Dump(w io.Writer, img *heap.Image, opts DumpOptions) error {
	recs, fault := Walk(img)

	headerStyle := lipgloss.NewStyle()
	if opts.Color {
		headerStyle = headerStyle.Bold(true).Foreground(lipgloss.Color("7"))
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-10s %-12s %6s %6s  %s", "ADDR", "TAG", "WORDS", "LEN", "PREVIEW")))

	totalWords := 0
	for _, rec := range recs {
		tagLabel := rec.Tag.String()
		if opts.Color {
			if c, ok := tagColors[rec.Tag]; ok {
				tagLabel = lipgloss.NewStyle().Foreground(c).Render(tagLabel)
				// pad manually: styled strings defeat %-12s
				for i := len(rec.Tag.String()); i < 12; i++ {
					tagLabel += " "
				}
			}
		} else {
			tagLabel = fmt.Sprintf("%-12s", tagLabel)
		}
		lenLabel := ""
		if rec.Len >= 0 {
			lenLabel = fmt.Sprintf("%d", rec.Len)
		}
		fmt.Fprintf(w, "%#010x %s %6d %6s  %s\n", uint64(rec.Addr), tagLabel, rec.Words, lenLabel, rec.Preview)
		totalWords += rec.Words
	}

	fmt.Fprintf(w, "%d objects, %d words in [%#x, %#x)\n", len(recs), totalWords, uint64(img.Base()), uint64(img.Brk()))
	if fault != nil {
		fmt.Fprintf(w, "walk stopped at %#x: %v\n", uint64(img.Base())+uint64(totalWords)*heap.WordSize, fault)
		return fault
	}
	return nil
}
