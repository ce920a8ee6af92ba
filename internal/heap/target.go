package heap

// Target pins down the binary layout contract shared with the managed
// runtime's code generator: word width, skew displacement, and byte order.
// Changing any of these requires a synchronized change on the managed
// side, so collaborators compare Targets instead of assuming.
type Target struct {
	WordSize   int
	SkewOffset int
	ByteOrder  string // "little" is the only deployed order
}

// DefaultTarget returns the layout this package is built for.
func DefaultTarget() Target {
	return Target{
		WordSize:   WordSize,
		SkewOffset: skewOffset,
		ByteOrder:  "little",
	}
}
