package heap

import "fmt"

// FaultCode identifies the kind of heap fault.
type FaultCode int

// Stable fault codes - do not change values.
const (
	FaultInvalidKind  FaultCode = 2001 // RT2001: accessor used on the wrong object kind
	FaultOutOfBounds  FaultCode = 2002 // RT2002: index or range outside an object's length
	FaultCorruptChain FaultCode = 2003 // RT2003: forwarding chain exceeded the hop guard
	FaultExhausted    FaultCode = 2004 // RT2004: allocator out of space
	FaultBadTag       FaultCode = 2005 // RT2005: tag word outside the closed enumeration
	FaultBadAddress   FaultCode = 2006 // RT2006: access outside the image
)

// String returns the code as "RT2001" format.
func (c FaultCode) String() string {
	return fmt.Sprintf("RT%d", c)
}

// Fault reports a violated representation contract between native and
// managed code. No fault is retryable: in production every fault escalates
// to the trap boundary (see Trapper); tests and debug builds observe it as
// an ordinary error value instead.
type Fault struct {
	Code    FaultCode
	Message string
}

// Error implements the error interface.
func (f *Fault) Error() string {
	return fmt.Sprintf("fault %s: %s", f.Code, f.Message)
}

func invalidKind(want, got Tag) *Fault {
	return &Fault{Code: FaultInvalidKind, Message: fmt.Sprintf("expected %s, got %s", want, got)}
}

func outOfBounds(index, length int) *Fault {
	return &Fault{Code: FaultOutOfBounds, Message: fmt.Sprintf("index %d out of bounds for length %d", index, length)}
}

func corruptChain(hops int) *Fault {
	return &Fault{Code: FaultCorruptChain, Message: fmt.Sprintf("forwarding chain did not terminate after %d hops", hops)}
}

func exhausted(need, free int) *Fault {
	return &Fault{Code: FaultExhausted, Message: fmt.Sprintf("allocation of %d bytes exceeds %d free", need, free)}
}

func badTag(word uint64) *Fault {
	return &Fault{Code: FaultBadTag, Message: fmt.Sprintf("tag word %d is not a known object kind", word)}
}

func spanFault(n, remaining int) *Fault {
	return &Fault{Code: FaultOutOfBounds, Message: fmt.Sprintf("length word %d runs past the break (%d words remain)", n, remaining)}
}

func badAddress(a Addr, n int) *Fault {
	return &Fault{Code: FaultBadAddress, Message: fmt.Sprintf("access of %d bytes at address %d is outside the image", n, a)}
}
