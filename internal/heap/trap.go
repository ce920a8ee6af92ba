package heap

import (
	"fmt"
	"io"
	"os"
)

// Trapper is the process boundary for unrecoverable faults. The accessor
// API reports faults as error values so tests can assert on them; code
// running for real funnels every fault here, and a trap never hands
// control back.
type Trapper struct {
	// Out receives the diagnostic before the process dies. Defaults to
	// os.Stderr.
	Out io.Writer
	// Exit terminates the process. Defaults to os.Exit. Tests override it
	// to observe the trap instead of dying with it.
	Exit func(code int)
}

func (t *Trapper) out() io.Writer {
	if t != nil && t.Out != nil {
		return t.Out
	}
	return os.Stderr
}

func (t *Trapper) exit(code int) {
	if t != nil && t.Exit != nil {
		t.Exit(code)
		return
	}
	os.Exit(code)
}

// Trap reports msg and terminates the process. There is no recovery path:
// a trap means the representation contract between native and managed code
// has already been violated.
func (t *Trapper) Trap(msg string) {
	fmt.Fprintln(t.out(), msg)
	t.exit(1)
}

// TrapFault terminates the process with the fault's diagnostic.
func (t *Trapper) TrapFault(f *Fault) {
	if f == nil {
		t.Trap("trap on nil fault")
		return
	}
	t.Trap(f.Error())
}

// TrapRTS traps with the runtime-system prefix.
func (t *Trapper) TrapRTS(msg string) {
	t.Trap("RTS error: " + msg)
}

// TrapIDL traps with the wire-decoder prefix, on behalf of the IDL
// collaborator.
func (t *Trapper) TrapIDL(msg string) {
	t.Trap("IDL error: " + msg)
}

// BigIntTrap traps on behalf of the arbitrary-precision collaborator.
func (t *Trapper) BigIntTrap() {
	t.Trap("bigint trap")
}

// Check traps on a non-nil fault and is a no-op otherwise. It is the
// one-line adapter production call sites wrap accessor results in.
func (t *Trapper) Check(f *Fault) {
	if f != nil {
		t.TrapFault(f)
	}
}
