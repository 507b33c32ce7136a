package basic

import (
	"errors"
	"fmt"
)

var (
	ErrZeroTransfer     = errors.New("basic: transport reported 0 bytes for a non-empty request")
	ErrOverlongTransfer = errors.New("basic: transport reported more bytes than requested")
	ErrNegativeTransfer = errors.New("basic: transport reported a negative byte count")
)

// ContractViolation describes a transport that broke the partial-transfer
// contract. It is raised with panic, never returned.
type ContractViolation struct {
	Op        string // "read" or "write"
	Requested int
	Reported  int
}

func (v *ContractViolation) Error() string {
	if v.Reported < 0 {
		return fmt.Sprintf("basic: %s reported negative byte count: %d", v.Op, v.Reported)
	}
	if v.Reported == 0 {
		return fmt.Sprintf("basic: %s 0 bytes %s", v.Op, pastTense(v.Op))
	}
	return fmt.Sprintf("basic: %s too many bytes %s: %d of %d requested",
		v.Op, pastTense(v.Op), v.Reported, v.Requested)
}

func (v *ContractViolation) Unwrap() error {
	switch {
	case v.Reported < 0:
		return ErrNegativeTransfer
	case v.Reported == 0:
		return ErrZeroTransfer
	default:
		return ErrOverlongTransfer
	}
}

func pastTense(op string) string {
	if op == opWrite {
		return "written"
	}
	return "read"
}
