package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a pipeline failure. Each kind maps to a process exit status.
type Kind int

const (
	KindUsage Kind = iota + 1
	KindDecode
	KindModel
	KindInference
	KindEncode
)

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindDecode:
		return "decode"
	case KindModel:
		return "model"
	case KindInference:
		return "inference"
	case KindEncode:
		return "encode"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ExitCode is the process exit status for the kind.
func (k Kind) ExitCode() int {
	switch k {
	case KindDecode:
		return 2
	case KindModel, KindInference:
		return 3
	case KindEncode:
		return 4
	default:
		return 1
	}
}

// Error is a terminal pipeline failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Fail wraps err as a terminal failure of the given kind. The message is
// attached with errors.Wrapf so the cause stays reachable.
func Fail(kind Kind, op string, err error, format string, args ...interface{}) error {
	if err == nil {
		err = errors.Errorf(format, args...)
	} else if format != "" {
		err = errors.Wrapf(err, format, args...)
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind carried by err, or 0 when err is not a pipeline
// error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// ExitCode maps err to a process exit status: 0 for nil, the kind's code for
// pipeline errors and 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if k := KindOf(err); k != 0 {
		return k.ExitCode()
	}
	return 1
}
