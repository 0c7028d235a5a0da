// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Kind classifies a failure by the phase it happened in.
type Kind int

// Failure kinds. None of them are recoverable, they exist
// so that callers can tell what went wrong without parsing messages.
const (
	// KindSetup is any resource creation failing.
	KindSetup Kind = iota
	// KindNegotiation covers missing layers, no GPUs or no suitable GPU.
	KindNegotiation
	// KindFrame is a per-frame failure: fence waits, recording, submission.
	KindFrame
	// KindPresent is a failed presentation.
	KindPresent
	// KindOutOfDate is reported when the swapchain no longer matches the surface.
	KindOutOfDate
)

func (k Kind) String() string {
	switch k {
	case KindSetup:
		return "setup"
	case KindNegotiation:
		return "negotiation"
	case KindFrame:
		return "frame"
	case KindPresent:
		return "present"
	case KindOutOfDate:
		return "out of date"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a failure of a single operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Cause implements the causer interface of github.com/pkg/errors.
func (e *Error) Cause() error { return e.Err }

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func newError(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// checkResult turns a non-success vk.Result into an error of the given kind.
func checkResult(kind Kind, op string, ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	err := vk.Error(ret)
	if err == nil {
		err = errors.New("unexpected result")
	}
	return newError(kind, op, errors.Wrapf(err, "result %d", ret))
}

func setupResult(op string, ret vk.Result) error {
	return checkResult(KindSetup, op, ret)
}

func frameResult(op string, ret vk.Result) error {
	return checkResult(KindFrame, op, ret)
}
