// Package chainerr defines the typed error kinds the chain engine
// recognises, so callers can decide between local recovery, fault
// escalation, and propagation by inspecting a Kind instead of matching
// error strings.
package chainerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for fault escalation and the
// local-recovery-vs-surface decision.
type Kind int

const (
	// ConfigInvalid: non-positive multiplier/target, length mismatch.
	// Fatal at creation; the chain is never registered.
	ConfigInvalid Kind = iota
	// PriceUnavailable: price read returned 0. Transient; skip this tick.
	PriceUnavailable
	// BrokerTransient: timeout or network failure. Counts toward fault
	// escalation.
	BrokerTransient
	// BrokerFatal: order rejected with a permanent code. The order is
	// considered lost; level-up continues with fewer placements, and a
	// level-up that places none faults the chain.
	BrokerFatal
	// PersistenceFailure: abort the current operation, do not mutate
	// in-memory state, propagate up.
	PersistenceFailure
	// Orphan: a persisted/open order whose chain is absent. Logged and
	// cleared; not fatal.
	Orphan
)

func (k Kind) String() string {
	switch k {
	case ConfigInvalid:
		return "ConfigInvalid"
	case PriceUnavailable:
		return "PriceUnavailable"
	case BrokerTransient:
		return "BrokerTransient"
	case BrokerFatal:
		return "BrokerFatal"
	case PersistenceFailure:
		return "PersistenceFailure"
	case Orphan:
		return "Orphan"
	default:
		return "Unknown"
	}
}

// Error is a chain-engine error tagged with one of the Kinds above.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind of err if it (or something it wraps) is an
// *Error, and ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
