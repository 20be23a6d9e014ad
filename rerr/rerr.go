/*
Copyright © 2026 the rotrain authors.
This file is part of rotrain.

rotrain is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rotrain is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rotrain.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package rerr holds the discriminated failure kinds shared by every
// rotrain component. A single leaf package keeps the kind vocabulary
// importable from reference, chemistry, science/*, optimize, simulate,
// economics, and the root package without creating import cycles.
package rerr

import "fmt"

// Kind is a machine-distinguishable failure category. Every operation
// exposed by rotrain returns either a success value or an *Error whose
// Kind is one of the constants below; no other error type escapes the
// core.
type Kind int

const (
	// InvalidComposition marks a charge imbalance beyond tolerance after
	// auto-balancing, a negative concentration, or an unknown ion label.
	InvalidComposition Kind = iota
	// UnknownMembrane marks a membrane model name absent from the catalog.
	UnknownMembrane
	// NoFeasibleConfiguration marks an optimizer search that exhausted
	// every split, including maximum recycle, without meeting the
	// recovery target.
	NoFeasibleConfiguration
	// Chemistry marks a PHREEQC engine failure or non-convergence. There
	// is no algebraic fallback for this kind.
	Chemistry
	// PressureLimitExceeded marks a computed feed pressure above the
	// membrane's rated maximum.
	PressureLimitExceeded
	// FluxOutOfRange marks a physically implausible operating point,
	// e.g. a net driving pressure that goes negative.
	FluxOutOfRange
	// ConvergenceFailure marks a recycle fixed point that did not settle
	// within its iteration budget.
	ConvergenceFailure
	// Cancelled marks an external deadline reached mid-computation.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case InvalidComposition:
		return "InvalidComposition"
	case UnknownMembrane:
		return "UnknownMembrane"
	case NoFeasibleConfiguration:
		return "NoFeasibleConfiguration"
	case Chemistry:
		return "ChemistryError"
	case PressureLimitExceeded:
		return "PressureLimitExceeded"
	case FluxOutOfRange:
		return "FluxOutOfRange"
	case ConvergenceFailure:
		return "ConvergenceFailure"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error is the single error type returned across package boundaries in
// rotrain. Callers type-assert with As to recover the Kind.
type Error struct {
	Kind    Kind
	Message string
	// Err is the underlying cause, if any (e.g. a subprocess error from
	// the PHREEQC engine). It is not required to be non-nil.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind with a formatted message.
func New(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind, formatted message, and
// underlying cause.
func Wrap(k Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...), Err: err}
}

// Is reports whether err is an *Error of kind k.
func Is(err error, k Kind) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == k
}
