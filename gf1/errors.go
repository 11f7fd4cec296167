package gf1

import (
	"errors"
	"fmt"
)

// RangeError reports a setter input outside its documented domain.  It is
// returned before any hardware is touched and indicates a caller bug, not
// a device fault.
type RangeError struct {
	// Op is the operation that rejected the value
	Op string

	// Value is the offending input
	Value float64

	// Min and Max bound the accepted domain
	Min, Max float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("gf1: %s: value %g outside [%g, %g]", e.Op, e.Value, e.Min, e.Max)
}

// DeviceError aggregates the bridge failures of one composite operation.
// The controller runs every step of a sequence regardless of earlier
// failures, so a DeviceError describes all failed sub-steps, not just
// the first.
type DeviceError struct {
	// Op is the composite operation, e.g. "SetFrequency"
	Op string

	// Steps holds one error per failed bridge call, in sequence order
	Steps []error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("gf1: %s: %d failed steps: %v", e.Op, len(e.Steps), errors.Join(e.Steps...))
}

// Unwrap exposes the per-step errors to errors.Is and errors.As
func (e *DeviceError) Unwrap() []error {
	return e.Steps
}

// Count returns the number of failed steps
func (e *DeviceError) Count() int {
	return len(e.Steps)
}

// tally records step failures during a sequence.  Bridge calls are wrapped
// in record so the sequence keeps going past failures.
type tally struct {
	op    string
	steps []error
}

// record notes a failed step under its name; nil errors are dropped
func (t *tally) record(step string, err error) {
	if err != nil {
		t.steps = append(t.steps, fmt.Errorf("%s: %w", step, err))
	}
}

// err collapses the tally to nil or a single *DeviceError
func (t *tally) err() error {
	if len(t.steps) == 0 {
		return nil
	}
	return &DeviceError{Op: t.op, Steps: t.steps}
}
