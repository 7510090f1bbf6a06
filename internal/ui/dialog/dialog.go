// Package dialog models the lifecycle shared by every modal in the app:
// open with defaults, submit once, then close on success or stay open on
// failure.
package dialog

import (
	"errors"
	"fmt"
)

// State is the position of a dialog in its lifecycle.
type State int

const (
	Closed State = iota
	Open
	Submitting
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case Submitting:
		return "submitting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var ErrInvalidTransition = errors.New("invalid dialog transition")

// Outcome is what the user sees after a transition: a toast and, on
// success, the list that has to be refetched.
type Outcome struct {
	Toast   string
	IsError bool
	Refresh string
}

// Dialog holds the state and form values of one modal. F is the form type.
type Dialog[F any] struct {
	state State
	form  F
	err   string
}

// New returns a closed dialog.
func New[F any]() *Dialog[F] {
	return &Dialog[F]{}
}

// Opened returns a dialog already open with the given form.
func Opened[F any](form F) *Dialog[F] {
	return &Dialog[F]{state: Open, form: form}
}

func (d *Dialog[F]) State() State       { return d.state }
func (d *Dialog[F]) Form() F            { return d.form }
func (d *Dialog[F]) Err() string        { return d.err }
func (d *Dialog[F]) IsOpen() bool       { return d.state != Closed }
func (d *Dialog[F]) IsSubmitting() bool { return d.state == Submitting }

// Open resets the form to the given defaults. Opening an open dialog
// re-seeds it; opening during a submission is refused.
func (d *Dialog[F]) Open(defaults F) error {
	if d.state == Submitting {
		return d.invalid("open")
	}
	d.state, d.form, d.err = Open, defaults, ""
	return nil
}

// Update replaces the form while the dialog is open, as field derivations do.
func (d *Dialog[F]) Update(form F) error {
	if d.state != Open {
		return d.invalid("update")
	}
	d.form = form
	return nil
}

// Begin marks the submission as in flight. A second Begin fails, so a
// double click cannot send the mutation twice.
func (d *Dialog[F]) Begin() error {
	if d.state != Open {
		return d.invalid("begin")
	}
	d.state, d.err = Submitting, ""
	return nil
}

// Succeed closes the dialog.
func (d *Dialog[F]) Succeed(toast, refresh string) (Outcome, error) {
	if d.state != Submitting {
		return Outcome{}, d.invalid("succeed")
	}
	var zero F
	d.state, d.form, d.err = Closed, zero, ""
	return Outcome{Toast: toast, Refresh: refresh}, nil
}

// Fail returns to Open with the form untouched so the user can retry.
func (d *Dialog[F]) Fail(msg string) (Outcome, error) {
	if d.state != Submitting {
		return Outcome{}, d.invalid("fail")
	}
	d.state, d.err = Open, msg
	return Outcome{Toast: msg, IsError: true}, nil
}

// Cancel closes the dialog without submitting.
func (d *Dialog[F]) Cancel() error {
	if d.state == Submitting {
		return d.invalid("cancel")
	}
	var zero F
	d.state, d.form, d.err = Closed, zero, ""
	return nil
}

func (d *Dialog[F]) invalid(op string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, op, d.state)
}
