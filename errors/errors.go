// Package errors implements the error taxonomy of the batch pipeline
// on top of github.com/pkg/errors.
package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// Errorf is re-exported from fmt
var Errorf = fmt.Errorf

// New is an alias to Errorf
var New = Errorf

// Is is re-exported from the standard library
var Is = stderrors.Is

// As is re-exported from the standard library
var As = stderrors.As

// WrapfOrNil is WithMessagef re-exported from github.com/pkg/errors
func WrapfOrNil(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.WithMessage(err, fmt.Sprintf(format, args...))
}

// Wrapf is WrapfOrNil if err != nil, and Errorf otherwise: it never returns nil
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return Errorf(format, args...)
	}
	return WrapfOrNil(err, format, args...)
}

// ErrEmptyInput is returned when an operation needs at least one sample.
var ErrEmptyInput = stderrors.New("empty input")

// InputError reports a missing or invalid input: data directory, batch
// geometry, labels or configuration. It is always fatal.
type InputError struct {
	Msg string
	Err error
}

func (e *InputError) Error() string {
	if e.Err == nil {
		return "input error: " + e.Msg
	}
	return "input error: " + e.Msg + ": " + e.Err.Error()
}

func (e *InputError) Unwrap() error { return e.Err }

// Input creates an InputError
func Input(format string, args ...interface{}) error {
	return errors.WithStack(&InputError{Msg: fmt.Sprintf(format, args...)})
}

// WrapInput wraps err into an InputError
func WrapInput(err error, format string, args ...interface{}) error {
	return errors.WithStack(&InputError{Msg: fmt.Sprintf(format, args...), Err: err})
}

// DispatchError reports that the task at Index failed during a parallel map.
type DispatchError struct {
	Index int
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch failure at input %d: %v", e.Index, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Dispatch creates a DispatchError
func Dispatch(index int, err error) error {
	return &DispatchError{Index: index, Err: err}
}

// PersistenceError reports a failed read or write of a durable record.
type PersistenceError struct {
	Name string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure on %s: %v", e.Name, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence creates a PersistenceError, nil if err is nil
func Persistence(name string, err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&PersistenceError{Name: name, Err: err})
}

// TrainingFailure marks a sample whose training produced no usable output.
// It is a soft condition handled by the aggregation policy.
type TrainingFailure struct {
	Index  int
	Reason string
}

func (e *TrainingFailure) Error() string {
	return fmt.Sprintf("training failure at sample %d: %s", e.Index, e.Reason)
}

// IsInput reports whether err is or wraps an InputError
func IsInput(err error) bool {
	var e *InputError
	return As(err, &e)
}

// IsDispatch reports whether err is or wraps a DispatchError
func IsDispatch(err error) bool {
	var e *DispatchError
	return As(err, &e)
}

// IsPersistence reports whether err is or wraps a PersistenceError
func IsPersistence(err error) bool {
	var e *PersistenceError
	return As(err, &e)
}
