package codec

import (
	"errors"
	"fmt"
	"strconv"
)

// Stage identifies where in a codec call a failure happened.
type Stage int

const (
	// StageAllocation: a native context or image could not be created.
	StageAllocation Stage = iota
	// StageParse: the input stream is malformed (decode only).
	StageParse
	// StageConfigure: an option or pixel layout was rejected.
	StageConfigure
	// StageProcess: the core transform failed after configuration.
	StageProcess
)

func (s Stage) String() string {
	switch s {
	case StageAllocation:
		return "allocation"
	case StageParse:
		return "parse"
	case StageConfigure:
		return "configure"
	case StageProcess:
		return "process"
	}
	return "stage(" + strconv.Itoa(int(s)) + ")"
}

// Error is the single error type returned by every codec adapter.
type Error struct {
	Format  string
	Stage   Stage
	Message string
	Code    int
	HasCode bool
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Stage.String() + " failed"
	}
	if e.HasCode {
		return fmt.Sprintf("%s: %s: %s (code %d)", e.Format, e.Stage, msg, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Format, e.Stage, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// StageOf reports the stage of the first *Error in err's chain.
func StageOf(err error) (Stage, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Stage, true
	}
	return 0, false
}

// ErrorSource is one of the shapes native libraries report failures in.
type ErrorSource interface {
	Message() string
}

// StatusText is a status code paired with the library's lookup string for it.
type StatusText struct {
	Code int
	Text string
}

func (s StatusText) Message() string { return s.Text }

func (s StatusText) Error() string { return fmt.Sprintf("%s (code %d)", s.Text, s.Code) }

// StructError mirrors libraries that return a {code, subcode, message} struct.
type StructError struct {
	Code    int
	Subcode int
	Text    string
}

func (s StructError) Message() string { return s.Text }

func (s StructError) Error() string {
	return fmt.Sprintf("%s (code %d, subcode %d)", s.Text, s.Code, s.Subcode)
}

// FailedCall names a boolean-returning native call that reported failure.
type FailedCall string

func (f FailedCall) Message() string { return string(f) + " failed" }

func (f FailedCall) Error() string { return f.Message() }

// OutOfMemory is reported when a native constructor returned no handle.
type OutOfMemory struct{}

func (OutOfMemory) Message() string { return "out of memory" }

func (OutOfMemory) Error() string { return "out of memory" }

// Cause wraps a Go error as an ErrorSource.
type Cause struct{ Err error }

func (c Cause) Message() string {
	if c.Err == nil {
		return ""
	}
	return c.Err.Error()
}

// SourceOf returns the ErrorSource carried by err. Backends return the source
// types above as plain errors; anything else becomes a Cause.
func SourceOf(err error) ErrorSource {
	var st StatusText
	if errors.As(err, &st) {
		return st
	}
	var se StructError
	if errors.As(err, &se) {
		return se
	}
	var fc FailedCall
	if errors.As(err, &fc) {
		return fc
	}
	var oom OutOfMemory
	if errors.As(err, &oom) {
		return oom
	}
	return Cause{Err: err}
}

// Translate projects any ErrorSource into an *Error.
func Translate(format string, stage Stage, src ErrorSource) *Error {
	e := &Error{Format: format, Stage: stage}
	if src == nil {
		return e
	}
	e.Message = src.Message()
	switch s := src.(type) {
	case StatusText:
		e.Code, e.HasCode = s.Code, true
		e.Err = s
	case StructError:
		e.Code, e.HasCode = s.Code, true
		e.Err = s
	case Cause:
		e.Err = s.Err
	case error:
		e.Err = s
	}
	return e
}

// Errorf builds an *Error from a formatted message.
func Errorf(format string, stage Stage, msg string, args ...any) *Error {
	err := fmt.Errorf(msg, args...)
	return &Error{Format: format, Stage: stage, Message: err.Error(), Err: errors.Unwrap(err)}
}

// Wrap attaches a stage to a Go error. An err that already is an *Error is
// returned unchanged.
func Wrap(format string, stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return Translate(format, stage, Cause{Err: err})
}
