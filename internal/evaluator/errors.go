package evaluator

import (
	"fmt"
	"strings"
)

// ErrorKind classifies every failure the core can report.
type ErrorKind string

const (
	ErrFunctionNotFound  ErrorKind = "FunctionNotFound"
	ErrTypeMismatch      ErrorKind = "TypeMismatch"
	ErrCallStackOverflow ErrorKind = "CallStackOverflow"
	ErrTooManyOperations ErrorKind = "TooManyOperations"
	ErrDataTooLarge      ErrorKind = "DataTooLarge"
	ErrExpressionTooDeep ErrorKind = "ExpressionTooDeep"
	ErrArithmetic        ErrorKind = "ArithmeticError"
	ErrScriptTerminated  ErrorKind = "ScriptTerminated"
	ErrIndexerConflict   ErrorKind = "IndexerRegistrationConflict"
	ErrRaised            ErrorKind = "Raised"
	ErrVariableNotFound  ErrorKind = "VariableNotFound"
	ErrIndexOutOfBounds  ErrorKind = "IndexOutOfBounds"
	ErrConstAssignment   ErrorKind = "ConstantAssignment"
)

// Error is a structured evaluation failure. It flows through evaluation
// as a value (so deeply nested expressions abort cheaply) and crosses
// the embedding boundary as a Go error. The context fields are filled
// per kind: Signature for failed resolutions, Expected/Actual for tag
// mismatches, LimitKind/Limit for exceeded ceilings, Payload for errors
// raised by fallible native functions.
type Error struct {
	Kind      ErrorKind
	Message   string
	Signature string
	Expected  ValueType
	Actual    ValueType
	LimitKind string
	Limit     int64
	Payload   Value
}

func (e *Error) Type() ValueType { return ErrorValueType }
func (e *Error) Inspect() string { return "ERROR: " + e.Error() }
func (e *Error) Clone() Value    { return e }

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

// Is supports errors.Is matching on the kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind ErrorKind, format string, a ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

func newTypeMismatch(expected, actual ValueType) *Error {
	return &Error{
		Kind:     ErrTypeMismatch,
		Message:  fmt.Sprintf("expected %s, got %s", expected, actual),
		Expected: expected,
		Actual:   actual,
	}
}

func newFunctionNotFound(name string, argTags []ValueType) *Error {
	sig := formatSignature(name, argTags)
	return &Error{
		Kind:      ErrFunctionNotFound,
		Message:   sig + " is not defined",
		Signature: sig,
	}
}

func newDataTooLarge(kind string, limit int) *Error {
	return &Error{
		Kind:      ErrDataTooLarge,
		Message:   fmt.Sprintf("%s exceeds maximum size %d", kind, limit),
		LimitKind: kind,
		Limit:     int64(limit),
	}
}

func newRaised(payload Value) *Error {
	return &Error{
		Kind:    ErrRaised,
		Message: payload.Inspect(),
		Payload: payload,
	}
}

func formatSignature(name string, argTags []ValueType) string {
	tags := make([]string, len(argTags))
	for i, t := range argTags {
		tags[i] = string(t)
	}
	return name + " (" + strings.Join(tags, ", ") + ")"
}

func isError(v Value) bool {
	if v != nil {
		return v.Type() == ErrorValueType
	}
	return false
}
