package validation

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Error is a validation problem and the node where it occurred.
type Error struct {
	UnderlyingError error
	Node            *yaml.Node
	Rule            string
	// Location is the JSON pointer of the offending value, if known.
	Location string
}

var _ error = (*Error)(nil)

// NewValidationError wraps err with the node it was found at.
func NewValidationError(rule string, err error, node *yaml.Node) *Error {
	return &Error{UnderlyingError: err, Node: node, Rule: rule}
}

// Errorf is NewValidationError with a formatted message.
func Errorf(rule string, node *yaml.Node, format string, args ...any) *Error {
	return NewValidationError(rule, fmt.Errorf(format, args...), node)
}

func (e Error) Error() string {
	return fmt.Sprintf("[%d:%d] %s", e.GetLineNumber(), e.GetColumnNumber(), e.UnderlyingError.Error())
}

func (e Error) Unwrap() error {
	return e.UnderlyingError
}

// GetLineNumber returns the 1-based line of the node, or -1 without one.
func (e Error) GetLineNumber() int {
	if e.Node == nil {
		return -1
	}
	return e.Node.Line
}

// GetColumnNumber returns the 1-based column of the node, or -1 without one.
func (e Error) GetColumnNumber() int {
	if e.Node == nil {
		return -1
	}
	return e.Node.Column
}
