package shorten

import "fmt"

// WarningKind classifies a skipped item.
type WarningKind string

const (
	WarningMissingPath        WarningKind = "missing-path"
	WarningMissingMethods     WarningKind = "missing-methods"
	WarningDanglingReference  WarningKind = "dangling-reference"
	WarningInvalidInstruction WarningKind = "invalid-instruction"
	WarningNoMatch            WarningKind = "no-match"
)

// Warning is a non-fatal problem: the item it names was skipped and processing carried on.
type Warning struct {
	Kind WarningKind
	// Subject is the path, reference or instruction the warning is about.
	Subject string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Subject, w.Message)
}

func newWarning(kind WarningKind, subject, format string, args ...any) Warning {
	return Warning{Kind: kind, Subject: subject, Message: fmt.Sprintf(format, args...)}
}
