package validation

import (
	"cmp"
	"errors"
	"slices"
)

// SortValidationErrors orders errors by position in the source document, then by rule and message.
// Errors without a position sort after the positioned ones and keep their relative order.
func SortValidationErrors(allErrors []error) {
	slices.SortStableFunc(allErrors, func(a, b error) int {
		var aErr, bErr *Error
		aOK, bOK := errors.As(a, &aErr), errors.As(b, &bErr)

		switch {
		case aOK && bOK:
			return compareValidationErrors(aErr, bErr)
		case aOK:
			return -1
		case bOK:
			return 1
		default:
			return 0
		}
	})
}

func compareValidationErrors(a, b *Error) int {
	return cmp.Or(
		cmp.Compare(a.GetLineNumber(), b.GetLineNumber()),
		cmp.Compare(a.GetColumnNumber(), b.GetColumnNumber()),
		cmp.Compare(a.Rule, b.Rule),
		cmp.Compare(a.UnderlyingError.Error(), b.UnderlyingError.Error()),
	)
}
