// Package sliceutil has the slice helpers the standard slices package lacks.
package sliceutil

// Map applies fn to every element. The result is never nil.
func Map[T any, U any](slice []T, fn func(T) U) []U {
	mapped := make([]U, len(slice))
	for i, elem := range slice {
		mapped[i] = fn(elem)
	}
	return mapped
}

// Filter returns the elements keep accepts, in order. The result is never nil.
func Filter[T any](slice []T, keep func(T) bool) []T {
	filtered := make([]T, 0, len(slice))
	for _, elem := range slice {
		if keep(elem) {
			filtered = append(filtered, elem)
		}
	}
	return filtered
}
