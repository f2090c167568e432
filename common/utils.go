package common

// Coalesce returns the first non-zero value, which lets an option left unset fall back to a
// default in one expression.
//
// Parameters:
//   - values: candidates in order of preference
//
// Returns:
//   - T: the first non-zero candidate, or the zero value
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
