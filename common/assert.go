package common

import (
	"fmt"
	"log/slog"
)

// Assert checks a programming invariant. When the invariant does not hold, builds with the
// tiledebug tag panic; release builds log the failure and return false so the caller can
// abandon only the unit of work that tripped it.
//
// Parameters:
//   - cond: the invariant
//   - format: printf-style description of the violated invariant
//   - args: format arguments
//
// Returns:
//   - bool: cond
func Assert(cond bool, format string, args ...any) bool {
	if cond {
		return true
	}
	msg := fmt.Sprintf(format, args...)
	if debugAssertions {
		panic("assertion failed: " + msg)
	}
	slog.Error("assertion failed", "detail", msg)
	return false
}
