package timer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatClock renders seconds as MM:SS. Minutes are not wrapped into hours.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// ParseDuration reads a duration as whole seconds ("90") or a Go duration
// ("90s", "1m30s"). Fractions of a second and values below one second are
// rejected.
func ParseDuration(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, &ValidationError{Field: "duration", Reason: fmt.Sprintf("cannot parse %q", s)}
		}
		if d%time.Second != 0 {
			return 0, &ValidationError{Field: "duration", Reason: "must be a whole number of seconds"}
		}
		n = int(d / time.Second)
	}
	if n < 1 {
		return 0, &ValidationError{Field: "duration", Reason: fmt.Sprintf("must be at least 1 second, got %d", n)}
	}
	return n, nil
}
