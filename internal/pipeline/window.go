package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseWindow converts a window string like "24h", "7d", or "1w" to a
// duration. An unrecognized unit falls back to 24 hours; a malformed
// magnitude is an error.
func ParseWindow(window string) (time.Duration, error) {
	if len(window) < 2 {
		return 0, fmt.Errorf("invalid window format %q: use forms like 24h, 7d, or 1w", window)
	}

	n, err := strconv.Atoi(window[:len(window)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid window format %q: use forms like 24h, 7d, or 1w", window)
	}

	switch strings.ToLower(window[len(window)-1:]) {
	case "h":
		return time.Duration(n) * time.Hour, nil
	case "d":
		return time.Duration(n) * 24 * time.Hour, nil
	case "w":
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	default:
		return 24 * time.Hour, nil
	}
}
