package hierarchy

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeFilter is used when no valid token is configured.
const DefaultTimeFilter = "24h"

// Window is the half-open range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow ends at now and spans the given number of hours.
func NewWindow(now time.Time, hours int) Window {
	end := now.UTC()
	return Window{
		Start: end.Add(-time.Duration(hours) * time.Hour),
		End:   end,
	}
}

// Contains reports whether t falls in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ParseTimeFilter reads a token such as "24h" and returns the hours.
func ParseTimeFilter(token string) (int, error) {
	if !strings.HasSuffix(token, "h") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFilter, token)
	}
	hours, err := strconv.Atoi(strings.TrimSuffix(token, "h"))
	if err != nil || hours <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFilter, token)
	}
	return hours, nil
}

// TimeFilter is a validated duration token.
type TimeFilter struct {
	Token string
	Hours int
}

// ResolveTimeFilter parses token, falling back to def when the token is
// empty or malformed. maxHours clamps the span when positive. The returned
// error is informational: the TimeFilter is always usable.
func ResolveTimeFilter(token, def string, maxHours int) (TimeFilter, error) {
	hours, err := ParseTimeFilter(token)
	if err != nil {
		fallback, derr := ParseTimeFilter(def)
		if derr != nil {
			def, fallback = DefaultTimeFilter, 24
		}
		tf := TimeFilter{Token: def, Hours: fallback}
		if token == "" {
			return clamp(tf, maxHours), nil
		}
		return clamp(tf, maxHours), err
	}
	return clamp(TimeFilter{Token: token, Hours: hours}, maxHours), nil
}

func clamp(tf TimeFilter, maxHours int) TimeFilter {
	if maxHours > 0 && tf.Hours > maxHours {
		return TimeFilter{Token: strconv.Itoa(maxHours) + "h", Hours: maxHours}
	}
	// "024h" and "24h" share a cache entry
	tf.Token = strconv.Itoa(tf.Hours) + "h"
	return tf
}

// Window resolves the filter against now.
func (tf TimeFilter) Window(now time.Time) Window {
	return NewWindow(now, tf.Hours)
}
