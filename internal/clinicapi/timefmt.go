package clinicapi

import (
	"strings"
	"time"
)

// WireLayout is the fixed timestamp format the appointment API uses for
// booked blocks and booking requests, e.g. "2025/06/10 & 2:00 PM".
const WireLayout = "2006/01/02 & 3:04 PM"

// Display layouts used for confirmation payloads and history entries.
const (
	DisplayDateLayout = "Monday, January 2, 2006"
	DisplayTimeLayout = "3:04 PM"
)

// FormatWire renders a timestamp in the API's wire layout.
func FormatWire(t time.Time) string {
	return t.Format(WireLayout)
}

// ParseWire parses a wire-layout timestamp. Stored blocks sometimes carry a
// lowercase meridiem ("2:00 pm"), so the final token is matched
// case-insensitively.
func ParseWire(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if n := len(s); n >= 2 {
		s = s[:n-2] + strings.ToUpper(s[n-2:])
	}
	return time.Parse(WireLayout, s)
}
