package notation

import (
	"strconv"
	"strings"
)

// DurationString maps a duration in grid units to its textual suffix.
// The written base unit is always an eighth note, so the mapping depends
// on the grid resolution:
//   - qValue 8: one unit is one eighth; "" for 1, the count otherwise.
//   - qValue 16: one unit is one sixteenth; even counts collapse to
//     eighths ("" for 2), odd counts carry a "/2" fraction.
//   - qValue 4: one unit is one quarter, written as two eighths.
func DurationString(d, qValue int) string {
	if d < 1 {
		d = 1
	}
	switch qValue {
	case 16:
		if d%2 == 0 {
			if d == 2 {
				return ""
			}
			return strconv.Itoa(d / 2)
		}
		if d == 1 {
			return "/2"
		}
		return strconv.Itoa(d) + "/2"
	case 4:
		return strconv.Itoa(2 * d)
	default:
		if d == 1 {
			return ""
		}
		return strconv.Itoa(d)
	}
}

// ParseDuration inverts DurationString. Malformed or unexpected duration
// text falls back to one unit rather than failing.
func ParseDuration(s string, qValue int) int {
	switch qValue {
	case 16:
		if s == "" {
			return 2
		}
		if s == "/2" {
			return 1
		}
		if num, ok := strings.CutSuffix(s, "/2"); ok {
			if d, err := strconv.Atoi(num); err == nil && d >= 1 {
				return d
			}
			return 1
		}
		if eighths, err := strconv.Atoi(s); err == nil && eighths >= 1 {
			return 2 * eighths
		}
		return 1
	case 4:
		if eighths, err := strconv.Atoi(s); err == nil && eighths >= 2 && eighths%2 == 0 {
			return eighths / 2
		}
		return 1
	default:
		if s == "" {
			return 1
		}
		if d, err := strconv.Atoi(s); err == nil && d >= 1 {
			return d
		}
		return 1
	}
}
