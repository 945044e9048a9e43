package compare

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timestampFormats are tried in order when parsing record timestamps.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// datePattern extracts a YYYY-M-D date from otherwise unparseable values.
var datePattern = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)

// ParseTimestamp parses a timestamp value to an absolute instant. Values
// that match none of the known layouts fall back to a YYYY-M-D date
// extraction at UTC midnight. The second return value is false when no
// instant could be derived.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}

	if m := datePattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])

		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
		}
	}

	return time.Time{}, false
}

// HourDistance returns the absolute distance between two timestamp values
// in hours. The second return value is false when either side fails to
// parse; callers score that case per-pass instead of treating it as an
// error.
func HourDistance(a, b string) (float64, bool) {
	ta, okA := ParseTimestamp(a)
	tb, okB := ParseTimestamp(b)
	if !okA || !okB {
		return 0, false
	}

	diff := ta.Sub(tb)
	if diff < 0 {
		diff = -diff
	}

	return diff.Hours(), true
}
