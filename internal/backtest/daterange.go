package backtest

import (
	"fmt"
	"time"

	"github.com/newthinker/thrust/internal/core"
)

const dateLayout = "2006-01-02"

// ParseDateRange parses a from/to pair given as dates (2006-01-02) or RFC3339
// timestamps. A bare date for to covers that whole day.
func ParseDateRange(from, to string) (time.Time, time.Time, error) {
	start, _, err := parseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, core.WrapError(core.ErrInvalidConfig, fmt.Errorf("start: %w", err))
	}
	end, dateOnly, err := parseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, core.WrapError(core.ErrInvalidConfig, fmt.Errorf("end: %w", err))
	}
	if dateOnly {
		end = end.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, core.WrapError(core.ErrInvalidConfig,
			fmt.Errorf("end %s is not after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339)))
	}
	return start, end, nil
}

func parseDate(s string) (time.Time, bool, error) {
	if s == "" {
		return time.Time{}, false, fmt.Errorf("date required")
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid date %q, want YYYY-MM-DD or RFC3339", s)
	}
	return t.UTC(), false, nil
}
