package businessflow

import (
	"fmt"
	"strings"
	"time"
)

// ParseFlexibleDate parses YYYY, YYYY-MM or YYYY-MM-DD in loc. Start dates
// resolve to the first instant of the period, end dates to its last second.
func ParseFlexibleDate(raw string, endOfPeriod bool, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := strings.TrimSpace(raw)

	var layout string
	switch len(s) {
	case 4:
		layout = "2006"
	case 7:
		layout = "2006-01"
	case 10:
		layout = "2006-01-02"
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}

	start, err := time.ParseInLocation(layout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	if !endOfPeriod {
		return start, nil
	}

	var next time.Time
	switch layout {
	case "2006":
		next = start.AddDate(1, 0, 0)
	case "2006-01":
		next = start.AddDate(0, 1, 0)
	default:
		next = start.AddDate(0, 0, 1)
	}
	return next.Add(-time.Second), nil
}

// parseDateRange resolves optional start/end strings and checks their order
func parseDateRange(startRaw, endRaw string, loc *time.Location) (start, end *time.Time, err error) {
	if startRaw != "" {
		t, err := ParseFlexibleDate(startRaw, false, loc)
		if err != nil {
			return nil, nil, badRequest("INVALID_START_DATE",
				fmt.Sprintf("Invalid start_date format: %s. Use YYYY, YYYY-MM, or YYYY-MM-DD", startRaw), err)
		}
		start = &t
	}
	if endRaw != "" {
		t, err := ParseFlexibleDate(endRaw, true, loc)
		if err != nil {
			return nil, nil, badRequest("INVALID_END_DATE",
				fmt.Sprintf("Invalid end_date format: %s. Use YYYY, YYYY-MM, or YYYY-MM-DD", endRaw), err)
		}
		end = &t
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, nil, badRequest("INVALID_DATE_RANGE", "start_date must be before or equal to end_date", ErrStartDateAfterEndDate)
	}
	return start, end, nil
}

// NormalizeDOB accepts YYYY-MM-DD or an ISO datetime and returns YYYY-MM-DD
func NormalizeDOB(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02"), nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", ErrInvalidDOB
}
