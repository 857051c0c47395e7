package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dateRegex     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	relativeRegex = regexp.MustCompile(`^(\d+)\s*(hour|hours|h|day|days|d|week|weeks|w)$`)
)

// ParseSince turns a listing window into its start time. Supported forms:
//   - "today"
//   - dd/mm/yyyy (start of that day)
//   - X hours, X days, X weeks (that long before now; days and weeks start at midnight)
//
// An empty input means no lower bound and returns nil.
func ParseSince(input string, now time.Time) (*time.Time, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return nil, nil
	}
	if input == "today" {
		t := midnight(now)
		return &t, nil
	}
	if t, err := parseDate(input, now.Location()); err == nil {
		return t, nil
	}
	if t, err := parseRelative(input, now); err == nil {
		return t, nil
	}
	return nil, fmt.Errorf("invalid window %q. Use: today, dd/mm/yyyy, X hours, X days or X weeks", input)
}

func parseDate(input string, loc *time.Location) (*time.Time, error) {
	matches := dateRegex.FindStringSubmatch(input)
	if len(matches) != 4 {
		return nil, fmt.Errorf("invalid date format")
	}

	day, _ := strconv.Atoi(matches[1])
	month, _ := strconv.Atoi(matches[2])
	year, _ := strconv.Atoi(matches[3])

	if month < 1 || month > 12 {
		return nil, fmt.Errorf("month must be between 1 and 12")
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// time.Date normalizes 31/02 into March
	if t.Day() != day || t.Month() != time.Month(month) {
		return nil, fmt.Errorf("invalid date")
	}
	return &t, nil
}

func parseRelative(input string, now time.Time) (*time.Time, error) {
	matches := relativeRegex.FindStringSubmatch(input)
	if len(matches) != 3 {
		return nil, fmt.Errorf("invalid relative time format")
	}
	amount, err := strconv.Atoi(matches[1])
	if err != nil || amount < 1 {
		return nil, fmt.Errorf("amount must be a positive number")
	}

	var t time.Time
	switch matches[2] {
	case "hour", "hours", "h":
		if amount > 8760 {
			return nil, fmt.Errorf("hours must be between 1 and 8760")
		}
		t = now.Add(-time.Duration(amount) * time.Hour)
	case "day", "days", "d":
		if amount > 365 {
			return nil, fmt.Errorf("days must be between 1 and 365")
		}
		t = midnight(now).AddDate(0, 0, -amount)
	case "week", "weeks", "w":
		if amount > 52 {
			return nil, fmt.Errorf("weeks must be between 1 and 52")
		}
		t = midnight(now).AddDate(0, 0, -7*amount)
	default:
		return nil, fmt.Errorf("unsupported time unit")
	}
	return &t, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
