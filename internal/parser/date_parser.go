package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseDate parses the date formats accepted for sprint boundaries
// Supported formats:
// - yyyy-mm-dd (e.g., "2025-03-01")
// - "today"
// - +X days/weeks offsets (e.g., "+3d", "+2w")
func ParseDate(input string) (time.Time, error) {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return time.Time{}, fmt.Errorf("date cannot be empty")
	}

	if input == "today" {
		return startOfDay(time.Now()), nil
	}

	if t, err := parseISODate(input); err == nil {
		return t, nil
	}

	if t, err := parseOffset(input); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid date format. Use: yyyy-mm-dd, today, +Xd, or +Xw")
}

// parseISODate parses yyyy-mm-dd format
func parseISODate(input string) (time.Time, error) {
	dateRegex := regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	matches := dateRegex.FindStringSubmatch(input)

	if len(matches) != 4 {
		return time.Time{}, fmt.Errorf("invalid date format")
	}

	year, _ := strconv.Atoi(matches[1])
	month, _ := strconv.Atoi(matches[2])
	day, _ := strconv.Atoi(matches[3])

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("day must be between 1 and 31")
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)

	// Check the date is real (handles leap years, short months)
	if date.Day() != day || date.Month() != time.Month(month) || date.Year() != year {
		return time.Time{}, fmt.Errorf("invalid date")
	}

	return date, nil
}

// parseOffset parses relative formats like "+3d" or "+2w"
func parseOffset(input string) (time.Time, error) {
	offsetRegex := regexp.MustCompile(`^\+(\d+)([dw])$`)
	matches := offsetRegex.FindStringSubmatch(input)

	if len(matches) != 3 {
		return time.Time{}, fmt.Errorf("invalid offset format")
	}

	amount, err := strconv.Atoi(matches[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid number")
	}

	today := startOfDay(time.Now())

	switch matches[2] {
	case "d":
		if amount < 1 || amount > 365 {
			return time.Time{}, fmt.Errorf("days must be between 1 and 365")
		}
		return today.AddDate(0, 0, amount), nil
	case "w":
		if amount < 1 || amount > 52 {
			return time.Time{}, fmt.Errorf("weeks must be between 1 and 52")
		}
		return today.AddDate(0, 0, amount*7), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported offset unit")
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatDate formats a sprint boundary date for display
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
