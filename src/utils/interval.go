package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// TimeInterval represents a parsed interval with months, weeks, and days.
type TimeInterval struct {
	Months int
	Weeks  int
	Days   int
}

var intervalRegex = regexp.MustCompile(`^(\d+m)?(:?\d+w)?(:?\d+d)?$`)

// ParseTimeInterval parses a string in the format "2m:1w:3d". Every part is optional.
func ParseTimeInterval(intervalStr string) (*TimeInterval, error) {
	match := intervalRegex.FindStringSubmatch(intervalStr)
	if match == nil {
		return nil, fmt.Errorf("invalid interval format %q", intervalStr)
	}

	parsePart := func(part string) int {
		digits := regexp.MustCompile(`\d+`).FindString(part)
		n, _ := strconv.Atoi(digits)
		return n
	}

	return &TimeInterval{
		Months: parsePart(match[1]),
		Weeks:  parsePart(match[2]),
		Days:   parsePart(match[3]),
	}, nil
}

// Before returns the calendar position t minus the interval, months included.
func (ti *TimeInterval) Before(t time.Time) time.Time {
	return t.AddDate(0, -ti.Months, -(ti.Weeks*7 + ti.Days))
}
