package utils

import (
	"fmt"
	"time"
)

// GenerateDates returns startDate, startDate+interval, ... up to and including endDate.
func GenerateDates(startDate, endDate time.Time, interval time.Duration) ([]time.Time, error) {
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("endDate must be after startDate")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive")
	}

	var dates []time.Time
	for currentDate := startDate; !currentDate.After(endDate); currentDate = currentDate.Add(interval) {
		dates = append(dates, currentDate)
	}
	return dates, nil
}

// CalendarDate drops the clock part of t as seen in t's own location and returns UTC midnight of that day.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TodayIn returns the calendar date of now in the named time zone.
func TodayIn(timezone string, now time.Time) (time.Time, error) {
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	return CalendarDate(now.In(location)), nil
}

// ParseDateRange parses two ShortDashDateLayout dates and checks their order.
func ParseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(ShortDashDateLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", startStr, err)
	}
	end, err := time.Parse(ShortDashDateLayout, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", endStr, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s", endStr, startStr)
	}
	return start, end, nil
}
