package availability

import "time"

// BookableDays returns the selectable days in the booking window: every
// day from from through from+windowDays inclusive, skipping the clinic's
// closed weekday. Times are truncated to midnight in from's location.
// Every returned day satisfies DateBookable for the same window, so the
// date picker never offers a day the selection guard would reject.
func BookableDays(from time.Time, windowDays int, closed time.Weekday) []time.Time {
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	last := day.AddDate(0, 0, windowDays)
	days := make([]time.Time, 0, windowDays+1)
	for !day.After(last) {
		if day.Weekday() != closed {
			days = append(days, day)
		}
		day = day.AddDate(0, 0, 1)
	}
	return days
}

// DateBookable reports whether a date may be selected: not the closed
// weekday, not in the past, and no further out than windowDays from today.
func DateBookable(date, today time.Time, windowDays int, closed time.Weekday) bool {
	if date.Weekday() == closed {
		return false
	}
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	if d.Before(t) {
		return false
	}
	return !d.After(t.AddDate(0, 0, windowDays))
}
