package utils

import "time"

// DaysBetween returns the number of whole days from 'from' to 'to', truncated
// toward zero. Negative when 'to' precedes 'from'.
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
