package timesheet

import "time"

const displayLayout = "3:04 PM on 02 Jan 2006"

// FormatDisplay renders t the way users see it in messages, e.g. "9:03 AM on 02 Jan 2024"
func FormatDisplay(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(displayLayout)
}
