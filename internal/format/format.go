package format

import (
	"fmt"
	"time"
)

// Duration formats a duration as H:MM:SS, or M:SS when under an hour.
// Fractional seconds are truncated.
func Duration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// DurationHuman formats a duration for human display.
// Examples: "2h", "30m", "1h30m", "45s"
func DurationHuman(d time.Duration) string {
	if d >= time.Hour {
		hours := d / time.Hour
		minutes := (d % time.Hour) / time.Minute
		if minutes > 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
	if d >= time.Minute {
		return fmt.Sprintf("%dm", d/time.Minute)
	}
	return fmt.Sprintf("%ds", d/time.Second)
}

// Speed formats a processing-speed ratio, e.g. "3.21x real-time".
// Values above 1 mean faster than real time.
func Speed(ratio float64) string {
	return fmt.Sprintf("%.2fx real-time", ratio)
}

// Timestamp formats a wall-clock time for the report header.
func Timestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
