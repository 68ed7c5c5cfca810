package utils

import (
	"fmt"
	"time"
)

// TimeAgo renders the age of a scan relative to now. Buckets are fixed:
// under a minute, whole minutes, whole hours, whole days.
func TimeAgo(now, at time.Time) string {
	d := now.Sub(at)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dj", int(d.Hours()/24))
	}
}
