package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ms-checkin/internal/utils"
)

func TestTimeAgoBuckets(t *testing.T) {
	now := time.Date(2025, 6, 21, 22, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		age  time.Duration
		want string
	}{
		{"seconds ago", 10 * time.Second, "just now"},
		{"last second before a minute", 59 * time.Second, "just now"},
		{"minutes", 90 * time.Second, "1 min"},
		{"many minutes", 45 * time.Minute, "45 min"},
		{"hours", 7200 * time.Second, "2h"},
		{"last hour of the day", 23*time.Hour + 59*time.Minute, "23h"},
		{"days", 48 * time.Hour, "2j"},
		{"many days", 10 * 24 * time.Hour, "10j"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := utils.TimeAgo(now, now.Add(-tt.age))
			assert.Equal(t, tt.want, got)
		})
	}
}
