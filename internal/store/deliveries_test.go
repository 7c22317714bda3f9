package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekDays(t *testing.T) {
	tests := []struct {
		name   string
		date   time.Time
		monday string
		sunday string
	}{
		{"wednesday", time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC), "2024-01-01", "2024-01-07"},
		{"monday is its own week start", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "2024-01-01", "2024-01-07"},
		{"sunday belongs to the preceding monday", time.Date(2024, 1, 7, 23, 0, 0, 0, time.UTC), "2024-01-01", "2024-01-07"},
		{"across a month boundary", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), "2024-02-26", "2024-03-03"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := weekDays(tt.date)
			assert.Len(t, days, 7)
			assert.Equal(t, tt.monday, days[0])
			assert.Equal(t, tt.sunday, days[6])
		})
	}
}
