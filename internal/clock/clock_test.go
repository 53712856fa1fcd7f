package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var phoenix = time.FixedZone("MST", -7*60*60)

func fixed(t time.Time) Option {
	return WithNow(func() time.Time { return t })
}

func TestDayKeyUsesOperatingZone(t *testing.T) {
	n := New(phoenix)

	// 03:30 UTC on the 20th is still the evening of the 19th in Phoenix
	instant := time.Date(2025, 9, 20, 3, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-09-19", n.DayKey(instant))
	assert.Equal(t, 20, n.Hour(instant))
}

func TestTodayFollowsInjectedNow(t *testing.T) {
	n := New(phoenix, fixed(time.Date(2025, 9, 22, 6, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-09-21", n.Today())
	assert.Equal(t, phoenix, n.Now().Location())
}

func TestStartOfWeek(t *testing.T) {
	n := New(phoenix)

	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"monday", time.Date(2025, 9, 15, 9, 0, 0, 0, phoenix), "2025-09-15"},
		{"wednesday", time.Date(2025, 9, 17, 23, 59, 0, 0, phoenix), "2025-09-15"},
		{"friday", time.Date(2025, 9, 19, 12, 0, 0, 0, phoenix), "2025-09-15"},
		{"sunday maps to previous monday", time.Date(2025, 9, 21, 8, 0, 0, 0, phoenix), "2025-09-15"},
		{"across month boundary", time.Date(2025, 10, 2, 8, 0, 0, 0, phoenix), "2025-09-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.StartOfWeek(tt.in)
			assert.Equal(t, tt.want, got.Format(DayKeyLayout))
			assert.Equal(t, 0, got.Hour())
			assert.Equal(t, 0, got.Minute())
		})
	}
}

func TestFridayOfWeek(t *testing.T) {
	n := New(phoenix)

	fri := n.FridayOfWeek(time.Date(2025, 9, 16, 10, 0, 0, 0, phoenix))
	want := time.Date(2025, 9, 19, 23, 59, 59, 999*int(time.Millisecond), phoenix)
	assert.True(t, fri.Equal(want), "got %s", fri)
}

func TestWeekDayKeys(t *testing.T) {
	n := New(phoenix)

	keys := n.WeekDayKeys(time.Date(2025, 9, 29, 0, 0, 0, 0, phoenix))
	assert.Equal(t, []string{"2025-09-29", "2025-09-30", "2025-10-01", "2025-10-02", "2025-10-03"}, keys)
}

func TestParseDayKey(t *testing.T) {
	n := New(phoenix)

	got, err := n.ParseDayKey("2025-09-15")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 9, 15, 0, 0, 0, 0, phoenix)))

	_, err = n.ParseDayKey("15/09/2025")
	assert.Error(t, err)
}

func TestIsFridayAndAt(t *testing.T) {
	n := New(phoenix)
	fri := time.Date(2025, 9, 19, 7, 5, 0, 0, phoenix)

	assert.True(t, n.IsFriday(fri))
	assert.False(t, n.IsFriday(fri.AddDate(0, 0, 1)))
	assert.True(t, n.At(fri, 8, 0).Equal(time.Date(2025, 9, 19, 8, 0, 0, 0, phoenix)))
	assert.True(t, n.StartOfHour(fri).Equal(time.Date(2025, 9, 19, 7, 0, 0, 0, phoenix)))
}

func TestLoadLocationFallback(t *testing.T) {
	loc, err := LoadLocation("Not/AZone", -7*time.Hour)
	assert.Error(t, err)
	require.NotNil(t, loc)

	_, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, -7*60*60, offset)
}
