package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/internal/domain/analytics"
)

func tashkent(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tashkent")
	require.NoError(t, err)
	return loc
}

func TestNormalizeGroupBy(t *testing.T) {
	assert.Equal(t, "week", analytics.NormalizeGroupBy("week"))
	assert.Equal(t, "month", analytics.NormalizeGroupBy("month"))
	assert.Equal(t, "day", analytics.NormalizeGroupBy("year"))
	assert.Equal(t, "day", analytics.NormalizeGroupBy(""))
}

func TestBuckets_DayCountMatchesRange(t *testing.T) {
	loc := tashkent(t)
	start := time.Date(2024, 2, 25, 0, 0, 0, 0, loc)

	for n := 1; n <= 40; n++ {
		end := start.AddDate(0, 0, n-1)
		got := analytics.Buckets("day", start, end, loc)
		require.Len(t, got, n, "rango de %d días", n)
		assert.Equal(t, "2024-02-25", analytics.Key(got[0]))
		assert.Equal(t, analytics.Key(end), analytics.Key(got[n-1]))
	}
}

func TestBuckets_WeekStartsMonday(t *testing.T) {
	loc := tashkent(t)
	// miércoles 2024-05-08 .. martes 2024-05-21
	got := analytics.Buckets("week", time.Date(2024, 5, 8, 0, 0, 0, 0, loc), time.Date(2024, 5, 21, 0, 0, 0, 0, loc), loc)
	require.Len(t, got, 3)
	assert.Equal(t, "2024-05-06", analytics.Key(got[0]))
	assert.Equal(t, "2024-05-13", analytics.Key(got[1]))
	assert.Equal(t, "2024-05-20", analytics.Key(got[2]))
	for _, b := range got {
		assert.Equal(t, time.Monday, b.Weekday())
	}
}

func TestBuckets_MonthCrossesYear(t *testing.T) {
	loc := tashkent(t)
	got := analytics.Buckets("month", time.Date(2023, 11, 15, 0, 0, 0, 0, loc), time.Date(2024, 2, 3, 0, 0, 0, 0, loc), loc)
	require.Len(t, got, 4)
	assert.Equal(t, "2023-11-01", analytics.Key(got[0]))
	assert.Equal(t, "2024-02-01", analytics.Key(got[3]))
}

func TestBucketStart_UsesLocalTimezone(t *testing.T) {
	loc := tashkent(t) // UTC+5
	// 2024-03-10 20:30 UTC ya es 2024-03-11 01:30 en Tashkent
	ts := time.Date(2024, 3, 10, 20, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-11", analytics.Key(analytics.BucketStart(ts, "day", loc)))
}

func TestDayRange_IsHalfOpen(t *testing.T) {
	loc := tashkent(t)
	from, to := analytics.DayRange(time.Date(2024, 1, 1, 15, 0, 0, 0, loc), time.Date(2024, 1, 7, 9, 0, 0, 0, loc), loc)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, loc), to)
}
