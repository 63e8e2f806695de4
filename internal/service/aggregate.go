package service

import (
	"math"
	"time"
)

const (
	// DefaultWeeklyWindow is the number of most recent readings shown in the
	// weekly chart when the caller does not choose a window.
	DefaultWeeklyWindow = 7
	// MaxWeeklyWindow caps caller-selected windows.
	MaxWeeklyWindow = 2000
)

var dayLabels = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// weeklyPointDuration is the minutes attributed to one chart point. Each
// telemetry row counts as one minute of tracked time; a chart point keeps
// the original one-hour display slot.
const weeklyPointDuration = 60

// SummarizeDay reduces the readings whose calendar date (in day's location)
// matches day into a DailySummary. The second return value is false when no
// reading falls on that date; callers must render that as "no data", never
// as a zero score.
func SummarizeDay(readings []Reading, day time.Time) (DailySummary, bool) {
	loc := day.Location()
	y, m, d := day.Date()

	var count, total int
	for _, r := range readings {
		ry, rm, rd := r.Timestamp.In(loc).Date()
		if ry == y && rm == m && rd == d {
			count++
			total += Score(r.RawValue)
		}
	}
	if count == 0 {
		return DailySummary{}, false
	}

	avg := int(math.Round(float64(total) / float64(count)))
	return DailySummary{
		Date:               day.Format("2006-01-02"),
		ReadingCount:       count,
		AverageScore:       avg,
		TotalMinutes:       count,
		GoodPostureMinutes: int(math.Round(float64(count) * float64(avg) / 100.0)),
	}, true
}

// WeeklySeries maps up to window most recent readings (input newest-first,
// as delivered by the backend) to chart points and reverses them to
// oldest-first. Points are laid out by arrival position: readings sharing a
// weekday are not merged, each keeps its own point under its weekday label.
func WeeklySeries(readings []Reading, window int, loc *time.Location) []WeeklyPoint {
	if window <= 0 {
		window = DefaultWeeklyWindow
	}
	if window > MaxWeeklyWindow {
		window = MaxWeeklyWindow
	}
	if window > len(readings) {
		window = len(readings)
	}
	if loc == nil {
		loc = time.Local
	}

	points := make([]WeeklyPoint, window)
	for i := 0; i < window; i++ {
		r := readings[i]
		// Reverse while mapping so the slice comes out oldest-first.
		points[window-1-i] = WeeklyPoint{
			Day:      dayLabels[r.Timestamp.In(loc).Weekday()],
			Score:    Score(r.RawValue),
			Duration: weeklyPointDuration,
		}
	}
	return points
}

// TrendDelta compares the most recent reading against the one before it and
// reports the signed percentage-point change. The second return value is
// false when fewer than two readings exist; the trend indicator is omitted
// entirely in that case.
func TrendDelta(readings []Reading) (TrendChange, bool) {
	if len(readings) < 2 {
		return TrendChange{}, false
	}
	current := Score(readings[0].RawValue)
	previous := Score(readings[1].RawValue)
	return TrendChange{
		CurrentScore:  current,
		PreviousScore: previous,
		Delta:         current - previous,
	}, true
}
