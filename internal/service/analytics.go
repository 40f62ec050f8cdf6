package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rkeshri04/CalPal/internal/model"
)

// Timeframes accepted by the analytics filters.
const (
	TimeFrameDay   = "1d"
	TimeFrameWeek  = "1w"
	TimeFrameMonth = "1m"
	TimeFrameAll   = "all"
)

// Summary aggregates a log collection for the analytics view.
type Summary struct {
	TotalLogs     int
	TotalSpent    float64
	TotalWeight   float64
	TotalCalories float64
	TotalFat      float64
	TotalCarbs    float64
	TotalProtein  float64
	AvgCalories   float64
	AvgCost       float64
	AvgWeight     float64

	// MostFrequentFood is the name logged most often; ties go to the
	// name seen first in the collection. Empty when there are no logs.
	MostFrequentFood string

	// MostRecent is the head entry, nil when the collection is empty.
	MostRecent *model.LogEntry
}

// DayBucket groups entries sharing a local calendar day.
type DayBucket struct {
	LocalDate string
	Entries   []model.LogEntry
}

// Summarize computes totals and averages over the given collection.
// Missing nutrition values count as zero, matching how they persist.
func Summarize(entries []model.LogEntry) Summary {
	s := Summary{TotalLogs: len(entries)}
	counts := make(map[string]int, len(entries))
	best := 0
	for i, e := range entries {
		s.TotalSpent += e.Cost
		s.TotalWeight += e.Weight
		s.TotalCalories += floatOrZero(e.Calories)
		s.TotalFat += floatOrZero(e.Fat)
		s.TotalCarbs += floatOrZero(e.Carbs)
		s.TotalProtein += floatOrZero(e.Protein)
		counts[e.Name]++
		if counts[e.Name] > best {
			best = counts[e.Name]
			s.MostFrequentFood = e.Name
		}
		if i == 0 {
			head := e.Clone()
			s.MostRecent = &head
		}
	}
	if s.TotalLogs > 0 {
		n := float64(s.TotalLogs)
		s.AvgCalories = s.TotalCalories / n
		s.AvgCost = s.TotalSpent / n
		s.AvgWeight = s.TotalWeight / n
	}
	return s
}

// FilterTimeFrame keeps entries whose date falls within the trailing
// window ending at now.
func FilterTimeFrame(entries []model.LogEntry, frame string, now time.Time) ([]model.LogEntry, error) {
	var window time.Duration
	switch strings.ToLower(strings.TrimSpace(frame)) {
	case "", TimeFrameAll:
		out := make([]model.LogEntry, len(entries))
		copy(out, entries)
		return out, nil
	case TimeFrameDay:
		window = 24 * time.Hour
	case TimeFrameWeek:
		window = 7 * 24 * time.Hour
	case TimeFrameMonth:
		window = 30 * 24 * time.Hour
	default:
		return nil, fmt.Errorf("invalid timeframe %q (use 1d, 1w, 1m, or all)", frame)
	}
	out := make([]model.LogEntry, 0, len(entries))
	for _, e := range entries {
		at, err := time.Parse(time.RFC3339, e.Date)
		if err != nil {
			continue
		}
		if now.Sub(at) < window {
			out = append(out, e)
		}
	}
	return out, nil
}

// WeeklyTotals reports money spent and grams logged over the trailing
// seven days, the home-screen summary numbers.
func WeeklyTotals(entries []model.LogEntry, now time.Time) (spent, weight float64) {
	week, _ := FilterTimeFrame(entries, TimeFrameWeek, now)
	for _, e := range week {
		spent += e.Cost
		weight += e.Weight
	}
	return spent, weight
}

// GroupByLocalDate buckets entries by their local calendar day, newest
// day first. Entries without a local date fall back to the date field's
// day in UTC.
func GroupByLocalDate(entries []model.LogEntry) []DayBucket {
	byDay := make(map[string][]model.LogEntry)
	for _, e := range entries {
		day := e.LocalDate
		if day == "" {
			if at, err := time.Parse(time.RFC3339, e.Date); err == nil {
				day = at.UTC().Format("2006-01-02")
			}
		}
		byDay[day] = append(byDay[day], e)
	}
	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	out := make([]DayBucket, 0, len(days))
	for _, day := range days {
		out = append(out, DayBucket{LocalDate: day, Entries: byDay[day]})
	}
	return out
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
