package srs

import (
	"cmp"
	"slices"
	"time"
)

const (
	priorityOverdueBase = 1000
	priorityLearning    = 500
	priorityNew         = 100
)

func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// IsCardDue reports whether nextReview falls on or before today's date in
// now's location.
func IsCardDue(nextReview, now time.Time) bool {
	today := StartOfDay(now)
	reviewDate := StartOfDay(nextReview.In(now.Location()))
	return !today.Before(reviewDate)
}

// DaysUntilReview is negative for overdue items and zero for items due today.
func DaysUntilReview(nextReview, now time.Time) int {
	return calendarDay(nextReview.In(now.Location())) - calendarDay(now)
}

// calendarDay numbers t's local date so that consecutive dates differ by one
// regardless of DST transitions.
func calendarDay(t time.Time) int {
	year, month, day := t.Date()
	return int(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// CardPriority ranks cards for review. Any overdue card outranks every
// non-overdue card, and more overdue outranks less overdue.
func CardPriority(p Progress, now time.Time) int {
	if overdue := -DaysUntilReview(p.NextReview, now); overdue > 0 {
		return priorityOverdueBase + overdue
	}
	switch p.Status {
	case StatusLearning:
		return priorityLearning
	case StatusNew:
		return priorityNew
	default:
		return 0
	}
}

// SortByPriority returns a copy of cards ordered by descending priority.
// Equal priorities keep their input order.
func SortByPriority(cards []Progress, now time.Time) []Progress {
	sorted := slices.Clone(cards)
	slices.SortStableFunc(sorted, func(a, b Progress) int {
		return cmp.Compare(CardPriority(b, now), CardPriority(a, now))
	})
	return sorted
}
