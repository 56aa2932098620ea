// Package srs implements the SM-2 derived scheduler used for vocabulary
// reviews. Every function is pure; the current time is always passed in and
// its Location decides where local midnight falls.
package srs

import (
	"math"
	"time"
)

type Update struct {
	Interval    int
	EaseFactor  float64
	Repetitions int
	NextReview  time.Time
	Status      Status
}

// CalculateNextReview schedules the next review of an item graded q.
// Only Interval, EaseFactor and Repetitions of current are consulted.
//
// A failed recall resets the interval to 1 rather than 0 so the item comes
// back tomorrow instead of being treated as unseen.
func CalculateNextReview(current Progress, q Quality, now time.Time) Update {
	interval := current.Interval
	ease := current.EaseFactor
	reps := current.Repetitions

	if q.Correct() {
		switch reps {
		case 0:
			interval = 1
		case 1:
			interval = 6
		default:
			interval = int(math.Round(float64(interval) * ease))
		}
		reps++
	} else {
		reps = 0
		interval = 1
	}

	return Update{
		Interval:    interval,
		EaseFactor:  nextEaseFactor(ease, q),
		Repetitions: reps,
		NextReview:  StartOfDay(now).AddDate(0, 0, interval),
		Status:      StatusForInterval(interval),
	}
}

// nextEaseFactor applies EF' = EF + (0.1 - (5-q)(0.08 + (5-q)0.02)),
// floored at MinEaseFactor and rounded to two decimals.
func nextEaseFactor(ease float64, q Quality) float64 {
	miss := float64(QualityPerfect - q)
	ease = math.Max(MinEaseFactor, ease+(0.1-miss*(0.08+miss*0.02)))
	return math.Round(ease*100) / 100
}
