package srs

import "time"

type Status string

const (
	StatusNew      Status = "new"
	StatusLearning Status = "learning"
	StatusReview   Status = "review"
	StatusMastered Status = "mastered"
)

const (
	MinEaseFactor    = 1.3
	MasteredInterval = 21
)

const (
	DefaultInterval    = 0
	DefaultEaseFactor  = 2.5
	DefaultRepetitions = 0
)

type Defaults struct {
	Interval    int
	EaseFactor  float64
	Repetitions int
}

// DefaultValues returns the values every new progress record starts from.
func DefaultValues() Defaults {
	return Defaults{
		Interval:    DefaultInterval,
		EaseFactor:  DefaultEaseFactor,
		Repetitions: DefaultRepetitions,
	}
}

// Progress is the scheduling state of one learner for one vocabulary item.
type Progress struct {
	Interval       int
	EaseFactor     float64
	Repetitions    int
	NextReview     time.Time
	LastReviewed   *time.Time
	CorrectCount   int
	IncorrectCount int
	Status         Status
}

func NewProgress(now time.Time) Progress {
	return Progress{
		Interval:    DefaultInterval,
		EaseFactor:  DefaultEaseFactor,
		Repetitions: DefaultRepetitions,
		NextReview:  StartOfDay(now),
		Status:      StatusForInterval(DefaultInterval),
	}
}

// StatusForInterval is the only place a status is derived. Status is never
// stored independently of the interval it came from.
func StatusForInterval(interval int) Status {
	switch {
	case interval == 0:
		return StatusNew
	case interval <= 1:
		return StatusLearning
	case interval >= MasteredInterval:
		return StatusMastered
	default:
		return StatusReview
	}
}

// Apply folds a scheduler update into the record and bumps the lifetime
// counters for the grade that produced it.
func (p Progress) Apply(u Update, q Quality, now time.Time) Progress {
	p.Interval = u.Interval
	p.EaseFactor = u.EaseFactor
	p.Repetitions = u.Repetitions
	p.NextReview = u.NextReview
	p.Status = u.Status
	reviewed := now
	p.LastReviewed = &reviewed
	if q.Correct() {
		p.CorrectCount++
	} else {
		p.IncorrectCount++
	}
	return p
}
