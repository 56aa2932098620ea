package queue

import (
	"math/rand"
	"time"

	"github.com/smith3v/kotoba-srs/pkg/srs"
)

type Counts struct {
	New          int
	Due          int
	TotalLearned int
	Mastered     int
}

// GetQueueCounts summarises the whole catalog without any session limits.
func GetQueueCounts(catalog []Item, progress map[string]srs.Progress, now time.Time) Counts {
	var c Counts
	for _, item := range catalog {
		p, ok := progress[item.ID]
		if !ok || p.Status == srs.StatusNew {
			c.New++
			continue
		}
		c.TotalLearned++
		if p.Status == srs.StatusMastered {
			c.Mastered++
		}
		if srs.IsCardDue(p.NextReview, now) {
			c.Due++
		}
	}
	return c
}

func IsDailyGoalReached(studiedToday, goal int) bool {
	return studiedToday >= goal
}

func CardsUntilGoal(studiedToday, goal int) int {
	return max(0, goal-studiedToday)
}

// Shuffle returns a uniformly permuted copy of s. A nil rng uses the global
// math/rand source.
func Shuffle[T any](s []T, rng *rand.Rand) []T {
	intn := rand.Intn
	if rng != nil {
		intn = rng.Intn
	}
	shuffled := make([]T, len(s))
	copy(shuffled, s)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
