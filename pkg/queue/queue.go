// Package queue turns a vocabulary catalog and a learner's progress into an
// ordered study session that interleaves new items with due reviews.
package queue

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/smith3v/kotoba-srs/pkg/srs"
)

var ErrInvalidOptions = errors.New("queue: invalid options")

type Item struct {
	ID              string
	Term            string
	Reading         string
	Meaning         string
	Synonyms        []string
	ReadingSynonyms []string
	ExampleJapanese string
	ExampleEnglish  string
}

type StudyCard struct {
	Vocab    Item
	Progress *srs.Progress
	IsNew    bool
}

type Options struct {
	MaxNewCards         int
	MaxReviewCards      int
	NewCardsPerBatch    int
	ReviewCardsPerBatch int
}

// DefaultOptions gives one new card followed by four reviews per batch.
func DefaultOptions() Options {
	return Options{
		MaxNewCards:         20,
		MaxReviewCards:      100,
		NewCardsPerBatch:    1,
		ReviewCardsPerBatch: 4,
	}
}

func (o Options) Validate() error {
	var errs []error
	if o.MaxNewCards < 0 {
		errs = append(errs, fmt.Errorf("%w: max new cards %d is negative", ErrInvalidOptions, o.MaxNewCards))
	}
	if o.MaxReviewCards < 0 {
		errs = append(errs, fmt.Errorf("%w: max review cards %d is negative", ErrInvalidOptions, o.MaxReviewCards))
	}
	if o.NewCardsPerBatch < 1 {
		errs = append(errs, fmt.Errorf("%w: new cards per batch must be at least 1, got %d", ErrInvalidOptions, o.NewCardsPerBatch))
	}
	if o.ReviewCardsPerBatch < 1 {
		errs = append(errs, fmt.Errorf("%w: review cards per batch must be at least 1, got %d", ErrInvalidOptions, o.ReviewCardsPerBatch))
	}
	return errors.Join(errs...)
}

// BuildStudyQueue classifies every catalog item as new, due or not due,
// caps each group and interleaves them. New cards keep catalog order; due
// cards are ordered overdue-first by srs.CardPriority.
//
// The result holds min(new, MaxNewCards) + min(due, MaxReviewCards) cards,
// each item at most once.
func BuildStudyQueue(catalog []Item, progress map[string]srs.Progress, opts Options, now time.Time) []StudyCard {
	var newCards, dueCards []StudyCard

	for _, item := range catalog {
		p, ok := progress[item.ID]
		if !ok || p.Status == srs.StatusNew {
			card := StudyCard{Vocab: item, IsNew: true}
			if ok {
				card.Progress = &p
			}
			newCards = append(newCards, card)
			continue
		}
		if srs.IsCardDue(p.NextReview, now) {
			dueCards = append(dueCards, StudyCard{Vocab: item, Progress: &p})
		}
	}

	slices.SortStableFunc(dueCards, func(a, b StudyCard) int {
		return cmp.Compare(srs.CardPriority(*b.Progress, now), srs.CardPriority(*a.Progress, now))
	})

	newCards = limit(newCards, opts.MaxNewCards)
	dueCards = limit(dueCards, opts.MaxReviewCards)

	return interleave(newCards, dueCards, opts.NewCardsPerBatch, opts.ReviewCardsPerBatch)
}

func limit(cards []StudyCard, n int) []StudyCard {
	if n < 0 {
		n = 0
	}
	if len(cards) > n {
		return cards[:n]
	}
	return cards
}

// interleave emits newPerBatch new cards then reviewPerBatch due cards until
// both lists are drained. A batch always takes at least one card so that a
// misconfigured zero never stalls the loop.
func interleave(newCards, dueCards []StudyCard, newPerBatch, reviewPerBatch int) []StudyCard {
	newPerBatch = max(newPerBatch, 1)
	reviewPerBatch = max(reviewPerBatch, 1)

	out := make([]StudyCard, 0, len(newCards)+len(dueCards))
	n, r := 0, 0
	for n < len(newCards) || r < len(dueCards) {
		for i := 0; i < newPerBatch && n < len(newCards); i++ {
			out = append(out, newCards[n])
			n++
		}
		for i := 0; i < reviewPerBatch && r < len(dueCards); i++ {
			out = append(out, dueCards[r])
			r++
		}
	}
	return out
}
