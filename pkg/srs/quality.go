package srs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidQuality = errors.New("srs: invalid quality")

// Quality is the reviewer's grade for a single recall, 0 through 5.
// 0-2 are failed recalls, 3-5 are correct recalls from hard to trivial.
type Quality int

const (
	QualityBlackout      Quality = 0
	QualityIncorrect     Quality = 1
	QualityIncorrectEasy Quality = 2
	QualityHard          Quality = 3
	QualityGood          Quality = 4
	QualityPerfect       Quality = 5
)

func (q Quality) Valid() bool {
	return q >= QualityBlackout && q <= QualityPerfect
}

func (q Quality) Correct() bool {
	return q >= QualityHard
}

func (q Quality) String() string {
	switch q {
	case QualityBlackout:
		return "blackout"
	case QualityIncorrect:
		return "incorrect"
	case QualityIncorrectEasy:
		return "incorrect-easy"
	case QualityHard:
		return "hard"
	case QualityGood:
		return "good"
	case QualityPerfect:
		return "perfect"
	default:
		return fmt.Sprintf("Quality(%d)", int(q))
	}
}

// ParseQuality validates a grade coming from outside the process. The
// scheduler assumes its input already passed through here.
func ParseQuality(value string) (Quality, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuality, value)
	}
	q := Quality(n)
	if !q.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuality, n)
	}
	return q, nil
}
