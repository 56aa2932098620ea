package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/smith3v/kotoba-srs/pkg/config"
	"github.com/smith3v/kotoba-srs/pkg/queue"
	"gorm.io/gorm"
)

const studyDateLayout = "2006-01-02"

const (
	MinJLPTLevel     = 1
	MaxJLPTLevel     = 5
	DefaultJLPTLevel = 5
)

// StudyDate formats the learner-local calendar day used as the stats key.
func StudyDate(localNow time.Time) string {
	return localNow.Format(studyDateLayout)
}

type ReviewOutcome struct {
	WasNew  bool
	Correct bool
}

func RecordReview(userID int64, date string, outcome ReviewOutcome, goal int) (StudyStats, error) {
	var stats StudyStats
	err := DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(StudyStats{UserID: userID, StudyDate: date}).
			FirstOrCreate(&stats).Error; err != nil {
			return err
		}
		stats.CardsReviewed++
		if outcome.WasNew {
			stats.NewCardsLearned++
		}
		if outcome.Correct {
			stats.CorrectAnswers++
		} else {
			stats.IncorrectAnswers++
		}
		wasCompleted := stats.GoalCompleted
		stats.GoalCompleted = queue.IsDailyGoalReached(stats.CardsReviewed, goal)
		if err := tx.Save(&stats).Error; err != nil {
			return err
		}
		if stats.GoalCompleted && !wasCompleted {
			return recordGoalCompletion(tx, userID, date)
		}
		return nil
	})
	return stats, err
}

func recordGoalCompletion(tx *gorm.DB, userID int64, date string) error {
	var settings UserSettings
	err := tx.Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	current := NextStreak(settings.CurrentStreak, settings.LastStreakDate, date)
	return tx.Model(&UserSettings{}).Where("id = ?", settings.ID).Updates(map[string]any{
		"current_streak":   current,
		"longest_streak":   max(current, settings.LongestStreak),
		"last_streak_date": date,
	}).Error
}

// NextStreak is the streak after the daily goal is completed on today. It
// grows when the previous completion was yesterday and restarts at 1 after a
// missed day.
func NextStreak(current int, lastDate, today string) int {
	if lastDate == today {
		return max(current, 1)
	}
	if lastDate != "" && lastDate == previousStudyDate(today) {
		return current + 1
	}
	return 1
}

func previousStudyDate(date string) string {
	day, err := time.Parse(studyDateLayout, date)
	if err != nil {
		return ""
	}
	return day.AddDate(0, 0, -1).Format(studyDateLayout)
}

// ActiveStreak is the streak as of today: it is still alive when the goal
// was last completed today or yesterday.
func (s UserSettings) ActiveStreak(today string) int {
	if s.LastStreakDate == today || (s.LastStreakDate != "" && s.LastStreakDate == previousStudyDate(today)) {
		return s.CurrentStreak
	}
	return 0
}

func LoadStudyStats(userID int64, date string) (StudyStats, error) {
	var stats StudyStats
	err := DB.Where("user_id = ? AND study_date = ?", userID, date).First(&stats).Error
	if err == nil {
		return stats, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return StudyStats{UserID: userID, StudyDate: date}, nil
	}
	return StudyStats{}, err
}

func LoadOrCreateSettings(userID int64, defaults config.StudyConfig) (UserSettings, error) {
	settings := UserSettings{
		UserID:          userID,
		DailyGoal:       defaults.DailyGoal,
		MaxNewCards:     defaults.MaxNewCards,
		MaxReviewCards:  defaults.MaxReviewCards,
		CurrentLevel:    DefaultJLPTLevel,
		ReminderEvening: true,
	}
	err := DB.Where(UserSettings{UserID: userID}).
		Attrs(settings).
		FirstOrCreate(&settings).Error
	return settings, err
}

// QueueOptions applies the learner's caps on top of the configured batches.
func (s UserSettings) QueueOptions(base queue.Options) queue.Options {
	base.MaxNewCards = s.MaxNewCards
	base.MaxReviewCards = s.MaxReviewCards
	return base
}

// JLPTLevel names the learner's level, e.g. "N5". It is empty when the level
// is unset, which means the whole catalog.
func (s UserSettings) JLPTLevel() string {
	if s.CurrentLevel < MinJLPTLevel || s.CurrentLevel > MaxJLPTLevel {
		return ""
	}
	return fmt.Sprintf("N%d", s.CurrentLevel)
}

func (s UserSettings) Location() *time.Location {
	if s.TimezoneOffsetHours == 0 {
		return time.UTC
	}
	return time.FixedZone("", s.TimezoneOffsetHours*60*60)
}
