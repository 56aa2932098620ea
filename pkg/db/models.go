// pkg/db/models.go
package db

import (
	"time"

	"gorm.io/datatypes"
)

// Vocabulary is the shared catalog every learner studies from.
type Vocabulary struct {
	ID              string `gorm:"primaryKey;size:64"`
	Term            string `gorm:"not null"`
	Reading         string `gorm:"not null;default:''"`
	Meaning         string `gorm:"not null"`
	Synonyms        datatypes.JSON
	ReadingSynonyms datatypes.JSON
	ExampleJapanese string
	ExampleEnglish  string
	JlptLevel       string `gorm:"size:8;index"`
	FrequencyRank   int    `gorm:"not null;default:0;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Vocabulary) TableName() string {
	return "vocabulary"
}

type VocabProgress struct {
	ID             uint      `gorm:"primaryKey"`
	UserID         int64     `gorm:"not null;uniqueIndex:idx_progress_user_vocab;index:idx_progress_user_next"`
	VocabID        string    `gorm:"not null;size:64;uniqueIndex:idx_progress_user_vocab"`
	Interval       int       `gorm:"column:interval_days;not null;default:0"`
	EaseFactor     float64   `gorm:"not null;default:2.5"`
	Repetitions    int       `gorm:"not null;default:0"`
	NextReview     time.Time `gorm:"not null;index:idx_progress_user_next"`
	LastReviewed   *time.Time
	CorrectCount   int    `gorm:"not null;default:0"`
	IncorrectCount int    `gorm:"not null;default:0"`
	Status         string `gorm:"size:16;not null;default:new"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type UserSettings struct {
	ID                     uint  `gorm:"primaryKey"`
	UserID                 int64 `gorm:"uniqueIndex"`
	DailyGoal              int   `gorm:"not null;default:20"`
	MaxNewCards            int   `gorm:"not null;default:20"`
	MaxReviewCards         int   `gorm:"not null;default:100"`
	TimezoneOffsetHours    int   `gorm:"not null;default:0"`
	CurrentLevel           int   `gorm:"not null;default:5"` // JLPT level, 5 is N5
	ReminderMorning        bool  `gorm:"not null;default:false"`
	ReminderAfternoon      bool  `gorm:"not null;default:false"`
	ReminderEvening        bool  `gorm:"not null;default:false"`
	MissedTrainingSessions int   `gorm:"not null;default:0"`
	TrainingPaused         bool  `gorm:"not null;default:false"`
	LastTrainingSentAt     *time.Time
	LastTrainingEngagedAt  *time.Time
	CurrentStreak          int    `gorm:"not null;default:0"`
	LongestStreak          int    `gorm:"not null;default:0"`
	LastStreakDate         string `gorm:"size:10;not null;default:''"` // study date the goal was last completed
}

// StudyStats aggregates one learner's reviews for one local calendar day.
type StudyStats struct {
	ID               uint   `gorm:"primaryKey"`
	UserID           int64  `gorm:"not null;uniqueIndex:idx_stats_user_date"`
	StudyDate        string `gorm:"size:10;not null;uniqueIndex:idx_stats_user_date"` // YYYY-MM-DD in the learner's timezone
	CardsReviewed    int    `gorm:"not null;default:0"`
	NewCardsLearned  int    `gorm:"not null;default:0"`
	CorrectAnswers   int    `gorm:"not null;default:0"`
	IncorrectAnswers int    `gorm:"not null;default:0"`
	GoalCompleted    bool   `gorm:"not null;default:false"`
	UpdatedAt        time.Time
}

type TrainingSession struct {
	ID                uint           `gorm:"primaryKey"`
	ChatID            int64          `gorm:"index;uniqueIndex:idx_training_session_user_chat"`
	UserID            int64          `gorm:"index;uniqueIndex:idx_training_session_user_chat"`
	VocabIDs          datatypes.JSON `gorm:"not null"`
	CurrentIndex      int            `gorm:"not null;default:0"`
	CurrentToken      string         `gorm:"not null;default:''"`
	CurrentMessageID  int            `gorm:"not null;default:0"`
	CurrentPromptText string         `gorm:"not null;default:''"`
	ReviewedCount     int            `gorm:"not null;default:0"`
	LastActivityAt    time.Time      `gorm:"not null"`
	ExpiresAt         time.Time      `gorm:"not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func Models() []any {
	return []any{&Vocabulary{}, &VocabProgress{}, &UserSettings{}, &StudyStats{}, &TrainingSession{}}
}
