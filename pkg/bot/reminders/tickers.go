package reminders

import (
	"context"
	"errors"
	"time"

	"github.com/go-telegram/bot"
	"github.com/smith3v/kotoba-srs/pkg/bot/training"
	"github.com/smith3v/kotoba-srs/pkg/db"
	"github.com/smith3v/kotoba-srs/pkg/logger"
	"github.com/smith3v/kotoba-srs/pkg/queue"
)

const (
	slotMorningHour   = 8
	slotAfternoonHour = 13
	slotEveningHour   = 20

	// MaxMissedReminders unanswered reminders in a row pause reminders until
	// the learner writes to the bot again.
	MaxMissedReminders = 3
)

func StartPeriodicMessages(ctx context.Context, b *bot.Bot) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			processReminders(ctx, b, now.UTC())
		}
	}
}

func processReminders(ctx context.Context, b *bot.Bot, now time.Time) {
	var users []db.UserSettings
	if err := db.DB.Where("training_paused = ?", false).Find(&users).Error; err != nil {
		logger.Error("failed to fetch users for reminders", "error", err)
		return
	}

	for _, user := range users {
		handleUserReminder(ctx, b, user, now)
	}
}

func handleUserReminder(ctx context.Context, b *bot.Bot, user db.UserSettings, now time.Time) {
	if user.TrainingPaused {
		return
	}
	if _, ok := latestDueSlot(now, user); !ok {
		return
	}

	missed := computeMissedCount(user)
	if missed >= MaxMissedReminders {
		user.TrainingPaused = true
		user.MissedTrainingSessions = missed
		if err := db.DB.Save(&user).Error; err != nil {
			logger.Error("failed to pause reminders", "user_id", user.UserID, "error", err)
			return
		}
		_, _ = b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: user.UserID,
			Text:   "Paused reminders due to inactivity. Send /study whenever you are ready to continue.",
		})
		return
	}

	sent, err := sendReminder(ctx, b, user, now)
	if err != nil {
		logger.Error("failed to send study reminder", "user_id", user.UserID, "error", err)
		return
	}
	if !sent {
		return
	}

	user.LastTrainingSentAt = &now
	user.MissedTrainingSessions = missed
	if err := db.DB.Save(&user).Error; err != nil {
		logger.Error("failed to update reminder state", "user_id", user.UserID, "error", err)
	}
}

// sendReminder starts a study session in the learner's private chat, or
// offers the backlog prompt when more is due than one session holds. Nothing
// is sent when the daily goal is met, nothing is new or due, or a session is
// already running.
func sendReminder(ctx context.Context, b *bot.Bot, user db.UserSettings, now time.Time) (bool, error) {
	if training.DefaultManager.GetSession(user.UserID, user.UserID) != nil {
		return false, nil
	}

	today, err := db.LoadStudyStats(user.UserID, db.StudyDate(training.UserNow(user, now)))
	if err != nil {
		return false, err
	}
	if user.DailyGoal > 0 && queue.IsDailyGoalReached(today.CardsReviewed, user.DailyGoal) {
		return false, nil
	}

	counts, err := training.QueueCounts(user.UserID, user, now)
	if err != nil {
		return false, err
	}
	opts := training.QueueOptions(user)
	if training.HasBacklog(counts, opts) {
		if err := training.SendBacklogPrompt(ctx, b, user.UserID, user.UserID, counts); err != nil {
			return false, err
		}
		return true, nil
	}

	if _, err := training.StartStudy(ctx, b, user.UserID, user.UserID, user, now); err != nil {
		if errors.Is(err, training.ErrNothingToStudy) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func latestDueSlot(now time.Time, user db.UserSettings) (time.Time, bool) {
	localNow := now.In(user.Location())
	year, month, day := localNow.Date()

	var latest time.Time
	consider := func(enabled bool, hour int) {
		if !enabled {
			return
		}
		slot := time.Date(year, month, day, hour, 0, 0, 0, localNow.Location()).UTC()
		if now.Before(slot) {
			return
		}
		if user.LastTrainingSentAt != nil && !user.LastTrainingSentAt.Before(slot) {
			return
		}
		if latest.IsZero() || slot.After(latest) {
			latest = slot
		}
	}

	consider(user.ReminderMorning, slotMorningHour)
	consider(user.ReminderAfternoon, slotAfternoonHour)
	consider(user.ReminderEvening, slotEveningHour)

	if latest.IsZero() {
		return time.Time{}, false
	}
	return latest, true
}

func computeMissedCount(user db.UserSettings) int {
	missed := user.MissedTrainingSessions
	if user.LastTrainingSentAt == nil {
		return missed
	}
	if user.LastTrainingEngagedAt == nil || user.LastTrainingEngagedAt.Before(*user.LastTrainingSentAt) {
		return missed + 1
	}
	return 0
}
