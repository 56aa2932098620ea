package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/kotoba-srs/pkg/bot/training"
	"github.com/smith3v/kotoba-srs/pkg/db"
	"github.com/smith3v/kotoba-srs/pkg/logger"
	"github.com/smith3v/kotoba-srs/pkg/queue"
)

func HandleStats(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleStats")
		return
	}
	userID := update.Message.From.ID

	text, err := buildStatsText(userID)
	if err != nil {
		logger.Error("failed to build stats", "user_id", userID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "Failed to load your progress. Please try again later.",
		})
		return
	}
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	}); err != nil {
		logger.Error("failed to send stats message", "user_id", userID, "error", err)
	}
}

func buildStatsText(userID int64) (string, error) {
	settings, err := training.LoadSettings(userID)
	if err != nil {
		return "", err
	}
	now := nowFunc()
	counts, err := training.QueueCounts(userID, settings, now)
	if err != nil {
		return "", err
	}
	date := db.StudyDate(training.UserNow(settings, now))
	today, err := db.LoadStudyStats(userID, date)
	if err != nil {
		return "", err
	}

	goalLine := "No daily goal set."
	if settings.DailyGoal > 0 {
		if queue.IsDailyGoalReached(today.CardsReviewed, settings.DailyGoal) {
			goalLine = fmt.Sprintf("Daily goal: %d/%d ✅", today.CardsReviewed, settings.DailyGoal)
		} else {
			goalLine = fmt.Sprintf("Daily goal: %d/%d (%d to go)", today.CardsReviewed, settings.DailyGoal,
				queue.CardsUntilGoal(today.CardsReviewed, settings.DailyGoal))
		}
	}

	return fmt.Sprintf(
		"%s\nToday: %d new, %d correct, %d incorrect\nStreak: %d days (best %d)\n\nLevel: %s\nDue for review: %d\nNew available: %d\nWords learned: %d\nMastered: %d",
		goalLine,
		today.NewCardsLearned, today.CorrectAnswers, today.IncorrectAnswers,
		settings.ActiveStreak(date), settings.LongestStreak,
		levelName(settings),
		counts.Due, counts.New, counts.TotalLearned, counts.Mastered,
	), nil
}

func levelName(settings db.UserSettings) string {
	if level := settings.JLPTLevel(); level != "" {
		return level
	}
	return "all"
}
