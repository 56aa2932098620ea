package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/kotoba-srs/pkg/bot/training"
	"github.com/smith3v/kotoba-srs/pkg/logger"
)

func HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleStart")
		return
	}

	userID := update.Message.From.ID
	settings, err := training.LoadSettings(userID)
	if err != nil {
		logger.Error("failed to initialize user settings", "user_id", userID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "Failed to initialize your account. Please try again later.",
		})
		return
	}

	counts, err := training.QueueCounts(userID, settings, nowFunc())
	if err != nil {
		logger.Error("failed to count study queue", "user_id", userID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "Failed to initialize your account. Please try again later.",
		})
		return
	}

	text := fmt.Sprintf(
		"Welcome to Kotoba! I will teach you vocabulary with spaced repetition.\n\n"+
			"Level: %s\nNew words available: %d\nReviews due: %d\nDaily goal: %d cards\n\n"+
			"Send /study to start a session, /stats to see your progress and /settings to adjust your level, goals and reminders.",
		levelName(settings), counts.New, counts.Due, settings.DailyGoal,
	)
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	}); err != nil {
		logger.Error("failed to send welcome message", "user_id", userID, "error", err)
	}
}
