package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/kotoba-srs/pkg/bot/training"
	"github.com/smith3v/kotoba-srs/pkg/db"
	"github.com/smith3v/kotoba-srs/pkg/logger"
)

// HandleClear wipes the learner's progress and daily stats. Settings and the
// shared catalog are kept.
func HandleClear(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleClear")
		return
	}
	userID := update.Message.From.ID

	training.DefaultManager.End(update.Message.Chat.ID, userID)
	if err := db.DeleteUserData(userID); err != nil {
		logger.Error("failed to clear user progress", "user_id", userID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "Failed to clear your progress. Please try again later.",
		})
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   "Your study progress has been cleared. Every word is new again.",
	})
}
