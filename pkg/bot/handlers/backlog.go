package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/kotoba-srs/pkg/bot/training"
	"github.com/smith3v/kotoba-srs/pkg/logger"
)

func HandleBacklogCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.CallbackQuery == nil {
		logger.Error("invalid update in HandleBacklogCallback")
		return
	}

	callbackID := update.CallbackQuery.ID
	answerCallback := func(text string) {
		if callbackID == "" {
			return
		}
		if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: callbackID,
			Text:            text,
		}); err != nil {
			logger.Error("failed to answer callback query", "error", err)
		}
	}

	token, action, ok := training.ParseBacklogCallback(update.CallbackQuery.Data)
	if !ok {
		answerCallback("Not active")
		return
	}
	message := update.CallbackQuery.Message
	if message.Type != models.MaybeInaccessibleMessageTypeMessage || message.Message == nil {
		answerCallback("Not active")
		return
	}
	msg := message.Message
	chatID := msg.Chat.ID
	userID := update.CallbackQuery.From.ID

	if !training.DefaultBacklog.Validate(chatID, userID, token, msg.ID) {
		answerCallback("Not active")
		return
	}

	settings, err := training.LoadSettings(userID)
	if err != nil {
		logger.Error("failed to load user settings", "user_id", userID, "error", err)
		answerCallback("Failed to load settings")
		return
	}
	answerCallback("")

	var resolved string
	switch action {
	case training.BacklogCatchUp:
		resolved = "Catching up. Here comes the first card."
	case training.BacklogSnoozeDay, training.BacklogSnoozeWeek:
		days := 1
		if action == training.BacklogSnoozeWeek {
			days = 7
		}
		moved, err := training.SnoozeBacklog(userID, settings, days, nowFunc())
		if err != nil {
			logger.Error("failed to snooze backlog", "user_id", userID, "error", err)
			b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   "Failed to snooze your reviews. Please try again later.",
			})
			return
		}
		training.DefaultManager.End(chatID, userID)
		resolved = fmt.Sprintf("Snoozed %d reviews for %d day(s).", moved, days)
	}

	if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: msg.ID,
		Text:      resolved,
		ReplyMarkup: &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{},
		},
	}); err != nil {
		logger.Error("failed to edit backlog prompt", "user_id", userID, "error", err)
	}

	if action != training.BacklogCatchUp {
		return
	}
	if _, err := training.StartStudy(ctx, b, chatID, userID, settings, nowFunc()); err != nil && !errors.Is(err, training.ErrNothingToStudy) {
		logger.Error("failed to start study session", "user_id", userID, "error", err)
	}
}
