package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/kotoba-srs/pkg/bot/training"
	"github.com/smith3v/kotoba-srs/pkg/db"
	"github.com/smith3v/kotoba-srs/pkg/logger"
	"github.com/smith3v/kotoba-srs/pkg/queue"
)

var nowFunc = time.Now

func HandleStudy(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleStudy")
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	settings, err := training.LoadSettings(userID)
	if err != nil {
		logger.Error("failed to load user settings", "user_id", userID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Failed to start a study session. Please try again later.",
		})
		return
	}

	_, err = training.StartStudy(ctx, b, chatID, userID, settings, nowFunc())
	switch {
	case errors.Is(err, training.ErrNothingToStudy):
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Nothing to study right now. New cards and reviews will show up here when they are due.",
		})
	case err != nil:
		logger.Error("failed to start study session", "user_id", userID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Failed to start a study session. Please try again later.",
		})
	}
}

func HandleGradeCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.CallbackQuery == nil {
		logger.Error("invalid update in HandleGradeCallback")
		return
	}

	callbackID := update.CallbackQuery.ID
	answered := false
	answerCallback := func(text string) {
		if answered || callbackID == "" {
			return
		}
		if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: callbackID,
			Text:            text,
		}); err != nil {
			logger.Error("failed to answer callback query", "error", err)
		}
		answered = true
	}

	token, quality, ok := training.ParseGradeCallback(update.CallbackQuery.Data)
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

	snapshot, ok := training.DefaultManager.Snapshot(chatID, userID)
	if !ok {
		if _, err := training.DefaultManager.RestoreSession(chatID, userID); err != nil {
			logger.Error("failed to restore study session", "user_id", userID, "error", err)
		}
		snapshot, ok = training.DefaultManager.Snapshot(chatID, userID)
	}
	if !ok || snapshot.Token != token || (snapshot.HasMessage && snapshot.MessageID != msg.ID) {
		answerCallback("Not active")
		return
	}
	snapshot, ok = training.DefaultManager.ClaimToken(chatID, userID, token)
	if !ok {
		answerCallback("Not active")
		return
	}

	settings, err := training.LoadSettings(userID)
	if err != nil {
		logger.Error("failed to load user settings", "user_id", userID, "error", err)
		training.DefaultManager.ReleaseToken(chatID, userID, token)
		answerCallback("Failed to save your answer")
		return
	}

	result, err := training.GradeCard(userID, settings, snapshot.Card.Vocab.ID, quality, nowFunc())
	if err != nil {
		logger.Error("failed to grade card", "user_id", userID, "vocab_id", snapshot.Card.Vocab.ID, "error", err)
		training.DefaultManager.ReleaseToken(chatID, userID, token)
		answerCallback("Failed to save your answer")
		return
	}
	reviewed, _ := training.DefaultManager.MarkReviewed(chatID, userID)
	answerCallback("")

	prompt := snapshot.PromptText
	if prompt == "" {
		prompt = training.BuildPrompt(snapshot.Card)
	}
	if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: msg.ID,
		Text:      training.FormatResolvedPrompt(prompt, quality, result.Update),
		ParseMode: models.ParseModeMarkdown,
		ReplyMarkup: &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{},
		},
	}); err != nil {
		logger.Error("failed to edit graded card", "user_id", userID, "error", err)
	}

	if result.Stats.GoalCompleted && result.Stats.CardsReviewed == settings.DailyGoal {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   fmt.Sprintf("🎉 Daily goal reached: %d cards today!", result.Stats.CardsReviewed),
		})
	}

	card, _ := training.DefaultManager.Advance(chatID, userID)
	if card == nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   buildSessionSummary(reviewed, result.Stats, settings.DailyGoal),
		})
		return
	}
	if err := training.SendCurrentCard(ctx, b, chatID, training.DefaultManager.GetSession(chatID, userID)); err != nil {
		logger.Error("failed to send next card", "user_id", userID, "error", err)
	}
}

func buildSessionSummary(reviewed int, stats db.StudyStats, goal int) string {
	text := fmt.Sprintf("Session complete: %d cards reviewed.\nToday: %d cards, %d new, %d correct, %d incorrect.",
		reviewed, stats.CardsReviewed, stats.NewCardsLearned, stats.CorrectAnswers, stats.IncorrectAnswers)
	if goal <= 0 {
		return text
	}
	if queue.IsDailyGoalReached(stats.CardsReviewed, goal) {
		return text + fmt.Sprintf("\nDaily goal of %d reached. Well done!", goal)
	}
	return text + fmt.Sprintf("\n%d more cards to reach your daily goal. Send /study to continue.",
		queue.CardsUntilGoal(stats.CardsReviewed, goal))
}
