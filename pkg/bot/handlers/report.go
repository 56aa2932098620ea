package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/kotoba-srs/pkg/bot/reports"
	"github.com/smith3v/kotoba-srs/pkg/bot/training"
	"github.com/smith3v/kotoba-srs/pkg/config"
	"github.com/smith3v/kotoba-srs/pkg/logger"
)

// HandleReport lets a learner flag the card on screen as wrong. The next text
// message becomes the note sent to the catalog admins.
func HandleReport(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleReport")
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	if len(config.AppConfig.Telegram.AdminIDs) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Card reports are not configured yet. Please try again later.",
		})
		return
	}

	snapshot, ok := training.DefaultManager.Snapshot(chatID, userID)
	if !ok {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Send /report while a card is on screen to flag it.",
		})
		return
	}

	reports.DefaultManager.Start(userID, chatID, snapshot.Card.Vocab.ID, snapshot.Card.Vocab.Term, reports.DefaultTimeout)
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text: fmt.Sprintf("What is wrong with %s? Send a short note within %d minutes.",
			snapshot.Card.Vocab.Term, int(reports.DefaultTimeout.Minutes())),
	}); err != nil {
		logger.Error("failed to send report prompt", "user_id", userID, "error", err)
	}
}

func tryHandleReportCapture(ctx context.Context, b *bot.Bot, update *models.Update) bool {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Chat.ID == 0 {
		return false
	}
	msg := update.Message
	note := strings.TrimSpace(msg.Text)
	if note == "" || strings.HasPrefix(note, "/") {
		return false
	}
	pending, ok := reports.DefaultManager.Consume(msg.From.ID, msg.Chat.ID)
	if !ok {
		return false
	}

	logger.Info("card report received", "user_id", msg.From.ID, "vocab_id", pending.VocabID, "note", note)

	summary := formatReportSummary(msg.From, pending, note)
	for _, adminID := range config.AppConfig.Telegram.AdminIDs {
		if adminID == 0 {
			continue
		}
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: adminID,
			Text:   summary,
		}); err != nil {
			logger.Error("failed to send card report", "admin_id", adminID, "error", err)
		}
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   "Thanks, the report was sent.",
	}); err != nil {
		logger.Error("failed to send report confirmation", "user_id", msg.From.ID, "error", err)
	}
	return true
}

func formatReportSummary(user *models.User, pending reports.Pending, note string) string {
	return fmt.Sprintf("Card report\nCard: %s (%s)\nFrom: %s (ID %d)\nNote: %s",
		pending.Term, pending.VocabID, formatDisplayName(user), user.ID, note)
}

func formatDisplayName(user *models.User) string {
	if user == nil {
		return "Unknown user"
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name != "" && user.Username != "" {
		return fmt.Sprintf("%s (@%s)", name, user.Username)
	}
	if name != "" {
		return name
	}
	if user.Username != "" {
		return user.Username
	}
	return fmt.Sprintf("User %d", user.ID)
}
