package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/kotoba-srs/pkg/bot/importexport"
	"github.com/smith3v/kotoba-srs/pkg/logger"
)

const helpText = "Commands:\n" +
	"\\* /start: initialize your account\\.\n" +
	"\\* /study: review due cards and learn new words\\.\n" +
	"\\* /stats: see today\\'s progress and your queue\\.\n" +
	"\\* /settings: daily goal\\, session size\\, timezone and reminders\\.\n" +
	"\\* /export: download your progress as CSV\\.\n" +
	"\\* /report: flag the card on screen as wrong\\.\n" +
	"\\* /clear: reset all study progress\\.\n\n" +
	"Grade each card honestly: *Again* if you forgot it\\, *Hard*\\, *Good* or *Easy* if you remembered\\. " +
	"The better you know a word the longer it waits before coming back\\."

func DefaultHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		logger.Error("received invalid update in defaultHandler")
		return
	}
	if update.Message.Chat.ID == 0 {
		logger.Error("chat ID is zero in defaultHandler")
		return
	}

	if tryHandleReportCapture(ctx, b, update) {
		return
	}
	if update.Message.Document != nil {
		importexport.HandleDocumentImport(ctx, b, update)
		return
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      helpText,
		ParseMode: models.ParseModeMarkdown,
	}); err != nil {
		logger.Error("failed to send message in defaultHandler", "error", err)
	}
}
