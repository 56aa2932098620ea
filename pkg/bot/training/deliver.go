package training

import (
	"context"
	"errors"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/kotoba-srs/pkg/db"
	"github.com/smith3v/kotoba-srs/pkg/queue"
)

var ErrNothingToStudy = errors.New("nothing to study")

// StartStudy builds a fresh queue for the learner and sends its first card.
// It returns ErrNothingToStudy when no card is new or due.
func StartStudy(ctx context.Context, b *bot.Bot, chatID, userID int64, settings db.UserSettings, now time.Time) (*Session, error) {
	cards, err := BuildSessionQueue(userID, settings, now)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, ErrNothingToStudy
	}
	session := DefaultManager.StartOrRestart(chatID, userID, cards)
	if err := SendCurrentCard(ctx, b, chatID, session); err != nil {
		return session, err
	}
	return session, nil
}

func SendCurrentCard(ctx context.Context, b *bot.Bot, chatID int64, session *Session) error {
	card := session.CurrentCard()
	if card == nil {
		return ErrNothingToStudy
	}
	prompt := BuildPrompt(*card)
	msg, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        prompt,
		ParseMode:   models.ParseModeMarkdown,
		ReplyMarkup: BuildKeyboard(session.CurrentToken()),
	})
	if err != nil {
		return err
	}
	DefaultManager.BindPrompt(session, msg.ID, prompt)
	return nil
}

// SendBacklogPrompt offers to catch up or snooze when the due pile is larger
// than one session.
func SendBacklogPrompt(ctx context.Context, b *bot.Bot, chatID, userID int64, counts queue.Counts) error {
	token := DefaultBacklog.Start(chatID, userID)
	msg, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        BuildBacklogText(counts),
		ReplyMarkup: BuildBacklogKeyboard(token),
	})
	if err != nil {
		return err
	}
	DefaultBacklog.BindMessage(chatID, userID, token, msg.ID)
	return nil
}
