package training

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/smith3v/kotoba-srs/pkg/db"
	"github.com/smith3v/kotoba-srs/pkg/queue"
	"github.com/smith3v/kotoba-srs/pkg/srs"
)

const (
	BacklogCallbackPrefix   = "t:backlog:"
	BacklogPromptExpiration = 24 * time.Hour

	BacklogCatchUp    = "catch"
	BacklogSnoozeDay  = "snooze1d"
	BacklogSnoozeWeek = "snooze1w"
)

type backlogPrompt struct {
	token     string
	messageID int
	createdAt time.Time
}

// BacklogManager tracks the single outstanding "you are behind" prompt per
// chat so only its buttons are honoured.
type BacklogManager struct {
	mu      sync.Mutex
	prompts map[string]backlogPrompt
	now     func() time.Time
}

func NewBacklogManager(now func() time.Time) *BacklogManager {
	if now == nil {
		now = time.Now
	}
	return &BacklogManager{
		prompts: make(map[string]backlogPrompt),
		now:     now,
	}
}

var DefaultBacklog = NewBacklogManager(nil)

func ResetBacklogManager(now func() time.Time) {
	DefaultBacklog = NewBacklogManager(now)
}

func (m *BacklogManager) Start(chatID, userID int64) string {
	token := newToken()
	key := getSessionKey(chatID, userID)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts[key] = backlogPrompt{
		token:     token,
		createdAt: m.now(),
	}
	return token
}

func (m *BacklogManager) BindMessage(chatID, userID int64, token string, messageID int) {
	key := getSessionKey(chatID, userID)
	m.mu.Lock()
	defer m.mu.Unlock()
	prompt := m.prompts[key]
	if prompt.token != token {
		return
	}
	prompt.messageID = messageID
	m.prompts[key] = prompt
}

// Validate consumes the prompt when token and message match.
func (m *BacklogManager) Validate(chatID, userID int64, token string, messageID int) bool {
	key := getSessionKey(chatID, userID)
	m.mu.Lock()
	defer m.mu.Unlock()
	prompt, ok := m.prompts[key]
	if !ok {
		return false
	}
	if prompt.token != token || prompt.messageID != messageID {
		return false
	}
	delete(m.prompts, key)
	return true
}

func (m *BacklogManager) SweepExpired(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, prompt := range m.prompts {
		if now.Sub(prompt.createdAt) > BacklogPromptExpiration {
			delete(m.prompts, key)
		}
	}
}

// StartBacklogSweeper drops unanswered backlog prompts until ctx is done.
func StartBacklogSweeper(ctx context.Context) {
	ticker := time.NewTicker(SessionSweeperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			DefaultBacklog.SweepExpired(now)
		}
	}
}

// HasBacklog reports whether more cards are due than a single session can
// take, which is when catching up or snoozing is offered.
func HasBacklog(counts queue.Counts, opts queue.Options) bool {
	return opts.MaxReviewCards > 0 && counts.Due > opts.MaxReviewCards
}

func BuildBacklogText(counts queue.Counts) string {
	return fmt.Sprintf("You have %d cards waiting for review. Catch up now or push the overdue ones back?", counts.Due)
}

func BuildBacklogKeyboard(token string) *models.InlineKeyboardMarkup {
	data := func(action string) string {
		return BacklogCallbackPrefix + token + ":" + action
	}
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "Catch up", CallbackData: data(BacklogCatchUp)}},
			{
				{Text: "Snooze 1 day", CallbackData: data(BacklogSnoozeDay)},
				{Text: "Snooze 1 week", CallbackData: data(BacklogSnoozeWeek)},
			},
		},
	}
}

func ParseBacklogCallback(data string) (string, string, bool) {
	if !strings.HasPrefix(data, BacklogCallbackPrefix) {
		return "", "", false
	}
	parts := strings.Split(data, ":")
	if len(parts) != 4 || parts[0] != "t" || parts[1] != "backlog" || parts[2] == "" {
		return "", "", false
	}
	switch parts[3] {
	case BacklogCatchUp, BacklogSnoozeDay, BacklogSnoozeWeek:
		return parts[2], parts[3], true
	default:
		return "", "", false
	}
}

// SnoozeBacklog moves every card due today or earlier to the learner's
// midnight days from now. Intervals and ease are left alone.
func SnoozeBacklog(userID int64, settings db.UserSettings, days int, now time.Time) (int64, error) {
	local := UserNow(settings, now)
	today := srs.StartOfDay(local)
	res := db.DB.Model(&db.VocabProgress{}).
		Where("user_id = ? AND next_review < ?", userID, today.AddDate(0, 0, 1)).
		Update("next_review", today.AddDate(0, 0, days))
	return res.RowsAffected, res.Error
}
