package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/smith3v/kotoba-srs/pkg/db"
	"github.com/smith3v/kotoba-srs/pkg/logger"
	"github.com/smith3v/kotoba-srs/pkg/queue"
)

type Session struct {
	chatID            int64
	userID            int64
	queue             []queue.StudyCard
	vocabIDs          []string
	currentCard       *queue.StudyCard
	currentToken      string
	currentMessageID  int
	currentPromptText string
	claimedToken      string
	lastActivityAt    time.Time
	currentIndex      int
	totalCards        int
	reviewedCount     int
}

func (s *Session) CurrentCard() *queue.StudyCard {
	if s == nil {
		return nil
	}
	return s.currentCard
}

func (s *Session) CurrentToken() string {
	if s == nil {
		return ""
	}
	return s.currentToken
}

func (s *Session) Total() int {
	if s == nil {
		return 0
	}
	return s.totalCards
}

type SessionSnapshot struct {
	Card       queue.StudyCard
	Token      string
	MessageID  int
	PromptText string
	Reviewed   int
	Total      int
	HasPrompt  bool
	HasMessage bool
}

type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewSessionManager(now func() time.Time) *SessionManager {
	if now == nil {
		now = time.Now
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		now:      now,
	}
}

var DefaultManager = NewSessionManager(nil)

func ResetDefaultManager(now func() time.Time) {
	DefaultManager = NewSessionManager(now)
}

const (
	SessionInactivityTimeout = 24 * time.Hour
	SessionSweeperInterval   = 10 * time.Minute
)

func StartTrainingSweeper(ctx context.Context) {
	DefaultManager.StartSweeper(ctx)
}

// StartOrRestart replaces any running session for the chat with a new one
// over cards, keeping their order.
func (m *SessionManager) StartOrRestart(chatID, userID int64, cards []queue.StudyCard) *Session {
	now := m.now()
	vocabIDs := make([]string, 0, len(cards))
	for _, card := range cards {
		vocabIDs = append(vocabIDs, card.Vocab.ID)
	}
	session := &Session{
		chatID:         chatID,
		userID:         userID,
		queue:          append([]queue.StudyCard(nil), cards...),
		vocabIDs:       vocabIDs,
		lastActivityAt: now,
		currentIndex:   -1,
		totalCards:     len(cards),
	}
	key := getSessionKey(chatID, userID)
	m.mu.Lock()
	m.sessions[key] = session
	m.nextPromptLocked(session)
	dbSession, err := buildTrainingSession(session)
	m.mu.Unlock()
	if err != nil {
		logger.Error("failed to build training session", "user_id", userID, "error", err)
		return session
	}
	if err := UpsertTrainingSession(dbSession); err != nil {
		logger.Error("failed to persist training session", "user_id", userID, "error", err)
	}
	return session
}

// StartFromPersisted rebuilds an in-memory session from its stored row.
// Cards missing from the catalog are dropped.
func (m *SessionManager) StartFromPersisted(row *db.TrainingSession, cards []queue.StudyCard) (*Session, error) {
	if row == nil {
		return nil, errors.New("nil training session row")
	}
	var vocabIDs []string
	if err := json.Unmarshal(row.VocabIDs, &vocabIDs); err != nil {
		return nil, err
	}
	indexed := make(map[string]queue.StudyCard, len(cards))
	for _, card := range cards {
		indexed[card.Vocab.ID] = card
	}
	ordered := make([]queue.StudyCard, 0, len(vocabIDs))
	kept := make([]string, 0, len(vocabIDs))
	currentIndex := -1
	for i, id := range vocabIDs {
		card, ok := indexed[id]
		if !ok {
			continue
		}
		if i == row.CurrentIndex {
			currentIndex = len(ordered)
		}
		ordered = append(ordered, card)
		kept = append(kept, id)
	}
	if currentIndex < 0 {
		return nil, errors.New("current index out of range")
	}

	session := &Session{
		chatID:            row.ChatID,
		userID:            row.UserID,
		queue:             append([]queue.StudyCard(nil), ordered[currentIndex+1:]...),
		vocabIDs:          kept,
		currentCard:       &ordered[currentIndex],
		currentToken:      row.CurrentToken,
		currentMessageID:  row.CurrentMessageID,
		currentPromptText: row.CurrentPromptText,
		lastActivityAt:    row.LastActivityAt,
		currentIndex:      currentIndex,
		totalCards:        len(ordered),
		reviewedCount:     row.ReviewedCount,
	}
	key := getSessionKey(row.ChatID, row.UserID)
	m.mu.Lock()
	m.sessions[key] = session
	m.mu.Unlock()
	return session, nil
}

func (m *SessionManager) MarkReviewed(chatID, userID int64) (int, int) {
	key := getSessionKey(chatID, userID)
	m.mu.Lock()
	session := m.sessions[key]
	if session == nil {
		m.mu.Unlock()
		return 0, 0
	}
	session.lastActivityAt = m.now()
	if session.reviewedCount < session.totalCards {
		session.reviewedCount++
	}
	dbSession, err := buildTrainingSession(session)
	reviewedCount := session.reviewedCount
	totalCards := session.totalCards
	m.mu.Unlock()
	if err != nil {
		logger.Error("failed to build training session", "user_id", userID, "error", err)
		return reviewedCount, totalCards
	}
	if err := UpsertTrainingSession(dbSession); err != nil {
		logger.Error("failed to persist training session", "user_id", userID, "error", err)
	}
	return reviewedCount, totalCards
}

func (m *SessionManager) GetSession(chatID, userID int64) *Session {
	key := getSessionKey(chatID, userID)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[key]
}

func (m *SessionManager) End(chatID, userID int64) {
	key := getSessionKey(chatID, userID)
	m.mu.Lock()
	delete(m.sessions, key)
	m.mu.Unlock()
	if err := DeleteTrainingSession(chatID, userID); err != nil {
		logger.Error("failed to delete training session", "user_id", userID, "error", err)
	}
}

func (m *SessionManager) Snapshot(chatID, userID int64) (SessionSnapshot, bool) {
	key := getSessionKey(chatID, userID)
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.sessions[key]
	if session == nil || session.currentCard == nil {
		return SessionSnapshot{}, false
	}
	return snapshotLocked(session), true
}

func snapshotLocked(session *Session) SessionSnapshot {
	return SessionSnapshot{
		Card:       *session.currentCard,
		Token:      session.currentToken,
		MessageID:  session.currentMessageID,
		PromptText: session.currentPromptText,
		Reviewed:   session.reviewedCount,
		Total:      session.totalCards,
		HasPrompt:  session.currentPromptText != "",
		HasMessage: session.currentMessageID != 0,
	}
}

// ClaimToken takes the current card for grading. Only one caller can claim a
// token; later callers with the same token get false until ReleaseToken.
func (m *SessionManager) ClaimToken(chatID, userID int64, token string) (SessionSnapshot, bool) {
	key := getSessionKey(chatID, userID)
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.sessions[key]
	if session == nil || session.currentCard == nil || token == "" || session.currentToken != token {
		return SessionSnapshot{}, false
	}
	snapshot := snapshotLocked(session)
	session.claimedToken = token
	session.currentToken = newToken()
	return snapshot, true
}

// ReleaseToken hands a claimed card back so the same button works again.
func (m *SessionManager) ReleaseToken(chatID, userID int64, token string) {
	key := getSessionKey(chatID, userID)
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.sessions[key]
	if session == nil || token == "" || session.claimedToken != token {
		return
	}
	session.currentToken = token
	session.claimedToken = ""
}

// BindPrompt records the message carrying the current card so callbacks from
// older messages can be rejected.
func (m *SessionManager) BindPrompt(session *Session, messageID int, text string) {
	if session == nil {
		return
	}
	m.mu.Lock()
	session.currentMessageID = messageID
	session.currentPromptText = text
	session.lastActivityAt = m.now()
	dbSession, err := buildTrainingSession(session)
	m.mu.Unlock()
	if err != nil {
		logger.Error("failed to build training session", "user_id", session.userID, "error", err)
		return
	}
	if err := UpsertTrainingSession(dbSession); err != nil {
		logger.Error("failed to persist training session", "user_id", session.userID, "error", err)
	}
}

func (m *SessionManager) Touch(chatID, userID int64) {
	key := getSessionKey(chatID, userID)
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.sessions[key]
	if session == nil {
		return
	}
	session.lastActivityAt = m.now()
}

func (m *SessionManager) Advance(chatID, userID int64) (*queue.StudyCard, string) {
	key := getSessionKey(chatID, userID)
	m.mu.Lock()
	session := m.sessions[key]
	if session == nil {
		m.mu.Unlock()
		return nil, ""
	}
	session.lastActivityAt = m.now()
	if !m.nextPromptLocked(session) {
		delete(m.sessions, key)
		m.mu.Unlock()
		if err := DeleteTrainingSession(chatID, userID); err != nil {
			logger.Error("failed to delete training session", "user_id", userID, "error", err)
		}
		return nil, ""
	}
	card, token := session.currentCard, session.currentToken
	dbSession, err := buildTrainingSession(session)
	m.mu.Unlock()
	if err != nil {
		logger.Error("failed to build training session", "user_id", userID, "error", err)
		return card, token
	}
	if err := UpsertTrainingSession(dbSession); err != nil {
		logger.Error("failed to persist training session", "user_id", userID, "error", err)
	}
	return card, token
}

func (m *SessionManager) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(SessionSweeperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SweepInactive(m.now())
		}
	}
}

func (m *SessionManager) SweepInactive(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, session := range m.sessions {
		if session == nil {
			delete(m.sessions, key)
			continue
		}
		if now.Sub(session.lastActivityAt) > SessionInactivityTimeout {
			delete(m.sessions, key)
		}
	}
}

func getSessionKey(chatID, userID int64) string {
	return fmt.Sprintf("%d:%d", chatID, userID)
}

func (m *SessionManager) nextPromptLocked(session *Session) bool {
	if session == nil || len(session.queue) == 0 {
		if session != nil {
			session.currentCard = nil
		}
		return false
	}
	card := session.queue[0]
	session.queue = session.queue[1:]
	session.currentCard = &card
	session.currentToken = m.nextTokenLocked()
	session.claimedToken = ""
	session.currentMessageID = 0
	session.currentPromptText = ""
	session.currentIndex++
	return true
}

func (m *SessionManager) nextTokenLocked() string {
	return newToken()
}

func newToken() string {
	return fmt.Sprintf("%x", rand.Int63())
}

func buildTrainingSession(session *Session) (*db.TrainingSession, error) {
	if session == nil {
		return nil, errors.New("nil session")
	}
	return &db.TrainingSession{
		ChatID:            session.chatID,
		UserID:            session.userID,
		VocabIDs:          db.EncodeList(session.vocabIDs),
		CurrentIndex:      session.currentIndex,
		CurrentToken:      session.currentToken,
		CurrentMessageID:  session.currentMessageID,
		CurrentPromptText: session.currentPromptText,
		ReviewedCount:     session.reviewedCount,
		LastActivityAt:    session.lastActivityAt,
	}, nil
}
