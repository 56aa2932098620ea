package reminders

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	telegram "github.com/go-telegram/bot"
	"github.com/smith3v/kotoba-srs/pkg/bot/training"
	"github.com/smith3v/kotoba-srs/pkg/db"
	"github.com/smith3v/kotoba-srs/pkg/internal/testutil"
	"github.com/smith3v/kotoba-srs/pkg/logger"
)

type recordedRequest struct {
	path        string
	method      string
	contentType string
	body        []byte
}

type mockClient struct {
	requests []recordedRequest
	response string
}

func newMockClient() *mockClient {
	return &mockClient{
		response: `{"ok":true,"result":{}}`,
	}
}

func (m *mockClient) Do(req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if err := req.Body.Close(); err != nil {
		return nil, fmt.Errorf("failed to close request body: %w", err)
	}
	m.requests = append(m.requests, recordedRequest{
		path:        req.URL.Path,
		method:      req.Method,
		contentType: req.Header.Get("Content-Type"),
		body:        body,
	})

	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(m.response)),
		Header:     make(http.Header),
	}
	return resp, nil
}

func (m *mockClient) lastMessageText(t *testing.T) string {
	t.Helper()
	if len(m.requests) == 0 {
		t.Fatalf("expected at least one recorded request")
	}
	req := m.requests[len(m.requests)-1]

	mediaType, params, err := mime.ParseMediaType(req.contentType)
	if err != nil {
		t.Fatalf("failed to parse media type: %v", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		t.Fatalf("unexpected media type: %s", mediaType)
	}

	reader := multipart.NewReader(bytes.NewReader(req.body), params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read multipart part: %v", err)
		}
		if part.FormName() == "text" {
			data, err := io.ReadAll(part)
			if err != nil {
				t.Fatalf("failed to read text part: %v", err)
			}
			return string(data)
		}
	}
	t.Fatalf("text field not found in request")
	return ""
}

func newTestTelegramBot(t *testing.T, client *mockClient) *telegram.Bot {
	t.Helper()
	b, err := telegram.New("test-token",
		telegram.WithSkipGetMe(),
		telegram.WithHTTPClient(time.Second, client),
	)
	if err != nil {
		t.Fatalf("failed to create test bot: %v", err)
	}
	return b
}

func TestLatestDueSlotSelectsMostRecent(t *testing.T) {
	now := time.Date(2025, 1, 2, 14, 30, 0, 0, time.UTC)
	user := db.UserSettings{
		UserID:              1,
		ReminderMorning:     true,
		ReminderAfternoon:   true,
		ReminderEvening:     true,
		TimezoneOffsetHours: 0,
	}

	slot, ok := latestDueSlot(now, user)
	if !ok {
		t.Fatalf("expected due slot")
	}
	expected := time.Date(2025, 1, 2, 13, 0, 0, 0, time.UTC)
	if !slot.Equal(expected) {
		t.Fatalf("expected slot %v, got %v", expected, slot)
	}
}

func TestLatestDueSlotRespectsLastSent(t *testing.T) {
	now := time.Date(2025, 1, 2, 21, 0, 0, 0, time.UTC)
	lastSent := time.Date(2025, 1, 2, 20, 30, 0, 0, time.UTC)
	user := db.UserSettings{
		UserID:              1,
		ReminderMorning:     true,
		ReminderAfternoon:   true,
		ReminderEvening:     true,
		TimezoneOffsetHours: 0,
		LastTrainingSentAt:  &lastSent,
	}

	_, ok := latestDueSlot(now, user)
	if ok {
		t.Fatalf("expected no due slot after evening send")
	}
}

func TestComputeMissedCount(t *testing.T) {
	lastSent := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	lastEngaged := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

	user := db.UserSettings{
		MissedTrainingSessions: 1,
		LastTrainingSentAt:     &lastSent,
	}
	if got := computeMissedCount(user); got != 2 {
		t.Fatalf("expected missed count 2, got %d", got)
	}

	user.LastTrainingEngagedAt = &lastEngaged
	if got := computeMissedCount(user); got != 0 {
		t.Fatalf("expected missed reset to 0, got %d", got)
	}
}

func TestLatestDueSlotUsesLearnerTimezone(t *testing.T) {
	// 23:30 UTC is 08:30 the next day in UTC+9.
	now := time.Date(2025, 1, 2, 23, 30, 0, 0, time.UTC)
	user := db.UserSettings{UserID: 1, ReminderMorning: true, TimezoneOffsetHours: 9}

	slot, ok := latestDueSlot(now, user)
	if !ok {
		t.Fatalf("expected morning slot to be due")
	}
	expected := time.Date(2025, 1, 2, 23, 0, 0, 0, time.UTC)
	if !slot.Equal(expected) {
		t.Fatalf("expected slot %v, got %v", expected, slot)
	}
}

var reminderNow = time.Date(2025, 6, 1, 8, 5, 0, 0, time.UTC)

func seedCatalog(t *testing.T) {
	t.Helper()
	testutil.SeedCatalog(t,
		db.Vocabulary{ID: "v1", Term: "猫", Reading: "ねこ", Meaning: "cat", FrequencyRank: 1},
		db.Vocabulary{ID: "v2", Term: "犬", Reading: "いぬ", Meaning: "dog", FrequencyRank: 2},
	)
}

func seedDue(t *testing.T, userID int64, ids ...string) {
	t.Helper()
	for _, id := range ids {
		row := db.VocabProgress{UserID: userID, VocabID: id, Interval: 6, EaseFactor: 2.5, Repetitions: 2, NextReview: reminderNow.AddDate(0, 0, -2), Status: "review"}
		if err := db.DB.Create(&row).Error; err != nil {
			t.Fatalf("failed to seed progress: %v", err)
		}
	}
}

func setupReminderTest(t *testing.T) {
	t.Helper()
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	clock := func() time.Time { return reminderNow }
	training.ResetDefaultManager(clock)
	training.ResetBacklogManager(clock)
	t.Cleanup(func() {
		training.ResetDefaultManager(time.Now)
		training.ResetBacklogManager(time.Now)
	})
}

func TestSendReminderNothingToStudy(t *testing.T) {
	setupReminderTest(t)

	client := newMockClient()
	b := newTestTelegramBot(t, client)
	user := db.UserSettings{UserID: 10, DailyGoal: 20, MaxNewCards: 20, MaxReviewCards: 100}

	sent, err := sendReminder(context.Background(), b, user, reminderNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent {
		t.Fatalf("expected no reminder to send")
	}
	if len(client.requests) != 0 {
		t.Fatalf("expected no message to be sent")
	}
}

func TestSendReminderStartsSession(t *testing.T) {
	setupReminderTest(t)
	seedCatalog(t)

	client := newMockClient()
	client.response = `{"ok":true,"result":{"message_id":90}}`
	b := newTestTelegramBot(t, client)
	user := db.UserSettings{UserID: 11, DailyGoal: 20, MaxNewCards: 20, MaxReviewCards: 100}

	sent, err := sendReminder(context.Background(), b, user, reminderNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sent {
		t.Fatalf("expected reminder to be sent")
	}

	got := client.lastMessageText(t)
	if !strings.Contains(got, "猫") || !strings.Contains(got, "||") {
		t.Fatalf("expected card prompt with spoilers, got %q", got)
	}
	snapshot, ok := training.DefaultManager.Snapshot(11, 11)
	if !ok || snapshot.MessageID != 90 {
		t.Fatalf("expected bound session, got %+v", snapshot)
	}
}

func TestSendReminderSkipsWhenGoalReached(t *testing.T) {
	setupReminderTest(t)
	seedCatalog(t)
	stats := db.StudyStats{UserID: 12, StudyDate: "2025-06-01", CardsReviewed: 20, GoalCompleted: true}
	if err := db.DB.Create(&stats).Error; err != nil {
		t.Fatalf("failed to seed stats: %v", err)
	}

	client := newMockClient()
	b := newTestTelegramBot(t, client)
	user := db.UserSettings{UserID: 12, DailyGoal: 20, MaxNewCards: 20, MaxReviewCards: 100}

	sent, err := sendReminder(context.Background(), b, user, reminderNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent || len(client.requests) != 0 {
		t.Fatalf("expected no reminder once the daily goal is met")
	}
}

func TestSendReminderOffersBacklog(t *testing.T) {
	setupReminderTest(t)
	seedCatalog(t)
	seedDue(t, 13, "v1", "v2")

	client := newMockClient()
	b := newTestTelegramBot(t, client)
	user := db.UserSettings{UserID: 13, DailyGoal: 20, MaxNewCards: 20, MaxReviewCards: 1}

	sent, err := sendReminder(context.Background(), b, user, reminderNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sent {
		t.Fatalf("expected backlog prompt to be sent")
	}
	if got := client.lastMessageText(t); !strings.Contains(got, "2 cards waiting") {
		t.Fatalf("expected backlog prompt, got %q", got)
	}
	if training.DefaultManager.GetSession(13, 13) != nil {
		t.Fatalf("expected no session before the learner chooses")
	}
}

func TestHandleUserReminderPausesAfterMisses(t *testing.T) {
	setupReminderTest(t)
	seedCatalog(t)

	lastSent := reminderNow.AddDate(0, 0, -1)
	user := db.UserSettings{
		UserID:                 14,
		DailyGoal:              20,
		MaxNewCards:            20,
		MaxReviewCards:         100,
		ReminderMorning:        true,
		MissedTrainingSessions: MaxMissedReminders - 1,
		LastTrainingSentAt:     &lastSent,
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed settings: %v", err)
	}

	client := newMockClient()
	b := newTestTelegramBot(t, client)

	handleUserReminder(context.Background(), b, user, reminderNow)

	var updated db.UserSettings
	if err := db.DB.Where("user_id = ?", 14).First(&updated).Error; err != nil {
		t.Fatalf("failed to reload settings: %v", err)
	}
	if !updated.TrainingPaused || updated.MissedTrainingSessions != MaxMissedReminders {
		t.Fatalf("expected reminders to pause, got %+v", updated)
	}
	if got := client.lastMessageText(t); !strings.Contains(got, "Paused reminders") {
		t.Fatalf("expected pause notice, got %q", got)
	}
}

func TestHandleUserReminderRecordsSend(t *testing.T) {
	setupReminderTest(t)
	seedCatalog(t)

	user := db.UserSettings{UserID: 15, DailyGoal: 20, MaxNewCards: 20, MaxReviewCards: 100, ReminderMorning: true}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed settings: %v", err)
	}

	client := newMockClient()
	client.response = `{"ok":true,"result":{"message_id":91}}`
	b := newTestTelegramBot(t, client)

	handleUserReminder(context.Background(), b, user, reminderNow)

	var updated db.UserSettings
	if err := db.DB.Where("user_id = ?", 15).First(&updated).Error; err != nil {
		t.Fatalf("failed to reload settings: %v", err)
	}
	if updated.LastTrainingSentAt == nil || !updated.LastTrainingSentAt.Equal(reminderNow) {
		t.Fatalf("expected send time to be recorded, got %v", updated.LastTrainingSentAt)
	}
	if _, ok := latestDueSlot(reminderNow, updated); ok {
		t.Fatalf("expected morning slot to be consumed")
	}
}
