package handlers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/smith3v/kotoba-srs/pkg/bot/reports"
	"github.com/smith3v/kotoba-srs/pkg/config"
	"github.com/smith3v/kotoba-srs/pkg/internal/testutil"
	"github.com/smith3v/kotoba-srs/pkg/logger"
)

func withReportAdmins(t *testing.T, ids ...int64) {
	t.Helper()
	originalConfig := config.AppConfig
	t.Cleanup(func() {
		config.AppConfig = originalConfig
		reports.ResetDefaultManager(nil)
	})
	config.AppConfig.Telegram.AdminIDs = ids
	reports.ResetDefaultManager(func() time.Time { return studyNow })
}

func TestHandleReportWithoutCard(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	fixStudyClock(t, studyNow)
	withReportAdmins(t, 1)

	client := newMockClient()
	b := newTestTelegramBot(t, client)

	HandleReport(context.Background(), b, newTestUpdate("/report", 950))

	if got := client.lastMessageText(t); !strings.Contains(got, "while a card is on screen") {
		t.Fatalf("expected hint, got %q", got)
	}
}

func TestHandleReportForwardsNote(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	fixStudyClock(t, studyNow)
	withReportAdmins(t, 1)
	testutil.SeedCatalog(t, testVocabulary()...)

	client := newMockClient()
	client.response = `{"ok":true,"result":{"message_id":55}}`
	b := newTestTelegramBot(t, client)

	HandleStudy(context.Background(), b, newTestUpdate("/study", 951))
	HandleReport(context.Background(), b, newTestUpdate("/report", 951))
	if got := client.lastMessageText(t); !strings.Contains(got, "What is wrong with 猫") {
		t.Fatalf("expected report prompt, got %q", got)
	}

	before := len(client.requests)
	DefaultHandler(context.Background(), b, newTestUpdate("meaning should be kitty", 951))

	if len(client.requests) != before+2 {
		t.Fatalf("expected admin summary and confirmation, got %d requests", len(client.requests)-before)
	}
	summary := string(client.requests[before].body)
	if !strings.Contains(summary, "Card: 猫 (v1)") || !strings.Contains(summary, "meaning should be kitty") {
		t.Fatalf("unexpected admin summary %q", summary)
	}
	if got := client.lastMessageText(t); !strings.Contains(got, "report was sent") {
		t.Fatalf("expected confirmation, got %q", got)
	}

	DefaultHandler(context.Background(), b, newTestUpdate("hello again", 951))
	if got := client.lastMessageText(t); !strings.Contains(got, "Commands:") {
		t.Fatalf("expected report to be consumed once, got %q", got)
	}
}
