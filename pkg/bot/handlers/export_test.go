package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/smith3v/kotoba-srs/pkg/internal/testutil"
	"github.com/smith3v/kotoba-srs/pkg/logger"
)

func TestHandleExportRejectsNonPrivateChat(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)

	client := newMockClient()
	b := newTestTelegramBot(t, client)
	update := newTestUpdate("/export", 400)
	update.Message.Chat.Type = models.ChatTypeGroup

	HandleExport(context.Background(), b, update)

	got := client.lastMessageText(t)
	if !strings.Contains(got, "only in private chat") {
		t.Fatalf("expected private chat warning, got %q", got)
	}
}

func TestHandleExportWithoutProgress(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	testutil.SeedCatalog(t, testVocabulary()...)

	client := newMockClient()
	b := newTestTelegramBot(t, client)
	update := newTestUpdate("/export", 401)
	update.Message.Chat.Type = models.ChatTypePrivate

	HandleExport(context.Background(), b, update)

	got := client.lastMessageText(t)
	if !strings.Contains(got, "not studied any words") {
		t.Fatalf("expected empty progress message, got %q", got)
	}
}

func TestHandleExportSendsDocument(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	fixStudyClock(t, studyNow)
	testutil.SeedCatalog(t, testVocabulary()...)
	seedOverdue(t, 402, studyNow, "v1", "v3")

	client := newMockClient()
	b := newTestTelegramBot(t, client)
	update := newTestUpdate("/export", 402)
	update.Message.Chat.Type = models.ChatTypePrivate

	HandleExport(context.Background(), b, update)

	caption, _ := client.lastMultipartField(t, "caption")
	if caption != "Your study progress (2 words)." {
		t.Fatalf("unexpected caption: %q", caption)
	}
	content, filename := client.lastMultipartField(t, "document")
	if filename != "kotoba-progress-20250601.csv" {
		t.Fatalf("unexpected filename: %q", filename)
	}
	if !strings.Contains(content, "猫") || !strings.Contains(content, "鳥") {
		t.Fatalf("expected studied terms in export, got %q", content)
	}
}
