package importexport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/kotoba-srs/pkg/config"
	"github.com/smith3v/kotoba-srs/pkg/logger"
)

type ImportResult struct {
	Inserted int
	Updated  int
	Skipped  int
}

func (r ImportResult) String() string {
	return fmt.Sprintf("Imported %d new words, updated %d words, skipped %d rows.", r.Inserted, r.Updated, r.Skipped)
}

// ImportCatalog parses CSV data and upserts it into the shared catalog.
func ImportCatalog(data []byte) (ImportResult, error) {
	rows, skipped, err := ParseCatalogCSV(data)
	if err != nil {
		return ImportResult{}, fmt.Errorf("parse csv: %w", err)
	}
	inserted, updated, err := UpsertCatalog(rows)
	if err != nil {
		return ImportResult{}, fmt.Errorf("upsert catalog: %w", err)
	}
	return ImportResult{Inserted: inserted, Updated: updated, Skipped: skipped}, nil
}

func ImportCatalogFile(path string) (ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{}, err
	}
	return ImportCatalog(data)
}

// HandleDocumentImport loads a catalog CSV sent by an administrator.
func HandleDocumentImport(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.Document == nil || update.Message.From == nil {
		logger.Error("invalid update in HandleDocumentImport")
		return
	}
	if update.Message.Chat.ID == 0 {
		logger.Error("chat ID is zero in HandleDocumentImport")
		return
	}

	doc := update.Message.Document
	userID := update.Message.From.ID
	if !config.AppConfig.Telegram.IsAdmin(userID) {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "Only administrators can update the vocabulary catalog.",
		})
		return
	}
	logger.Info("uploading catalog file", "file_name", doc.FileName, "user_id", userID)

	if !strings.HasSuffix(strings.ToLower(doc.FileName), ".csv") {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "The uploaded file is not a CSV. Please upload a valid CSV file.",
		})
		return
	}

	file, err := b.GetFile(ctx, &bot.GetFileParams{FileID: doc.FileID})
	if err != nil {
		logger.Error("failed to get file", "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "Failed to download the file. Please try again.",
		})
		return
	}

	fileURL := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", config.AppConfig.Telegram.Token, file.FilePath)
	data, err := downloadFile(ctx, fileURL)
	if err != nil {
		logger.Error("failed to download file", "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "Failed to open the file. Please try again.",
		})
		return
	}

	rows, skipped, err := ParseCatalogCSV(data)
	if err != nil {
		logger.Error("failed to parse CSV file", "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "Failed to read the CSV file. Please ensure it is in the correct format.",
		})
		return
	}
	if len(rows) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "No valid words found to import.",
		})
		return
	}

	inserted, updated, err := UpsertCatalog(rows)
	if err != nil {
		logger.Error("failed to import catalog", "user_id", userID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "Failed to import the catalog. Please try again later.",
		})
		return
	}

	result := ImportResult{Inserted: inserted, Updated: updated, Skipped: skipped}
	logger.Info("catalog imported", "user_id", userID, "inserted", inserted, "updated", updated, "skipped", skipped)
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   result.String(),
	})
}

func downloadFile(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
