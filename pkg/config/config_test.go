package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smith3v/kotoba-srs/pkg/queue"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	configPath := filepath.Join(dir, "config.json")
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}
	return configPath
}

// unsetEnv clears keys for the duration of the test so .env files can fill
// them; t.Setenv restores the previous values afterwards.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoadConfigSuccess(t *testing.T) {
	original := AppConfig
	t.Cleanup(func() {
		AppConfig = original
	})
	t.Setenv(envTelegramToken, "")

	configPath := writeConfig(t, t.TempDir(), `{
		"database": {
			"host": "localhost",
			"user": "test-user",
			"password": "test-pass",
			"dbname": "testdb",
			"port": 5433,
			"sslmode": "disable"
		},
		"telegram": {
			"token": "test-token",
			"admin_ids": [42]
		},
		"study": {
			"daily_goal": 30,
			"max_new_cards": 5
		}
	}`)

	if err := LoadConfig(configPath); err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if AppConfig.Database.Host != "localhost" {
		t.Errorf("expected host to be localhost, got %q", AppConfig.Database.Host)
	}
	if AppConfig.Database.Port != 5433 {
		t.Errorf("expected port to be 5433, got %d", AppConfig.Database.Port)
	}
	if AppConfig.Database.Driver != "postgres" {
		t.Errorf("expected default postgres driver, got %q", AppConfig.Database.Driver)
	}
	if AppConfig.Telegram.Token != "test-token" {
		t.Errorf("expected token to be test-token, got %q", AppConfig.Telegram.Token)
	}
	if !AppConfig.Telegram.IsAdmin(42) || AppConfig.Telegram.IsAdmin(7) {
		t.Errorf("unexpected admin ids %v", AppConfig.Telegram.AdminIDs)
	}
	if AppConfig.Study.DailyGoal != 30 || AppConfig.Study.MaxNewCards != 5 {
		t.Errorf("unexpected study config %+v", AppConfig.Study)
	}
	if AppConfig.Study.MaxReviewCards != queue.DefaultOptions().MaxReviewCards || AppConfig.Study.ReviewCardsPerBatch != 4 {
		t.Errorf("expected queue defaults to fill the rest, got %+v", AppConfig.Study)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	original := AppConfig
	t.Cleanup(func() {
		AppConfig = original
	})

	if err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error when loading a missing config file")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	original := AppConfig
	t.Cleanup(func() {
		AppConfig = original
	})
	unsetEnv(t, envTelegramToken, envDBDriver, envDBDSN)

	dir := t.TempDir()
	configPath := writeConfig(t, dir, `{"database": {"host": "db"}}`)
	env := "KOTOBA_TELEGRAM_TOKEN=from-env\nKOTOBA_DB_DRIVER=SQLite\nKOTOBA_DB_DSN=file:test.db\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatalf("failed to write env fixture: %v", err)
	}

	if err := LoadConfig(configPath); err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if AppConfig.Telegram.Token != "from-env" {
		t.Errorf("expected token from .env, got %q", AppConfig.Telegram.Token)
	}
	if AppConfig.Database.Driver != "sqlite" || AppConfig.Database.DSN != "file:test.db" {
		t.Errorf("unexpected database config %+v", AppConfig.Database)
	}
}

func TestLoadConfigRejectsInvalidStudyOptions(t *testing.T) {
	original := AppConfig
	t.Cleanup(func() {
		AppConfig = original
	})
	t.Setenv(envTelegramToken, "")

	configPath := writeConfig(t, t.TempDir(), `{
		"telegram": {"token": "t"},
		"study": {"max_new_cards": -3}
	}`)

	err := LoadConfig(configPath)
	if !errors.Is(err, queue.ErrInvalidOptions) {
		t.Fatalf("expected invalid options error, got %v", err)
	}
	if AppConfig.Telegram.Token == "t" {
		t.Fatal("expected AppConfig to stay untouched on validation failure")
	}
}

func TestValidateRequiresToken(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}
