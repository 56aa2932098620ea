package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/smith3v/kotoba-srs/pkg/logger"
	"github.com/smith3v/kotoba-srs/pkg/queue"
)

var ErrMissingToken = errors.New("telegram token is not configured")

const (
	envTelegramToken = "KOTOBA_TELEGRAM_TOKEN"
	envDBPassword    = "KOTOBA_DB_PASSWORD"
	envDBDriver      = "KOTOBA_DB_DRIVER"
	envDBDSN         = "KOTOBA_DB_DSN"

	DefaultDailyGoal = 20
)

type Config struct {
	Database DatabaseConfig `json:"database"`
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Study    StudyConfig    `json:"study"`
}

type DatabaseConfig struct {
	Driver   string `json:"driver"` // postgres (default) or sqlite
	DSN      string `json:"dsn"`    // overrides the discrete fields when set
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	Port     int    `json:"port"`
	SSLMode  string `json:"sslmode"`
	Path     string `json:"path"` // sqlite file
}

type TelegramConfig struct {
	Token    string  `json:"token"`
	AdminIDs []int64 `json:"admin_ids"`
}

type LoggingConfig struct {
	Level     string `json:"level"`
	File      string `json:"file"`
	GormLevel string `json:"gorm_level"`
}

// StudyConfig holds the defaults new learners start with. Zero values are
// replaced by the queue defaults when the file is loaded.
type StudyConfig struct {
	DailyGoal           int `json:"daily_goal"`
	MaxNewCards         int `json:"max_new_cards"`
	MaxReviewCards      int `json:"max_review_cards"`
	NewCardsPerBatch    int `json:"new_cards_per_batch"`
	ReviewCardsPerBatch int `json:"review_cards_per_batch"`
}

func (s StudyConfig) QueueOptions() queue.Options {
	return queue.Options{
		MaxNewCards:         s.MaxNewCards,
		MaxReviewCards:      s.MaxReviewCards,
		NewCardsPerBatch:    s.NewCardsPerBatch,
		ReviewCardsPerBatch: s.ReviewCardsPerBatch,
	}
}

func (c TelegramConfig) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

var AppConfig = Default()

func Default() Config {
	defaults := queue.DefaultOptions()
	return Config{
		Database: DatabaseConfig{Driver: "postgres", SSLMode: "disable", Port: 5432},
		Study: StudyConfig{
			DailyGoal:           DefaultDailyGoal,
			MaxNewCards:         defaults.MaxNewCards,
			MaxReviewCards:      defaults.MaxReviewCards,
			NewCardsPerBatch:    defaults.NewCardsPerBatch,
			ReviewCardsPerBatch: defaults.ReviewCardsPerBatch,
		},
	}
}

// LoadConfig reads the JSON file, then applies overrides from the
// environment and from an optional .env file next to it.
func LoadConfig(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		logger.Error("failed to open config file", "error", err)
		return err
	}
	defer file.Close()

	cfg := Default()
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		logger.Error("failed to decode config file", "error", err)
		return err
	}

	envFile := filepath.Join(filepath.Dir(filename), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error("failed to load env file", "path", envFile, "error", err)
		return err
	}
	applyEnv(&cfg)
	fillStudyDefaults(&cfg.Study)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	AppConfig = cfg
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Telegram.Token) == "" {
		errs = append(errs, ErrMissingToken)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}
	if c.Study.DailyGoal < 0 {
		errs = append(errs, fmt.Errorf("daily goal %d is negative", c.Study.DailyGoal))
	}
	if err := c.Study.QueueOptions().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(envTelegramToken)); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv(envDBPassword); v != "" {
		cfg.Database.Password = v
	}
	if v := strings.TrimSpace(os.Getenv(envDBDriver)); v != "" {
		cfg.Database.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(envDBDSN)); v != "" {
		cfg.Database.DSN = v
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
}

func fillStudyDefaults(s *StudyConfig) {
	defaults := queue.DefaultOptions()
	if s.MaxNewCards == 0 {
		s.MaxNewCards = defaults.MaxNewCards
	}
	if s.MaxReviewCards == 0 {
		s.MaxReviewCards = defaults.MaxReviewCards
	}
	if s.NewCardsPerBatch == 0 {
		s.NewCardsPerBatch = defaults.NewCardsPerBatch
	}
	if s.ReviewCardsPerBatch == 0 {
		s.ReviewCardsPerBatch = defaults.ReviewCardsPerBatch
	}
}
