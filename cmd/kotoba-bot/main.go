package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/smith3v/kotoba-srs/pkg/bot/handlers"
	"github.com/smith3v/kotoba-srs/pkg/bot/reminders"
	"github.com/smith3v/kotoba-srs/pkg/bot/reports"
	"github.com/smith3v/kotoba-srs/pkg/bot/training"
	"github.com/smith3v/kotoba-srs/pkg/config"
	"github.com/smith3v/kotoba-srs/pkg/db"
	"github.com/smith3v/kotoba-srs/pkg/logger"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON configuration file")
	flag.Parse()

	if err := config.LoadConfig(*configPath); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := logger.Configure(logger.Options{
		Level: config.AppConfig.Logging.Level,
		File:  config.AppConfig.Logging.File,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}

	if err := db.InitDB(config.AppConfig.Database); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	activity := handlers.NewActivityTracker()
	opts := []bot.Option{
		bot.WithDefaultHandler(handlers.DefaultHandler),
		bot.WithMiddlewares(handlers.ActivityMiddleware(activity)),
	}
	b, err := bot.New(config.AppConfig.Telegram.Token, opts...)
	if err != nil {
		logger.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, handlers.HandleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/study", bot.MatchTypeExact, handlers.HandleStudy)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/stats", bot.MatchTypeExact, handlers.HandleStats)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/settings", bot.MatchTypeExact, handlers.HandleSettings)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/export", bot.MatchTypeExact, handlers.HandleExport)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/clear", bot.MatchTypeExact, handlers.HandleClear)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/report", bot.MatchTypeExact, handlers.HandleReport)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "s:", bot.MatchTypePrefix, handlers.HandleSettingsCallback)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, training.ReviewCallbackPrefix, bot.MatchTypePrefix, handlers.HandleGradeCallback)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, training.BacklogCallbackPrefix, bot.MatchTypePrefix, handlers.HandleBacklogCallback)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reminders.StartPeriodicMessages(gctx, b)
		return nil
	})
	g.Go(func() error {
		training.StartTrainingSweeper(gctx)
		return nil
	})
	g.Go(func() error {
		training.StartBacklogSweeper(gctx)
		return nil
	})
	g.Go(func() error {
		reports.DefaultManager.StartSweeper(gctx)
		return nil
	})
	g.Go(func() error {
		db.StartSessionCleanup(gctx, db.SessionCleanupInterval)
		return nil
	})
	g.Go(func() error {
		handlers.StartActivityFlusher(gctx, activity)
		return nil
	})
	g.Go(func() error {
		logger.Info("Starting bot...")
		b.Start(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("bot stopped")
}
