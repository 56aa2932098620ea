// Command kotoba-seed loads a vocabulary CSV into the shared catalog.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/smith3v/kotoba-srs/pkg/bot/importexport"
	"github.com/smith3v/kotoba-srs/pkg/config"
	"github.com/smith3v/kotoba-srs/pkg/db"
	"github.com/smith3v/kotoba-srs/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON configuration file")
	csvPath := flag.String("csv", "", "vocabulary CSV to import")
	flag.Parse()

	if *csvPath == "" {
		fmt.Fprintln(os.Stderr, "usage: kotoba-seed -csv vocabulary.csv [-config config.json]")
		os.Exit(2)
	}

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

	result, err := importexport.ImportCatalogFile(*csvPath)
	if err != nil {
		logger.Error("failed to import catalog", "path", *csvPath, "error", err)
		os.Exit(1)
	}
	logger.Info("catalog imported", "path", *csvPath, "inserted", result.Inserted, "updated", result.Updated, "skipped", result.Skipped)
	fmt.Println(result.String())
}
