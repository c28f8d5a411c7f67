package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"portfolio/src/app"
	"portfolio/src/config"
	"portfolio/src/utils"
	aws_handler "portfolio/src/utils/aws"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

var commands = []subcommands.Command{
	newRunCmd(),
	newBackfillCmd(),
	newQuantitiesCmd(),
	newYearRangeCmd(),
	&createUserCmd{},
	&migrateCmd{},
}

// loadConfig reads the settings directory selected by -settings and the ENV variable, then applies AWS secrets.
func loadConfig(ctx context.Context) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig(*settingsDir, os.Getenv("ENV"))
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger := utils.NewLogger(utils.ParseLevel(cfg.Logging.Level), cfg.Logging.ToFile, cfg.Logging.FilePath)
	if err := aws_handler.LoadSecrets(ctx, cfg); err != nil {
		return nil, nil, fmt.Errorf("loading secrets: %w", err)
	}
	return cfg, logger, nil
}

// connect returns the wired dependencies and a context carrying the logger.
func connect(ctx context.Context) (context.Context, *app.Dependencies, error) {
	cfg, logger, err := loadConfig(ctx)
	if err != nil {
		return ctx, nil, err
	}
	ctx = utils.WithLogger(ctx, logger)
	deps, err := app.Setup(ctx, cfg)
	if err != nil {
		return ctx, nil, err
	}
	return ctx, deps, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fail(format string, args ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}
