package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuongbtq/printq/internal/bootstrap"
	"github.com/cuongbtq/printq/internal/cli"
	"github.com/cuongbtq/printq/internal/config"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, cli.ErrFailed) {
			os.Exit(1)
		}
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	_ = godotenv.Load()

	opts, fs, err := cli.ParseArgs("printq", os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		os.Exit(2)
	}

	if !opts.HasCommand() {
		fs.Usage()
		return nil
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateCLIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Diagnostics go to stderr so they never mix with command output
	cfg.Logging.Level = opts.LogLevel
	cfg.Logging.Output = "stderr"

	appLogger, err := bootstrap.InitLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.NewServices(ctx, cfg, appLogger.Logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	app := cli.NewApp(os.Stdout, svc.Queue, svc.Library, svc.Orchestrator)
	if _, err := app.Run(ctx, opts); err != nil {
		return err
	}

	return nil
}
