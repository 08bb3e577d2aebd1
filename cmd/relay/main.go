package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mjai-relay/mjai-relay/internal/bot"
	"github.com/mjai-relay/mjai-relay/internal/config"
	"github.com/mjai-relay/mjai-relay/internal/feed"
	"github.com/mjai-relay/mjai-relay/internal/mjai"
	"github.com/mjai-relay/mjai-relay/internal/mjapi"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "", "path to configuration file")
	seat       = flag.Int("seat", 0, "this bot's seat index")
	mode       = flag.String("mode", "4p", "game mode: 4p or 3p")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting mjai relay",
		zap.String("version", version),
		zap.String("service", cfg.Service.URL),
		zap.Int("seat", *seat),
		zap.String("mode", *mode),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	client := mjapi.NewClient(cfg.Service.URL, cfg.Service.Timeout, logger)
	manager, err := bot.NewManager(ctx, client,
		bot.Credentials{
			User:      cfg.Service.User,
			Secret:    cfg.Service.Secret,
			SessionID: cfg.Service.SessionID,
		},
		bot.ModelSelection{
			Model4P: cfg.Service.Model4P,
			Model3P: cfg.Service.Model3P,
		},
		bot.Config{
			BatchSize:     cfg.Relay.BatchSize,
			Retries:       cfg.Relay.Retries,
			RetryInterval: cfg.Relay.RetryInterval,
			Bound:         cfg.Relay.Bound,
		},
		logger,
	)
	if err != nil {
		logger.Fatal("failed to initialize service account", zap.Error(err))
	}
	defer func() {
		if closeErr := manager.Close(context.Background()); closeErr != nil {
			logger.Warn("shutdown cleanup failed", zap.Error(closeErr))
		}
	}()

	session, err := manager.StartGame(ctx, *seat, bot.Mode(*mode))
	if err != nil {
		logger.Fatal("failed to start game", zap.Error(err))
	}

	if cfg.Feed.URL != "" {
		if runErr := feed.New(cfg.Feed.URL, session, logger).Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
			logger.Error("feed relay ended", zap.Error(runErr))
		}
	} else if runErr := runStdin(ctx, session, logger); runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("stdin relay ended", zap.Error(runErr))
	}

	if err := manager.StopGame(context.Background()); err != nil {
		logger.Warn("failed to stop remote bot", zap.Error(err))
	}
	logger.Info("mjai relay stopped")
}

// runStdin relays newline-delimited JSON from stdin: an object is a single
// event, an array is an ordered batch. Each line's reaction (or a none
// reaction) is printed to stdout.
func runStdin(ctx context.Context, session *bot.Session, logger *zap.Logger) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	out := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var (
			reaction mjai.Reaction
			err      error
		)
		if line[0] == '[' {
			var events []mjai.Event
			if jsonErr := json.Unmarshal(line, &events); jsonErr != nil {
				logger.Warn("skipping malformed input line", zap.Error(jsonErr))
				continue
			}
			reaction, err = session.ReactBatch(ctx, events)
		} else {
			var ev mjai.Event
			if jsonErr := json.Unmarshal(line, &ev); jsonErr != nil {
				logger.Warn("skipping malformed input line", zap.Error(jsonErr))
				continue
			}
			reaction, err = session.React(ctx, ev)
		}
		if err != nil {
			return err
		}
		if reaction == nil {
			reaction = mjai.Reaction{"type": string(mjai.EventNone)}
		}
		if err := out.Encode(reaction); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
