// Package main is the entry point for BattleClock.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/samdwyer/battleclock/internal/dex"
	"github.com/samdwyer/battleclock/internal/game"
	"github.com/samdwyer/battleclock/internal/gamedata"
	"github.com/samdwyer/battleclock/internal/logging"
	"github.com/samdwyer/battleclock/internal/sprite"
	"github.com/samdwyer/battleclock/internal/status"
	"github.com/samdwyer/battleclock/internal/telemetry"
	"github.com/samdwyer/battleclock/internal/ui"
	"github.com/samdwyer/battleclock/internal/world"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	headless := flag.Bool("headless", false, "run without a terminal, automatic turns only")
	battles := flag.Int("battles", 0, "stop after this many battles have ended (0 = run forever)")
	flag.Parse()

	// Load .env file for local development
	// This makes GEMINI_API_KEY and HONEYCOMB_BATTLECLOCK_API_KEY available
	if err := godotenv.Load(); err != nil {
		// Not fatal - env vars might be set directly
		log.Printf("Note: .env file not loaded: %v", err)
	}

	// Set up OTEL environment variables from our .env variables
	setupOTelEnv()

	cfg, err := game.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// The terminal belongs to the renderer, so interactive runs log to a file.
	logger := logging.New(os.Stderr, cfg.LogVerbosity)
	if !*headless {
		fileLogger, closeLog, err := logging.OpenFile(cfg.LogFile, cfg.LogVerbosity)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer closeLog()
		logger = fileLogger
	}
	telemetry.InstallLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize telemetry
	shutdown, err := telemetry.Setup(ctx)
	if err != nil {
		logger.Error(err, "telemetry setup failed, running without observability")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Error(err, "telemetry shutdown failed")
			}
		}()
	}

	roster, err := loadRoster(cfg.RosterFile)
	if err != nil {
		log.Fatalf("Failed to load roster: %v", err)
	}

	var board *status.Board
	if cfg.StatusAddr != "" {
		board = &status.Board{}
		srv := status.NewServer(cfg.StatusAddr, board, logger)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error(err, "status server shutdown failed")
			}
		}()
	}

	var screen *ui.Screen
	if !*headless {
		screen, err = ui.NewScreen()
		if err != nil {
			log.Fatalf("Failed to initialize terminal: %v", err)
		}
	}

	if cfg.Dex.APIKey == "" {
		logger.Info("no API key set, entries will show an error", "env", game.EnvAPIKey)
	}

	// Create and run game
	g, err := game.New(game.Options{
		Config:     cfg,
		Roster:     roster,
		Screen:     screen,
		Sprites:    sprite.NewLoader(cfg.AssetDir, world.DefaultStage(), logger.WithName("sprite")),
		Entries:    dex.NewClient(cfg.DexClientConfig(), &http.Client{}, logger.WithName("dex")),
		Board:      board,
		Logger:     logger,
		MaxBattles: *battles,
	})
	if err != nil {
		if screen != nil {
			screen.Close()
		}
		log.Fatalf("Failed to initialize game: %v", err)
	}

	if err := g.Run(ctx); err != nil {
		logger.Error(err, "game error")
		log.Fatalf("Game error: %v", err)
	}
}

// loadRoster reads the roster file when one is configured and falls back to
// the embedded roster otherwise.
func loadRoster(path string) (*gamedata.Roster, error) {
	if path == "" {
		return gamedata.LoadRoster()
	}
	return gamedata.LoadRosterFile(path)
}

// setupOTelEnv configures OTEL environment variables from our custom env vars.
func setupOTelEnv() {
	// Always set endpoint to Honeycomb
	os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://api.honeycomb.io")

	// Always set headers from our API key - the .env file may have an unexpanded
	// variable reference that doesn't work, so we construct it properly here
	apiKey := os.Getenv("HONEYCOMB_BATTLECLOCK_API_KEY")
	dataset := os.Getenv("HONEYCOMB_BATTLECLOCK_DATASET")
	if dataset == "" {
		dataset = "battleclock" // default dataset name
	}
	if apiKey != "" {
		os.Setenv("OTEL_EXPORTER_OTLP_HEADERS",
			fmt.Sprintf("x-honeycomb-team=%s,x-honeycomb-dataset=%s", apiKey, dataset))
	}
}
