package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"social-content-pipeline/config"
	"social-content-pipeline/pipeline"
	"social-content-pipeline/server"
	"social-content-pipeline/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	serve := flag.Bool("serve", false, "serve the HTTP API instead of running once")
	addr := flag.String("addr", "", "listen address override for --serve")
	mode := flag.String("mode", "local", "input mode: local or drive")
	gameplayDir := flag.String("gameplay-dir", "", "gameplay video directory override")
	screenshotDir := flag.String("screenshot-dir", "", "screenshot directory override")
	keywordFile := flag.String("aso-file", "", "ASO keyword file override")
	gameFile := flag.String("game-file", "", "game description file override")
	driveFolder := flag.String("drive-folder", "", "drive folder id for drive mode")
	flag.Parse()

	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log := newLogger(cfg.Env)
	ctrl := pipeline.New(cfg, log)

	if *serve {
		srv := server.New(cfg, ctrl, log)
		if err := srv.ListenAndServe(); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
		return
	}

	params := types.RunParams{
		Local: types.LocalParams{
			GameplayDir:   *gameplayDir,
			ScreenshotDir: *screenshotDir,
			KeywordFile:   *keywordFile,
			GameFile:      *gameFile,
		},
		Drive: types.DriveParams{FolderID: *driveFolder},
	}

	result, err := ctrl.Run(context.Background(), types.Mode(*mode), params)
	if err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
	log.Info().
		Str("final_json", result.FinalJSON).
		Str("package_zip", result.PackageZip).
		Str("summary", result.Summary).
		Msg("done")
}

func newLogger(env config.Env) zerolog.Logger {
	level := zerolog.InfoLevel
	if env.LogLevel != "" {
		if l, err := zerolog.ParseLevel(strings.ToLower(env.LogLevel)); err == nil {
			level = l
		}
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
