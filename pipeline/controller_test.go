package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"social-content-pipeline/config"
	"social-content-pipeline/types"
)

// testConfig wires a fully offline pipeline: no trend source, no API key,
// so every stage exercises its deterministic fallback.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Paths: config.PathsConfig{Output: t.TempDir()},
		Trend: config.TrendConfig{
			Source:      "none",
			MaxKeywords: 50,
			TopK:        15,
			MaxHashtags: 20,
			TimeoutSec:  1,
		},
		Understand: config.UnderstandConfig{
			MaxFrames:            2,
			Workers:              2,
			CaptionTimeoutSec:    1,
			TranscribeTimeoutSec: 1,
		},
		Generate: config.GenerateConfig{Model: "test", TimeoutSec: 1},
		Quality: config.QualityConfig{
			TitleMaxChars:   60,
			CaptionMaxChars: 2200,
			HashtagMin:      5,
			HashtagMax:      12,
			TargetWidth:     1080,
			TargetHeight:    1350,
			MaxImages:       10,
		},
	}
}

func writeInputs(t *testing.T, cfg *config.Config) types.RunParams {
	t.Helper()
	dir := t.TempDir()

	keywordFile := filepath.Join(dir, "asokeywords.txt")
	if err := os.WriteFile(keywordFile, []byte("mobile game, rpg, action"), 0o644); err != nil {
		t.Fatal(err)
	}
	gameFile := filepath.Join(dir, "game.txt")
	if err := os.WriteFile(gameFile, []byte("An amazing mobile RPG."), 0o644); err != nil {
		t.Fatal(err)
	}

	screenshotDir := filepath.Join(dir, "screenshot")
	if err := os.MkdirAll(screenshotDir, 0o755); err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 300, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 300; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	f, err := os.Create(filepath.Join(screenshotDir, "shot1.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	return types.RunParams{Local: types.LocalParams{
		GameplayDir:   filepath.Join(dir, "no-gameplay"),
		ScreenshotDir: screenshotDir,
		KeywordFile:   keywordFile,
		GameFile:      gameFile,
	}}
}

func TestRunOfflineEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	params := writeInputs(t, cfg)
	ctrl := New(cfg, zerolog.Nop())

	result, err := ctrl.Run(context.Background(), types.ModeLocal, params)
	if err != nil {
		t.Fatalf("offline run failed: %v", err)
	}
	if result.Status != "success" {
		t.Fatalf("status = %q", result.Status)
	}
	if result.StagesCompleted != TotalStages {
		t.Fatalf("stages completed = %d, want %d", result.StagesCompleted, TotalStages)
	}

	for _, path := range []string{result.FinalJSON, result.PackageZip} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing artifact %s: %v", path, err)
		}
	}
	if !strings.HasPrefix(filepath.Base(result.OutputDir), "run-") {
		t.Errorf("run dir %q lacks run- prefix", result.OutputDir)
	}

	state, err := os.ReadFile(filepath.Join(result.OutputDir, "pipeline_state.json"))
	if err != nil {
		t.Fatalf("state checkpoint missing: %v", err)
	}
	if !strings.Contains(string(state), `"finalize"`) {
		t.Errorf("state does not record finalize: %s", state)
	}

	data, err := os.ReadFile(result.FinalJSON)
	if err != nil {
		t.Fatal(err)
	}
	var final struct {
		PostOptions []types.PostOption `json:"post_options"`
		Assets      struct {
			ImagesDir  string   `json:"images_dir"`
			ImageFiles []string `json:"image_files"`
		} `json:"assets"`
	}
	if err := json.Unmarshal(data, &final); err != nil {
		t.Fatal(err)
	}
	if len(final.PostOptions) != 3 {
		t.Fatalf("final JSON has %d post options, want 3", len(final.PostOptions))
	}
	if len(final.Assets.ImageFiles) != 1 {
		t.Fatalf("final JSON lists %d images, want 1", len(final.Assets.ImageFiles))
	}

	f, err := os.Open(filepath.Join(final.Assets.ImagesDir, final.Assets.ImageFiles[0]))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 1080 || b.Dy() != 1350 {
		t.Fatalf("processed image is %dx%d, want 1080x1350", b.Dx(), b.Dy())
	}
}

func TestRunUnknownModeFails(t *testing.T) {
	cfg := testConfig(t)
	ctrl := New(cfg, zerolog.Nop())

	_, err := ctrl.Run(context.Background(), types.Mode("ftp"), types.RunParams{})
	var runErr *types.RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("err = %v, want *types.RunError", err)
	}
	if runErr.Stage != "inputs" {
		t.Fatalf("stage = %q, want inputs", runErr.Stage)
	}

	entries, err := os.ReadDir(cfg.Paths.Output)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("unknown mode left artifacts: %v", entries)
	}
}

func TestRunMissingInputsRemovesRunDir(t *testing.T) {
	cfg := testConfig(t)
	ctrl := New(cfg, zerolog.Nop())

	params := types.RunParams{Local: types.LocalParams{
		KeywordFile: filepath.Join(t.TempDir(), "does-not-exist.txt"),
	}}
	_, err := ctrl.Run(context.Background(), types.ModeLocal, params)
	var runErr *types.RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("err = %v, want *types.RunError", err)
	}
	var inputErr *types.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("err = %v, want wrapped *types.InputError", err)
	}

	entries, err := os.ReadDir(cfg.Paths.Output)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("failed run left artifacts: %v", entries)
	}
}

func TestRunDriveWithoutCredentialsFails(t *testing.T) {
	cfg := testConfig(t)
	ctrl := New(cfg, zerolog.Nop())

	_, err := ctrl.Run(context.Background(), types.ModeDrive, types.RunParams{})
	var driveErr *types.DriveError
	if !errors.As(err, &driveErr) {
		t.Fatalf("err = %v, want wrapped *types.DriveError", err)
	}

	entries, err := os.ReadDir(cfg.Paths.Output)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("failed drive run left artifacts: %v", entries)
	}
}
