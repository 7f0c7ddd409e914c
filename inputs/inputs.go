// Package inputs resolves a run's input mode into a uniform local AssetSet.
package inputs

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"social-content-pipeline/config"
	"social-content-pipeline/types"
)

var videoExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true, ".webm": true,
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
}

// Resolver normalizes local or drive inputs into an AssetSet.
type Resolver struct {
	cfg *config.Config
	log zerolog.Logger
}

func New(cfg *config.Config, log zerolog.Logger) *Resolver {
	return &Resolver{cfg: cfg, log: log.With().Str("stage", "inputs").Logger()}
}

// ResolveLocal builds an AssetSet from local paths, applying the
// conventional defaults for unset overrides. The keyword and description
// files are required; media directories may be absent or empty.
func (r *Resolver) ResolveLocal(p types.LocalParams) (*types.AssetSet, error) {
	gameplayDir := firstNonEmpty(p.GameplayDir, r.cfg.Paths.GameplayDir)
	screenshotDir := firstNonEmpty(p.ScreenshotDir, r.cfg.Paths.ScreenshotDir)
	keywordFile := firstNonEmpty(p.KeywordFile, r.cfg.Paths.KeywordFile)
	gameFile := firstNonEmpty(p.GameFile, r.cfg.Paths.GameFile)

	keywords, err := os.ReadFile(keywordFile)
	if err != nil {
		return nil, &types.InputError{Path: keywordFile, Reason: "keyword file not readable"}
	}
	description, err := os.ReadFile(gameFile)
	if err != nil {
		return nil, &types.InputError{Path: gameFile, Reason: "game description not readable"}
	}

	videos := listMedia(gameplayDir, videoExtensions)
	images := listMedia(screenshotDir, imageExtensions)

	r.log.Info().
		Int("videos", len(videos)).
		Int("images", len(images)).
		Msg("resolved local inputs")

	return &types.AssetSet{
		VideoPaths:      videos,
		ImagePaths:      images,
		KeywordText:     string(keywords),
		GameDescription: string(description),
	}, nil
}

// listMedia returns the matching files of dir in name order. A missing
// directory yields an empty list, not an error.
func listMedia(dir string, exts map[string]bool) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if exts[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
