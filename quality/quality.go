// Package quality validates and repairs generated content: it enforces text
// length limits by word-boundary truncation, normalizes every image to the
// target resolution, and scores the run. The stage never fails the run;
// every problem becomes a recorded violation.
package quality

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"social-content-pipeline/config"
	"social-content-pipeline/types"
)

var hashtagCleanRe = regexp.MustCompile(`[^#\w]`)

var genericHashtags = []string{"#gaming", "#mobilegame", "#game", "#play", "#mobile"}

// Agent is the quality control stage.
type Agent struct {
	cfg config.QualityConfig
	log zerolog.Logger
}

func New(cfg config.QualityConfig, log zerolog.Logger) *Agent {
	return &Agent{cfg: cfg, log: log.With().Str("stage", "quality").Logger()}
}

// Check repairs the post options in place, processes the input images into
// <outputDir>/images and returns the aggregated report. Both checks are
// idempotent; re-running on already-repaired content records no new
// violations.
func (a *Agent) Check(ctx context.Context, options []types.PostOption, imagePaths []string, outputDir string) *types.QualityReport {
	imagesDir := filepath.Join(outputDir, "images")
	processed, imageViolations := a.processImages(ctx, imagePaths, imagesDir)

	var violations []string
	violations = append(violations, imageViolations...)
	for i := range options {
		violations = append(violations, a.validateText(&options[i])...)
	}

	score := a.score(len(violations), completeness(options), imageRatio(len(processed), len(capped(imagePaths, a.cfg.MaxImages))))

	a.log.Info().
		Int("violations", len(violations)).
		Int("images_processed", len(processed)).
		Int("score", score).
		Msg("quality control complete")

	return &types.QualityReport{
		Score:           score,
		Violations:      violations,
		ImagesDir:       imagesDir,
		ProcessedImages: processed,
	}
}

// validateText enforces the character limits and hashtag rules on one
// option, repairing it in place and returning the violations found.
func (a *Agent) validateText(opt *types.PostOption) []string {
	var violations []string

	opt.Title = strings.TrimSpace(opt.Title)
	if len([]rune(opt.Title)) > a.cfg.TitleMaxChars {
		opt.Title = TruncateAtWord(opt.Title, a.cfg.TitleMaxChars)
		violations = append(violations, fmt.Sprintf("option %d: title truncated to %d chars", opt.OptionNumber, a.cfg.TitleMaxChars))
	}

	opt.Caption = strings.TrimSpace(opt.Caption)
	if len([]rune(opt.Caption)) > a.cfg.CaptionMaxChars {
		opt.Caption = TruncateAtWord(opt.Caption, a.cfg.CaptionMaxChars)
		violations = append(violations, fmt.Sprintf("option %d: caption truncated to %d chars", opt.OptionNumber, a.cfg.CaptionMaxChars))
	}

	cleaned, hashtagViolations := a.cleanHashtags(opt.OptionNumber, opt.Hashtags)
	opt.Hashtags = cleaned
	violations = append(violations, hashtagViolations...)

	return violations
}

func (a *Agent) cleanHashtags(optionNumber int, hashtags []string) ([]string, []string) {
	seen := make(map[string]bool)
	var cleaned []string
	for _, tag := range hashtags {
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		tag = hashtagCleanRe.ReplaceAllString(tag, "")
		key := strings.ToLower(tag)
		if len(tag) <= 1 || seen[key] {
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, tag)
	}

	var violations []string
	if len(cleaned) > a.cfg.HashtagMax {
		cleaned = cleaned[:a.cfg.HashtagMax]
		violations = append(violations, fmt.Sprintf("option %d: hashtags limited to %d", optionNumber, a.cfg.HashtagMax))
	}
	if len(cleaned) < a.cfg.HashtagMin {
		for _, tag := range genericHashtags {
			if len(cleaned) >= a.cfg.HashtagMin {
				break
			}
			if !seen[strings.ToLower(tag)] {
				seen[strings.ToLower(tag)] = true
				cleaned = append(cleaned, tag)
			}
		}
		violations = append(violations, fmt.Sprintf("option %d: padded hashtags to minimum of %d", optionNumber, a.cfg.HashtagMin))
	}
	return cleaned, violations
}

// score combines content completeness, image success rate and the violation
// count into a bounded 0-100 value, monotonic in each factor.
func (a *Agent) score(violations int, complete, images float64) int {
	violationFactor := 1 - float64(violations)/10
	if violationFactor < 0 {
		violationFactor = 0
	}
	s := 40*complete + 30*images + 30*violationFactor
	if s > 100 {
		s = 100
	}
	if s < 0 {
		s = 0
	}
	return int(math.Round(s))
}

func completeness(options []types.PostOption) float64 {
	if len(options) == 0 {
		return 0
	}
	full := 0
	for _, o := range options {
		if o.Title != "" && o.Caption != "" && len(o.Hashtags) > 0 {
			full++
		}
	}
	return float64(full) / float64(len(options))
}

func imageRatio(processed, total int) float64 {
	if total == 0 {
		return 1
	}
	return float64(processed) / float64(total)
}

func capped(paths []string, max int) []string {
	if len(paths) > max {
		return paths[:max]
	}
	return paths
}

// TruncateAtWord trims s to at most max runes, cutting at the last word
// boundary inside the limit. Applying it twice equals applying it once.
func TruncateAtWord(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := string(runes[:max])
	if i := strings.LastIndexAny(cut, " \t\n"); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
