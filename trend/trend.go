// Package trend scores and ranks ASO keywords and derives hashtag
// recommendations for the generation stage.
package trend

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"social-content-pipeline/config"
	"social-content-pipeline/types"
)

// Source is a live popularity source for a single keyword. A nil or
// unavailable source switches the whole stage to the deterministic fallback.
type Source interface {
	Available() bool
	Score(ctx context.Context, keyword string) (float64, error)
}

// highValueTerms boost a keyword's fallback score when present.
var highValueTerms = []string{
	"game", "play", "mobile", "online", "rpg", "fps", "mmo", "pvp",
	"action", "battle", "adventure", "strategy",
}

// sampleKeywords substitute for an empty keyword file so the stage always
// produces a non-empty TrendInfo.
var sampleKeywords = []string{
	"mobile game", "rpg", "action", "adventure", "strategy",
	"puzzle", "casual", "multiplayer", "online", "battle",
}

var nonWordRe = regexp.MustCompile(`[^\w\s-]`)
var spaceRe = regexp.MustCompile(`\s+`)

// Agent is the trend analysis stage.
type Agent struct {
	cfg    config.TrendConfig
	source Source
	log    zerolog.Logger
}

func New(cfg config.TrendConfig, source Source, log zerolog.Logger) *Agent {
	return &Agent{cfg: cfg, source: source, log: log.With().Str("stage", "trend").Logger()}
}

// Analyze normalizes the raw keyword text, scores each keyword and returns
// ranked trend info. It never fails: source errors degrade per keyword to
// the deterministic fallback scorer.
func (a *Agent) Analyze(ctx context.Context, keywordText string) *types.TrendInfo {
	keywords := NormalizeKeywords(keywordText, a.cfg.MaxKeywords)
	if len(keywords) == 0 {
		a.log.Warn().Msg("no usable keywords, using sample list")
		keywords = sampleKeywords
	}

	live := a.source != nil && a.source.Available()
	if !live {
		a.log.Info().Msg("trend source unavailable, using fallback scoring")
	}

	scored := make([]types.KeywordScore, 0, len(keywords))
	for i, kw := range keywords {
		score := 0.0
		ok := false
		if live {
			callCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout())
			s, err := a.source.Score(callCtx, kw)
			cancel()
			if err != nil {
				a.log.Debug().Str("keyword", kw).Err(err).Msg("source score failed, falling back")
			} else {
				score, ok = s, true
			}
		}
		if !ok {
			score = FallbackScore(kw, i)
		}
		scored = append(scored, types.KeywordScore{Keyword: kw, Score: score})
	}

	// Descending by score; stable keeps input order on ties.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > a.cfg.TopK {
		scored = scored[:a.cfg.TopK]
	}

	hashtags := generateHashtags(scored, a.cfg.MaxHashtags)

	a.log.Info().
		Int("keywords", len(keywords)).
		Int("ranked", len(scored)).
		Int("hashtags", len(hashtags)).
		Msg("trend analysis complete")

	return &types.TrendInfo{TopKeywords: scored, RecommendedHashtags: hashtags}
}

// NormalizeKeywords accepts comma- or newline-separated keyword text and
// returns trimmed, lowercased, deduplicated keywords in input order.
func NormalizeKeywords(text string, max int) []string {
	sep := "\n"
	if strings.Contains(text, ",") {
		sep = ","
	}

	seen := make(map[string]bool)
	var out []string
	for _, raw := range strings.Split(text, sep) {
		kw := strings.ToLower(strings.TrimSpace(raw))
		kw = nonWordRe.ReplaceAllString(kw, "")
		kw = strings.TrimSpace(spaceRe.ReplaceAllString(kw, " "))
		if len(kw) <= 2 || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
		if len(out) >= max {
			break
		}
	}
	return out
}

// FallbackScore is a pure function of the keyword and its input position.
// It must stay free of randomness and clock reads so identical input yields
// identical TrendInfo on every machine.
func FallbackScore(keyword string, position int) float64 {
	score := 50.0

	switch {
	case len(keyword) <= 5:
		score += 20
	case len(keyword) <= 8:
		score += 10
	}

	for _, term := range highValueTerms {
		if strings.Contains(keyword, term) {
			score += 15
			break
		}
	}

	// Earlier keywords in an ASO list tend to matter more.
	if position < 20 {
		score += float64(20-position) * 0.25
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// generateHashtags expands ranked keywords into hashtag candidates, ordered
// by descending keyword score, deduplicated.
func generateHashtags(scored []types.KeywordScore, max int) []string {
	seen := make(map[string]bool)
	var tags []string
	add := func(tag string) {
		if len(tag) <= 1 || seen[tag] || len(tags) >= max {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	for _, ks := range scored {
		clean := strings.NewReplacer(" ", "", "-", "").Replace(ks.Keyword)
		add(fmt.Sprintf("#%s", clean))
		if ks.Score > 50 {
			add(fmt.Sprintf("#%sgame", clean))
			add(fmt.Sprintf("#mobile%s", clean))
		}
		if ks.Score > 70 {
			add(fmt.Sprintf("#%sgaming", clean))
		}
		if len(tags) >= max {
			break
		}
	}
	return tags
}
