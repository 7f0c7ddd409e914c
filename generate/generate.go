// Package generate produces exactly three candidate post variants from
// trend data, asset descriptions and the game description. When the
// generative model is unavailable or its response does not parse, the stage
// falls back to deterministic templates; it never fails the run.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"social-content-pipeline/config"
	"social-content-pipeline/types"
)

// NumOptions is fixed by design, not user-configurable.
const NumOptions = 3

const systemPrompt = `You are a creative social media content writer specializing in mobile gaming.
Generate an engaging Instagram post for a mobile game.

You MUST respond with ONLY valid JSON - no markdown, no explanation, no preamble.

The JSON must have exactly these fields:
- "title": string (max 60 chars, catchy hook)
- "caption": string (max 2200 chars, highlights game features, ends with a call-to-action)
- "hashtags": array of up to 12 strings mixing trending and niche gaming tags`

// variantTones differentiate the three requested variants.
var variantTones = [NumOptions]string{
	"",
	"\nMake this version more casual and friendly.",
	"\nMake this version more exciting and action-oriented.",
}

var errUnparsable = errors.New("model response does not parse into a post option")

// Agent is the content generation stage.
type Agent struct {
	cfg config.GenerateConfig
	llm LLMClient
	log zerolog.Logger
}

func New(cfg config.GenerateConfig, llm LLMClient, log zerolog.Logger) *Agent {
	return &Agent{cfg: cfg, llm: llm, log: log.With().Str("stage", "generate").Logger()}
}

// Generate returns exactly NumOptions post options. Each variant that the
// model cannot produce (unavailable, error, or unparsable response) is
// replaced by its template fallback independently.
func (a *Agent) Generate(ctx context.Context, trend *types.TrendInfo, descriptions []types.AssetDescription, gameDescription string) []types.PostOption {
	options := make([]types.PostOption, 0, NumOptions)
	fromModel := 0

	for i := 0; i < NumOptions; i++ {
		opt, err := a.generateVariant(ctx, trend, descriptions, gameDescription, i)
		if err != nil {
			a.log.Info().Int("variant", i+1).Err(err).Msg("using template fallback")
			opt = a.fallbackOption(trend, gameDescription, i)
		} else {
			fromModel++
		}
		opt.OptionNumber = i + 1
		options = append(options, opt)
	}

	a.log.Info().
		Int("from_model", fromModel).
		Int("from_templates", NumOptions-fromModel).
		Msg("content generation complete")
	return options
}

func (a *Agent) generateVariant(ctx context.Context, trend *types.TrendInfo, descriptions []types.AssetDescription, gameDescription string, variant int) (types.PostOption, error) {
	if a.llm == nil {
		return types.PostOption{}, errors.New("generative model unavailable")
	}

	callCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout())
	defer cancel()

	user := buildPrompt(trend, descriptions, gameDescription) + variantTones[variant]
	raw, err := a.llm.Complete(callCtx, systemPrompt, user)
	if err != nil {
		return types.PostOption{}, fmt.Errorf("model call: %w", err)
	}
	return parsePostOption(raw)
}

func buildPrompt(trend *types.TrendInfo, descriptions []types.AssetDescription, gameDescription string) string {
	var sb strings.Builder
	sb.WriteString("Generate an Instagram post for this mobile game.\n\n")

	var keywords []string
	for i, ks := range trend.TopKeywords {
		if i >= 5 {
			break
		}
		keywords = append(keywords, ks.Keyword)
	}
	sb.WriteString(fmt.Sprintf("Trending keywords: %s\n", strings.Join(keywords, ", ")))
	sb.WriteString(fmt.Sprintf("Recommended hashtags: %s\n\n", strings.Join(trend.RecommendedHashtags, " ")))

	sb.WriteString(fmt.Sprintf("Game description: %s\n\n", truncate(gameDescription, 500)))

	for i, d := range descriptions {
		if i >= 3 {
			break
		}
		sb.WriteString(fmt.Sprintf("Asset %d (%s): %s\n", i+1, d.Kind, truncate(d.Text, 300)))
	}

	sb.WriteString("\nRespond ONLY with valid JSON.")
	return sb.String()
}

// parsePostOption accepts the model's raw response and maps it onto the
// PostOption shape. Anything that cannot be mapped is an errUnparsable,
// which downgrades that variant to the template path.
func parsePostOption(raw string) (types.PostOption, error) {
	content := cleanJSON(raw)

	var parsed struct {
		Title    string          `json:"title"`
		Caption  string          `json:"caption"`
		Hashtags json.RawMessage `json:"hashtags"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return types.PostOption{}, fmt.Errorf("%w: %v", errUnparsable, err)
	}
	if strings.TrimSpace(parsed.Title) == "" || strings.TrimSpace(parsed.Caption) == "" {
		return types.PostOption{}, fmt.Errorf("%w: empty title or caption", errUnparsable)
	}

	var hashtags []string
	if len(parsed.Hashtags) > 0 {
		if err := json.Unmarshal(parsed.Hashtags, &hashtags); err != nil {
			// Some models return hashtags as one space-separated string.
			var joined string
			if err := json.Unmarshal(parsed.Hashtags, &joined); err != nil {
				return types.PostOption{}, fmt.Errorf("%w: bad hashtags field", errUnparsable)
			}
			hashtags = strings.Fields(joined)
		}
	}
	if len(hashtags) == 0 {
		return types.PostOption{}, fmt.Errorf("%w: no hashtags", errUnparsable)
	}

	for i, tag := range hashtags {
		if !strings.HasPrefix(tag, "#") {
			hashtags[i] = "#" + tag
		}
	}
	if len(hashtags) > 12 {
		hashtags = hashtags[:12]
	}

	return types.PostOption{
		Title:    strings.TrimSpace(parsed.Title),
		Caption:  strings.TrimSpace(parsed.Caption),
		Hashtags: hashtags,
	}, nil
}

func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
