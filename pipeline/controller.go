// Package pipeline owns the run lifecycle: it resolves inputs for the
// requested mode, drives the five stages in order, checkpoints state after
// each one and assembles the run result. Input resolution and finalization
// failures abort the run; every other stage degrades and continues.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"social-content-pipeline/config"
	"social-content-pipeline/finalize"
	"social-content-pipeline/generate"
	"social-content-pipeline/inputs"
	"social-content-pipeline/quality"
	"social-content-pipeline/trend"
	"social-content-pipeline/types"
	"social-content-pipeline/understand"
)

// TotalStages counts input resolution plus the five agents.
const TotalStages = 6

// InputResolver turns mode parameters into a local asset set.
type InputResolver interface {
	ResolveLocal(p types.LocalParams) (*types.AssetSet, error)
	ResolveDrive(ctx context.Context, p types.DriveParams, destDir string) (*types.AssetSet, error)
}

// Controller wires the stages together and runs them. The agent fields are
// exported so callers can substitute implementations.
type Controller struct {
	cfg *config.Config
	log zerolog.Logger

	Resolver   InputResolver
	Trend      *trend.Agent
	Understand *understand.Agent
	Generate   *generate.Agent
	Quality    *quality.Agent
	Finalize   *finalize.Agent
}

// New builds a controller with the default agents. Optional capabilities
// (trend source, caption and generation models) are probed here once; a
// missing capability wires in as absent and the stage falls back.
func New(cfg *config.Config, log zerolog.Logger) *Controller {
	var source trend.Source
	if cfg.Trend.Source == "reddit" {
		s, err := trend.NewRedditSource()
		if err != nil {
			log.Warn().Err(err).Msg("reddit source unavailable, using fallback scoring")
		} else {
			source = s
		}
	}

	var captioner understand.Captioner
	if c := understand.NewOpenAICaptioner(cfg.Env.OpenAIAPIKey, cfg.Understand.CaptionModel); c != nil {
		captioner = c
	}
	var llm generate.LLMClient
	if c := generate.NewOpenAIClient(cfg.Env.OpenAIAPIKey, cfg.Generate.Model); c != nil {
		llm = c
	}

	return &Controller{
		cfg:        cfg,
		log:        log,
		Resolver:   inputs.New(cfg, log),
		Trend:      trend.New(cfg.Trend, source, log),
		Understand: understand.New(cfg.Understand, captioner, understand.WhisperTranscriber{Model: cfg.Understand.WhisperModel}, understand.FFmpegExtractor{}, log),
		Generate:   generate.New(cfg.Generate, llm, log),
		Quality:    quality.New(cfg.Quality, log),
		Finalize:   finalize.New(log),
	}
}

// Run executes one full pipeline run in its own output directory. On a
// fatal input failure the directory is removed and a *types.RunError
// explains which stage failed; state transitions are logged throughout.
func (c *Controller) Run(ctx context.Context, mode types.Mode, params types.RunParams) (*types.RunResult, error) {
	runID := newRunID()
	runDir := filepath.Join(c.cfg.Paths.Output, runID)
	log := c.log.With().Str("run_id", runID).Logger()

	if mode != types.ModeLocal && mode != types.ModeDrive {
		return nil, &types.RunError{
			Status:  "error",
			Stage:   "inputs",
			Message: fmt.Sprintf("unknown mode %q", mode),
		}
	}

	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, &types.RunError{Status: "error", Stage: "inputs", Message: "create run directory", Err: err}
	}

	state := &types.PipelineState{
		RunID:     runID,
		Mode:      mode,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}

	log.Info().Str("mode", string(mode)).Str("dir", runDir).Msg("run started")

	assets, err := c.resolveInputs(ctx, mode, params, runDir)
	if err != nil {
		// No usable inputs means no partial artifacts to keep.
		os.RemoveAll(runDir)
		log.Error().Err(err).Msg("input resolution failed, run aborted")
		return nil, &types.RunError{Status: "error", Stage: "inputs", Message: "resolve inputs", Err: err}
	}
	c.checkpoint(runDir, state, "inputs", assets)

	trendInfo := c.Trend.Analyze(ctx, assets.KeywordText)
	c.checkpoint(runDir, state, "trend", trendInfo)

	descriptions := c.Understand.Describe(ctx, assets, filepath.Join(runDir, "work"))
	c.checkpoint(runDir, state, "understand", descriptions)

	options := c.Generate.Generate(ctx, trendInfo, descriptions, assets.GameDescription)
	c.checkpoint(runDir, state, "generate", options)

	report := c.Quality.Check(ctx, options, assets.ImagePaths, runDir)
	c.checkpoint(runDir, state, "quality", report)

	pkg, err := c.Finalize.Package(runDir, trendInfo, options, report)
	if err != nil {
		state.Error = err.Error()
		c.saveState(runDir, state)
		log.Error().Err(err).Msg("finalization failed")
		return nil, &types.RunError{Status: "error", Stage: "finalize", Message: "package outputs", Err: err}
	}

	state.StagesCompleted = append(state.StagesCompleted, "finalize")
	state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	state.FinalJSON = pkg.JSONPath
	state.PackageZip = pkg.ArchivePath
	c.saveState(runDir, state)

	summary := fmt.Sprintf("%d post options, %d images processed, quality score %d",
		len(options), len(report.ProcessedImages), report.Score)
	log.Info().Str("summary", summary).Msg("run complete")

	return &types.RunResult{
		Status:          "success",
		FinalJSON:       pkg.JSONPath,
		PackageZip:      pkg.ArchivePath,
		OutputDir:       runDir,
		Summary:         summary,
		StagesCompleted: len(state.StagesCompleted),
		TotalStages:     TotalStages,
	}, nil
}

func (c *Controller) resolveInputs(ctx context.Context, mode types.Mode, params types.RunParams, runDir string) (*types.AssetSet, error) {
	if mode == types.ModeDrive {
		return c.Resolver.ResolveDrive(ctx, params.Drive, filepath.Join(runDir, "drive_inputs"))
	}
	return c.Resolver.ResolveLocal(params.Local)
}

// checkpoint records stage completion and persists both the stage output
// and the run state. Checkpoint write failures are logged, never fatal.
func (c *Controller) checkpoint(runDir string, state *types.PipelineState, stage string, result any) {
	state.StagesCompleted = append(state.StagesCompleted, stage)
	if err := saveJSON(filepath.Join(runDir, stage+"_output.json"), result); err != nil {
		c.log.Warn().Str("stage", stage).Err(err).Msg("checkpoint write failed")
	}
	c.saveState(runDir, state)
}

func (c *Controller) saveState(runDir string, state *types.PipelineState) {
	if err := saveJSON(filepath.Join(runDir, "pipeline_state.json"), state); err != nil {
		c.log.Warn().Err(err).Msg("state write failed")
	}
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func newRunID() string {
	return fmt.Sprintf("run-%s-%s", time.Now().Format("20060102-150405"), uuid.NewString()[:8])
}
