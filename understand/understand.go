// Package understand derives a textual description for every input asset:
// transcript plus sampled-frame captions for videos, a caption for images.
// The stage never aborts the run; every missing capability degrades to a
// placeholder independently.
package understand

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"social-content-pipeline/config"
	"social-content-pipeline/types"
)

// PlaceholderDescription stands in when neither transcript nor captions
// could be derived for an asset.
const PlaceholderDescription = "no description available"

// Agent is the content understanding stage.
type Agent struct {
	cfg         config.UnderstandConfig
	captioner   Captioner
	transcriber Transcriber
	frames      FrameExtractor
	log         zerolog.Logger
}

func New(cfg config.UnderstandConfig, captioner Captioner, transcriber Transcriber, frames FrameExtractor, log zerolog.Logger) *Agent {
	return &Agent{
		cfg:         cfg,
		captioner:   captioner,
		transcriber: transcriber,
		frames:      frames,
		log:         log.With().Str("stage", "understand").Logger(),
	}
}

// Describe produces one AssetDescription per input asset, videos first then
// images, in input order. Per-asset work runs concurrently up to the
// configured worker count; the result order is restored afterwards.
// workDir holds temporary frame samples and may be removed by the caller.
func (a *Agent) Describe(ctx context.Context, assets *types.AssetSet, workDir string) []types.AssetDescription {
	type job struct {
		path string
		kind types.AssetKind
	}
	var jobs []job
	for _, v := range assets.VideoPaths {
		jobs = append(jobs, job{path: v, kind: types.AssetVideo})
	}
	for _, img := range assets.ImagePaths {
		jobs = append(jobs, job{path: img, kind: types.AssetImage})
	}

	results := make([]types.AssetDescription, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)
	for i, j := range jobs {
		g.Go(func() error {
			var text string
			switch j.kind {
			case types.AssetVideo:
				text = a.describeVideo(gctx, j.path, workDir)
			default:
				text = a.captionOrPlaceholder(gctx, j.path)
			}
			results[i] = types.AssetDescription{Path: j.path, Kind: j.kind, Text: text}
			return nil
		})
	}
	_ = g.Wait() // workers degrade internally, they never return errors

	a.log.Info().Int("assets", len(results)).Msg("content understanding complete")
	return results
}

// describeVideo combines the transcript with ordered frame captions. Each
// missing capability degrades on its own: no frames leaves transcript-only
// text, no transcript leaves captions, neither leaves the placeholder.
func (a *Agent) describeVideo(ctx context.Context, videoPath, workDir string) string {
	var parts []string

	if a.transcriber != nil && a.transcriber.Available() {
		tctx, cancel := context.WithTimeout(ctx, a.cfg.TranscribeTimeout())
		transcript, err := a.transcriber.Transcribe(tctx, videoPath)
		cancel()
		if err != nil {
			a.log.Warn().Str("video", filepath.Base(videoPath)).Err(err).Msg("transcript failed")
		} else if transcript != "" {
			parts = append(parts, transcript)
		}
	}

	if a.frames != nil && a.frames.Available() {
		base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
		frameDir := filepath.Join(workDir, "frames", base)
		frames, err := a.frames.Extract(ctx, videoPath, frameDir, a.cfg.MaxFrames)
		if err != nil {
			a.log.Warn().Str("video", filepath.Base(videoPath)).Err(err).Msg("frame extraction failed")
		}
		for i, frame := range frames {
			caption := a.captionOrPlaceholder(ctx, frame)
			parts = append(parts, fmt.Sprintf("Frame %d: %s", i+1, caption))
		}
	}

	if len(parts) == 0 {
		return PlaceholderDescription
	}
	return strings.Join(parts, "\n")
}

func (a *Agent) captionOrPlaceholder(ctx context.Context, imagePath string) string {
	if a.captioner == nil || !a.captioner.Available() {
		return PlaceholderCaption
	}
	cctx, cancel := context.WithTimeout(ctx, a.cfg.CaptionTimeout())
	defer cancel()
	caption, err := a.captioner.Caption(cctx, imagePath)
	if err != nil || caption == "" {
		a.log.Warn().Str("image", filepath.Base(imagePath)).Err(err).Msg("caption failed")
		return PlaceholderCaption
	}
	return caption
}
