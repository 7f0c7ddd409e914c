// Package finalize assembles the run's terminal artifacts: final_post.json
// with every upstream result and final_package.zip containing the JSON, the
// processed images and a short README.
package finalize

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"social-content-pipeline/types"
)

const readmeText = `Social Media Content Package
============================

Contents:
  final_post.json  - generated post options, trend data and quality report
  images/          - processed images, ready to upload (1080x1350 JPEG)

Pick one of the post options from final_post.json, pair it with the
processed images and publish.
`

// Agent is the finalization stage. It only reads its inputs; the post
// options and quality report are never mutated here.
type Agent struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Agent {
	return &Agent{log: log.With().Str("stage", "finalize").Logger()}
}

type metadata struct {
	GeneratedAt  string `json:"generated_at"`
	QualityScore int    `json:"quality_score"`
}

type assetInfo struct {
	ImagesDir  string   `json:"images_dir"`
	ImageFiles []string `json:"image_files"`
}

type finalPost struct {
	Metadata    metadata           `json:"metadata"`
	TrendInfo   *types.TrendInfo   `json:"trend_info"`
	PostOptions []types.PostOption `json:"post_options"`
	Assets      assetInfo          `json:"assets"`
}

// Package writes final_post.json and final_package.zip into outputDir and
// returns their paths. Any I/O failure is fatal for the stage.
func (a *Agent) Package(outputDir string, trend *types.TrendInfo, options []types.PostOption, report *types.QualityReport) (*types.FinalPackage, error) {
	post := finalPost{
		Metadata: metadata{
			GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
			QualityScore: report.Score,
		},
		TrendInfo:   trend,
		PostOptions: options,
		Assets: assetInfo{
			ImagesDir:  report.ImagesDir,
			ImageFiles: report.ProcessedImages,
		},
	}

	jsonPath := filepath.Join(outputDir, "final_post.json")
	if err := writeJSON(jsonPath, post); err != nil {
		return nil, &types.PackagingError{Path: jsonPath, Err: err}
	}

	zipPath := filepath.Join(outputDir, "final_package.zip")
	if err := a.writeArchive(zipPath, jsonPath, report); err != nil {
		return nil, &types.PackagingError{Path: zipPath, Err: err}
	}

	a.log.Info().
		Str("json", jsonPath).
		Str("zip", zipPath).
		Int("images", len(report.ProcessedImages)).
		Msg("final package written")

	return &types.FinalPackage{JSONPath: jsonPath, ArchivePath: zipPath}, nil
}

func (a *Agent) writeArchive(zipPath, jsonPath string, report *types.QualityReport) error {
	f, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	if err := addFile(zw, "final_post.json", jsonPath); err != nil {
		zw.Close()
		return err
	}
	for _, name := range report.ProcessedImages {
		src := filepath.Join(report.ImagesDir, name)
		if err := addFile(zw, "images/"+name, src); err != nil {
			zw.Close()
			return err
		}
	}
	w, err := zw.Create("README.md")
	if err != nil {
		zw.Close()
		return err
	}
	if _, err := io.WriteString(w, readmeText); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func addFile(zw *zip.Writer, name, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	defer in.Close()
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
