package finalize

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"social-content-pipeline/types"
)

func testInputs(t *testing.T) (string, *types.TrendInfo, []types.PostOption, *types.QualityReport) {
	t.Helper()
	dir := t.TempDir()
	imagesDir := filepath.Join(dir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(imagesDir, "processed_01.jpg"), []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	trend := &types.TrendInfo{
		TopKeywords:         []types.KeywordScore{{Keyword: "rpg", Score: 80}},
		RecommendedHashtags: []string{"#rpg"},
	}
	options := []types.PostOption{{
		OptionNumber: 1,
		Title:        "Title",
		Caption:      "Caption",
		Hashtags:     []string{"#rpg", "#gaming", "#mobile", "#play", "#new"},
	}}
	report := &types.QualityReport{
		Score:           92,
		ImagesDir:       imagesDir,
		ProcessedImages: []string{"processed_01.jpg"},
	}
	return dir, trend, options, report
}

func TestPackageWritesFinalJSON(t *testing.T) {
	dir, trend, options, report := testInputs(t)
	pkg, err := New(zerolog.Nop()).Package(dir, trend, options, report)
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(pkg.JSONPath)
	if err != nil {
		t.Fatal(err)
	}
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"metadata", "trend_info", "post_options", "assets"} {
		if _, ok := parsed[key]; !ok {
			t.Errorf("final JSON missing key %q", key)
		}
	}

	var meta struct {
		GeneratedAt  string `json:"generated_at"`
		QualityScore int    `json:"quality_score"`
	}
	if err := json.Unmarshal(parsed["metadata"], &meta); err != nil {
		t.Fatal(err)
	}
	if meta.QualityScore != 92 {
		t.Fatalf("quality_score = %d, want 92", meta.QualityScore)
	}
	if meta.GeneratedAt == "" {
		t.Fatal("generated_at is empty")
	}

	var opts []types.PostOption
	if err := json.Unmarshal(parsed["post_options"], &opts); err != nil {
		t.Fatal(err)
	}
	if len(opts) != 1 || opts[0].OptionNumber != 1 {
		t.Fatalf("post_options round trip failed: %+v", opts)
	}
}

func TestPackageArchiveContents(t *testing.T) {
	dir, trend, options, report := testInputs(t)
	pkg, err := New(zerolog.Nop()).Package(dir, trend, options, report)
	if err != nil {
		t.Fatal(err)
	}

	zr, err := zip.OpenReader(pkg.ArchivePath)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{"final_post.json", "images/processed_01.jpg", "README.md"} {
		if !names[want] {
			t.Errorf("archive missing %q, has %v", want, names)
		}
	}
}

func TestPackageMissingImageFails(t *testing.T) {
	dir, trend, options, report := testInputs(t)
	report.ProcessedImages = append(report.ProcessedImages, "processed_02.jpg")

	_, err := New(zerolog.Nop()).Package(dir, trend, options, report)
	var pkgErr *types.PackagingError
	if !errors.As(err, &pkgErr) {
		t.Fatalf("err = %v, want *types.PackagingError", err)
	}
}
