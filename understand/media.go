package understand

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FrameExtractor samples still frames from a video.
type FrameExtractor interface {
	Available() bool
	Extract(ctx context.Context, videoPath, outDir string, maxFrames int) ([]string, error)
}

// Transcriber extracts the spoken audio of a video as text.
type Transcriber interface {
	Available() bool
	Transcribe(ctx context.Context, videoPath string) (string, error)
}

// FFmpegExtractor shells out to ffmpeg/ffprobe for frame sampling.
type FFmpegExtractor struct{}

func (FFmpegExtractor) Available() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// Extract samples up to maxFrames evenly spaced frames into outDir and
// returns their paths in frame order.
func (FFmpegExtractor) Extract(ctx context.Context, videoPath, outDir string, maxFrames int) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	interval := 1
	if duration := probeDuration(ctx, videoPath); duration > 0 {
		interval = int(duration) / maxFrames
		if interval < 1 {
			interval = 1
		}
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%d", interval),
		"-vframes", strconv.Itoa(maxFrames),
		"-y",
		filepath.Join(outDir, "frame_%04d.jpg"),
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame extraction: %w: %s", err, firstLine(out))
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, err
	}
	var frames []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "frame_") && strings.HasSuffix(e.Name(), ".jpg") {
			frames = append(frames, filepath.Join(outDir, e.Name()))
		}
	}
	sort.Strings(frames)
	if len(frames) > maxFrames {
		frames = frames[:maxFrames]
	}
	return frames, nil
}

// probeDuration returns the media duration in seconds, or 0 when ffprobe is
// missing or fails.
func probeDuration(ctx context.Context, path string) float64 {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return 0
	}
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0
	}
	return d
}

// WhisperTranscriber shells out to the whisper CLI.
type WhisperTranscriber struct {
	Model string
}

func (t WhisperTranscriber) Available() bool {
	_, err := exec.LookPath("whisper")
	return err == nil
}

func (t WhisperTranscriber) Transcribe(ctx context.Context, videoPath string) (string, error) {
	outDir, err := os.MkdirTemp("", "transcript-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(outDir)

	cmd := exec.CommandContext(ctx, "whisper",
		videoPath,
		"--model", t.Model,
		"--output_format", "txt",
		"--output_dir", outDir,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("whisper: %w: %s", err, firstLine(out))
	}

	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	text, err := os.ReadFile(filepath.Join(outDir, base+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(text)), nil
}

func firstLine(out []byte) string {
	if i := bytes.IndexByte(out, '\n'); i >= 0 {
		out = out[:i]
	}
	return string(out)
}
