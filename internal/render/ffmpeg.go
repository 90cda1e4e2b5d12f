package render

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// FFmpegRenderer burns an ASS caption track into a video with ffmpeg. Every
// render is bounded by a fixed wall-clock timeout so a stuck encode becomes
// a job failure instead of a hang.
type FFmpegRenderer struct {
	timeout time.Duration
}

// NewFFmpegRenderer creates a renderer with the given render timeout.
func NewFFmpegRenderer(timeout time.Duration) *FFmpegRenderer {
	return &FFmpegRenderer{timeout: timeout}
}

// Render re-encodes inputPath with the caption overlay into outputPath.
// The output must exist and be non-empty on success.
func (r *FFmpegRenderer) Render(inputPath, markupPath, outputPath string) error {
	absInput, err := filepath.Abs(inputPath)
	if err != nil {
		return fmt.Errorf("failed to resolve input path: %v", err)
	}
	absMarkup, err := filepath.Abs(markupPath)
	if err != nil {
		return fmt.Errorf("failed to resolve markup path: %v", err)
	}
	absOutput, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("failed to resolve output path: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg", buildArgs(absInput, absMarkup, absOutput)...)

	output, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("render timed out after %s", r.timeout)
	}
	if err != nil {
		return fmt.Errorf("ffmpeg error: %v\nOutput: %s", err, string(output))
	}

	info, err := os.Stat(absOutput)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("ffmpeg produced empty output")
	}

	log.Printf("Render finished: %s (%d bytes)", outputPath, info.Size())
	return nil
}

// buildArgs assembles the ffmpeg invocation: ass filter overlay, H.264
// video, AAC audio, faststart for web playback.
func buildArgs(inputPath, markupPath, outputPath string) []string {
	// Colons separate filter options, so the markup path must escape them.
	escaped := strings.ReplaceAll(markupPath, `:`, `\:`)

	return []string{
		"-y",
		"-i", inputPath,
		"-vf", fmt.Sprintf("ass='%s'", escaped),
		"-c:v", "libx264",
		"-c:a", "aac",
		"-b:a", "192k",
		"-crf", "23",
		"-preset", "fast",
		"-movflags", "+faststart",
		outputPath,
	}
}

// CheckInstallation verifies ffmpeg is on PATH before the server starts
// accepting work.
func CheckInstallation() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "ffmpeg", "-version").Output()
	if err != nil {
		return fmt.Errorf("ffmpeg not found: %v", err)
	}
	if lines := strings.SplitN(string(out), "\n", 2); len(lines) > 0 {
		log.Printf("FFmpeg version: %s", strings.TrimSpace(lines[0]))
	}
	return nil
}
