package cascade

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"history-shorts-pipeline/config"
	"history-shorts-pipeline/types"
)

// Assembler concatenates segment clips into the silent motion video and
// conforms it to the duration contract.
type Assembler struct {
	cfg config.CascadeConfig
	fps int
}

// NewAssembler creates a new video Assembler
func NewAssembler(cfg config.CascadeConfig, fps int) *Assembler {
	return &Assembler{cfg: cfg, fps: fps}
}

// Run joins all segment clips in index order and fits the result to the
// contract: a short video holds its last frame for the deficit, a long
// one is trimmed. A deficit past the padding limit fails the run and
// removes the partial output.
func (a *Assembler) Run(ctx context.Context, segments []types.Segment, contract types.DurationContract, outputDir string) (string, error) {
	log.Println("[cascade] Concatenating segment clips...")

	listFile := filepath.Join(outputDir, "clips_concat.txt")
	var lines []string
	for _, seg := range segments {
		if seg.ClipFile != "" {
			lines = append(lines, fmt.Sprintf("file '%s'", seg.ClipFile))
		}
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("no clip files on segments")
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return "", err
	}

	rawFile := filepath.Join(outputDir, "silent_raw.mp4")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-r", fmt.Sprintf("%d", a.fps),
		"-pix_fmt", "yuv420p",
		"-an",
		rawFile,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg concat clips: %w", err)
	}

	return a.conformVideo(ctx, rawFile, contract, outputDir)
}

func (a *Assembler) conformVideo(ctx context.Context, videoFile string, contract types.DurationContract, outputDir string) (string, error) {
	actual, err := probeDuration(videoFile)
	if err != nil {
		return "", err
	}

	plan, err := conformPlan(actual, contract.Seconds, contract.VideoTolSec, contract.MaxPadSec)
	if err != nil {
		os.Remove(videoFile)
		return "", fmt.Errorf("silent video %.3fs vs contract %.3fs: %w", actual, contract.Seconds, err)
	}
	if plan.Action == ActionNone {
		return videoFile, nil
	}

	log.Printf("[cascade] Silent video drift %.4fs (%s) — correcting", plan.Amount, plan.Action)

	outFile := filepath.Join(outputDir, "silent_video.mp4")
	args := []string{"-y", "-i", videoFile}
	switch plan.Action {
	case ActionPad:
		// Hold the last frame for the deficit instead of going black.
		args = append(args,
			"-vf", fmt.Sprintf("tpad=stop_mode=clone:stop_duration=%.6f", plan.Amount),
		)
	case ActionTrim:
		// -t below handles the surplus.
	}
	args = append(args,
		"-t", fmt.Sprintf("%.6f", contract.Seconds),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-an",
		outFile,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg video conform: %w", err)
	}
	return outFile, nil
}
