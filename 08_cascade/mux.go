package cascade

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"

	"history-shorts-pipeline/config"
	"history-shorts-pipeline/types"
)

// Muxer combines the silent video with the mixed audio and keeps the
// result inside the mux tolerance. The video never outlasts the audio.
type Muxer struct {
	cfg config.CascadeConfig
}

// NewMuxer creates a new Muxer
func NewMuxer(cfg config.CascadeConfig) *Muxer {
	return &Muxer{cfg: cfg}
}

// Run muxes video and audio at the shorter of the two durations, then
// verifies the result against the contract.
func (m *Muxer) Run(ctx context.Context, videoFile, audioFile string, contract types.DurationContract, outputDir string) (string, error) {
	log.Println("[cascade] Muxing video and audio...")

	videoDur, err := probeDuration(videoFile)
	if err != nil {
		return "", err
	}
	audioDur, err := probeDuration(audioFile)
	if err != nil {
		return "", err
	}
	target := math.Min(videoDur, audioDur)

	outFile := filepath.Join(outputDir, "muxed_video.mp4")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", videoFile,
		"-i", audioFile,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-t", fmt.Sprintf("%.6f", target),
		outFile,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg mux: %w", err)
	}

	actual, err := probeDuration(outFile)
	if err != nil {
		return "", err
	}
	plan, err := conformPlan(actual, contract.Seconds, contract.MuxTolSec, contract.MaxPadSec)
	if err != nil {
		os.Remove(outFile)
		return "", fmt.Errorf("muxed video %.4fs vs contract %.4fs: %w", actual, contract.Seconds, err)
	}
	if plan.Action == ActionPad {
		// Muxing at min(video, audio) only ever leaves a deficit; within
		// the padding limit it is informational, not a failure.
		log.Printf("[cascade] Muxed video %.4fs short of contract — accepted", plan.Amount)
	}
	if plan.Action == ActionTrim {
		log.Printf("[cascade] Muxed surplus %.4fs — trimming", plan.Amount)
		trimmed := filepath.Join(outputDir, "muxed_trimmed.mp4")
		cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
			"-i", outFile,
			"-t", fmt.Sprintf("%.6f", contract.Seconds),
			"-c:v", "libx264",
			"-preset", "fast",
			"-crf", "20",
			"-c:a", "copy",
			trimmed,
		)
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return "", fmt.Errorf("ffmpeg mux trim: %w", err)
		}
		outFile = trimmed
	}

	log.Printf("[cascade] ✅ Muxed: %s", outFile)
	return outFile, nil
}

// ConformSubtitled re-trims the caption-burned video when the burn
// re-encode changed its duration past the mux tolerance. The final file
// matches the muxed duration, never the other way around.
func (m *Muxer) ConformSubtitled(ctx context.Context, subtitledFile string, contract types.DurationContract) (string, error) {
	actual, err := probeDuration(subtitledFile)
	if err != nil {
		return "", err
	}
	plan, err := conformPlan(actual, contract.Seconds, contract.MuxTolSec, contract.MaxPadSec)
	if err != nil {
		os.Remove(subtitledFile)
		return "", fmt.Errorf("final video %.4fs vs contract %.4fs: %w", actual, contract.Seconds, err)
	}
	if plan.Action != ActionTrim {
		if plan.Action == ActionPad {
			log.Printf("[cascade] Final video %.4fs short of contract — accepted", plan.Amount)
		}
		return subtitledFile, nil
	}

	log.Printf("[cascade] Caption burn grew video by %.4fs — re-trimming", plan.Amount)
	outFile := filepath.Join(filepath.Dir(subtitledFile), "final_conformed.mp4")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", subtitledFile,
		"-t", fmt.Sprintf("%.6f", contract.Seconds),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "20",
		"-c:a", "copy",
		outFile,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg final conform: %w", err)
	}
	return outFile, nil
}
