package captions

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Burn renders the ASS captions into the video with the ffmpeg
// subtitles filter. The caller re-verifies the output duration.
func (g *Generator) Burn(ctx context.Context, videoFile, assFile, outputDir string) (string, error) {
	log.Println("[captions] Burning captions into video...")

	outFile := filepath.Join(outputDir, "video_captioned.mp4")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", videoFile,
		"-vf", fmt.Sprintf("subtitles=%s", escapeSubtitlePath(assFile)),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "20",
		"-c:a", "copy",
		outFile,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg caption burn: %w", err)
	}

	log.Printf("[captions] ✅ Captions burned: %s", outFile)
	return outFile, nil
}

func escapeSubtitlePath(path string) string {
	// FFmpeg subtitle filter needs escaped colons and backslashes
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ReplaceAll(path, ":", "\\:")
	return path
}
