package speech

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"history-shorts-pipeline/config"
)

// Generator handles TTS narration synthesis
type Generator struct {
	cfg config.SpeechConfig
}

// New creates a new Generator
func New(cfg config.SpeechConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Run synthesizes the narration into one audio file and measures it.
// It calls your existing TTS binary/script via shell.
// Set TTS_COMMAND in your .env to the command that accepts:
//
//	--text "..." --output path/to/file.mp3
//
// If TTS_COMMAND is not set, it falls back to edge-tts (free Microsoft TTS).
func (g *Generator) Run(ctx context.Context, narration, outputDir string) (string, float64, error) {
	log.Println("[speech] Generating TTS narration...")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", 0, fmt.Errorf("create speech dir: %w", err)
	}

	ttsCmd := os.Getenv("TTS_COMMAND")
	if ttsCmd == "" {
		if _, err := exec.LookPath("edge-tts"); err == nil {
			ttsCmd = "edge-tts"
			log.Println("[speech] Using edge-tts as TTS engine (fallback)")
		} else {
			return "", 0, fmt.Errorf("no TTS engine found. Set TTS_COMMAND in .env or install edge-tts: pip install edge-tts")
		}
	}

	rawFile := filepath.Join(outputDir, "narration_raw."+g.cfg.OutputFormat)
	if err := g.synthesize(ctx, ttsCmd, narration, rawFile); err != nil {
		return "", 0, fmt.Errorf("tts failed: %w", err)
	}

	outFile, err := g.postProcess(ctx, rawFile, outputDir)
	if err != nil {
		return "", 0, err
	}

	dur, err := getAudioDuration(outFile)
	if err != nil {
		return "", 0, fmt.Errorf("measure narration: %w", err)
	}

	log.Printf("[speech] ✅ Narration: %s (%.2fs)", outFile, dur)
	return outFile, dur, nil
}

func (g *Generator) synthesize(ctx context.Context, ttsCmd, text, outFile string) error {
	ttsCmd = strings.TrimSpace(ttsCmd)

	build := func() *exec.Cmd {
		switch {
		case ttsCmd == "edge-tts":
			// edge-tts --text "..." --write-media out.mp3
			return exec.CommandContext(ctx,
				"edge-tts",
				"--voice", g.cfg.Voice,
				"--text", text,
				"--write-media", outFile,
			)
		case strings.HasSuffix(ttsCmd, ".py"):
			return exec.CommandContext(ctx,
				"python3", ttsCmd,
				"--text", text,
				"--output", outFile,
			)
		default:
			return exec.CommandContext(ctx,
				ttsCmd,
				"--text", text,
				"--output", outFile,
			)
		}
	}

	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		cmd := build()
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err = cmd.Run(); err == nil {
			return nil
		}
		log.Printf("[speech] TTS attempt %d failed: %v — retrying...", attempt, err)
		time.Sleep(time.Duration(attempt) * 2 * time.Second)
	}
	return err
}

// postProcess resamples the raw TTS output and applies the speed factor
// so the transcription stage sees the same audio the viewer hears.
func (g *Generator) postProcess(ctx context.Context, rawFile, outputDir string) (string, error) {
	if g.cfg.SpeedFactor == 1.0 && g.cfg.SampleRate == 0 {
		return rawFile, nil
	}

	outFile := filepath.Join(outputDir, "narration."+g.cfg.OutputFormat)
	args := []string{"-y", "-i", rawFile}
	if g.cfg.SpeedFactor != 1.0 {
		args = append(args, "-af", fmt.Sprintf("atempo=%.3f", g.cfg.SpeedFactor))
	}
	if g.cfg.SampleRate > 0 {
		args = append(args, "-ar", fmt.Sprintf("%d", g.cfg.SampleRate))
	}
	args = append(args, outFile)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg narration post-process: %w", err)
	}
	return outFile, nil
}

// getAudioDuration uses ffprobe to get accurate audio duration in seconds
func getAudioDuration(audioFile string) (float64, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioFile,
	).Output()
	if err != nil {
		return 0, err
	}
	var dur float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur)
	return dur, err
}
