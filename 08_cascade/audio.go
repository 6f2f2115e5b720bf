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

// Mixer produces the mixed narration+music track whose measured duration
// becomes the duration contract for everything downstream.
type Mixer struct {
	cfg config.CascadeConfig
}

// NewMixer creates a new audio Mixer
func NewMixer(cfg config.CascadeConfig) *Mixer {
	return &Mixer{cfg: cfg}
}

// Run mixes speech with looped background music at the speech's exact
// duration and establishes the contract from the result. musicFile may
// be empty, in which case the speech is leveled and trimmed on its own.
// Duration drift never fails the mix; it is corrected in place.
func (m *Mixer) Run(ctx context.Context, speechFile, musicFile, outputDir string) (string, types.DurationContract, error) {
	log.Println("[cascade] Mixing audio track...")

	var zero types.DurationContract
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", zero, err
	}

	target, err := probeDuration(speechFile)
	if err != nil {
		return "", zero, fmt.Errorf("probe speech: %w", err)
	}
	if target <= 0 {
		return "", zero, fmt.Errorf("speech file has no duration: %s", speechFile)
	}

	outFile := filepath.Join(outputDir, "mixed_audio.m4a")
	fade := math.Min(m.cfg.FadeOutMs/1000, 0.05*target)

	var cmd *exec.Cmd
	if musicFile != "" {
		// Music loops past the end, is hard-trimmed to the speech length,
		// then the mix fades out and is trimmed again. amix with
		// duration=first keeps the speech track authoritative.
		filter := fmt.Sprintf(
			"[0:a]volume=%.1fdB[voice];"+
				"[1:a]volume=%.1fdB,atrim=0:%.3f,asetpts=PTS-STARTPTS[music];"+
				"[voice][music]amix=inputs=2:duration=first:normalize=0,afade=t=out:st=%.3f:d=%.3f[mix]",
			m.cfg.VoiceTargetDb, m.cfg.MusicTargetDb, target, target-fade, fade,
		)
		cmd = exec.CommandContext(ctx, "ffmpeg", "-y",
			"-i", speechFile,
			"-stream_loop", "-1",
			"-i", musicFile,
			"-filter_complex", filter,
			"-map", "[mix]",
			"-t", fmt.Sprintf("%.3f", target),
			"-c:a", "aac",
			"-b:a", "192k",
			outFile,
		)
	} else {
		log.Println("[cascade] No music track — leveling narration only")
		cmd = exec.CommandContext(ctx, "ffmpeg", "-y",
			"-i", speechFile,
			"-af", fmt.Sprintf("volume=%.1fdB", m.cfg.VoiceTargetDb),
			"-t", fmt.Sprintf("%.3f", target),
			"-c:a", "aac",
			"-b:a", "192k",
			outFile,
		)
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", zero, fmt.Errorf("ffmpeg audio mix: %w", err)
	}

	contract := NewContract(target, m.cfg)
	final, err := m.conformAudio(ctx, outFile, contract)
	if err != nil {
		return "", zero, err
	}

	log.Printf("[cascade] ✅ Mixed audio at %.3fs — contract established", contract.Seconds)
	return final, contract, nil
}

// conformAudio verifies the mixed track against the contract and forces
// an atrim/apad correction when encoder drift exceeds the tolerance.
func (m *Mixer) conformAudio(ctx context.Context, audioFile string, contract types.DurationContract) (string, error) {
	actual, err := probeDuration(audioFile)
	if err != nil {
		return "", err
	}

	// Audio deficits are always padded with silence; the padding limit
	// only guards video artifacts.
	plan, err := conformPlan(actual, contract.Seconds, contract.AudioTolSec, 0)
	if err != nil {
		return "", err
	}
	if plan.Action == ActionNone {
		return audioFile, nil
	}

	log.Printf("[cascade] Audio drift %.4fs (%s) — correcting", plan.Amount, plan.Action)

	var filter string
	switch plan.Action {
	case ActionTrim:
		filter = fmt.Sprintf("atrim=0:%.6f", contract.Seconds)
	case ActionPad:
		filter = fmt.Sprintf("apad=pad_dur=%.6f", plan.Amount)
	}

	outFile := filepath.Join(filepath.Dir(audioFile), "mixed_audio_conformed.m4a")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", audioFile,
		"-af", filter,
		"-t", fmt.Sprintf("%.6f", contract.Seconds),
		"-c:a", "aac",
		"-b:a", "192k",
		outFile,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg audio conform: %w", err)
	}
	return outFile, nil
}
