package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"history-shorts-pipeline/config"
	"history-shorts-pipeline/types"
)

// ErrEmptyTranscript is returned when whisper produced no usable words.
var ErrEmptyTranscript = errors.New("transcribe: no words in transcript")

// Ingestor turns narration audio into word-level timestamps
type Ingestor struct {
	cfg config.TranscribeConfig
}

// New creates a new transcript Ingestor
func New(cfg config.TranscribeConfig) *Ingestor {
	return &Ingestor{cfg: cfg}
}

// Run transcribes the audio with the whisper CLI, parses the word-level
// JSON output, and fills large silence gaps with inferred words taken
// from the narration text. The returned slice is sorted by start time.
func (g *Ingestor) Run(ctx context.Context, audioFile, narration, outputDir string) ([]types.Word, error) {
	log.Println("[transcribe] Running Whisper transcription...")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	// whisper audio.mp3 --model base --output_format json --output_dir /path/
	cmd := exec.CommandContext(ctx,
		"whisper",
		audioFile,
		"--model", g.cfg.WhisperModel,
		"--output_format", "json",
		"--output_dir", outputDir,
		"--language", g.cfg.Language,
		"--word_timestamps", "True",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("whisper failed: %w", err)
	}

	// Whisper saves as <audioFilename>.json
	base := strings.TrimSuffix(filepath.Base(audioFile), filepath.Ext(audioFile))
	jsonFile := filepath.Join(outputDir, base+".json")
	data, err := os.ReadFile(jsonFile)
	if err != nil {
		return nil, fmt.Errorf("whisper output missing: %w", err)
	}

	words, err := parseWords(data)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, ErrEmptyTranscript
	}

	before := len(words)
	words = g.fillGaps(words, narration)
	if inferred := len(words) - before; inferred > 0 {
		log.Printf("[transcribe] Inferred %d words across silence gaps", inferred)
	}

	log.Printf("[transcribe] ✅ %d words with timestamps", len(words))
	return words, nil
}

// whisperOutput mirrors the whisper CLI's JSON shape; only the fields
// the pipeline reads are declared.
type whisperOutput struct {
	Segments []struct {
		Words []struct {
			Word        string  `json:"word"`
			Start       float64 `json:"start"`
			End         float64 `json:"end"`
			Probability float64 `json:"probability"`
		} `json:"words"`
	} `json:"segments"`
}

func parseWords(data []byte) ([]types.Word, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("transcribe: parse whisper json: %w", err)
	}

	var words []types.Word
	for _, seg := range out.Segments {
		for _, w := range seg.Words {
			text := strings.TrimSpace(w.Word)
			if text == "" {
				continue
			}
			conf := w.Probability
			if conf <= 0 {
				conf = 0.8
			}
			words = append(words, types.Word{
				Text:       text,
				Start:      w.Start,
				End:        w.End,
				Confidence: conf,
				Source:     types.SourceTranscribed,
			})
		}
	}
	return words, nil
}

const (
	inferredWordSec = 0.3
	inferredConf    = 0.5
)

// fillGaps synthesizes placeholder words inside silence gaps longer than
// the configured threshold, so the scheduler does not see long stretches
// of the timeline with no word anchors. Inferred words are drawn from
// the narration text at the gap's proportional position, spaced evenly
// inside the gap, and the result is re-sorted by start time.
func (g *Ingestor) fillGaps(words []types.Word, narration string) []types.Word {
	threshold := g.cfg.GapFillThreshold
	maxPerGap := g.cfg.MaxInferredWords
	if threshold <= 0 || maxPerGap <= 0 || len(words) < 2 {
		return words
	}

	narrWords := strings.Fields(narration)
	total := words[len(words)-1].End

	out := words
	for i := 0; i < len(words)-1; i++ {
		gapStart := words[i].End
		gapEnd := words[i+1].Start
		gap := gapEnd - gapStart
		if gap <= threshold {
			continue
		}

		k := maxPerGap
		if max := int(gap / inferredWordSec); max < k {
			k = max
		}
		for j := 0; j < k; j++ {
			center := gapStart + gap*float64(j+1)/float64(k+1)
			out = append(out, types.Word{
				Text:       narrationWordAt(narrWords, center, total),
				Start:      center - inferredWordSec/2,
				End:        center + inferredWordSec/2,
				Confidence: inferredConf,
				Source:     types.SourceInferred,
			})
		}
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Start < out[b].Start })
	return out
}

// narrationWordAt picks the narration word whose proportional position
// best matches a timestamp. Falls back to an ellipsis when the narration
// text is unavailable.
func narrationWordAt(narrWords []string, t, total float64) string {
	if len(narrWords) == 0 || total <= 0 {
		return "..."
	}
	idx := int(float64(len(narrWords)) * t / total)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(narrWords) {
		idx = len(narrWords) - 1
	}
	return narrWords[idx]
}
