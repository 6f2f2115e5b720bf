package schedule

import (
	"fmt"
	"log"
	"strings"

	"history-shorts-pipeline/types"
)

// Schedule divides the narration timeline into n equal windows and assigns
// transcript words to them. The final segment's end is exactly
// totalDuration, so the windows partition [0, totalDuration) with no gaps
// or overlaps. totalDuration defaults to the last word's end when <= 0.
//
// A window's text comes from the words fully contained in it; if none are,
// words overlapping the window are used instead; if still none, the text
// is a placeholder. An empty window is a quality signal (WordCount 0),
// never an error.
func Schedule(words []types.Word, n int, totalDuration float64) ([]types.Segment, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("schedule: no words provided")
	}
	if n < 1 {
		return nil, fmt.Errorf("schedule: segment count must be >= 1, got %d", n)
	}
	if totalDuration <= 0 {
		totalDuration = words[len(words)-1].End
	}
	if totalDuration <= 0 {
		return nil, fmt.Errorf("schedule: total duration must be > 0")
	}

	window := totalDuration / float64(n)
	segments := make([]types.Segment, 0, n)

	for i := 0; i < n; i++ {
		start := float64(i) * window
		end := start + window
		if i == n-1 {
			// Absorb floating-point remainder so the partition is exact.
			end = totalDuration
		}

		contained := wordsContained(words, start, end)
		text := joinWords(contained)
		if text == "" {
			overlapping := wordsOverlapping(words, start, end)
			text = joinWords(overlapping)
		}
		if text == "" {
			text = fmt.Sprintf("Story segment %d", i+1)
		}

		segments = append(segments, types.Segment{
			Index:         i + 1,
			Start:         start,
			End:           end,
			Duration:      end - start,
			Text:          text,
			WordCount:     len(contained),
			AvgConfidence: avgConfidence(contained),
		})
	}

	log.Printf("[schedule] %d segments of %.3fs over %.3fs total", n, window, totalDuration)
	return segments, nil
}

func wordsContained(words []types.Word, start, end float64) []types.Word {
	var out []types.Word
	for _, w := range words {
		if w.Start >= start && w.End <= end {
			out = append(out, w)
		}
	}
	return out
}

func wordsOverlapping(words []types.Word, start, end float64) []types.Word {
	var out []types.Word
	for _, w := range words {
		if w.Start < end && w.End > start {
			out = append(out, w)
		}
	}
	return out
}

func joinWords(words []types.Word) string {
	if len(words) == 0 {
		return ""
	}
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if t := strings.TrimSpace(w.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// avgConfidence discounts inferred words by half so a gap-filled segment
// reads as lower quality than a cleanly transcribed one.
func avgConfidence(words []types.Word) float64 {
	if len(words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range words {
		c := w.Confidence
		if w.Source == types.SourceInferred {
			c *= 0.5
		}
		sum += c
	}
	return sum / float64(len(words))
}
