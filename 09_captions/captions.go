package captions

import (
	"math"
	"strings"

	"history-shorts-pipeline/config"
	"history-shorts-pipeline/types"
)

const (
	minChunkWords = 3
	maxChunkWords = 4
	// Display padding around chunk boundaries, seconds.
	tailHold   = 0.2
	leadBuffer = 0.05
)

// Generator builds word-synchronized caption chunks and their ASS
// rendering.
type Generator struct {
	cfg config.CaptionsConfig
}

// New creates a caption Generator
func New(cfg config.CaptionsConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Group splits the word stream into display chunks of 3 or 4 words.
// Four are taken when they fit the character cap, three otherwise; a
// chunk grows by one extra word only to avoid stranding a single word
// at the end. A chunk starts at its first word, shifted later when it
// would overlap the previous chunk by more than the overlap budget.
// Deterministic for a given word stream.
func (g *Generator) Group(words []types.Word) []types.CaptionChunk {
	if len(words) == 0 {
		return nil
	}

	maxChars := g.cfg.MaxChunkChars
	budget := g.cfg.OverlapBudgetMs / 1000

	var chunks []types.CaptionChunk
	var prevEnd float64

	for i := 0; i < len(words); {
		take := minChunkWords
		if i+maxChunkWords <= len(words) && joinedLen(words[i:i+maxChunkWords]) <= maxChars {
			take = maxChunkWords
		}
		if take > len(words)-i {
			take = len(words) - i
		}
		// A trailing one-word chunk reads like a glitch; absorb it when
		// the cap allows.
		if rest := len(words) - i - take; rest == 1 && joinedLen(words[i:i+take+1]) <= maxChars {
			take++
		}

		group := words[i : i+take]
		start := group[0].Start
		if len(chunks) > 0 && start < prevEnd-budget {
			start = prevEnd - budget
		}
		end := group[len(group)-1].End

		chunks = append(chunks, types.CaptionChunk{
			Words: append([]types.Word(nil), group...),
			Start: start,
			End:   end,
		})
		prevEnd = end
		i += take
	}

	return chunks
}

// Highlight computes when each word of a chunk is the emphasized one.
// A word stays highlighted until the next word starts, so pauses inside
// the chunk never leave the screen without an active word. The last
// word holds until the chunk's visible end: a short tail past the word,
// stopping just ahead of the next chunk, never past the video end.
// nextChunkStart <= 0 means this is the final chunk.
func (g *Generator) Highlight(chunk types.CaptionChunk, nextChunkStart, videoDuration float64) []types.WordHighlightInterval {
	if len(chunk.Words) == 0 {
		return nil
	}

	last := chunk.Words[len(chunk.Words)-1]
	visibleEnd := last.End + tailHold
	if nextChunkStart > 0 {
		visibleEnd = math.Max(last.End+tailHold, nextChunkStart-leadBuffer)
	}
	if videoDuration > 0 {
		visibleEnd = math.Min(visibleEnd, videoDuration)
	}

	out := make([]types.WordHighlightInterval, 0, len(chunk.Words))
	for i, w := range chunk.Words {
		from := w.Start
		if i == 0 {
			from = chunk.Start
		}
		until := visibleEnd
		if i < len(chunk.Words)-1 {
			until = chunk.Words[i+1].Start
		}
		if until < from {
			until = from
		}
		out = append(out, types.WordHighlightInterval{
			WordIndex:    i,
			VisibleFrom:  from,
			VisibleUntil: until,
		})
	}
	return out
}

func joinedLen(words []types.Word) int {
	n := 0
	for i, w := range words {
		if i > 0 {
			n++
		}
		n += len([]rune(strings.TrimSpace(w.Text)))
	}
	return n
}
