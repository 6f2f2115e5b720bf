package transcribe

import (
	"testing"

	"history-shorts-pipeline/config"
	"history-shorts-pipeline/types"
)

const whisperJSON = `{
  "segments": [
    {"words": [
      {"word": " In", "start": 0.0, "end": 0.3, "probability": 0.95},
      {"word": " 1912", "start": 0.3, "end": 0.9, "probability": 0.92}
    ]},
    {"words": [
      {"word": " the", "start": 1.0, "end": 1.2, "probability": 0.9},
      {"word": "  ", "start": 1.2, "end": 1.3, "probability": 0.9},
      {"word": " ship", "start": 1.3, "end": 1.7}
    ]}
  ]
}`

func TestParseWords(t *testing.T) {
	words, err := parseWords([]byte(whisperJSON))
	if err != nil {
		t.Fatal(err)
	}
	if len(words) != 4 {
		t.Fatalf("got %d words, want 4 (blank token dropped)", len(words))
	}
	if words[0].Text != "In" {
		t.Errorf("first word = %q, want trimmed %q", words[0].Text, "In")
	}
	if words[0].Source != types.SourceTranscribed {
		t.Errorf("source = %s, want transcribed", words[0].Source)
	}
	// Missing probability defaults rather than reading as zero confidence.
	if words[3].Confidence != 0.8 {
		t.Errorf("defaulted confidence = %f, want 0.8", words[3].Confidence)
	}
}

func TestParseWords_BadJSON(t *testing.T) {
	if _, err := parseWords([]byte("{not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFillGaps_InfersWordsInLargeGap(t *testing.T) {
	g := New(config.TranscribeConfig{GapFillThreshold: 1.0, MaxInferredWords: 2})
	words := []types.Word{
		{Text: "before", Start: 0.0, End: 0.5, Confidence: 0.9, Source: types.SourceTranscribed},
		{Text: "after", Start: 3.5, End: 4.0, Confidence: 0.9, Source: types.SourceTranscribed},
	}

	got := g.fillGaps(words, "before something happened after")
	if len(got) != 4 {
		t.Fatalf("got %d words, want 4 (2 inferred)", len(got))
	}
	for i, w := range got[1:3] {
		if w.Source != types.SourceInferred {
			t.Errorf("word %d source = %s, want inferred", i+2, w.Source)
		}
		if w.Confidence != 0.5 {
			t.Errorf("word %d confidence = %f, want 0.5", i+2, w.Confidence)
		}
		if dur := w.End - w.Start; dur < 0.29 || dur > 0.31 {
			t.Errorf("word %d duration = %f, want 0.3", i+2, dur)
		}
		if w.Start <= 0.5 || w.End >= 3.5 {
			t.Errorf("word %d [%f, %f] escapes the gap", i+2, w.Start, w.End)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Start < got[i-1].Start {
			t.Errorf("words not sorted at index %d", i)
		}
	}
}

func TestFillGaps_SmallGapUntouched(t *testing.T) {
	g := New(config.TranscribeConfig{GapFillThreshold: 1.0, MaxInferredWords: 2})
	words := []types.Word{
		{Text: "a", Start: 0.0, End: 0.5, Source: types.SourceTranscribed},
		{Text: "b", Start: 1.2, End: 1.6, Source: types.SourceTranscribed},
	}
	if got := g.fillGaps(words, "a b"); len(got) != 2 {
		t.Errorf("got %d words, want 2 (0.7s gap is under threshold)", len(got))
	}
}

func TestFillGaps_NoNarrationFallsBackToEllipsis(t *testing.T) {
	g := New(config.TranscribeConfig{GapFillThreshold: 1.0, MaxInferredWords: 1})
	words := []types.Word{
		{Text: "a", Start: 0.0, End: 0.5, Source: types.SourceTranscribed},
		{Text: "b", Start: 3.0, End: 3.5, Source: types.SourceTranscribed},
	}
	got := g.fillGaps(words, "")
	if len(got) != 3 {
		t.Fatalf("got %d words, want 3", len(got))
	}
	if got[1].Text != "..." {
		t.Errorf("inferred text = %q, want ellipsis placeholder", got[1].Text)
	}
}
