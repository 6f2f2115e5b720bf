package captions

import (
	"fmt"
	"os"
	"strings"

	"history-shorts-pipeline/types"
)

// WriteASS renders the chunks as an ASS karaoke file: one Dialogue per
// chunk, one \k run per word sized from its highlight interval. Word
// highlights therefore track the transcript timestamps, not an even
// split of the chunk.
func (g *Generator) WriteASS(chunks []types.CaptionChunk, videoDuration float64, outPath string) error {
	var b strings.Builder
	b.WriteString(g.assHeader())
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for i, chunk := range chunks {
		var nextStart float64
		if i+1 < len(chunks) {
			nextStart = chunks[i+1].Start
		}
		intervals := g.Highlight(chunk, nextStart, videoDuration)
		if len(intervals) == 0 {
			continue
		}
		visibleEnd := intervals[len(intervals)-1].VisibleUntil

		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(chunk.Start))
		b.WriteString(",")
		b.WriteString(assTime(visibleEnd))
		b.WriteString(",Caption,,0,0,0,,")
		for j, iv := range intervals {
			durCS := int((iv.VisibleUntil - iv.VisibleFrom) * 100)
			if durCS < 1 {
				durCS = 1
			}
			b.WriteString(fmt.Sprintf("{\\k%d}%s", durCS, sanitizeASS(chunk.Words[j].Text)))
			if j < len(intervals)-1 {
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")
	}

	return os.WriteFile(outPath, []byte(b.String()), 0644)
}

func (g *Generator) assHeader() string {
	return strings.TrimSpace(fmt.Sprintf(`
[Script Info]
ScriptType: v4.00+
PlayResX: 768
PlayResY: 1344
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Caption, %s, %d, &H00FFFFFF, &H0000D2FF, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,4,2,2, 40,40,%d,1
`, g.cfg.Font, g.cfg.FontSize, g.cfg.MarginV))
}

func assTime(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	total := int(sec * 100)
	cs := total % 100
	s := (total / 100) % 60
	m := (total / 6000) % 60
	h := total / 360000
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}
