package images

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"history-shorts-pipeline/config"
	"history-shorts-pipeline/types"
)

// Fetcher generates AI images via Pollinations.ai (free, no key needed)
type Fetcher struct {
	cfg        config.VisualsConfig
	httpClient *http.Client
}

// New creates a new image Fetcher
func New(cfg config.VisualsConfig) *Fetcher {
	return &Fetcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Run fetches one image per segment and records it on the segment. A
// failed fetch never fails the run: segments without their own image
// cycle through the ones that did arrive, and if nothing arrived at all
// a plain black frame stands in.
func (f *Fetcher) Run(ctx context.Context, segments []types.Segment, outputDir string) error {
	log.Printf("[images] Fetching %d segment images...", len(segments))

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var fetched []string
	for i := range segments {
		seg := &segments[i]
		outFile, err := f.fetchOne(ctx, seg, outputDir)
		if err != nil {
			log.Printf("[images] Segment %d fetch failed: %v — will reuse another image", seg.Index, err)
			continue
		}
		seg.ImageFile = outFile
		fetched = append(fetched, outFile)
	}

	owned := len(fetched)
	if len(fetched) == 0 {
		log.Println("[images] No images fetched — generating fallback frame")
		fallback, err := f.blackFrame(ctx, outputDir)
		if err != nil {
			return fmt.Errorf("fallback frame: %w", err)
		}
		fetched = append(fetched, fallback)
	}

	cycleImages(segments, fetched)

	log.Printf("[images] ✅ %d/%d segments have their own image", owned, len(segments))
	return nil
}

// cycleImages fills segments without an image by cycling through the
// available ones, so a partial fetch still covers the whole schedule.
func cycleImages(segments []types.Segment, available []string) {
	for i := range segments {
		if segments[i].ImageFile == "" {
			segments[i].ImageFile = available[i%len(available)]
		}
	}
}

// fetchOne builds a shot-aware prompt from the segment and downloads the
// generated image. The seed is derived from the segment index so reruns
// produce the same picture.
func (f *Fetcher) fetchOne(ctx context.Context, seg *types.Segment, outputDir string) (string, error) {
	prompt := buildPrompt(seg)
	encodedPrompt := url.PathEscape(prompt)
	imageURL := fmt.Sprintf(
		"https://image.pollinations.ai/prompt/%s?width=%d&height=%d&nologo=true&model=flux&seed=%d",
		encodedPrompt,
		f.cfg.Width,
		f.cfg.Height,
		seg.Index*42+7,
	)

	outFile := filepath.Join(outputDir, fmt.Sprintf("segment_%03d.jpg", seg.Index))

	log.Printf("[images] Segment %d: %q", seg.Index, truncate(prompt, 60))

	// Retry up to 3 times (Pollinations occasionally times out)
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = f.downloadImage(ctx, imageURL, outFile)
		if err == nil {
			return outFile, nil
		}
		log.Printf("[images] Attempt %d failed for segment %d: %v", attempt, seg.Index, err)
		time.Sleep(time.Duration(attempt) * 3 * time.Second)
	}
	return "", fmt.Errorf("pollinations fetch failed after 3 attempts: %w", err)
}

func (f *Fetcher) downloadImage(ctx context.Context, imageURL, outFile string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; HistoryShortsPipeline/1.0)")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from Pollinations", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	// Validate it's actually an image (not an error HTML page)
	if len(data) < 100 {
		return fmt.Errorf("response too small (%d bytes) — likely an error", len(data))
	}

	return os.WriteFile(outFile, data, 0644)
}

// blackFrame renders a plain frame at the output resolution so the
// motion renderer always has an input.
func (f *Fetcher) blackFrame(ctx context.Context, outputDir string) (string, error) {
	outFile := filepath.Join(outputDir, "fallback_black.jpg")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=black:s=%dx%d", f.cfg.Width, f.cfg.Height),
		"-frames:v", "1",
		outFile,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return outFile, nil
}

// shotStyles maps the assigned shot to framing language for the image
// model; contentStyles adds mood per narrative type.
var shotStyles = map[types.ShotType]string{
	types.WideShot:         "wide angle shot, full scene visible",
	types.MediumShot:       "medium shot, waist-up framing",
	types.CloseUp:          "close-up shot, intimate detail",
	types.EstablishingShot: "establishing shot, sweeping vista, grand scale",
	types.TwoShot:          "two figures facing each other, balanced composition",
}

var contentStyles = map[types.ContentType]string{
	types.CharacterAction:        "dynamic composition, sense of motion",
	types.EnvironmentDescription: "rich environmental detail, atmospheric depth",
	types.EmotionalMoment:        "soft dramatic lighting, emotionally heavy",
	types.DialogueConfrontation:  "tense atmosphere, dramatic contrast",
	types.ExpositionSetup:        "painterly historical scene, documentary tone",
}

func buildPrompt(seg *types.Segment) string {
	base := seg.Text
	style := "historical illustration, cinematic, dramatic lighting, photorealistic"
	if s, ok := shotStyles[seg.ShotType]; ok {
		style = s + ", " + style
	}
	if s, ok := contentStyles[seg.ContentType]; ok {
		style += ", " + s
	}
	return fmt.Sprintf("%s, %s, no text, no watermark", base, style)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
