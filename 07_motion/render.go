package motion

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"history-shorts-pipeline/config"
	"history-shorts-pipeline/types"
)

// Renderer turns each segment's still image into a motion clip of the
// segment's exact duration.
type Renderer struct {
	cfg config.VisualsConfig
}

// New creates a new clip Renderer
func New(cfg config.VisualsConfig) *Renderer {
	return &Renderer{cfg: cfg}
}

// Run renders one clip per segment in parallel and records the clip path
// on the segment. All segments must already carry an ImageFile and an
// Effect; a failed render fails the whole batch.
func (r *Renderer) Run(ctx context.Context, segments []types.Segment, outputDir string) error {
	log.Printf("[motion] Rendering %d segment clips...", len(segments))

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.MaxParallel)

	for i := range segments {
		i := i
		g.Go(func() error {
			seg := &segments[i]
			outFile := filepath.Join(outputDir, fmt.Sprintf("clip_%03d.mp4", seg.Index))
			if err := r.renderClip(ctx, seg, outFile); err != nil {
				return fmt.Errorf("segment %d: %w", seg.Index, err)
			}
			seg.ClipFile = outFile
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	log.Printf("[motion] ✅ %d clips rendered", len(segments))
	return nil
}

// renderClip builds the ffmpeg filter for the segment's effect and
// encodes the clip at exactly the segment's duration.
func (r *Renderer) renderClip(ctx context.Context, seg *types.Segment, outFile string) error {
	if seg.ImageFile == "" {
		return fmt.Errorf("no image file")
	}

	filter := r.effectFilter(Effect(seg.Effect), seg.Duration)

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-loop", "1",
		"-i", seg.ImageFile,
		"-vf", filter,
		"-t", fmt.Sprintf("%.3f", seg.Duration),
		"-r", fmt.Sprintf("%d", r.cfg.FPS),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-an",
		outFile,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg clip render: %w", err)
	}
	return nil
}

// effectFilter maps an effect to its ffmpeg filter chain. The filter
// parameters are read off the effect's Transform at its endpoints, so
// the rendered motion is the crop-rect model and nothing else. Zooms
// use zoompan with a linear per-frame zoom expression; pans pre-scale
// the image and slide a frame-sized crop window with a time expression.
func (r *Renderer) effectFilter(effect Effect, duration float64) string {
	w := r.cfg.Width
	h := r.cfg.Height
	fps := r.cfg.FPS
	totalFrames := int(duration * float64(fps))
	if totalFrames < 1 {
		totalFrames = 1
	}

	rect := Transform(effect, duration, w, h, r.cfg.ZoomRange, r.cfg.PanScale)
	first := rect(0)
	last := rect(duration)

	switch effect {
	case ZoomIn, ZoomOut:
		// The crop window width maps directly to zoompan's zoom factor.
		startZoom := float64(w) / first.W
		endZoom := float64(w) / last.W
		step := (endZoom - startZoom) / float64(totalFrames)
		clamp := "min"
		if endZoom < startZoom {
			clamp = "max"
		}
		// Upscale before zoompan to hide its integer-pixel jitter.
		return fmt.Sprintf(
			"scale=%d:%d,zoompan=z='%s(%.6f%+.6f*on,%.6f)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:fps=%d:s=%dx%d",
			w*2, h*2, clamp, startZoom, step, endZoom, totalFrames, fps, w, h,
		)
	default:
		srcW := int(float64(w) * r.cfg.PanScale)
		srcH := int(float64(h) * r.cfg.PanScale)
		return fmt.Sprintf(
			"scale=%d:%d,crop=%d:%d:x='%.3f%+.3f*t/%.3f':y='%.3f'",
			srcW, srcH, w, h, first.X, last.X-first.X, duration, first.Y,
		)
	}
}
