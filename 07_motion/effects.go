package motion

import (
	"math/rand"
)

// Effect is one of the Ken Burns style camera moves applied to a still
// image to make a segment clip.
type Effect string

const (
	ZoomIn   Effect = "zoom_in"
	ZoomOut  Effect = "zoom_out"
	PanLeft  Effect = "pan_left"
	PanRight Effect = "pan_right"
)

// Effects lists every available camera move.
var Effects = []Effect{ZoomIn, ZoomOut, PanLeft, PanRight}

// PlanEffects draws one effect per segment, uniformly among the effects
// that differ from the previous segment's pick. Two consecutive segments
// never share an effect.
func PlanEffects(n int, rng *rand.Rand) []Effect {
	if n <= 0 {
		return nil
	}
	plan := make([]Effect, n)
	plan[0] = Effects[rng.Intn(len(Effects))]
	for i := 1; i < n; i++ {
		pool := make([]Effect, 0, len(Effects)-1)
		for _, e := range Effects {
			if e != plan[i-1] {
				pool = append(pool, e)
			}
		}
		plan[i] = pool[rng.Intn(len(pool))]
	}
	return plan
}

// CropRect is a crop window over the pre-scaled source image. The window
// is later scaled to the output frame, so its aspect ratio always equals
// the frame's.
type CropRect struct {
	X, Y, W, H float64
}

// Transform returns the crop window as a function of time for one
// effect. Zooms shrink or grow a centered window over a frame-sized
// source between 1.0 and 1.0+zoomRange. Pans slide a frame-sized window
// across a source pre-scaled by panScale, left and right mirrored.
// The window stays inside the source for every t in [0, duration].
func Transform(effect Effect, duration float64, frameW, frameH int, zoomRange, panScale float64) func(t float64) CropRect {
	w := float64(frameW)
	h := float64(frameH)

	progress := func(t float64) float64 {
		if duration <= 0 {
			return 0
		}
		p := t / duration
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}
		return p
	}

	switch effect {
	case ZoomIn, ZoomOut:
		return func(t float64) CropRect {
			p := progress(t)
			if effect == ZoomOut {
				p = 1 - p
			}
			zoom := 1.0 + zoomRange*p
			cw := w / zoom
			ch := h / zoom
			return CropRect{X: (w - cw) / 2, Y: (h - ch) / 2, W: cw, H: ch}
		}
	default:
		// Pans: source is panScale times the frame, window is frame sized,
		// vertically centered, horizontal travel spans the slack.
		srcW := w * panScale
		srcH := h * panScale
		travel := srcW - w
		return func(t float64) CropRect {
			p := progress(t)
			if effect == PanLeft {
				p = 1 - p
			}
			return CropRect{X: travel * p, Y: (srcH - h) / 2, W: w, H: h}
		}
	}
}
