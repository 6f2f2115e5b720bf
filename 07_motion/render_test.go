package motion

import (
	"fmt"
	"strings"
	"testing"

	"history-shorts-pipeline/config"
)

func testRenderer() *Renderer {
	return New(config.VisualsConfig{
		Width:       768,
		Height:      1344,
		FPS:         30,
		ZoomRange:   0.1,
		PanScale:    1.2,
		MaxParallel: 4,
	})
}

func TestEffectFilter_ZoomTracksTransform(t *testing.T) {
	r := testRenderer()
	const duration = 2.5

	for _, effect := range []Effect{ZoomIn, ZoomOut} {
		rect := Transform(effect, duration, 768, 1344, 0.1, 1.2)
		startZoom := 768.0 / rect(0).W
		endZoom := 768.0 / rect(duration).W

		filter := r.effectFilter(effect, duration)
		if !strings.Contains(filter, fmt.Sprintf("%.6f", startZoom)) {
			t.Errorf("%s filter %q missing start zoom %.6f from the transform", effect, filter, startZoom)
		}
		if !strings.Contains(filter, fmt.Sprintf("%.6f", endZoom)) {
			t.Errorf("%s filter %q missing end zoom %.6f from the transform", effect, filter, endZoom)
		}
	}

	if !strings.Contains(r.effectFilter(ZoomIn, duration), "min(") {
		t.Error("zoom_in should clamp upward with min()")
	}
	if !strings.Contains(r.effectFilter(ZoomOut, duration), "max(") {
		t.Error("zoom_out should clamp downward with max()")
	}
}

func TestEffectFilter_PanTracksTransform(t *testing.T) {
	r := testRenderer()
	const duration = 3.0

	for _, effect := range []Effect{PanLeft, PanRight} {
		rect := Transform(effect, duration, 768, 1344, 0.1, 1.2)
		first := rect(0)
		last := rect(duration)

		filter := r.effectFilter(effect, duration)
		wantX := fmt.Sprintf("x='%.3f%+.3f*t/", first.X, last.X-first.X)
		if !strings.Contains(filter, wantX) {
			t.Errorf("%s filter %q missing offset expression %q from the transform", effect, filter, wantX)
		}
		if !strings.Contains(filter, fmt.Sprintf("y='%.3f'", first.Y)) {
			t.Errorf("%s filter %q missing vertical centering %.3f from the transform", effect, filter, first.Y)
		}
		if !strings.Contains(filter, fmt.Sprintf("crop=%d:%d", 768, 1344)) {
			t.Errorf("%s filter %q crop window is not the frame size", effect, filter)
		}
	}
}

func TestEffectFilter_ZeroDuration(t *testing.T) {
	r := testRenderer()
	// A degenerate clip still gets a well-formed filter.
	filter := r.effectFilter(ZoomIn, 0)
	if !strings.Contains(filter, "zoompan") {
		t.Errorf("filter %q not a zoompan chain", filter)
	}
}
