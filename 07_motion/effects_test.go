package motion

import (
	"math"
	"math/rand"
	"testing"
)

func TestPlanEffects_NoConsecutiveRepeats(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		plan := PlanEffects(12, rng)
		if len(plan) != 12 {
			t.Fatalf("got %d effects, want 12", len(plan))
		}
		for i := 1; i < len(plan); i++ {
			if plan[i] == plan[i-1] {
				t.Errorf("trial %d: effect repeats at segment %d (%s)", trial, i+1, plan[i])
			}
		}
	}
}

func TestPlanEffects_DeterministicForSeed(t *testing.T) {
	a := PlanEffects(12, rand.New(rand.NewSource(7)))
	b := PlanEffects(12, rand.New(rand.NewSource(7)))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("plans diverge at %d: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestPlanEffects_Empty(t *testing.T) {
	if got := PlanEffects(0, rand.New(rand.NewSource(1))); got != nil {
		t.Errorf("expected nil plan for n=0, got %v", got)
	}
}

func TestTransform_ZoomStaysCenteredAndBounded(t *testing.T) {
	const w, h = 768, 1344
	for _, effect := range []Effect{ZoomIn, ZoomOut} {
		f := Transform(effect, 2.5, w, h, 0.1, 1.2)
		for _, tm := range []float64{0, 0.5, 1.25, 2.0, 2.5} {
			r := f(tm)
			if r.X < 0 || r.Y < 0 || r.X+r.W > w+1e-9 || r.Y+r.H > h+1e-9 {
				t.Errorf("%s t=%.2f: rect %+v escapes %dx%d source", effect, tm, r, w, h)
			}
			if math.Abs(r.W/r.H-float64(w)/float64(h)) > 1e-9 {
				t.Errorf("%s t=%.2f: aspect ratio drifted: %f", effect, tm, r.W/r.H)
			}
			if math.Abs((r.X+r.W/2)-w/2) > 1e-9 || math.Abs((r.Y+r.H/2)-h/2) > 1e-9 {
				t.Errorf("%s t=%.2f: crop not centered: %+v", effect, tm, r)
			}
		}
	}
}

func TestTransform_ZoomEndpoints(t *testing.T) {
	const w, h = 768, 1344
	f := Transform(ZoomIn, 2.0, w, h, 0.1, 1.2)
	if r := f(0); math.Abs(r.W-w) > 1e-9 {
		t.Errorf("zoom_in at t=0 width = %f, want full frame %d", r.W, w)
	}
	if r := f(2.0); math.Abs(r.W-w/1.1) > 1e-9 {
		t.Errorf("zoom_in at t=end width = %f, want %f", r.W, w/1.1)
	}

	out := Transform(ZoomOut, 2.0, w, h, 0.1, 1.2)
	if r := out(0); math.Abs(r.W-w/1.1) > 1e-9 {
		t.Errorf("zoom_out at t=0 width = %f, want %f", r.W, w/1.1)
	}
	if r := out(2.0); math.Abs(r.W-w) > 1e-9 {
		t.Errorf("zoom_out at t=end width = %f, want full frame", r.W)
	}
}

func TestTransform_PanWindowIsFrameSized(t *testing.T) {
	const w, h = 768, 1344
	for _, effect := range []Effect{PanLeft, PanRight} {
		f := Transform(effect, 3.0, w, h, 0.1, 1.2)
		srcW := float64(w) * 1.2
		srcH := float64(h) * 1.2
		for _, tm := range []float64{0, 1.0, 1.5, 2.9, 3.0} {
			r := f(tm)
			if r.W != w || r.H != h {
				t.Errorf("%s t=%.2f: window %fx%f, want exactly %dx%d", effect, tm, r.W, r.H, w, h)
			}
			if r.X < 0 || r.X+r.W > srcW+1e-9 || r.Y < 0 || r.Y+r.H > srcH+1e-9 {
				t.Errorf("%s t=%.2f: window %+v escapes scaled source", effect, tm, r)
			}
		}
	}
}

func TestTransform_PansMirrored(t *testing.T) {
	const w, h = 768, 1344
	left := Transform(PanLeft, 2.0, w, h, 0.1, 1.2)
	right := Transform(PanRight, 2.0, w, h, 0.1, 1.2)
	for _, tm := range []float64{0, 0.5, 1.0, 1.7, 2.0} {
		l := left(tm)
		r := right(2.0 - tm)
		if math.Abs(l.X-r.X) > 1e-9 {
			t.Errorf("t=%.2f: pan_left X %f != mirrored pan_right X %f", tm, l.X, r.X)
		}
	}
}

func TestTransform_ClampsOutOfRangeTime(t *testing.T) {
	const w, h = 768, 1344
	f := Transform(ZoomIn, 2.0, w, h, 0.1, 1.2)
	if r := f(-1); math.Abs(r.W-w) > 1e-9 {
		t.Errorf("t<0 should clamp to start, got %+v", r)
	}
	if r := f(99); math.Abs(r.W-w/1.1) > 1e-9 {
		t.Errorf("t>duration should clamp to end, got %+v", r)
	}
}
