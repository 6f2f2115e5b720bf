package cascade

import (
	"errors"
	"math"
	"testing"

	"history-shorts-pipeline/config"
)

func testContract(seconds float64) (float64, float64, float64) {
	cfg := config.CascadeConfig{
		AudioToleranceMs: 1.0,
		VideoToleranceMs: 1.0,
		MuxToleranceMs:   0.1,
		MaxPadSec:        2.0,
	}
	c := NewContract(seconds, cfg)
	return c.Seconds, c.VideoTolSec, c.MaxPadSec
}

func TestNewContract_ConvertsTolerancesToSeconds(t *testing.T) {
	cfg := config.CascadeConfig{
		AudioToleranceMs: 1.0,
		VideoToleranceMs: 1.0,
		MuxToleranceMs:   0.1,
		MaxPadSec:        2.0,
	}
	c := NewContract(30.0, cfg)
	if c.Seconds != 30.0 {
		t.Errorf("Seconds = %f, want 30.0", c.Seconds)
	}
	if math.Abs(c.AudioTolSec-0.001) > 1e-12 {
		t.Errorf("AudioTolSec = %f, want 0.001", c.AudioTolSec)
	}
	if math.Abs(c.MuxTolSec-0.0001) > 1e-12 {
		t.Errorf("MuxTolSec = %f, want 0.0001", c.MuxTolSec)
	}
}

func TestConformPlan_WithinToleranceIsNoop(t *testing.T) {
	target, tol, maxPad := testContract(30.0)
	plan, err := conformPlan(30.0005, target, tol, maxPad)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Action != ActionNone {
		t.Errorf("action = %s, want none for 0.5ms drift under 1ms tolerance", plan.Action)
	}
}

func TestConformPlan_SurplusTrims(t *testing.T) {
	// Encoder overshoot: 30.018s against a 30.000s contract.
	target, tol, maxPad := testContract(30.0)
	plan, err := conformPlan(30.018, target, tol, maxPad)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Action != ActionTrim {
		t.Fatalf("action = %s, want trim", plan.Action)
	}
	if math.Abs(plan.Amount-0.018) > 1e-9 {
		t.Errorf("trim amount = %f, want 0.018", plan.Amount)
	}
}

func TestConformPlan_DeficitPads(t *testing.T) {
	target, tol, maxPad := testContract(30.0)
	plan, err := conformPlan(29.3, target, tol, maxPad)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Action != ActionPad {
		t.Fatalf("action = %s, want pad", plan.Action)
	}
	if math.Abs(plan.Amount-0.7) > 1e-9 {
		t.Errorf("pad amount = %f, want 0.7", plan.Amount)
	}
}

func TestConformPlan_DeficitBeyondLimitIsFatal(t *testing.T) {
	target, tol, maxPad := testContract(30.0)
	_, err := conformPlan(27.5, target, tol, maxPad)
	if !errors.Is(err, ErrDurationDriftFatal) {
		t.Fatalf("err = %v, want ErrDurationDriftFatal for a 2.5s deficit", err)
	}
}

func TestConformPlan_UnlimitedPaddingForAudio(t *testing.T) {
	// Audio conforming passes maxPad 0: any deficit pads with silence.
	plan, err := conformPlan(20.0, 30.0, 0.001, 0)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Action != ActionPad || math.Abs(plan.Amount-10.0) > 1e-9 {
		t.Errorf("plan = %+v, want 10s pad", plan)
	}
}

func TestConformPlan_Idempotent(t *testing.T) {
	// Applying the planned correction yields an artifact whose next plan
	// is a no-op.
	target, tol, maxPad := testContract(30.0)
	for _, actual := range []float64{28.5, 29.999, 30.0, 30.0007, 30.018, 31.4} {
		plan, err := conformPlan(actual, target, tol, maxPad)
		if err != nil {
			t.Fatalf("actual=%f: %v", actual, err)
		}
		corrected := actual
		switch plan.Action {
		case ActionTrim:
			corrected = actual - plan.Amount
		case ActionPad:
			corrected = actual + plan.Amount
		}
		again, err := conformPlan(corrected, target, tol, maxPad)
		if err != nil {
			t.Fatalf("actual=%f corrected=%f: %v", actual, corrected, err)
		}
		if again.Action != ActionNone {
			t.Errorf("actual=%f: second pass action = %s, want none", actual, again.Action)
		}
	}
}

func TestConformPlan_CorrectionNeverOvershoots(t *testing.T) {
	target, tol, maxPad := testContract(30.0)
	for _, actual := range []float64{28.1, 29.5, 30.5, 31.9} {
		plan, err := conformPlan(actual, target, tol, maxPad)
		if err != nil {
			t.Fatal(err)
		}
		corrected := actual
		switch plan.Action {
		case ActionTrim:
			corrected = actual - plan.Amount
		case ActionPad:
			corrected = actual + plan.Amount
		}
		if math.Abs(corrected-target) > math.Abs(actual-target) {
			t.Errorf("actual=%f: correction moved away from contract (%f)", actual, corrected)
		}
		if math.Abs(corrected-target) > 1e-9 {
			t.Errorf("actual=%f: corrected=%f, want exactly %f", actual, corrected, target)
		}
	}
}

func TestConformPlan_MuxUsesContractTolerance(t *testing.T) {
	// The mux stage conforms against contract.MuxTolSec, the tightest
	// band in the cascade: 0.05ms drift passes, 0.2ms gets trimmed.
	cfg := config.CascadeConfig{
		AudioToleranceMs: 1.0,
		VideoToleranceMs: 1.0,
		MuxToleranceMs:   0.1,
		MaxPadSec:        2.0,
	}
	c := NewContract(30.0, cfg)

	plan, err := conformPlan(30.00005, c.Seconds, c.MuxTolSec, c.MaxPadSec)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Action != ActionNone {
		t.Errorf("0.05ms drift: action = %s, want none", plan.Action)
	}

	plan, err = conformPlan(30.0002, c.Seconds, c.MuxTolSec, c.MaxPadSec)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Action != ActionTrim {
		t.Errorf("0.2ms drift: action = %s, want trim", plan.Action)
	}
}

func TestConformPlan_MusicLoopScenario(t *testing.T) {
	// A 45s music bed looped over 30.000s speech and hard-trimmed comes
	// back from the encoder a few ms long; the plan trims, never re-mixes.
	target, _, _ := testContract(30.0)
	plan, err := conformPlan(30.004, target, 0.001, 2.0)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Action != ActionTrim || math.Abs(plan.Amount-0.004) > 1e-9 {
		t.Errorf("plan = %+v, want 4ms trim", plan)
	}
}
