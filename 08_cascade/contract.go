package cascade

import (
	"errors"
	"fmt"

	"history-shorts-pipeline/config"
	"history-shorts-pipeline/types"
)

// ErrDurationDriftFatal marks an artifact that fell short of the
// contract by more than the padding limit. The topic fails rather than
// shipping a video padded with seconds of frozen frame.
var ErrDurationDriftFatal = errors.New("cascade: duration deficit exceeds padding limit")

// Action says how an artifact must change to meet the contract.
type Action string

const (
	ActionNone Action = "none"
	ActionTrim Action = "trim"
	ActionPad  Action = "pad"
)

// Plan is one conforming step: the action and how many seconds it moves.
type Plan struct {
	Action Action
	Amount float64
}

// NewContract pins the authoritative duration from the mixed audio and
// copies the stage tolerances out of config, converted to seconds.
func NewContract(seconds float64, cfg config.CascadeConfig) types.DurationContract {
	return types.DurationContract{
		Seconds:     seconds,
		AudioTolSec: cfg.AudioToleranceMs / 1000,
		VideoTolSec: cfg.VideoToleranceMs / 1000,
		MuxTolSec:   cfg.MuxToleranceMs / 1000,
		MaxPadSec:   cfg.MaxPadSec,
	}
}

// conformPlan decides how an artifact of measured duration must change
// to land within tolSec of target. Surplus is always trimmable; a
// deficit beyond maxPadSec is fatal. maxPadSec <= 0 means unlimited.
func conformPlan(actual, target, tolSec, maxPadSec float64) (Plan, error) {
	drift := actual - target
	switch {
	case drift >= -tolSec && drift <= tolSec:
		return Plan{Action: ActionNone}, nil
	case drift > 0:
		return Plan{Action: ActionTrim, Amount: drift}, nil
	default:
		deficit := -drift
		if maxPadSec > 0 && deficit > maxPadSec {
			return Plan{}, fmt.Errorf("%w: need %.3fs of padding, limit %.3fs",
				ErrDurationDriftFatal, deficit, maxPadSec)
		}
		return Plan{Action: ActionPad, Amount: deficit}, nil
	}
}
