package duty

import (
	"github.com/ecfan/ecfan/internal/ec"
	"github.com/ecfan/ecfan/internal/ui"
	"github.com/ecfan/ecfan/internal/util"
	"github.com/qdm12/reprint"
)

const (
	// maxRampJump is the largest upward step applied in a single evaluation
	// once a ramp has been started
	maxRampJump = 2
)

// Decision is the outcome of a single evaluation: either a duty in [0..100] or NoChange.
type Decision int

const NoChange Decision = -1

func (d Decision) IsChange() bool {
	return d != NoChange
}

func (d Decision) Duty() int {
	return int(d)
}

type Config struct {
	Ladder    Ladder
	Rungs     []int
	Tolerance int
}

func DefaultConfig() Config {
	return Config{
		Ladder:    DefaultLadder,
		Rungs:     AllowedDuties,
		Tolerance: DefaultTolerance,
	}
}

// Controller turns temperature and duty readings into the next fan duty.
type Controller struct {
	ladder    Ladder
	rungs     []int
	tolerance int
}

// NewController creates a controller. An empty ladder or rung list falls back to
// DefaultLadder or AllowedDuties, a negative tolerance to DefaultTolerance.
func NewController(config Config) *Controller {
	ladder := config.Ladder
	if len(ladder) <= 0 {
		ladder = DefaultLadder
	}
	rungs := config.Rungs
	if len(rungs) <= 0 {
		rungs = AllowedDuties
	}
	tolerance := config.Tolerance
	if tolerance < 0 {
		tolerance = DefaultTolerance
	}

	return &Controller{
		ladder:    reprint.This(ladder).(Ladder),
		rungs:     reprint.This(rungs).([]int),
		tolerance: tolerance,
	}
}

func (c *Controller) GetLadder() Ladder {
	return reprint.This(c.ladder).(Ladder)
}

// Evaluate decides the next duty for the given snapshot.
// lastApplied is the duty most recently written by the caller, or a negative
// value if nothing was written yet, in which case the observed duty is used.
func (c *Controller) Evaluate(snapshot ec.Snapshot, lastApplied int) Decision {
	temp, ok := snapshot.ControlTemperature()
	if !ok || !snapshot.IsValid(ec.FieldFanDuty) {
		return NoChange
	}
	return c.EvaluateTemperature(temp, snapshot.FanDuty, lastApplied)
}

// EvaluateTemperature decides the next duty for an already aggregated control temperature.
func (c *Controller) EvaluateTemperature(temp int, observedDuty int, lastApplied int) Decision {
	if lastApplied < 0 {
		lastApplied = observedDuty
	}
	duty := IdentifyDuty(observedDuty, c.rungs, c.tolerance)

	target, ok := c.LadderTarget(temp, observedDuty)
	if !ok {
		return NoChange
	}

	target = util.Clamp(rampLimit(target, duty, lastApplied), ec.MinDuty, ec.MaxDuty)
	if target == observedDuty || target == duty {
		// the fan already runs at the target
		return NoChange
	}
	return Decision(target)
}

// LadderTarget returns the duty the ladder switches to for the given temperature
// and observed duty, before any ramp limiting.
func (c *Controller) LadderTarget(temp int, observedDuty int) (int, bool) {
	duty := IdentifyDuty(observedDuty, c.rungs, c.tolerance)
	return c.ladder.Evaluate(temp, duty)
}

// rampLimit halves large upward steps, so the fan approaches
// the target over multiple evaluations.
func rampLimit(target int, duty int, lastApplied int) int {
	if target <= lastApplied {
		return target
	}
	adjusted := duty + (target-lastApplied)/2
	if target-adjusted > maxRampJump {
		ui.Debug("Using adjusted duty %d%% instead of %d%%", adjusted, target)
		return adjusted
	}
	return target
}
