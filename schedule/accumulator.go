package schedule

import "time"

// Accumulator turns elapsed wall-clock time into whole fixed steps.
type Accumulator struct {
	Step     time.Duration
	MaxSteps int // 0 means unbounded

	acc time.Duration
}

// NewAccumulator creates an accumulator for the given step.
func NewAccumulator(step time.Duration, maxSteps int) *Accumulator {
	return &Accumulator{Step: step, MaxSteps: maxSteps}
}

// Add records elapsed time and returns how many steps are due. When more
// than MaxSteps are owed the surplus time is dropped.
func (a *Accumulator) Add(elapsed time.Duration) int {
	if a.Step <= 0 {
		return 0
	}
	a.acc += elapsed
	n := int(a.acc / a.Step)
	a.acc -= time.Duration(n) * a.Step
	if a.MaxSteps > 0 && n > a.MaxSteps {
		n = a.MaxSteps
		a.acc = 0
	}
	return n
}

// Alpha returns how far the remaining time is into the next step, in [0, 1).
func (a *Accumulator) Alpha() float64 {
	if a.Step <= 0 {
		return 0
	}
	return float64(a.acc) / float64(a.Step)
}
