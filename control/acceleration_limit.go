package control

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// AccelerationLimiter bounds how fast the per-side speeds of consecutive commands may
// change. The first command after construction or Reset is bounded relative to rest.
type AccelerationLimiter struct {
	maxAcc    float64
	lastLeft  float64
	lastRight float64
}

// NewAccelerationLimiter returns a limiter allowing side speeds to change by at most
// maxAcc per second.
func NewAccelerationLimiter(maxAcc float64) (*AccelerationLimiter, error) {
	if !(maxAcc > 0) || math.IsInf(maxAcc, 0) {
		return nil, errors.Errorf("max acceleration must be positive and finite, got %v", maxAcc)
	}
	return &AccelerationLimiter{maxAcc: maxAcc}, nil
}

// Limit returns cmd with Left and Right moved toward the previous command by no more than
// maxAcc*dt. Finished commands pass through and bring the limiter back to rest.
func (l *AccelerationLimiter) Limit(cmd Command, dt time.Duration) Command {
	if cmd.Finished() {
		l.Reset()
		return cmd
	}
	step := l.maxAcc * dt.Seconds()
	cmd.Left = slew(l.lastLeft, cmd.Left, step)
	cmd.Right = slew(l.lastRight, cmd.Right, step)
	l.lastLeft, l.lastRight = cmd.Left, cmd.Right
	return cmd
}

// Reset forgets the previous command.
func (l *AccelerationLimiter) Reset() {
	l.lastLeft, l.lastRight = 0, 0
}

func slew(last, target, step float64) float64 {
	velUp := last + step
	velDown := last - step
	switch {
	case target > velUp:
		return velUp
	case target < velDown:
		return velDown
	default:
		return target
	}
}
