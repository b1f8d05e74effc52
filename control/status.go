package control

import "fmt"

// Status is the phase of a path following episode.
type Status int

const (
	// StatusIdle is the state after construction or Reset; both search indices are 0.
	StatusIdle Status = iota
	// StatusTracking means commands are being produced and indices are advancing.
	StatusTracking
	// StatusFinished means the lookahead search ran off the end of the path or the final
	// waypoint became the closest one. Only Reset leaves this state.
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusTracking:
		return "tracking"
	case StatusFinished:
		return "finished"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Command is the outcome of one control cycle. Left and Right are only meaningful while
// Status is StatusTracking; a finished command carries zero speeds and the caller must
// halt the drive instead of forwarding them.
type Command struct {
	Status    Status
	Left      float64
	Right     float64
	Speed     float64
	Curvature float64
}

// Finished reports whether this command ends the episode.
func (c Command) Finished() bool {
	return c.Status == StatusFinished
}

func (c Command) String() string {
	if c.Finished() {
		return "finished"
	}
	return fmt.Sprintf("left: %.3f right: %.3f (v: %.3f, κ: %.4f)", c.Left, c.Right, c.Speed, c.Curvature)
}
