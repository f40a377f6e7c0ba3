package player

import "time"

// State is the playback state machine shared by conductor and satellites.
type State int

const (
	// StateClear means no valid song or position is known.
	StateClear State = iota
	// StatePaused means a song is loaded and the cursor is parked.
	StatePaused
	// StatePlaying means the scheduler is firing events.
	StatePlaying
	// StateReset is the transient marker for "cursor returned to origin".
	StateReset
)

func (s State) String() string {
	switch s {
	case StateClear:
		return "clear"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	case StateReset:
		return "reset"
	}
	return "unknown"
}

// Clock abstracts wall time so scheduling is testable with synthetic
// timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the real wall clock.
var SystemClock Clock = systemClock{}

// ticksAt converts elapsed wall time since start into a tick estimate.
func ticksAt(now, start time.Time, timeToTick float64) int {
	return int(timeToTick * now.Sub(start).Seconds())
}

// dueAt computes the wall time an event becomes due: the anchor plus the
// drift-corrected tick scaled to seconds.
func dueAt(start time.Time, tick uint32, tickDelta int, tickToTime float64) time.Time {
	corrected := float64(int(tick) - tickDelta)
	return start.Add(time.Duration(corrected * tickToTime * float64(time.Second)))
}

// anchorFor places the clock anchor so that the event at the cursor lands
// exactly on its tick.
func anchorFor(now time.Time, tick uint32, tickToTime float64) time.Time {
	return now.Add(-time.Duration(float64(tick) * tickToTime * float64(time.Second)))
}
