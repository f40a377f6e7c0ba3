package player

import (
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/tactuslabs/tactus/render"
	"github.com/tactuslabs/tactus/score"
	"github.com/tactuslabs/tactus/wire"
)

// Follower is a satellite's scheduler: it replicates its own channel from
// inbound packets and plays it against a drift-corrected local clock.
//
// Owned by the device loop; no method is safe for concurrent use.
type Follower struct {
	local *score.LocalSong
	out   render.Renderer
	clock Clock
	log   *slog.Logger

	state     State
	cursor    int
	startTime time.Time
	tickDelta int
	muted     bool
	active    map[uint8]bool
	lastPixel int

	scaleStart     uint8
	scaleIntervals []uint8
}

// NewFollower creates a satellite scheduler for the given channel.
func NewFollower(channel uint8, out render.Renderer, clock Clock, log *slog.Logger) *Follower {
	if clock == nil {
		clock = SystemClock
	}
	if log == nil {
		log = slog.Default()
	}
	return &Follower{
		local:  score.NewLocalSong(channel),
		out:    out,
		clock:  clock,
		log:    log,
		state:  StateClear,
		active: make(map[uint8]bool),
	}
}

// State returns the current playback state.
func (f *Follower) State() State { return f.state }

// Cursor returns the index of the next event to fire.
func (f *Follower) Cursor() int { return f.cursor }

// TickDelta returns the current drift correction in ticks.
func (f *Follower) TickDelta() int { return f.tickDelta }

// Muted reports whether local rendering is suppressed.
func (f *Follower) Muted() bool { return f.muted }

// Song exposes the replica for display collaborators.
func (f *Follower) Song() *score.LocalSong { return f.local }

// Scale returns the last received transpose hint.
func (f *Follower) Scale() (start uint8, intervals []uint8) {
	return f.scaleStart, f.scaleIntervals
}

// HandlePacket applies one inbound packet to the replica and the state
// machine. Packets for other channels are filtered here.
func (f *Follower) HandlePacket(pkt wire.Packet) {
	switch t := pkt.(type) {
	case wire.Event:
		if t.Span.Channel == f.local.Channel {
			f.local.AddSpan(t.Span)
		}

	case wire.Header:
		f.local.UpdateHeader(t.Header)
		f.state = StatePaused

	case wire.Begin:
		f.anchor()
		f.state = StatePlaying
		f.log.Info("playing")

	case wire.Stop:
		f.state = StatePaused
		f.flushActive()
		f.log.Info("paused")

	case wire.Tick:
		f.correctDrift(int(t.Tick))

	case wire.Mute:
		if t.Channel == f.local.Channel || t.Channel == wire.Broadcast {
			f.setMuted(t.Muted)
		}

	case wire.Live:
		if t.Channel == f.local.Channel && !f.muted {
			f.renderNote(t.Note, t.Intensity)
		}

	case wire.Update:
		// display refresh request: re-report the cursor
		if err := f.out.Cursor(f.lastPixel); err != nil {
			f.log.Warn("cursor render failed", "err", err)
		}

	case wire.Reset:
		f.cursor = 0
		f.tickDelta = 0
		f.lastPixel = 0
		f.anchor()
		if f.state != StateClear {
			f.state = StatePaused
		}
		f.log.Info("reset")

	case wire.Clear:
		if t.Channel == f.local.Channel || t.Channel == wire.Broadcast {
			f.local.Clear()
			f.cursor = 0
			f.tickDelta = 0
			f.lastPixel = 0
			f.flushActive()
			f.state = StateClear
			f.log.Info("receiving")
		}

	case wire.Scale:
		f.scaleStart = t.Start
		f.scaleIntervals = t.Intervals
	}
}

// Update runs one scheduler pass, firing every due event for this channel
// exactly once, in tick order. End of song is no state change: the
// conductor stops and resets the ensemble.
func (f *Follower) Update() (err error) {
	defer func() {
		if r := recover(); r != nil {
			f.state = StatePaused
			err = errors.Errorf("render failed, playback paused: %v", r)
		}
	}()

	if f.state != StatePlaying {
		return nil
	}
	if f.cursor < 0 {
		f.cursor = 0
	}

	meta := f.local.Metadata()
	for {
		event, ok := f.local.GetEvent(f.cursor)
		if !ok {
			return nil
		}
		if f.clock.Now().Before(dueAt(f.startTime, event.Tick, f.tickDelta, meta.TickToTime)) {
			break
		}

		if event.NoteOn() {
			// mute suppresses note-ons only; offs always go out so
			// nothing sticks
			if !f.muted {
				f.renderNote(event.Note, event.Intensity)
			}
			f.active[event.Note] = true
		} else {
			f.renderNote(event.Note, 0)
			delete(f.active, event.Note)
		}
		f.cursor++
	}

	f.renderCursor(meta)
	return nil
}

// correctDrift aligns the local tick estimate with the conductor's
// broadcast position. Advisory: it nudges future scheduling, it never
// rewinds the cursor.
func (f *Follower) correctDrift(conductorTick int) {
	if f.state != StatePlaying {
		return
	}
	local := ticksAt(f.clock.Now(), f.startTime, f.local.Metadata().TimeToTick)
	f.tickDelta = conductorTick - local
	f.log.Debug("drift corrected", "conductor", conductorTick, "local", local, "delta", f.tickDelta)
}

func (f *Follower) anchor() {
	var tick uint32
	if e, ok := f.local.GetEvent(f.cursor); ok {
		tick = e.Tick
	}
	f.startTime = anchorFor(f.clock.Now(), tick, f.local.Metadata().TickToTime)
}

func (f *Follower) setMuted(muted bool) {
	f.muted = muted
	if muted {
		f.flushActive()
		f.log.Info("muted")
	} else {
		f.log.Info("unmuted")
	}
}

func (f *Follower) renderCursor(meta score.Metadata) {
	if meta.TicksPerPixel <= 0 {
		return
	}
	ticks := float64(ticksAt(f.clock.Now(), f.startTime, meta.TimeToTick) + f.tickDelta)
	pixel := int(ticks / meta.TicksPerPixel)
	if pixel > f.lastPixel {
		f.lastPixel = pixel
		if err := f.out.Cursor(pixel); err != nil {
			f.log.Warn("cursor render failed", "err", err)
		}
	}
}

func (f *Follower) renderNote(note, intensity uint8) {
	if err := f.out.Note(f.local.Channel, note, intensity); err != nil {
		f.log.Warn("note render failed", "note", note, "err", err)
	}
}

func (f *Follower) flushActive() {
	for note := range f.active {
		f.renderNote(note, 0)
	}
	f.active = make(map[uint8]bool)
}
