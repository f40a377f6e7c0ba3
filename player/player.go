package player

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/tactuslabs/tactus/render"
	"github.com/tactuslabs/tactus/score"
	"github.com/tactuslabs/tactus/wire"
)

type noteKey struct {
	channel uint8
	note    uint8
}

// Player is the conductor's scheduler: it plays the authoritative song
// locally and drives the ensemble, broadcasting transport control and a
// tick packet per note-on so satellites stay converged.
//
// Owned by the device loop; no method is safe for concurrent use.
type Player struct {
	song  *score.Song
	out   render.Renderer
	net   *wire.Handler
	clock Clock
	log   *slog.Logger

	state     State
	cursor    int
	startTime time.Time
	active    map[noteKey]bool
	muted     map[uint8]bool
	lastPixel int
}

// New creates a conductor player around a loaded song. net may be nil for
// standalone (no radio) playback.
func New(song *score.Song, out render.Renderer, net *wire.Handler, clock Clock, log *slog.Logger) *Player {
	if clock == nil {
		clock = SystemClock
	}
	if log == nil {
		log = slog.Default()
	}
	return &Player{
		song:   song,
		out:    out,
		net:    net,
		clock:  clock,
		log:    log,
		state:  StatePaused,
		active: make(map[noteKey]bool),
		muted:  make(map[uint8]bool),
	}
}

// State returns the current playback state.
func (p *Player) State() State { return p.state }

// Cursor returns the index of the next event to fire.
func (p *Player) Cursor() int { return p.cursor }

// CurrentTick estimates the conductor's position on the song timeline.
func (p *Player) CurrentTick() int {
	if p.state != StatePlaying {
		if e, ok := p.song.GetEvent(p.cursor); ok {
			return int(e.Tick)
		}
		return 0
	}
	return ticksAt(p.clock.Now(), p.startTime, p.song.Metadata().TimeToTick)
}

// Play anchors the clock so the pending event lands on its tick and
// broadcasts begin.
func (p *Player) Play() {
	if p.state != StatePaused {
		return
	}
	var tick uint32
	if e, ok := p.song.GetEvent(p.cursor); ok {
		tick = e.Tick
	}
	p.startTime = anchorFor(p.clock.Now(), tick, p.song.Metadata().TickToTime)
	p.state = StatePlaying
	p.broadcast(wire.Begin{})
}

// Pause stops the scheduler and releases anything still sounding so no
// note hangs across the pause.
func (p *Player) Pause() {
	if p.state != StatePlaying {
		return
	}
	p.state = StatePaused
	p.broadcast(wire.Stop{})
	p.flushActive()
}

// Reset returns the cursor to the origin and re-anchors the clock.
func (p *Player) Reset() {
	p.cursor = 0
	p.lastPixel = 0
	p.startTime = p.clock.Now()
	p.broadcast(wire.Reset{})
}

// ToggleMute flips a channel's mute state, broadcasts it, and releases
// the channel's sounding notes when muting. Mute never touches the
// cursor.
func (p *Player) ToggleMute(channel uint8) bool {
	muted := !p.muted[channel]
	p.muted[channel] = muted
	p.broadcast(wire.Mute{Channel: channel, Muted: muted})
	if muted {
		for key := range p.active {
			if key.channel == channel {
				p.renderNote(key.channel, key.note, 0)
				delete(p.active, key)
			}
		}
	}
	return muted
}

// Muted reports a channel's mute state.
func (p *Player) Muted(channel uint8) bool { return p.muted[channel] }

// Update runs one scheduler pass: fire every due event in tick order,
// exactly once each. A panicking renderer is caught here, logged, and
// playback paused; one bad render call must not take the ensemble down.
func (p *Player) Update() (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.state = StatePaused
			err = errors.Errorf("render failed, playback paused: %v", r)
		}
	}()

	if p.state != StatePlaying {
		return nil
	}
	if p.cursor < 0 {
		// inconsistent cursor: clamp, don't crash
		p.cursor = 0
	}

	meta := p.song.Metadata()
	for {
		event, ok := p.song.GetEvent(p.cursor)
		if !ok {
			p.finish()
			return nil
		}
		now := p.clock.Now()
		if now.Before(dueAt(p.startTime, event.Tick, 0, meta.TickToTime)) {
			break
		}

		p.fire(event)
		p.cursor++
	}

	p.renderCursor(meta)
	return nil
}

// fire dispatches one due event: local render (unless the channel is
// muted), active-note bookkeeping, and the tick broadcast on note-ons.
func (p *Player) fire(event score.Event) {
	key := noteKey{channel: event.Channel, note: event.Note}
	if event.NoteOn() {
		if !p.muted[event.Channel] {
			p.renderNote(event.Channel, event.Note, event.Intensity)
		}
		p.active[key] = true
		p.broadcastOnce(wire.Tick{Tick: uint16(event.Tick)})
	} else {
		p.renderNote(event.Channel, event.Note, 0)
		delete(p.active, key)
	}
}

// finish handles end of song: pause everyone, silence everything, rewind.
func (p *Player) finish() {
	p.log.Info("end of song")
	p.state = StatePaused
	p.flushActive()
	p.cursor = 0
	p.lastPixel = 0
	p.broadcast(wire.Stop{})
	if err := p.out.Cursor(0); err != nil {
		p.log.Warn("cursor render failed", "err", err)
	}
}

// HandlePacket services the conductor's inbound traffic: live notes from
// keyboards and pair requests from satellites joining the ensemble.
func (p *Player) HandlePacket(pkt wire.Packet) error {
	switch t := pkt.(type) {
	case wire.Live:
		p.renderNote(t.Channel, t.Note, t.Intensity)
	case wire.Pair:
		return p.distributeTo(t.Channel)
	case wire.Update:
		// late joiner wants metadata again
		if p.net != nil {
			return p.net.Send(wire.Header{Header: p.song.Metadata().Header}, wire.Broadcast, wire.ControlRetransmit)
		}
	}
	return nil
}

// distributeTo streams the current song to a satellite that asked for it.
func (p *Player) distributeTo(channel uint8) error {
	if p.net == nil {
		return nil
	}
	p.log.Info("distributing song", "channel", channel, "path", p.song.Path)
	return p.net.DistributeSong(p.song.Bytes(), channel)
}

func (p *Player) renderCursor(meta score.Metadata) {
	if meta.TicksPerPixel <= 0 {
		return
	}
	pixel := int(float64(ticksAt(p.clock.Now(), p.startTime, meta.TimeToTick)) / meta.TicksPerPixel)
	if pixel > p.lastPixel {
		p.lastPixel = pixel
		if err := p.out.Cursor(pixel); err != nil {
			p.log.Warn("cursor render failed", "err", err)
		}
	}
}

func (p *Player) renderNote(channel, note, intensity uint8) {
	if err := p.out.Note(channel, note, intensity); err != nil {
		p.log.Warn("note render failed", "channel", channel, "note", note, "err", err)
	}
}

func (p *Player) flushActive() {
	for key := range p.active {
		p.renderNote(key.channel, key.note, 0)
	}
	p.active = make(map[noteKey]bool)
}

func (p *Player) broadcast(pkt wire.Packet) {
	if p.net == nil {
		return
	}
	if err := p.net.Send(pkt, wire.Broadcast, wire.ControlRetransmit); err != nil {
		p.log.Warn(fmt.Sprintf("broadcast %q failed", pkt.Type()), "err", err)
	}
}

// broadcastOnce sends without retransmission; tick packets are frequent
// and advisory, losing one is fine.
func (p *Player) broadcastOnce(pkt wire.Packet) {
	if p.net == nil {
		return
	}
	if err := p.net.Send(pkt, wire.Broadcast, wire.DefaultRetransmit); err != nil {
		p.log.Warn(fmt.Sprintf("broadcast %q failed", pkt.Type()), "err", err)
	}
}
