package wire

import (
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/tactuslabs/tactus/score"
)

// Timing knobs for the best-effort radio. Retransmitting control packets
// and pacing the song stream is how the protocol copes with a lossy
// broadcast medium.
const (
	// DefaultRetransmit is how many times a plain packet goes out.
	DefaultRetransmit = 1
	// ControlRetransmit is used for transport control (begin/stop/clear/
	// update/reset), which must not be missed.
	ControlRetransmit = 2
	// PacketDelay paces repeated and streamed sends so slow receivers
	// don't drop from buffer overrun.
	PacketDelay = 4 * time.Millisecond

	// AckAttempts and AckWindow bound the confirmed-send handshake.
	AckAttempts = 10
	AckWindow   = 500 * time.Millisecond
)

// Handler is the packet layer for one device: typed send/receive over a
// raw Transport plus the multi-phase song distribution used by the
// conductor. It is owned by the device loop and not safe for concurrent
// use.
type Handler struct {
	tr      Transport
	channel uint8
	log     *slog.Logger

	packetDelay time.Duration
	ackAttempts int
	ackWindow   time.Duration
}

// NewHandler wraps a transport for the device on the given channel.
func NewHandler(tr Transport, channel uint8, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		tr:          tr,
		channel:     channel,
		log:         log,
		packetDelay: PacketDelay,
		ackAttempts: AckAttempts,
		ackWindow:   AckWindow,
	}
}

// Channel returns the device's own channel id.
func (h *Handler) Channel() uint8 { return h.channel }

// Send emits p retransmit times with a small inter-send delay when
// repeating. A link error surfaces as ErrSendFailed.
func (h *Handler) Send(p Packet, target uint8, retransmit int) error {
	if retransmit < 1 {
		retransmit = DefaultRetransmit
	}
	raw := p.Encode()
	for i := 0; i < retransmit; i++ {
		if err := h.tr.Send(raw, target); err != nil {
			return errors.Wrapf(err, "sending %q packet", p.Type())
		}
		if retransmit > 1 {
			time.Sleep(h.packetDelay)
		}
	}
	return nil
}

// SendConfirmed sends p and listens for an ack, retrying up to
// AckAttempts with an AckWindow listen per attempt. A false return means
// the target never answered, which is an expected condition (the device
// may simply be off), not an error.
func (h *Handler) SendConfirmed(p Packet, target uint8) bool {
	raw := p.Encode()
	for attempt := 0; attempt < h.ackAttempts; attempt++ {
		if err := h.tr.Send(raw, target); err != nil {
			h.log.Warn("confirmed send failed", "type", string(p.Type()), "err", err)
			continue
		}
		deadline := time.Now().Add(h.ackWindow)
		for time.Now().Before(deadline) {
			in, err := h.tr.Receive()
			if err != nil || in == nil {
				time.Sleep(time.Millisecond)
				continue
			}
			if _, ok := Decode(in).(Ack); ok {
				return true
			}
		}
	}
	return false
}

// Ack answers a confirmed send.
func (h *Handler) Ack(target uint8) error {
	return h.Send(Ack{}, target, DefaultRetransmit)
}

// Read drains at most one inbound packet. Returns nil with no error when
// nothing is waiting or when the bytes don't decode: garbage on the air
// must never crash the receiver.
func (h *Handler) Read() (Packet, error) {
	raw, err := h.tr.Receive()
	if err != nil {
		return nil, errors.Wrap(err, "reading packet")
	}
	if raw == nil {
		return nil, nil
	}
	return Decode(raw), nil
}

// DistributeSong streams a complete song binary to the target channel
// (Broadcast for everyone): clear, header, one event packet per record
// for the target, then display-refresh and reset. Not transactional: a
// receiver that misses packets holds a partial song until the next full
// distribution.
func (h *Handler) DistributeSong(raw []byte, target uint8) error {
	hdr, spans, err := score.Decode(raw)
	if err != nil {
		return err
	}

	if err := h.Send(Clear{Channel: target}, target, ControlRetransmit); err != nil {
		return err
	}
	time.Sleep(h.packetDelay)

	if err := h.Send(Header{Header: hdr}, target, DefaultRetransmit); err != nil {
		return err
	}

	sent := 0
	for _, sp := range spans {
		if sp.Channel != target && target != Broadcast {
			continue
		}
		if err := h.Send(Event{Span: sp}, target, DefaultRetransmit); err != nil {
			return err
		}
		sent++
		// prevent packet loss on slow receivers
		time.Sleep(h.packetDelay)
	}
	h.log.Info("song distributed", "target", target, "events", sent)

	if err := h.Send(Update{}, target, ControlRetransmit); err != nil {
		return err
	}
	return h.Send(Reset{}, target, ControlRetransmit)
}

// SendPair announces this device and asks the conductor for its channel's
// song.
func (h *Handler) SendPair() error {
	return h.Send(Pair{Channel: h.channel}, Broadcast, DefaultRetransmit)
}

// SendScale broadcasts a transpose hint: scale root plus at most seven
// intervals.
func (h *Handler) SendScale(start uint8, intervals []uint8) error {
	return h.Send(Scale{Start: start, Intervals: intervals}, Broadcast, DefaultRetransmit)
}

// Close shuts the underlying transport.
func (h *Handler) Close() error {
	return h.tr.Close()
}
