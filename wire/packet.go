package wire

import (
	"encoding/binary"

	"github.com/tactuslabs/tactus/score"
)

// Broadcast is the channel sentinel addressing every device.
const Broadcast uint8 = 255

// Packet type bytes. Every packet on the air starts with one of these.
const (
	TypeEvent  = 'e'
	TypeLive   = 'l'
	TypePair   = 'p'
	TypeTick   = 't'
	TypeBegin  = 'b'
	TypeStop   = 's'
	TypeHeader = 'h'
	TypeMute   = 'm'
	TypeUpdate = 'u'
	TypeReset  = 'r'
	TypeClear  = 'c'
	TypeScale  = 'n'
	TypeAck    = 'a'
)

// Packet is the decoded form of one radio message. Concrete types below,
// one per type byte, so receive paths can switch exhaustively instead of
// comparing tag strings.
type Packet interface {
	Type() byte
	Encode() []byte
}

// Event carries one note span of the song being distributed.
type Event struct {
	Span score.Span
}

func (Event) Type() byte { return TypeEvent }

func (p Event) Encode() []byte {
	return append([]byte{TypeEvent}, score.EncodeSpan(p.Span)...)
}

// Live is an immediate, unscheduled note (the keyboard backchannel).
type Live struct {
	Channel   uint8
	Note      uint8
	Intensity uint8
}

func (Live) Type() byte { return TypeLive }

func (p Live) Encode() []byte {
	return []byte{TypeLive, p.Channel, p.Note, p.Intensity}
}

// Pair announces a satellite's presence and requests the song for its
// channel.
type Pair struct {
	Channel uint8
}

func (Pair) Type() byte { return TypePair }

func (p Pair) Encode() []byte { return []byte{TypePair, p.Channel} }

// Tick is the conductor's current playback position, broadcast on every
// note-on so satellites can correct clock drift.
type Tick struct {
	Tick uint16
}

func (Tick) Type() byte { return TypeTick }

func (p Tick) Encode() []byte {
	buf := []byte{TypeTick, 0, 0}
	binary.BigEndian.PutUint16(buf[1:], p.Tick)
	return buf
}

// Begin starts playback.
type Begin struct{}

func (Begin) Type() byte     { return TypeBegin }
func (Begin) Encode() []byte { return []byte{TypeBegin} }

// Stop pauses playback.
type Stop struct{}

func (Stop) Type() byte     { return TypeStop }
func (Stop) Encode() []byte { return []byte{TypeStop} }

// Header carries the song metadata during distribution.
type Header struct {
	Header score.Header
}

func (Header) Type() byte { return TypeHeader }

func (p Header) Encode() []byte {
	return append([]byte{TypeHeader}, score.EncodeHeader(p.Header)...)
}

// Mute toggles a channel's local rendering. Intensity is a boolean.
type Mute struct {
	Channel uint8
	Muted   bool
}

func (Mute) Type() byte { return TypeMute }

func (p Mute) Encode() []byte {
	b := byte(0)
	if p.Muted {
		b = 1
	}
	return []byte{TypeMute, p.Channel, b}
}

// Update requests a display refresh.
type Update struct{}

func (Update) Type() byte     { return TypeUpdate }
func (Update) Encode() []byte { return []byte{TypeUpdate} }

// Reset returns the playback cursor to the origin.
type Reset struct{}

func (Reset) Type() byte     { return TypeReset }
func (Reset) Encode() []byte { return []byte{TypeReset} }

// Clear empties a channel's replica. Channel 255 clears everyone.
type Clear struct {
	Channel uint8
}

func (Clear) Type() byte { return TypeClear }

func (p Clear) Encode() []byte { return []byte{TypeClear, p.Channel} }

// Scale is a transpose hint for derivative instruments: a scale root and
// up to seven intervals.
type Scale struct {
	Start     uint8
	Intervals []uint8
}

func (Scale) Type() byte { return TypeScale }

func (p Scale) Encode() []byte {
	iv := p.Intervals
	if len(iv) > 7 {
		iv = iv[:7]
	}
	buf := []byte{TypeScale, 0, p.Start}
	return append(buf, iv...)
}

// Ack confirms receipt of a confirmed send. No payload.
type Ack struct{}

func (Ack) Type() byte     { return TypeAck }
func (Ack) Encode() []byte { return []byte{TypeAck} }

// Decode turns raw bytes into a typed packet. Unknown type bytes and
// truncated payloads decode to nil: malformed radio traffic is dropped,
// never fatal.
func Decode(raw []byte) Packet {
	if len(raw) == 0 {
		return nil
	}
	payload := raw[1:]
	switch raw[0] {
	case TypeEvent:
		sp, err := score.DecodeSpan(payload)
		if err != nil {
			return nil
		}
		return Event{Span: sp}
	case TypeLive:
		if len(payload) < 3 {
			return nil
		}
		return Live{Channel: payload[0], Note: payload[1], Intensity: payload[2]}
	case TypePair:
		if len(payload) < 1 {
			return nil
		}
		return Pair{Channel: payload[0]}
	case TypeTick:
		if len(payload) < 2 {
			return nil
		}
		return Tick{Tick: binary.BigEndian.Uint16(payload)}
	case TypeBegin:
		return Begin{}
	case TypeStop:
		return Stop{}
	case TypeHeader:
		h, err := score.DecodeHeader(payload)
		if err != nil {
			return nil
		}
		return Header{Header: h}
	case TypeMute:
		if len(payload) < 2 {
			return nil
		}
		return Mute{Channel: payload[0], Muted: payload[1] > 0}
	case TypeUpdate:
		return Update{}
	case TypeReset:
		return Reset{}
	case TypeClear:
		if len(payload) < 1 {
			return nil
		}
		return Clear{Channel: payload[0]}
	case TypeScale:
		if len(payload) < 2 {
			return nil
		}
		iv := payload[2:]
		if len(iv) > 7 {
			iv = iv[:7]
		}
		return Scale{Start: payload[1], Intervals: append([]uint8(nil), iv...)}
	case TypeAck:
		return Ack{}
	}
	return nil
}
