package score

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrMalformedSong is returned when a song binary fails structural
// validation. It aborts that load only; the device keeps running.
var ErrMalformedSong = errors.New("malformed song")

const (
	// HeaderSize is the fixed byte length of the song file header.
	HeaderSize = 11
	// RecordSize is the byte length of one note span record.
	RecordSize = 7
)

// Span is one flat note record as stored on disk and on the wire: a note
// held from Start to End. The event store splits it into an on/off pair.
type Span struct {
	Start     uint16
	End       uint16
	Channel   uint8
	Note      uint8
	Intensity uint8
}

// Events returns the on/off event pair for the span.
func (sp Span) Events() (on, off Event) {
	on = Event{Tick: uint32(sp.Start), Channel: sp.Channel, Note: sp.Note, Intensity: sp.Intensity}
	off = Event{Tick: uint32(sp.End), Channel: sp.Channel, Note: sp.Note, Intensity: 0}
	return on, off
}

// EncodeHeader renders the 11-byte big-endian header.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint16(buf[0:2], h.TicksPerBeat)
	binary.BigEndian.PutUint32(buf[2:6], h.MaxTicks)
	binary.BigEndian.PutUint16(buf[6:8], h.Tempo)
	buf[8] = h.Numerator
	buf[9] = h.Denominator
	buf[10] = h.Instruments
	return buf
}

// DecodeHeader parses an 11-byte header.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, errors.Wrapf(ErrMalformedSong, "header is %v bytes, need %v", len(data), HeaderSize)
	}
	var h Header
	h.TicksPerBeat = binary.BigEndian.Uint16(data[0:2])
	h.MaxTicks = binary.BigEndian.Uint32(data[2:6])
	h.Tempo = binary.BigEndian.Uint16(data[6:8])
	h.Numerator = data[8]
	h.Denominator = data[9]
	h.Instruments = data[10]
	return h, nil
}

// EncodeSpan renders one 7-byte record.
func EncodeSpan(sp Span) []byte {
	buf := make([]byte, RecordSize)
	binary.BigEndian.PutUint16(buf[0:2], sp.Start)
	binary.BigEndian.PutUint16(buf[2:4], sp.End)
	buf[4] = sp.Channel
	buf[5] = sp.Note
	buf[6] = sp.Intensity
	return buf
}

// DecodeSpan parses one 7-byte record.
func DecodeSpan(data []byte) (Span, error) {
	if len(data) < RecordSize {
		return Span{}, errors.Wrapf(ErrMalformedSong, "record is %v bytes, need %v", len(data), RecordSize)
	}
	var sp Span
	sp.Start = binary.BigEndian.Uint16(data[0:2])
	sp.End = binary.BigEndian.Uint16(data[2:4])
	sp.Channel = data[4]
	sp.Note = data[5]
	sp.Intensity = data[6]
	return sp, nil
}

// Encode renders a complete song binary. Spans must already be sorted by
// start tick; the conversion tooling guarantees that.
func Encode(h Header, spans []Span) []byte {
	buf := make([]byte, 0, HeaderSize+len(spans)*RecordSize)
	buf = append(buf, EncodeHeader(h)...)
	for _, sp := range spans {
		buf = append(buf, EncodeSpan(sp)...)
	}
	return buf
}

// Decode parses a complete song binary back into header and spans.
func Decode(data []byte) (Header, []Span, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return Header{}, nil, err
	}
	body := data[HeaderSize:]
	if len(body)%RecordSize != 0 {
		return Header{}, nil, errors.Wrapf(ErrMalformedSong, "body is %v bytes, not a multiple of %v", len(body), RecordSize)
	}
	spans := make([]Span, 0, len(body)/RecordSize)
	for i := 0; i < len(body); i += RecordSize {
		sp, err := DecodeSpan(body[i : i+RecordSize])
		if err != nil {
			return Header{}, nil, err
		}
		spans = append(spans, sp)
	}
	return h, spans, nil
}
