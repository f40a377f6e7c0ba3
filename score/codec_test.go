package score

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestSongRoundTrip(t *testing.T) {
	h := Header{TicksPerBeat: 480, MaxTicks: 1920, Tempo: 120, Numerator: 3, Denominator: 4, Instruments: 2}
	spans := []Span{
		{Start: 0, End: 480, Channel: 0, Note: 60, Intensity: 100},
		{Start: 240, End: 720, Channel: 1, Note: 64, Intensity: 90},
		{Start: 960, End: 1920, Channel: 0, Note: 67, Intensity: 127},
	}

	raw := Encode(h, spans)
	assert.Equal(t, HeaderSize+len(spans)*RecordSize, len(raw))

	gotH, gotSpans, err := Decode(raw)
	assert.Nil(t, err)
	assert.Equal(t, h, gotH)
	assert.Equal(t, spans, gotSpans)
}

func TestDecodeSingleSpan(t *testing.T) {
	h := Header{TicksPerBeat: 480, MaxTicks: 960, Tempo: 120, Numerator: 4, Denominator: 4, Instruments: 1}
	raw := Encode(h, []Span{{Start: 0, End: 480, Channel: 0, Note: 60, Intensity: 100}})

	gotH, spans, err := Decode(raw)
	assert.Nil(t, err)
	assert.Equal(t, h, gotH)
	assert.Equal(t, 1, len(spans))

	on, off := spans[0].Events()
	assert.Equal(t, Event{Tick: 0, Channel: 0, Note: 60, Intensity: 100}, on)
	assert.Equal(t, Event{Tick: 480, Channel: 0, Note: 60, Intensity: 0}, off)

	m := Derive(gotH)
	assert.InDelta(t, 0.0010417, m.TickToTime, 1e-6)
	assert.InDelta(t, 1.0, m.SongLength, 1e-6)
}

func TestDecodeRejectsShortHeader(t *testing.T) {
	_, _, err := Decode(make([]byte, HeaderSize-1))
	assert.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrMalformedSong))
}

func TestDecodeRejectsRaggedBody(t *testing.T) {
	raw := Encode(DefaultHeader(), []Span{{Start: 0, End: 480, Note: 60, Intensity: 100}})
	_, _, err := Decode(raw[:len(raw)-3])
	assert.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrMalformedSong))
}

func TestDeriveTicksPerPixel(t *testing.T) {
	m := Derive(Header{TicksPerBeat: 480, MaxTicks: 1920, Tempo: 160, Numerator: 4, Denominator: 4, Instruments: 1})
	assert.Equal(t, 120.0, m.TicksPerPixel)
	assert.Equal(t, 16, m.MaxPixels)
	assert.InDelta(t, m.TickToTime*m.TimeToTick, 1, 1e-12)
}
