package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplaceSplitsSpansIntoEventPairs(t *testing.T) {
	h := Header{TicksPerBeat: 480, MaxTicks: 960, Tempo: 120, Numerator: 4, Denominator: 4, Instruments: 1}
	raw := Encode(h, []Span{{Start: 0, End: 480, Channel: 0, Note: 60, Intensity: 100}})

	var s Song
	assert.Nil(t, s.Replace(raw))
	assert.Equal(t, 2, s.EventCount())

	on, _ := s.GetEvent(0)
	off, _ := s.GetEvent(1)
	assert.Equal(t, Event{Tick: 0, Channel: 0, Note: 60, Intensity: 100}, on)
	assert.Equal(t, Event{Tick: 480, Channel: 0, Note: 60, Intensity: 0}, off)
}

func TestReplaceKeepsOldSongOnDecodeError(t *testing.T) {
	var s Song
	raw := Encode(DefaultHeader(), []Span{{Start: 0, End: 480, Note: 60, Intensity: 100}})
	assert.Nil(t, s.Replace(raw))

	err := s.Replace(raw[:len(raw)-2])
	assert.NotNil(t, err)
	assert.Equal(t, 2, s.EventCount())
}

func TestBytesRoundTripsThroughEventStore(t *testing.T) {
	h := Header{TicksPerBeat: 480, MaxTicks: 1920, Tempo: 120, Numerator: 4, Denominator: 4, Instruments: 2}
	spans := []Span{
		{Start: 0, End: 480, Channel: 0, Note: 60, Intensity: 100},
		{Start: 0, End: 960, Channel: 1, Note: 48, Intensity: 80},
		{Start: 480, End: 1920, Channel: 0, Note: 64, Intensity: 110},
	}

	var s Song
	assert.Nil(t, s.Replace(Encode(h, spans)))

	_, got, err := Decode(s.Bytes())
	assert.Nil(t, err)
	assert.ElementsMatch(t, spans, got)
}

func TestAddSpanGrowsMaxTicks(t *testing.T) {
	var s Song
	assert.Nil(t, s.Replace(Encode(Header{TicksPerBeat: 480, MaxTicks: 480, Tempo: 120, Numerator: 4, Denominator: 4, Instruments: 1}, nil)))

	s.AddSpan(Span{Start: 480, End: 1440, Note: 62, Intensity: 90})
	assert.Equal(t, uint32(1440), s.Metadata().MaxTicks)
}

func TestLocalSongForcesOwnChannel(t *testing.T) {
	l := NewLocalSong(3)
	l.AddSpan(Span{Start: 0, End: 480, Channel: 7, Note: 60, Intensity: 100})

	on, ok := l.GetEvent(0)
	assert.True(t, ok)
	assert.Equal(t, uint8(3), on.Channel)
}

func TestLocalSongClearKeepsChannel(t *testing.T) {
	l := NewLocalSong(2)
	l.AddSpan(Span{Start: 0, End: 480, Note: 60, Intensity: 100})
	l.Clear()
	assert.Equal(t, 0, l.EventCount())
	assert.Equal(t, uint8(2), l.Channel)
	assert.Equal(t, uint32(0), l.Metadata().MaxTicks)
}

func TestPatternRollIndexesNoteOnsByPixel(t *testing.T) {
	l := NewLocalSong(0)
	l.UpdateHeader(Header{TicksPerBeat: 480, MaxTicks: 960, Tempo: 120, Numerator: 4, Denominator: 4, Instruments: 1})
	// ticks_per_pixel = 120
	l.AddSpan(Span{Start: 0, End: 480, Note: 60, Intensity: 100})
	l.AddSpan(Span{Start: 0, End: 480, Note: 64, Intensity: 100})
	l.AddSpan(Span{Start: 240, End: 480, Note: 62, Intensity: 100})

	roll := l.PatternRoll()
	assert.Equal(t, 8, len(roll))
	assert.ElementsMatch(t, []uint8{60, 64}, roll[0])
	assert.Equal(t, []uint8{62}, roll[2])
	assert.Empty(t, roll[1])
}

func TestRemoveNoteAtDropsOnOffPair(t *testing.T) {
	l := NewLocalSong(0)
	l.UpdateHeader(Header{TicksPerBeat: 480, MaxTicks: 960, Tempo: 120, Numerator: 4, Denominator: 4, Instruments: 1})
	l.AddSpan(Span{Start: 0, End: 480, Note: 60, Intensity: 100})
	l.AddSpan(Span{Start: 0, End: 480, Note: 64, Intensity: 100})

	l.RemoveNoteAt(0, 60)
	assert.Equal(t, 2, l.EventCount())
	for i := 0; i < l.EventCount(); i++ {
		e, _ := l.GetEvent(i)
		assert.Equal(t, uint8(64), e.Note)
	}
}
