package render

import (
	"testing"
	"time"

	"github.com/bep/debounce"
	"github.com/stretchr/testify/assert"
	"gitlab.com/gomidi/midi/v2"
)

func TestNoteMapsIntensityToOnOff(t *testing.T) {
	var sent []midi.Message
	r := &MIDIRenderer{
		send: func(msg midi.Message) error {
			sent = append(sent, msg)
			return nil
		},
	}

	assert.Nil(t, r.Note(2, 60, 100))
	assert.Nil(t, r.Note(2, 60, 0))

	assert.Equal(t, 2, len(sent))
	var ch, key, vel uint8
	assert.True(t, sent[0].GetNoteStart(&ch, &key, &vel))
	assert.Equal(t, uint8(2), ch)
	assert.Equal(t, uint8(60), key)
	assert.Equal(t, uint8(100), vel)
	assert.True(t, sent[1].GetNoteEnd(&ch, &key))
	assert.Equal(t, uint8(60), key)
}

func TestCursorReportsLatestPosition(t *testing.T) {
	var got []int
	r := &MIDIRenderer{
		onCursor: func(position int) { got = append(got, position) },
		// run callbacks inline so the test stays synchronous
		debounce: func(f func()) { f() },
	}

	assert.Nil(t, r.Cursor(3))
	assert.Nil(t, r.Cursor(4))
	assert.Equal(t, []int{3, 4}, got)
}

func TestCursorDebouncesBursts(t *testing.T) {
	got := make(chan int, 8)
	r := &MIDIRenderer{
		onCursor: func(position int) { got <- position },
		debounce: debounce.New(10 * time.Millisecond),
	}

	// a burst of scheduler passes collapses to one callback carrying the
	// last position
	for pos := 0; pos < 5; pos++ {
		assert.Nil(t, r.Cursor(pos))
	}

	select {
	case pos := <-got:
		assert.Equal(t, 4, pos)
	case <-time.After(time.Second):
		t.Fatal("debounced cursor callback never ran")
	}
	select {
	case pos := <-got:
		t.Fatalf("unexpected extra callback with position %v", pos)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCursorWithoutConsumerIsSafe(t *testing.T) {
	r := &MIDIRenderer{debounce: debounce.New(time.Millisecond)}
	assert.Nil(t, r.Cursor(7))
}
