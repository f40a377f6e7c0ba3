package render

import (
	"time"

	"github.com/bep/debounce"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

// MIDIRenderer renders note events to a local MIDI output port. Cursor
// updates are debounced: the scheduler reports positions every pass, but
// downstream display surfaces only want the latest one.
type MIDIRenderer struct {
	send     func(midi.Message) error
	onCursor func(position int)
	debounce func(func())
	last     int
}

// NewMIDIRenderer opens MIDI output port portNum. onCursor may be nil.
func NewMIDIRenderer(portNum int, onCursor func(position int)) (*MIDIRenderer, error) {
	out, err := midi.OutPort(portNum)
	if err != nil {
		return nil, errors.Wrapf(err, "opening MIDI out port %v", portNum)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, errors.Wrap(err, "attaching MIDI sender")
	}
	return &MIDIRenderer{
		send:     send,
		onCursor: onCursor,
		debounce: debounce.New(30 * time.Millisecond),
	}, nil
}

func (r *MIDIRenderer) Note(channel, note, intensity uint8) error {
	var msg midi.Message
	if intensity > 0 {
		msg = midi.NoteOn(channel, note, intensity)
	} else {
		msg = midi.NoteOff(channel, note)
	}
	if err := r.send(msg); err != nil {
		return errors.Wrap(err, "sending MIDI message")
	}
	return nil
}

func (r *MIDIRenderer) Cursor(position int) error {
	r.last = position
	if r.onCursor != nil {
		r.debounce(func() { r.onCursor(r.last) })
	}
	return nil
}

// Close releases the MIDI driver.
func (r *MIDIRenderer) Close() {
	midi.CloseDriver()
}
