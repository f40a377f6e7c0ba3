package score

import (
	"os"

	"github.com/pkg/errors"
)

// Song is the conductor's authoritative copy: the full ordered event store
// for every channel plus derived timing metadata. Only the conductor ever
// mutates it, and only by replacing it wholesale.
type Song struct {
	Path string

	store EventStore
	meta  Metadata
}

// LoadSong reads and decodes a song binary from disk.
func LoadSong(path string) (*Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading song %v", path)
	}
	s := &Song{Path: path}
	if err := s.Replace(data); err != nil {
		return nil, errors.Wrapf(err, "decoding song %v", path)
	}
	return s, nil
}

// Replace decodes data and swaps in the new song. On a decode error the
// previous contents are kept.
func (s *Song) Replace(data []byte) error {
	h, spans, err := Decode(data)
	if err != nil {
		return err
	}
	s.store.Clear()
	for _, sp := range spans {
		on, off := sp.Events()
		s.store.Insert(on)
		s.store.Insert(off)
	}
	s.meta = Derive(h)
	return nil
}

// Bytes re-encodes the song for distribution. Spans are reconstructed by
// pairing each note-on with the next matching note-off.
func (s *Song) Bytes() []byte {
	return Encode(s.meta.Header, s.Spans())
}

// Spans pairs the stored on/off events back into flat note records, in
// start-tick order.
func (s *Song) Spans() []Span {
	var spans []Span
	events := s.store.All()
	claimed := make([]bool, len(events))
	for i, on := range events {
		if !on.NoteOn() {
			continue
		}
		for j := i + 1; j < len(events); j++ {
			off := events[j]
			if claimed[j] || off.NoteOn() || off.Channel != on.Channel || off.Note != on.Note {
				continue
			}
			claimed[j] = true
			spans = append(spans, Span{
				Start:     uint16(on.Tick),
				End:       uint16(off.Tick),
				Channel:   on.Channel,
				Note:      on.Note,
				Intensity: on.Intensity,
			})
			break
		}
	}
	return spans
}

// GetEvent returns the event at index i.
func (s *Song) GetEvent(i int) (Event, bool) { return s.store.Get(i) }

// EventCount returns the number of stored events.
func (s *Song) EventCount() int { return s.store.Len() }

// Metadata returns the derived timing metadata.
func (s *Song) Metadata() Metadata { return s.meta }

// AddSpan inserts a note span as its on/off event pair, growing MaxTicks
// when the note ends past the current song length.
func (s *Song) AddSpan(sp Span) {
	on, off := sp.Events()
	s.store.Insert(on)
	s.store.Insert(off)
	if uint32(sp.End) > s.meta.MaxTicks {
		h := s.meta.Header
		h.MaxTicks = uint32(sp.End)
		s.meta = Derive(h)
	}
}

// Clear empties the song.
func (s *Song) Clear() {
	s.store.Clear()
	h := s.meta.Header
	h.MaxTicks = 0
	s.meta = Derive(h)
}

// LocalSong is a satellite's replica: only the events for its own channel,
// populated incrementally from inbound packets.
type LocalSong struct {
	Channel uint8

	store EventStore
	meta  Metadata
}

// NewLocalSong creates an empty replica for the given channel.
func NewLocalSong(channel uint8) *LocalSong {
	return &LocalSong{
		Channel: channel,
		meta:    Derive(DefaultHeader()),
	}
}

// UpdateHeader replaces the metadata from an inbound header packet.
func (l *LocalSong) UpdateHeader(h Header) {
	l.meta = Derive(h)
}

// AddSpan inserts a note span for this channel as an on/off event pair.
// Spans for other channels are the caller's filtering problem.
func (l *LocalSong) AddSpan(sp Span) {
	sp.Channel = l.Channel
	on, off := sp.Events()
	l.store.Insert(on)
	l.store.Insert(off)
	if uint32(sp.End) > l.meta.MaxTicks {
		h := l.meta.Header
		h.MaxTicks = uint32(sp.End)
		l.meta = Derive(h)
	}
}

// Clear empties the replica, keeping the channel identity.
func (l *LocalSong) Clear() {
	l.store.Clear()
	h := l.meta.Header
	h.MaxTicks = 0
	l.meta = Derive(h)
}

// GetEvent returns the event at index i.
func (l *LocalSong) GetEvent(i int) (Event, bool) { return l.store.Get(i) }

// EventCount returns the number of stored events.
func (l *LocalSong) EventCount() int { return l.store.Len() }

// Metadata returns the derived timing metadata.
func (l *LocalSong) Metadata() Metadata { return l.meta }

// PatternRoll derives the position-indexed note presence view used by the
// display collaborator: one cell per pixel column, listing the notes that
// start there. Rebuilt from the store on every call so it can never drift
// from the events.
func (l *LocalSong) PatternRoll() [][]uint8 {
	if l.meta.MaxPixels <= 0 {
		return nil
	}
	roll := make([][]uint8, l.meta.MaxPixels)
	for _, e := range l.store.All() {
		if !e.NoteOn() {
			continue
		}
		px := int(float64(e.Tick) / l.meta.TicksPerPixel)
		if px < 0 || px >= len(roll) {
			continue
		}
		if !containsNote(roll[px], e.Note) {
			roll[px] = append(roll[px], e.Note)
		}
	}
	return roll
}

// RemoveNoteAt deletes every event for note starting in the given pixel
// column. This is the edit path behind the pattern view.
func (l *LocalSong) RemoveNoteAt(pixel int, note uint8) {
	if l.meta.TicksPerPixel <= 0 {
		return
	}
	lo := uint32(float64(pixel) * l.meta.TicksPerPixel)
	hi := uint32(float64(pixel+1) * l.meta.TicksPerPixel)

	kept := l.store.All()[:0]
	drop := false
	for _, e := range l.store.All() {
		if e.Note == note && e.NoteOn() && e.Tick >= lo && e.Tick < hi {
			drop = true // drop this on and its next off
			continue
		}
		if drop && e.Note == note && !e.NoteOn() {
			drop = false
			continue
		}
		kept = append(kept, e)
	}
	l.store.events = kept
}

func containsNote(notes []uint8, n uint8) bool {
	for _, v := range notes {
		if v == n {
			return true
		}
	}
	return false
}
