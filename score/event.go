package score

// Event is a single point on the song timeline. A note-on carries
// Intensity > 0; the matching note-off is a second event at the end tick
// with Intensity 0.
type Event struct {
	Tick      uint32
	Channel   uint8
	Note      uint8
	Intensity uint8
}

// NoteOn reports whether the event starts a note.
func (e Event) NoteOn() bool {
	return e.Intensity > 0
}

// EventStore keeps events sorted ascending by tick. Exact duplicates
// (same tick, channel, note, intensity) are dropped on insert.
type EventStore struct {
	events []Event
}

// Insert places e in tick order. The fast path (tick beyond the current
// tail) is an append; otherwise we scan backward from the tail, which is
// fine because songs are authored mostly in time order.
func (s *EventStore) Insert(e Event) {
	if len(s.events) == 0 {
		s.events = append(s.events, e)
		return
	}
	if e.Tick > s.events[len(s.events)-1].Tick {
		s.events = append(s.events, e)
		return
	}

	p := len(s.events) - 1
	for p >= 0 && e.Tick < s.events[p].Tick {
		p--
	}
	for p >= 0 && e.Tick == s.events[p].Tick {
		if e == s.events[p] {
			return // redundant event
		}
		p--
	}

	s.events = append(s.events, Event{})
	copy(s.events[p+2:], s.events[p+1:])
	s.events[p+1] = e
}

// Get returns the event at index i, or false when i is out of range.
func (s *EventStore) Get(i int) (Event, bool) {
	if i < 0 || i >= len(s.events) {
		return Event{}, false
	}
	return s.events[i], true
}

// Len returns the number of stored events.
func (s *EventStore) Len() int {
	return len(s.events)
}

// Clear empties the store.
func (s *EventStore) Clear() {
	s.events = s.events[:0]
}

// All returns the events in order. The slice is shared; callers must not
// mutate it.
func (s *EventStore) All() []Event {
	return s.events
}
