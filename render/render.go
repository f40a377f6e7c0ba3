// Package render holds the collaborator interfaces the playback core
// drives. The core never talks to audio or display hardware directly;
// it gets a Renderer injected and calls it.
package render

import "log/slog"

// Renderer receives the playback output: note events and the moving
// cursor. Implementations must tolerate being called once per scheduler
// pass.
type Renderer interface {
	// Note renders a note-on (intensity > 0) or note-off (intensity 0).
	Note(channel, note, intensity uint8) error
	// Cursor reports the current playback position in pixel columns.
	Cursor(position int) error
}

// LogRenderer writes events to the structured log; the headless fallback
// when no MIDI port is configured.
type LogRenderer struct {
	Log *slog.Logger
}

func (r LogRenderer) Note(channel, note, intensity uint8) error {
	if intensity > 0 {
		r.Log.Info("note on", "channel", channel, "note", note, "intensity", intensity)
	} else {
		r.Log.Debug("note off", "channel", channel, "note", note)
	}
	return nil
}

func (r LogRenderer) Cursor(position int) error {
	r.Log.Debug("cursor", "position", position)
	return nil
}

// Discard drops everything. Used in tests and for muted surfaces.
type Discard struct{}

func (Discard) Note(channel, note, intensity uint8) error { return nil }
func (Discard) Cursor(position int) error                 { return nil }
