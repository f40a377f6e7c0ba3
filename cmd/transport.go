package cmd

import (
	"github.com/tactuslabs/tactus/render"
	"github.com/tactuslabs/tactus/wire"
)

// openTransport builds the configured link: serial when a device is set,
// UDP broadcast otherwise.
func openTransport() (wire.Transport, error) {
	if cfg.Serial != "" {
		return wire.NewSerialTransport(cfg.Serial, cfg.SerialBaud)
	}
	return wire.NewUDPTransport(cfg.Port, cfg.Broadcast)
}

// openRenderer builds the local output surface: a MIDI port when
// configured, the structured log otherwise.
func openRenderer(onCursor func(int)) (render.Renderer, func()) {
	if cfg.MIDIPort >= 0 {
		r, err := render.NewMIDIRenderer(cfg.MIDIPort, onCursor)
		if err == nil {
			return r, r.Close
		}
		logger.Warn("MIDI output unavailable, falling back to log renderer", "err", err)
	}
	return render.LogRenderer{Log: logger}, func() {}
}
