package score

// Header mirrors the 11-byte song file header.
type Header struct {
	TicksPerBeat uint16
	MaxTicks     uint32
	Tempo        uint16 // BPM, rounded
	Numerator    uint8
	Denominator  uint8
	Instruments  uint8
}

// DefaultHeader matches the metadata a device assumes before any song has
// been loaded or received.
func DefaultHeader() Header {
	return Header{
		TicksPerBeat: 480,
		MaxTicks:     0,
		Tempo:        160,
		Numerator:    4,
		Denominator:  4,
		Instruments:  1,
	}
}

// PixelsPerBeat is the horizontal resolution of the pattern-roll view.
const PixelsPerBeat = 4

// Metadata carries the timing values derived from a Header. Recomputed
// whenever the header changes.
type Metadata struct {
	Header

	TickToTime    float64 // seconds per tick
	TimeToTick    float64 // ticks per second
	SongLength    float64 // seconds
	TicksPerPixel float64
	MaxPixels     int
}

// Derive computes the timing metadata for h.
func Derive(h Header) Metadata {
	m := Metadata{Header: h}
	m.TickToTime = 60 * 4 / (float64(h.Tempo) * float64(h.TicksPerBeat) * float64(h.Denominator))
	m.TimeToTick = 1 / m.TickToTime
	m.SongLength = float64(h.MaxTicks) * m.TickToTime
	m.TicksPerPixel = float64(h.TicksPerBeat) / PixelsPerBeat
	m.MaxPixels = int(float64(h.MaxTicks) / m.TicksPerPixel)
	return m
}
