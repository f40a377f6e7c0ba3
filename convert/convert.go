// Package convert turns standard MIDI files into the compact song binary
// the devices distribute and play.
package convert

import (
	"bytes"
	"math"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/tactuslabs/tactus/score"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ReadSMF reads and parses a MIDI file.
func ReadSMF(path string) (s *smf.SMF, e error) {
	// the smf parser panics on some malformed files
	defer func() {
		if r, ok := recover().(string); ok {
			e = errors.New(r)
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading midi file")
	}
	res, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "parsing midi file")
	}
	return res, nil
}

// FromSMF flattens a parsed MIDI file into the song header and note
// spans. Each track with notes becomes one instrument channel; tempo and
// meter come from the first tempo / time-signature events.
func FromSMF(s *smf.SMF) (score.Header, []score.Span, error) {
	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return score.Header{}, nil, errors.Errorf("unsupported time format %v", s.TimeFormat)
	}

	h := score.DefaultHeader()
	h.TicksPerBeat = uint16(mt.Resolution())

	var spans []score.Span
	var maxTick uint32
	var channel uint8
	tempoSeen := false
	meterSeen := false

	for _, track := range s.Tracks {
		var absTicks uint64
		hasNotes := false
		pressed := make(map[uint8]spanStart)

		for _, event := range track {
			absTicks += uint64(event.Delta)

			var bpm float64
			var num, denom, ch, key, vel uint8
			switch {
			case event.Message.GetMetaTempo(&bpm):
				if !tempoSeen {
					h.Tempo = uint16(math.Round(bpm))
					tempoSeen = true
				}
			case event.Message.GetMetaMeter(&num, &denom):
				if !meterSeen {
					h.Numerator = num
					h.Denominator = denom
					meterSeen = true
				}
			case event.Message.GetNoteStart(&ch, &key, &vel):
				hasNotes = true
				pressed[key] = spanStart{tick: absTicks, velocity: vel}
			case event.Message.GetNoteEnd(&ch, &key):
				start, ok := pressed[key]
				if !ok {
					continue
				}
				delete(pressed, key)
				if absTicks > math.MaxUint16 {
					// past the addressable song length; drop
					continue
				}
				spans = append(spans, score.Span{
					Start:     uint16(start.tick),
					End:       uint16(absTicks),
					Channel:   channel,
					Note:      key,
					Intensity: start.velocity,
				})
				if uint32(absTicks) > maxTick {
					maxTick = uint32(absTicks)
				}
			}
		}

		if hasNotes {
			channel++
		}
	}

	if channel == 0 {
		return score.Header{}, nil, errors.New("midi file has no notes")
	}

	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Start < spans[j].Start
	})

	h.MaxTicks = maxTick
	h.Instruments = channel
	return h, spans, nil
}

type spanStart struct {
	tick     uint64
	velocity uint8
}

// File converts a MIDI file to song binary bytes.
func File(path string) ([]byte, error) {
	s, err := ReadSMF(path)
	if err != nil {
		return nil, err
	}
	h, spans, err := FromSMF(s)
	if err != nil {
		return nil, err
	}
	return score.Encode(h, spans), nil
}
