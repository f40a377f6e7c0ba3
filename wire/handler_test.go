package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tactuslabs/tactus/score"
)

// fakeTransport is an in-memory Transport: sends are recorded, receives
// pop from a preloaded inbox.
type fakeTransport struct {
	sent    [][]byte
	targets []uint8
	inbox   [][]byte
}

func (f *fakeTransport) Send(raw []byte, target uint8) error {
	f.sent = append(f.sent, append([]byte(nil), raw...))
	f.targets = append(f.targets, target)
	return nil
}

func (f *fakeTransport) Receive() ([]byte, error) {
	if len(f.inbox) == 0 {
		return nil, nil
	}
	raw := f.inbox[0]
	f.inbox = f.inbox[1:]
	return raw, nil
}

func (f *fakeTransport) Close() error { return nil }

func newTestHandler(tr Transport) *Handler {
	h := NewHandler(tr, 0, nil)
	h.packetDelay = 0
	h.ackAttempts = 2
	h.ackWindow = 2 * time.Millisecond
	return h
}

func (f *fakeTransport) decoded() []Packet {
	out := make([]Packet, 0, len(f.sent))
	for _, raw := range f.sent {
		out = append(out, Decode(raw))
	}
	return out
}

func TestSendRetransmits(t *testing.T) {
	tr := &fakeTransport{}
	h := newTestHandler(tr)

	assert.Nil(t, h.Send(Begin{}, Broadcast, ControlRetransmit))
	assert.Equal(t, 2, len(tr.sent))
	assert.Equal(t, tr.sent[0], tr.sent[1])
	assert.Equal(t, uint8(Broadcast), tr.targets[0])
}

func TestSendConfirmedSeesAck(t *testing.T) {
	tr := &fakeTransport{inbox: [][]byte{Ack{}.Encode()}}
	h := newTestHandler(tr)

	assert.True(t, h.SendConfirmed(Pair{Channel: 0}, Broadcast))
	assert.Equal(t, 1, len(tr.sent))
}

func TestSendConfirmedIgnoresOtherTraffic(t *testing.T) {
	tr := &fakeTransport{inbox: [][]byte{
		Tick{Tick: 12}.Encode(),
		Ack{}.Encode(),
	}}
	h := newTestHandler(tr)

	assert.True(t, h.SendConfirmed(Pair{Channel: 0}, Broadcast))
}

func TestSendConfirmedTimesOut(t *testing.T) {
	tr := &fakeTransport{}
	h := newTestHandler(tr)

	assert.False(t, h.SendConfirmed(Pair{Channel: 0}, Broadcast))
	// one send per attempt
	assert.Equal(t, 2, len(tr.sent))
}

func TestReadSwallowsGarbage(t *testing.T) {
	tr := &fakeTransport{inbox: [][]byte{{'z', 0xff}}}
	h := newTestHandler(tr)

	p, err := h.Read()
	assert.Nil(t, err)
	assert.Nil(t, p)

	// empty inbox is also not an error
	p, err = h.Read()
	assert.Nil(t, err)
	assert.Nil(t, p)
}

func TestDistributeSongFiltersByChannel(t *testing.T) {
	hdr := score.Header{TicksPerBeat: 480, MaxTicks: 960, Tempo: 120, Numerator: 4, Denominator: 4, Instruments: 2}
	raw := score.Encode(hdr, []score.Span{
		{Start: 0, End: 480, Channel: 0, Note: 60, Intensity: 100},
		{Start: 0, End: 480, Channel: 1, Note: 48, Intensity: 80},
		{Start: 480, End: 960, Channel: 0, Note: 62, Intensity: 90},
	})

	tr := &fakeTransport{}
	h := newTestHandler(tr)
	assert.Nil(t, h.DistributeSong(raw, 0))

	var events []score.Span
	for _, p := range tr.decoded() {
		if ev, ok := p.(Event); ok {
			events = append(events, ev.Span)
		}
	}
	assert.Equal(t, []score.Span{
		{Start: 0, End: 480, Channel: 0, Note: 60, Intensity: 100},
		{Start: 480, End: 960, Channel: 0, Note: 62, Intensity: 90},
	}, events)
}

func TestDistributeSongPhaseOrder(t *testing.T) {
	hdr := score.Header{TicksPerBeat: 480, MaxTicks: 480, Tempo: 120, Numerator: 4, Denominator: 4, Instruments: 1}
	raw := score.Encode(hdr, []score.Span{
		{Start: 0, End: 480, Channel: 0, Note: 60, Intensity: 100},
	})

	tr := &fakeTransport{}
	h := newTestHandler(tr)
	assert.Nil(t, h.DistributeSong(raw, Broadcast))

	var types []byte
	for _, p := range tr.decoded() {
		types = append(types, p.Type())
	}
	assert.Equal(t, []byte{
		TypeClear, TypeClear,
		TypeHeader,
		TypeEvent,
		TypeUpdate, TypeUpdate,
		TypeReset, TypeReset,
	}, types)
}

func TestDistributeSongRejectsMalformed(t *testing.T) {
	tr := &fakeTransport{}
	h := newTestHandler(tr)

	err := h.DistributeSong([]byte{1, 2, 3}, Broadcast)
	assert.NotNil(t, err)
	assert.Equal(t, 0, len(tr.sent))
}
