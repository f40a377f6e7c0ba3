package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func frame(payload []byte) []byte {
	out := []byte{sofA, sofB, byte(len(payload))}
	out = append(out, payload...)
	return append(out, checksum(payload))
}

func TestNextFrameExtractsPayload(t *testing.T) {
	tr := &SerialTransport{}
	payload := Tick{Tick: 42}.Encode()
	tr.acc = frame(payload)

	assert.Equal(t, payload, tr.nextFrame())
	assert.Nil(t, tr.nextFrame())
}

func TestNextFrameSkipsLeadingNoise(t *testing.T) {
	tr := &SerialTransport{}
	tr.acc = append([]byte{0x00, 0xAA, 0x13}, frame([]byte{'b'})...)

	assert.Equal(t, []byte{'b'}, tr.nextFrame())
}

func TestNextFrameWaitsForPartialFrame(t *testing.T) {
	tr := &SerialTransport{}
	full := frame([]byte{'s'})

	tr.acc = append(tr.acc, full[:2]...)
	assert.Nil(t, tr.nextFrame())

	tr.acc = append(tr.acc, full[2:]...)
	assert.Equal(t, []byte{'s'}, tr.nextFrame())
}

func TestNextFrameDropsBadChecksum(t *testing.T) {
	tr := &SerialTransport{}
	bad := frame([]byte{'b'})
	bad[len(bad)-1] ^= 0xFF
	tr.acc = append(bad, frame([]byte{'s'})...)

	assert.Equal(t, []byte{'s'}, tr.nextFrame())
}

func TestSerialSendRejectsOversizedPayload(t *testing.T) {
	tr := &SerialTransport{}
	err := tr.Send(make([]byte, 251), Broadcast)
	assert.NotNil(t, err)
}
