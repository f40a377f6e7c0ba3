package wire

import (
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// Serial framing. The radio gives us packet boundaries for free; a serial
// link is a byte stream, so frames carry a start marker, a length and an
// XOR checksum:
//
//	[SOF0][SOF1][LEN][payload...][CKS]
const (
	sofA = 0xAA
	sofB = 0x55
)

// SerialTransport runs the packet protocol over a wired serial link, for
// satellites tethered instead of radio-linked.
type SerialTransport struct {
	port serial.Port
	acc  []byte
	buf  [256]byte
}

// NewSerialTransport opens the named device at the given baud rate.
func NewSerialTransport(device string, baud int) (*SerialTransport, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, errors.Wrapf(err, "opening %v", device)
	}
	// Bounded reads keep the device loop polling, never blocking.
	if err := port.SetReadTimeout(time.Millisecond); err != nil {
		port.Close()
		return nil, errors.Wrap(err, "setting read timeout")
	}
	return &SerialTransport{port: port}, nil
}

func (t *SerialTransport) Send(raw []byte, target uint8) error {
	if len(raw) > 250 {
		return errors.Wrapf(ErrSendFailed, "frame payload %v bytes too large", len(raw))
	}
	frame := make([]byte, 0, len(raw)+4)
	frame = append(frame, sofA, sofB, byte(len(raw)))
	frame = append(frame, raw...)
	frame = append(frame, checksum(raw))
	if _, err := t.port.Write(frame); err != nil {
		return errors.Wrap(ErrSendFailed, err.Error())
	}
	return nil
}

func (t *SerialTransport) Receive() ([]byte, error) {
	n, err := t.port.Read(t.buf[:])
	if err != nil {
		return nil, err
	}
	t.acc = append(t.acc, t.buf[:n]...)
	return t.nextFrame(), nil
}

// nextFrame extracts one complete frame from the accumulator, discarding
// noise before the start marker and frames with bad checksums.
func (t *SerialTransport) nextFrame() []byte {
	for {
		// hunt for the start marker
		for len(t.acc) >= 2 && !(t.acc[0] == sofA && t.acc[1] == sofB) {
			t.acc = t.acc[1:]
		}
		if len(t.acc) < 4 {
			return nil
		}
		size := int(t.acc[2])
		if len(t.acc) < 4+size {
			return nil // frame still arriving
		}
		payload := t.acc[3 : 3+size]
		ok := t.acc[3+size] == checksum(payload)
		out := make([]byte, size)
		copy(out, payload)
		t.acc = t.acc[4+size:]
		if ok {
			return out
		}
		// corrupt frame, keep hunting
	}
}

func (t *SerialTransport) Close() error {
	return t.port.Close()
}

func checksum(payload []byte) byte {
	cks := byte(len(payload))
	for _, b := range payload {
		cks ^= b
	}
	return cks
}
