package wire

import (
	"net"
	"time"

	"github.com/pkg/errors"
)

// ErrSendFailed wraps link-layer transmission errors. Callers retry per
// policy and log; it never crashes the loop.
var ErrSendFailed = errors.New("send failed")

// Transport is the raw broadcast link. Send is best-effort; Receive is
// non-blocking and returns (nil, nil) when no packet is waiting.
//
// The target argument mirrors the radio API: everything here is a shared
// broadcast medium, so implementations may ignore it and filtering happens
// at the packet layer by channel id.
type Transport interface {
	Send(raw []byte, target uint8) error
	Receive() ([]byte, error)
	Close() error
}

// UDPTransport broadcasts packets over a UDP port on the local network,
// standing in for the ESP-NOW style radio the devices use.
type UDPTransport struct {
	conn *net.UDPConn
	dest *net.UDPAddr
	buf  [512]byte
}

// NewUDPTransport listens on port and broadcasts to bcast ("255.255.255.255"
// or a subnet broadcast address).
func NewUDPTransport(port int, bcast string) (*UDPTransport, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, errors.Wrap(err, "listening for packets")
	}
	dest := &net.UDPAddr{IP: net.ParseIP(bcast), Port: port}
	if dest.IP == nil {
		conn.Close()
		return nil, errors.Errorf("bad broadcast address %q", bcast)
	}
	return &UDPTransport{conn: conn, dest: dest}, nil
}

func (t *UDPTransport) Send(raw []byte, target uint8) error {
	if _, err := t.conn.WriteToUDP(raw, t.dest); err != nil {
		return errors.Wrap(ErrSendFailed, err.Error())
	}
	return nil
}

func (t *UDPTransport) Receive() ([]byte, error) {
	// Poll: one bounded read per loop iteration.
	if err := t.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return nil, err
	}
	n, _, err := t.conn.ReadFromUDP(t.buf[:])
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, nil
		}
		return nil, err
	}
	out := make([]byte, n)
	copy(out, t.buf[:n])
	return out, nil
}

func (t *UDPTransport) Close() error {
	return t.conn.Close()
}
