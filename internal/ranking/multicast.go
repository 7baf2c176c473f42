package ranking

import (
	"fmt"
	"net"
)

// MulticastSender pushes fire-and-forget datagrams to a multicast group.
// There is no delivery guarantee by design; send errors are the caller's to
// log.
type MulticastSender struct {
	conn *net.UDPConn
}

// NewMulticastSender dials the group once; addr is "group:port"
// (e.g. "224.0.0.1:6789").
func NewMulticastSender(addr string) (*MulticastSender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve multicast addr %q: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("dial multicast group %q: %w", addr, err)
	}
	return &MulticastSender{conn: conn}, nil
}

func (m *MulticastSender) Send(msg string) error {
	_, err := m.conn.Write([]byte(msg))
	return err
}

func (m *MulticastSender) Close() error {
	return m.conn.Close()
}
