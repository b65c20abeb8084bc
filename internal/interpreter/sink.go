package interpreter

import (
	"fmt"
	"net"

	"github.com/pkg/errors"
)

// Sink emits one completed-transaction stats line per call (spec.md
// §4.4, §6 "downstream sink").
type Sink interface {
	Emit(method, host, path string, durationMS float64)
}

// UDPSink sends each stats line as a single datagram on a pre-connected
// unreliable socket, matching original_source/src/event_listener.rs's
// send_stats_line and src/main.rs's socket setup.
type UDPSink struct {
	conn *net.UDPConn
}

// NewUDPSink pre-connects a UDP socket to endpoint (host:port). The
// connection is never reconnected; send failures are ignored at emit
// time, per spec.md §7.
func NewUDPSink(endpoint string) (*UDPSink, error) {
	addr, err := net.ResolveUDPAddr("udp", endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "interpreter: resolve collector endpoint %s", endpoint)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "interpreter: dial collector endpoint %s", endpoint)
	}
	return &UDPSink{conn: conn}, nil
}

// Emit writes the tab-separated stats line described in spec.md §4.4:
// "0", method, host, path, duration in milliseconds.
func (s *UDPSink) Emit(method, host, path string, durationMS float64) {
	line := fmt.Sprintf("0\t%s\t%s\t%s\t%v\n", method, host, path, durationMS)
	// Send-and-forget: a dropped datagram is not retried (spec.md §7).
	_, _ = s.conn.Write([]byte(line))
}

// Close releases the underlying socket.
func (s *UDPSink) Close() error {
	return s.conn.Close()
}
