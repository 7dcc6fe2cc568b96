// Package net owns the datagram endpoint shared by the client session and
// the server hub.
package net

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// MaxDatagramSize bounds a single received message. Larger datagrams are
// truncated by the kernel and will fail codec validation downstream.
const MaxDatagramSize = 64 * 1024

// JoinRequest is the literal pre-protocol join line a client sends.
const JoinRequest = "JOIN"

// ServerFullReply is the literal refusal when no slot is free.
const ServerFullReply = "SERVER_FULL"

// Endpoint wraps one UDP socket with poll-driven receive semantics: Poll
// waits at most a millisecond when nothing is pending, so a tick loop can
// drain the socket without stalling the frame.
type Endpoint struct {
	conn *net.UDPConn
	buf  []byte
}

// Listen opens an endpoint bound to addr (":0" for an ephemeral port).
func Listen(addr string) (*Endpoint, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %q: %w", addr, err)
	}
	return &Endpoint{conn: conn, buf: make([]byte, MaxDatagramSize)}, nil
}

// pollDeadline bounds a single Poll. It must lie in the future: the
// runtime fails reads against an already-expired deadline before ever
// touching the socket, so queued datagrams would never surface.
const pollDeadline = time.Millisecond

// Poll receives one pending datagram, waiting at most pollDeadline. ok is
// false when the socket is empty; err reports genuine socket failures
// only. The returned slice is an independent copy.
func (e *Endpoint) Poll() (data []byte, from *net.UDPAddr, ok bool, err error) {
	if e == nil || e.conn == nil {
		return nil, nil, false, errors.New("endpoint closed")
	}
	if err := e.conn.SetReadDeadline(time.Now().Add(pollDeadline)); err != nil {
		return nil, nil, false, err
	}
	n, addr, err := e.conn.ReadFromUDP(e.buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, nil, false, nil
		}
		return nil, nil, false, err
	}
	data = make([]byte, n)
	copy(data, e.buf[:n])
	return data, addr, true, nil
}

// Send transmits one datagram fire-and-forget; failures are for the
// caller to log, never to retry.
func (e *Endpoint) Send(to *net.UDPAddr, payload []byte) error {
	if e == nil || e.conn == nil {
		return errors.New("endpoint closed")
	}
	if to == nil {
		return errors.New("no destination")
	}
	_, err := e.conn.WriteToUDP(payload, to)
	return err
}

// LocalAddr reports the bound address.
func (e *Endpoint) LocalAddr() net.Addr {
	if e == nil || e.conn == nil {
		return nil
	}
	return e.conn.LocalAddr()
}

// Close releases the socket. Closing a closed endpoint is a no-op.
func (e *Endpoint) Close() error {
	if e == nil || e.conn == nil {
		return nil
	}
	err := e.conn.Close()
	e.conn = nil
	return err
}

// SameAddr reports whether two UDP addresses identify the same peer.
// Datagrams from any other source are discarded once a peer is bound.
// This is address pinning, not authentication.
func SameAddr(a, b *net.UDPAddr) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Port == b.Port && a.IP.Equal(b.IP)
}
