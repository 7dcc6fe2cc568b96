package net

import (
	stdnet "net"
	"testing"
	"time"
)

func TestPollDoesNotBlockOnEmptySocket(t *testing.T) {
	ep, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer ep.Close()

	start := time.Now()
	data, from, ok, err := ep.Poll()
	if err != nil {
		t.Fatalf("poll errored on empty socket: %v", err)
	}
	if ok || data != nil || from != nil {
		t.Fatalf("poll returned data on empty socket: %v from %v", data, from)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("poll blocked for %v", elapsed)
	}
}

func TestPollSurfacesQueuedDatagram(t *testing.T) {
	// A datagram already sitting in the socket buffer must come back from
	// a single Poll call. The read deadline has to lie in the future:
	// with an expired deadline the runtime rejects the read before
	// looking at the socket, and queued data is never seen.
	a, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer a.Close()
	b, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer b.Close()

	to, err := stdnet.ResolveUDPAddr("udp", b.LocalAddr().String())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if err := a.Send(to, []byte("ping")); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	data, _, ok, err := b.Poll()
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if !ok {
		t.Fatal("poll missed a queued datagram")
	}
	if string(data) != "ping" {
		t.Fatalf("received %q, want ping", data)
	}
}

func TestSendAndPollRoundTrip(t *testing.T) {
	a, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer a.Close()
	b, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer b.Close()

	to, err := stdnet.ResolveUDPAddr("udp", b.LocalAddr().String())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	payload := []byte("ping")
	if err := a.Send(to, payload); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, from, ok, err := b.Poll()
		if err != nil {
			t.Fatalf("poll failed: %v", err)
		}
		if ok {
			if string(data) != "ping" {
				t.Fatalf("received %q, want ping", data)
			}
			if from == nil || from.Port == 0 {
				t.Fatalf("source address missing: %v", from)
			}
			// The returned slice must be an independent copy, immune to
			// the next receive overwriting the shared buffer.
			if err := a.Send(to, []byte("loud")); err != nil {
				t.Fatalf("send failed: %v", err)
			}
			time.Sleep(20 * time.Millisecond)
			b.Poll()
			if string(data) != "ping" {
				t.Fatalf("earlier datagram mutated to %q", data)
			}
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("datagram never arrived")
}

func TestCloseIsIdempotent(t *testing.T) {
	ep, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	if err := ep.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := ep.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
	if _, _, _, err := ep.Poll(); err == nil {
		t.Fatal("poll succeeded on closed endpoint")
	}
	if err := ep.Send(&stdnet.UDPAddr{IP: stdnet.IPv4(127, 0, 0, 1), Port: 1}, nil); err == nil {
		t.Fatal("send succeeded on closed endpoint")
	}
}

func TestSameAddr(t *testing.T) {
	a := &stdnet.UDPAddr{IP: stdnet.IPv4(127, 0, 0, 1), Port: 9700}
	b := &stdnet.UDPAddr{IP: stdnet.IPv4(127, 0, 0, 1), Port: 9700}
	c := &stdnet.UDPAddr{IP: stdnet.IPv4(127, 0, 0, 1), Port: 9701}
	d := &stdnet.UDPAddr{IP: stdnet.IPv4(10, 0, 0, 1), Port: 9700}

	if !SameAddr(a, b) {
		t.Fatal("identical addresses compared unequal")
	}
	if SameAddr(a, c) {
		t.Fatal("different ports compared equal")
	}
	if SameAddr(a, d) {
		t.Fatal("different hosts compared equal")
	}
	if SameAddr(a, nil) || SameAddr(nil, b) {
		t.Fatal("nil address compared equal")
	}
}
