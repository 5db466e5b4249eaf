package peer

import (
	"errors"
	"net"
	"testing"

	"fetchkit/internal/bitfield"
	"fetchkit/internal/errs"
	"fetchkit/internal/message"
)

func TestUnmarshalCompactPeers(t *testing.T) {
	blob := []byte{192, 168, 1, 21, 0x1A, 0xE1}
	peers, err := Unmarshal(blob)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(peers) != 1 {
		t.Fatalf("got %d peers, want 1", len(peers))
	}
	if got, want := peers[0].String(), "192.168.1.21:6881"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestUnmarshalInvalidLength(t *testing.T) {
	_, err := Unmarshal([]byte{1, 2, 3, 4, 5})
	if !errors.Is(err, errs.TrackerError) {
		t.Fatalf("expected TrackerError, got %v", err)
	}
}

// fakeRemote simulates a peer that completes a handshake, sends a
// bitfield, and otherwise stays silent, so Dial's state transitions
// can be exercised over a real TCP connection.
func fakeRemote(t *testing.T, ln net.Listener, infoHash [20]byte, bits []byte) {
	t.Helper()
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	if _, err := readHandshake(conn); err != nil {
		t.Errorf("remote: reading handshake: %v", err)
		return
	}
	if _, err := conn.Write(newHandshake(infoHash, [20]byte{0xAA}).Serialize()); err != nil {
		t.Errorf("remote: writing handshake: %v", err)
		return
	}
	if _, err := conn.Write((&message.Message{ID: message.Bitfield, Payload: bits}).Serialize()); err != nil {
		t.Errorf("remote: writing bitfield: %v", err)
		return
	}

	// drain the unchoke/interested the session sends on entering Ready
	message.Read(conn)
	message.Read(conn)
}

func TestDialReachesReady(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	infoHash := [20]byte{1, 2, 3}
	bits := bitfield.New(4)
	bits.SetPiece(2)

	done := make(chan struct{})
	go func() {
		fakeRemote(t, ln, infoHash, bits)
		close(done)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	p := Peer{IP: addr.IP, Port: uint16(addr.Port)}

	sess, err := Dial(p, [20]byte{9}, infoHash, 0)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer sess.Close()

	if sess.State() != StateReady {
		t.Fatalf("got state %v, want StateReady", sess.State())
	}
	if !sess.HasPiece(2) {
		t.Error("expected session to report piece 2 as held")
	}
	if sess.HasPiece(0) {
		t.Error("expected session to report piece 0 as not held")
	}
	<-done
}

func TestDialRejectsNonBitfieldFirstMessage(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	infoHash := [20]byte{1, 2, 3}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		readHandshake(conn)
		conn.Write(newHandshake(infoHash, [20]byte{0xAA}).Serialize())
		conn.Write((&message.Message{ID: message.Unchoke}).Serialize())
	}()

	addr := ln.Addr().(*net.TCPAddr)
	p := Peer{IP: addr.IP, Port: uint16(addr.Port)}

	_, err = Dial(p, [20]byte{9}, infoHash, 0)
	if !errors.Is(err, errs.ProtocolError) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}
