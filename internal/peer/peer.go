// Package peer implements the peer-wire handshake and the per-peer
// session state machine: Unconnected -> Connecting -> Handshaking ->
// AwaitingBitfield -> Ready -> Closed.
package peer

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"time"

	"fetchkit/internal/bitfield"
	"fetchkit/internal/errs"
	"fetchkit/internal/message"
)

const (
	// ConnectTimeout bounds the initial TCP dial.
	ConnectTimeout = 15 * time.Second
	// HandshakeTimeout bounds the handshake and bitfield exchange.
	HandshakeTimeout = 10 * time.Second
	// PieceTimeout bounds socket I/O once a piece download is underway.
	PieceTimeout = 120 * time.Second
)

// Peer is a swarm member's address, as decoded from the tracker's
// compact peer list.
type Peer struct {
	ID   int
	IP   net.IP
	Port uint16
}

func (p Peer) String() string {
	return net.JoinHostPort(p.IP.String(), strconv.Itoa(int(p.Port)))
}

// Unmarshal decodes the tracker's compact peer blob: 6 bytes per peer,
// 4 bytes of IPv4 address followed by a 2-byte big-endian port.
func Unmarshal(peersBin []byte) ([]Peer, error) {
	const peerSize = 6
	if len(peersBin)%peerSize != 0 {
		return nil, fmt.Errorf("%w: peers blob length %d not a multiple of %d", errs.TrackerError, len(peersBin), peerSize)
	}
	numPeers := len(peersBin) / peerSize
	peers := make([]Peer, numPeers)
	for i := 0; i < numPeers; i++ {
		offset := i * peerSize
		ip := make(net.IP, 4)
		copy(ip, peersBin[offset:offset+4])
		peers[i] = Peer{
			ID:   i,
			IP:   ip,
			Port: binary.BigEndian.Uint16(peersBin[offset+4 : offset+6]),
		}
	}
	return peers, nil
}

// State is one of the peer session's lifecycle states.
type State int

const (
	StateUnconnected State = iota
	StateConnecting
	StateHandshaking
	StateAwaitingBitfield
	StateReady
	StateClosed
)

// Session owns one peer's TCP connection, its remote bitfield, and
// our local choke/interest state. A Session is exclusively owned by
// the worker that created it.
type Session struct {
	Conn     net.Conn
	Bitfield bitfield.Bitfield
	Choked   bool

	state    State
	peer     Peer
	peerID   [20]byte
	infoHash [20]byte
}

// Dial connects to peer, performs the handshake, and waits for the
// peer's initial bitfield message, leaving the session in StateReady
// (having sent unchoke and interested) on success. A zero
// handshakeTimeout falls back to the package's HandshakeTimeout
// default.
func Dial(p Peer, peerID, infoHash [20]byte, handshakeTimeout time.Duration) (*Session, error) {
	if handshakeTimeout <= 0 {
		handshakeTimeout = HandshakeTimeout
	}

	s := &Session{peer: p, peerID: peerID, infoHash: infoHash, Choked: true, state: StateConnecting}

	conn, err := net.DialTimeout("tcp", p.String(), ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", errs.ConnectError, p, err)
	}
	s.Conn = conn
	s.state = StateHandshaking

	conn.SetDeadline(time.Now().Add(handshakeTimeout))
	if _, err := completeHandshake(conn, peerID, infoHash); err != nil {
		conn.Close()
		s.state = StateClosed
		return nil, err
	}
	s.state = StateAwaitingBitfield

	bf, err := s.receiveBitfield()
	if err != nil {
		conn.Close()
		s.state = StateClosed
		return nil, err
	}
	s.Bitfield = bf
	conn.SetDeadline(time.Time{})
	s.state = StateReady

	if err := s.SendUnchoke(); err != nil {
		conn.Close()
		s.state = StateClosed
		return nil, err
	}
	if err := s.SendInterested(); err != nil {
		conn.Close()
		s.state = StateClosed
		return nil, err
	}

	return s, nil
}

// receiveBitfield reads exactly one message, which must be a bitfield;
// any other first message is fatal per the peer-wire protocol.
func (s *Session) receiveBitfield() (bitfield.Bitfield, error) {
	msg, err := message.Read(s.Conn)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: expected bitfield, got keep-alive", errs.ProtocolError)
	}
	if msg.ID != message.Bitfield {
		return nil, fmt.Errorf("%w: expected bitfield, got %s", errs.ProtocolError, msg.ID)
	}
	return bitfield.Bitfield(msg.Payload), nil
}

// State reports the session's current lifecycle state.
func (s *Session) State() State { return s.state }

// Close transitions the session to StateClosed and closes the socket.
func (s *Session) Close() error {
	s.state = StateClosed
	if s.Conn == nil {
		return nil
	}
	return s.Conn.Close()
}

// HasPiece consults the remote bitfield.
func (s *Session) HasPiece(index int) bool {
	return s.Bitfield.HasPiece(index)
}

// Read returns the next decoded message; a keep-alive is surfaced as
// (nil, nil), which callers must treat as a no-op.
func (s *Session) Read() (*message.Message, error) {
	return message.Read(s.Conn)
}

func (s *Session) write(m *message.Message) error {
	if _, err := s.Conn.Write(m.Serialize()); err != nil {
		return fmt.Errorf("%w: writing %s: %v", errs.IoError, m.ID, err)
	}
	return nil
}

// SendRequest asks the peer for the block [begin, begin+length) of
// piece index.
func (s *Session) SendRequest(index, begin, length int) error {
	return s.write(message.FormatRequest(index, begin, length))
}

// SendHave announces that we have finished piece index.
func (s *Session) SendHave(index int) error {
	return s.write(message.FormatHave(index))
}

// SendInterested tells the peer we want data.
func (s *Session) SendInterested() error {
	return s.write(&message.Message{ID: message.Interested})
}

// SendUnchoke tells the peer we will serve its requests (this client
// never seeds, but the teacher protocol sequence always opens with an
// unchoke).
func (s *Session) SendUnchoke() error {
	return s.write(&message.Message{ID: message.Unchoke})
}

// ReadPiece validates msg as a piece message belonging to job index
// and copies its block into buf, returning the number of bytes copied.
func ReadPiece(jobIndex int, buf []byte, msg *message.Message) (int, error) {
	return message.ParsePiece(jobIndex, buf, msg)
}
