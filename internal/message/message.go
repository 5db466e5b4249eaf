// Package message frames and parses the length-prefixed peer-wire
// message protocol described in BEP 3.
package message

import (
	"encoding/binary"
	"fmt"
	"io"

	"fetchkit/internal/errs"
)

// ID identifies a peer-wire message type.
type ID uint8

const (
	Choke         ID = 0
	Unchoke       ID = 1
	Interested    ID = 2
	NotInterested ID = 3
	Have          ID = 4
	Bitfield      ID = 5
	Request       ID = 6
	Piece         ID = 7
	Cancel        ID = 8
)

func (id ID) String() string {
	switch id {
	case Choke:
		return "choke"
	case Unchoke:
		return "unchoke"
	case Interested:
		return "interested"
	case NotInterested:
		return "not-interested"
	case Have:
		return "have"
	case Bitfield:
		return "bitfield"
	case Request:
		return "request"
	case Piece:
		return "piece"
	case Cancel:
		return "cancel"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(id))
	}
}

// Message is a single decoded peer-wire message. A nil *Message
// (returned by Read for a zero-length frame) represents a keep-alive.
type Message struct {
	ID      ID
	Payload []byte
}

// Serialize encodes m into its wire frame: a 4-byte big-endian length
// prefix followed by the id byte and payload. A nil receiver serializes
// to the zero-length keep-alive frame.
func (m *Message) Serialize() []byte {
	if m == nil {
		return make([]byte, 4)
	}
	length := uint32(len(m.Payload) + 1)
	buf := make([]byte, 4+length)
	binary.BigEndian.PutUint32(buf[0:4], length)
	buf[4] = byte(m.ID)
	copy(buf[5:], m.Payload)
	return buf
}

// Read reads the next frame from r. A zero-length frame (keep-alive)
// is reported as (nil, nil); callers must treat that as a no-op, not
// an error.
func Read(r io.Reader) (*Message, error) {
	lengthBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lengthBuf); err != nil {
		return nil, fmt.Errorf("%w: reading message length: %v", errs.IoError, err)
	}
	length := binary.BigEndian.Uint32(lengthBuf)
	if length == 0 {
		return nil, nil
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("%w: reading message body: %v", errs.IoError, err)
	}

	return &Message{ID: ID(body[0]), Payload: body[1:]}, nil
}

// FormatHave builds a have message for piece index.
func FormatHave(index int) *Message {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint32(payload, uint32(index))
	return &Message{ID: Have, Payload: payload}
}

// FormatRequest builds a request message for the block
// [begin, begin+length) of piece index.
func FormatRequest(index, begin, length int) *Message {
	payload := make([]byte, 12)
	binary.BigEndian.PutUint32(payload[0:4], uint32(index))
	binary.BigEndian.PutUint32(payload[4:8], uint32(begin))
	binary.BigEndian.PutUint32(payload[8:12], uint32(length))
	return &Message{ID: Request, Payload: payload}
}

// ParseHave extracts the piece index from a have message.
func ParseHave(msg *Message) (int, error) {
	if msg.ID != Have {
		return 0, fmt.Errorf("%w: expected have, got %s", errs.ProtocolError, msg.ID)
	}
	if len(msg.Payload) != 4 {
		return 0, fmt.Errorf("%w: have payload length %d, want 4", errs.ProtocolError, len(msg.Payload))
	}
	return int(binary.BigEndian.Uint32(msg.Payload)), nil
}

// ParsePiece validates msg as a piece message for the job described by
// wantIndex/buf and copies its block into buf at the message's begin
// offset, returning the number of bytes copied.
func ParsePiece(wantIndex int, buf []byte, msg *Message) (int, error) {
	if msg.ID != Piece {
		return 0, fmt.Errorf("%w: expected piece, got %s", errs.ProtocolError, msg.ID)
	}
	if len(msg.Payload) < 8 {
		return 0, fmt.Errorf("%w: piece payload length %d, want >= 8", errs.ProtocolError, len(msg.Payload))
	}
	index := int(binary.BigEndian.Uint32(msg.Payload[0:4]))
	if index != wantIndex {
		return 0, fmt.Errorf("%w: piece index %d, want %d", errs.ProtocolError, index, wantIndex)
	}
	begin := int(binary.BigEndian.Uint32(msg.Payload[4:8]))
	data := msg.Payload[8:]
	if begin < 0 || begin+len(data) > len(buf) {
		return 0, fmt.Errorf("%w: piece block [%d,%d) out of bounds for length %d", errs.ProtocolError, begin, begin+len(data), len(buf))
	}
	copy(buf[begin:], data)
	return len(data), nil
}
