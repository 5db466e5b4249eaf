package peer

import (
	"bytes"
	"fmt"
	"io"

	"fetchkit/internal/errs"
)

const protocolIdentifier = "BitTorrent protocol"

// Handshake is the 49+len(Pstr) byte frame exchanged before any peer-wire
// message. Reserved bytes are always zero on send and ignored on receive.
type Handshake struct {
	Pstr     string
	InfoHash [20]byte
	PeerID   [20]byte
}

func newHandshake(infoHash, peerID [20]byte) *Handshake {
	return &Handshake{Pstr: protocolIdentifier, InfoHash: infoHash, PeerID: peerID}
}

// Serialize encodes the handshake to its wire form.
func (h *Handshake) Serialize() []byte {
	buf := make([]byte, len(h.Pstr)+49)
	cursor := 1
	buf[0] = byte(len(h.Pstr))
	cursor += copy(buf[cursor:], h.Pstr)
	cursor += copy(buf[cursor:], make([]byte, 8))
	cursor += copy(buf[cursor:], h.InfoHash[:])
	copy(buf[cursor:], h.PeerID[:])
	return buf
}

// readHandshake reads a handshake frame from r: one length byte L, then
// 48+L more bytes (reserved, info hash, peer id).
func readHandshake(r io.Reader) (*Handshake, error) {
	lenBuf := make([]byte, 1)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return nil, fmt.Errorf("%w: reading pstrlen: %v", errs.HandshakeError, err)
	}
	pstrlen := int(lenBuf[0])
	if pstrlen == 0 {
		return nil, fmt.Errorf("%w: pstrlen is zero", errs.HandshakeError)
	}

	rest := make([]byte, pstrlen+48)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, fmt.Errorf("%w: reading handshake body: %v", errs.HandshakeError, err)
	}

	h := &Handshake{Pstr: string(rest[0:pstrlen])}
	cursor := pstrlen + 8
	copy(h.InfoHash[:], rest[cursor:cursor+20])
	cursor += 20
	copy(h.PeerID[:], rest[cursor:cursor+20])
	return h, nil
}

// completeHandshake writes our handshake and validates the peer's
// response against the expected info hash.
func completeHandshake(rw io.ReadWriter, peerID, infoHash [20]byte) (*Handshake, error) {
	if _, err := rw.Write(newHandshake(infoHash, peerID).Serialize()); err != nil {
		return nil, fmt.Errorf("%w: writing handshake: %v", errs.HandshakeError, err)
	}

	resp, err := readHandshake(rw)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(resp.InfoHash[:], infoHash[:]) {
		return nil, fmt.Errorf("%w: expected info hash %x, got %x", errs.HandshakeError, infoHash, resp.InfoHash)
	}

	return resp, nil
}
