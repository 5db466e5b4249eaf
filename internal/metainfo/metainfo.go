// Package metainfo decodes bencoded .torrent files into the fields the
// rest of the client needs: announce URL, piece layout, and the SHA-1
// info hash that identifies the swarm.
package metainfo

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"io"

	"github.com/jackpal/bencode-go"

	"fetchkit/internal/errs"
)

const hashLen = 20

// rawInfo mirrors the bencoded info dictionary's key order exactly;
// re-marshaling it must reproduce byte-identical output to whatever
// the origin server hashed, or the tracker will reject our info hash.
type rawInfo struct {
	Pieces      string `bencode:"pieces"`
	PieceLength int    `bencode:"piece length"`
	Length      int    `bencode:"length"`
	Name        string `bencode:"name"`
}

type rawTorrent struct {
	Announce string  `bencode:"announce"`
	Info     rawInfo `bencode:"info"`
}

// Metainfo is the decoded, immutable view of a .torrent file.
type Metainfo struct {
	Announce    string
	InfoHash    [20]byte
	PieceHashes [][20]byte
	PieceLength int
	Length      int
	Name        string
}

// NumPieces is the number of pieces implied by the decoded hash blob.
func (m *Metainfo) NumPieces() int { return len(m.PieceHashes) }

// PieceBounds returns the half-open byte range [begin, end) of piece
// index within the reassembled file, clamping the final piece to the
// total length.
func (m *Metainfo) PieceBounds(index int) (begin, end int) {
	begin = index * m.PieceLength
	end = begin + m.PieceLength
	if end > m.Length {
		end = m.Length
	}
	return begin, end
}

// PieceLengthOf returns the length of piece index: PieceLength for
// every piece but the last, and the remainder for the last.
func (m *Metainfo) PieceLengthOf(index int) int {
	begin, end := m.PieceBounds(index)
	return end - begin
}

// Decode parses a bencoded torrent file and computes its info hash.
// It fails with errs.InvalidMetainfo if decoding fails or the pieces
// blob length is not a multiple of 20.
func Decode(r io.Reader) (*Metainfo, error) {
	var raw rawTorrent
	if err := bencode.Unmarshal(r, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding bencode: %v", errs.InvalidMetainfo, err)
	}

	pieceHashes, err := splitPieceHashes(raw.Info.Pieces)
	if err != nil {
		return nil, err
	}

	infoHash, err := computeInfoHash(raw.Info)
	if err != nil {
		return nil, err
	}

	return &Metainfo{
		Announce:    raw.Announce,
		InfoHash:    infoHash,
		PieceHashes: pieceHashes,
		PieceLength: raw.Info.PieceLength,
		Length:      raw.Info.Length,
		Name:        raw.Info.Name,
	}, nil
}

func splitPieceHashes(blob string) ([][20]byte, error) {
	data := []byte(blob)
	if len(data)%hashLen != 0 {
		return nil, fmt.Errorf("%w: pieces blob length %d not a multiple of %d", errs.InvalidMetainfo, len(data), hashLen)
	}
	numHashes := len(data) / hashLen
	hashes := make([][20]byte, numHashes)
	for i := 0; i < numHashes; i++ {
		copy(hashes[i][:], data[i*hashLen:(i+1)*hashLen])
	}
	return hashes, nil
}

// computeInfoHash re-serializes the info dictionary exactly as
// received (preserving bencode's canonical key ordering and integer
// encoding) and hashes the result with SHA-1.
func computeInfoHash(info rawInfo) ([20]byte, error) {
	var buf bytes.Buffer
	if err := bencode.Marshal(&buf, info); err != nil {
		return [20]byte{}, fmt.Errorf("%w: re-serializing info dict: %v", errs.InvalidMetainfo, err)
	}
	return sha1.Sum(buf.Bytes()), nil
}
