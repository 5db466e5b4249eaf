package metainfo

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/jackpal/bencode-go"

	"fetchkit/internal/errs"
)

func encode(t *testing.T, rt rawTorrent) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := bencode.Marshal(&buf, rt); err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return buf.Bytes()
}

func fourPieceFixture(t *testing.T) rawTorrent {
	t.Helper()
	pieces := strings.Repeat("a", 20*4) // 4 pieces, content doesn't matter for this test
	return rawTorrent{
		Announce: "http://tracker.example/announce",
		Info: rawInfo{
			Pieces:      pieces,
			PieceLength: 32768,
			Length:      100000,
			Name:        "test.iso",
		},
	}
}

func TestDecodePieceLengthLaw(t *testing.T) {
	raw := fourPieceFixture(t)
	mi, err := Decode(bytes.NewReader(encode(t, raw)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if mi.NumPieces() != 4 {
		t.Fatalf("got %d pieces, want 4", mi.NumPieces())
	}
	wantLengths := []int{32768, 32768, 32768, 1696}
	for i, want := range wantLengths {
		if got := mi.PieceLengthOf(i); got != want {
			t.Errorf("piece %d length = %d, want %d", i, got, want)
		}
	}
}

func TestDecodeInvalidPiecesLength(t *testing.T) {
	raw := fourPieceFixture(t)
	raw.Info.Pieces = raw.Info.Pieces[:len(raw.Info.Pieces)-1]
	_, err := Decode(bytes.NewReader(encode(t, raw)))
	if !errors.Is(err, errs.InvalidMetainfo) {
		t.Fatalf("expected InvalidMetainfo, got %v", err)
	}
}

func TestInfoHashStableAcrossReserialization(t *testing.T) {
	raw := fourPieceFixture(t)
	mi1, err := Decode(bytes.NewReader(encode(t, raw)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	mi2, err := Decode(bytes.NewReader(encode(t, raw)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if mi1.InfoHash != mi2.InfoHash {
		t.Error("info hash should be deterministic for identical input")
	}
}

func TestDecodeMalformedBencode(t *testing.T) {
	_, err := Decode(strings.NewReader("not bencode"))
	if !errors.Is(err, errs.InvalidMetainfo) {
		t.Fatalf("expected InvalidMetainfo, got %v", err)
	}
}
