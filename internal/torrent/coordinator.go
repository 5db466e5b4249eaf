// Package torrent coordinates a pool of per-peer workers against a
// shared piece queue, reassembling and returning the complete file.
package torrent

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"fetchkit/internal/errs"
	"fetchkit/internal/metainfo"
	"fetchkit/internal/peer"
	"fetchkit/internal/progress"
)

// Coordinator owns the output buffer and drives the swarm to
// completion. It never touches individual peer sessions; those are
// exclusively owned by their worker.
type Coordinator struct {
	Metainfo *metainfo.Metainfo
	Peers    []peer.Peer
	PeerID   [20]byte
	Progress progress.Reporter
	Logger   *zap.SugaredLogger
	// HandshakeTimeout and PieceTimeout configure each worker's peer
	// session; zero falls back to the peer package's own defaults.
	HandshakeTimeout time.Duration
	PieceTimeout     time.Duration
}

// Download seeds one job per piece, runs one worker per peer, and
// drains results until every piece has been received. It fails with
// errs.DownloadError if every worker exits before all pieces are in.
func (c *Coordinator) Download() ([]byte, error) {
	m := c.Metainfo
	numPieces := m.NumPieces()

	queue := make(chan Job, numPieces)
	for i, hash := range m.PieceHashes {
		queue <- Job{Index: i, Hash: hash, Length: m.PieceLengthOf(i)}
	}

	results := make(chan Result, numPieces)

	var wg sync.WaitGroup
	for _, p := range c.Peers {
		wg.Add(1)
		w := &worker{
			peer:             p,
			peerID:           c.PeerID,
			infoHash:         m.InfoHash,
			queue:            queue,
			results:          results,
			progress:         c.reporter(),
			log:              c.logger(),
			handshakeTimeout: c.HandshakeTimeout,
			pieceTimeout:     c.PieceTimeout,
		}
		go func() {
			defer wg.Done()
			w.run()
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]byte, m.Length)
	completed := 0
	for completed < numPieces {
		res, ok := <-results
		if !ok {
			return nil, fmt.Errorf("%w: all workers exited with %d/%d pieces received", errs.DownloadError, completed, numPieces)
		}
		begin, end := m.PieceBounds(res.Index)
		if res.Length != end-begin {
			return nil, fmt.Errorf("%w: piece %d length %d, want %d", errs.ProtocolError, res.Index, res.Length, end-begin)
		}
		copy(out[begin:end], res.Data)
		completed++
	}

	close(queue)
	c.reporter().Finish()
	return out, nil
}

func (c *Coordinator) reporter() progress.Reporter {
	if c.Progress != nil {
		return c.Progress
	}
	return progress.Noop{}
}

func (c *Coordinator) logger() *zap.SugaredLogger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop().Sugar()
}
