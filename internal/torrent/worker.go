package torrent

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fetchkit/internal/errs"
	"fetchkit/internal/message"
	"fetchkit/internal/peer"
	"fetchkit/internal/progress"
)

const (
	// MaxBacklog is the maximum number of in-flight block requests a
	// worker keeps open against one peer for one piece.
	MaxBacklog = 5
	// BlockSize is the size of one requested block; the last block of
	// a piece may be smaller.
	BlockSize = 16384
)

// worker pulls pieces from queue using one peer connection until the
// queue is drained or the connection breaks irrecoverably.
type worker struct {
	peer             peer.Peer
	peerID           [20]byte
	infoHash         [20]byte
	queue            chan Job
	results          chan Result
	progress         progress.Reporter
	log              *zap.SugaredLogger
	handshakeTimeout time.Duration
	pieceTimeout     time.Duration
}

// run is the per-peer worker loop of §4.5. It always drains the
// queue to completion or until the connection fails; on any
// unrecoverable error it returns, releasing its peer session, and the
// coordinator's remaining workers keep the swarm moving.
func (w *worker) run() {
	sess, err := peer.Dial(w.peer, w.peerID, w.infoHash, w.handshakeTimeout)
	if err != nil {
		w.log.Debugw("peer dial failed, worker exiting", "peer", w.peer.String(), "err", err)
		return
	}
	defer sess.Close()

	for job := range w.queue {
		if !sess.HasPiece(job.Index) {
			w.queue <- job
			continue
		}

		buf, err := w.downloadPiece(sess, job)
		if err != nil {
			w.log.Debugw("piece download failed, worker exiting", "peer", w.peer.String(), "piece", job.Index, "err", err)
			w.queue <- job
			return
		}

		if err := verifyPiece(job, buf); err != nil {
			w.log.Debugw("piece hash mismatch, re-enqueueing", "piece", job.Index)
			w.queue <- job
			continue
		}

		if err := sess.SendHave(job.Index); err != nil {
			w.log.Debugw("send have failed, continuing anyway", "peer", w.peer.String(), "err", err)
		}

		w.results <- Result{Index: job.Index, Length: job.Length, Data: buf}
		w.progress.Add(1)
	}
}

// downloadPiece runs the pipelined request/receive loop for one piece
// against sess, per the §4.5 constants (backlog 5, block size 16KiB,
// a configurable I/O deadline defaulting to peer.PieceTimeout).
func (w *worker) downloadPiece(sess *peer.Session, job Job) ([]byte, error) {
	pieceTimeout := w.pieceTimeout
	if pieceTimeout <= 0 {
		pieceTimeout = peer.PieceTimeout
	}
	sess.Conn.SetDeadline(time.Now().Add(pieceTimeout))
	defer sess.Conn.SetDeadline(time.Time{})

	attempt := &pieceAttempt{buffer: make([]byte, job.Length)}

	for attempt.downloaded < job.Length {
		if !sess.Choked {
			for attempt.inFlight < MaxBacklog && attempt.requested < job.Length {
				blockSize := BlockSize
				if job.Length-attempt.requested < blockSize {
					blockSize = job.Length - attempt.requested
				}
				if err := sess.SendRequest(job.Index, attempt.requested, blockSize); err != nil {
					return nil, err
				}
				attempt.inFlight++
				attempt.requested += blockSize
			}
		}

		if err := w.applyNextMessage(sess, job, attempt); err != nil {
			return nil, err
		}
	}

	return attempt.buffer, nil
}

// applyNextMessage reads one message and dispatches it per §4.5's
// choke/unchoke/have/piece table. A keep-alive is a no-op.
func (w *worker) applyNextMessage(sess *peer.Session, job Job, attempt *pieceAttempt) error {
	msg, err := sess.Read()
	if err != nil {
		return err
	}
	if msg == nil {
		return nil
	}

	switch msg.ID {
	case message.Choke:
		sess.Choked = true
	case message.Unchoke:
		sess.Choked = false
	case message.Have:
		index, err := message.ParseHave(msg)
		if err != nil {
			return err
		}
		sess.Bitfield.SetPiece(index)
	case message.Piece:
		n, err := peer.ReadPiece(job.Index, attempt.buffer, msg)
		if err != nil {
			return err
		}
		attempt.downloaded += n
		attempt.inFlight--
	}
	return nil
}

func verifyPiece(job Job, buf []byte) error {
	sum := sha1.Sum(buf)
	if !bytes.Equal(sum[:], job.Hash[:]) {
		return fmt.Errorf("%w: piece %d", errs.HashMismatch, job.Index)
	}
	return nil
}
