// Command torrent downloads a single-file torrent given its metainfo.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"fetchkit/internal/config"
	"fetchkit/internal/metainfo"
	"fetchkit/internal/progress"
	"fetchkit/internal/torrent"
	"fetchkit/internal/tracker"
)

func main() {
	var torrentPath, outputPath, configPath string
	var quiet, verbose bool

	flag.StringVar(&torrentPath, "t", "", "path to the .torrent file (required)")
	flag.StringVar(&torrentPath, "torrent", "", "path to the .torrent file (required)")
	flag.StringVar(&outputPath, "o", "", "output file path (default: the torrent's advisory name)")
	flag.StringVar(&outputPath, "output", "", "output file path (default: the torrent's advisory name)")
	flag.StringVar(&configPath, "config", "", "optional YAML config file")
	flag.BoolVar(&quiet, "quiet", false, "disable progress reporting")
	flag.BoolVar(&verbose, "v", false, "enable verbose logging")
	flag.Parse()

	if torrentPath == "" {
		fmt.Fprintln(os.Stderr, "error: -t/--torrent is required")
		os.Exit(1)
	}

	if err := run(torrentPath, outputPath, configPath, quiet, verbose); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(torrentPath, outputPath, configPath string, quiet, verbose bool) error {
	log := newLogger(verbose)
	defer log.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	f, err := os.Open(torrentPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", torrentPath, err)
	}
	defer f.Close()

	m, err := metainfo.Decode(f)
	if err != nil {
		return err
	}

	peerID := generatePeerID()

	log.Infow("announcing", "announce", m.Announce, "pieces", m.NumPieces())
	trackerClient := tracker.New(cfg.TrackerBackoffMax)
	peers, err := trackerClient.Announce(context.Background(), m, peerID, cfg.PeerPort)
	if err != nil {
		return err
	}
	log.Infow("got peers", "count", len(peers))

	if outputPath == "" {
		outputPath = m.Name
	}

	var reporter progress.Reporter = progress.Noop{}
	if !quiet {
		bar := progress.NewBar(int64(m.NumPieces()), "downloading "+filepath.Base(outputPath))
		defer bar.Finish()
		reporter = bar
	}

	coordinator := &torrent.Coordinator{
		Metainfo:         m,
		Peers:            peers,
		PeerID:           peerID,
		Progress:         reporter,
		Logger:           log,
		HandshakeTimeout: cfg.HandshakeTimeout,
		PieceTimeout:     cfg.PieceTimeout,
	}

	data, err := coordinator.Download()
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}

	fmt.Println("saved to", outputPath)
	return nil
}

func generatePeerID() [20]byte {
	var id [20]byte
	copy(id[:], "-FK0001-")
	rand.Read(id[8:])
	return id
}

func newLogger(verbose bool) *zap.SugaredLogger {
	var l *zap.Logger
	var err error
	if verbose {
		l, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		l, err = cfg.Build()
	}
	if err != nil {
		l = zap.NewNop()
	}
	return l.Sugar()
}

