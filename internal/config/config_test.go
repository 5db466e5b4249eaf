package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaultsWhenAbsent(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("got %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoadOverlaysPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("http_concurrency: 16\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPConcurrency != 16 {
		t.Errorf("got concurrency %d, want 16", cfg.HTTPConcurrency)
	}
	if cfg.PeerPort != Default().PeerPort {
		t.Errorf("unrelated field should keep its default, got port %d", cfg.PeerPort)
	}
	if cfg.PieceTimeout != 120*time.Second {
		t.Errorf("got piece timeout %v, want default 120s", cfg.PieceTimeout)
	}
}
