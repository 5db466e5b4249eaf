package httpdl

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

)

func rangeServer(t *testing.T, content []byte, supportsRanges bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/file.bin", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(content)))
			if supportsRanges {
				w.Header().Set("Accept-Ranges", "bytes")
			}
			w.Header().Set("Content-Disposition", `attachment; filename="downloaded.bin"`)
			w.WriteHeader(http.StatusOK)
			return
		}

		rangeHeader := r.Header.Get("Range")
		if rangeHeader == "" {
			if !supportsRanges {
				w.WriteHeader(http.StatusOK)
				w.Write(content)
				return
			}
			t.Errorf("unexpected unranged GET against a range-supporting server")
			return
		}

		var start, end int
		if _, err := fmt.Sscanf(rangeHeader, "bytes=%d-%d", &start, &end); err != nil {
			t.Errorf("bad range header %q: %v", rangeHeader, err)
			return
		}
		w.WriteHeader(http.StatusPartialContent)
		w.Write(content[start : end+1])
	})
	return httptest.NewServer(mux)
}

func TestOrchestratorDownloadWithRanges(t *testing.T) {
	content := bytes.Repeat([]byte("abcdefgh"), 17) // 136 bytes: eight 17-byte segments at concurrency 8
	srv := rangeServer(t, content, true)
	defer srv.Close()

	dir := t.TempDir()
	o := &Orchestrator{Client: srv.Client(), Concurrency: 8, OutputDir: dir}

	res, err := o.Download(t.Context(), srv.URL+"/file.bin")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Base(res.Path) != "downloaded.bin" {
		t.Errorf("got filename %s, want downloaded.bin", filepath.Base(res.Path))
	}

	got, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("output mismatch: got %d bytes, want %d", len(got), len(content))
	}
}

func TestOrchestratorFallsBackWithoutRanges(t *testing.T) {
	content := bytes.Repeat([]byte("z"), 50)
	srv := rangeServer(t, content, false)
	defer srv.Close()

	dir := t.TempDir()
	o := &Orchestrator{Client: srv.Client(), Concurrency: 8, OutputDir: dir}

	res, err := o.Download(t.Context(), srv.URL+"/file.bin")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}

	got, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("output mismatch")
	}
}
