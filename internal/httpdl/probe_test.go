package httpdl

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fetchkit/internal/errs"
)

func TestProbeMissingContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := Probe(t.Context(), srv.Client(), srv.URL)
	if !errors.Is(err, errs.ProbeError) {
		t.Fatalf("expected ProbeError, got %v", err)
	}
}

func TestProbeSynthesizesFilenameWithoutContentDisposition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "5")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res, err := Probe(t.Context(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if res.Filename == "" {
		t.Fatal("expected a synthesized filename")
	}
}

func TestProbeNon200Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Probe(t.Context(), srv.Client(), srv.URL)
	if !errors.Is(err, errs.ProbeError) {
		t.Fatalf("expected ProbeError, got %v", err)
	}
}
