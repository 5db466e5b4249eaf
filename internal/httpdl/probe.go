package httpdl

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"sync/atomic"

	"fetchkit/internal/errs"
)

// ProbeResult is what a HEAD request told us about a remote resource.
type ProbeResult struct {
	ContentLength int64
	AcceptRanges  bool
	Filename      string
}

// filenameCounter generates the download<k>.bin fallback name across
// an entire CLI run, per §4.7.
var filenameCounter int64 = -1

func nextAnonymousFilename() string {
	k := atomic.AddInt64(&filenameCounter, 1)
	return fmt.Sprintf("download%d.bin", k)
}

// Probe issues a HEAD request (following redirects, per the default
// http.Client policy) and extracts the fields the planner needs.
func Probe(ctx context.Context, client *http.Client, url string) (*ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building HEAD request: %v", errs.ProbeError, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: HEAD %s: %v", errs.ProbeError, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HEAD %s returned status %d", errs.ProbeError, url, resp.StatusCode)
	}

	length, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil || length <= 0 {
		return nil, fmt.Errorf("%w: missing or invalid Content-Length for %s", errs.ProbeError, url)
	}

	return &ProbeResult{
		ContentLength: length,
		AcceptRanges:  resp.Header.Get("Accept-Ranges") == "bytes",
		Filename:      filenameFromResponse(resp),
	}, nil
}

func filenameFromResponse(resp *http.Response) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name, ok := params["filename"]; ok && name != "" {
				return name
			}
		}
	}
	return nextAnonymousFilename()
}
