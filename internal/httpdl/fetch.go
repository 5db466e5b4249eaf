package httpdl

import (
	"context"
	"fmt"
	"net/http"

	"fetchkit/internal/errs"
)

// FetchSegment issues a ranged GET for seg and returns the response
// body for the caller to stream; the caller must close it. status
// must be 206 (Partial Content) or the segment is a failure.
func FetchSegment(ctx context.Context, client *http.Client, url string, seg Segment) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building GET request: %v", errs.SegmentError, err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", seg.Start, seg.End-1))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", errs.SegmentError, url, err)
	}
	if resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: segment [%d,%d) got status %d, want 206", errs.SegmentError, seg.Start, seg.End, resp.StatusCode)
	}
	return resp, nil
}

// FetchWhole issues an unranged GET, for the no-range-support
// fallback path. status must be 200.
func FetchWhole(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building GET request: %v", errs.SegmentError, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", errs.SegmentError, url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: unranged GET got status %d, want 200", errs.SegmentError, resp.StatusCode)
	}
	return resp, nil
}
