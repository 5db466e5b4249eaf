// Package tracker announces to a BitTorrent tracker over HTTP and
// decodes its compact peer list.
package tracker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackpal/bencode-go"

	"fetchkit/internal/errs"
	"fetchkit/internal/metainfo"
	"fetchkit/internal/peer"
)

// response is the bencoded tracker announce reply. Interval is
// advisory and ignored: this client announces once per run.
type response struct {
	Interval int    `bencode:"interval"`
	Peers    string `bencode:"peers"`
}

// Client announces to one tracker.
type Client struct {
	HTTP *http.Client
	// Retries configures the exponential backoff applied between
	// announce attempts; every failed attempt (network error, non-200
	// status, decode error, invalid peer blob) is retried. nil uses a
	// 1s initial / 30s max default.
	Retries *backoff.ExponentialBackOff
	// MaxTry is the number of retries after the first attempt; zero
	// uses 5.
	MaxTry uint64
}

// New returns a Client with the default HTTP client and an exponential
// backoff retry policy capped at maxInterval. A zero or negative
// maxInterval falls back to 30s.
func New(maxInterval time.Duration) *Client {
	if maxInterval <= 0 {
		maxInterval = 30 * time.Second
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = maxInterval
	return &Client{HTTP: http.DefaultClient, Retries: b, MaxTry: 5}
}

// Announce contacts m's tracker and returns its peer list.
func (c *Client) Announce(ctx context.Context, m *metainfo.Metainfo, peerID [20]byte, port uint16) ([]peer.Peer, error) {
	announceURL, err := buildURL(m, peerID, port)
	if err != nil {
		return nil, err
	}

	var peers []peer.Peer
	op := func() error {
		p, err := c.announceOnce(ctx, announceURL)
		if err != nil {
			return err
		}
		peers = p
		return nil
	}

	policy := backoff.WithMaxRetries(c.retries(), c.maxTry())
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return peers, nil
}

func (c *Client) retries() backoff.BackOff {
	if c.Retries != nil {
		return c.Retries
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	return b
}

func (c *Client) maxTry() uint64 {
	if c.MaxTry > 0 {
		return c.MaxTry
	}
	return 5
}

func (c *Client) announceOnce(ctx context.Context, announceURL string) ([]peer.Peer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, announceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", errs.TrackerError, err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: announcing: %v", errs.TrackerError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: tracker returned status %d", errs.TrackerError, resp.StatusCode)
	}

	var tr response
	if err := bencode.Unmarshal(resp.Body, &tr); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", errs.TrackerError, err)
	}

	return peer.Unmarshal([]byte(tr.Peers))
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// buildURL constructs the tracker announce URL: the metainfo's own
// query parameters (if any) are preserved, and info_hash/peer_id are
// appended percent-encoded byte-for-byte rather than through
// url.Values (which would escape them as if they were text).
func buildURL(m *metainfo.Metainfo, peerID [20]byte, port uint16) (string, error) {
	base, err := url.Parse(m.Announce)
	if err != nil {
		return "", fmt.Errorf("%w: parsing announce URL: %v", errs.TrackerError, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported announce scheme %q", errs.TrackerError, base.Scheme)
	}

	params := url.Values{
		"port":       {strconv.Itoa(int(port))},
		"uploaded":   {"0"},
		"downloaded": {"0"},
		"compact":    {"1"},
		"left":       {strconv.Itoa(m.Length)},
	}
	query := base.Query()
	for k, v := range params {
		query[k] = v
	}
	base.RawQuery = query.Encode()
	base.RawQuery += "&info_hash=" + percentEncode(m.InfoHash[:])
	base.RawQuery += "&peer_id=" + percentEncode(peerID[:])
	return base.String(), nil
}

// percentEncode escapes every raw byte as %XX, which is what the
// tracker protocol requires for info_hash/peer_id (url.QueryEscape
// would instead treat them as text and mangle non-ASCII bytes).
func percentEncode(b []byte) string {
	var sb []byte
	for _, v := range b {
		sb = append(sb, '%')
		sb = append(sb, hexDigit(v>>4), hexDigit(v&0x0F))
	}
	return string(sb)
}

func hexDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'A' + n - 10
}
