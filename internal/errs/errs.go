// Package errs defines the typed error kinds shared by both download cores.
package errs

import "errors"

// Kind is a sentinel identifying one of the error categories in the
// propagation policy: wrap the originating error with fmt.Errorf("%w", ...)
// against one of these so callers can errors.Is/errors.As regardless of
// call depth.
type Kind error

var (
	InvalidMetainfo = errors.New("invalid metainfo")
	TrackerError    = errors.New("tracker error")
	ConnectError    = errors.New("connect error")
	HandshakeError  = errors.New("handshake error")
	ProtocolError   = errors.New("protocol error")
	Timeout         = errors.New("timeout")
	HashMismatch    = errors.New("hash mismatch")
	IoError         = errors.New("io error")
	ProbeError      = errors.New("probe error")
	SegmentError    = errors.New("segment error")
	UserInputError  = errors.New("user input error")
	DownloadError   = errors.New("download error")
)
