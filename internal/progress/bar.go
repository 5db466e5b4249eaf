package progress

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Bar renders progress to a terminal with schollz/progressbar.
type Bar struct {
	bar *progressbar.ProgressBar
}

// NewBar returns a Reporter sized to max units (pieces or bytes),
// labeled with description.
func NewBar(max int64, description string) *Bar {
	return &Bar{bar: progressbar.NewOptions64(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100),
	)}
}

// NewByteBar is like NewBar but renders its counter as a byte size.
func NewByteBar(max int64, description string) *Bar {
	return &Bar{bar: progressbar.NewOptions64(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100),
	)}
}

// NewSilent returns a Bar that renders to io.Discard.
func NewSilent(max int64) *Bar {
	return &Bar{bar: progressbar.NewOptions64(max, progressbar.OptionSetWriter(io.Discard))}
}

func (b *Bar) Add(n int64) { b.bar.Add64(n) }
func (b *Bar) Finish()     { b.bar.Finish() }
