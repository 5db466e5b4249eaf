// Package progress decouples the download cores from progress-bar
// rendering, which is an external collaborator per the system's scope.
package progress

// Reporter receives progress updates from a download core. Both the
// BitTorrent coordinator and the HTTP orchestrator hold one and call
// Add on every distinct unit of progress (a verified piece, or bytes
// written for a segment); Finish marks the run as done.
type Reporter interface {
	Add(n int64)
	Finish()
}

// Noop discards every update; used with -quiet.
type Noop struct{}

func (Noop) Add(int64) {}
func (Noop) Finish()   {}
