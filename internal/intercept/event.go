package intercept

import "context"

// State identifies a position in the per-acquisition lifecycle.
type State string

const (
	StateCreated             State = "created"
	StateAwaitingName        State = "awaiting_name"
	StateSuspendedForVerify  State = "suspended_for_verify"
	StateAwaitingFingerprint State = "awaiting_fingerprint"
	StateBlocked             State = "blocked"
	StateResumed             State = "resumed"
	StateIgnored             State = "ignored"
)

// Terminal reports whether no further transitions can occur from s.
func (s State) Terminal() bool {
	switch s {
	case StateBlocked, StateResumed, StateIgnored:
		return true
	}
	return false
}

// Acquisition is one attempted download as reported by the acquisition
// subsystem. ID is the correlation key for the whole lifecycle. Name may be
// empty at creation time; the awaiting-name stage waits for it.
type Acquisition struct {
	ID             string
	Path           string
	Name           string
	DeclaredSize   int64
	SourceLocation string
}

// Source is the acquisition subsystem the controller steers. Suspend cancels
// an in-flight acquisition at the source so its content can be verified before
// any bytes are trusted. Replay starts the acquisition again from the exact
// original source location. The controller never assumes either succeeds.
type Source interface {
	Suspend(ctx context.Context, id string) error
	Replay(ctx context.Context, sourceLocation, filename string) error
}
