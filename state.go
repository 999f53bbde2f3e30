package geoscore

// State describes where the service is in its load lifecycle. It is
// diagnostic: query admission is gated on Ready(), which stays true while an
// older catalog keeps serving through a failed reload.
type State int32

const (
	// StateUninitialized means no load has been attempted yet.
	StateUninitialized State = iota
	// StateLoading means a build is in progress.
	StateLoading
	// StateReady means the most recent load succeeded.
	StateReady
	// StateFailed means the most recent load failed. Not terminal: a later
	// Load may succeed and transition back to StateReady.
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
