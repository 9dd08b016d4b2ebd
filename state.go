package mandel

// State is the phase of the engine's driving loop.
type State int32

const (
	// StateRestarting means an invalidation is pending and a new frame is
	// about to start. It is the initial state.
	StateRestarting State = iota

	// StateComputing means a frame's workers are running.
	StateComputing

	// StateSettled means the last frame completed without invalidation and
	// the loop is parked until the next change.
	StateSettled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateRestarting:
		return "restarting"
	case StateComputing:
		return "computing"
	case StateSettled:
		return "settled"
	default:
		return "unknown"
	}
}
