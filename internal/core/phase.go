package core

// Phase is the lifecycle state of a session.
//
//	Initializing -> Live
//	Initializing -> Error
//	Live         -> Error
//
// Nothing leaves Error.
type Phase int32

const (
	PhaseInitializing Phase = iota
	PhaseLive
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseLive:
		return "live"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// canTransition reports whether from -> to is a legal lifecycle edge.
func canTransition(from, to Phase) bool {
	switch from {
	case PhaseInitializing:
		return to == PhaseLive || to == PhaseError
	case PhaseLive:
		return to == PhaseError
	default:
		return false
	}
}
