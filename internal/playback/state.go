// internal/playback/state.go
package playback

// State is the adapter's playback state.
//
//	Idle ──load──▶ Loading ──opened──▶ Ready ──play──▶ Playing ◀──play── Paused
//	                  │                                  │  ▲              ▲
//	                  └─failed─▶ Idle              pause │  └──────────────┘
//	                                                     ▼
//	                                 end of track ◀── Playing ──▶ Finished
//
// Any state returns to Idle on Unload. Buffering is reported alongside Playing
// and Paused and does not change the state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StatePlaying
	StatePaused
	StateFinished
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StateReady:
		return "Ready"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// HasMedia returns true if a media resource is open.
func (s State) HasMedia() bool {
	return s == StateReady || s == StatePlaying || s == StatePaused || s == StateFinished
}

// CanPlay returns true if play is a valid command.
func (s State) CanPlay() bool {
	return s == StateReady || s == StatePaused || s == StatePlaying
}
