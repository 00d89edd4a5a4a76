package playback

import "fmt"

// State is the load state of the controlled source.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
	StateError
)

var stateNames = [...]string{"idle", "loading", "playing", "paused", "error"}

func (s State) String() string {
	if s < StateIdle || s > StateError {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Ready reports whether the source has signalled it can play.
func (s State) Ready() bool {
	return s == StatePlaying || s == StatePaused
}

// Status is a point-in-time snapshot of the controller.
type Status struct {
	State        State   `json:"state"`
	URL          string  `json:"url"`    // configured stream URL
	Source       string  `json:"source"` // source actually bound, may be FallbackURL
	Live         bool    `json:"live"`
	Playing      bool    `json:"playing"`
	Muted        bool    `json:"muted"`
	Volume       float64 `json:"volume"`
	Fullscreen   bool    `json:"fullscreen"`
	Adaptive     bool    `json:"adaptive"` // an adaptive session is attached
	FallbackUsed bool    `json:"fallbackUsed"`
	Error        string  `json:"error,omitempty"`
}

// MarshalText lets State render by name in JSON and logs.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
