package playback

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "Idle"},
		{StateLoading, "Loading"},
		{StateReady, "Ready"},
		{StatePlaying, "Playing"},
		{StatePaused, "Paused"},
		{StateFinished, "Finished"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestState_HasMedia(t *testing.T) {
	for _, s := range []State{StateReady, StatePlaying, StatePaused, StateFinished} {
		if !s.HasMedia() {
			t.Errorf("%v.HasMedia() = false, want true", s)
		}
	}
	for _, s := range []State{StateIdle, StateLoading} {
		if s.HasMedia() {
			t.Errorf("%v.HasMedia() = true, want false", s)
		}
	}
}
