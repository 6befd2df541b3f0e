package playback

const eventBufferSize = 16

// Subscription delivers the events of one loaded track. It is created by Load
// and closed by the next Load or Unload.
type Subscription struct {
	Status   <-chan Status
	Finished <-chan struct{}
	Done     <-chan struct{}

	statusCh   chan Status
	finishedCh chan struct{}
	doneCh     chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		statusCh:   make(chan Status, eventBufferSize),
		finishedCh: make(chan struct{}, 1),
		doneCh:     make(chan struct{}),
	}
	s.Status = s.statusCh
	s.Finished = s.finishedCh
	s.Done = s.doneCh
	return s
}

// close signals the subscriber that the track was unloaded.
func (s *Subscription) close() {
	close(s.doneCh)
}

// sendStatus sends a status event (non-blocking).
func (s *Subscription) sendStatus(st Status) {
	select {
	case s.statusCh <- st:
	default:
		// Drop if buffer full
	}
}

// sendFinished signals the natural end of the track (non-blocking).
func (s *Subscription) sendFinished() {
	select {
	case s.finishedCh <- struct{}{}:
	default:
	}
}
