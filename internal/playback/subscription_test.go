package playback

import (
	"testing"
	"testing/synctest"
	"time"
)

func TestSubscription_ChannelsReadable(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sub := newSubscription()

		sub.sendStatus(Status{State: StatePlaying, Position: 30 * time.Second})
		sub.sendFinished()

		st := <-sub.Status
		if st.Position != 30*time.Second {
			t.Errorf("Status.Position = %v, want 30s", st.Position)
		}
		<-sub.Finished
	})
}

func TestSubscription_Close_SignalsDone(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		sub := newSubscription()
		sub.close()
		<-sub.Done
	})
}

func TestSubscription_NonBlocking_DropsWhenFull(t *testing.T) {
	sub := newSubscription()

	for i := range eventBufferSize + 5 {
		sub.sendStatus(Status{Position: time.Duration(i) * time.Second})
	}

	count := 0
	var last time.Duration
	for {
		select {
		case st := <-sub.Status:
			if count > 0 && st.Position < last {
				t.Errorf("status out of order: %v after %v", st.Position, last)
			}
			last = st.Position
			count++
		default:
			if count != eventBufferSize {
				t.Errorf("received %d events, want %d (buffer size)", count, eventBufferSize)
			}
			return
		}
	}
}
