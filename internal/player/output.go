package player

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// output is the device streams are mixed into.
type output interface {
	// init prepares the device for rate on first use and returns the rate it runs at.
	init(rate beep.SampleRate) (beep.SampleRate, error)
	play(s beep.Streamer)
	// lock guards streamer state against the mixer.
	lock()
	unlock()
	clear()
}

// speakerOutput is the process-wide beep speaker.
type speakerOutput struct {
	mu          sync.Mutex
	initialized bool
	rate        beep.SampleRate
}

var defaultOutput = &speakerOutput{}

func (o *speakerOutput) init(rate beep.SampleRate) (beep.SampleRate, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.initialized {
		return o.rate, nil
	}
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return 0, err
	}
	o.rate = rate
	o.initialized = true
	return rate, nil
}

func (o *speakerOutput) play(s beep.Streamer) { speaker.Play(s) }
func (o *speakerOutput) lock()                { speaker.Lock() }
func (o *speakerOutput) unlock()              { speaker.Unlock() }

func (o *speakerOutput) clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.initialized {
		speaker.Clear()
	}
}
