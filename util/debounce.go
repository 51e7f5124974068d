package util

import (
	"context"
	"time"
)

// DebounceEvent contains the last event fired to the input channel
type DebounceEvent struct {
	Counter int64
	Data    interface{}
}

// Debounce returns two channels for input and output. Events posted to
// the noisy channel within the wait window collapse into one clean
// event carrying the last data and the number of events collapsed.
func Debounce(haltCtx context.Context, wait time.Duration) (chan<- interface{}, <-chan DebounceEvent) {
	noisy := make(chan interface{})
	clean := make(chan DebounceEvent, 1) // do not block our goroutine

	go func() {
		var lastTime time.Time
		var counter int64
		var data interface{}

		ticker := time.NewTicker(wait)
		defer ticker.Stop()

		for {
			select {
			case data = <-noisy:
				lastTime = time.Now()
				counter++
			case <-ticker.C:
				if !lastTime.IsZero() && time.Since(lastTime) > wait {
					clean <- DebounceEvent{
						Counter: counter,
						Data:    data,
					}

					lastTime = time.Time{}
					counter = 0
				}
			case <-haltCtx.Done():
				return
			}
		}
	}()

	return noisy, clean
}
