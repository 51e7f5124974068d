package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDebounceCollapsesBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	noisy, clean := Debounce(ctx, time.Millisecond*50)

	for i := 0; i < 3; i++ {
		noisy <- i
	}

	select {
	case ev := <-clean:
		require.Equal(t, int64(3), ev.Counter)
		require.Equal(t, 2, ev.Data)
	case <-time.After(time.Second):
		t.Fatal("no debounced event received")
	}
}

func TestDebounceStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	noisy, clean := Debounce(ctx, time.Millisecond*10)
	noisy <- struct{}{}
	cancel()

	select {
	case <-clean:
	case <-time.After(time.Millisecond * 100):
	}
}
