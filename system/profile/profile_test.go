package profile

import (
	"context"
	"testing"
	"time"

	"github.com/tenseventyseven/AcerManager/system/ec"
	"github.com/tenseventyseven/AcerManager/system/sysmode"

	"github.com/pkg/errors"

	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T, supported bool) (*Adapter, *sysmode.Control) {
	dry, err := ec.NewDryEC()
	require.NoError(t, err)

	ctrl, err := sysmode.NewControl(sysmode.Config{
		EC:        dry,
		Supported: supported,
	})
	require.NoError(t, err)

	adapter, err := NewAdapter(ctrl)
	require.NoError(t, err)
	return adapter, ctrl
}

func TestProbeInitializesLazily(t *testing.T) {
	adapter, ctrl := newAdapter(t, true)
	require.Equal(t, int16(-1), ctrl.Current())

	choices, err := adapter.Probe()
	require.NoError(t, err)
	require.Equal(t, []Profile{LowPower, Balanced, Performance}, choices)
	require.True(t, ctrl.Current() >= 0)
}

func TestProbeUnsupported(t *testing.T) {
	adapter, _ := newAdapter(t, false)

	_, err := adapter.Probe()
	require.Equal(t, ErrUnsupported, err)
}

func TestGetSetMapping(t *testing.T) {
	adapter, ctrl := newAdapter(t, true)
	_, err := adapter.Probe()
	require.NoError(t, err)

	for _, tc := range []struct {
		profile Profile
		mode    int16
	}{
		{LowPower, int16(sysmode.ModeSilent)},
		{Balanced, int16(sysmode.ModeBalanced)},
		{Performance, int16(sysmode.ModePerformance)},
	} {
		require.NoError(t, adapter.Set(tc.profile))
		require.Equal(t, tc.mode, ctrl.Current())

		p, err := adapter.Get()
		require.NoError(t, err)
		require.Equal(t, tc.profile, p)
	}
}

func TestGetUnknownMode(t *testing.T) {
	adapter, ctrl := newAdapter(t, true)
	// dry EC registers read as zero, which is not a valid mode code
	require.NoError(t, ctrl.Initialize())

	_, err := adapter.Get()
	require.Equal(t, ErrUnsupported, err)
}

// flakyRegistrar fails a fixed number of attempts before accepting
type flakyRegistrar struct {
	failures int
	attempts int
	adapter  *Adapter
}

func (r *flakyRegistrar) Register(name string, adapter *Adapter) error {
	r.attempts++
	if r.attempts <= r.failures {
		return errors.New("framework not ready")
	}
	r.adapter = adapter
	return nil
}

func TestRegisterRetriesWithBackoff(t *testing.T) {
	adapter, _ := newAdapter(t, true)

	var delays []time.Duration
	adapter.sleep = func(d time.Duration) {
		delays = append(delays, d)
	}

	r := &flakyRegistrar{failures: 4}
	require.NoError(t, adapter.Register(context.Background(), r))
	require.Equal(t, 5, r.attempts)
	require.Equal(t, adapter, r.adapter)
	require.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
	}, delays)
}

func TestRegisterExhaustsAttempts(t *testing.T) {
	adapter, _ := newAdapter(t, true)

	var delays []time.Duration
	adapter.sleep = func(d time.Duration) {
		delays = append(delays, d)
	}

	r := &flakyRegistrar{failures: 100}
	err := adapter.Register(context.Background(), r)
	require.Error(t, err)
	require.Equal(t, 10, r.attempts)

	regErr, ok := err.(*RegistrationError)
	require.True(t, ok)
	require.Equal(t, 10, regErr.Attempts)
	require.EqualError(t, regErr.LastErr, "framework not ready")

	// delay doubles from 100ms and caps at 1s, with no sleep after the
	// final attempt
	require.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1000 * time.Millisecond,
		1000 * time.Millisecond,
		1000 * time.Millisecond,
		1000 * time.Millisecond,
		1000 * time.Millisecond,
	}, delays)
}

func TestRegisterStopsOnContextCancel(t *testing.T) {
	adapter, _ := newAdapter(t, true)
	adapter.sleep = func(d time.Duration) {}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &flakyRegistrar{failures: 100}
	err := adapter.Register(ctx, r)
	require.Equal(t, context.Canceled, err)
	require.Equal(t, 1, r.attempts)
}

func TestHostRegistration(t *testing.T) {
	adapter, _ := newAdapter(t, true)
	host := NewHost()

	_, err := host.Get()
	require.Equal(t, ErrUnsupported, err)

	require.NoError(t, host.Register("acer-manager", adapter))
	require.Error(t, host.Register("acer-manager", adapter))

	choices, err := host.Probe()
	require.NoError(t, err)
	require.Len(t, choices, 3)

	require.NoError(t, host.Set(Performance))
	p, err := host.Get()
	require.NoError(t, err)
	require.Equal(t, Performance, p)
}
