package sysmode

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/stretchr/testify/require"
)

type fakeEC struct {
	registers map[uint8]uint8
	writes    int
	failRead  bool
}

func newFakeEC(mode uint8) *fakeEC {
	return &fakeEC{
		registers: map[uint8]uint8{controlModeOffset: mode},
	}
}

func (f *fakeEC) Read(offset uint8) (uint8, error) {
	if f.failRead {
		return 0, errors.New("ec: timeout waiting for output buffer to fill")
	}
	return f.registers[offset], nil
}

func (f *fakeEC) Write(offset uint8, value uint8) error {
	f.writes++
	f.registers[offset] = value
	return nil
}

func (f *fakeEC) Close() error {
	return nil
}

func newSupported(t *testing.T, mode uint8) (*Control, *fakeEC) {
	fake := newFakeEC(mode)
	c, err := NewControl(Config{
		EC:        fake,
		Supported: true,
	})
	require.NoError(t, err)
	return c, fake
}

func TestInitializeReadsRegister(t *testing.T) {
	c, _ := newSupported(t, ModeSilent)

	require.Equal(t, int16(-1), c.Current())
	require.NoError(t, c.Initialize())
	require.Equal(t, int16(ModeSilent), c.Current())

	// second call must not re-read
	require.NoError(t, c.Initialize())
}

func TestInitializeUnsupported(t *testing.T) {
	fake := newFakeEC(ModeBalanced)
	c, err := NewControl(Config{
		EC:        fake,
		Supported: false,
	})
	require.NoError(t, err)

	require.Equal(t, ErrUnsupported, c.Initialize())
	require.Equal(t, ErrUnsupported, c.Set(ModeBalanced))
}

func TestInitializeReadFailure(t *testing.T) {
	fake := newFakeEC(ModeBalanced)
	fake.failRead = true
	c, err := NewControl(Config{
		EC:        fake,
		Supported: true,
	})
	require.NoError(t, err)

	require.Error(t, c.Initialize())
	require.Equal(t, int16(-1), c.Current())
}

func TestSetWritesRegister(t *testing.T) {
	c, fake := newSupported(t, ModeBalanced)
	require.NoError(t, c.Initialize())

	require.NoError(t, c.Set(ModePerformance))
	require.Equal(t, int16(ModePerformance), c.Current())
	require.Equal(t, uint8(ModePerformance), fake.registers[controlModeOffset])
	require.Equal(t, 1, fake.writes)
}

func TestSetIsIdempotent(t *testing.T) {
	c, fake := newSupported(t, ModeBalanced)
	require.NoError(t, c.Initialize())

	require.NoError(t, c.Set(ModeBalanced))
	require.NoError(t, c.Set(ModeBalanced))
	require.Zero(t, fake.writes)
}

func TestSetRejectsInvalidMode(t *testing.T) {
	c, fake := newSupported(t, ModeBalanced)
	require.NoError(t, c.Initialize())

	for _, mode := range []uint8{0, 4, 200} {
		require.Equal(t, ErrInvalidMode, c.Set(mode))
	}
	require.Zero(t, fake.writes)
}

func TestPersistControlMode(t *testing.T) {
	c, _ := newSupported(t, ModeBalanced)
	require.NoError(t, c.Initialize())
	require.NoError(t, c.Set(ModePerformance))
	require.NotEmpty(t, c.Name())

	b := c.Value()
	require.Equal(t, []byte{3}, b)

	loaded, fake := newSupported(t, ModeBalanced)
	require.NoError(t, loaded.Initialize())
	require.NoError(t, loaded.Load(b))
	require.NoError(t, loaded.Apply())
	require.Equal(t, int16(ModePerformance), loaded.Current())
	require.Equal(t, 1, fake.writes)
}
