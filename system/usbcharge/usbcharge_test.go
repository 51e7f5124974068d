package usbcharge

import (
	"encoding/binary"
	"testing"

	"github.com/tenseventyseven/AcerManager/system/wmid"

	"github.com/stretchr/testify/require"
)

// fakeGauge emulates the ApgeAction namespace: get returns a scripted
// status, set records the operand it was called with.
type fakeGauge struct {
	hasNamespace bool
	status       uint64

	setOperands []uint64
}

var _ wmid.WMI = &fakeGauge{}

func (f *fakeGauge) Has(ns wmid.Namespace) bool {
	return f.hasNamespace
}

func (f *fakeGauge) Evaluate(ns wmid.Namespace, method uint32, args []byte) (wmid.Value, error) {
	operand := binary.LittleEndian.Uint64(args)
	switch method {
	case wmid.MethodApgeGet:
		return wmid.BufferValue(wmid.EncodeApgeOperand(f.status)), nil
	case wmid.MethodApgeSet:
		f.setOperands = append(f.setOperands, operand)
		return wmid.IntegerValue(0), nil
	}
	return wmid.Value{}, wmid.ErrNamespaceUnavailable
}

func (f *fakeGauge) Close() error {
	return nil
}

func newSupported(t *testing.T, status uint64) (*Control, *fakeGauge) {
	fw := &fakeGauge{
		hasNamespace: true,
		status:       status,
	}
	c, err := NewControl(Config{
		WMI:       fw,
		Supported: true,
	})
	require.NoError(t, err)
	return c, fw
}

func TestInitializeClassification(t *testing.T) {
	for status, expected := range map[uint64]int8{
		663296:  0,
		659200:  1,
		1314560: 1,
		1969920: 1,
		42:      -1,
	} {
		c, _ := newSupported(t, status)
		require.NoError(t, c.Initialize())
		require.Equal(t, expected, c.Mode())
	}
}

func TestInitializeGates(t *testing.T) {
	fw := &fakeGauge{
		hasNamespace: true,
		status:       statusLimit10,
	}
	c, err := NewControl(Config{
		WMI:       fw,
		Supported: false,
	})
	require.NoError(t, err)
	require.NoError(t, c.Initialize())
	require.Equal(t, int8(-1), c.Mode())

	fw.hasNamespace = false
	c, err = NewControl(Config{
		WMI:       fw,
		Supported: true,
	})
	require.NoError(t, err)
	require.NoError(t, c.Initialize())
	require.Equal(t, int8(-1), c.Mode())
}

func TestProbeThenSetModeOff(t *testing.T) {
	c, fw := newSupported(t, statusLimit10)
	require.NoError(t, c.Initialize())
	require.Equal(t, int8(1), c.Mode())

	limit, err := c.Limit()
	require.NoError(t, err)
	require.Equal(t, 10, limit)

	require.NoError(t, c.SetMode(false))
	require.Equal(t, []uint64{663300}, fw.setOperands)
	require.Equal(t, int8(0), c.Mode())
}

func TestSetModeOnUsesHighestLimit(t *testing.T) {
	c, fw := newSupported(t, statusOff)
	require.NoError(t, c.Initialize())

	require.NoError(t, c.SetMode(true))
	require.Equal(t, []uint64{1969924}, fw.setOperands)
	require.Equal(t, int8(1), c.Mode())
}

func TestLimitReadTable(t *testing.T) {
	for status, expected := range map[uint64]int{
		659200:  10,
		1314560: 20,
		1969920: 30,
		663296:  -1,
		7:       -1,
	} {
		c, _ := newSupported(t, status)
		limit, err := c.Limit()
		require.NoError(t, err)
		require.Equal(t, expected, limit)
	}
}

func TestSetLimitWhileChargingOff(t *testing.T) {
	c, fw := newSupported(t, statusOff)
	require.NoError(t, c.Initialize())

	for _, pct := range []int{10, 20, 30} {
		require.Equal(t, ErrChargingOff, c.SetLimit(pct))
	}
	require.Empty(t, fw.setOperands)
}

func TestSetLimitOperands(t *testing.T) {
	c, fw := newSupported(t, statusLimit30)
	require.NoError(t, c.Initialize())

	require.NoError(t, c.SetLimit(10))
	require.NoError(t, c.SetLimit(20))
	require.NoError(t, c.SetLimit(30))
	require.Equal(t, []uint64{659204, 1314564, 1969924}, fw.setOperands)
}

func TestSetLimitRejectsInvalidValues(t *testing.T) {
	c, fw := newSupported(t, statusLimit30)
	require.NoError(t, c.Initialize())

	for _, pct := range []int{-10, 0, 5, 15, 40, 100} {
		require.Equal(t, ErrInvalidLimit, c.SetLimit(pct))
	}
	require.Empty(t, fw.setOperands)
}

func TestUnsupportedModel(t *testing.T) {
	c, err := NewControl(Config{
		WMI:       &fakeGauge{},
		Supported: false,
	})
	require.NoError(t, err)

	require.Equal(t, ErrUnsupported, c.SetMode(true))
	require.Equal(t, ErrUnsupported, c.SetLimit(10))
	_, err = c.Limit()
	require.Equal(t, ErrUnsupported, err)
}
