package controller

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetDependenciesDryRun(t *testing.T) {
	dep, err := GetDependencies(RunConfig{
		DryRun: true,
	})
	require.NoError(t, err)

	require.NotNil(t, dep.WMI)
	require.NotNil(t, dep.EC)
	require.NotNil(t, dep.Battery)
	require.NotNil(t, dep.USBCharge)
	require.NotNil(t, dep.SysMode)
	require.NotNil(t, dep.Profile)
	require.NotNil(t, dep.ConfigRegistry)

	// the dry run identity is a model with every feature enabled
	require.True(t, dep.Quirks.SystemControlMode)
	require.True(t, dep.Quirks.USBChargeMode)
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(RunConfig{}, nil)
	require.Error(t, err)

	dep, err := GetDependencies(RunConfig{
		DryRun: true,
	})
	require.NoError(t, err)

	dep.Battery = nil
	_, err = New(RunConfig{}, dep)
	require.Error(t, err)
}

func TestControllerInitializesDry(t *testing.T) {
	dep, err := GetDependencies(RunConfig{
		DryRun: true,
	})
	require.NoError(t, err)

	control, err := New(RunConfig{DryRun: true}, dep)
	require.NoError(t, err)

	require.NoError(t, dep.Battery.Initialize())
	require.NoError(t, dep.USBCharge.Initialize())
	require.NoError(t, dep.SysMode.Initialize())

	// the dry firmware reports health mode on and usb charging off
	require.Equal(t, int8(1), control.Battery.State().HealthMode)
	require.Equal(t, int8(0), control.USBCharge.Mode())
}
