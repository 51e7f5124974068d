package battery

import (
	"log"
	"sync"

	"github.com/tenseventyseven/AcerManager/system/persist"
	"github.com/tenseventyseven/AcerManager/system/wmid"

	"github.com/pkg/errors"
)

const persistKey = "BatteryHealthMode"

// Function identifies one battery control function. The value doubles
// as the function's bit in the firmware availability bitmask.
type Function uint8

const (
	FunctionHealth      = Function(wmid.FunctionHealthMode)
	FunctionCalibration = Function(wmid.FunctionCalibrationMode)
)

func (f Function) String() string {
	switch f {
	case FunctionHealth:
		return "health mode"
	case FunctionCalibration:
		return "calibration mode"
	}
	return "unknown function"
}

// State is one snapshot of the battery control functions. A mode is -1
// when the firmware does not report it, otherwise 0 (off) or 1 (on).
type State struct {
	HealthMode      int8
	CalibrationMode int8
}

func (s State) get(fn Function) int8 {
	switch fn {
	case FunctionHealth:
		return s.HealthMode
	case FunctionCalibration:
		return s.CalibrationMode
	}
	return -1
}

// Control queries and toggles the battery control functions, and owns
// the cached State. Readers always observe a whole snapshot: Refresh
// builds the next State and swaps it in one assignment.
type Control struct {
	wmi wmid.WMI

	mu           sync.RWMutex
	state        State
	loadedHealth int8
}

func NewControl(wmi wmid.WMI) (*Control, error) {
	if wmi == nil {
		return nil, errors.New("nil WMI is invalid")
	}
	return &Control{
		wmi: wmi,
		state: State{
			HealthMode:      -1,
			CalibrationMode: -1,
		},
		loadedHealth: -1,
	}, nil
}

// Initialize performs the first status query and logs what the firmware
// reports. A machine without the battery control namespace keeps every
// mode unknown and is not an error.
func (c *Control) Initialize() error {
	if !c.wmi.Has(wmid.NamespaceBatteryControl) {
		log.Println("battery: battery control namespace not found")
		return nil
	}

	next, err := c.query()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.state = next
	c.mu.Unlock()

	logModes("available", true, next.HealthMode >= 0, next.CalibrationMode >= 0)
	logModes("active", false, next.HealthMode > 0, next.CalibrationMode > 0)

	return nil
}

func logModes(prefix string, logIfEmpty bool, health, calibration bool) {
	if !health && !calibration && !logIfEmpty {
		return
	}
	modes := ""
	if health {
		modes = FunctionHealth.String()
	}
	if health && calibration {
		modes += ", "
	}
	if calibration {
		modes += FunctionCalibration.String()
	}
	log.Printf("battery: %s modes: %s\n", prefix, modes)
}

func (c *Control) query() (State, error) {
	req := wmid.GetBatteryControlRequest{
		BatteryNo:     1,
		FunctionQuery: 1,
	}
	val, err := c.wmi.Evaluate(wmid.NamespaceBatteryControl, wmid.MethodGetBatteryControl, req.Bytes())
	if err != nil {
		return State{}, errors.Wrap(err, "battery: status query failed")
	}
	resp, err := wmid.DecodeGetBatteryControlResponse(val)
	if err != nil {
		return State{}, errors.Wrap(err, "battery: malformed status response")
	}
	if resp.Return[0] > 0 {
		return State{}, errors.Errorf("battery: status query returned %d", resp.Return[0])
	}

	next := State{
		HealthMode:      -1,
		CalibrationMode: -1,
	}
	if resp.FunctionList&wmid.FunctionHealthMode != 0 {
		next.HealthMode = statusToMode(resp.FunctionStatus[0])
	}
	if resp.FunctionList&wmid.FunctionCalibrationMode != 0 {
		next.CalibrationMode = statusToMode(resp.FunctionStatus[1])
	}
	return next, nil
}

func statusToMode(status uint8) int8 {
	if status > 0 {
		return 1
	}
	return 0
}

// Refresh re-queries the firmware and swaps in the new snapshot, logging
// per-mode transitions. The cache is left unchanged when the query fails.
func (c *Control) Refresh() error {
	next, err := c.query()
	if err != nil {
		return err
	}

	c.mu.Lock()
	old := c.state
	c.state = next
	c.mu.Unlock()

	logTransition(FunctionHealth, old.HealthMode, next.HealthMode)
	logTransition(FunctionCalibration, old.CalibrationMode, next.CalibrationMode)

	return nil
}

func logTransition(fn Function, old, next int8) {
	if old == next {
		return
	}
	if next > 0 {
		log.Printf("battery: enabled %s\n", fn)
	} else {
		log.Printf("battery: disabled %s\n", fn)
	}
}

// State returns the current snapshot
func (c *Control) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

// Get returns the cached tri-state value of one function
func (c *Control) Get(fn Function) int8 {
	return c.State().get(fn)
}

// Set toggles one battery control function and refreshes the cache.
// Setting a function the firmware did not report is deliberately a
// no-op, not an error.
func (c *Control) Set(fn Function, enable bool) error {
	if c.Get(fn) < 0 {
		log.Printf("battery: %s not reported by firmware, ignoring set\n", fn)
		return nil
	}

	req := wmid.SetBatteryControlRequest{
		BatteryNo:    1,
		FunctionMask: uint8(fn),
	}
	if enable {
		req.FunctionStatus = 1
	}

	val, err := c.wmi.Evaluate(wmid.NamespaceBatteryControl, wmid.MethodSetBatteryControl, req.Bytes())
	if err != nil {
		return errors.Wrapf(err, "battery: cannot set %s", fn)
	}
	resp, err := wmid.DecodeSetBatteryControlResponse(val)
	if err != nil {
		return errors.Wrapf(err, "battery: malformed response setting %s", fn)
	}
	log.Printf("battery: %s set returned %#x\n", fn, resp.Return)

	return c.Refresh()
}

var _ persist.Registry = &Control{}

// Name satisfies persist.Registry
func (c *Control) Name() string {
	return persistKey
}

// Value satisfies persist.Registry
func (c *Control) Value() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state.HealthMode < 0 {
		return nil
	}
	return []byte{byte(c.state.HealthMode)}
}

// Load satisfies persist.Registry
func (c *Control) Load(v []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(v) == 0 {
		return nil
	}
	c.loadedHealth = int8(v[0])
	return nil
}

// Apply satisfies persist.Registry
func (c *Control) Apply() error {
	c.mu.RLock()
	loaded := c.loadedHealth
	c.mu.RUnlock()

	if loaded < 0 {
		return nil
	}
	return c.Set(FunctionHealth, loaded > 0)
}

// Close satisfies persist.Registry
func (c *Control) Close() error {
	return c.wmi.Close()
}
