package usbcharge

import (
	"log"
	"sync"

	"github.com/tenseventyseven/AcerManager/system/wmid"

	"github.com/pkg/errors"
)

// Observed ApgeAction operands for the USB offline charging control.
// The encoding is firmware-internal; only the mapping below has been
// observed and the values must be kept exactly as-is.
const (
	operandQueryStatus uint64 = 0x4

	// values reported by the get function
	statusOff     uint64 = 663296
	statusLimit10 uint64 = 659200
	statusLimit20 uint64 = 1314560
	statusLimit30 uint64 = 1969920

	// values accepted by the set function
	operandOff     uint64 = 663300
	operandLimit10 uint64 = 659204
	operandLimit20 uint64 = 1314564
	operandLimit30 uint64 = 1969924
)

var (
	// ErrUnsupported is returned when the model quirk does not enable
	// usb charging control
	ErrUnsupported = errors.New("usb charging control is not supported on this model")
	// ErrChargingOff is returned when a limit operation requires usb
	// charging to be on
	ErrChargingOff = errors.New("usb charging is off, cannot set limit")
	// ErrInvalidLimit is returned for a limit percentage outside {10, 20, 30}
	ErrInvalidLimit = errors.New("usb charging limit must be 10, 20, or 30")
)

// Config contains the WMI interface and the model quirk gate
type Config struct {
	WMI       wmid.WMI
	Supported bool
}

// Control drives the USB offline charging mode and limit. The charging
// mode is tracked in memory, seeded by probing the firmware once at
// start up.
type Control struct {
	Config

	mu   sync.RWMutex
	mode int8
}

func NewControl(conf Config) (*Control, error) {
	if conf.WMI == nil {
		return nil, errors.New("nil WMI is invalid")
	}
	return &Control{
		Config: conf,
		mode:   -1,
	}, nil
}

// Initialize probes the firmware for the current charging status and
// classifies it against the known operand table. Anything we have not
// seen before stays unknown.
func (c *Control) Initialize() error {
	if !c.Supported {
		log.Println("usbcharge: not enabled on this model, skipping initialization")
		return nil
	}
	if !c.WMI.Has(wmid.NamespaceApgeAction) {
		log.Println("usbcharge: ApgeAction namespace not found")
		return nil
	}

	status, err := c.queryStatus()
	if err != nil {
		return err
	}

	mode := classify(status)
	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()

	log.Printf("usbcharge: charging status %d (mode %d)\n", status, mode)
	return nil
}

func classify(status uint64) int8 {
	switch status {
	case statusOff:
		return 0
	case statusLimit10, statusLimit20, statusLimit30:
		return 1
	}
	return -1
}

func (c *Control) queryStatus() (uint64, error) {
	val, err := c.WMI.Evaluate(wmid.NamespaceApgeAction, wmid.MethodApgeGet, wmid.EncodeApgeOperand(operandQueryStatus))
	if err != nil {
		return 0, errors.Wrap(err, "usbcharge: status query failed")
	}
	status, err := val.Uint64()
	if err != nil {
		return 0, errors.Wrap(err, "usbcharge: malformed status response")
	}
	return status, nil
}

func (c *Control) exec(operand uint64) (uint64, error) {
	val, err := c.WMI.Evaluate(wmid.NamespaceApgeAction, wmid.MethodApgeSet, wmid.EncodeApgeOperand(operand))
	if err != nil {
		return 0, errors.Wrap(err, "usbcharge: set call failed")
	}
	result, err := val.Uint64()
	if err != nil {
		return 0, errors.Wrap(err, "usbcharge: malformed set response")
	}
	return result, nil
}

// Mode returns the cached charging mode: -1 unknown, 0 off, 1 on
func (c *Control) Mode() int8 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.mode
}

// SetMode turns usb charging on (at the 30% limit) or off
func (c *Control) SetMode(enable bool) error {
	if !c.Supported {
		return ErrUnsupported
	}

	operand := operandOff
	if enable {
		operand = operandLimit30
	}

	result, err := c.exec(operand)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if enable {
		c.mode = 1
	} else {
		c.mode = 0
	}
	c.mu.Unlock()

	log.Printf("usbcharge: charging mode set, firmware returned %d\n", result)
	return nil
}

// Limit queries the current charging limit percentage. A status outside
// the known table (including off) reads as -1.
func (c *Control) Limit() (int, error) {
	if !c.Supported {
		return 0, ErrUnsupported
	}

	status, err := c.queryStatus()
	if err != nil {
		return 0, err
	}

	switch status {
	case statusLimit10:
		return 10, nil
	case statusLimit20:
		return 20, nil
	case statusLimit30:
		return 30, nil
	}
	return -1, nil
}

// SetLimit sets the charging limit percentage. Refused while charging
// is cached off.
func (c *Control) SetLimit(pct int) error {
	if !c.Supported {
		return ErrUnsupported
	}
	if c.Mode() == 0 {
		return ErrChargingOff
	}

	var operand uint64
	switch pct {
	case 10:
		operand = operandLimit10
	case 20:
		operand = operandLimit20
	case 30:
		operand = operandLimit30
	default:
		return ErrInvalidLimit
	}

	result, err := c.exec(operand)
	if err != nil {
		return err
	}

	log.Printf("usbcharge: charging limit set to %d%%, firmware returned %d\n", pct, result)
	return nil
}
