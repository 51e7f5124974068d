package sysmode

import (
	"log"
	"sync"

	"github.com/tenseventyseven/AcerManager/system/ec"
	"github.com/tenseventyseven/AcerManager/system/persist"

	"github.com/pkg/errors"
)

const persistKey = "SystemControlMode"

// controlModeOffset is the EC register holding the system control mode
const controlModeOffset = 0x45

// System control modes understood by the EC
const (
	ModeBalanced    uint8 = 1
	ModeSilent      uint8 = 2
	ModePerformance uint8 = 3
)

var (
	// ErrUnsupported is returned when the model quirk does not enable
	// system control mode
	ErrUnsupported = errors.New("system control mode is not supported on this model")
	// ErrInvalidMode is returned for a mode code outside the three
	// defined ones
	ErrInvalidMode = errors.New("invalid system control mode")
)

// Config contains the EC interface and the model quirk gate
type Config struct {
	EC        ec.EC
	Supported bool
}

// Control drives the system control mode register. No read is valid
// before the first successful register read; Initialize performs it and
// later calls are no-ops.
type Control struct {
	Config

	mu      sync.RWMutex
	current int16
	loaded  int16
}

func NewControl(conf Config) (*Control, error) {
	if conf.EC == nil {
		return nil, errors.New("nil EC is invalid")
	}
	return &Control{
		Config:  conf,
		current: -1,
		loaded:  -1,
	}, nil
}

// Initialize reads the current mode from the EC register
func (c *Control) Initialize() error {
	if !c.Supported {
		return ErrUnsupported
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current >= 0 {
		return nil
	}

	value, err := c.EC.Read(controlModeOffset)
	if err != nil {
		return errors.Wrap(err, "sysmode: cannot read control mode register")
	}
	c.current = int16(value)
	log.Printf("sysmode: current system control mode: %d\n", c.current)

	return nil
}

// Current returns the cached mode code, or -1 before the first
// successful register read
func (c *Control) Current() int16 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.current
}

// Set writes the mode code to the EC register. Setting the current mode
// again is a success without touching the register.
func (c *Control) Set(mode uint8) error {
	if !c.Supported {
		return ErrUnsupported
	}
	if mode < ModeBalanced || mode > ModePerformance {
		return ErrInvalidMode
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if int16(mode) == c.current {
		return nil
	}

	if err := c.EC.Write(controlModeOffset, mode); err != nil {
		return errors.Wrap(err, "sysmode: cannot write control mode register")
	}
	c.current = int16(mode)
	log.Printf("sysmode: system control mode set to %d\n", mode)

	return nil
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

	if c.current < 0 {
		return nil
	}
	return []byte{byte(c.current)}
}

// Load satisfies persist.Registry
func (c *Control) Load(v []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(v) == 0 {
		return nil
	}
	c.loaded = int16(v[0])
	return nil
}

// Apply satisfies persist.Registry
func (c *Control) Apply() error {
	if !c.Supported {
		return nil
	}

	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()

	if loaded < 0 {
		return nil
	}
	return c.Set(uint8(loaded))
}

// Close satisfies persist.Registry
func (c *Control) Close() error {
	return c.EC.Close()
}
