package profile

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tenseventyseven/AcerManager/system/sysmode"

	"github.com/pkg/errors"
)

// Profile is the host power management framework's three-level
// operating mode abstraction
type Profile int

const (
	LowPower Profile = iota
	Balanced
	Performance
)

func (p Profile) String() string {
	return [...]string{"low-power", "balanced", "performance"}[p]
}

const (
	registerAttempts  = 10
	registerBaseDelay = 100 * time.Millisecond
	registerMaxDelay  = 1000 * time.Millisecond
)

// ErrUnsupported is returned when platform profiles cannot be served on
// this model
var ErrUnsupported = errors.New("platform profile is not supported")

// RegistrationError reports that registration with the host framework
// failed after every retry
type RegistrationError struct {
	Attempts int
	LastErr  error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("profile: registration failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *RegistrationError) Unwrap() error {
	return e.LastErr
}

// Registrar is the host framework's registration endpoint. Registration
// may fail transiently while the framework is still coming up.
type Registrar interface {
	Register(name string, adapter *Adapter) error
}

// Adapter bridges the host profile abstraction onto the system control
// mode register
type Adapter struct {
	sysmode *sysmode.Control
	sleep   func(time.Duration)
}

func NewAdapter(ctrl *sysmode.Control) (*Adapter, error) {
	if ctrl == nil {
		return nil, errors.New("nil sysmode control is invalid")
	}
	return &Adapter{
		sysmode: ctrl,
		sleep:   time.Sleep,
	}, nil
}

// Probe reports the supported profiles, lazily performing the control
// mode register initialization if it has not happened yet
func (a *Adapter) Probe() ([]Profile, error) {
	if err := a.sysmode.Initialize(); err != nil {
		if err == sysmode.ErrUnsupported {
			return nil, ErrUnsupported
		}
		return nil, err
	}
	return []Profile{LowPower, Balanced, Performance}, nil
}

// Get maps the current system control mode to a profile
func (a *Adapter) Get() (Profile, error) {
	switch a.sysmode.Current() {
	case int16(sysmode.ModeSilent):
		return LowPower, nil
	case int16(sysmode.ModeBalanced):
		return Balanced, nil
	case int16(sysmode.ModePerformance):
		return Performance, nil
	}
	return 0, ErrUnsupported
}

// Set maps the profile to a system control mode and delegates to the
// mode controller
func (a *Adapter) Set(p Profile) error {
	var mode uint8
	switch p {
	case LowPower:
		mode = sysmode.ModeSilent
	case Balanced:
		mode = sysmode.ModeBalanced
	case Performance:
		mode = sysmode.ModePerformance
	default:
		return ErrUnsupported
	}
	return a.sysmode.Set(mode)
}

// Register attaches the adapter to the host framework, retrying with
// capped exponential backoff. Runs once at start up; a failure here
// disables profile support but nothing else.
func (a *Adapter) Register(ctx context.Context, r Registrar) error {
	delay := registerBaseDelay
	var lastErr error
	for attempt := 1; attempt <= registerAttempts; attempt++ {
		lastErr = r.Register("acer-manager", a)
		if lastErr == nil {
			log.Printf("profile: registered with host framework (attempt %d)\n", attempt)
			return nil
		}
		log.Printf("profile: registration failed (attempt %d/%d): %v\n", attempt, registerAttempts, lastErr)

		if attempt < registerAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			a.sleep(delay)
			delay *= 2
			if delay > registerMaxDelay {
				delay = registerMaxDelay
			}
		}
	}
	return &RegistrationError{
		Attempts: registerAttempts,
		LastErr:  lastErr,
	}
}
