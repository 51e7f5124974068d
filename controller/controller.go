package controller

import (
	"context"
	"log"
	"time"

	"github.com/tenseventyseven/AcerManager/system/battery"
	"github.com/tenseventyseven/AcerManager/system/persist"
	"github.com/tenseventyseven/AcerManager/system/profile"
	"github.com/tenseventyseven/AcerManager/system/sysmode"
	"github.com/tenseventyseven/AcerManager/system/usbcharge"
	"github.com/tenseventyseven/AcerManager/system/wmid"
	"github.com/tenseventyseven/AcerManager/util"

	"github.com/pkg/errors"
)

const (
	fnRefreshState = iota // for debouncing firmware event driven refreshes
	fnPersistConfigs      // for debouncing persisting to Registry
)

// Config contains the configurations for the controller
type Config struct {
	WMI wmid.WMI

	Battery   *battery.Control
	USBCharge *usbcharge.Control
	SysMode   *sysmode.Control
	Profile   *profile.Adapter
	Registry  persist.ConfigRegistry

	Registrar profile.Registrar

	InitialHealthMode        int
	InitialSystemControlMode int

	NotifierCh chan<- util.Notification
}

type workQueue struct {
	noisy chan<- interface{}
	clean <-chan util.DebounceEvent
}

// Controller contains the state for the controller loop
type Controller struct {
	Config

	workQueueCh map[uint32]workQueue

	acpiCh chan uint32
}

// New validates the configuration and returns a runnable controller
func New(conf RunConfig, dep *Dependencies) (*Controller, error) {
	if dep == nil {
		return nil, errors.New("[controller] nil Dependencies is invalid")
	}
	return newController(Config{
		WMI:       dep.WMI,
		Battery:   dep.Battery,
		USBCharge: dep.USBCharge,
		SysMode:   dep.SysMode,
		Profile:   dep.Profile,
		Registry:  dep.ConfigRegistry,

		Registrar: conf.Registrar,

		InitialHealthMode:        conf.InitialHealthMode,
		InitialSystemControlMode: conf.InitialSystemControlMode,

		NotifierCh: conf.NotifierCh,
	})
}

func newController(conf Config) (*Controller, error) {
	if conf.WMI == nil {
		return nil, errors.New("[controller] nil WMI is invalid")
	}
	if conf.Battery == nil {
		return nil, errors.New("[controller] nil Battery is invalid")
	}
	if conf.USBCharge == nil {
		return nil, errors.New("[controller] nil USBCharge is invalid")
	}
	if conf.SysMode == nil {
		return nil, errors.New("[controller] nil SysMode is invalid")
	}
	if conf.Profile == nil {
		return nil, errors.New("[controller] nil Profile is invalid")
	}
	if conf.Registry == nil {
		return nil, errors.New("[controller] nil Registry is invalid")
	}
	return &Controller{
		Config: conf,

		workQueueCh: make(map[uint32]workQueue, 2),

		acpiCh: make(chan uint32, 1),
	}, nil
}

func (c *Controller) initialize(haltCtx context.Context) error {

	if err := c.Config.Battery.Initialize(); err != nil {
		return errors.Wrap(err, "[controller] cannot initialize battery control")
	}

	if err := c.Config.SysMode.Initialize(); err != nil && err != sysmode.ErrUnsupported {
		return errors.Wrap(err, "[controller] cannot initialize system control mode")
	}

	// usb charging degrading is not fatal, the rest of the controls
	// still work without it
	if err := c.Config.USBCharge.Initialize(); err != nil {
		log.Printf("[controller] usb charging unavailable: %v\n", err)
	}

	if err := c.Config.Registry.Load(); err != nil {
		return errors.Wrap(err, "[controller] cannot load configurations")
	}
	if err := c.Config.Registry.Apply(); err != nil {
		return errors.Wrap(err, "[controller] cannot apply configurations")
	}

	c.applyStartupModes()

	if err := wmid.NewEventListener(haltCtx, c.acpiCh); err != nil {
		// not every firmware revision fires events, keep running on the
		// debounced refresh path only
		log.Printf("[controller] cannot subscribe to firmware events: %v\n", err)
	}

	workQueueDebounced := []struct {
		code  uint32
		delay time.Duration
	}{
		{
			code:  fnRefreshState,
			delay: time.Millisecond * 500,
		},
		{
			code:  fnPersistConfigs,
			delay: time.Second,
		},
	}
	for _, work := range workQueueDebounced {
		in, out := util.Debounce(haltCtx, work.delay)
		c.workQueueCh[work.code] = workQueue{
			noisy: in,
			clean: out,
		}
	}

	return nil
}

func (c *Controller) applyStartupModes() {
	if c.Config.InitialHealthMode >= 0 {
		if err := c.Config.Battery.Set(battery.FunctionHealth, c.Config.InitialHealthMode > 0); err != nil {
			log.Printf("[controller] cannot apply start up health mode: %v\n", err)
		}
	}
	if c.Config.InitialSystemControlMode >= 0 {
		if err := c.Config.SysMode.Set(uint8(c.Config.InitialSystemControlMode)); err != nil {
			log.Printf("[controller] cannot apply start up system control mode: %v\n", err)
		}
	}
}

func (c *Controller) registerProfile(haltCtx context.Context) {
	if c.Config.Registrar == nil {
		return
	}
	go func() {
		if err := c.Config.Profile.Register(haltCtx, c.Config.Registrar); err != nil {
			log.Printf("[controller] platform profile unavailable: %v\n", err)
			c.notify(util.Notification{
				Title:   "Platform Profile",
				Message: "Profile switching is unavailable on this machine",
			})
			return
		}
		c.notify(util.Notification{
			Title:   "Platform Profile",
			Message: "Profile switching is ready",
		})
	}()
}

func (c *Controller) notify(n util.Notification) {
	if c.Config.NotifierCh == nil {
		return
	}
	select {
	case c.Config.NotifierCh <- n:
	default:
		log.Println("[controller] notifier channel full, dropping notification")
	}
}

// Run starts the controller loop and blocks until context cancel, or an
// error has occurred
func (c *Controller) Run(haltCtx context.Context) error {

	ctx, cancel := context.WithCancel(haltCtx)
	defer cancel()

	log.Println("[controller] starting controller loop")

	if err := c.initialize(ctx); err != nil {
		return errors.Wrap(err, "[controller] error initializing")
	}

	c.registerProfile(ctx)

	for {
		select {
		case ev := <-c.acpiCh:
			log.Printf("[controller] firmware event %d received\n", ev)
			c.workQueueCh[fnRefreshState].noisy <- ev

		case <-c.workQueueCh[fnRefreshState].clean:
			if err := c.Config.Battery.Refresh(); err != nil {
				log.Printf("[controller] battery refresh failed: %v\n", err)
			}
			c.workQueueCh[fnPersistConfigs].noisy <- struct{}{}

		case <-c.workQueueCh[fnPersistConfigs].clean:
			if err := c.Config.Registry.Save(); err != nil {
				log.Printf("[controller] cannot save configurations: %v\n", err)
			}

		case <-ctx.Done():
			log.Println("[controller] exiting controller loop")
			return nil
		}
	}
}

// Serve satisfies suture.Service
func (c *Controller) Serve(ctx context.Context) error {
	return c.Run(ctx)
}

func (c *Controller) String() string {
	return "Controller"
}
