package controller

import (
	"log"

	"github.com/tenseventyseven/AcerManager/system/battery"
	"github.com/tenseventyseven/AcerManager/system/dmi"
	"github.com/tenseventyseven/AcerManager/system/ec"
	"github.com/tenseventyseven/AcerManager/system/persist"
	"github.com/tenseventyseven/AcerManager/system/profile"
	"github.com/tenseventyseven/AcerManager/system/quirk"
	"github.com/tenseventyseven/AcerManager/system/sysmode"
	"github.com/tenseventyseven/AcerManager/system/usbcharge"
	"github.com/tenseventyseven/AcerManager/system/wmid"
	"github.com/tenseventyseven/AcerManager/util"
)

// RunConfig contains the start up configuration for the controller
type RunConfig struct {
	DryRun bool

	// Start up mode overrides from the command line. -1 leaves the
	// firmware state alone.
	InitialHealthMode        int
	InitialSystemControlMode int

	NotifierCh chan<- util.Notification
	Registrar  profile.Registrar
}

// Dependencies contains the dependencies for the controller
type Dependencies struct {
	WMI    wmid.WMI
	EC     ec.EC
	Quirks quirk.Entry

	Battery        *battery.Control
	USBCharge      *usbcharge.Control
	SysMode        *sysmode.Control
	Profile        *profile.Adapter
	ConfigRegistry persist.ConfigRegistry
}

// GetDependencies returns the required dependencies for the controller,
// resolving the model quirk table against the machine identity
func GetDependencies(conf RunConfig) (*Dependencies, error) {

	var wmi wmid.WMI
	var identity dmi.Identity
	var config persist.ConfigRegistry
	var err error

	if conf.DryRun {
		wmi, _ = wmid.NewDryWMI()
		config, _ = persist.NewDryConfigHelper()
		identity = dmi.Identity{
			Vendor:  "Acer",
			Product: "Swift SFG14-73",
		}
	} else {
		wmi, err = wmid.NewWMI()
		if err != nil {
			return nil, err
		}
		config, _ = persist.NewRegistryConfigHelper()
		identity, err = dmi.Read()
		if err != nil {
			return nil, err
		}
	}

	quirks := quirk.Resolve(identity.Vendor, identity.Product)

	// the port driver is only worth loading when the EC register is
	// actually reachable on this model
	var embedded ec.EC
	if conf.DryRun || !quirks.SystemControlMode {
		embedded, _ = ec.NewDryEC()
	} else {
		embedded, err = ec.NewEC()
		if err != nil {
			return nil, err
		}
	}

	batteryCtrl, err := battery.NewControl(wmi)
	if err != nil {
		return nil, err
	}

	usbChargeCtrl, err := usbcharge.NewControl(usbcharge.Config{
		WMI:       wmi,
		Supported: quirks.USBChargeMode,
	})
	if err != nil {
		return nil, err
	}

	sysModeCtrl, err := sysmode.NewControl(sysmode.Config{
		EC:        embedded,
		Supported: quirks.SystemControlMode,
	})
	if err != nil {
		return nil, err
	}

	profileAdapter, err := profile.NewAdapter(sysModeCtrl)
	if err != nil {
		return nil, err
	}

	config.Register(batteryCtrl)
	config.Register(sysModeCtrl)

	log.Printf("[controller] quirks for %s %s: %+v\n", identity.Vendor, identity.Product, quirks)

	return &Dependencies{
		WMI:            wmi,
		EC:             embedded,
		Quirks:         quirks,
		Battery:        batteryCtrl,
		USBCharge:      usbChargeCtrl,
		SysMode:        sysModeCtrl,
		Profile:        profileAdapter,
		ConfigRegistry: config,
	}, nil
}
