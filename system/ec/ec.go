package ec

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"golang.org/x/sys/windows"
)

// The EC is reached through the standard ACPI port pair. Port access
// from userspace requires the inpoutx64 kernel driver.
const (
	dataPort    = 0x62
	commandPort = 0x66

	readCommand  = 0x80
	writeCommand = 0x81

	statusIBF = 1 // Input Buffer Full bit
	statusOBF = 0 // Output Buffer Full bit

	dllName = "inpoutx64.dll"
)

// EC provides byte-level access to embedded controller registers
type EC interface {
	Read(offset uint8) (uint8, error)
	Write(offset uint8, value uint8) error
	Close() error
}

type portIO struct {
	dll   *windows.LazyDLL
	out32 *windows.LazyProc
	inp32 *windows.LazyProc
	mu    sync.Mutex
}

var _ EC = &portIO{}

// NewEC loads the port driver and returns an EC register accessor
func NewEC() (EC, error) {
	dll := windows.NewLazyDLL(dllName)
	if err := dll.Load(); err != nil {
		return nil, errors.Wrapf(err, "ec: cannot load %s", dllName)
	}
	out32 := dll.NewProc("Out32")
	inp32 := dll.NewProc("Inp32")
	if err := out32.Find(); err != nil {
		return nil, errors.Wrapf(err, "ec: Out32 not found in %s", dllName)
	}
	if err := inp32.Find(); err != nil {
		return nil, errors.Wrapf(err, "ec: Inp32 not found in %s", dllName)
	}

	return &portIO{
		dll:   dll,
		out32: out32,
		inp32: inp32,
	}, nil
}

// Read queries the value of one EC register
func (d *portIO) Read(offset uint8) (uint8, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.waitInputClear(); err != nil {
		return 0, err
	}
	d.out32.Call(uintptr(commandPort), uintptr(readCommand))

	if err := d.waitInputClear(); err != nil {
		return 0, err
	}
	d.out32.Call(uintptr(dataPort), uintptr(offset))

	if err := d.waitOutputFull(); err != nil {
		return 0, err
	}
	result, _, _ := d.inp32.Call(uintptr(dataPort))
	return uint8(result), nil
}

// Write sets the value of one EC register
func (d *portIO) Write(offset uint8, value uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.waitInputClear(); err != nil {
		return err
	}
	d.out32.Call(uintptr(commandPort), uintptr(writeCommand))

	if err := d.waitInputClear(); err != nil {
		return err
	}
	d.out32.Call(uintptr(dataPort), uintptr(offset))

	if err := d.waitInputClear(); err != nil {
		return err
	}
	d.out32.Call(uintptr(dataPort), uintptr(value))

	return nil
}

func (d *portIO) Close() error {
	return nil
}

// waitInputClear waits until the EC is ready to accept a command or data
func (d *portIO) waitInputClear() error {
	for i := 0; i < 100; i++ {
		status, _, _ := d.inp32.Call(uintptr(commandPort))
		if status&(1<<statusIBF) == 0 {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
	return errors.New("ec: timeout waiting for input buffer to clear")
}

// waitOutputFull waits until the EC has data ready for us to read
func (d *portIO) waitOutputFull() error {
	for i := 0; i < 100; i++ {
		status, _, _ := d.inp32.Call(uintptr(commandPort))
		if status&(1<<statusOBF) != 0 {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
	return errors.New("ec: timeout waiting for output buffer to fill")
}
