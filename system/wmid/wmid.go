package wmid

import (
	"encoding/binary"
	"log"

	"github.com/tenseventyseven/AcerManager/system/device"

	"github.com/pkg/errors"
)

const devicePath = `\\.\WMIDACPI`

// control code is IOCTL_WMID_ACPI_FUNCTION
const controlCode = uint32(2240524)

// ErrNamespaceUnavailable is returned when the firmware does not expose
// the requested namespace on this machine. Checked before any call.
var ErrNamespaceUnavailable = errors.New("firmware namespace is not available")

// WMI provides access to the Acer WMID firmware namespaces
type WMI interface {
	// Has reports whether the firmware exposes the given namespace
	Has(ns Namespace) bool
	// Evaluate invokes a method in the given namespace with an encoded
	// request buffer, and returns the firmware's typed value
	Evaluate(ns Namespace, method uint32, args []byte) (Value, error)
	Close() error
}

type wmidControl struct {
	device     *device.Control
	namespaces uint32
}

var _ WMI = &wmidControl{}

// NewWMI opens the ACPI bridge device and probes which firmware
// namespaces this machine exposes
func NewWMI() (WMI, error) {
	dev, err := device.NewControl(device.Config{
		Path:        devicePath,
		ControlCode: controlCode,
	})
	if err != nil {
		return nil, errors.Wrap(err, "wmid: cannot open ACPI bridge device")
	}
	w := &wmidControl{
		device: dev,
	}
	if err := w.initialize(); err != nil {
		dev.Close()
		return nil, err
	}
	return w, nil
}

// initialize issues the bridge INIT call. The 4-byte response is a
// bitmask of the namespaces registered with the firmware, indexed by
// Namespace.
func (w *wmidControl) initialize() error {
	buf := make([]byte, 12)
	copy(buf[0:], initTag)
	// method and argument length words stay zero for INIT
	out, err := w.device.Execute(buf, 4)
	if err != nil {
		return errors.Wrap(err, "wmid: cannot initialize ACPI bridge")
	}
	w.namespaces = binary.LittleEndian.Uint32(out)
	log.Printf("wmid: firmware namespace bitmask: %#x\n", w.namespaces)
	return nil
}

func (w *wmidControl) Has(ns Namespace) bool {
	return w.namespaces&(1<<uint32(ns)) != 0
}

func (w *wmidControl) Evaluate(ns Namespace, method uint32, args []byte) (Value, error) {
	if !w.Has(ns) {
		return Value{}, ErrNamespaceUnavailable
	}
	buf := make([]byte, 12+len(args))
	copy(buf[0:], ns.tag())
	binary.LittleEndian.PutUint32(buf[4:], method)
	binary.LittleEndian.PutUint32(buf[8:], uint32(len(args)))
	copy(buf[12:], args)
	out, err := w.device.Execute(buf, responseLength(ns, method))
	if err != nil {
		return Value{}, errors.Wrapf(err, "wmid: %s method %d call failed", ns, method)
	}
	return BufferValue(out), nil
}

func (w *wmidControl) Close() error {
	return w.device.Close()
}
