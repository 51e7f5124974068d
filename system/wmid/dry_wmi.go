package wmid

import (
	"log"
)

type dryWmi struct{}

var _ WMI = &dryWmi{}

// NewDryWMI returns a WMI without actual IOs. The battery query reports
// both functions available with health mode on, and the ApgeAction get
// reports usb charging off, so every controller has something to chew on.
func NewDryWMI() (WMI, error) {
	return &dryWmi{}, nil
}

func (d *dryWmi) Has(ns Namespace) bool {
	return true
}

func (d *dryWmi) Evaluate(ns Namespace, method uint32, args []byte) (Value, error) {
	log.Printf("[dry run] wmid: evaluate %s method %d args: %+v\n", ns, method, args)

	if ns == NamespaceApgeAction {
		return BufferValue(EncodeApgeOperand(663296)), nil
	}
	switch method {
	case MethodGetBatteryControl:
		return BufferValue([]byte{0x03, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}), nil
	case MethodSetBatteryControl:
		return BufferValue(make([]byte, setBatteryControlResponseLength)), nil
	}
	return Value{}, ErrNamespaceUnavailable
}

func (d *dryWmi) Close() error {
	return nil
}
