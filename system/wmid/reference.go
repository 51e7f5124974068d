package wmid

// Namespace identifies one of the two Acer WMID firmware method groups.
type Namespace uint32

const (
	// NamespaceBatteryControl is the battery health control namespace
	// (GUID 79772EC5-04B1-4BFD-843C-61E7F77B6CC9)
	NamespaceBatteryControl Namespace = iota
	// NamespaceApgeAction is the generic 64-bit get/set namespace
	// (GUID 61EF69EA-865C-4BC3-A502-A0DEBA0CB531)
	NamespaceApgeAction
)

func (n Namespace) String() string {
	return [...]string{"BatteryControl", "ApgeAction"}[n]
}

// Method IDs in the battery control namespace. Both operate on fixed-size
// buffers declared by the firmware.
const (
	MethodGetBatteryControl uint32 = 20
	MethodSetBatteryControl uint32 = 21
)

// Function selectors in the ApgeAction namespace. Both take a single
// 64-bit operand.
const (
	MethodApgeSet uint32 = 1
	MethodApgeGet uint32 = 2
)

// Buffer lengths declared by the firmware for each call shape. A response
// of any other length is an error, never a partial decode.
const (
	getBatteryControlRequestLength  = 4
	getBatteryControlResponseLength = 8
	setBatteryControlRequestLength  = 8
	setBatteryControlResponseLength = 4
	apgeOperandLength               = 8
	apgeResponseLength              = 8
)

// Defines the namespace tags understood by the ACPI bridge driver.
// The bridge expects the 4 ASCII characters reversed in the buffer
// because of endianess, same as the method and length words that follow.
var (
	batteryControlTag = []byte{0x43, 0x42, 0x4d, 0x57} // WMBC
	apgeActionTag     = []byte{0x45, 0x47, 0x50, 0x41} // APGE
	initTag           = []byte{0x54, 0x49, 0x4e, 0x49} // INIT
)

func (n Namespace) tag() []byte {
	switch n {
	case NamespaceBatteryControl:
		return batteryControlTag
	case NamespaceApgeAction:
		return apgeActionTag
	}
	return nil
}

// responseLength returns the output buffer length the firmware declares
// for the given call shape
func responseLength(ns Namespace, method uint32) int {
	if ns == NamespaceApgeAction {
		return apgeResponseLength
	}
	switch method {
	case MethodGetBatteryControl:
		return getBatteryControlResponseLength
	case MethodSetBatteryControl:
		return setBatteryControlResponseLength
	}
	return 0
}
