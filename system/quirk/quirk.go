package quirk

import (
	"log"
)

// Entry describes the per-model feature enables. Battery health and
// calibration support are not listed here because the firmware reports
// them at query time.
type Entry struct {
	SystemControlMode bool
	USBChargeMode     bool
}

var (
	quirkUnknown = Entry{}

	quirkSystemControlMode = Entry{
		SystemControlMode: true,
	}

	quirkSwiftSFG1473 = Entry{
		SystemControlMode: true,
		USBChargeMode:     true,
	}
)

type match struct {
	vendor  string
	product string
	entry   Entry
}

// Only models verified against real firmware are listed. First match wins.
var table = []match{
	{
		vendor:  "Acer",
		product: "Swift SFG14-73",
		entry:   quirkSwiftSFG1473,
	},
	{
		vendor:  "Acer",
		product: "Swift SFG14-71",
		entry:   quirkSystemControlMode,
	},
}

// Resolve returns the feature entry for the given device identity. An
// identity not in the table resolves to the all-disabled entry.
func Resolve(vendor, product string) Entry {
	for _, m := range table {
		if m.vendor == vendor && m.product == product {
			log.Printf("quirk: matched %s %s\n", m.vendor, m.product)
			return m.entry
		}
	}
	log.Printf("quirk: no entry for %s %s, features disabled\n", vendor, product)
	return quirkUnknown
}
