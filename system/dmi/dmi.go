package dmi

import (
	"log"

	"github.com/bi-zone/wmi"
	"github.com/pkg/errors"
)

// Win32_ComputerSystem is the subset of the WMI class we care about
type Win32_ComputerSystem struct {
	Manufacturer string
	Model        string
}

// Identity is the vendor/product pair reported by SMBIOS
type Identity struct {
	Vendor  string
	Product string
}

// Read queries WMI for the machine identity used by the quirk table
func Read() (Identity, error) {
	var dst []Win32_ComputerSystem
	q := wmi.CreateQuery(&dst, "")
	if err := wmi.Query(q, &dst); err != nil {
		return Identity{}, errors.Wrap(err, "dmi: cannot query computer system")
	}
	if len(dst) == 0 {
		return Identity{}, errors.New("dmi: no computer system instance")
	}

	id := Identity{
		Vendor:  dst[0].Manufacturer,
		Product: dst[0].Model,
	}
	log.Printf("dmi: %s %s\n", id.Vendor, id.Product)

	return id, nil
}
