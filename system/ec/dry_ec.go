package ec

import (
	"log"
	"sync"
)

type dryEC struct {
	mu        sync.Mutex
	registers map[uint8]uint8
}

var _ EC = &dryEC{}

// NewDryEC returns an EC without actual IOs, backed by an in-memory
// register file
func NewDryEC() (EC, error) {
	return &dryEC{
		registers: make(map[uint8]uint8),
	}, nil
}

func (d *dryEC) Read(offset uint8) (uint8, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	value := d.registers[offset]
	log.Printf("[dry run] ec: read register %#x: %d\n", offset, value)
	return value, nil
}

func (d *dryEC) Write(offset uint8, value uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	log.Printf("[dry run] ec: write register %#x: %d\n", offset, value)
	d.registers[offset] = value
	return nil
}

func (d *dryEC) Close() error {
	return nil
}
