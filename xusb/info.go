package xusb

import (
	"fmt"
	"io"
)

// Info describes a device as found on the bus.
type Info struct {
	Bus          int
	Address      int
	Vendor       uint16
	Product      uint16
	SpecName     string
	Manufacturer string
	ProductName  string
	Serial       string
	Open         bool
	Interfaces   []IfaceInfo
}

// IfaceInfo describes one interface of a device.
type IfaceInfo struct {
	Number  int
	EpOut   uint8
	EpIn    uint8
	Claimed bool
	Name    string
}

// DevPath returns the "BBB/DDD" bus path of the device.
func (i Info) DevPath() string {
	return DevPath(i.Bus, i.Address)
}

// ShowInfo prints i. The short form is a single line; the long form lists
// the string descriptors and every interface.
func ShowInfo(w io.Writer, i Info, long bool) {
	if !long {
		fmt.Fprintf(w, "%s: [%04X:%04X] [%s / %s / %s]\n",
			i.DevPath(), i.Vendor, i.Product, i.Manufacturer, i.ProductName, i.Serial)
		return
	}
	state := "closed"
	if i.Open {
		state = "open"
	}
	fmt.Fprintf(w, "USB    Bus/Device:    [%03d/%03d] (%s)\n", i.Bus, i.Address, state)
	fmt.Fprintf(w, "USB    Spec name:     [%s]\n", i.SpecName)
	fmt.Fprintf(w, "USB    iManufacturer: [%s]\n", i.Manufacturer)
	fmt.Fprintf(w, "USB    iProduct:      [%s]\n", i.ProductName)
	fmt.Fprintf(w, "USB    iSerialNumber: [%s]\n", i.Serial)
	for _, it := range i.Interfaces {
		claimed := 0
		if it.Claimed {
			claimed = 1
		}
		fmt.Fprintf(w, "USB    Interface[%d]:  ep_out=0x%02X ep_in=0x%02X claimed=%d [%s]\n",
			it.Number, it.EpOut, it.EpIn, claimed, it.Name)
	}
}
