package xusb

import "fmt"

// VendorXorcom is the USB vendor ID of every Astribank family device.
const VendorXorcom = 0xE4E4

// Spec identifies a device model and the interface the host talks to.
type Spec struct {
	Name      string
	Vendor    uint16
	Product   uint16
	Interface int
}

func (s Spec) String() string {
	return fmt.Sprintf("%s [%04X:%04X/%d]", s.Name, s.Vendor, s.Product, s.Interface)
}

// Matches reports whether the vendor and product IDs belong to s.
func (s Spec) Matches(vendor, product uint16) bool {
	return s.Vendor == vendor && s.Product == product
}

// KnownSpecs lists the supported products.
var KnownSpecs = []Spec{
	{Name: "old-astribank-NOFW", Vendor: VendorXorcom, Product: 0x1150, Interface: 1},
	{Name: "old-astribank-USB", Vendor: VendorXorcom, Product: 0x1151, Interface: 1},
	{Name: "old-astribank-FPGA", Vendor: VendorXorcom, Product: 0x1152, Interface: 1},
	{Name: "astribank2-NOFW", Vendor: VendorXorcom, Product: 0x1160, Interface: 1},
	{Name: "astribank2-USB", Vendor: VendorXorcom, Product: 0x1161, Interface: 1},
	{Name: "astribank2-FPGA", Vendor: VendorXorcom, Product: 0x1162, Interface: 1},
	{Name: "astribank2-TWINSTAR", Vendor: VendorXorcom, Product: 0x1163, Interface: 1},
	{Name: "xpanel", Vendor: VendorXorcom, Product: 0x1191, Interface: 1},
	{Name: "multi-ps", Vendor: VendorXorcom, Product: 0x1183, Interface: 1},
	{Name: "auth-dongle", Vendor: VendorXorcom, Product: 0x11A3, Interface: 0},
	{Name: "iwc", Vendor: VendorXorcom, Product: 0xBB01, Interface: 0},
}

// LookupSpec finds the entry of specs matching vendor and product.
func LookupSpec(specs []Spec, vendor, product uint16) (Spec, bool) {
	for _, s := range specs {
		if s.Matches(vendor, product) {
			return s, true
		}
	}
	return Spec{}, false
}

// BypathSpec stands in for the spec of a device found by path, whatever its
// product ID.
var BypathSpec = Spec{Name: "<BYPATH>", Interface: -1}

// skipClearHalt reports products that stall when their endpoints are reset.
func skipClearHalt(vendor, product uint16) bool {
	return vendor == VendorXorcom && product == 0x11A3
}
