// Package xusb finds Astribank family devices on the USB bus and exposes
// their bulk interfaces as xtalk transports.
//
// Devices are located by product (Bus.Find, Bus.OpenOne) or by bus path
// (Bus.FindByPath, accepting "BBB/DDD" or any path ending in it). Scans
// are serialised across processes with an advisory file lock.
//
//	bus := xusb.NewBus(xusb.WithOptions(opts))
//	defer bus.Close()
//	dev, err := bus.FindByPath("/dev/bus/usb/001/004")
//	if err != nil {
//		return err
//	}
//	defer dev.Close()
//	iface, err := dev.Claim(1)
//	if err != nil {
//		return err
//	}
//	s, err := xtalk.NewSync(iface)
//
// Transport options come from the XTALK_OPTIONS environment variable or,
// when it is unset, the XTALK_OPTIONS line of /etc/dahdi/xpp.conf.
package xusb
