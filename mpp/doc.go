// Package mpp implements MPP, the Astribank management dialect of XTALK.
//
// # Overview
//
// An Astribank exposes its management functions on USB interface 1. MPP
// layers over the synchronous XTALK engine and covers:
//   - Status: EEPROM type, FPGA state and firmware versions
//   - Identity and licensing: EEPROM table, capabilities, vendor text
//   - Firmware upload to the FPGA or the EEPROM (start, segments, end)
//   - TwinStar: watchdog, active USB port and power state
//   - A serial tunnel to the FPGA for card inventory
//
// # Basic Usage
//
//	dev, err := mpp.New(iface)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	if err := dev.StatusQuery(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	if err := dev.ShowHardware(ctx, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
//
// # Firmware Upload
//
// An upload is a session: SendStart, any number of SendSeg calls, SendEnd.
// Segments are refused unless the session is started, and any failure
// leaves the session FAILED. There is no retry; package firmware drives a
// whole image through a session.
package mpp
