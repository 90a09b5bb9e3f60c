// Package firmware uploads Intel HEX images to an Astribank.
//
// The upload runs over the MPP interface as one session:
//
//	DEV_SEND_START(dest, version)
//	DEV_SEND_SEG(offset, data) ... once per segment
//	DEV_SEND_END
//
// The destination is either the FPGA (the image is loaded and the
// device renumerates afterwards) or the EEPROM.
//
// # Basic Usage
//
//	img, err := hexfile.Parse("FPGA_1161.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	dev, err := mpp.New(transport)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	prog := firmware.New(dev)
//	if err := prog.Program(context.Background(), img, mpp.DestFPGA); err != nil {
//	    log.Fatal(err)
//	}
//
// # Progress Tracking
//
//	prog := firmware.New(dev,
//	    firmware.WithProgressCallback(func(p firmware.Progress) {
//	        fmt.Printf("[%s] %.1f%% - Segment %d/%d\n",
//	            p.Phase, p.Percentage, p.CurrentSegment, p.TotalSegments)
//	    }),
//	)
//
// # Error Handling
//
// Errors from the device are wrapped, so errors.As finds the
// *protocol.ProtocolError carrying the device status. A refused segment is
// reported as a *SegmentError and leaves the session FAILED; nothing is
// retried.
package firmware
