// Package hexfile parses Intel HEX firmware images.
//
// # Intel HEX Format
//
// Each record is a line of hex characters after a ':' marker:
//
//	[LEN(2)][ADDRESS(4)][TYPE(2)][DATA(2*LEN)][CHECKSUM(2)]
//
// Example record:
//
//	:0400100001020304E2
//	  04 = Data length
//	  0010 = Address (big-endian)
//	  00 = Record type (data)
//	  01020304 = Data
//	  E2 = Checksum (two's complement of the byte sum)
//
// Supported record types are data (00), end of file (01), extended segment
// address (02) and extended linear address (04). Start address records
// (03, 05) are accepted and ignored.
//
// Astribank firmware files carry comment lines starting with '#'. A
// comment of the form "# Version: <tag>" supplies the version tag sent to
// the device when an upload starts.
//
// # Usage
//
//	img, err := hexfile.Parse("USB_FW.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, seg := range img.Segments(64) {
//	    fmt.Printf("offset=0x%04X len=%d\n", seg.Offset, len(seg.Data))
//	}
//
// # Error Handling
//
// Parse returns detailed errors for invalid files, each with its line
// number: bad hex encoding, length mismatches, checksum mismatches, unknown
// record types and a missing EOF record.
package hexfile
