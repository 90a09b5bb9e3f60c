package hexfile

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Intel HEX record types.
const (
	RecordData                   = 0x00
	RecordEOF                    = 0x01
	RecordExtendedSegmentAddress = 0x02
	RecordStartSegmentAddress    = 0x03
	RecordExtendedLinearAddress  = 0x04
	RecordStartLinearAddress     = 0x05
)

// Constants for record parsing.
const (
	// MinimumRecordBytes is length, address(2), type and checksum
	MinimumRecordBytes = 5

	// DefaultRecordCapacity is the default initial capacity for the records slice
	DefaultRecordCapacity = 256

	versionPrefix = "Version:"
)

// Parse parses an Intel HEX file from the given file path.
// Returns the complete image or an error if parsing fails.
//
// Example:
//
//	img, err := hexfile.Parse("FPGA_1161.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Version: %s, %d bytes\n", img.Version, img.Size())
func Parse(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader parses an Intel HEX image from any io.Reader.
//
// Lines starting with '#' are comments; "# Version: <tag>" sets the image
// version. Blank lines are skipped. The EOF record is required and ends
// parsing.
func ParseReader(r io.Reader) (*Image, error) {
	scanner := bufio.NewScanner(r)
	img := &Image{Records: make([]*Record, 0, DefaultRecordCapacity)}

	var base uint32
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}
		if line[0] == '#' {
			if v, ok := parseVersionComment(line); ok {
				img.Version = v
			}
			continue
		}

		rec, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		switch rec.kind {
		case RecordData:
			img.Records = append(img.Records, &Record{
				Address: base + uint32(rec.address),
				Data:    rec.data,
			})
		case RecordEOF:
			return img, nil
		case RecordExtendedSegmentAddress:
			if len(rec.data) != 2 {
				return nil, fmt.Errorf("line %d: extended segment address needs 2 bytes, got %d", lineNum, len(rec.data))
			}
			base = (uint32(rec.data[0])<<8 | uint32(rec.data[1])) << 4
		case RecordExtendedLinearAddress:
			if len(rec.data) != 2 {
				return nil, fmt.Errorf("line %d: extended linear address needs 2 bytes, got %d", lineNum, len(rec.data))
			}
			base = (uint32(rec.data[0])<<8 | uint32(rec.data[1])) << 16
		case RecordStartSegmentAddress, RecordStartLinearAddress:
			// entry points do not affect the loaded data
		default:
			return nil, fmt.Errorf("line %d: unknown record type 0x%02X", lineNum, rec.kind)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return nil, fmt.Errorf("missing EOF record")
}

type record struct {
	kind    byte
	address uint16
	data    []byte
}

// parseRecord decodes one record line.
//
// Record format (hex characters after ':'):
//
//	[LEN(2)][ADDRESS(4)][TYPE(2)][DATA(2*LEN)][CHECKSUM(2)]
//
// The address is big-endian.
func parseRecord(line string) (*record, error) {
	if line[0] != ':' {
		return nil, fmt.Errorf("record must start with ':'")
	}

	data, err := hex.DecodeString(line[1:])
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	if len(data) < MinimumRecordBytes {
		return nil, fmt.Errorf("record too short: got %d bytes, minimum is %d", len(data), MinimumRecordBytes)
	}

	dataLen := int(data[0])
	expectedLen := MinimumRecordBytes + dataLen
	if len(data) != expectedLen {
		return nil, fmt.Errorf("data length mismatch: got %d bytes, expected %d (data=%d)",
			len(data), expectedLen, dataLen)
	}

	checksum := data[len(data)-1]
	calculated := Checksum(data[:len(data)-1])
	if checksum != calculated {
		return nil, fmt.Errorf("checksum mismatch: got 0x%02X, expected 0x%02X", checksum, calculated)
	}

	rec := &record{
		kind:    data[3],
		address: uint16(data[1])<<8 | uint16(data[2]),
		data:    make([]byte, dataLen),
	}
	copy(rec.data, data[4:4+dataLen])
	return rec, nil
}

func parseVersionComment(line string) (string, bool) {
	body := strings.TrimSpace(strings.TrimLeft(line, "#"))
	if !strings.HasPrefix(body, versionPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(body, versionPrefix)), true
}
