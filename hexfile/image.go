package hexfile

// Image represents a complete parsed Intel HEX firmware file.
type Image struct {
	// Version is the tag from a "# Version:" comment, empty when absent
	Version string

	// Records contains the data records in file order
	Records []*Record
}

// Record is one data record with its address resolved against the
// extended segment or linear base in effect.
type Record struct {
	// Address is the absolute load address
	Address uint32

	// Data is the record payload
	Data []byte
}

// Segment is a chunk of image data addressed by the 16-bit offset the
// device upload protocol carries.
type Segment struct {
	Offset uint16
	Data   []byte
}

// Size returns the total number of data bytes.
func (img *Image) Size() int {
	n := 0
	for _, r := range img.Records {
		n += len(r.Data)
	}
	return n
}

// VersionTag returns the version as the fixed-size tag sent when an
// upload starts: truncated or NUL padded to n bytes.
func (img *Image) VersionTag(n int) []byte {
	tag := make([]byte, n)
	copy(tag, img.Version)
	return tag
}

// Segments splits every record into segments of at most max bytes.
// Offsets are the low 16 bits of the record address.
func (img *Image) Segments(max int) []Segment {
	if max <= 0 {
		max = 1
	}
	segs := make([]Segment, 0, len(img.Records))
	for _, r := range img.Records {
		for off := 0; off < len(r.Data); off += max {
			end := off + max
			if end > len(r.Data) {
				end = len(r.Data)
			}
			segs = append(segs, Segment{
				Offset: uint16(r.Address + uint32(off)),
				Data:   r.Data[off:end],
			})
		}
	}
	return segs
}
