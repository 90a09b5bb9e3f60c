package hexfile

// Checksum computes the Intel HEX record checksum: the two's complement of
// the byte sum of length, address, type and data. A valid record's bytes,
// checksum included, sum to zero.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum + 1
}
