package protocol

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a one-line hex rendering of frame to w, prefixed by prefix.
// The header fields are decoded when enough bytes are present.
func Dump(w io.Writer, prefix string, frame []byte) {
	fmt.Fprintln(w, FormatFrame(prefix, frame))
}

// FormatFrame renders frame as "prefix: [len=N seq=N op=0xNN] XX XX ...".
func FormatFrame(prefix string, frame []byte) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteString(":")
	if h, err := DecodeHeader(frame); err == nil {
		fmt.Fprintf(&sb, " [len=%d seq=%d op=%s]", h.Len, h.Seq, h.Op)
	}
	for _, b := range frame {
		fmt.Fprintf(&sb, " %02X", b)
	}
	return sb.String()
}
