package echo

import (
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

// MaxSpans is the number of PRI spans an echo canceller serves.
const MaxSpans = 4

// Codec is the TDM companding law of a span.
type Codec uint8

const (
	CodecUnknown Codec = iota
	CodecALaw
	CodecULaw
)

func (c Codec) String() string {
	switch c {
	case CodecALaw:
		return "alaw"
	case CodecULaw:
		return "ulaw"
	}
	return "unknown"
}

// DefaultCodec returns A-law when alaw is set, µ-law otherwise.
func DefaultCodec(alaw bool) Codec {
	if alaw {
		return CodecALaw
	}
	return CodecULaw
}

// SpanSpecs holds the codec of every span.
type SpanSpecs struct {
	Codecs  [MaxSpans]Codec
	Default Codec
}

// Codec returns the codec of span n, counted from 0.
func (s SpanSpecs) Codec(n int) Codec {
	if n < 0 || n >= MaxSpans {
		return CodecUnknown
	}
	return s.Codecs[n]
}

// Print writes one "<span> <codec>" line per span.
func (s SpanSpecs) Print(w io.Writer) {
	for n, c := range s.Codecs {
		fmt.Fprintf(w, "%d %s\n", n+1, c)
	}
}

func spanTypeCodec(t string) Codec {
	switch t {
	case "E1":
		return CodecALaw
	case "T1":
		return CodecULaw
	}
	return CodecUnknown
}

// ParseSpanSpecs parses a list of <glob>:<E1|T1> items separated by
// spaces, tabs or commas. Each glob is matched against the span numbers
// "1" to "4"; E1 spans use A-law and T1 spans µ-law. Later items override
// earlier ones and spans no item matches take the default codec.
//
// Example:
//
//	specs, err := echo.ParseSpanSpecs("1:E1 [2-4]:T1", true)
func ParseSpanSpecs(spec string, defaultALaw bool) (SpanSpecs, error) {
	specs := SpanSpecs{Default: DefaultCodec(defaultALaw)}

	items := strings.FieldsFunc(spec, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	for i, item := range items {
		fields := strings.FieldsFunc(item, func(r rune) bool { return r == ':' })
		if len(fields) == 0 {
			return SpanSpecs{}, fmt.Errorf("%w: Missing ':' (item #%d inside '%s')",
				ErrInvalidSpanSpec, i+1, spec)
		}
		if len(fields) == 1 {
			return SpanSpecs{}, fmt.Errorf("%w: Missing value after ':' (item #%d inside '%s')",
				ErrInvalidSpanSpec, i+1, spec)
		}
		key, value := fields[0], fields[1]

		codec := spanTypeCodec(value)
		if codec == CodecUnknown {
			return SpanSpecs{}, fmt.Errorf("%w: Illegal span type '%s' (item #%d inside '%s')",
				ErrInvalidSpanSpec, value, i+1, spec)
		}

		matched := 0
		for n := 0; n < MaxSpans; n++ {
			ok, err := path.Match(key, strconv.Itoa(n+1))
			if err != nil {
				return SpanSpecs{}, fmt.Errorf("%w: bad pattern '%s' (item #%d inside '%s'): %v",
					ErrInvalidSpanSpec, key, i+1, spec, err)
			}
			if ok {
				matched++
				specs.Codecs[n] = codec
			}
		}
		if matched == 0 {
			return SpanSpecs{}, fmt.Errorf("%w: Span specification '%s' does not match any span (item #%d inside '%s')",
				ErrInvalidSpanSpec, key, i+1, spec)
		}
	}

	for n := range specs.Codecs {
		if specs.Codecs[n] == CodecUnknown {
			specs.Codecs[n] = specs.Default
		}
	}
	return specs, nil
}
