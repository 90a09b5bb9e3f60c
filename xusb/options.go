package xusb

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const (
	// OptionsEnv is the environment variable holding transport options.
	OptionsEnv = "XTALK_OPTIONS"

	// DefaultOptionsFile is consulted when OptionsEnv is not set.
	DefaultOptionsFile = "/etc/dahdi/xpp.conf"
)

// Options are the transport tunables shared by every tool.
type Options struct {
	// UseClearHalt resets both endpoints when an interface is claimed
	UseClearHalt bool
}

// ParseOptions parses a whitespace separated token list. Later tokens win.
func ParseOptions(s string) (Options, error) {
	var o Options
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '\t' }) {
		switch tok {
		case "use-clear-halt":
			o.UseClearHalt = true
		case "no-use-clear-halt":
			o.UseClearHalt = false
		default:
			return Options{}, fmt.Errorf("%w: '%s'", ErrUnknownOption, tok)
		}
	}
	return o, nil
}

// ReadOptionsFile returns the value of the first XTALK_OPTIONS line of the
// file at path. found is false when the file or the line is missing.
func ReadOptionsFile(path string) (value string, found bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimLeft(sc.Text(), " \t")
		if line == "" || line[0] == '#' {
			continue
		}
		if !strings.HasPrefix(line, OptionsEnv) {
			continue
		}
		rest := strings.TrimLeft(line[len(OptionsEnv):], " \t=")
		return strings.TrimRight(rest, " \t\r"), true, nil
	}
	return "", false, sc.Err()
}

// LoadOptions reads options from the environment, falling back to file.
// lookupEnv is normally os.LookupEnv. An empty file name skips the file.
func LoadOptions(lookupEnv func(string) (string, bool), file string) (Options, error) {
	if lookupEnv != nil {
		if v, ok := lookupEnv(OptionsEnv); ok {
			return ParseOptions(v)
		}
	}
	if file == "" {
		return Options{}, nil
	}
	v, found, err := ReadOptionsFile(file)
	if err != nil {
		return Options{}, fmt.Errorf("read %s: %w", file, err)
	}
	if !found {
		return Options{}, nil
	}
	o, err := ParseOptions(v)
	if err != nil {
		return Options{}, fmt.Errorf("%s: %w", file, err)
	}
	return o, nil
}
