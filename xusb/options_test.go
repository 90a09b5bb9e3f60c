package xusb

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{in: "", want: false},
		{in: "use-clear-halt", want: true},
		{in: "  use-clear-halt\t", want: true},
		{in: "use-clear-halt no-use-clear-halt", want: false},
		{in: "no-use-clear-halt use-clear-halt", want: true},
		{in: "use-clear-halt bogus", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			o, err := ParseOptions(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownOption)
				assert.Contains(t, err.Error(), "'bogus'")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, o.UseClearHalt)
		})
	}
}

func writeConf(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "xpp.conf")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func noEnv(string) (string, bool) { return "", false }

func TestReadOptionsFile(t *testing.T) {
	p := writeConf(t, "# comment\n\nXPP_OTHER=1\n  XTALK_OPTIONS = use-clear-halt\nXTALK_OPTIONS no-use-clear-halt\n")
	v, found, err := ReadOptionsFile(p)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "use-clear-halt", v)

	_, found, err = ReadOptionsFile(filepath.Join(t.TempDir(), "missing.conf"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoadOptions(t *testing.T) {
	conf := writeConf(t, "XTALK_OPTIONS=use-clear-halt\n")

	o, err := LoadOptions(noEnv, conf)
	require.NoError(t, err)
	assert.True(t, o.UseClearHalt)

	env := func(k string) (string, bool) {
		if k == OptionsEnv {
			return "no-use-clear-halt", true
		}
		return "", false
	}
	o, err = LoadOptions(env, conf)
	require.NoError(t, err)
	assert.False(t, o.UseClearHalt, "environment must win over the file")

	empty := func(string) (string, bool) { return "", true }
	o, err = LoadOptions(empty, conf)
	require.NoError(t, err)
	assert.False(t, o.UseClearHalt, "a set but empty variable still overrides the file")

	o, err = LoadOptions(noEnv, "")
	require.NoError(t, err)
	assert.False(t, o.UseClearHalt)

	bad := writeConf(t, "XTALK_OPTIONS=turbo\n")
	_, err = LoadOptions(noEnv, bad)
	assert.True(t, errors.Is(err, ErrUnknownOption), "error = %v", err)
}
