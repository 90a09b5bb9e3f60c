package xusb

import (
	"errors"
	"testing"
)

func TestPathTail(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{path: "/dev/bus/usb/001/004", want: "001/004"},
		{path: "/proc/bus/usb/002/010/", want: "002/010"},
		{path: "001/004", want: "001/004"},
		{path: "004", wantErr: true},
		{path: "/004", wantErr: true},
		{path: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := PathTail(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrBadPath) {
					t.Fatalf("PathTail(%q) error = %v, want ErrBadPath", tt.path, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PathTail(%q) error = %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("PathTail(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestMatchPath(t *testing.T) {
	if !MatchPath("/dev/bus/usb/001/004", 1, 4) {
		t.Error("exact device did not match")
	}
	if MatchPath("/dev/bus/usb/001/004", 1, 14) {
		t.Error("different address matched")
	}
	if MatchPath("/dev/bus/usb/001/004", 2, 4) {
		t.Error("different bus matched")
	}
	if MatchPath("garbage", 1, 4) {
		t.Error("bad path matched")
	}
	if got := DevPath(3, 127); got != "003/127" {
		t.Errorf("DevPath = %q", got)
	}
}
