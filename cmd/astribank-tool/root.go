package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var (
	optRenumerate bool
	optReset      string
	optPort       string
	optWatchdog   string
	optQuery      bool
)

func init() {
	f := rootCmd.Flags()
	f.BoolVarP(&optRenumerate, "renumerate", "n", false, "Renumerate device")
	f.StringVarP(&optReset, "reset", "r", "", "Reset: kind = {half|full}")
	f.StringVarP(&optPort, "port", "p", "", "TwinStar: USB port number [0, 1]")
	f.StringVarP(&optWatchdog, "watchdog", "w", "", "TwinStar: Watchdog off or on guard (0|1)")
	f.BoolVarP(&optQuery, "query", "Q", false, "Query device properties")
}

// resetKind maps a reset argument to a full reset flag.
func resetKind(arg string) (full bool, err error) {
	switch strings.ToLower(arg) {
	case "half":
		return false, nil
	case "full":
		return true, nil
	}
	return false, fmt.Errorf("unknown reset kind '%s'", arg)
}

// parseUint accepts decimal, 0x hex and 0 octal like strtoul.
func parseUint(arg string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(arg, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("bad number %q: %w", arg, err)
	}
	return v, nil
}

func runRoot(cmd *cobra.Command, _ []string) error {
	var full bool
	if optReset != "" {
		var err error
		// Reject a bad kind before touching the device.
		if full, err = resetKind(optReset); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	ab, err := openAstribank(ctx)
	if err != nil {
		return err
	}
	defer ab.Close()

	dev, err := ab.MPP(ctx)
	if err != nil {
		return err
	}

	// Reset goes first so minimal USB firmwares can be reset too.
	if optReset != "" {
		env.log.Debug().Str("kind", optReset).Msg("resetting")
		if err := dev.Reset(ctx, full); err != nil {
			kind := "Half"
			if full {
				kind = "Full"
			}
			return fmt.Errorf("%s reseting astribank failed: %w", kind, err)
		}
		return nil
	}

	ab.ShowInfo(os.Stdout, verbosity > 0)

	switch {
	case optQuery:
		return dev.ShowHardware(ctx, os.Stdout)
	case optRenumerate:
		env.log.Debug().Msg("renumerate")
		if err := dev.Renumerate(ctx); err != nil {
			return fmt.Errorf("renumerating astribank failed: %w", err)
		}
	case optWatchdog != "":
		v, err := parseUint(optWatchdog, 32)
		if err != nil {
			return err
		}
		on := v != 0
		state := "off"
		if on {
			state = "on"
		}
		env.log.Debug().Str("state", state).Msg("TWINSTAR: setting watchdog guard")
		if err := dev.TwsSetWatchdog(ctx, on); err != nil {
			return fmt.Errorf("failed to set watchdog to %d: %w", v, err)
		}
	case optPort != "":
		v, err := parseUint(optPort, 8)
		if err != nil {
			return err
		}
		port := uint8(v)
		if cur, err := dev.TwsPortNum(ctx); err == nil && cur == port {
			env.log.Debug().Int("port", int(port)).Msg("TWINSTAR: setting portnum. Same same, never mind...")
		} else {
			env.log.Debug().Int("port", int(port)).Msg("TWINSTAR: setting portnum")
		}
		if err := dev.TwsSetPortNum(ctx, port); err != nil {
			return fmt.Errorf("failed to set USB portnum to %d: %w", port, err)
		}
	}
	return nil
}
