package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-astribank/protocol"
	"github.com/moffa90/go-astribank/xtalk"
	"github.com/moffa90/go-astribank/xusb"
)

var (
	cmdXtalkSend = &cobra.Command{
		Use:   "xtalk-send -D <busnum>/<devnum> [hexnum ...]",
		Short: "Send raw bytes to an XTALK interface and dump the reply",
		RunE:  runXtalkSend,
	}
)

var (
	sendIface   int
	sendTimeout int
	sendQuery   bool
)

// derivedDialect carries only the base commands, enough for a protocol query.
var derivedDialect = protocol.MustDialect("XTALK-DERIVED", 0, nil, nil)

func init() {
	rootCmd.AddCommand(cmdXtalkSend)
	cmdXtalkSend.Flags().IntVarP(&sendIface, "iface", "I", 1, "Interface number")
	cmdXtalkSend.Flags().IntVarP(&sendTimeout, "timeout", "t", 500, "Timeout (msec)")
	cmdXtalkSend.Flags().BoolVarP(&sendQuery, "query", "Q", false, "Query protocol version")
}

// parseHexBytes parses each argument as one hex byte, with or without 0x.
func parseHexBytes(args []string) ([]byte, error) {
	buf := make([]byte, 0, len(args))
	for i, a := range args {
		v, err := strconv.ParseUint(trimHexPrefix(a), 16, 8)
		if err != nil {
			return nil, fmt.Errorf("argument #%d %q: not a hex byte", i, a)
		}
		buf = append(buf, byte(v))
	}
	return buf, nil
}

func trimHexPrefix(s string) string {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func echoBytes(w io.Writer, buf []byte) {
	for i, b := range buf {
		fmt.Fprintf(w, "%d> 0x%02X\n", i, b)
	}
}

func runXtalkSend(cmd *cobra.Command, args []string) error {
	if devPath == "" {
		return errNoDevice
	}
	frame, err := parseHexBytes(args)
	if err != nil {
		return err
	}

	bus := xusb.NewBus(busOptions()...)
	defer bus.Close()
	dev, err := bus.FindByPath(devPath)
	if err != nil {
		return fmt.Errorf("no XUSB device found: %w", err)
	}
	defer dev.Close()
	iface, err := dev.Claim(sendIface)
	if err != nil {
		return fmt.Errorf("claiming interface #%d failed: %w", sendIface, err)
	}
	dev.ShowInfo(os.Stdout, false)

	ctx := cmd.Context()
	engineOpts := []xtalk.Option{
		xtalk.WithLogger(env.logger),
		xtalk.WithMetrics(env.metrics),
		xtalk.WithTimeout(time.Duration(sendTimeout) * time.Millisecond),
		xtalk.WithFrameDump(env.cfg.Log.DumpFrames),
	}

	if sendQuery {
		s, err := xtalk.NewSync(iface, engineOpts...)
		if err != nil {
			return err
		}
		if err := s.SetProtocol(derivedDialect); err != nil {
			return fmt.Errorf("%s protocol registration failed: %w", derivedDialect.Name(), err)
		}
		v, err := s.ProtoQuery(ctx)
		if err != nil {
			return err
		}
		env.log.Info().Str("device", "usb:"+dev.DevPath()).Msg(fmt.Sprintf("Protocol version 0x%X", v))
	}

	if len(frame) == 0 {
		return nil
	}
	raw, err := xtalk.NewRaw(iface, engineOpts...)
	if err != nil {
		return err
	}
	echoBytes(os.Stdout, frame)
	if _, err := raw.SendBuffer(ctx, frame); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}
	reply := make([]byte, iface.PacketSize())
	n, err := raw.RecvBuffer(ctx, reply)
	if err != nil {
		return fmt.Errorf("receive from usb failed: %w", err)
	}
	protocol.Dump(os.Stdout, "REPLY", reply[:n])
	return nil
}
