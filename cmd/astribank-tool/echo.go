package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-astribank/echo"
)

var (
	cmdEcho = &cobra.Command{
		Use:   "echo -D path [--spans spec] [--alaw|--ulaw] image",
		Short: "Load the echo canceller firmware through the XPP interface",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEcho,
	}
)

var (
	echoVer   bool
	echoSpans string
	echoALaw  bool
	echoULaw  bool
)

// chipOpener is the vendor chip API hook. No implementation ships with the
// tool, so only test hardware and the version probe work out of the box.
var chipOpener echo.ChipOpener

func init() {
	rootCmd.AddCommand(cmdEcho)
	cmdEcho.Flags().BoolVar(&echoVer, "ver", false, "Print the echo canceller board version and exit")
	cmdEcho.Flags().StringVarP(&echoSpans, "spans", "S", "", "Span codecs, e.g. \"1:alaw 2-4:ulaw\"")
	cmdEcho.Flags().BoolVarP(&echoALaw, "alaw", "A", false, "Default codec is A-law")
	cmdEcho.Flags().BoolVarP(&echoULaw, "ulaw", "U", false, "Default codec is mu-law")
}

func echoDefaultALaw() (bool, error) {
	switch {
	case echoALaw && echoULaw:
		return false, errors.New("choose one of --alaw and --ulaw")
	case echoALaw:
		return true, nil
	case echoULaw:
		return false, nil
	}
	return env.cfg.Echo.DefaultLaw == "alaw", nil
}

func runEcho(cmd *cobra.Command, args []string) error {
	if !echoVer && len(args) == 0 {
		return errors.New("missing image file")
	}
	alaw, err := echoDefaultALaw()
	if err != nil {
		return err
	}
	specs, err := echo.ParseSpanSpecs(echoSpans, alaw)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	ab, err := openAstribank(ctx)
	if err != nil {
		return err
	}
	defer ab.Close()
	t, err := ab.XPP()
	if err != nil {
		return err
	}

	opts := []echo.Option{
		echo.WithLogger(env.logger),
		echo.WithMetrics(env.metrics),
		echo.WithTimeout(env.cfg.Echo.Timeout()),
		echo.WithFlushCoefficient(env.cfg.Echo.FlushCoefficient),
	}
	if ps := env.cfg.Transport.PacketSize; ps > 0 {
		opts = append(opts, echo.WithPacketSize(ps))
	}
	loader := echo.NewLoader(t, opts...)

	if echoVer {
		v, err := loader.Ver(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s: ECHO version: %d\n", ab.DevPath(), v)
		return nil
	}
	if verbosity > 0 {
		specs.Print(os.Stdout)
	}
	return loader.Load(ctx, args[0], specs, chipOpener)
}
