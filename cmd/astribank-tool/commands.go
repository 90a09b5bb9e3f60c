package main

import (
	"context"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "/etc/dahdi/astribank.yaml"

var (
	rootCmd = &cobra.Command{
		Use:   "astribank-tool -D {/dev/bus/usb}/<bus>/<dev> [operation...]",
		Short: "Query and control Astribank units.",
		Long: `Without an operation the unit is identified and its USB details printed.
Operations are applied in this order and only the first given one runs:
reset, query, renumerate, watchdog, port.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE:              runRoot,
	}
)

var (
	devPath     string
	verbosity   int
	debugMask   uint
	configPath  string
	metricsAddr string
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&devPath, "device", "D", "", "Device path (BBB/DDD or /dev/bus/usb/BBB/DDD)")
	pf.CountVarP(&verbosity, "verbose", "v", "Increase verbosity")
	pf.UintVarP(&debugMask, "debug", "d", 0, "Debug mask (0xFF for everything)")
	pf.StringVar(&configPath, "config", defaultConfigPath, "Configuration file")
	pf.StringVar(&metricsAddr, "metrics", "", "Serve Prometheus metrics on this address")
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
