package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-astribank/xusb"
)

var (
	cmdList = &cobra.Command{
		Use:   "list",
		Short: "List attached Astribank family devices",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
)

func init() {
	rootCmd.AddCommand(cmdList)
}

func runList(_ *cobra.Command, _ []string) error {
	bus := xusb.NewBus(busOptions()...)
	defer bus.Close()

	devs, err := bus.Find(xusb.KnownSpecs, nil)
	if err != nil {
		return err
	}
	if len(devs) == 0 {
		fmt.Fprintln(os.Stderr, "No devices found")
		return nil
	}
	for _, d := range devs {
		d.ShowInfo(os.Stdout, verbosity > 0)
		d.Close()
	}
	return nil
}
