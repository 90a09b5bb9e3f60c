package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/moffa90/go-astribank/firmware"
	"github.com/moffa90/go-astribank/hexfile"
	"github.com/moffa90/go-astribank/mpp"
)

var (
	cmdHexload = &cobra.Command{
		Use:   "hexload -D path {-F|-E} file.hex",
		Short: "Burn an Intel HEX image into the FPGA or the EEPROM",
		Args:  cobra.ExactArgs(1),
		RunE:  runHexload,
	}
)

var (
	hexloadFPGA     bool
	hexloadEEPROM   bool
	hexloadVersion  string
	hexloadProgress bool
)

func init() {
	rootCmd.AddCommand(cmdHexload)
	cmdHexload.Flags().BoolVarP(&hexloadFPGA, "fpga", "F", false, "Load the FPGA")
	cmdHexload.Flags().BoolVarP(&hexloadEEPROM, "eeprom", "E", false, "Burn the EEPROM")
	cmdHexload.Flags().StringVarP(&hexloadVersion, "version", "V", "", "Version tag sent with the image (default: from the file)")
	cmdHexload.Flags().BoolVarP(&hexloadProgress, "progress", "P", true, "Show progress")
}

func hexloadDest() (mpp.Dest, error) {
	switch {
	case hexloadFPGA && hexloadEEPROM:
		return mpp.DestNone, errors.New("choose one of -F and -E")
	case hexloadFPGA:
		return mpp.DestFPGA, nil
	case hexloadEEPROM:
		return mpp.DestEEPROM, nil
	}
	return mpp.DestNone, errors.New("missing destination: -F or -E")
}

func runHexload(cmd *cobra.Command, args []string) error {
	dest, err := hexloadDest()
	if err != nil {
		return err
	}
	img, err := hexfile.Parse(args[0])
	if err != nil {
		return err
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

	opts := []firmware.Option{
		firmware.WithLogger(env.logger),
		firmware.WithMetrics(env.metrics),
		firmware.WithSegmentSize(env.cfg.Firmware.SegmentSize),
		firmware.WithSegmentDelay(env.cfg.Firmware.SegmentDelay()),
	}
	if hexloadVersion != "" {
		opts = append(opts, firmware.WithVersion(hexloadVersion))
	}

	var progress *mpb.Progress
	if hexloadProgress {
		progress = mpb.New(mpb.WithOutput(color.Output), mpb.WithAutoRefresh())
		bar := progress.AddBar(int64(img.Size()),
			mpb.PrependDecorators(
				decor.Name(fmt.Sprintf("%s %s", ab.DevPath(), dest), decor.WCSyncSpaceR),
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.EwmaETA(decor.ET_STYLE_GO, 30),
				decor.Name(" "),
				decor.OnComplete(decor.Percentage(decor.WC{W: 5}), "done"),
			),
		)
		opts = append(opts, firmware.WithProgressCallback(func(p firmware.Progress) {
			bar.SetCurrent(int64(p.BytesWritten))
			if p.Phase == firmware.PhaseComplete {
				bar.SetTotal(int64(p.BytesWritten), true)
			}
		}))
	}

	err = firmware.New(dev, opts...).Program(ctx, img, dest)
	if progress != nil {
		if err != nil {
			// Let the bar drop instead of waiting for completion.
			progress.Shutdown()
		} else {
			progress.Wait()
		}
	}
	if err != nil {
		color.New(color.FgRed).Fprintf(color.Error, "%s: %s upload failed\n", ab.DevPath(), dest)
		return err
	}
	color.New(color.FgGreen).Fprintf(color.Output, "%s: %s upload done (%d bytes)\n", ab.DevPath(), dest, img.Size())
	return nil
}
