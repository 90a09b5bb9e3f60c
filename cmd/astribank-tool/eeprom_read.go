package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// eepromChunk keeps each block read reply well inside one packet.
const eepromChunk = 128

var (
	cmdEEPROMRead = &cobra.Command{
		Use:   "eeprom-read -D path [-o offset] [-l length]",
		Short: "Dump EEPROM contents",
		Args:  cobra.NoArgs,
		RunE:  runEEPROMRead,
	}
)

var (
	eepromOffset string
	eepromLength string
)

func init() {
	rootCmd.AddCommand(cmdEEPROMRead)
	cmdEEPROMRead.Flags().StringVarP(&eepromOffset, "offset", "o", "0", "Start offset")
	cmdEEPROMRead.Flags().StringVarP(&eepromLength, "length", "l", "256", "Number of bytes")
}

func runEEPROMRead(cmd *cobra.Command, _ []string) error {
	off, err := parseUint(eepromOffset, 16)
	if err != nil {
		return err
	}
	n, err := parseUint(eepromLength, 16)
	if err != nil {
		return err
	}
	if off+n > 0x10000 {
		return fmt.Errorf("range 0x%X+%d past the end of the EEPROM", off, n)
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

	data := make([]byte, 0, n)
	for remaining := int(n); remaining > 0; {
		chunk := remaining
		if chunk > eepromChunk {
			chunk = eepromChunk
		}
		buf := make([]byte, chunk)
		got, err := dev.EEPROMBlockRead(ctx, uint16(int(off)+len(data)), buf)
		if err != nil {
			return err
		}
		if got == 0 {
			break
		}
		data = append(data, buf[:got]...)
		remaining -= got
	}
	fmt.Fprintf(os.Stdout, "EEPROM 0x%04X, %d bytes:\n", off, len(data))
	fmt.Fprint(os.Stdout, hex.Dump(data))
	return nil
}
