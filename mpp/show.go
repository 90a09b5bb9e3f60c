package mpp

import (
	"context"
	"fmt"
	"io"
)

// ShowEEPROM prints the identity table.
func ShowEEPROM(w io.Writer, t EEPROMTable) {
	fmt.Fprintf(w, "EEPROM: %-15s: 0x%02X\n", "Source", t.Source)
	fmt.Fprintf(w, "EEPROM: %-15s: 0x%04X\n", "Vendor", t.Vendor)
	fmt.Fprintf(w, "EEPROM: %-15s: 0x%04X\n", "Product", t.Product)
	fmt.Fprintf(w, "EEPROM: %-15s: %s\n", "Release", t.ReleaseString())
	fmt.Fprintf(w, "EEPROM: %-15s: 0x%02X\n", "Config", t.Config)
	fmt.Fprintf(w, "EEPROM: %-15s: '%s'\n", "Label", t.LabelString())
}

// ShowCapabilities prints the port counts and the TwinStar bit.
func ShowCapabilities(w io.Writer, c Capabilities) {
	fmt.Fprintf(w, "Capabilities: FXS ports: %2d\n", c.PortsFXS)
	fmt.Fprintf(w, "Capabilities: FXO ports: %2d\n", c.PortsFXO)
	fmt.Fprintf(w, "Capabilities: BRI ports: %2d\n", c.PortsBRI)
	fmt.Fprintf(w, "Capabilities: PRI ports: %2d\n", c.PortsPRI)
	fmt.Fprintf(w, "Capabilities: ECHO ports: %2d\n", c.PortsEcho)
	fmt.Fprintf(w, "Capabilities: TwinStar : %s\n", yesNo(c.TwinStar(), "Yes", "No"))
}

// ShowExtraInfo prints the vendor text.
func ShowExtraInfo(w io.Writer, e ExtraInfo) {
	fmt.Fprintf(w, "Extrainfo:             : '%s'\n", e.String())
}

// ShowStatus prints the state cached by the last StatusQuery.
func (d *Device) ShowStatus(w io.Writer) {
	loaded := d.FPGALoaded()
	fmt.Fprintf(w, "Astribank: EEPROM      : %s\n", d.EEPROMType())
	fmt.Fprintf(w, "Astribank: FPGA status : %s\n", yesNo(loaded, "Loaded", "Empty"))
	if loaded {
		fmt.Fprintf(w, "Astribank: FPGA version: %s\n", d.Versions().FPGAString())
	}
}

// ShowTwinStar queries and prints the TwinStar state.
func (d *Device) ShowTwinStar(ctx context.Context, w io.Writer) error {
	watchdog, err := d.TwsWatchdog(ctx)
	if err != nil {
		d.logError("Failed getting TwinStar information", "error", err)
		return err
	}
	power, err := d.TwsPowerState(ctx)
	if err != nil {
		d.logError("Failed getting TwinStar powerstate", "error", err)
		return err
	}
	port, err := d.TwsPortNum(ctx)
	if err != nil {
		d.logError("Failed getting TwinStar portnum", "error", err)
		return err
	}
	fmt.Fprintf(w, "TwinStar: Connected to : USB-%1d\n", port)
	fmt.Fprintf(w, "TwinStar: Watchdog     : %s\n", yesNo(watchdog, "on-guard", "off-guard"))
	for i := 0; i < 2; i++ {
		fmt.Fprintf(w, "TwinStar: USB-%1d POWER  : %s\n", i, yesNo(power&(1<<i) != 0, "ON", "OFF"))
	}
	return nil
}

// ShowHardware prints the identity table and status, and on units with a
// large EEPROM the capabilities, the card inventory (when the FPGA is
// loaded), the vendor text and the TwinStar state.
func (d *Device) ShowHardware(ctx context.Context, w io.Writer) error {
	eeprom, caps, _, err := d.CapsGet(ctx)
	if err != nil {
		return err
	}
	ShowEEPROM(w, eeprom)
	d.ShowStatus(w)
	if d.EEPROMType() != EEPROMLarge {
		return nil
	}

	ShowCapabilities(w, caps)
	if d.FPGALoaded() {
		for unit := 0; unit < 5; unit++ {
			cardType, status, err := d.CardInfo(ctx, unit)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "CARD %d: type=%x.%x %s\n", unit,
				(cardType>>4)&0xF, cardType&0xF, yesNo(status&0x1 != 0, "PIC", "NOPIC"))
		}
		config, status, err := d.SerialStat(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "FPGA: %-17s: %d\n", "Configuration num", config)
		fmt.Fprintf(w, "FPGA: %-17s: %s\n", "Watchdog Timer", yesNo(status&SerStatWatchdogReady != 0, "ready", "expired"))
		fmt.Fprintf(w, "FPGA: %-17s: %s\n", "XPD Alive", yesNo(status&SerStatXPDAlive != 0, "yes", "no"))
	}

	info, err := d.ExtraInfoGet(ctx)
	if err != nil {
		return err
	}
	ShowExtraInfo(w, info)

	if caps.TwinStar() {
		if !TwinStarSupported(eeprom, caps) {
			fmt.Fprintln(w, "TwinStar: NO")
			return nil
		}
		return d.ShowTwinStar(ctx, w)
	}
	return nil
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
