package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cmdDevInfo = &cobra.Command{
	Use:   "devinfo",
	Short: "Identify the connected device",
	RunE:  runDevInfo,
}

func init() {
	rootCmd.AddCommand(cmdDevInfo)
}

func runDevInfo(ccmd *cobra.Command, args []string) error {
	log := newLogger()
	dev, closeDev, err := openDevice(log)
	if err != nil {
		return err
	}
	defer closeDev()

	info, err := dev.ReadDeviceInfo()
	if err != nil {
		return fmt.Errorf("read device info: %w", err)
	}

	fmt.Printf("Model:    0x%02X\n", info.Model)
	fmt.Printf("Firmware: %s\n", formatFirmware(info.Firmware))
	fmt.Printf("Serial:   %08d\n", info.Serial)
	return nil
}
