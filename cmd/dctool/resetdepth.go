package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cmdResetDepth = &cobra.Command{
	Use:   "resetdepth",
	Short: "Clear the maximum depth stored on the device",
	RunE:  runResetDepth,
}

func init() {
	rootCmd.AddCommand(cmdResetDepth)
}

func runResetDepth(ccmd *cobra.Command, args []string) error {
	log := newLogger()
	dev, closeDev, err := openDevice(log)
	if err != nil {
		return err
	}
	defer closeDev()

	if err := dev.ResetMaxDepth(); err != nil {
		return fmt.Errorf("reset maximum depth: %w", err)
	}
	log.Info().Msg("maximum depth cleared")
	return nil
}
