package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cmdDump = &cobra.Command{
	Use:   "dump",
	Short: "Read the whole device memory into a file",
	RunE:  runDump,
}

var dumpOutput string

func init() {
	rootCmd.AddCommand(cmdDump)
	cmdDump.Flags().StringVarP(&dumpOutput, "output", "o", "memory.bin", "Output file for the memory image")
}

func runDump(ccmd *cobra.Command, args []string) error {
	log := newLogger()
	dev, closeDev, err := openDevice(log)
	if err != nil {
		return err
	}
	defer closeDev()

	data := make([]byte, dev.Config().MemorySize)
	n, err := dev.Dump(data)
	if err != nil {
		return fmt.Errorf("dump memory: %w", err)
	}

	if err := os.WriteFile(dumpOutput, data[:n], 0o644); err != nil {
		return fmt.Errorf("write %q: %w", dumpOutput, err)
	}
	log.Info().Int("bytes", n).Str("file", dumpOutput).Msg("memory dumped")
	return nil
}
