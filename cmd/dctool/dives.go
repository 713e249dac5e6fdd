package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var cmdDives = &cobra.Command{
	Use:   "dives",
	Short: "Download stored dives, most recent first",
	Long: `Download stored dives, most recent first, into numbered files.

With a fingerprint set (via --config), the download stops at the last
dive already seen, so only new dives are fetched.`,
	RunE: runDives,
}

var divesOutputDir string

func init() {
	rootCmd.AddCommand(cmdDives)
	cmdDives.Flags().StringVarP(&divesOutputDir, "outdir", "d", ".", "Directory for the dive files")
}

func runDives(ccmd *cobra.Command, args []string) error {
	log := newLogger()
	dev, closeDev, err := openDevice(log)
	if err != nil {
		return err
	}
	defer closeDev()

	ndives := 0
	var writeErr error
	err = dev.Foreach(func(dive []byte) bool {
		ndives++
		name := filepath.Join(divesOutputDir, fmt.Sprintf("dive-%04d.bin", ndives))
		if writeErr = os.WriteFile(name, dive, 0o644); writeErr != nil {
			return false
		}
		log.Info().Int("dive", ndives).Int("bytes", len(dive)).Str("file", name).Msg("dive downloaded")
		return true
	})
	if err != nil {
		return fmt.Errorf("download dives: %w", err)
	}
	if writeErr != nil {
		return fmt.Errorf("write dive file: %w", writeErr)
	}

	log.Info().Int("dives", ndives).Msg("download finished")
	return nil
}
