package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/loopholelabs/logging"
	"github.com/loopholelabs/logging/types"
	"github.com/spf13/cobra"

	"github.com/Qinmu-mu/libdc-for-dirk/pkg/device"
	"github.com/Qinmu-mu/libdc-for-dirk/pkg/suunto2"
)

var rootCmd = &cobra.Command{
	Use:           "dctool",
	Short:         "Download dives and memory from generation-2 Suunto dive computers.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

var (
	flagPort    string
	flagImage   string
	flagConfig  string
	flagVerbose bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagPort, "port", "p", "", "Serial port path (like /dev/ttyUSB0, or COM2)")
	rootCmd.PersistentFlags().StringVarP(&flagImage, "image", "i", "", "Memory image file served in place of a real device")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "YAML file with defaults for port, image and fingerprint")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

func Execute() error {
	return rootCmd.Execute()
}

func newLogger() types.Logger {
	log := logging.New(logging.Zerolog, "dctool", os.Stderr)
	if flagVerbose {
		log.SetLevel(types.DebugLevel)
	} else {
		log.SetLevel(types.InfoLevel)
	}
	return log
}

// consoleEvents forwards library events to the log.
type consoleEvents struct {
	log     types.Logger
	lastPct int
}

func (e *consoleEvents) OnProgress(p suunto2.Progress) {
	if p.Maximum == 0 {
		return
	}
	pct := int(p.Current * 100 / p.Maximum)
	if pct != e.lastPct {
		e.lastPct = pct
		e.log.Debug().Int("percent", pct).Msg("transfer progress")
	}
}

func (e *consoleEvents) OnDevInfo(info suunto2.DevInfo) {
	e.log.Info().
		Int("model", int(info.Model)).
		Str("firmware", formatFirmware(info.Firmware)).
		Int("serial", int(info.Serial)).
		Msg("device identified")
}

func formatFirmware(fw uint32) string {
	return fmt.Sprintf("%d.%d.%d", (fw>>16)&0xFF, (fw>>8)&0xFF, fw&0xFF)
}

// openDevice builds the transport selected by the flags (and config
// file) and opens a device handle on it. The returned closer releases
// both.
func openDevice(log types.Logger) (*suunto2.Device, func() error, error) {
	port, image, fingerprint := flagPort, flagImage, ""
	if flagConfig != "" {
		cfg, err := loadConfig(flagConfig)
		if err != nil {
			return nil, nil, err
		}
		if port == "" {
			port = cfg.Port
		}
		if image == "" {
			image = cfg.Image
		}
		fingerprint = cfg.Fingerprint
	}

	var transport suunto2.Transport
	switch {
	case image != "":
		data, err := os.ReadFile(image)
		if err != nil {
			return nil, nil, fmt.Errorf("read image %q: %w", image, err)
		}
		sim := device.NewSimulator(data, log)
		sim.SetVersion([4]byte{0x0E, 0x01, 0x00, 0x16})
		transport = sim
		log.Info().Str("image", image).Msg("running against a simulated device")
	case port != "":
		serial, err := device.NewSerial(port, log)
		if err != nil {
			return nil, nil, err
		}
		transport = serial
	default:
		return nil, nil, fmt.Errorf("either --port or --image is required")
	}

	dev, err := suunto2.Open(transport,
		suunto2.WithLogger(log),
		suunto2.WithEvents(&consoleEvents{log: log}),
	)
	if err != nil {
		return nil, nil, err
	}

	if fingerprint != "" {
		fp, err := hex.DecodeString(fingerprint)
		if err != nil {
			return nil, nil, fmt.Errorf("fingerprint %q is not valid hex: %w", fingerprint, err)
		}
		if err := dev.SetFingerprint(fp); err != nil {
			return nil, nil, err
		}
	}

	return dev, dev.Close, nil
}
