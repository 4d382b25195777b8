//go:build linux && !baremetal

// xiaobench drives the Xiao battery/IMU wrappers on a Linux bench rig
// through periph.io, using the same code paths as the firmware.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xiaosense-go/errcode"
	"xiaosense-go/hal/core"
	"xiaosense-go/hal/platform"
)

var (
	logLevel   = "info"
	configPath = "/etc/xiaobench.json"

	conf benchConfig
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}
	return nil
}

func handleCmdError(err error) {
	switch {
	case errcode.Unavailable(err):
		fmt.Fprintln(os.Stderr, "\nError: a pin or bus is unavailable:", errcode.Of(err))
		fmt.Fprintln(os.Stderr, "  - Check the pin numbers in", configPath)
		fmt.Fprintln(os.Stderr, "  - Check that no other process holds the GPIO or I2C device")
	case errors.Is(err, errcode.DriverInit):
		fmt.Fprintln(os.Stderr, "\nError: the device did not answer during setup")
		fmt.Fprintln(os.Stderr, "  - Is it powered and wired to the configured bus?")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

// registry is built once per invocation from the loaded config.
func registry() *core.Registry {
	return core.NewRegistry(platform.NewLinuxProvider(conf.Bench))
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xiaobench",
		Short: "xiaobench exercises the Xiao nRF52840 Sense peripherals on a Linux bench rig",
		Long: `xiaobench exercises the Xiao nRF52840 Sense battery manager and IMU
wrappers on a Linux host with equivalent wiring (GPIO via periph.io, VBAT via
an ADS1115, LSM6DS3 on an I2C bus).`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := setupLogger(); err != nil {
				return err
			}
			c, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			conf = c
			logrus.WithFields(logrus.Fields{
				"config":  configPath,
				"adc_bus": conf.Bench.ADCBus,
				"imu_bus": conf.Board.IMUBus,
			}).Debug("configuration loaded")
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "path to the bench config file")

	cmd.AddCommand(
		NewStatusCommand(),
		NewVoltageCommand(),
		NewChargeCurrentCommand(),
		NewIMUCommand(),
	)

	return cmd
}
