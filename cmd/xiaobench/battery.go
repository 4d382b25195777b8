//go:build linux && !baremetal

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"xiaosense-go/xiao"
)

func NewStatusCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show charge status, charge current and battery voltage",
		RunE: func(_ *cobra.Command, _ []string) error {
			return xiao.WithBattery(registry(), conf.Board, func(b *xiao.Battery) error {
				v, err := b.Snapshot()
				if err != nil {
					return fmt.Errorf("failed to read battery: %w", err)
				}
				if asJSON {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(v)
				}

				bold := color.New(color.Bold).SprintFunc()
				state := color.YellowString("charging")
				if v.Charged {
					state = color.GreenString("charged")
				}
				fmt.Printf("%s %s\n", bold("Charge status: "), state)
				fmt.Printf("%s %d mA\n", bold("Charge current:"), v.ChargeCurrentMA)
				fmt.Printf("%s %.3f V\n", bold("Voltage:       "), v.Volts)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func NewVoltageCommand() *cobra.Command {
	var (
		count    int
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "voltage",
		Short: "Sample the battery voltage",
		RunE: func(_ *cobra.Command, _ []string) error {
			return xiao.WithBattery(registry(), conf.Board, func(b *xiao.Battery) error {
				for i := 0; count <= 0 || i < count; i++ {
					if i > 0 {
						time.Sleep(interval)
					}
					v, err := b.Voltage()
					if err != nil {
						return fmt.Errorf("failed to read voltage: %w", err)
					}
					logrus.WithField("sample", i).Debugf("raw volts %v", v)
					fmt.Printf("%.3f\n", v)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of samples (0 = forever)")
	cmd.Flags().DurationVarP(&interval, "interval", "i", time.Second, "time between samples")
	return cmd
}

func NewChargeCurrentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "charge-current [50|100]",
		Short: "Get or set the charge current",
		Long: `Get or set the charge current.

Without an argument the current setting is printed. With 50 or 100 the
charger is switched to that current.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var want xiao.ChargeCurrent
			if len(args) == 1 {
				var err error
				if want, err = xiao.ParseChargeCurrent(args[0]); err != nil {
					return fmt.Errorf("charge current must be 50 or 100, got %q: %w", args[0], err)
				}
			}
			return xiao.WithBattery(registry(), conf.Board, func(b *xiao.Battery) error {
				if len(args) == 1 {
					if err := b.SetChargeCurrent(want); err != nil {
						return err
					}
					logrus.Infof("charge current set to %s", want)
				}
				got, err := b.ChargeCurrent()
				if err != nil {
					return err
				}
				fmt.Println(got)
				return nil
			})
		},
	}
}
