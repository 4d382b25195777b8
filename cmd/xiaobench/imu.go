//go:build linux && !baremetal

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"xiaosense-go/xiao"
)

func NewIMUCommand() *cobra.Command {
	var (
		count    int
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "imu",
		Short: "Power up the LSM6DS3 and print readings as JSON lines",
		RunE: func(_ *cobra.Command, _ []string) error {
			return xiao.WithIMU(registry(), conf.Board, func(m *xiao.IMU) error {
				logrus.Infof("LSM6DS3 up at %#x on %s", conf.Board.Address(), conf.Board.IMUBus)
				enc := json.NewEncoder(os.Stdout)
				for i := 0; count <= 0 || i < count; i++ {
					if i > 0 {
						time.Sleep(interval)
					}
					v, err := m.Snapshot()
					if err != nil {
						return fmt.Errorf("failed to read imu: %w", err)
					}
					if err := enc.Encode(v); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of samples (0 = forever)")
	cmd.Flags().DurationVarP(&interval, "interval", "i", 100*time.Millisecond, "time between samples")
	return cmd
}
