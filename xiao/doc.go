// Package xiao exposes the on-board peripherals of the Seeed Xiao nRF52840
// Sense: battery management, the LSM6DS3 IMU and the PDM microphone.
//
// Each component claims its pins and buses from a core.Registry when it is
// constructed and gives them back on Close. Construction that fails half
// way releases whatever it had already claimed. The With* helpers scope a
// component to a function call:
//
//	err := xiao.WithBattery(res.Reg, types.XiaoSense(), func(b *xiao.Battery) error {
//		v, err := b.Voltage()
//		...
//	})
//
// Components are not safe for concurrent use.
package xiao

import "time"

// sleep is swapped by tests that count delays.
var sleep = time.Sleep
