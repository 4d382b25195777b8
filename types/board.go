package types

import (
	"time"

	"xiaosense-go/x/timex"
)

// BoardConfig describes how the on-board peripherals are wired. Pin numbers
// use the platform's flat numbering (nRF52840: P0.n = n, P1.n = 32+n).
// Delay fields are in milliseconds; zero selects the default.
type BoardConfig struct {
	// Battery management.
	ChargeStatusPin   int `json:"charge_status_pin"`    // active-low "charge complete" (~CHG)
	ChargeCurrentPin  int `json:"charge_current_pin"`   // HICHG: input = 50 mA, output low = 100 mA
	ReadBattEnablePin int `json:"read_batt_enable_pin"` // sinks the VBAT divider when driven low
	VBattPin          int `json:"vbatt_pin"`            // analog input behind the divider

	// LSM6DS3 IMU.
	IMUPowerPin int    `json:"imu_power_pin"`
	IMUBus      string `json:"imu_bus"`
	IMUSDAPin   int    `json:"imu_sda_pin"`
	IMUSCLPin   int    `json:"imu_scl_pin"`
	IMUAddress  uint16 `json:"imu_address"`

	// PDM microphone.
	MicPowerPin int `json:"mic_power_pin"`
	MicClkPin   int `json:"mic_clk_pin"`
	MicDinPin   int `json:"mic_din_pin"`

	VoltageSettleMS int `json:"voltage_settle_ms"`
	IMUPowerUpMS    int `json:"imu_power_up_ms"`
}

const (
	DefaultVoltageSettle = 3 * time.Millisecond
	// Datasheet typical is 35 ms.
	DefaultIMUPowerUp = 50 * time.Millisecond
	DefaultIMUAddress = 0x6A
)

// XiaoSense returns the wiring of the Seeed Xiao nRF52840 Sense.
func XiaoSense() BoardConfig {
	return BoardConfig{
		ChargeStatusPin:   17, // P0.17
		ChargeCurrentPin:  13, // P0.13
		ReadBattEnablePin: 14, // P0.14
		VBattPin:          31, // P0.31 / AIN7

		IMUPowerPin: 40, // P1.08
		IMUBus:      "i2c1",
		IMUSDAPin:   7,  // P0.07
		IMUSCLPin:   27, // P0.27
		IMUAddress:  DefaultIMUAddress,

		MicPowerPin: 42, // P1.10
		MicClkPin:   32, // P1.00
		MicDinPin:   16, // P0.16

		VoltageSettleMS: int(DefaultVoltageSettle / time.Millisecond),
		IMUPowerUpMS:    int(DefaultIMUPowerUp / time.Millisecond),
	}
}

// VoltageSettle is the wait between engaging the divider and sampling.
func (c BoardConfig) VoltageSettle() time.Duration {
	return timex.Ms(c.VoltageSettleMS, DefaultVoltageSettle)
}

// IMUPowerUp is the wait between powering the IMU and talking to it.
func (c BoardConfig) IMUPowerUp() time.Duration {
	return timex.Ms(c.IMUPowerUpMS, DefaultIMUPowerUp)
}

// Address returns the IMU address, defaulting to 0x6A.
func (c BoardConfig) Address() uint16 {
	if c.IMUAddress == 0 {
		return DefaultIMUAddress
	}
	return c.IMUAddress
}
