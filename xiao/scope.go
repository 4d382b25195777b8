package xiao

import (
	"xiaosense-go/hal/core"
	"xiaosense-go/types"
)

// WithBattery runs fn with a Battery and releases it however fn returns.
func WithBattery(reg *core.Registry, cfg types.BoardConfig, fn func(*Battery) error) error {
	b, err := NewBattery(reg, cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b)
}

// WithIMU runs fn with an IMU and powers it down however fn returns.
func WithIMU(reg *core.Registry, cfg types.BoardConfig, fn func(*IMU) error) error {
	m, err := NewIMU(reg, cfg)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

// WithMic runs fn with a Mic and powers it down however fn returns.
func WithMic(reg *core.Registry, cfg types.BoardConfig, sampleRate uint32, bitDepth uint8, fn func(*Mic) error) error {
	m, err := NewMic(reg, cfg, sampleRate, bitDepth)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}
