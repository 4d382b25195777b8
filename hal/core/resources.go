package core

import (
	"tinygo.org/x/drivers"
)

type ResourceID string // e.g. "i2c1", "pdm0", "gpio40"

// ---- GPIO handles ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type Direction uint8

const (
	DirInput Direction = iota
	DirOutput
)

// GPIOHandle is one digital line. Direction reports the hardware state,
// not a cached copy of the last Configure call.
type GPIOHandle interface {
	Number() int
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Direction() Direction
	Set(bool)
	Get() bool
}

// ---- Analog inputs ----

// ADCHandle samples one analog line. Get returns a reading scaled to the
// full 16-bit range (0..65535) regardless of the converter's resolution.
type ADCHandle interface {
	Number() int
	Get() (uint16, error)
	ReferenceVoltage() float32
}

// ---- Transactional buses ----

// I2C is the TinyGo driver bus shape; sensor drivers take it directly.
type I2C = drivers.I2C

// ---- PDM microphone ----

type PDMConfig struct {
	SampleRate uint32 // Hz
	BitDepth   uint8  // 8 or 16
}

// PDMHandle is a PDM input peripheral. Record blocks until buf is full.
type PDMHandle interface {
	Configure(cfg PDMConfig) error
	Record(buf []int16) (int, error)
	Stop() error
}

// Releaser is implemented by handles that must undo hardware state when
// their owner gives them back (float pins, disable a peripheral, close a
// file descriptor). The registry calls it exactly once per claim.
type Releaser interface {
	Release() error
}

// Provider is a platform backend. It maps resource identities to handles
// and must not track ownership; the Registry does that.
type Provider interface {
	Pin(n int) (GPIOHandle, bool)
	ADC(n int) (ADCHandle, bool)
	// I2C configures bus id on the given pins. Unknown ids return errcode.UnknownBus.
	I2C(id ResourceID, sda, scl int) (I2C, error)
	PDM(clk, din int) (PDMHandle, bool)
}

// Resources is what platform hands to board code.
type Resources struct {
	Reg *Registry
}
