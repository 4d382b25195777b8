//go:build nrf52840

package platform

import (
	"device/nrf"
	"machine"
	"sync"

	"xiaosense-go/errcode"
	"xiaosense-go/hal/core"
)

// -----------------------------------------------------------------------------
// Defaults used on the Seeed Xiao nRF52840 (Sense)
// -----------------------------------------------------------------------------

// DefaultProvider maps flat pin numbers to machine.Pin (P0.n = n, P1.n = 32+n).
func DefaultProvider() core.Provider { return nrfProvider{} }

type nrfProvider struct{}

const maxPin = 47

func (nrfProvider) Pin(n int) (core.GPIOHandle, bool) {
	if n < 0 || n > maxPin {
		return nil, false
	}
	return &nrfPin{p: machine.Pin(n), n: n}, true
}

func (nrfProvider) ADC(n int) (core.ADCHandle, bool) {
	if !analogCapable(n) {
		return nil, false
	}
	return newADC(n), true
}

func (nrfProvider) I2C(id core.ResourceID, sda, scl int) (core.I2C, error) {
	var bus *machine.I2C
	switch id {
	case "i2c0":
		bus = machine.I2C0
	case "i2c1":
		bus = machine.I2C1
	default:
		return nil, errcode.UnknownBus
	}
	if sda < 0 || sda > maxPin || scl < 0 || scl > maxPin {
		return nil, errcode.UnknownPin
	}
	err := bus.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.Pin(sda),
		SCL:       machine.Pin(scl),
	})
	if err != nil {
		return nil, errcode.Wrap(errcode.DriverInit, "i2c", err)
	}
	return &nrfI2C{I2C: bus, sda: machine.Pin(sda), scl: machine.Pin(scl)}, nil
}

func (nrfProvider) PDM(clk, din int) (core.PDMHandle, bool) {
	if clk < 0 || clk > maxPin || din < 0 || din > maxPin {
		return nil, false
	}
	return &nrfPDM{clk: machine.Pin(clk), din: machine.Pin(din)}, true
}

// ---- GPIO ----

type nrfPin struct {
	p machine.Pin
	n int
}

func (r *nrfPin) Number() int { return r.n }

func (r *nrfPin) ConfigureInput(pull core.Pull) error {
	var mode machine.PinMode
	switch pull {
	case core.PullUp:
		mode = machine.PinInputPullup
	case core.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

// ConfigureOutput latches the level before switching direction so the line
// never shows the stale OUT bit.
func (r *nrfPin) ConfigureOutput(initial bool) error {
	r.p.Set(initial)
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return nil
}

// Direction reads the port DIR register.
func (r *nrfPin) Direction() core.Direction {
	port, bit := nrf.P0, uint32(r.n)
	if r.n >= 32 {
		port, bit = nrf.P1, uint32(r.n-32)
	}
	if port.DIR.Get()&(1<<bit) != 0 {
		return core.DirOutput
	}
	return core.DirInput
}

func (r *nrfPin) Set(b bool) { r.p.Set(b) }
func (r *nrfPin) Get() bool  { return r.p.Get() }

// Release leaves the line as a floating input.
func (r *nrfPin) Release() error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinInput})
	return nil
}

// ---- ADC ----

var adcInit sync.Once

// SAADC inputs AIN0..AIN7.
func analogCapable(n int) bool {
	switch n {
	case 2, 3, 4, 5, 28, 29, 30, 31:
		return true
	}
	return false
}

// Internal 0.6 V reference with gain 1/6: full scale is 3.6 V whatever VDD is.
const adcReferenceMV = 3600

type nrfADC struct {
	a machine.ADC
	n int
}

func newADC(n int) *nrfADC {
	adcInit.Do(machine.InitADC)
	a := machine.ADC{Pin: machine.Pin(n)}
	a.Configure(machine.ADCConfig{Reference: adcReferenceMV, Resolution: 12, Samples: 4})
	return &nrfADC{a: a, n: n}
}

func (a *nrfADC) Number() int               { return a.n }
func (a *nrfADC) Get() (uint16, error)      { return a.a.Get(), nil }
func (a *nrfADC) ReferenceVoltage() float32 { return adcReferenceMV / 1000.0 }

// ---- I²C ----

type nrfI2C struct {
	*machine.I2C
	sda, scl machine.Pin
}

// Release floats SDA/SCL so the bus pull-ups stop sourcing current into a
// powered-down device.
func (b *nrfI2C) Release() error {
	b.sda.Configure(machine.PinConfig{Mode: machine.PinInput})
	b.scl.Configure(machine.PinConfig{Mode: machine.PinInput})
	return nil
}
