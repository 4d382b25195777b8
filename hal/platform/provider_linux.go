//go:build linux && !baremetal

package platform

import (
	"fmt"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"xiaosense-go/errcode"
	"xiaosense-go/hal/core"
	"xiaosense-go/x/mathx"
)

// LinuxOptions wires the bench rig. Pins are the SoC GPIO numbers
// (gpioreg "GPIO<n>"); analog inputs come from an ADS1115.
type LinuxOptions struct {
	ADCBus      string      `json:"adc_bus"`      // i2creg name, default "I2C1"
	ADCAddr     uint16      `json:"adc_addr"`     // default 0x48
	ADCChannels map[int]int `json:"adc_channels"` // board pin -> ADS1115 AIN0..3, default {31: 0}
}

func (o LinuxOptions) withDefaults() LinuxOptions {
	if o.ADCBus == "" {
		o.ADCBus = "I2C1"
	}
	if o.ADCAddr == 0 {
		o.ADCAddr = 0x48
	}
	if o.ADCChannels == nil {
		o.ADCChannels = map[int]int{31: 0}
	}
	return o
}

// DefaultProvider uses the default bench wiring.
func DefaultProvider() core.Provider { return NewLinuxProvider(LinuxOptions{}) }

// NewLinuxProvider returns a periph.io backed provider. host.Init runs on
// first use.
func NewLinuxProvider(opts LinuxOptions) core.Provider {
	return &linuxProvider{opts: opts.withDefaults()}
}

type linuxProvider struct {
	opts LinuxOptions

	once    sync.Once
	initErr error
}

func (l *linuxProvider) init() error {
	l.once.Do(func() {
		if _, err := host.Init(); err != nil {
			l.initErr = pkgerrors.Wrap(err, "periph host init")
		}
	})
	return l.initErr
}

func (l *linuxProvider) Pin(n int) (core.GPIOHandle, bool) {
	if l.init() != nil {
		return nil, false
	}
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
	if p == nil {
		return nil, false
	}
	return &linuxPin{p: p, n: n}, true
}

func (l *linuxProvider) ADC(n int) (core.ADCHandle, bool) {
	ch, ok := l.opts.ADCChannels[n]
	if !ok || ch < 0 || ch > 3 || l.init() != nil {
		return nil, false
	}
	return &ads1115{bus: l.opts.ADCBus, addr: l.opts.ADCAddr, ch: ch, n: n}, true
}

// I2C opens the bus by its periph alias ("i2c1" -> "I2C1"). The kernel owns
// the pin mux, so sda/scl are only reserved, not configured.
func (l *linuxProvider) I2C(id core.ResourceID, _, _ int) (core.I2C, error) {
	if err := l.init(); err != nil {
		return nil, err
	}
	b, err := i2creg.Open(strings.ToUpper(string(id)))
	if err != nil {
		return nil, &errcode.E{C: errcode.UnknownBus, Op: "i2c", Msg: string(id), Err: err}
	}
	return &linuxI2C{b: b}, nil
}

// PDM has no bench equivalent.
func (l *linuxProvider) PDM(int, int) (core.PDMHandle, bool) { return nil, false }

// ---- GPIO ----

type linuxPin struct {
	p   gpio.PinIO
	n   int
	dir core.Direction
}

func (r *linuxPin) Number() int { return r.n }

func (r *linuxPin) ConfigureInput(pull core.Pull) error {
	gp := gpio.Float
	switch pull {
	case core.PullUp:
		gp = gpio.PullUp
	case core.PullDown:
		gp = gpio.PullDown
	}
	if err := r.p.In(gp, gpio.NoEdge); err != nil {
		return pkgerrors.Wrapf(err, "gpio%d: input", r.n)
	}
	r.dir = core.DirInput
	return nil
}

func (r *linuxPin) ConfigureOutput(initial bool) error {
	if err := r.p.Out(gpio.Level(initial)); err != nil {
		return pkgerrors.Wrapf(err, "gpio%d: output", r.n)
	}
	r.dir = core.DirOutput
	return nil
}

// Direction is tracked here; periph does not expose the DIR bit portably.
func (r *linuxPin) Direction() core.Direction { return r.dir }

// Set has no error return in core.GPIOHandle; a failed write is logged so a
// stuck power gate shows up on the bench.
func (r *linuxPin) Set(b bool) {
	if err := r.p.Out(gpio.Level(b)); err != nil {
		logrus.WithError(err).WithField("pin", r.n).Warnf("gpio%d: set %v failed", r.n, b)
	}
}

func (r *linuxPin) Get() bool { return bool(r.p.Read()) }

func (r *linuxPin) Release() error {
	r.dir = core.DirInput
	return r.p.In(gpio.Float, gpio.NoEdge)
}

// ---- I²C ----

type linuxI2C struct {
	b i2c.BusCloser
}

func (b *linuxI2C) Tx(addr uint16, w, r []byte) error { return b.b.Tx(addr, w, r) }
func (b *linuxI2C) Release() error                    { return b.b.Close() }

// ---- ADS1115 ----

const (
	adsPointerConv   = 0x00
	adsPointerConfig = 0x01
	adsFullScale     = 4.096 // PGA ±4.096 V
)

// ads1115 is one single-ended ADS1115 input, opened per sample.
type ads1115 struct {
	bus  string
	addr uint16
	ch   int
	n    int
}

func (a *ads1115) Number() int               { return a.n }
func (a *ads1115) ReferenceVoltage() float32 { return adsFullScale }

func (a *ads1115) Get() (uint16, error) {
	b, err := i2creg.Open(a.bus)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "open %s", a.bus)
	}
	defer b.Close()
	return adsSample(&i2c.Dev{Addr: a.addr, Bus: b}, a.ch)
}

// adsSample runs one single-shot conversion and scales it to 0..65535.
func adsSample(dev *i2c.Dev, ch int) (uint16, error) {
	msb, lsb := adsConfig(ch)
	if err := dev.Tx([]byte{adsPointerConfig, msb, lsb}, nil); err != nil {
		return 0, pkgerrors.Wrap(err, "ads1115: write config")
	}
	// 860 SPS conversion is ~1.2 ms.
	time.Sleep(2 * time.Millisecond)
	var rb [2]byte
	if err := dev.Tx([]byte{adsPointerConv}, rb[:]); err != nil {
		return 0, pkgerrors.Wrap(err, "ads1115: read conversion")
	}
	return adsScale(int16(uint16(rb[0])<<8 | uint16(rb[1]))), nil
}

// adsConfig builds the config word: single-shot start, AINx vs GND,
// ±4.096 V, 860 SPS, comparator off.
func adsConfig(ch int) (byte, byte) {
	var cfg uint16 = 0x8000
	cfg |= uint16(0x4+ch) << 12
	cfg |= 0x1 << 9
	cfg |= 1 << 8
	cfg |= 0x7 << 5
	cfg |= 0x3
	return byte(cfg >> 8), byte(cfg)
}

// adsScale maps a single-ended result (negative only through noise) onto
// the 16-bit full-scale range.
func adsScale(raw int16) uint16 {
	v := mathx.Clamp(raw, 0, 32767)
	return mathx.MapU16(uint16(v), 0, 32767, 0, 65535)
}
