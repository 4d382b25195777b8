// Package fake provides host-side peripheral doubles for tests. Every
// handle records what happened to it in a shared, ordered Log so tests can
// assert sequencing across handles (power before bus, bus before power-off).
package fake

import (
	"strconv"
	"sync"

	"xiaosense-go/errcode"
	"xiaosense-go/hal/core"
)

// ----------------------------- Event log -------------------------------------

type Log struct {
	mu     sync.Mutex
	events []string
}

func (l *Log) add(ev string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

// Events returns a copy of everything logged so far.
func (l *Log) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// Index returns the position of the first ev, or -1.
func (l *Log) Index(ev string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.events {
		if e == ev {
			return i
		}
	}
	return -1
}

// Mark appends a caller-defined event (e.g. a delay) to the log.
func (l *Log) Mark(ev string) { l.add(ev) }

// Reset clears the log.
func (l *Log) Reset() {
	l.mu.Lock()
	l.events = nil
	l.mu.Unlock()
}

func b01(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// ----------------------------- GPIO ------------------------------------------

// Pin implements core.GPIOHandle. An input pin with a pull-up reads high
// until a test drives it with Drive.
type Pin struct {
	mu       sync.Mutex
	n        int
	level    bool
	dir      core.Direction
	pull     core.Pull
	released int
	log      *Log

	// InputErr, when set, makes ConfigureInput fail and leave the pin as is.
	InputErr error
}

func (p *Pin) tag() string { return "gpio" + strconv.Itoa(p.n) }

func (p *Pin) Number() int { return p.n }

func (p *Pin) ConfigureInput(pull core.Pull) error {
	p.mu.Lock()
	if p.InputErr != nil {
		err := p.InputErr
		p.mu.Unlock()
		return err
	}
	p.dir = core.DirInput
	p.pull = pull
	if pull == core.PullUp {
		p.level = true
	} else if pull == core.PullDown {
		p.level = false
	}
	p.mu.Unlock()
	p.log.add(p.tag() + ":in")
	return nil
}

func (p *Pin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.dir = core.DirOutput
	p.level = initial
	p.mu.Unlock()
	p.log.add(p.tag() + ":out:" + b01(initial))
	return nil
}

func (p *Pin) Direction() core.Direction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dir
}

func (p *Pin) Set(level bool) {
	p.mu.Lock()
	p.level = level
	p.mu.Unlock()
	p.log.add(p.tag() + ":set:" + b01(level))
}

func (p *Pin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *Pin) Release() error {
	p.mu.Lock()
	p.released++
	p.mu.Unlock()
	p.log.add(p.tag() + ":release")
	return nil
}

// Drive sets the externally observed level (e.g. a charger pulling ~CHG low).
func (p *Pin) Drive(level bool) {
	p.mu.Lock()
	p.level = level
	p.mu.Unlock()
}

func (p *Pin) Pull() core.Pull {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pull
}

func (p *Pin) Released() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

// ----------------------------- ADC -------------------------------------------

// ADC implements core.ADCHandle returning Raw (or Err). OnGet, when set,
// runs before the sample is returned.
type ADC struct {
	mu       sync.Mutex
	n        int
	Raw      uint16
	Err      error
	Ref      float32
	OnGet    func()
	reads    int
	released int
	log      *Log
}

func (a *ADC) tag() string { return "adc" + strconv.Itoa(a.n) }

func (a *ADC) Number() int { return a.n }

func (a *ADC) Get() (uint16, error) {
	a.mu.Lock()
	a.reads++
	hook, raw, err := a.OnGet, a.Raw, a.Err
	a.mu.Unlock()
	a.log.add(a.tag() + ":get")
	if hook != nil {
		hook()
	}
	return raw, err
}

func (a *ADC) ReferenceVoltage() float32 { return a.Ref }

func (a *ADC) Release() error {
	a.mu.Lock()
	a.released++
	a.mu.Unlock()
	a.log.add(a.tag() + ":release")
	return nil
}

func (a *ADC) Reads() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reads
}

func (a *ADC) Released() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.released
}

// ----------------------------- I²C -------------------------------------------

// I2C implements tinygo drivers.I2C. OnTx answers transactions; without it
// reads return zeros.
type I2C struct {
	mu       sync.Mutex
	id       core.ResourceID
	OnTx     func(addr uint16, w, r []byte) error
	LastAddr uint16
	txs      int
	released int
	log      *Log
}

func (b *I2C) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	b.LastAddr = addr
	b.txs++
	fn := b.OnTx
	b.mu.Unlock()
	if fn != nil {
		return fn(addr, w, r)
	}
	for i := range r {
		r[i] = 0
	}
	return nil
}

func (b *I2C) Release() error {
	b.mu.Lock()
	b.released++
	b.mu.Unlock()
	b.log.add(string(b.id) + ":release")
	return nil
}

func (b *I2C) Txs() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.txs
}

func (b *I2C) Released() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// ----------------------------- PDM -------------------------------------------

// PDM implements core.PDMHandle. Record fills buf with Sample.
type PDM struct {
	mu           sync.Mutex
	Cfg          core.PDMConfig
	ConfigureErr error
	Sample       int16
	stopped      int
	released     int
	log          *Log
}

func (m *PDM) Configure(cfg core.PDMConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log.add("pdm0:configure")
	if m.ConfigureErr != nil {
		return m.ConfigureErr
	}
	m.Cfg = cfg
	return nil
}

func (m *PDM) Record(buf []int16) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range buf {
		buf[i] = m.Sample
	}
	m.log.add("pdm0:record")
	return len(buf), nil
}

func (m *PDM) Stop() error {
	m.mu.Lock()
	m.stopped++
	m.mu.Unlock()
	m.log.add("pdm0:stop")
	return nil
}

func (m *PDM) Release() error {
	m.mu.Lock()
	m.released++
	m.mu.Unlock()
	m.log.add("pdm0:release")
	return nil
}

func (m *PDM) Stopped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

func (m *PDM) Released() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// ----------------------------- Provider --------------------------------------

// Provider implements core.Provider over stable fake handles. Pins 0..47
// exist; buses "i2c0" and "i2c1" exist.
type Provider struct {
	Log *Log

	// NoPDM makes the PDM peripheral unknown.
	NoPDM bool
	// I2CErr, when set, is returned by bus configuration.
	I2CErr error

	mu    sync.Mutex
	pins  map[int]*Pin
	adcs  map[int]*ADC
	buses map[core.ResourceID]*I2C
	pdm   *PDM
}

func NewProvider() *Provider {
	return &Provider{
		Log:   &Log{},
		pins:  make(map[int]*Pin),
		adcs:  make(map[int]*ADC),
		buses: make(map[core.ResourceID]*I2C),
	}
}

// Registry is a convenience for tests: a fresh provider and its registry.
func Registry() (*Provider, *core.Registry) {
	p := NewProvider()
	return p, core.NewRegistry(p)
}

func validPin(n int) bool { return n >= 0 && n <= 47 }

func (f *Provider) Pin(n int) (core.GPIOHandle, bool) {
	p, ok := f.FakePin(n)
	if !ok {
		return nil, false
	}
	return p, true
}

func (f *Provider) ADC(n int) (core.ADCHandle, bool) {
	a, ok := f.FakeADC(n)
	if !ok {
		return nil, false
	}
	return a, true
}

func (f *Provider) I2C(id core.ResourceID, sda, scl int) (core.I2C, error) {
	b, ok := f.FakeI2C(id)
	if !ok {
		return nil, errcode.UnknownBus
	}
	if f.I2CErr != nil {
		return nil, f.I2CErr
	}
	f.Log.add(string(id) + ":claim")
	return b, nil
}

func (f *Provider) PDM(clk, din int) (core.PDMHandle, bool) {
	m, ok := f.FakePDM()
	if !ok {
		return nil, false
	}
	f.Log.add("pdm0:claim")
	return m, true
}

// FakePin exposes the stable *Pin for n.
func (f *Provider) FakePin(n int) (*Pin, bool) {
	if !validPin(n) {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pins[n]
	if !ok {
		p = &Pin{n: n, log: f.Log}
		f.pins[n] = p
	}
	return p, true
}

// FakeADC exposes the stable *ADC for n (reference 3.3 V by default).
func (f *Provider) FakeADC(n int) (*ADC, bool) {
	if !validPin(n) {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.adcs[n]
	if !ok {
		a = &ADC{n: n, Ref: 3.3, log: f.Log}
		f.adcs[n] = a
	}
	return a, true
}

// FakeI2C exposes the stable *I2C for id.
func (f *Provider) FakeI2C(id core.ResourceID) (*I2C, bool) {
	if id != "i2c0" && id != "i2c1" {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.buses[id]
	if !ok {
		b = &I2C{id: id, log: f.Log}
		f.buses[id] = b
	}
	return b, true
}

// FakePDM exposes the single PDM peripheral.
func (f *Provider) FakePDM() (*PDM, bool) {
	if f.NoPDM {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pdm == nil {
		f.pdm = &PDM{log: f.Log}
	}
	return f.pdm, true
}
