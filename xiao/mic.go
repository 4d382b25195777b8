package xiao

import (
	"xiaosense-go/errcode"
	"xiaosense-go/hal/core"
	"xiaosense-go/types"
)

const micDevID = "mic"

// Mic is the power-gated PDM microphone.
type Mic struct {
	reg *core.Registry
	cfg types.BoardConfig
	pc  core.PDMConfig

	pwr core.GPIOHandle
	pdm core.PDMHandle

	claims core.Claims
	closed bool
}

// NewMic powers the microphone and starts the PDM peripheral at the given
// rate and depth. Values the peripheral cannot do fail with
// errcode.InvalidArgument; other setup failures with errcode.DriverInit.
func NewMic(reg *core.Registry, cfg types.BoardConfig, sampleRate uint32, bitDepth uint8) (*Mic, error) {
	m := &Mic{reg: reg, cfg: cfg, pc: core.PDMConfig{SampleRate: sampleRate, BitDepth: bitDepth}}
	if err := m.init(); err != nil {
		m.claims.ReleaseAll()
		return nil, err
	}
	return m, nil
}

func (m *Mic) init() error {
	var err error
	if m.pwr, err = claimPowerGate(m.reg, micDevID, m.cfg.MicPowerPin, &m.claims); err != nil {
		return err
	}

	clk, din := m.cfg.MicClkPin, m.cfg.MicDinPin
	if m.pdm, err = m.reg.ClaimPDM(micDevID, clk, din); err != nil {
		return err
	}
	pdm := m.pdm
	m.claims.Add(func() {
		_ = pdm.Stop()
		m.reg.ReleasePDM(micDevID, clk, din)
	})

	if err := m.pdm.Configure(m.pc); err != nil {
		if errcode.Of(err) == errcode.InvalidArgument {
			return err
		}
		return errcode.Wrap(errcode.DriverInit, "pdm", err)
	}
	return nil
}

func (m *Mic) SampleRate() uint32 { return m.pc.SampleRate }
func (m *Mic) BitDepth() uint8    { return m.pc.BitDepth }

// Record fills buf with samples and returns how many were written.
func (m *Mic) Record(buf []int16) (int, error) {
	if m.closed {
		return 0, errcode.Released
	}
	return m.pdm.Record(buf)
}

// Close stops the PDM peripheral, then cuts microphone power. Further calls
// do nothing.
func (m *Mic) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.claims.ReleaseAll()
	return nil
}
