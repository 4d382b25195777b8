//go:build nrf52840

package platform

import (
	"device/nrf"
	"machine"
	"unsafe"

	"xiaosense-go/errcode"
	"xiaosense-go/hal/core"
)

// PDM register values (nRF52840 PS v1.7, section 6.12).
const (
	pdmClk1032K   = 0x08400000 // PDMCLKCTRL: 1.032 MHz
	pdmRatio64    = 0          // RATIO: 1.032 MHz / 64 = 16.125 kHz
	pdmModeMono   = 1 << 0     // MODE.OPERATION
	pdmEdgeLeftFl = 0 << 1     // MODE.EDGE: left sampled on falling edge
	pdmGainUnity  = 0x28       // GAINL/GAINR: 0 dB
	pdmEnable     = 1

	pdmSampleRate = 16000
)

// nrfPDM drives the PDM peripheral in mono, one buffer per Record.
type nrfPDM struct {
	clk, din machine.Pin
	cfg      core.PDMConfig
	enabled  bool
}

func (m *nrfPDM) Configure(cfg core.PDMConfig) error {
	if cfg.SampleRate != pdmSampleRate {
		return &errcode.E{C: errcode.InvalidArgument, Op: "pdm", Msg: "sample rate must be 16000"}
	}
	if cfg.BitDepth != 8 && cfg.BitDepth != 16 {
		return &errcode.E{C: errcode.InvalidArgument, Op: "pdm", Msg: "bit depth must be 8 or 16"}
	}
	m.cfg = cfg

	m.clk.Set(false)
	m.clk.Configure(machine.PinConfig{Mode: machine.PinOutput})
	m.din.Configure(machine.PinConfig{Mode: machine.PinInput})

	nrf.PDM.PSEL.CLK.Set(uint32(m.clk))
	nrf.PDM.PSEL.DIN.Set(uint32(m.din))
	nrf.PDM.PDMCLKCTRL.Set(pdmClk1032K)
	nrf.PDM.RATIO.Set(pdmRatio64)
	nrf.PDM.MODE.Set(pdmModeMono | pdmEdgeLeftFl)
	nrf.PDM.GAINL.Set(pdmGainUnity)
	nrf.PDM.GAINR.Set(pdmGainUnity)
	nrf.PDM.ENABLE.Set(pdmEnable)
	m.enabled = true
	return nil
}

// Record fills buf by EasyDMA, one transfer per pdmMaxCount samples, and
// blocks until the last END event. With an 8-bit depth each sample is scaled
// down to the int8 range.
func (m *nrfPDM) Record(buf []int16) (int, error) {
	if !m.enabled {
		return 0, errcode.Released
	}
	if len(buf) == 0 {
		return 0, nil
	}
	n := dmaChunks(buf, pdmMaxCount, pdmTransfer)
	if m.cfg.BitDepth == 8 {
		for i := range buf[:n] {
			buf[i] >>= 8
		}
	}
	return n, nil
}

// pdmTransfer records len(chunk) samples; len(chunk) must fit MAXCNT.
func pdmTransfer(chunk []int16) int {
	nrf.PDM.SAMPLE.PTR.Set(uint32(uintptr(unsafe.Pointer(&chunk[0]))))
	nrf.PDM.SAMPLE.MAXCNT.Set(uint32(len(chunk)))

	nrf.PDM.EVENTS_END.Set(0)
	nrf.PDM.EVENTS_STOPPED.Set(0)
	nrf.PDM.TASKS_START.Set(1)
	for nrf.PDM.EVENTS_END.Get() == 0 {
	}
	nrf.PDM.TASKS_STOP.Set(1)
	for nrf.PDM.EVENTS_STOPPED.Get() == 0 {
	}
	nrf.PDM.EVENTS_STOPPED.Set(0)
	return len(chunk)
}

// Stop disables the peripheral. Safe to call when already stopped.
func (m *nrfPDM) Stop() error {
	if !m.enabled {
		return nil
	}
	nrf.PDM.ENABLE.Set(0)
	m.enabled = false
	return nil
}

// Release disconnects the pins from the peripheral and floats them.
func (m *nrfPDM) Release() error {
	_ = m.Stop()
	nrf.PDM.PSEL.CLK.Set(0xFFFFFFFF)
	nrf.PDM.PSEL.DIN.Set(0xFFFFFFFF)
	m.clk.Configure(machine.PinConfig{Mode: machine.PinInput})
	m.din.Configure(machine.PinConfig{Mode: machine.PinInput})
	return nil
}
