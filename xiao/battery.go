package xiao

import (
	"errors"
	"sync/atomic"

	"xiaosense-go/errcode"
	"xiaosense-go/hal/core"
	"xiaosense-go/types"
	"xiaosense-go/x/timex"
)

// ChargeCurrent is the charger's fast-charge current setting.
type ChargeCurrent uint8

const (
	Charge50mA ChargeCurrent = iota
	Charge100mA
)

func (c ChargeCurrent) Valid() bool { return c == Charge50mA || c == Charge100mA }

func (c ChargeCurrent) MilliAmps() int32 {
	switch c {
	case Charge50mA:
		return 50
	case Charge100mA:
		return 100
	default:
		return 0
	}
}

func (c ChargeCurrent) String() string {
	switch c {
	case Charge50mA:
		return "50mA"
	case Charge100mA:
		return "100mA"
	default:
		return "invalid"
	}
}

// ParseChargeCurrent accepts "50", "50mA", "100" or "100mA".
func ParseChargeCurrent(s string) (ChargeCurrent, error) {
	switch s {
	case "50", "50mA", "50ma":
		return Charge50mA, nil
	case "100", "100mA", "100ma":
		return Charge100mA, nil
	}
	return 0, errcode.InvalidArgument
}

const batteryDevID = "battery"

// Battery reads the charger status lines and the gated VBAT divider.
type Battery struct {
	reg *core.Registry
	cfg types.BoardConfig

	status     core.GPIOHandle // ~CHG, pulled up
	speed      core.GPIOHandle // HICHG
	readEnable core.GPIOHandle
	vbat       core.ADCHandle

	claims core.Claims
	busy   atomic.Bool
	closed bool
}

// NewBattery claims the battery pins and the VBAT input. On error nothing
// stays claimed.
func NewBattery(reg *core.Registry, cfg types.BoardConfig) (*Battery, error) {
	b := &Battery{reg: reg, cfg: cfg}
	if err := b.claim(); err != nil {
		b.claims.ReleaseAll()
		return nil, err
	}
	return b, nil
}

func (b *Battery) claim() error {
	var err error
	if b.status, err = b.claimInput(b.cfg.ChargeStatusPin, core.PullUp); err != nil {
		return err
	}
	if b.speed, err = b.claimInput(b.cfg.ChargeCurrentPin, core.PullNone); err != nil {
		return err
	}
	if b.readEnable, err = b.claimInput(b.cfg.ReadBattEnablePin, core.PullNone); err != nil {
		return err
	}
	n := b.cfg.VBattPin
	if b.vbat, err = b.reg.ClaimADC(batteryDevID, n); err != nil {
		return err
	}
	b.claims.Add(func() { b.reg.ReleaseADC(batteryDevID, n) })
	return nil
}

func (b *Battery) claimInput(n int, pull core.Pull) (core.GPIOHandle, error) {
	h, err := b.reg.ClaimGPIO(batteryDevID, n)
	if err != nil {
		return nil, err
	}
	b.claims.Add(func() { b.reg.ReleaseGPIO(batteryDevID, n) })
	if err := h.ConfigureInput(pull); err != nil {
		return nil, err
	}
	return h, nil
}

// ChargeComplete reports whether the charger has finished (~CHG released).
func (b *Battery) ChargeComplete() (bool, error) {
	if b.closed {
		return false, errcode.Released
	}
	return !b.status.Get(), nil
}

// Voltage samples the battery. The divider is engaged only for the duration
// of the read; the enable line is always returned to high impedance.
// A failure to release the line is reported even when the sample succeeded.
func (b *Battery) Voltage() (v float32, err error) {
	if b.closed {
		return 0, errcode.Released
	}
	if !b.busy.CompareAndSwap(false, true) {
		return 0, errcode.Busy
	}
	defer b.busy.Store(false)

	if err := b.readEnable.ConfigureOutput(false); err != nil {
		return 0, err
	}
	defer func() {
		if rerr := b.readEnable.ConfigureInput(core.PullNone); rerr != nil {
			v, err = 0, errors.Join(err, rerr)
		}
	}()

	sleep(b.cfg.VoltageSettle())
	raw, err := b.vbat.Get()
	if err != nil {
		return 0, err
	}
	return RawToVolts(raw, b.vbat.ReferenceVoltage()), nil
}

// RawToVolts converts a 16-bit sample behind the 1:2 divider to volts.
func RawToVolts(raw uint16, ref float32) float32 {
	return float32(raw) / 65535 * ref * 2
}

// ChargeCurrent reads the current setting back from the HICHG line.
func (b *Battery) ChargeCurrent() (ChargeCurrent, error) {
	if b.closed {
		return 0, errcode.Released
	}
	return chargeCurrentOf(b.speed.Direction()), nil
}

// SetChargeCurrent selects 50 mA (HICHG floating) or 100 mA (HICHG low).
// Any other value fails with errcode.InvalidArgument and leaves the line alone.
func (b *Battery) SetChargeCurrent(c ChargeCurrent) error {
	if b.closed {
		return errcode.Released
	}
	if !c.Valid() {
		return errcode.InvalidArgument
	}
	if !b.busy.CompareAndSwap(false, true) {
		return errcode.Busy
	}
	defer b.busy.Store(false)
	return applyChargeCurrent(b.speed, c)
}

// Pin direction is the only state the charger sees.

func chargeCurrentOf(d core.Direction) ChargeCurrent {
	if d == core.DirInput {
		return Charge50mA
	}
	return Charge100mA
}

func applyChargeCurrent(h core.GPIOHandle, c ChargeCurrent) error {
	if c == Charge50mA {
		return h.ConfigureInput(core.PullNone)
	}
	return h.ConfigureOutput(false)
}

// Snapshot takes every battery reading once.
func (b *Battery) Snapshot() (types.BatteryValue, error) {
	charged, err := b.ChargeComplete()
	if err != nil {
		return types.BatteryValue{}, err
	}
	cc, err := b.ChargeCurrent()
	if err != nil {
		return types.BatteryValue{}, err
	}
	v, err := b.Voltage()
	if err != nil {
		return types.BatteryValue{}, err
	}
	return types.BatteryValue{
		Charged:         charged,
		ChargeCurrentMA: cc.MilliAmps(),
		Volts:           v,
		TSms:            timex.NowMs(),
	}, nil
}

// Close releases all four handles. Further calls do nothing.
func (b *Battery) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.claims.ReleaseAll()
	return nil
}
