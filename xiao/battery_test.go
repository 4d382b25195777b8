package xiao

import (
	"errors"
	"testing"
	"time"

	"xiaosense-go/errcode"
	"xiaosense-go/hal/core"
	"xiaosense-go/hal/fake"
	"xiaosense-go/types"
)

func newTestBattery(t *testing.T) (*fake.Provider, *core.Registry, *Battery) {
	t.Helper()
	p, reg := fake.Registry()
	b, err := NewBattery(reg, types.XiaoSense())
	if err != nil {
		t.Fatalf("NewBattery: %v", err)
	}
	return p, reg, b
}

func TestBattery_InitialLineConfig(t *testing.T) {
	p, _, b := newTestBattery(t)
	defer b.Close()
	cfg := types.XiaoSense()

	st := mustPin(t, p, cfg.ChargeStatusPin)
	if st.Direction() != core.DirInput || st.Pull() != core.PullUp {
		t.Fatalf("status pin: dir=%v pull=%v", st.Direction(), st.Pull())
	}
	if d := mustPin(t, p, cfg.ReadBattEnablePin).Direction(); d != core.DirInput {
		t.Fatalf("read-enable should start high-Z, dir=%v", d)
	}
	cc, err := b.ChargeCurrent()
	if err != nil || cc != Charge50mA {
		t.Fatalf("initial charge current %v, %v", cc, err)
	}
}

func TestBattery_ChargeCurrentRoundTrip(t *testing.T) {
	_, _, b := newTestBattery(t)
	defer b.Close()

	for _, want := range []ChargeCurrent{Charge100mA, Charge50mA, Charge50mA, Charge100mA} {
		if err := b.SetChargeCurrent(want); err != nil {
			t.Fatalf("set %v: %v", want, err)
		}
		got, err := b.ChargeCurrent()
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got != want {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestBattery_HighCurrentDrivesLineLow(t *testing.T) {
	p, _, b := newTestBattery(t)
	defer b.Close()
	pin := mustPin(t, p, types.XiaoSense().ChargeCurrentPin)

	if err := b.SetChargeCurrent(Charge100mA); err != nil {
		t.Fatal(err)
	}
	if pin.Direction() != core.DirOutput || pin.Get() {
		t.Fatalf("HICHG should be output low: dir=%v level=%v", pin.Direction(), pin.Get())
	}
}

func TestBattery_InvalidChargeCurrent(t *testing.T) {
	p, _, b := newTestBattery(t)
	defer b.Close()
	pin := mustPin(t, p, types.XiaoSense().ChargeCurrentPin)

	for _, prior := range []ChargeCurrent{Charge50mA, Charge100mA} {
		if err := b.SetChargeCurrent(prior); err != nil {
			t.Fatal(err)
		}
		dir := pin.Direction()
		n := len(p.Log.Events())

		for _, bad := range []ChargeCurrent{2, 7, 255} {
			err := b.SetChargeCurrent(bad)
			if !errors.Is(err, errcode.InvalidArgument) {
				t.Fatalf("set %d: expected invalid_argument, got %v", bad, err)
			}
		}
		if pin.Direction() != dir {
			t.Fatalf("direction changed after invalid set")
		}
		if len(p.Log.Events()) != n {
			t.Fatalf("invalid set touched hardware: %v", p.Log.Events()[n:])
		}
		if got, _ := b.ChargeCurrent(); got != prior {
			t.Fatalf("got %v want %v", got, prior)
		}
	}
}

func TestParseChargeCurrent(t *testing.T) {
	cases := map[string]ChargeCurrent{"50": Charge50mA, "50mA": Charge50mA, "100": Charge100mA, "100mA": Charge100mA}
	for in, want := range cases {
		got, err := ParseChargeCurrent(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %v, %v", in, got, err)
		}
	}
	if _, err := ParseChargeCurrent("75"); !errors.Is(err, errcode.InvalidArgument) {
		t.Fatalf("expected invalid_argument, got %v", err)
	}
	if Charge50mA.MilliAmps() != 50 || Charge100mA.MilliAmps() != 100 || ChargeCurrent(9).MilliAmps() != 0 {
		t.Fatal("MilliAmps mismatch")
	}
}

func TestBattery_ChargeCompleteIsInverted(t *testing.T) {
	p, _, b := newTestBattery(t)
	defer b.Close()
	pin := mustPin(t, p, types.XiaoSense().ChargeStatusPin)

	for _, raw := range []bool{true, false, false, true} {
		pin.Drive(raw)
		got, err := b.ChargeComplete()
		if err != nil {
			t.Fatal(err)
		}
		if got != !raw {
			t.Fatalf("raw=%v complete=%v", raw, got)
		}
	}
}

func TestBattery_VoltageBoundaries(t *testing.T) {
	p, _, b := newTestBattery(t)
	defer b.Close()
	cfg := types.XiaoSense()
	delays := stubSleep(t, p.Log)
	adc, _ := p.FakeADC(cfg.VBattPin)
	en := mustPin(t, p, cfg.ReadBattEnablePin)

	adc.OnGet = func() {
		if en.Direction() != core.DirOutput || en.Get() {
			t.Errorf("divider not engaged while sampling: dir=%v level=%v", en.Direction(), en.Get())
		}
	}

	cases := []struct {
		raw  uint16
		want float32
	}{
		{0, 0},
		{65535, adc.Ref * 2},
	}
	for _, c := range cases {
		adc.Raw = c.raw
		got, err := b.Voltage()
		if err != nil {
			t.Fatalf("raw %d: %v", c.raw, err)
		}
		if got != c.want {
			t.Fatalf("raw %d: got %v want %v", c.raw, got, c.want)
		}
		if en.Direction() != core.DirInput {
			t.Fatalf("raw %d: read-enable left as output", c.raw)
		}
	}
	if len(*delays) != 2 || (*delays)[0] != 3*time.Millisecond {
		t.Fatalf("settle delays %v", *delays)
	}
	before(t, p.Log, "gpio14:out:0", "sleep:3ms")
	before(t, p.Log, "sleep:3ms", "adc31:get")
}

func TestBattery_VoltageMidScale(t *testing.T) {
	p, _, b := newTestBattery(t)
	defer b.Close()
	stubSleep(t, nil)
	adc, _ := p.FakeADC(types.XiaoSense().VBattPin)
	adc.Raw = 32768
	adc.Ref = 3.6

	got, err := b.Voltage()
	if err != nil {
		t.Fatal(err)
	}
	if got < 3.59 || got > 3.61 {
		t.Fatalf("got %v, want ~3.6", got)
	}
}

func TestBattery_VoltageRestoresLineOnADCError(t *testing.T) {
	p, _, b := newTestBattery(t)
	defer b.Close()
	stubSleep(t, nil)
	cfg := types.XiaoSense()
	adc, _ := p.FakeADC(cfg.VBattPin)
	adc.Err = errors.New("saadc timeout")

	if _, err := b.Voltage(); err == nil || err.Error() != "saadc timeout" {
		t.Fatalf("expected adc error, got %v", err)
	}
	if d := mustPin(t, p, cfg.ReadBattEnablePin).Direction(); d != core.DirInput {
		t.Fatalf("read-enable left as %v", d)
	}
}

func TestBattery_VoltageReportsStuckEnableLine(t *testing.T) {
	p, _, b := newTestBattery(t)
	stubSleep(t, nil)
	cfg := types.XiaoSense()
	adc, _ := p.FakeADC(cfg.VBattPin)
	adc.Raw = 40000
	en := mustPin(t, p, cfg.ReadBattEnablePin)
	stuck := errors.New("pin locked")
	en.InputErr = stuck

	v, err := b.Voltage()
	if !errors.Is(err, stuck) {
		t.Fatalf("expected restore error, got v=%v err=%v", v, err)
	}
	if v != 0 {
		t.Fatalf("voltage should not be reported with a stuck line, got %v", v)
	}

	en.InputErr = nil
	if _, err := b.Voltage(); err != nil {
		t.Fatalf("Voltage after recovery: %v", err)
	}
	if en.Direction() != core.DirInput {
		t.Fatalf("read-enable left as %v", en.Direction())
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestBattery_VoltageRefusesReentry(t *testing.T) {
	p, _, b := newTestBattery(t)
	defer b.Close()
	stubSleep(t, nil)
	adc, _ := p.FakeADC(types.XiaoSense().VBattPin)

	var nested error
	var nestedSet error
	adc.OnGet = func() {
		_, nested = b.Voltage()
		nestedSet = b.SetChargeCurrent(Charge100mA)
	}
	if _, err := b.Voltage(); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(nested, errcode.Busy) || !errors.Is(nestedSet, errcode.Busy) {
		t.Fatalf("expected busy, got %v / %v", nested, nestedSet)
	}
	if adc.Reads() != 1 {
		t.Fatalf("reads=%d", adc.Reads())
	}
	// The guard is dropped once the outer read finishes.
	adc.OnGet = nil
	if _, err := b.Voltage(); err != nil {
		t.Fatal(err)
	}
}

func TestBattery_EndToEnd(t *testing.T) {
	p, reg, b := newTestBattery(t)
	cfg := types.XiaoSense()

	if err := b.SetChargeCurrent(Charge100mA); err != nil {
		t.Fatal(err)
	}
	if got, _ := b.ChargeCurrent(); got != Charge100mA {
		t.Fatalf("got %v", got)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	for _, n := range []int{cfg.ChargeStatusPin, cfg.ChargeCurrentPin, cfg.ReadBattEnablePin} {
		if got := mustPin(t, p, n).Released(); got != 1 {
			t.Fatalf("pin %d released %d times", n, got)
		}
	}
	adc, _ := p.FakeADC(cfg.VBattPin)
	if adc.Released() != 1 {
		t.Fatalf("adc released %d times", adc.Released())
	}

	// Second Close releases nothing more.
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if adc.Released() != 1 || mustPin(t, p, cfg.ChargeStatusPin).Released() != 1 {
		t.Fatal("second Close released again")
	}

	if _, err := b.Voltage(); !errors.Is(err, errcode.Released) {
		t.Fatalf("use after close: %v", err)
	}
	if err := b.SetChargeCurrent(Charge50mA); !errors.Is(err, errcode.Released) {
		t.Fatalf("use after close: %v", err)
	}

	// Everything can be claimed again.
	b2, err := NewBattery(reg, cfg)
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	b2.Close()
}

func TestBattery_PartialConstructionReleases(t *testing.T) {
	p, reg := fake.Registry()
	cfg := types.XiaoSense()

	// Someone else holds the read-enable line.
	if _, err := reg.ClaimGPIO("other", cfg.ReadBattEnablePin); err != nil {
		t.Fatal(err)
	}
	b, err := NewBattery(reg, cfg)
	if !errors.Is(err, errcode.PinInUse) || b != nil {
		t.Fatalf("expected pin_in_use, got %v, %v", b, err)
	}
	for _, n := range []int{cfg.ChargeStatusPin, cfg.ChargeCurrentPin} {
		if _, held := reg.Owner(core.ResourceID("gpio" + itoa(n))); held {
			t.Fatalf("pin %d still held", n)
		}
		if got := mustPin(t, p, n).Released(); got != 1 {
			t.Fatalf("pin %d released %d times", n, got)
		}
	}
	if owner, _ := reg.Owner(core.ResourceID("gpio" + itoa(cfg.ReadBattEnablePin))); owner != "other" {
		t.Fatalf("foreign claim disturbed, owner=%q", owner)
	}
}

func TestBattery_UnknownADC(t *testing.T) {
	_, reg := fake.Registry()
	cfg := types.XiaoSense()
	cfg.VBattPin = 99
	if _, err := NewBattery(reg, cfg); !errors.Is(err, errcode.UnknownPin) {
		t.Fatalf("expected unknown_pin, got %v", err)
	}
	// All three digital lines came back.
	if _, err := NewBattery(reg, types.XiaoSense()); err != nil {
		t.Fatalf("retry with good config: %v", err)
	}
}

func TestBattery_Snapshot(t *testing.T) {
	p, _, b := newTestBattery(t)
	defer b.Close()
	stubSleep(t, nil)
	cfg := types.XiaoSense()
	mustPin(t, p, cfg.ChargeStatusPin).Drive(false)
	adc, _ := p.FakeADC(cfg.VBattPin)
	adc.Raw = 65535

	v, err := b.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if !v.Charged || v.ChargeCurrentMA != 50 || v.Volts != adc.Ref*2 || v.TSms == 0 {
		t.Fatalf("snapshot %+v", v)
	}
}
