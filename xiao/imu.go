package xiao

import (
	"tinygo.org/x/drivers/lsm6ds3"

	"xiaosense-go/errcode"
	"xiaosense-go/hal/core"
	"xiaosense-go/types"
	"xiaosense-go/x/timex"
)

const imuDevID = "imu"

// imuDriver is the part of *lsm6ds3.Device the wrapper delegates to.
type imuDriver interface {
	Configure(cfg lsm6ds3.Configuration) error
	Connected() bool
	ReadAcceleration() (x, y, z int32, err error)
	ReadRotation() (x, y, z int32, err error)
	ReadTemperature() (int32, error)
}

// IMU is the power-gated LSM6DS3 on its dedicated I²C bus.
type IMU struct {
	reg *core.Registry
	cfg types.BoardConfig

	pwr core.GPIOHandle
	bus core.I2C
	dev imuDriver

	claims core.Claims
	closed bool
}

// NewIMU powers the IMU, waits for it to boot and configures it with the
// driver defaults.
func NewIMU(reg *core.Registry, cfg types.BoardConfig) (*IMU, error) {
	return NewIMUWithConfig(reg, cfg, lsm6ds3.Configuration{})
}

// NewIMUWithConfig is NewIMU with explicit ranges and rates. On error the
// bus is released and the IMU powered down again.
func NewIMUWithConfig(reg *core.Registry, cfg types.BoardConfig, dcfg lsm6ds3.Configuration) (*IMU, error) {
	m := &IMU{reg: reg, cfg: cfg}
	if err := m.init(dcfg); err != nil {
		m.claims.ReleaseAll()
		return nil, err
	}
	return m, nil
}

func (m *IMU) init(dcfg lsm6ds3.Configuration) error {
	var err error
	if m.pwr, err = claimPowerGate(m.reg, imuDevID, m.cfg.IMUPowerPin, &m.claims); err != nil {
		return err
	}
	sleep(m.cfg.IMUPowerUp())

	id, sda, scl := core.ResourceID(m.cfg.IMUBus), m.cfg.IMUSDAPin, m.cfg.IMUSCLPin
	if m.bus, err = m.reg.ClaimI2C(imuDevID, id, sda, scl); err != nil {
		return err
	}
	m.claims.Add(func() { m.reg.ReleaseI2C(imuDevID, id, sda, scl) })

	d := lsm6ds3.New(m.bus)
	d.Address = m.cfg.Address()
	m.dev = d

	if !m.dev.Connected() {
		return &errcode.E{C: errcode.DriverInit, Op: "lsm6ds3", Msg: "no device answered WHO_AM_I"}
	}
	if err := m.dev.Configure(dcfg); err != nil {
		return errcode.Wrap(errcode.DriverInit, "lsm6ds3", err)
	}
	return nil
}

// Connected reports whether the chip still answers with its ID.
func (m *IMU) Connected() bool {
	if m.closed {
		return false
	}
	return m.dev.Connected()
}

// ReadAcceleration returns acceleration in µg.
func (m *IMU) ReadAcceleration() (x, y, z int32, err error) {
	if m.closed {
		return 0, 0, 0, errcode.Released
	}
	return m.dev.ReadAcceleration()
}

// ReadRotation returns angular rate in µ°/s.
func (m *IMU) ReadRotation() (x, y, z int32, err error) {
	if m.closed {
		return 0, 0, 0, errcode.Released
	}
	return m.dev.ReadRotation()
}

// ReadTemperature returns the die temperature in m°C.
func (m *IMU) ReadTemperature() (int32, error) {
	if m.closed {
		return 0, errcode.Released
	}
	return m.dev.ReadTemperature()
}

func (m *IMU) Snapshot() (types.IMUValue, error) {
	var v types.IMUValue
	var err error
	if v.AccelMicroG[0], v.AccelMicroG[1], v.AccelMicroG[2], err = m.ReadAcceleration(); err != nil {
		return types.IMUValue{}, err
	}
	if v.GyroMicroDegS[0], v.GyroMicroDegS[1], v.GyroMicroDegS[2], err = m.ReadRotation(); err != nil {
		return types.IMUValue{}, err
	}
	if v.TempMilliC, err = m.ReadTemperature(); err != nil {
		return types.IMUValue{}, err
	}
	v.TSms = timex.NowMs()
	return v, nil
}

// Close releases the bus, then powers the IMU down and releases the pin.
// Further calls do nothing.
func (m *IMU) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.claims.ReleaseAll()
	return nil
}
