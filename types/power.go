package types

// ------------------------
// Battery / Charger (on-board BQ25101)
// ------------------------

// BatteryValue is one snapshot of the battery manager's live reads.
type BatteryValue struct {
	Charged         bool    `json:"charged"`           // charge complete
	ChargeCurrentMA int32   `json:"charge_current_mA"` // 50 | 100
	Volts           float32 `json:"volts"`
	TSms            int64   `json:"ts_ms"`
}

// IMUValue is one snapshot of the LSM6DS3 reads, in driver units.
type IMUValue struct {
	AccelMicroG   [3]int32 `json:"accel_ug"`
	GyroMicroDegS [3]int32 `json:"gyro_udps"`
	TempMilliC    int32    `json:"temp_mC"`
	TSms          int64    `json:"ts_ms"`
}

// MilliVolts rounds Volts for integer-only output.
func (v BatteryValue) MilliVolts() int32 {
	return int32(v.Volts*1000 + 0.5)
}
