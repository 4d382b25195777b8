package main

import (
	"time"

	"xiaosense-go/hal/platform"
	"xiaosense-go/types"
	"xiaosense-go/xiao"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	res := platform.GetResources()
	cfg := types.XiaoSense()

	batt, err := xiao.NewBattery(res.Reg, cfg)
	if err != nil {
		println("battery:", err.Error())
		return
	}
	defer batt.Close()

	// Plain (non-Sense) boards have no IMU; carry on without it.
	imu, err := xiao.NewIMU(res.Reg, cfg)
	if err != nil {
		println("imu:", err.Error())
	} else {
		defer imu.Close()
	}

	mic, err := xiao.NewMic(res.Reg, cfg, 16000, 16)
	if err != nil {
		println("mic:", err.Error())
	} else {
		defer mic.Close()
	}
	pcm := make([]int16, 256)

	// Periodic stats.
	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	for t := range tick.C {
		v, err := batt.Snapshot()
		if err != nil {
			println(t.Format("15:04:05"), "battery:", err.Error())
			continue
		}
		println(t.Format("15:04:05"), "vbat_mV", v.MilliVolts(), "charged", v.Charged, "ichg_mA", v.ChargeCurrentMA)

		if imu != nil {
			x, y, z, err := imu.ReadAcceleration()
			if err != nil {
				println("imu:", err.Error())
			} else {
				println("  accel_ug", x, y, z)
			}
		}

		if mic != nil {
			n, err := mic.Record(pcm)
			if err != nil {
				println("mic:", err.Error())
				continue
			}
			println("  mic_peak", peak(pcm[:n]))
		}
	}
}

func peak(s []int16) int32 {
	var p int32
	for _, v := range s {
		a := int32(v)
		if a < 0 {
			a = -a
		}
		if a > p {
			p = a
		}
	}
	return p
}
