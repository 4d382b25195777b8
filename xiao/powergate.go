package xiao

import "xiaosense-go/hal/core"

// claimPowerGate claims pin n, drives it active and queues the reverse:
// drive inactive, then release. Anything pushed onto claims afterwards is
// released before power is cut.
func claimPowerGate(reg *core.Registry, devID string, n int, claims *core.Claims) (core.GPIOHandle, error) {
	h, err := reg.ClaimGPIO(devID, n)
	if err != nil {
		return nil, err
	}
	claims.Add(func() {
		h.Set(false)
		reg.ReleaseGPIO(devID, n)
	})
	if err := h.ConfigureOutput(true); err != nil {
		return nil, err
	}
	return h, nil
}
