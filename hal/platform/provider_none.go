//go:build !nrf52840 && !(linux && !baremetal)

package platform

import (
	"xiaosense-go/errcode"
	"xiaosense-go/hal/core"
)

// On hosts without a backend, default to "not configured". Tests should
// inject fakes.
func DefaultProvider() core.Provider { return noProvider{} }

type noProvider struct{}

func (noProvider) Pin(int) (core.GPIOHandle, bool) { return nil, false }
func (noProvider) ADC(int) (core.ADCHandle, bool)  { return nil, false }
func (noProvider) I2C(core.ResourceID, int, int) (core.I2C, error) {
	return nil, errcode.UnknownBus
}
func (noProvider) PDM(int, int) (core.PDMHandle, bool) { return nil, false }
