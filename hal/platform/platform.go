// Package platform supplies the core.Provider for the build target and the
// process-wide registry built on it.
//
//	nrf52840            TinyGo machine + device/nrf
//	linux && !baremetal periph.io bench backend
//	anything else       no resources (tests inject hal/fake)
package platform

import (
	"sync"

	"xiaosense-go/hal/core"
)

var (
	once sync.Once
	res  core.Resources
)

// GetResources returns the single registry for this process. Every
// component must claim through it for ownership to be exclusive.
func GetResources() core.Resources {
	once.Do(func() {
		res = core.Resources{Reg: core.NewRegistry(DefaultProvider())}
	})
	return res
}
