package core

import (
	"strconv"
	"sync"

	"xiaosense-go/errcode"
)

// Registry grants exclusive ownership of pins, analog inputs, buses and the
// PDM peripheral. Safe for use from multiple goroutines.
type Registry struct {
	p Provider

	mu   sync.Mutex
	used map[ResourceID]string // resource -> devID
	rel  map[ResourceID]func() // resource -> release hook for the current claim
}

func NewRegistry(p Provider) *Registry {
	return &Registry{
		p:    p,
		used: make(map[ResourceID]string),
		rel:  make(map[ResourceID]func()),
	}
}

func gpioID(n int) ResourceID { return ResourceID("gpio" + strconv.Itoa(n)) }
func adcID(n int) ResourceID  { return ResourceID("adc" + strconv.Itoa(n)) }

const pdmID ResourceID = "pdm0"

// Owner reports who holds id, if anyone.
func (r *Registry) Owner(id ResourceID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.used[id]
	return o, ok
}

// ---- GPIO ----

func (r *Registry) ClaimGPIO(devID string, n int) (GPIOHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.p.Pin(n)
	if !ok {
		return nil, errcode.UnknownPin
	}
	id := gpioID(n)
	if _, inUse := r.used[id]; inUse {
		return nil, errcode.PinInUse
	}
	r.take(devID, id, h)
	return h, nil
}

func (r *Registry) ReleaseGPIO(devID string, n int) { r.release(devID, gpioID(n)) }

// ---- ADC ----

// ClaimADC claims the analog function of pin n. The pin itself is claimed
// too, so no one can drive it digitally meanwhile.
func (r *Registry) ClaimADC(devID string, n int) (ADCHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.p.ADC(n)
	if !ok {
		return nil, errcode.UnknownPin
	}
	if _, inUse := r.used[gpioID(n)]; inUse {
		return nil, errcode.PinInUse
	}
	if _, inUse := r.used[adcID(n)]; inUse {
		return nil, errcode.PinInUse
	}
	r.used[gpioID(n)] = devID
	r.take(devID, adcID(n), h)
	return h, nil
}

func (r *Registry) ReleaseADC(devID string, n int) {
	r.release(devID, adcID(n))
	r.release(devID, gpioID(n))
}

// ---- I²C ----

// ClaimI2C claims bus id together with its SDA/SCL pins and configures it.
func (r *Registry) ClaimI2C(devID string, id ResourceID, sda, scl int) (I2C, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, inUse := r.used[id]; inUse {
		return nil, errcode.BusInUse
	}
	for _, n := range []int{sda, scl} {
		if _, inUse := r.used[gpioID(n)]; inUse {
			return nil, errcode.PinInUse
		}
	}
	b, err := r.p.I2C(id, sda, scl)
	if err != nil {
		return nil, err
	}
	r.used[gpioID(sda)] = devID
	r.used[gpioID(scl)] = devID
	r.take(devID, id, b)
	return b, nil
}

func (r *Registry) ReleaseI2C(devID string, id ResourceID, sda, scl int) {
	r.release(devID, id)
	r.release(devID, gpioID(sda))
	r.release(devID, gpioID(scl))
}

// ---- PDM ----

func (r *Registry) ClaimPDM(devID string, clk, din int) (PDMHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, inUse := r.used[pdmID]; inUse {
		return nil, errcode.BusInUse
	}
	for _, n := range []int{clk, din} {
		if _, inUse := r.used[gpioID(n)]; inUse {
			return nil, errcode.PinInUse
		}
	}
	h, ok := r.p.PDM(clk, din)
	if !ok {
		return nil, errcode.UnknownBus
	}
	r.used[gpioID(clk)] = devID
	r.used[gpioID(din)] = devID
	r.take(devID, pdmID, h)
	return h, nil
}

func (r *Registry) ReleasePDM(devID string, clk, din int) {
	r.release(devID, pdmID)
	r.release(devID, gpioID(clk))
	r.release(devID, gpioID(din))
}

// ---- internals (r.mu held by callers of take) ----

func (r *Registry) take(devID string, id ResourceID, h any) {
	r.used[id] = devID
	if x, ok := h.(Releaser); ok {
		r.rel[id] = func() { _ = x.Release() }
	}
}

// release frees id if devID owns it; otherwise it is a no-op. The handle's
// Release hook runs outside the lock.
func (r *Registry) release(devID string, id ResourceID) {
	r.mu.Lock()
	owner, ok := r.used[id]
	if !ok || owner != devID {
		r.mu.Unlock()
		return
	}
	delete(r.used, id)
	hook := r.rel[id]
	delete(r.rel, id)
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
}
