package motion

import (
	"context"
	"errors"
	"sync"
)

var ErrDetached = errors.New("sensor handle detached")

// Handle identifies one physical sensor: a bus, an address on that bus and a stable
// display name. Every bus operation made through a Handle counts as in flight until it
// returns, and Detach waits for those operations before invalidating the handle.
type Handle struct {
	name    string
	address byte
	bus     I2CBus

	mx       sync.RWMutex
	detached bool
}

func NewHandle(name string, address byte, bus I2CBus) *Handle {
	return &Handle{name: name, address: address, bus: bus}
}

func (h *Handle) Name() string {
	return h.name
}

func (h *Handle) Address() byte {
	return h.address
}

// WriteRegister writes value into reg of the sensor.
func (h *Handle) WriteRegister(ctx context.Context, reg, value byte) error {
	release, err := h.acquire()
	if err != nil {
		return err
	}
	defer release()
	return WriteRegister(ctx, h.bus, h.address, reg, value)
}

// ReadBlock burst-reads length bytes starting at startReg.
func (h *Handle) ReadBlock(ctx context.Context, startReg byte, length int) ([]byte, error) {
	release, err := h.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return ReadBlock(ctx, h.bus, h.address, startReg, length)
}

// Detach blocks until in-flight operations complete; afterwards every operation fails
// with ErrDetached. It is safe to call more than once.
func (h *Handle) Detach() {
	h.mx.Lock()
	h.detached = true
	h.mx.Unlock()
}

func (h *Handle) Detached() bool {
	h.mx.RLock()
	defer h.mx.RUnlock()
	return h.detached
}

func (h *Handle) acquire() (func(), error) {
	h.mx.RLock()
	if h.detached {
		h.mx.RUnlock()
		return nil, ErrDetached
	}
	return h.mx.RUnlock, nil
}
