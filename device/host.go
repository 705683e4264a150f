package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mklimuk/motion"
	"github.com/mklimuk/motion/accel"
	"github.com/mklimuk/motion/snsctx"
)

var (
	ErrNoResources   = errors.New("no free device slots")
	ErrNameTaken     = errors.New("device name already registered")
	ErrAddressInUse  = errors.New("bus address already attached")
	ErrUnknownDevice = errors.New("unknown device")
)

const DefaultMaxDevices = 8

type HostOpts struct {
	MaxDevices int
	Logger     *slog.Logger
}

type HostOpt func(*HostOpts)

func WithMaxDevices(n int) HostOpt {
	return func(o *HostOpts) {
		o.MaxDevices = n
	}
}

func WithLogger(logger *slog.Logger) HostOpt {
	return func(o *HostOpts) {
		o.Logger = logger
	}
}

type AttachOpts struct {
	Config accel.Config
	Init   accel.InitPolicy
}

type AttachOpt func(*AttachOpts)

func WithSensorConfig(cfg accel.Config) AttachOpt {
	return func(o *AttachOpts) {
		o.Config = cfg
	}
}

func WithStrictInit(strict bool) AttachOpt {
	return func(o *AttachOpts) {
		o.Init = accel.InitPermissive
		if strict {
			o.Init = accel.InitStrict
		}
	}
}

// Host attaches sensors found on one bus, gives them unique names and hands out read
// sessions. Counted names come from per-host counters that only ever grow, so a name
// is never handed out twice even after its device was detached.
type Host struct {
	bus    motion.I2CBus
	opts   HostOpts
	logger *slog.Logger

	mx       sync.Mutex
	devices  map[string]*accel.Sensor
	order    []string
	counters map[string]*atomic.Uint64
}

func NewHost(bus motion.I2CBus, opts ...HostOpt) *Host {
	o := HostOpts{
		MaxDevices: DefaultMaxDevices,
		Logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Host{
		bus:      bus,
		opts:     o,
		logger:   o.Logger,
		devices:  make(map[string]*accel.Sensor),
		counters: make(map[string]*atomic.Uint64),
	}
}

// Attach initializes a sensor of the given model at address and registers it. The
// sensor becomes readable only after its init sequence was applied. With a strict
// init policy a failed sequence aborts the attach; otherwise the failure is logged
// and the sensor is registered with whatever configuration it ended up in.
func (h *Host) Attach(ctx context.Context, model accel.Model, address byte, opts ...AttachOpt) (*accel.Sensor, error) {
	o := AttachOpts{Config: model.DefaultConfig, Init: model.Init}
	for _, opt := range opts {
		opt(&o)
	}

	h.mx.Lock()
	defer h.mx.Unlock()
	if len(h.devices) >= h.opts.MaxDevices {
		return nil, fmt.Errorf("%w: %d devices attached", ErrNoResources, len(h.devices))
	}
	for _, s := range h.devices {
		if s.Handle().Address() == address {
			return nil, fmt.Errorf("%w: %#02x used by %s", ErrAddressInUse, address, s.Name())
		}
	}
	name, err := h.allocateName(model)
	if err != nil {
		return nil, err
	}

	sensor := accel.NewSensor(motion.NewHandle(name, address, h.bus), model, accel.WithConfig(o.Config))
	err = sensor.Init(snsctx.WithDevice(ctx, name))
	if err != nil {
		if o.Init == accel.InitStrict {
			return nil, err
		}
		h.logger.Error("sensor initialization failed, registering anyway", "device", name, "error", err)
	}
	h.devices[name] = sensor
	h.order = append(h.order, name)
	h.logger.Info("sensor attached", "device", name, "model", model.Name, "addr", fmt.Sprintf("%#02x", address), "init", o.Init)
	return sensor, nil
}

// Detach unregisters the device and waits until reads using it have returned.
func (h *Host) Detach(name string) error {
	h.mx.Lock()
	sensor, ok := h.devices[name]
	if !ok {
		h.mx.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownDevice, name)
	}
	delete(h.devices, name)
	for i, n := range h.order {
		if n == name {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	h.mx.Unlock()

	sensor.Handle().Detach()
	h.logger.Info("sensor detached", "device", name)
	return nil
}

// Open starts a new read session on the named device.
func (h *Host) Open(ctx context.Context, name string) (*Session, error) {
	sensor, err := h.Device(name)
	if err != nil {
		return nil, err
	}
	return NewSession(snsctx.WithDevice(ctx, name), sensor, sensor.Model().Capacity), nil
}

func (h *Host) Device(name string) (*accel.Sensor, error) {
	h.mx.Lock()
	defer h.mx.Unlock()
	sensor, ok := h.devices[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, name)
	}
	return sensor, nil
}

// Devices lists attached device names in attach order.
func (h *Host) Devices() []string {
	h.mx.Lock()
	defer h.mx.Unlock()
	return append([]string(nil), h.order...)
}

// Close detaches every device.
func (h *Host) Close() error {
	var errs []error
	for _, name := range h.Devices() {
		if err := h.Detach(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// allocateName must be called with h.mx held.
func (h *Host) allocateName(model accel.Model) (string, error) {
	if !model.Counted() {
		if _, ok := h.devices[model.Name]; ok {
			return "", fmt.Errorf("%w: %s", ErrNameTaken, model.Name)
		}
		return model.Name, nil
	}
	counter, ok := h.counters[model.NameBase]
	if !ok {
		counter = new(atomic.Uint64)
		h.counters[model.NameBase] = counter
	}
	return fmt.Sprintf("%s%d", model.NameBase, counter.Add(1)-1), nil
}
