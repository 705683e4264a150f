package accel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mklimuk/motion"
)

// ErrConfiguration reports a failed init sequence write.
var ErrConfiguration = errors.New("sensor configuration failed")

type SensorOpts struct {
	Config Config
}

type SensorOpt func(*SensorOpts)

func WithConfig(cfg Config) SensorOpt {
	return func(o *SensorOpts) {
		o.Config = cfg
	}
}

func WithGyroRange(sel byte) SensorOpt {
	return func(o *SensorOpts) {
		o.Config.GyroRange = sel
	}
}

func WithAccelRange(sel byte) SensorOpt {
	return func(o *SensorOpts) {
		o.Config.AccelRange = sel
	}
}

// Sensor binds a handle to the register map of its model.
//
// Typical usage:
//
//	s := NewSensor(motion.NewHandle("mpu6050", MPU6050AddrLow, bus), MPU6050)
//	if err := s.Init(ctx); err != nil { ... }
//	rec, err := s.Snapshot(ctx)
type Sensor struct {
	handle *motion.Handle
	model  Model
	config Config
}

func NewSensor(handle *motion.Handle, model Model, opts ...SensorOpt) *Sensor {
	o := SensorOpts{Config: model.DefaultConfig}
	for _, opt := range opts {
		opt(&o)
	}
	return &Sensor{handle: handle, model: model, config: o.Config}
}

func NewADXL345(handle *motion.Handle) *Sensor {
	return NewSensor(handle, ADXL345)
}

func NewMPU6050(handle *motion.Handle, opts ...SensorOpt) *Sensor {
	return NewSensor(handle, MPU6050, opts...)
}

func (s *Sensor) Name() string {
	return s.handle.Name()
}

func (s *Sensor) Model() Model {
	return s.model
}

func (s *Sensor) Handle() *motion.Handle {
	return s.handle
}

// Init applies the model init sequence. It stops at the first failed write.
func (s *Sensor) Init(ctx context.Context) error {
	for _, w := range s.model.InitSequence(s.config) {
		slog.Debug("init write", "device", s.handle.Name(), "reg", fmt.Sprintf("%#02x", w.Reg), "value", fmt.Sprintf("%#02x", w.Value))
		err := s.handle.WriteRegister(ctx, w.Reg, w.Value)
		if err != nil {
			return fmt.Errorf("%w: %s: register %#02x: %w", ErrConfiguration, s.handle.Name(), w.Reg, err)
		}
	}
	return nil
}

// Dump returns the raw telemetry block in wire order.
func (s *Sensor) Dump(ctx context.Context) ([]byte, error) {
	return s.handle.ReadBlock(ctx, s.model.Frame.Start, s.model.Frame.Length)
}

// Acquire reads and decodes one sample.
func (s *Sensor) Acquire(ctx context.Context) (RawSample, error) {
	raw, err := s.Dump(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: could not read telemetry block: %w", s.handle.Name(), err)
	}
	return s.model.Frame.Decode(raw), nil
}

// Snapshot acquires one sample and renders it as a text record.
func (s *Sensor) Snapshot(ctx context.Context) ([]byte, error) {
	sample, err := s.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return s.model.Format.Render(sample), nil
}
