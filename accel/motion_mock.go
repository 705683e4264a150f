package accel

import (
	"context"
)

// SampleBehaviorFunc defines the function signature for motion sensor behavior.
// It returns one raw sample or an error.
type SampleBehaviorFunc func(ctx context.Context) (RawSample, error)

// MockMotionSensor is a mock implementation of a motion sensor that uses a behavior function
// to produce samples without requiring any hardware. Records are rendered with the
// format of the mocked model, so it can stand in for an ADXL345 or an MPU6050.
type MockMotionSensor struct {
	model    Model
	behavior SampleBehaviorFunc
}

// NewMockMotionSensor creates a new mock sensor of the given model.
//
// Example usage:
//
//	sensor := NewMockMotionSensor(ADXL345, func(ctx context.Context) (RawSample, error) {
//		return RawSample{-1, 0, 256}, nil
//	})
func NewMockMotionSensor(model Model, behavior SampleBehaviorFunc) *MockMotionSensor {
	return &MockMotionSensor{model: model, behavior: behavior}
}

func (m *MockMotionSensor) Model() Model {
	return m.model
}

// Acquire returns the sample produced by the behavior function.
func (m *MockMotionSensor) Acquire(ctx context.Context) (RawSample, error) {
	return m.behavior(ctx)
}

// Snapshot renders the behavior sample with the model format.
func (m *MockMotionSensor) Snapshot(ctx context.Context) ([]byte, error) {
	sample, err := m.behavior(ctx)
	if err != nil {
		return nil, err
	}
	return m.model.Format.Render(sample), nil
}
