package accel

import (
	"fmt"
	"sort"
)

// CapacityPolicy decides what a read surface does when the caller's buffer is
// smaller than the formatted record.
type CapacityPolicy int

const (
	// Truncate delivers as much of the record as fits.
	Truncate CapacityPolicy = iota
	// AllOrNothing delivers nothing and reports end of stream.
	AllOrNothing
)

func (p CapacityPolicy) String() string {
	switch p {
	case AllOrNothing:
		return "all-or-nothing"
	default:
		return "truncate"
	}
}

// InitPolicy decides whether a failed init sequence aborts attach.
type InitPolicy int

const (
	InitPermissive InitPolicy = iota
	InitStrict
)

func (p InitPolicy) String() string {
	switch p {
	case InitStrict:
		return "strict"
	default:
		return "permissive"
	}
}

type RegisterWrite struct {
	Reg   byte
	Value byte
}

// InitSequence is applied once, in order, before a sensor is exposed as readable.
type InitSequence []RegisterWrite

// Config carries the full-scale range selectors written during initialization.
// Selectors are raw register values.
type Config struct {
	GyroRange  byte
	AccelRange byte
}

// Model is the per-chip table the shared acquisition code is driven by.
type Model struct {
	Name string
	// NameBase enables counted instance names (<NameBase><N>). When empty every
	// instance is named Name and only one may be attached at a time.
	NameBase       string
	DefaultAddress byte
	AltAddress     byte
	Frame          RegisterFrame
	Format         SnapshotFormat
	Capacity       CapacityPolicy
	Init           InitPolicy
	DefaultConfig  Config
	buildInit      func(Config) InitSequence
}

func (m Model) InitSequence(cfg Config) InitSequence {
	if m.buildInit == nil {
		return nil
	}
	return m.buildInit(cfg)
}

// Counted reports whether instances get numbered names.
func (m Model) Counted() bool {
	return m.NameBase != ""
}

var models = map[string]Model{
	ADXL345.Name: ADXL345,
	MPU6050.Name: MPU6050,
}

func Lookup(name string) (Model, error) {
	m, ok := models[name]
	if !ok {
		return Model{}, fmt.Errorf("unknown sensor model %q", name)
	}
	return m, nil
}

func ModelNames() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
