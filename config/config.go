package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/motion/accel"
	"github.com/mklimuk/motion/device"
)

var ErrInvalid = errors.New("invalid configuration")

const (
	AdapterGeneric = "generic"
	AdapterGobot   = "gobot"
	AdapterMCP2221 = "mcp2221"
	AdapterSim     = "sim"
)

type Bus struct {
	Adapter string `yaml:"adapter"`
	// periph bus name for the generic adapter, e.g. "/dev/i2c-1" or "1"
	Device string `yaml:"device,omitempty"`
	// bus number for the gobot adapter
	Number int    `yaml:"number"`
	Speed  string `yaml:"speed,omitempty"`
}

type Device struct {
	Model      string `yaml:"model"`
	Address    string `yaml:"address,omitempty"`
	GyroRange  *uint8 `yaml:"gyro_range,omitempty"`
	AccelRange *uint8 `yaml:"accel_range,omitempty"`
	StrictInit *bool  `yaml:"strict_init,omitempty"`
}

type Config struct {
	Bus        Bus      `yaml:"bus"`
	MaxDevices int      `yaml:"max_devices"`
	Devices    []Device `yaml:"devices"`
}

func Default() Config {
	return Config{
		Bus: Bus{
			Adapter: AdapterGeneric,
			Number:  1,
		},
		MaxDevices: device.DefaultMaxDevices,
	}
}

// Load reads a yaml file on top of the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config file: %w", err)
	}
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Bus.Adapter {
	case AdapterGeneric, AdapterGobot, AdapterMCP2221, AdapterSim:
	default:
		return fmt.Errorf("%w: unknown adapter %q", ErrInvalid, c.Bus.Adapter)
	}
	if _, err := c.Bus.Frequency(); err != nil {
		return err
	}
	if c.MaxDevices <= 0 {
		return fmt.Errorf("%w: max_devices must be positive", ErrInvalid)
	}
	if len(c.Devices) > c.MaxDevices {
		return fmt.Errorf("%w: %d devices configured, max_devices is %d", ErrInvalid, len(c.Devices), c.MaxDevices)
	}
	seen := make(map[byte]int, len(c.Devices))
	for i, d := range c.Devices {
		a, err := d.Resolve()
		if err != nil {
			return fmt.Errorf("device %d: %w", i, err)
		}
		if prev, ok := seen[a.Address]; ok {
			return fmt.Errorf("%w: devices %d and %d share address %#02x", ErrInvalid, prev, i, a.Address)
		}
		seen[a.Address] = i
	}
	return nil
}

// Frequency returns the configured bus speed or 0 when the bus default should be kept.
func (b Bus) Frequency() (physic.Frequency, error) {
	var f physic.Frequency
	if b.Speed == "" {
		return f, nil
	}
	err := f.Set(b.Speed)
	if err != nil {
		return f, fmt.Errorf("%w: bus speed %q: %w", ErrInvalid, b.Speed, err)
	}
	return f, nil
}

// Attachment is a device entry resolved against the model registry.
type Attachment struct {
	Model   accel.Model
	Address byte
	Opts    []device.AttachOpt
}

func (d Device) Resolve() (Attachment, error) {
	model, err := accel.Lookup(d.Model)
	if err != nil {
		return Attachment{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	a := Attachment{Model: model, Address: model.DefaultAddress}
	if d.Address != "" {
		addr, err := ParseAddress(d.Address)
		if err != nil {
			return Attachment{}, err
		}
		a.Address = addr
	}
	sensorCfg := model.DefaultConfig
	if d.GyroRange != nil {
		sensorCfg.GyroRange = *d.GyroRange
	}
	if d.AccelRange != nil {
		sensorCfg.AccelRange = *d.AccelRange
	}
	a.Opts = append(a.Opts, device.WithSensorConfig(sensorCfg))
	if d.StrictInit != nil {
		a.Opts = append(a.Opts, device.WithStrictInit(*d.StrictInit))
	}
	return a, nil
}

// ParseAddress accepts 7-bit addresses in any base strconv understands, e.g. "0x53".
func ParseAddress(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil || v > 0x7F {
		return 0, fmt.Errorf("%w: bad i2c address %q", ErrInvalid, s)
	}
	return byte(v), nil
}
