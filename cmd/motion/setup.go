package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/motion"
	"github.com/mklimuk/motion/accel"
	"github.com/mklimuk/motion/adapter"
	"github.com/mklimuk/motion/config"
	"github.com/mklimuk/motion/device"
	"github.com/mklimuk/motion/i2c"
	"github.com/mklimuk/motion/snsctx"
)

// loadConfig reads the --config file when given and applies global flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
	}
	if a := c.String("adapter"); a != "" {
		cfg.Bus.Adapter = a
	}
	if d := c.String("device"); d != "" {
		cfg.Bus.Device = d
	}
	if n := c.Int("bus"); n >= 0 {
		cfg.Bus.Number = n
	}
	return cfg, cfg.Validate()
}

func commandContext(c *cli.Context) context.Context {
	return snsctx.SetVerbose(c.Context, c.Bool("verbose"))
}

// openBus returns the bus selected by cfg and a function releasing it.
func openBus(ctx context.Context, cfg config.Config) (motion.I2CBus, func(), error) {
	switch cfg.Bus.Adapter {
	case config.AdapterMCP2221:
		ad := adapter.NewMCP2221()
		if err := ad.Init(ctx); err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return ad, func() {
			if err := ad.Release(ctx); err != nil {
				slog.Warn("could not release adapter", "error", err)
			}
		}, nil
	case config.AdapterGobot:
		npi := nanopi.NewNeoAdaptor()
		err := npi.I2cBusAdaptor.Connect()
		if err != nil {
			return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		bus := i2c.NewGobotBus(npi, cfg.Bus.Number)
		return bus, func() {
			if err := bus.Close(); err != nil {
				slog.Warn("could not close gobot connections", "error", err)
			}
			if err := npi.I2cBusAdaptor.Finalize(); err != nil {
				slog.Warn("could not finalize adaptor", "error", err)
			}
		}, nil
	case config.AdapterSim:
		return demoBus(), func() {}, nil
	default:
		bus, err := i2c.NewGenericBus(cfg.Bus.Device)
		if err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		speed, err := cfg.Bus.Frequency()
		if err != nil {
			return nil, nil, err
		}
		if speed > 0 {
			if err := bus.SetSpeed(speed); err != nil {
				slog.Warn("could not set bus speed", "speed", speed, "error", err)
			}
		}
		return bus, func() {
			if err := bus.Close(); err != nil {
				slog.Warn("could not close bus", "error", err)
			}
		}, nil
	}
}

// demoBus answers on the default address of every supported model with a fixed reading.
func demoBus() *i2c.SimBus {
	bus := i2c.NewSimBus()
	bus.Attach(accel.ADXL345AddrLow)
	bus.SetRegisters(accel.ADXL345AddrLow, accel.ADXL345.Frame.Start, 0x0A, 0x00, 0xF6, 0xFF, 0x00, 0x01)
	bus.Attach(accel.MPU6050AddrLow)
	bus.SetRegisters(accel.MPU6050AddrLow, accel.MPU6050.Frame.Start,
		0x00, 0x10, 0xFF, 0xF0, 0x40, 0x00, 0x0B, 0xB8, 0x00, 0x05, 0xFF, 0xFB, 0x00, 0x00)
	return bus
}

// attachTargets lists what a command should attach: the --sensor/--addr pair when
// given, the configured devices otherwise.
func attachTargets(c *cli.Context, cfg config.Config) ([]config.Attachment, error) {
	if name := c.String("sensor"); name != "" {
		dev := config.Device{Model: name, Address: c.String("addr")}
		a, err := dev.Resolve()
		if err != nil {
			return nil, err
		}
		return []config.Attachment{a}, nil
	}
	if len(cfg.Devices) == 0 {
		return nil, fmt.Errorf("no sensor selected; use --sensor or list devices in the config file")
	}
	targets := make([]config.Attachment, 0, len(cfg.Devices))
	for _, d := range cfg.Devices {
		a, err := d.Resolve()
		if err != nil {
			return nil, err
		}
		targets = append(targets, a)
	}
	return targets, nil
}

// newHost attaches every target. Attach failures are reported and skipped so one
// missing sensor does not prevent reading the others.
func newHost(ctx context.Context, bus motion.I2CBus, cfg config.Config, targets []config.Attachment) (*device.Host, error) {
	host := device.NewHost(bus, device.WithMaxDevices(cfg.MaxDevices))
	for _, t := range targets {
		_, err := host.Attach(ctx, t.Model, t.Address, t.Opts...)
		if err != nil {
			slog.Error("could not attach sensor", "model", t.Model.Name, "addr", fmt.Sprintf("%#02x", t.Address), "error", err)
		}
	}
	if len(host.Devices()) == 0 {
		return nil, fmt.Errorf("no sensor could be attached")
	}
	return host, nil
}

var sensorFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "sensor",
		Aliases: []string{"s"},
		Usage:   "sensor model (adxl345, mpu6050); overrides configured devices",
	},
	&cli.StringFlag{
		Name:  "addr",
		Usage: "sensor i2c address, defaults to the model's default address",
	},
}
