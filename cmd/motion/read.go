package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/motion/cmd/motion/console"
	"github.com/mklimuk/motion/device"
)

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "read formatted snapshots from attached sensors",
	Flags: append([]cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Usage:   "number of snapshots per sensor; 0 reads until interrupted",
			Value:   1,
		},
		&cli.DurationFlag{
			Name:    "interval",
			Aliases: []string{"i"},
			Usage:   "delay between consecutive snapshots",
			Value:   time.Second,
		},
	}, sensorFlags...),
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		host, release, err := setupHost(ctx, c)
		if err != nil {
			return err
		}
		defer release()

		ticker := time.NewTicker(c.Duration("interval"))
		defer ticker.Stop()
		count := c.Int("count")
		for i := 0; count == 0 || i < count; i++ {
			if i > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
			for _, name := range host.Devices() {
				rec, err := readSnapshot(ctx, host, name)
				if err != nil {
					console.Errorf("%s: %s", name, console.Red(err))
					continue
				}
				console.Printf("%s %s", console.Bold(name), rec)
			}
		}
		return nil
	},
}

var initCmd = cli.Command{
	Name:  "init",
	Usage: "apply the init sequence to sensors and report the outcome",
	Flags: sensorFlags,
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		host, release, err := setupHost(ctx, c)
		if err != nil {
			return err
		}
		defer release()
		for _, name := range host.Devices() {
			sensor, err := host.Device(name)
			if err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
			err = sensor.Init(ctx)
			if err != nil {
				console.Errorf("%s: %s", name, console.Red(err))
				continue
			}
			console.PInfof(console.PictoPin, "%s initialized (%s)", console.Green(name), sensor.Model().Init)
		}
		return nil
	},
}

var dumpCmd = cli.Command{
	Name:  "dump",
	Usage: "hex dump of the raw register frame",
	Flags: sensorFlags,
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		host, release, err := setupHost(ctx, c)
		if err != nil {
			return err
		}
		defer release()
		for _, name := range host.Devices() {
			sensor, err := host.Device(name)
			if err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
			raw, err := sensor.Dump(ctx)
			if err != nil {
				console.Errorf("%s: %s", name, console.Red(err))
				continue
			}
			console.Printf("%s (frame @ %#02x)\n%s", console.Bold(name), sensor.Model().Frame.Start, hex.Dump(raw))
		}
		return nil
	},
}

// setupHost opens the bus and attaches the selected sensors. The returned function
// detaches them and releases the bus.
func setupHost(ctx context.Context, c *cli.Context) (*device.Host, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, console.Exit(1, "configuration error: %s", console.Red(err))
	}
	targets, err := attachTargets(c, cfg)
	if err != nil {
		return nil, nil, console.Exit(1, "%s", console.Red(err))
	}
	bus, closeBus, err := openBus(ctx, cfg)
	if err != nil {
		return nil, nil, console.Exit(1, "%s", console.Red(err))
	}
	host, err := newHost(ctx, bus, cfg, targets)
	if err != nil {
		closeBus()
		return nil, nil, console.Exit(1, "%s", console.Red(err))
	}
	return host, func() {
		if err := host.Close(); err != nil {
			console.Errorf("error detaching sensors: %s", console.Red(err))
		}
		closeBus()
	}, nil
}

func readSnapshot(ctx context.Context, host *device.Host, name string) ([]byte, error) {
	sess, err := host.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = sess.Close() }()
	rec, err := io.ReadAll(sess)
	if err != nil {
		return nil, err
	}
	if len(rec) == 0 {
		return nil, errors.New("empty snapshot")
	}
	return rec, nil
}

func formatAddr(addr byte) string {
	return fmt.Sprintf("%#02x", addr)
}
