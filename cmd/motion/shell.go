package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/motion/accel"
	"github.com/mklimuk/motion/cmd/motion/console"
	"github.com/mklimuk/motion/config"
	"github.com/mklimuk/motion/device"
)

const shellHelp = `commands:
  ls                       list attached sensors
  models                   list supported sensor models
  attach <model> [addr]    attach a sensor
  detach <name>            detach a sensor
  read <name>              read one snapshot
  dump <name>              hex dump of the raw register frame
  quit                     detach everything and exit
`

var shellCmd = cli.Command{
	Name:  "shell",
	Usage: "interactive session on one bus",
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		bus, closeBus, err := openBus(ctx, cfg)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		defer closeBus()
		host := device.NewHost(bus, device.WithMaxDevices(cfg.MaxDevices))
		defer func() {
			if err := host.Close(); err != nil {
				console.Errorf("error detaching sensors: %s", console.Red(err))
			}
		}()
		for _, d := range cfg.Devices {
			if err := shellAttach(ctx, host, d); err != nil {
				console.Errorf("%s", console.Red(err))
			}
		}

		rl, err := readline.NewEx(&readline.Config{
			Prompt:          console.Bold("motion> "),
			InterruptPrompt: "^C",
			EOFPrompt:       "quit",
			AutoComplete: readline.NewPrefixCompleter(
				readline.PcItem("ls"),
				readline.PcItem("models"),
				readline.PcItem("attach", readline.PcItemDynamic(func(string) []string { return accel.ModelNames() })),
				readline.PcItem("detach", readline.PcItemDynamic(func(string) []string { return host.Devices() })),
				readline.PcItem("read", readline.PcItemDynamic(func(string) []string { return host.Devices() })),
				readline.PcItem("dump", readline.PcItemDynamic(func(string) []string { return host.Devices() })),
				readline.PcItem("help"),
				readline.PcItem("quit"),
			),
		})
		if err != nil {
			return console.Exit(1, "could not start shell: %s", console.Red(err))
		}
		defer func() { _ = rl.Close() }()

		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
			quit, err := shellExec(ctx, host, strings.Fields(line))
			if err != nil {
				console.Errorf("%s", console.Red(err))
			}
			if quit {
				return nil
			}
		}
	},
}

func shellExec(ctx context.Context, host *device.Host, args []string) (bool, error) {
	if len(args) == 0 {
		return false, nil
	}
	switch args[0] {
	case "ls":
		for _, name := range host.Devices() {
			sensor, err := host.Device(name)
			if err != nil {
				continue
			}
			console.Printf("%s\t%s\t%s\n", console.Green(name), sensor.Model().Name, formatAddr(sensor.Handle().Address()))
		}
	case "models":
		for _, name := range accel.ModelNames() {
			console.Printf("%s\n", name)
		}
	case "attach":
		if len(args) < 2 {
			return false, fmt.Errorf("usage: attach <model> [addr]")
		}
		d := config.Device{Model: args[1]}
		if len(args) > 2 {
			d.Address = args[2]
		}
		return false, shellAttach(ctx, host, d)
	case "detach":
		if len(args) < 2 {
			return false, fmt.Errorf("usage: detach <name>")
		}
		return false, host.Detach(args[1])
	case "read":
		if len(args) < 2 {
			return false, fmt.Errorf("usage: read <name>")
		}
		rec, err := readSnapshot(ctx, host, args[1])
		if err != nil {
			return false, err
		}
		console.Print(string(rec))
	case "dump":
		if len(args) < 2 {
			return false, fmt.Errorf("usage: dump <name>")
		}
		sensor, err := host.Device(args[1])
		if err != nil {
			return false, err
		}
		raw, err := sensor.Dump(ctx)
		if err != nil {
			return false, err
		}
		console.Printf("% x\n", raw)
	case "help":
		console.Print(shellHelp)
	case "quit", "exit":
		if len(host.Devices()) == 0 {
			return true, nil
		}
		answer, err := console.YesOrNo("detach all sensors and quit?")
		if err != nil {
			return false, err
		}
		return answer == console.Yes, nil
	default:
		return false, fmt.Errorf("unknown command %q; type help", args[0])
	}
	return false, nil
}

func shellAttach(ctx context.Context, host *device.Host, d config.Device) error {
	a, err := d.Resolve()
	if err != nil {
		return err
	}
	sensor, err := host.Attach(ctx, a.Model, a.Address, a.Opts...)
	if err != nil {
		return err
	}
	slog.Debug("attached from shell", "device", sensor.Name())
	console.PInfof(console.PictoCompass, "attached %s at %s", console.Green(sensor.Name()), formatAddr(a.Address))
	return nil
}
