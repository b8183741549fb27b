package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v2"

	"flipclock/internal/assets"
	"flipclock/internal/clockface"
	"flipclock/internal/config"
	"flipclock/internal/glyph"
	appLog "flipclock/internal/log"
	"flipclock/internal/panel"
	"flipclock/internal/runner"
	"flipclock/internal/screen"
	"flipclock/internal/web"
)

const (
	configFlagName = "config"
	listenFlagName = "listen"
	demoFlagName   = "demo"
	formatFlagName = "format"
	dirFlagName    = "dir"
)

const version = "0.1.0"

func main() {
	app := &cli.App{
		Name:    "flipclock",
		Usage:   "generate flip-clock frames and drive a small SPI display",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    configFlagName,
				Aliases: []string{"c"},
				Value:   "/etc/flipclock/config.yaml",
				Usage:   "path to config file",
				EnvVars: []string{"FLIPCLOCK_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "generate",
				Usage:  "render every digit transition and the static images",
				Action: generateAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: dirFlagName, Usage: "output directory (overrides config)"},
					&cli.StringFlag{Name: formatFlagName, Usage: "rgb565, png, bmp or jpg (overrides config)"},
				},
			},
			{
				Name:   "run",
				Usage:  "run the clock, web UI and panel",
				Action: runAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: listenFlagName, Usage: "HTTP listen address (overrides config)"},
					&cli.BoolFlag{Name: demoFlagName, Usage: "start in demo mode"},
				},
			},
			{
				Name:      "encode",
				Usage:     "convert an image file to raw RGB565",
				ArgsUsage: "<input> <output.rgb565>",
				Action:    encodeAction,
			},
			{
				Name:      "decode",
				Usage:     "convert a raw RGB565 file to PNG",
				ArgsUsage: "<input.rgb565> <output.png>",
				Action:    decodeAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		appLog.Error("flipclock failed", err)
		appLog.Sync()
		os.Exit(1)
	}
	appLog.Sync()
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String(configFlagName)
	conf, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	return conf, nil
}

func runAction(c *cli.Context) error {
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet(listenFlagName) {
		conf.Listen = c.String(listenFlagName)
	}
	if c.Bool(demoFlagName) {
		conf.Demo = true
	}

	opts, err := runnerOptions(conf)
	if err != nil {
		return err
	}
	appLog.Info("effective config",
		"listen", conf.Listen,
		"format", conf.DisplayFormat,
		"timezone", opts.Location.String(),
		"demo", conf.Demo,
		"frames", conf.Assets.Dir,
		"frame_format", conf.Assets.Format,
		"panel", conf.Panel.Enabled,
	)

	frameFormat, err := assets.ParseFormat(conf.Assets.Format)
	if err != nil {
		return err
	}
	store := assets.NewStore(conf.Assets.Dir, frameFormat)
	if err := store.Preload(); err != nil {
		return fmt.Errorf("frames incomplete in %s (run `flipclock generate`): %w", conf.Assets.Dir, err)
	}

	bg, err := glyph.ParseColor(conf.Assets.ScreenBG)
	if err != nil {
		return err
	}
	scr, err := screen.New(store, image.Pt(conf.Assets.ScreenWidth, conf.Assets.ScreenHeight), bg)
	if err != nil {
		return err
	}

	clock, err := runner.New(opts)
	if err != nil {
		return err
	}
	srv := web.NewServer(conf, clock, store, scr, nil)
	clock.AddSink(srv.Hub())

	if conf.Panel.Enabled {
		dev, err := panel.Open(conf.Panel)
		if err != nil {
			return err
		}
		defer func() {
			if err := dev.Close(); err != nil {
				appLog.Error("panel close failed", err)
			}
		}()
		clock.AddSink(panel.NewSink(scr, dev))
		appLog.Info("panel attached", "spi", conf.Panel.SPIPort, "width", conf.Panel.Width, "height", conf.Panel.Height)
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() { errCh <- clock.Run(ctx) }()
	go func() { errCh <- srv.Serve(ctx) }()

	// The first component to return ends the process; the other one is
	// stopped through ctx.
	err = <-errCh
	stop()
	if second := <-errCh; err == nil {
		err = second
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	appLog.Info("flipclock exiting")
	return nil
}

func runnerOptions(conf *config.Config) (runner.Options, error) {
	format, err := clockface.ParseDisplayFormat(conf.DisplayFormat)
	if err != nil {
		return runner.Options{}, err
	}
	loc := time.Local
	if conf.Timezone != "" {
		if loc, err = time.LoadLocation(conf.Timezone); err != nil {
			return runner.Options{}, fmt.Errorf("timezone %q: %w", conf.Timezone, err)
		}
	}
	demoPeriod, err := time.ParseDuration(conf.DemoPeriod)
	if err != nil {
		return runner.Options{}, fmt.Errorf("demo_period: %w", err)
	}
	step, err := time.ParseDuration(conf.StepInterval)
	if err != nil {
		return runner.Options{}, fmt.Errorf("step_interval: %w", err)
	}
	return runner.Options{
		Format:       format,
		Location:     loc,
		Demo:         conf.Demo,
		DemoPeriod:   demoPeriod,
		StepInterval: step,
		ColonSpec:    conf.ColonCron,
	}, nil
}
