package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/mobile-harness/pkg/config"
	"github.com/devicelab-dev/mobile-harness/pkg/evidence"
	"github.com/devicelab-dev/mobile-harness/pkg/harness"
	"github.com/devicelab-dev/mobile-harness/pkg/logger"
	"github.com/devicelab-dev/mobile-harness/pkg/session"
	"github.com/devicelab-dev/mobile-harness/pkg/suite"
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Run the bundled test cases",
	Description: `Runs every bundled case, or those selected with --only (case or group
names). Each case gets a fresh Appium session; failed cases leave a
screenshot, the page source and the error text in the screenshot dir.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "platform",
			Aliases: []string{"p"},
			Usage:   "Platform to run on (android, ios)",
			EnvVars: []string{"MOBILE_HARNESS_PLATFORM"},
		},
		&cli.StringFlag{
			Name:    "appium-url",
			Usage:   "Appium server URL",
			EnvVars: []string{"APPIUM_URL"},
		},
		&cli.StringFlag{
			Name:    "device",
			Aliases: []string{"udid"},
			Usage:   "Device name(s); comma-separated runs one worker per device",
			EnvVars: []string{"MOBILE_HARNESS_DEVICE"},
		},
		&cli.IntFlag{
			Name:  "parallel",
			Usage: "Number of workers sharing the configured device settings",
			Value: 1,
		},
		&cli.StringSliceFlag{
			Name:  "only",
			Usage: "Run only these cases or groups (repeatable or comma-separated)",
		},
		&cli.StringFlag{
			Name:  "app-file",
			Usage: "App binary (.apk, .app) to install",
		},
	},
	Action: runTests,
}

// loadConfig reads path, or config.yaml from the home directory when empty.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromDir(config.GetHome())
}

// applyOverrides copies command-line values over the loaded config.
func applyOverrides(cfg *config.Config, c *cli.Context) {
	if v := c.String("platform"); v != "" {
		cfg.Set(config.KeyPlatformName, v)
	}
	if v := c.String("appium-url"); v != "" {
		cfg.Set(config.KeyAppiumURL, v)
	}
	if v := c.String("app-file"); v != "" {
		cfg.Set(config.KeyAppPath, v)
	}
	if devices := parseDevices(c.String("device")); len(devices) == 1 {
		cfg.Set(config.KeyDeviceName, devices[0])
	}
}

// parseDevices splits a comma-separated device flag.
func parseDevices(deviceFlag string) []string {
	if deviceFlag == "" {
		return nil
	}
	var devices []string
	for _, d := range strings.Split(deviceFlag, ",") {
		if d = strings.TrimSpace(d); d != "" {
			devices = append(devices, d)
		}
	}
	return devices
}

func runTests(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}
	applyOverrides(cfg, c)

	noColor := c.Bool("no-ansi")
	log, err := logger.New(logger.Options{
		Dir:        cfg.LogDir(),
		Console:    c.App.Writer,
		ErrConsole: c.App.ErrWriter,
		Verbose:    c.Bool("verbose"),
		NoColor:    noColor,
	})
	if err != nil {
		return err
	}
	defer log.Close()

	for _, w := range cfg.Warnings() {
		log.Warn("%s", w)
	}
	if n, err := logger.Rotate(cfg.LogDir(), cfg.LogKeep()); err != nil {
		log.Warn("Failed to rotate logs: %v", err)
	} else if n > 0 {
		log.Info("Removed %d old log file(s)", n)
	}
	log.Info("Configuration loaded from: %s", cfg.Path)
	log.Info("Log file: %s", log.Path())

	cases := suite.Filter(suite.All(), c.StringSlice("only"))
	if len(cases) == 0 {
		return fmt.Errorf("no test cases match %v", c.StringSlice("only"))
	}

	sink, err := evidence.NewDirSink(cfg.ScreenshotDir(), log)
	if err != nil {
		return err
	}

	opts := harness.Options{Parallel: c.Int("parallel"), Sink: sink}
	if devices := parseDevices(c.String("device")); len(devices) > 1 {
		opts.Devices = devices
	}
	registry := session.NewRegistry(session.NewBuilder(log), cfg, log)
	runner := harness.NewRunner(registry, cfg, log, opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, runErr := runner.Run(ctx, cases)
	if result != nil {
		printSummary(c.App.Writer, result, noColor)
		if result.Teardown != nil {
			log.Warn("Teardown warnings: %v", result.Teardown)
		}
	}
	if runErr != nil {
		return runErr
	}
	if !result.Success() {
		return fmt.Errorf("%d of %d test(s) did not pass", result.Total-result.Passed, result.Total)
	}
	return nil
}
