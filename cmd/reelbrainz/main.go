package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"
)

const version = "0.3.0"

func printVersion() {
	fmt.Printf("reelbrainz v%s\n", version)
	fmt.Println("Closed-loop pointer controller for bar-tracking minigames")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  reelbrainz [OPTIONS]")
	fmt.Println("  reelbrainz replay -trace FILE [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Reads one detection sample per tick (target offset from the bar) and")
	fmt.Println("  drives the pointer button to keep the bar on the target. Two strategies:")
	fmt.Println("  hysteresis (hold until corrected, with a deadband) and pulse")
	fmt.Println("  (proportional press-release micro pulses).")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        YAML config file (optional)")
	fmt.Println()
	fmt.Println("  -mode string")
	fmt.Println("        Controller mode: hysteresis|pulse (default \"hysteresis\")")
	fmt.Println()
	fmt.Println("  -threshold float")
	fmt.Printf("        Deadband half-width in pixels (default %.1f)\n", defaultThreshold)
	fmt.Println()
	fmt.Println("  -cooldown-ms float")
	fmt.Printf("        Minimum time between press/release changes in ms (default %.1f)\n", defaultCooldownMS)
	fmt.Println()
	fmt.Println("  -min-hold-ms float")
	fmt.Printf("        Pulse mode: shortest pulse in ms (default %.1f)\n", defaultMinHoldMS)
	fmt.Println()
	fmt.Println("  -max-hold-ms float")
	fmt.Printf("        Pulse mode: longest pulse in ms (default %.1f)\n", defaultMaxHoldMS)
	fmt.Println()
	fmt.Println("  -saturation-offset float")
	fmt.Printf("        Pulse mode: offset at which pulses reach max hold (default %.1f)\n", defaultSaturationOffset)
	fmt.Println()
	fmt.Println("  -button string")
	fmt.Println("        Pointer button: left|right|center (default \"left\")")
	fmt.Println()
	fmt.Println("  -trace string")
	fmt.Println("        YAML trace of detection samples to play through the controller")
	fmt.Println()
	fmt.Println("  -poll-hz int")
	fmt.Printf("        Sampling/decision ticks per second (default %d)\n", defaultPollHz)
	fmt.Println()
	fmt.Println("  -loop")
	fmt.Println("        Replay the trace forever")
	fmt.Println()
	fmt.Println("  -actuator string")
	fmt.Println("        Input backend: robotgo|dryrun (default \"robotgo\")")
	fmt.Println()
	fmt.Println("  -metrics-listen string")
	fmt.Println("        Serve Prometheus metrics on this address (disabled when empty)")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  REELBRAINZ_CONTROLLER_MODE, REELBRAINZ_THRESHOLD, REELBRAINZ_COOLDOWN_MS,")
	fmt.Println("  REELBRAINZ_MIN_HOLD_MS, REELBRAINZ_MAX_HOLD_MS, REELBRAINZ_SATURATION_OFFSET,")
	fmt.Println("  REELBRAINZ_BUTTON, REELBRAINZ_TRACE_FILE, REELBRAINZ_POLL_HZ, REELBRAINZ_LOOP,")
	fmt.Println("  REELBRAINZ_ACTUATOR, REELBRAINZ_METRICS_LISTEN, REELBRAINZ_LOG_LEVEL")
	fmt.Println("  Applied after the config file and before flags.")
	fmt.Println()
	fmt.Println("STOPPING:")
	fmt.Println("  Ctrl+C, SIGTERM, the stop hotkey (default ctrl+shift+q) or the evdev")
	fmt.Println("  stop key (stop.devices / stop.key_code). The button is always released.")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Drive the pointer from a recorded trace")
	fmt.Println("  reelbrainz -trace session.yaml")
	fmt.Println()
	fmt.Println("  # Check what the pulse controller would do, without touching the pointer")
	fmt.Println("  reelbrainz replay -trace session.yaml -mode pulse")
	fmt.Println()
}

// overrideFlags registers the flags that map onto Overrides and returns a
// function that collects only the flags the user actually set.
func overrideFlags(fs *flag.FlagSet) func() Overrides {
	var (
		mode       = fs.String("mode", "", "Controller mode: hysteresis|pulse")
		threshold  = fs.Float64("threshold", defaultThreshold, "Deadband half-width in pixels")
		cooldownMS = fs.Float64("cooldown-ms", defaultCooldownMS, "Minimum time between press/release changes in ms")
		minHoldMS  = fs.Float64("min-hold-ms", defaultMinHoldMS, "Pulse mode: shortest pulse in ms")
		maxHoldMS  = fs.Float64("max-hold-ms", defaultMaxHoldMS, "Pulse mode: longest pulse in ms")
		saturation = fs.Float64("saturation-offset", defaultSaturationOffset, "Pulse mode: offset at which pulses reach max hold")
		button     = fs.String("button", defaultButton, "Pointer button: left|right|center")
		trace      = fs.String("trace", "", "YAML trace of detection samples")
		pollHz     = fs.Int("poll-hz", defaultPollHz, "Sampling/decision ticks per second")
		loop       = fs.Bool("loop", false, "Replay the trace forever")
		backend    = fs.String("actuator", actuatorBackendRobotgo, "Input backend: robotgo|dryrun")
		metrics    = fs.String("metrics-listen", "", "Prometheus metrics listen address")
		logLevel   = fs.String("log-level", "info", "Log level: error, warn, info, debug")
	)

	return func() Overrides {
		var o Overrides
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "mode":
				o.ControllerMode = mode
			case "threshold":
				o.Threshold = threshold
			case "cooldown-ms":
				o.CooldownMS = cooldownMS
			case "min-hold-ms":
				o.MinHoldMS = minHoldMS
			case "max-hold-ms":
				o.MaxHoldMS = maxHoldMS
			case "saturation-offset":
				o.SaturationOffset = saturation
			case "button":
				o.Button = button
			case "trace":
				o.TraceFile = trace
			case "poll-hz":
				o.PollHz = pollHz
			case "loop":
				o.Loop = loop
			case "actuator":
				o.ActuatorBackend = backend
			case "metrics-listen":
				o.MetricsListen = metrics
			case "log-level":
				o.LogLevel = logLevel
			}
		})
		return o
	}
}

// loadConfig layers defaults, the optional file, the environment and flags,
// then validates.
func loadConfig(path string, flagOverrides Overrides) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		fileCfg, err := LoadConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = fileCfg
	}

	envOverrides, err := parseEnvOverrides()
	if err != nil {
		return Config{}, err
	}
	envOverrides.Apply(&cfg)
	flagOverrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func main() {
	// Subcommand mode first
	if len(os.Args) > 1 && os.Args[1] == "replay" {
		runReplaySubcommand(os.Args[2:])
		return
	}

	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	fs := flag.NewFlagSet("reelbrainz", flag.ExitOnError)
	fs.Usage = printUsage
	configPath := fs.String("config", "", "YAML config file")
	collectOverrides := overrideFlags(fs)
	fs.Bool("version", false, "Print version and exit")
	fs.Bool("help", false, "Print help message")
	fs.Parse(os.Args[1:])

	cfg, err := loadConfig(*configPath, collectOverrides())
	if err != nil {
		fatal(err)
	}
	if cfg.Sampler.TraceFile == "" {
		fatal(errors.New("sampler.trace_file (or -trace) is required: samples come from an external detector"))
	}

	logLevel, _ := parseLogLevel(cfg.Logging.Level)
	logger := setupLogger(os.Stdout, logLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("reelbrainz exited with error", "error", err)
		os.Exit(1)
	}
}

// checkCalibration verifies a calibrated region against the active displays.
// An all-zero region is not calibrated and passes.
func checkCalibration(rc RegionConfig, displays displayBounds) error {
	if rc.Region == (Region{}) || !rc.VerifyBounds {
		return nil
	}
	if err := rc.Region.CheckBounds(displays); err != nil {
		return fmt.Errorf("calibration: %w", err)
	}
	return nil
}

// run wires one automation session and blocks until it ends.
func run(cfg Config, baseLogger *slog.Logger) error {
	logger := sessionLogger(baseLogger)

	if err := checkCalibration(cfg.Region, screenshotDisplays{}); err != nil {
		return err
	}

	tr, err := LoadTrace(cfg.Sampler.TraceFile)
	if err != nil {
		return err
	}
	sampler := NewTraceSampler(tr, cfg.Sampler.Loop)

	var act Actuator
	switch cfg.Actuator.Backend {
	case actuatorBackendDryRun:
		act = newDryRunActuator(logger)
	default:
		act = newRobotgoActuator()
	}

	ctrl, err := newController(cfg.ToControllerConfig(), act, nil, logger)
	if err != nil {
		return err
	}

	logger.Debug("configuration",
		"mode", cfg.Controller.Mode,
		"threshold", cfg.Controller.Threshold,
		"cooldown_ms", cfg.Controller.CooldownMS,
		"min_hold_ms", cfg.Controller.MinHoldMS,
		"max_hold_ms", cfg.Controller.MaxHoldMS,
		"saturation_offset", cfg.Controller.SaturationOffset,
		"button", cfg.Controller.Button,
		"trace_file", cfg.Sampler.TraceFile,
		"poll_hz", cfg.Sampler.PollHz,
		"loop", cfg.Sampler.Loop,
		"region", cfg.Region.Region.String(),
		"actuator", cfg.Actuator.Backend,
		"stop_hotkey", strings.Join(cfg.Stop.Hotkey, "+"),
		"stop_devices", cfg.Stop.Devices,
		"metrics_listen", cfg.Metrics.Listen)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	g, gCtx := errgroup.WithContext(ctx)

	// Control loop; its end ends everything else.
	g.Go(func() error {
		defer cancel()
		return runSession(gCtx, sampler, ctrl, cfg.Sampler.PollHz, logger)
	})

	if len(cfg.Stop.Hotkey) > 0 {
		g.Go(func() error {
			return listenStopHotkey(gCtx, cfg.Stop.Hotkey, cancel, logger)
		})
	}

	if len(cfg.Stop.Devices) > 0 {
		g.Go(func() error {
			if err := watchStopKey(gCtx, cfg.Stop.Devices, cfg.Stop.KeyCode, cancel, logger); err != nil {
				// The session keeps running on the other stop paths.
				logger.Warn("stop key watcher failed", "error", err)
			}
			return nil
		})
	}

	if cfg.Metrics.Listen != "" {
		g.Go(func() error {
			return runMetricsServer(gCtx, cfg.Metrics.Listen, logger)
		})
	}

	g.Go(func() error {
		select {
		case sig := <-sigc:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-gCtx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printReplayUsage() {
	fmt.Printf("reelbrainz replay v%s\n", version)
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  reelbrainz replay -trace FILE [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Plays a trace through the controller on a simulated clock and prints")
	fmt.Println("  one line per tick: tick, simulated time, sample, outcome. The pointer")
	fmt.Println("  is never touched. Accepts the same controller options as the daemon.")
	fmt.Println()
	fmt.Println("EXAMPLE:")
	fmt.Println("  reelbrainz replay -trace session.yaml -mode pulse -cooldown-ms 0")
	fmt.Println()
}

// runReplaySubcommand handles `reelbrainz replay`.
func runReplaySubcommand(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	fs.Usage = printReplayUsage
	configPath := fs.String("config", "", "YAML config file")
	collectOverrides := overrideFlags(fs)
	showHelp := fs.Bool("help", false, "Print help message")
	fs.Parse(args)

	if *showHelp {
		printReplayUsage()
		return
	}

	overrides := collectOverrides()
	backend := actuatorBackendDryRun
	overrides.ActuatorBackend = &backend

	cfg, err := loadConfig(*configPath, overrides)
	if err != nil {
		fatal(err)
	}
	if cfg.Sampler.TraceFile == "" {
		fatal(errors.New("replay needs -trace"))
	}

	logLevel, _ := parseLogLevel(cfg.Logging.Level)
	logger := setupLogger(os.Stderr, logLevel)

	tr, err := LoadTrace(cfg.Sampler.TraceFile)
	if err != nil {
		fatal(err)
	}

	results, err := replayTrace(tr, cfg.ToControllerConfig(), newDryRunActuator(logger), cfg.Sampler.PollHz, logger)
	if err != nil {
		fatal(err)
	}
	printReplay(os.Stdout, results)
}
