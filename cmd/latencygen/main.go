package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"latencygen/internal/agent"
	"latencygen/internal/config"
	"latencygen/internal/dataset"
	"latencygen/internal/gateway"
	"latencygen/internal/generator"
	"latencygen/internal/logging"
	"latencygen/internal/server"
	"latencygen/internal/stunutil"
)

const usage = `latencygen - push fake node-to-node latency metrics to a Prometheus Pushgateway

Usage:
  latencygen [flags]

Flags:
  --config <path>          YAML config file
  --gateway <url>          Pushgateway base or full push URL
                           (default http://localhost:9091/metrics/job/fake_latency_test/instance/manual)
  --job <name>             job grouping label (default fake_latency_test)
  --instance <name>        instance grouping label (default manual)
  --interval <seconds>     seconds between pushes (default 10)
  --timeout <seconds>      push request timeout (default 5)
  --once                   push a single batch and exit
  --mode paired|ordered    all-pairs generation mode (default paired)
  --nodes a,b,c            node names (default node-a,node-b,node-c,node-d)
  --custom <file>          custom dataset (.yaml or .csv); replaces all-pairs generation
  --seed <n>               seed for reproducible latencies (0 = random)
  --verbose                log every payload and gateway response
  --listen <addr>          serve /metrics and /healthz for the generator itself
  --log-level <level>      debug|info|warn|error (default info)
  --log-format <format>    json|console (default json)
  --write-config <path>    write the effective configuration to path and exit

Environment:
  LATENCYGEN_GATEWAY       overrides the gateway URL from the config file
`

const stunTimeout = 3 * time.Second

// usageError marks command-line mistakes, which exit with status 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func main() {
	cfg, writePath, err := parseConfig(os.Args[1:], os.Getenv)
	if errors.Is(err, flag.ErrHelp) {
		fmt.Print(usage)
		return
	}
	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	fatal(err)
	fatal(config.Validate(cfg))
	if writePath != "" {
		fatal(config.Save(writePath, cfg))
		fmt.Printf("wrote %s\n", writePath)
		return
	}

	log, err := logging.New(cfg.Log)
	fatal(err)
	defer func() { _ = log.Sync() }()

	ctx, cancel := signalContext()
	defer cancel()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		_ = log.Sync()
		fatal(err)
	}
}

// parseConfig layers the config file, the environment and then the flags
// that were explicitly set. The second result is the --write-config path.
func parseConfig(args []string, getenv func(string) string) (config.Config, string, error) {
	fs := flag.NewFlagSet("latencygen", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "config path")
	gatewayURL := fs.String("gateway", "", "gateway URL")
	job := fs.String("job", "", "job label")
	instance := fs.String("instance", "", "instance label")
	interval := fs.Float64("interval", config.DefaultIntervalSec, "seconds between pushes")
	timeout := fs.Int("timeout", config.DefaultTimeoutSec, "push timeout seconds")
	once := fs.Bool("once", false, "push once and exit")
	mode := fs.String("mode", "", "paired|ordered")
	nodes := fs.String("nodes", "", "comma-separated node names")
	custom := fs.String("custom", "", "custom dataset file")
	seed := fs.Uint64("seed", 0, "random seed")
	verbose := fs.Bool("verbose", false, "verbose output")
	listen := fs.String("listen", "", "self-metrics listen address")
	logLevel := fs.String("log-level", "", "log level")
	logFormat := fs.String("log-format", "", "log format")
	writeConfig := fs.String("write-config", "", "write effective config and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return config.Config{}, "", err
		}
		return config.Config{}, "", usageError{err}
	}
	if fs.NArg() > 0 {
		return config.Config{}, "", usageError{fmt.Errorf("unexpected argument %q", fs.Arg(0))}
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return config.Config{}, "", fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	config.ApplyEnv(&cfg, getenv)

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["gateway"] {
		cfg.Gateway.URL = *gatewayURL
	}
	if set["job"] {
		cfg.Gateway.Job = *job
	}
	if set["instance"] {
		cfg.Gateway.Instance = *instance
	}
	if set["interval"] {
		cfg.Schedule.IntervalSec = *interval
	}
	if set["timeout"] {
		cfg.Gateway.TimeoutSec = *timeout
	}
	if set["once"] {
		cfg.Schedule.Once = *once
	}
	if set["mode"] {
		cfg.Generator.Mode = *mode
	}
	if set["nodes"] {
		cfg.Generator.Nodes = splitList(*nodes)
	}
	if set["custom"] {
		cfg.Generator.CustomFile = *custom
	}
	if set["seed"] {
		cfg.Generator.Seed = *seed
	}
	if set["verbose"] {
		cfg.Verbose = *verbose
	}
	if set["listen"] {
		cfg.Listen = *listen
	}
	if set["log-level"] {
		cfg.Log.Level = *logLevel
	}
	if set["log-format"] {
		cfg.Log.Format = *logFormat
	}
	return cfg, *writeConfig, nil
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	rows := cfg.Generator.Custom
	if cfg.Generator.CustomFile != "" {
		loaded, err := dataset.Load(cfg.Generator.CustomFile)
		if err != nil {
			return fmt.Errorf("load custom dataset: %w", err)
		}
		rows = append(append([]dataset.Row(nil), rows...), loaded...)
	}

	instance := cfg.Gateway.Instance
	if cfg.STUN.InstanceFromSTUN {
		res, err := stunutil.Discover(ctx, cfg.STUN.Servers, stunTimeout)
		if err != nil {
			log.Warn("STUN discovery failed, keeping configured instance",
				zap.String("instance", instance), zap.Error(err))
		} else {
			instance = res.Host
			log.Info("instance from STUN",
				zap.String("instance", instance), zap.String("server", res.Server))
		}
	}

	pushURL, err := gateway.PushURL(cfg.Gateway.URL, cfg.Gateway.Job, instance)
	if err != nil {
		return err
	}
	mode, err := generator.ParseMode(cfg.Generator.Mode)
	if err != nil {
		return err
	}

	gen := generator.New(generator.Options{
		Mode: mode,
		Min:  cfg.Generator.LatencyMin,
		Max:  cfg.Generator.LatencyMax,
		Seed: cfg.Generator.Seed,
	})
	timeout := time.Duration(cfg.Gateway.TimeoutSec) * time.Second
	pub := gateway.NewPublisher(gateway.NewClient(pushURL, timeout), log, cfg.Verbose)
	interval := time.Duration(cfg.Schedule.IntervalSec * float64(time.Second))

	opts := agent.Options{
		Nodes:    cfg.Generator.Nodes,
		Custom:   rows,
		Interval: interval,
		Once:     cfg.Schedule.Once,
	}

	serveErr := make(chan error, 1)
	serveCtx, stopServe := context.WithCancel(ctx)
	defer stopServe()
	if cfg.Listen != "" {
		ln, err := net.Listen("tcp", cfg.Listen)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Listen, err)
		}
		m := server.NewMetrics()
		opts.Observer = m
		srv := server.New(m, log)
		go func() { serveErr <- srv.Serve(serveCtx, ln) }()
	} else {
		serveErr <- nil
	}

	log.Info("pushing fake latency metrics",
		zap.String("gateway", pushURL),
		zap.Duration("interval", interval),
		zap.String("mode", string(gen.Mode())),
		zap.Int("nodes", len(opts.Nodes)),
		zap.Int("custom_rows", len(rows)),
		zap.Bool("once", opts.Once),
	)

	runErr := agent.New(opts, gen, pub, log).Run(ctx)
	stopServe()
	if err := <-serveErr; err != nil {
		log.Warn("self-metrics server stopped", zap.Error(err))
	}
	return runErr
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
	}()
	return ctx, cancel
}

func fatal(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
