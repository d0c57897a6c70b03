// Command kcombo runs k-means for every combination of initial centroids drawn
// from the first points of a binary input file and writes one CSV or Parquet
// row per combination.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/kcombo"
	"github.com/hupe1980/kcombo/distance"
	"github.com/hupe1980/kcombo/metric"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func usage(fs *flag.FlagSet, prog string) func() {
	return func() {
		w := fs.Output()
		fmt.Fprintf(w, "USAGE:\n")
		fmt.Fprintf(w, "    %s [-k n_clusters] [-p n_combinations_points] [-n n_threads] [-f output] [-q] [-d distance] input\n", prog)
		fmt.Fprintf(w, "    -k n_clusters (default value: 2): the number of clusters to compute\n")
		fmt.Fprintf(w, "    -p n_combinations (default value: equal to k): consider the n_combinations first points present in the input to generate possible initializations for the k-means algorithm\n")
		fmt.Fprintf(w, "    -n n_threads (default value: 4): sets the number of computing threads that will be used to execute the k-means algorithm\n")
		fmt.Fprintf(w, "    -f output (default value: stdout): where to write the result; a local path, s3://bucket/key or minio://bucket/key, optionally ending in .gz, .zst or .lz4\n")
		fmt.Fprintf(w, "    -q quiet mode: does not output the clusters content (the \"clusters\" column is simply not present)\n")
		fmt.Fprintf(w, "    -d distance (manhattan by default): can be either \"euclidean\" or \"manhattan\"\n")
		fmt.Fprintf(w, "\nOTHER OPTIONS:\n")
		fs.VisitAll(func(f *flag.Flag) {
			if len(f.Name) > 1 {
				fmt.Fprintf(w, "    --%s: %s\n", f.Name, f.Usage)
			}
		})
		fmt.Fprintf(w, "\nEvery option can also be set as %s_<NAME> in the environment or a .env file, or in the YAML file given by --config.\n", envPrefix)
	}
}

// run parses args, executes one clustering run and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	prog := "kcombo"
	if len(args) > 0 {
		prog = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet(prog, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usage(fs, prog)

	def := DefaultConfig()
	k := fs.Int("k", def.K, "number of clusters")
	p := fs.Int("p", 0, "number of leading points to draw initial centroids from")
	n := fs.Int("n", def.Workers, "number of clustering workers")
	out := fs.String("f", "", "output location")
	quiet := fs.Bool("q", false, "omit the clusters column")
	dist := fs.String("d", def.Distance, "distance formula")
	configPath := fs.String("config", "", "YAML configuration file")
	format := fs.String("format", "", "output format: csv or parquet (default from the output name)")
	logFormat := fs.String("log-format", def.LogFormat, "log format: json or text")
	logLevel := fs.String("log-level", def.LogLevel, "log level: debug, info, warn or error")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address during the run")
	memoryLimit := fs.Int64("memory-limit", 0, "abort when in-flight results exceed this many bytes (0: unlimited)")
	ioLimit := fs.Int64("io-limit", 0, "cap output throughput in bytes per second (0: unlimited)")
	maxIter := fs.Int("max-iterations", 0, "fail a combination after this many iterations (0: unlimited)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		if err := LoadFile(*configPath, &cfg); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", prog, err)
			return exitUsage
		}
	}
	if err := LoadEnv(&cfg, ".env"); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", prog, err)
		return exitUsage
	}

	// Flags given on the command line win over file and environment.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "k":
			cfg.K = *k
		case "p":
			cfg.Candidates = *p
		case "n":
			cfg.Workers = *n
		case "f":
			cfg.Output = *out
		case "q":
			cfg.Quiet = *quiet
		case "d":
			cfg.Distance = *dist
		case "format":
			cfg.Format = *format
		case "log-format":
			cfg.LogFormat = *logFormat
		case "log-level":
			cfg.LogLevel = *logLevel
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		case "memory-limit":
			cfg.MemoryLimit = *memoryLimit
		case "io-limit":
			cfg.IOLimit = *ioLimit
		case "max-iterations":
			cfg.MaxIterations = *maxIter
		}
	})
	if fs.NArg() > 0 {
		cfg.Input = fs.Arg(0)
	}

	if err := ValidateConfig(&cfg); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", prog, err)
		fs.Usage()
		return exitUsage
	}

	logger := newLogger(&cfg, stderr)
	return execute(ctx, &cfg, logger, stdout)
}

func newLogger(cfg *Config, w io.Writer) *kcombo.Logger {
	level, _ := parseLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return kcombo.NewLogger(slog.NewJSONHandler(w, opts))
	}
	return kcombo.NewLogger(slog.NewTextHandler(w, opts))
}

func execute(ctx context.Context, cfg *Config, logger *kcombo.Logger, stdout io.Writer) int {
	ds, err := loadInput(ctx, cfg, cfg.Input)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read input", "input", cfg.Input, "error", err)
		return exitFailed
	}
	if cfg.Candidates > ds.Len() {
		logger.ErrorContext(ctx, "-p must not exceed the number of points in the input",
			"p", cfg.Candidates, "points", ds.Len())
		return exitUsage
	}

	dm, _ := distance.ParseMetric(cfg.Distance)
	opts := []kcombo.Option{
		kcombo.WithK(cfg.K),
		kcombo.WithCandidates(cfg.Candidates),
		kcombo.WithWorkers(cfg.Workers),
		kcombo.WithMetric(dm),
		kcombo.WithQuiet(cfg.Quiet),
		kcombo.WithFormat(cfg.OutputFormat()),
		kcombo.WithMemoryLimit(cfg.MemoryLimit),
		kcombo.WithIOLimit(cfg.IOLimit),
		kcombo.WithMaxIterations(cfg.MaxIterations),
		kcombo.WithElevatedPriority(cfg.Elevate),
		kcombo.WithLogger(logger),
	}

	if cfg.MetricsAddr != "" {
		shutdown, mc, err := serveMetrics(ctx, cfg.MetricsAddr, logger)
		if err != nil {
			logger.ErrorContext(ctx, "failed to start metrics server", "addr", cfg.MetricsAddr, "error", err)
			return exitFailed
		}
		defer shutdown()
		opts = append(opts, kcombo.WithMetricsCollector(mc))
	}

	dst, err := openSink(ctx, cfg, cfg.Output, stdout)
	if err != nil {
		logger.ErrorContext(ctx, "failed to open output", "output", cfg.Output, "error", err)
		return exitFailed
	}

	summary, runErr := kcombo.Run(ctx, ds, dst, opts...)
	if summary == nil {
		// Rejected before anything was written.
		dst.Abort()
		logger.ErrorContext(ctx, "invalid run configuration", "error", runErr)
		return exitUsage
	}

	// Rows written before a failure are kept.
	if err := dst.Commit(); err != nil {
		logger.ErrorContext(ctx, "failed to finish output", "output", cfg.Output, "error", err)
		return exitFailed
	}

	if runErr != nil {
		logger.ErrorContext(ctx, "output is incomplete",
			"written", summary.Written,
			"total", summary.Total,
			"first_missing", summary.FirstMissing,
		)
		return exitFailed
	}
	return exitOK
}

// serveMetrics exposes a fresh registry on addr/metrics until shutdown is called.
func serveMetrics(ctx context.Context, addr string, logger *kcombo.Logger) (func(), kcombo.MetricsCollector, error) {
	reg := prometheus.NewRegistry()
	mc, err := metric.NewPrometheusCollector(reg)
	if err != nil {
		return nil, nil, err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "metrics server failed", "error", err)
		}
	}()
	logger.InfoContext(ctx, "serving metrics", "addr", ln.Addr().String())

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, mc, nil
}
