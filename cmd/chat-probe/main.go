package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/capperchat/internal/probe"
	"github.com/okian/capperchat/pkg/logger"
)

const (
	defaultWorkers  = 4
	overallDeadline = 30 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", probe.DefaultBaseURL, "Base URL of the service")
		rounds    = flag.Int("rounds", probe.DefaultRounds, "Times each query is sent")
		workers   = flag.Int("workers", defaultWorkers, "Concurrent requests")
		intent    = flag.String("intent", "", "Only run queries expected to resolve to this intent")
		timeout   = flag.Duration("timeout", probe.DefaultTimeout, "Per-request timeout")
		logFormat = flag.String("log-format", "text", "text or json")
		verbose   = flag.Bool("verbose", false, "Log every response")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return
	}

	if err := logger.Init(logger.WithOutput(os.Stderr), logger.WithFormat(*logFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, overallDeadline)
	defer cancel()

	cfg := &probe.Config{
		BaseURL: *baseURL,
		Rounds:  *rounds,
		Workers: *workers,
		Timeout: *timeout,
		Filter:  *intent,
		Verbose: *verbose,
	}
	cases := probe.FilterCases(probe.DefaultCases(), cfg.Filter)

	report, err := probe.Run(ctx, cfg, cases, os.Stdout)
	if err != nil {
		os.Stderr.WriteString("probe failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	if report.Failed > 0 {
		os.Exit(2)
	}
}
