// Command ingest embeds the handicapper catalog and loads it into the
// configured vector index.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/capperchat/internal/bootstrap"
	"github.com/okian/capperchat/internal/config"
	"github.com/okian/capperchat/pkg/logger"
)

type options struct {
	configPath string
	dataPath   string
	clear      bool
	jsonOutput bool
	timeout    time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed the catalog and load it into the vector index",
		Long: `Ingest reads the handicapper dataset, turns every handicapper and package
into embedding text plus filterable metadata, embeds the records in parallel
and upserts them into the configured vector index in batches.

Configuration is read from CAPPER_* environment variables and, when set,
the YAML file named by --config or CAPPER_CONFIG.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), o, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&o.configPath, "config", "c", "", "YAML config file (overrides CAPPER_CONFIG)")
	flags.StringVar(&o.dataPath, "data", "", "dataset path (overrides data_path)")
	flags.BoolVar(&o.clear, "clear", false, "delete every vector before ingesting")
	flags.BoolVar(&o.jsonOutput, "json", false, "print the report as JSON")
	flags.DurationVar(&o.timeout, "timeout", 10*time.Minute, "overall deadline")
	return cmd
}

func run(ctx context.Context, o options, out io.Writer) error {
	if o.configPath != "" {
		if err := os.Setenv("CAPPER_CONFIG", o.configPath); err != nil {
			return fmt.Errorf("set config path: %w", err)
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if o.dataPath != "" {
		cfg.DataPath = o.dataPath
	}

	if err := logger.Init(logger.WithOutput(os.Stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	log := logger.Named("ingest")

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	components, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build components: %w", err)
	}
	defer func() {
		if err := components.Close(); err != nil {
			log.Warn(ctx, "component close failed", logger.Error(err))
		}
	}()

	ingester, err := components.Ingester(cfg, log)
	if err != nil {
		return fmt.Errorf("llm_provider and vector_provider must both be set: %w", err)
	}

	ds := bootstrap.LoadDataset(ctx, cfg, log)
	if ds.Empty() {
		return fmt.Errorf("no records in %s", cfg.DataPath)
	}

	report, err := ingester.Run(ctx, ds, o.clear)
	if err != nil {
		log.Error(ctx, "ingest failed", logger.Error(err))
		return err
	}

	if o.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	_, err = fmt.Fprintf(out, "records=%d duplicates=%d embedded=%d upserted=%d batches=%d cleared=%t elapsed=%s\n",
		report.Records, report.Duplicates, report.Embedded, report.Upserted, report.Batches, report.Cleared,
		report.Elapsed.Round(time.Millisecond))
	return err
}
