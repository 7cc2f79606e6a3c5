// alphaminer discovers Petri nets from event logs with the Alpha family of
// algorithms.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/logflow/alphaminer/pkg/cache"
	"github.com/logflow/alphaminer/pkg/config"
	"github.com/logflow/alphaminer/pkg/lifecycle"
	"github.com/logflow/alphaminer/pkg/logging"
	"github.com/logflow/alphaminer/pkg/miner"
	"github.com/logflow/alphaminer/pkg/storage/s3"
	"github.com/logflow/alphaminer/pkg/telemetry"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// Global flags. Empty values leave the loaded configuration untouched.
var (
	configFile      string
	algorithmFlag   string
	alphaPlusPlus   bool
	logLevel        string
	outputFormat    string
	outputDir       string
	caseColumn      string
	activityColumn  string
	timestampColumn string
	timestampLayout string
	delimiter       string
	sheet           string
	engine          string
	noCache         bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "alphaminer",
	Short: "Discover Petri nets from event logs",
	Long: `alphaminer reads event logs (CSV, JSONL, XLSX, Parquet, local or s3://)
and discovers a Petri net with Alpha, Alpha+, Alpha++ or Alpha#.

Examples:
  alphaminer discover orders.csv
  alphaminer discover -a alpha# orders.csv --relations
  alphaminer batch 'logs/*.csv' -a alpha++ -w 4
  alphaminer watch orders.csv -o nets/`,
	Version:       fmt.Sprintf("%s (%s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "Configuration file (default: layered system, user and project files)")
	pf.StringVarP(&algorithmFlag, "algorithm", "a", "", "Algorithm: alpha, alpha+, alpha++, alpha#")
	pf.BoolVar(&alphaPlusPlus, "loops-in-places", false, "Alpha+: also connect loops to places containing their neighbours")
	pf.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVarP(&outputFormat, "output-format", "f", "", "Net document format (json, yaml)")
	pf.StringVarP(&outputDir, "output", "o", "", "Directory for net documents (default: stdout for discover)")
	pf.StringVar(&caseColumn, "case-id", "", "Case ID column name")
	pf.StringVar(&activityColumn, "activity", "", "Activity column name")
	pf.StringVar(&timestampColumn, "timestamp", "", "Timestamp column name")
	pf.StringVar(&timestampLayout, "timestamp-format", "", "Timestamp layout (Go time layout)")
	pf.StringVar(&delimiter, "delimiter", "", "CSV field delimiter")
	pf.StringVar(&sheet, "sheet", "", "XLSX worksheet")
	pf.StringVar(&engine, "engine", "", "Tabular reader engine (native, duckdb)")
	pf.BoolVar(&noCache, "no-cache", false, "Bypass the net cache")

	rootCmd.AddCommand(discoverCmd, batchCmd, watchCmd, infoCmd, relationsCmd, configCmd)
}

// app bundles what every command needs.
type app struct {
	cfg       *config.Config
	algorithm config.Algorithm
	logger    *logrus.Logger
	service   *miner.Service
	life      *lifecycle.Manager
	storage   *s3.Client
}

// loadConfig applies the configuration layers and the command-line overrides.
func loadConfig() (*config.Config, error) {
	var m *config.Manager
	if configFile != "" {
		m = config.NewManagerWithPaths(configFile)
	} else {
		m = config.NewManager()
	}
	if err := m.Load(); err != nil {
		return nil, err
	}
	cfg := m.Get()

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Discovery.Algorithm, algorithmFlag)
	set(&cfg.Logging.Level, logLevel)
	set(&cfg.Output.Format, outputFormat)
	set(&cfg.Output.Dir, outputDir)
	set(&cfg.Input.CaseColumn, caseColumn)
	set(&cfg.Input.ActivityColumn, activityColumn)
	set(&cfg.Input.TimestampColumn, timestampColumn)
	set(&cfg.Input.TimestampLayout, timestampLayout)
	set(&cfg.Input.Delimiter, delimiter)
	set(&cfg.Input.Sheet, sheet)
	set(&cfg.Input.Engine, engine)
	if alphaPlusPlus {
		cfg.Discovery.AlphaPlusPlus = true
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup wires configuration, logging, telemetry, the cache and remote storage
// into a miner service. Resources are released by app.close.
func setup(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	algo, err := config.ParseAlgorithm(cfg.Discovery.Algorithm)
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Logging, os.Stderr)
	life := lifecycle.NewManager(0, logger)

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry, version)
	if err != nil {
		return nil, err
	}
	life.Register("telemetry", shutdownTelemetry)

	opts := []miner.Option{
		miner.WithLogger(logger),
		miner.WithTracer(telemetry.Tracer()),
		miner.WithInput(cfg.Input.Options()),
	}

	nets, err := cache.Open(cfg.Cache)
	if err != nil {
		// Discovery still works without the cache.
		logger.WithError(err).Warn("net cache unavailable")
	} else {
		life.RegisterCloser("cache", nets)
		opts = append(opts, miner.WithCache(nets))
	}

	client, err := s3.NewClient(ctx, s3.FromConfig(cfg.Storage))
	if err != nil {
		logger.WithError(err).Debug("remote storage disabled")
	} else {
		opts = append(opts, miner.WithFetcher(client))
	}

	return &app{
		storage:   client,
		cfg:       cfg,
		algorithm: algo,
		logger:    logger,
		service:   miner.New(opts...),
		life:      life,
	}, nil
}

func (a *app) request(name string) miner.Request {
	return miner.Request{
		Name:          name,
		Algorithm:     a.algorithm,
		AlphaPlusPlus: a.cfg.Discovery.AlphaPlusPlus,
	}
}

func (a *app) close() {
	if err := a.life.Shutdown(context.Background()); err != nil {
		a.logger.WithError(err).Warn("shutdown incomplete")
	}
}
