package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/logflow/alphaminer/pkg/alpha"
	"github.com/logflow/alphaminer/pkg/config"
	"github.com/logflow/alphaminer/pkg/errors"
	"github.com/logflow/alphaminer/pkg/lifecycle"
	"github.com/logflow/alphaminer/pkg/loginfo"
	"github.com/logflow/alphaminer/pkg/miner"
	"github.com/logflow/alphaminer/pkg/petrinet"
	"github.com/logflow/alphaminer/pkg/storage/s3"
	"github.com/logflow/alphaminer/pkg/tui"
	"github.com/logflow/alphaminer/pkg/watch"
)

var (
	showNet       bool
	showRelations bool
	workers       int
	failFast      bool
	debounce      time.Duration
)

var discoverCmd = &cobra.Command{
	Use:   "discover <log>",
	Short: "Discover a Petri net from one event log",
	Long: `Discover a Petri net from one event log and write it as JSON or YAML.

Without --output the document goes to stdout and the summary to stderr.

Examples:
  alphaminer discover orders.csv
  alphaminer discover -a alpha++ s3://bucket/logs/orders.parquet -o nets/
  alphaminer discover -a alpha# orders.csv --relations`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscover,
}

var batchCmd = &cobra.Command{
	Use:   "batch <pattern>...",
	Short: "Discover nets for many logs in parallel",
	Long: `Discover one net per log. Patterns are expanded as globs.

Examples:
  alphaminer batch 'logs/*.csv' -o nets/
  alphaminer batch a.csv b.jsonl -w 2 --fail-fast`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

var watchCmd = &cobra.Command{
	Use:   "watch <log>...",
	Short: "Rediscover nets whenever the logs change",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWatch,
}

var infoCmd = &cobra.Command{
	Use:   "info <log>",
	Short: "Show log statistics and footprint relations",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var relationsCmd = &cobra.Command{
	Use:   "relations <log>",
	Short: "Show the Alpha# advanced orderings and silent transitions of a log",
	Args:  cobra.ExactArgs(1),
	RunE:  runRelations,
}

var configCmd = &cobra.Command{
	Use:   "config [path]",
	Short: "Print the effective configuration, or save it to path",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfig,
}

func init() {
	discoverCmd.Flags().BoolVar(&showNet, "net", false, "Print places with their transitions")
	discoverCmd.Flags().BoolVar(&showRelations, "relations", false, "Alpha#: print advanced orderings and silent transitions")

	batchCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel discoveries (default: configuration, then NumCPU)")
	batchCmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first failing log")

	watchCmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before rediscovery")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx, stop := lifecycle.SignalContext(cmd.Context())
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.service.DiscoverFile(ctx, args[0], a.request(""))
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	tui.PrintResult(stderr, res)
	if showNet {
		tui.PrintNet(stderr, res.Net)
	}
	if showRelations && res.Sharp != nil {
		tui.PrintSharp(stderr, res.Sharp)
	}

	if a.cfg.Output.Dir == "" {
		return writeDocument(cmd.OutOrStdout(), res.Document, a.cfg.Output.Format)
	}
	return a.save(ctx, res)
}

func runBatch(cmd *cobra.Command, args []string) error {
	inputs, err := expandPatterns(args)
	if err != nil {
		return err
	}

	ctx, stop := lifecycle.SignalContext(cmd.Context())
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.Output.Dir == "" {
		a.cfg.Output.Dir = "."
	}
	limit := workers
	if limit <= 0 {
		limit = a.cfg.Discovery.Workers
	}
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	a.logger.WithFields(logrus.Fields{"logs": len(inputs), "workers": limit}).Info("batch started")

	var succeeded, cached atomic.Int64
	var failures errors.MultiError
	failed := make(chan error, len(inputs))
	bar := tui.ShowProgress(cmd.ErrOrStderr(), len(inputs), "discovering")
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, input := range inputs {
		input := input
		g.Go(func() error {
			defer bar.Add(1)
			if !a.life.Begin() {
				return nil
			}
			defer a.life.End()

			res, err := a.service.DiscoverFile(gctx, input, a.request(""))
			if err == nil {
				err = a.save(gctx, res)
			}
			if err != nil {
				err = fmt.Errorf("%s: %w", input, err)
				failed <- err
				if failFast {
					return err
				}
				return nil
			}
			succeeded.Add(1)
			if res.Cached {
				cached.Add(1)
			}
			return nil
		})
	}
	waitErr := g.Wait()
	close(failed)
	for err := range failed {
		failures.Add(err)
	}

	report := tui.BatchReport{
		Files:     len(inputs),
		Succeeded: int(succeeded.Load()),
		Failed:    len(failures.Errors),
		Cached:    int(cached.Load()),
		Duration:  time.Since(start),
	}
	tui.PrintBatchReport(cmd.ErrOrStderr(), report)

	if waitErr != nil {
		return waitErr
	}
	return failures.Combined()
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := lifecycle.SignalContext(cmd.Context())
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.Output.Dir == "" {
		a.cfg.Output.Dir = "."
	}

	rediscover := func(ctx context.Context, path string) error {
		if !a.life.Begin() {
			return nil
		}
		defer a.life.End()

		res, err := a.service.DiscoverFile(ctx, path, a.request(""))
		if err != nil {
			return err
		}
		tui.PrintResult(cmd.ErrOrStderr(), res)
		return a.save(ctx, res)
	}

	w, err := watch.New(rediscover, watch.WithDebounce(debounce), watch.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.life.RegisterCloser("watcher", w)

	for _, path := range args {
		if err := w.Add(path); err != nil {
			return err
		}
		if err := rediscover(ctx, path); err != nil {
			a.logger.WithError(err).WithField("path", path).Error("initial discovery failed")
		}
	}

	a.logger.WithField("files", len(args)).Info("watching for changes")
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx, stop := lifecycle.SignalContext(cmd.Context())
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	log, err := a.service.Load(ctx, args[0])
	if err != nil {
		return err
	}
	info := loginfo.New(log)
	u := info.Universe()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Traces:      %d\n", log.Len())
	fmt.Fprintf(out, "Events:      %d\n", log.EventCount())
	fmt.Fprintf(out, "Variants:    %d\n", len(log.Variants()))
	fmt.Fprintf(out, "Activities:  %s\n", strings.Join(log.Classes(), ", "))
	fmt.Fprintf(out, "Start:       %s\n", u.Format(info.StartEventClasses()))
	fmt.Fprintf(out, "End:         %s\n", u.Format(info.EndEventClasses()))
	fmt.Fprintf(out, "Length-one loops: %s\n", u.Format(info.OneLengthLoops()))

	var follows []string
	for p, n := range info.Edges() {
		follows = append(follows, fmt.Sprintf("%s > %s (%d)", u.Name(p.First), u.Name(p.Second), n))
	}
	sort.Strings(follows)
	fmt.Fprintf(out, "Directly follows:\n")
	for _, f := range follows {
		fmt.Fprintf(out, "  %s\n", f)
	}
	return nil
}

func runRelations(cmd *cobra.Command, args []string) error {
	ctx, stop := lifecycle.SignalContext(cmd.Context())
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	log, err := a.service.Load(ctx, args[0])
	if err != nil {
		return err
	}
	res := alpha.DiscoverAlphaSharp(log, nil, alpha.WithLogger(a.logger))
	tui.PrintSharp(cmd.OutOrStdout(), &res)
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		m := config.NewManagerWithPaths()
		*m.Get() = *cfg
		return m.Save(args[0])
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return errors.Wrap(err, errors.CodeEncodeFailed, "cannot encode config")
	}
	return enc.Close()
}

// expandPatterns resolves globs; a pattern without matches is kept as a
// literal path when it exists or names a remote object.
func expandPatterns(patterns []string) ([]string, error) {
	var out []string
	for _, pattern := range patterns {
		if s3.IsRemote(pattern) {
			out = append(out, pattern)
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidOption, "invalid glob pattern").WithContext("pattern", pattern)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				return nil, errors.FileNotFound(pattern)
			}
			matches = []string{pattern}
		}
		out = append(out, matches...)
	}
	if len(out) == 0 {
		return nil, errors.New(errors.CodeEmptyLog, "no input logs found")
	}
	return out, nil
}

// save writes the net document into the output directory, which may be an
// s3:// prefix.
func (a *app) save(ctx context.Context, res *miner.Result) error {
	format := a.cfg.Output.Format
	var buf bytes.Buffer
	if err := writeDocument(&buf, res.Document, format); err != nil {
		return err
	}
	name := res.Name + ".net." + format

	if s3.IsRemote(a.cfg.Output.Dir) {
		if a.storage == nil {
			return errors.New(errors.CodeStorageInit, "remote output needs storage configuration")
		}
		uri := strings.TrimSuffix(a.cfg.Output.Dir, "/") + "/" + name
		return a.storage.Upload(ctx, uri, buf.Bytes(), contentType(format))
	}

	if err := os.MkdirAll(a.cfg.Output.Dir, 0755); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "cannot create output directory")
	}
	path := filepath.Join(a.cfg.Output.Dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "cannot write net").WithContext("path", path)
	}
	a.logger.WithFields(logrus.Fields{"path": path, "run_id": res.RunID}).Debug("net written")
	return nil
}

func writeDocument(w io.Writer, doc petrinet.Document, format string) error {
	if format == "yaml" {
		return doc.WriteYAML(w)
	}
	return doc.WriteJSON(w)
}

func contentType(format string) string {
	if format == "yaml" {
		return "application/yaml"
	}
	return "application/json"
}
