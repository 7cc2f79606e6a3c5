// Package miner runs discovery as a service: it loads logs from local or
// remote locations, dispatches to the selected algorithm, caches results by
// log fingerprint and records one span per discovery.
package miner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/logflow/alphaminer/pkg/alpha"
	"github.com/logflow/alphaminer/pkg/cache"
	"github.com/logflow/alphaminer/pkg/config"
	"github.com/logflow/alphaminer/pkg/errors"
	"github.com/logflow/alphaminer/pkg/eventlog"
	"github.com/logflow/alphaminer/pkg/loginfo"
	"github.com/logflow/alphaminer/pkg/logging"
	"github.com/logflow/alphaminer/pkg/petrinet"
	"github.com/logflow/alphaminer/pkg/relations"
	"github.com/logflow/alphaminer/pkg/storage/s3"
	"github.com/logflow/alphaminer/pkg/telemetry"
)

// Fetcher downloads a remote log to a local file.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (path string, cleanup func(), err error)
}

// Request describes one discovery run.
type Request struct {
	// Name labels the resulting net, typically the log's file name.
	Name string

	Algorithm config.Algorithm

	// AlphaPlusPlus makes Alpha+ also connect loops to contained places.
	AlphaPlusPlus bool
}

// Result is the outcome of a discovery run.
type Result struct {
	RunID       string
	Name        string
	Algorithm   config.Algorithm
	Fingerprint string

	Net      *petrinet.Net
	Document petrinet.Document

	// Sharp is set for Alpha# runs, which always bypass the cache.
	Sharp *alpha.SharpResult

	Cached   bool
	Traces   int
	Events   int
	Duration time.Duration
}

// Service runs discoveries. It is safe for concurrent use when its cache is.
type Service struct {
	cache   cache.NetCache
	tracer  trace.Tracer
	logger  logrus.FieldLogger
	fetcher Fetcher
	input   eventlog.Options
}

// Option configures a Service.
type Option func(*Service)

// WithCache stores and looks up nets in c.
func WithCache(c cache.NetCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithTracer records spans with t instead of the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithLogger sets the logger; discovery debug records go to it as well.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.logger = l }
}

// WithFetcher enables s3:// locations.
func WithFetcher(f Fetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithInput sets the reader options for Load.
func WithInput(opts eventlog.Options) Option {
	return func(s *Service) { s.input = opts }
}

// New creates a service with no cache, the global tracer and a discard logger.
func New(opts ...Option) *Service {
	s := &Service{
		cache:  cache.Noop{},
		tracer: telemetry.Tracer(),
		logger: logging.Discard(),
		input:  eventlog.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the log at location, downloading it first when it is an s3 URI.
func (s *Service) Load(ctx context.Context, location string) (*eventlog.Log, error) {
	ctx, span := s.tracer.Start(ctx, "alphaminer.load", trace.WithAttributes(
		attribute.String("location", location),
	))
	defer span.End()

	path := location
	if s3.IsRemote(location) {
		if s.fetcher == nil {
			err := errors.New(errors.CodeStorageInit, "remote logs need storage configuration").
				WithContext("location", location)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Message)
			return nil, err
		}
		local, cleanup, err := s.fetcher.Fetch(ctx, location)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch failed")
			return nil, err
		}
		defer cleanup()
		path = local
	}

	log, err := eventlog.Open(ctx, path, s.input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("traces", log.Len()), attribute.Int("events", log.EventCount()))
	return log, nil
}

// DiscoverFile loads location and discovers a net from it, naming the net
// after the file.
func (s *Service) DiscoverFile(ctx context.Context, location string, req Request) (*Result, error) {
	log, err := s.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	if req.Name == "" {
		req.Name = strings.TrimSuffix(filepath.Base(location), filepath.Ext(location))
	}
	return s.Discover(ctx, log, req)
}

// Discover mines a net from log. Cache failures are logged and otherwise
// ignored.
func (s *Service) Discover(ctx context.Context, log *eventlog.Log, req Request) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := s.logger.WithFields(logrus.Fields{
		"run_id":    runID,
		"algorithm": req.Algorithm.String(),
		"log":       req.Name,
	})

	ctx, span := s.tracer.Start(ctx, "alphaminer.discover", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.String("algorithm", req.Algorithm.String()),
		attribute.Int("traces", log.Len()),
		attribute.Int("events", log.EventCount()),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		aerr := errors.ContextCanceled("discover")
		span.RecordError(aerr)
		span.SetStatus(codes.Error, aerr.Message)
		return nil, aerr
	}

	res := &Result{
		RunID:       runID,
		Name:        req.Name,
		Algorithm:   req.Algorithm,
		Fingerprint: Fingerprint(log, req),
		Traces:      log.Len(),
		Events:      log.EventCount(),
	}

	// Alpha# results carry orderings and tuples the net document cannot hold.
	nets := s.cache
	if req.Algorithm == config.AlgorithmAlphaSharp {
		nets = cache.Noop{}
	}

	if doc, ok, err := nets.Get(ctx, res.Fingerprint); err != nil {
		logger.WithError(err).Warn("cache lookup failed")
	} else if ok {
		res.Document = doc
		res.Net = petrinet.FromDocument(doc)
		res.Cached = true
	}

	if !res.Cached {
		net, sharp, err := Run(log, req, logger)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "discovery failed")
			return nil, err
		}
		res.Net = net
		res.Sharp = sharp
		res.Document = net.ToDocument(req.Name)

		if err := nets.Set(ctx, res.Fingerprint, res.Document); err != nil {
			logger.WithError(err).Warn("cache store failed")
		}
	}

	res.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Bool("cached", res.Cached),
		attribute.Int("places", len(res.Net.AllPlaces())),
		attribute.Int("transitions", len(res.Net.AllTransitions())),
	)
	logger.WithFields(logrus.Fields{
		"places":      len(res.Net.AllPlaces()),
		"transitions": len(res.Net.AllTransitions()),
		"cached":      res.Cached,
		"duration":    res.Duration,
	}).Info("net discovered")
	return res, nil
}

// Run dispatches to the discovery entry point of req.Algorithm. The Alpha#
// relations are returned alongside its net.
func Run(log *eventlog.Log, req Request, logger logrus.FieldLogger) (*petrinet.Net, *alpha.SharpResult, error) {
	opts := []alpha.Option{alpha.WithLogger(logger)}

	switch req.Algorithm {
	case config.AlgorithmAlpha:
		provider := relations.NewAlphaProvider(loginfo.New(log))
		return alpha.DiscoverAlpha(provider, opts...), nil, nil
	case config.AlgorithmAlphaPlus:
		return alpha.DiscoverAlphaPlusLog(log, req.AlphaPlusPlus, opts...), nil, nil
	case config.AlgorithmAlphaPlusPlus:
		return alpha.DiscoverAlphaPlusPlusNFC(log, opts...), nil, nil
	case config.AlgorithmAlphaSharp:
		res := alpha.DiscoverAlphaSharp(log, nil, opts...)
		return res.Net, &res, nil
	default:
		return nil, nil, errors.UnknownAlgorithm(req.Algorithm.String())
	}
}

// Fingerprint identifies the discovery input: the algorithm, its options and
// the multiset of trace variants. Case ids and timestamps do not contribute.
func Fingerprint(log *eventlog.Log, req Request) string {
	variants := log.Variants()
	keys := make([]string, 0, len(variants))
	for k := range variants {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	h.Write([]byte(req.Algorithm.String()))
	if req.AlphaPlusPlus {
		h.Write([]byte("+loops"))
	}
	for _, k := range keys {
		h.Write([]byte{0})
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(variants[k])))
	}
	return req.Algorithm.String() + ":" + hex.EncodeToString(h.Sum(nil))[:32]
}
