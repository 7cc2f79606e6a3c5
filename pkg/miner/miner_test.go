package miner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/logflow/alphaminer/pkg/cache"
	"github.com/logflow/alphaminer/pkg/config"
	"github.com/logflow/alphaminer/pkg/errors"
	"github.com/logflow/alphaminer/pkg/eventlog"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	opts = append([]Option{WithTracer(tp.Tracer("test"))}, opts...)
	return New(opts...), recorder
}

func sampleLog() *eventlog.Log {
	return eventlog.FromNames([][]string{
		{"A", "B", "D"},
		{"A", "C", "D"},
	})
}

func TestDiscover(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	svc, recorder := newTestService(t, WithLogger(logger))

	res, err := svc.Discover(context.Background(), sampleLog(), Request{Name: "orders", Algorithm: config.AlgorithmAlpha})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.False(t, res.Cached)
	assert.Equal(t, 2, res.Traces)
	assert.Equal(t, 6, res.Events)
	assert.Len(t, res.Net.AllPlaces(), 4)
	assert.Equal(t, "orders", res.Document.Name)
	assert.Nil(t, res.Sharp)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "alphaminer.discover", spans[0].Name())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "net discovered", entry.Message)
	assert.Equal(t, "alpha", entry.Data["algorithm"])
}

func TestDiscover_AllAlgorithms(t *testing.T) {
	svc, _ := newTestService(t)
	log := eventlog.FromNames([][]string{{"A", "B", "B", "C"}, {"A", "C"}})

	for _, algo := range []config.Algorithm{
		config.AlgorithmAlpha,
		config.AlgorithmAlphaPlus,
		config.AlgorithmAlphaPlusPlus,
		config.AlgorithmAlphaSharp,
	} {
		t.Run(algo.String(), func(t *testing.T) {
			res, err := svc.Discover(context.Background(), log, Request{Algorithm: algo})
			require.NoError(t, err)
			assert.Len(t, res.Net.AllTransitions(), 3+silentCount(res))
			if algo == config.AlgorithmAlphaSharp {
				assert.NotNil(t, res.Sharp)
			}
		})
	}
}

func silentCount(res *Result) int {
	n := 0
	for _, tr := range res.Net.AllTransitions() {
		if tr.Silent {
			n++
		}
	}
	return n
}

func TestDiscover_UnknownAlgorithm(t *testing.T) {
	svc, recorder := newTestService(t)

	_, err := svc.Discover(context.Background(), sampleLog(), Request{Algorithm: config.Algorithm(9)})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeUnknownAlgorithm))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "Error", spans[0].Status().Code.String())
}

func TestDiscover_Canceled(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Discover(ctx, sampleLog(), Request{})
	assert.True(t, errors.IsCode(err, errors.CodeContextCanceled))
}

func TestDiscover_Cache(t *testing.T) {
	mem := cache.NewMemory()
	svc, _ := newTestService(t, WithCache(mem))
	req := Request{Name: "orders", Algorithm: config.AlgorithmAlpha}

	first, err := svc.Discover(context.Background(), sampleLog(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, mem.Len())

	second, err := svc.Discover(context.Background(), sampleLog(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.ElementsMatch(t, first.Net.TransitionNames(), second.Net.TransitionNames())
	assert.Equal(t, len(first.Net.AllPlaces()), len(second.Net.AllPlaces()))
}

func TestFingerprint(t *testing.T) {
	alpha := Request{Algorithm: config.AlgorithmAlpha}
	a := eventlog.FromNames([][]string{{"A", "B"}, {"A", "C"}})
	b := eventlog.FromNames([][]string{{"A", "C"}, {"A", "B"}})
	c := eventlog.FromNames([][]string{{"A", "C"}, {"A", "B"}, {"A", "B"}})

	assert.Equal(t, Fingerprint(a, alpha), Fingerprint(b, alpha))
	assert.NotEqual(t, Fingerprint(a, alpha), Fingerprint(c, alpha))
	assert.NotEqual(t, Fingerprint(a, alpha), Fingerprint(a, Request{Algorithm: config.AlgorithmAlphaSharp}))
	assert.NotEqual(t,
		Fingerprint(a, Request{Algorithm: config.AlgorithmAlphaPlus}),
		Fingerprint(a, Request{Algorithm: config.AlgorithmAlphaPlus, AlphaPlusPlus: true}))
}

func TestDiscoverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"case:concept:name,concept:name,time:timestamp\n"+
			"1,A,2024-01-01T10:00:00Z\n"+
			"1,B,2024-01-01T11:00:00Z\n"+
			"2,A,2024-01-01T10:00:00Z\n"+
			"2,C,2024-01-01T11:00:00Z\n"), 0644))

	svc, recorder := newTestService(t)
	res, err := svc.DiscoverFile(context.Background(), path, Request{Algorithm: config.AlgorithmAlpha})
	require.NoError(t, err)
	assert.Equal(t, "orders", res.Name)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, res.Net.TransitionNames())

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{"alphaminer.load", "alphaminer.discover"}, names)
}

func TestLoad_RemoteWithoutFetcher(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Load(context.Background(), "s3://bucket/log.csv")
	assert.True(t, errors.IsCode(err, errors.CodeStorageInit))
}

type stubFetcher struct {
	path    string
	cleaned bool
}

func (f *stubFetcher) Fetch(context.Context, string) (string, func(), error) {
	return f.path, func() { f.cleaned = true }, nil
}

func TestLoad_Remote(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"case:concept:name":"1","concept:name":"A","time:timestamp":"2024-01-01T10:00:00Z"}`+"\n"), 0644))

	fetcher := &stubFetcher{path: path}
	svc, _ := newTestService(t, WithFetcher(fetcher))

	log, err := svc.Load(context.Background(), "s3://bucket/log.jsonl")
	require.NoError(t, err)
	assert.Equal(t, 1, log.Len())
	assert.True(t, fetcher.cleaned)
}

func TestDiscover_AlphaSharpBypassesCache(t *testing.T) {
	mem := cache.NewMemory()
	svc, _ := newTestService(t, WithCache(mem))
	log := eventlog.FromNames([][]string{{"A", "B", "C", "D"}, {"A", "D"}})
	req := Request{Name: "skips", Algorithm: config.AlgorithmAlphaSharp}

	for i := 0; i < 2; i++ {
		res, err := svc.Discover(context.Background(), log, req)
		require.NoError(t, err)
		assert.False(t, res.Cached)
		require.NotNil(t, res.Sharp)
		assert.Len(t, res.Sharp.Tuples, 1)
	}
	assert.Equal(t, 0, mem.Len())
}
