// Package cache stores discovered nets keyed by log fingerprint.
package cache

import (
	"context"
	"sync"

	"github.com/logflow/alphaminer/pkg/petrinet"
)

// NetCache stores net documents. Get reports a miss with ok == false and a
// nil error.
type NetCache interface {
	Get(ctx context.Context, key string) (doc petrinet.Document, ok bool, err error)
	Set(ctx context.Context, key string, doc petrinet.Document) error
	Name() string
	Close() error
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) (petrinet.Document, bool, error) {
	return petrinet.Document{}, false, nil
}

func (Noop) Set(context.Context, string, petrinet.Document) error { return nil }

func (Noop) Name() string { return "noop" }

func (Noop) Close() error { return nil }

// Memory is an in-process cache, used by watch mode and tests.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]petrinet.Document
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]petrinet.Document)}
}

func (m *Memory) Get(_ context.Context, key string) (petrinet.Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[key]
	return doc, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, doc petrinet.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = doc
	return nil
}

// Len returns the number of stored documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Close() error { return nil }
