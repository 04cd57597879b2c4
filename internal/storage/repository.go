// Package storage defines the backend-agnostic Repository contract, a
// registry of backend factories keyed by storage kind, the contract-driven
// table bootstrap and the batched loader that feeds a Repository.
//
// Backends live in subpackages and register themselves from init(); import
// csvrecord/internal/storage/all to link every built-in backend.
package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Repository is what the loader needs from a backend.
type Repository interface {
	// CopyFrom inserts rows (aligned to columns) and reports how many were
	// written.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	Close()
}

// Config is the backend-neutral subset of the storage section.
type Config struct {
	Kind    string
	DSN     string
	Table   string
	Columns []string
	// Out is where text sinks write; nil means os.Stdout.
	Out io.Writer
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
