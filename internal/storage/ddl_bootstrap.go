package storage

import (
	"context"
	"fmt"
	"sync"

	"csvrecord/internal/ddl"
	"csvrecord/internal/schema"
)

// DDL is a backend's table bootstrap: how contract types map to SQL types
// and how a table definition is rendered.
type DDL struct {
	MapType        ddl.TypeMapper
	CreateTableSQL func(ddl.TableDef) (string, error)
}

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDL{}
)

// RegisterDDL registers (or replaces) the bootstrap for a storage kind. It is
// typically called from backend packages' init() functions.
func RegisterDDL(kind string, d DDL) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = d
}

// TableSQL derives the CREATE TABLE statement for cfg.Table from the schema
// contract, using the bootstrap registered for cfg.Kind.
func TableSQL(cfg Config, c schema.Contract) (string, error) {
	ddlMu.RLock()
	d, ok := ddlFns[cfg.Kind]
	ddlMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", cfg.Kind)
	}
	td, err := ddl.FromContract(cfg.Table, c, cfg.Columns, d.MapType)
	if err != nil {
		return "", fmt.Errorf("infer table definition: %w", err)
	}
	return d.CreateTableSQL(td)
}

// EnsureTable creates cfg.Table from the contract through repo.Exec. The
// rendered statement must be idempotent (IF NOT EXISTS or an equivalent
// guard).
func EnsureTable(ctx context.Context, cfg Config, repo Repository, c schema.Contract) error {
	sql, err := TableSQL(cfg, c)
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, sql); err != nil {
		return fmt.Errorf("apply DDL: %w", err)
	}
	return nil
}
