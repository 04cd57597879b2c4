package mssql

import (
	"context"
	"testing"

	"csvrecord/internal/schema"
	"csvrecord/internal/storage"
)

// TestMSSQLStorageRegistrationUsesNewRepositoryHook verifies that the "mssql"
// backend registered in init() goes through the newRepository hook and that
// wrappedRepo propagates configuration and close behavior.
func TestMSSQLStorageRegistrationUsesNewRepositoryHook(t *testing.T) {
	ctx := context.Background()

	origNewRepository := newRepository
	defer func() { newRepository = origNewRepository }()

	var (
		called   bool
		gotCfg   Config
		closed   bool
		fakeRepo = &Repository{}
	)
	newRepository = func(_ context.Context, cfg Config) (*Repository, func(), error) {
		called = true
		gotCfg = cfg
		return fakeRepo, func() { closed = true }, nil
	}

	cfg := storage.Config{
		Kind:    "mssql",
		DSN:     "sqlserver://example",
		Table:   "dbo.target",
		Columns: []string{"id", "name"},
	}
	repo, err := storage.New(ctx, cfg)
	if err != nil {
		t.Fatalf("storage.New() error = %v, want nil", err)
	}
	if !called {
		t.Fatalf("newRepository hook was not called")
	}
	if gotCfg.DSN != cfg.DSN || gotCfg.Table != cfg.Table {
		t.Errorf("hook cfg = %+v, want DSN/Table from %+v", gotCfg, cfg)
	}

	w, ok := repo.(*wrappedRepo)
	if !ok {
		t.Fatalf("storage.New() type = %T, want *wrappedRepo", repo)
	}
	if w.Repository != fakeRepo {
		t.Fatalf("wrappedRepo.Repository = %p, want %p", w.Repository, fakeRepo)
	}

	repo.Close()
	if !closed {
		t.Fatalf("wrappedRepo.Close() did not invoke closeFn")
	}
}

func TestNewRepository_BadDSN(t *testing.T) {
	t.Parallel()

	_, _, err := NewRepository(context.Background(), Config{DSN: "sqlserver://host?connection+timeout=abc"})
	if err == nil {
		t.Fatal("NewRepository accepted a malformed DSN")
	}
}

func TestTableSQL(t *testing.T) {
	t.Parallel()

	c := schema.Contract{Fields: []schema.ContractField{
		{Name: "id", Type: "int"},
		{Name: "amount", Type: "decimal?"},
		{Name: "ok", Type: "boolean"},
		{Name: "note", Type: "string|null"},
	}}
	got, err := storage.TableSQL(storage.Config{Kind: "mssql", Table: "dbo.o'neil"}, c)
	if err != nil {
		t.Fatalf("TableSQL: %v", err)
	}
	want := "IF OBJECT_ID(N'[dbo].[o''neil]', N'U') IS NULL\n" +
		"CREATE TABLE [dbo].[o'neil] (\n" +
		"  [id] BIGINT NOT NULL,\n" +
		"  [amount] DECIMAL(38, 10),\n" +
		"  [ok] BIT NOT NULL,\n" +
		"  [note] NVARCHAR(MAX)\n" +
		");"
	if got != want {
		t.Fatalf("TableSQL =\n%s\nwant\n%s", got, want)
	}
}

// BenchmarkMSSQLStorageNew measures constructing a repository through
// storage.New with the hook stubbed out.
func BenchmarkMSSQLStorageNew(b *testing.B) {
	ctx := context.Background()

	origNewRepository := newRepository
	defer func() { newRepository = origNewRepository }()
	newRepository = func(_ context.Context, cfg Config) (*Repository, func(), error) {
		return &Repository{cfg: cfg}, func() {}, nil
	}

	cfg := storage.Config{Kind: "mssql", DSN: "sqlserver://example", Table: "dbo.target"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		repo, err := storage.New(ctx, cfg)
		if err != nil {
			b.Fatalf("storage.New() error = %v", err)
		}
		repo.Close()
	}
}
