//go:build integration

package mssql

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"csvrecord/internal/schema"
	"csvrecord/internal/storage"
)

// getTestDSN reads MSSQL_TEST_DSN and skips the test when it is empty.
func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("MSSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MSSQL_TEST_DSN not set; skipping MSSQL integration tests")
	}
	return dsn
}

func TestNewRepositoryIntegration(t *testing.T) {
	dsn := getTestDSN(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	repo, closeFn, err := NewRepository(ctx, Config{DSN: dsn, Table: "dbo.unused"})
	if err != nil {
		t.Fatalf("NewRepository() error = %v, want nil", err)
	}
	if repo == nil || closeFn == nil {
		t.Fatalf("NewRepository() returned nil repo or closeFn")
	}
	closeFn()
}

// TestCopyFromAndExecIntegration creates the table from a contract, bulk
// copies a few rows and checks the reported count.
func TestCopyFromAndExecIntegration(t *testing.T) {
	dsn := getTestDSN(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := storage.Config{Kind: "mssql", DSN: dsn, Table: "dbo.csvrecord_copyfrom_test"}
	repo, err := storage.New(ctx, cfg)
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	defer repo.Close()

	_ = repo.Exec(ctx, "IF OBJECT_ID(N'dbo.csvrecord_copyfrom_test', N'U') IS NOT NULL DROP TABLE dbo.csvrecord_copyfrom_test;")

	c := schema.Contract{Fields: []schema.ContractField{
		{Name: "id", Type: "int"},
		{Name: "name", Type: "string?"},
		{Name: "amount", Type: "decimal?"},
	}}
	if err := storage.EnsureTable(ctx, cfg, repo, c); err != nil {
		t.Fatalf("EnsureTable() error = %v", err)
	}

	rows := [][]any{
		{int64(1), "alice", decimal.RequireFromString("1.50")},
		{int64(2), "bob", nil},
		{int64(3), nil, decimal.RequireFromString("-3")},
	}
	n, err := repo.CopyFrom(ctx, []string{"id", "name", "amount"}, rows)
	if err != nil {
		t.Fatalf("CopyFrom() error = %v, want nil", err)
	}
	if n != int64(len(rows)) {
		t.Fatalf("CopyFrom() inserted = %d, want %d", n, len(rows))
	}
}
