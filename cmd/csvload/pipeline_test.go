package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"csvrecord/internal/config"
	"csvrecord/internal/parser/csv"
	"csvrecord/internal/schema"
	"csvrecord/internal/storage"
	_ "csvrecord/internal/storage/sqlite" // register "sqlite" backend for tests
	_ "csvrecord/internal/storage/stdout" // register "stdout" backend for tests
)

// writeLines creates a temp input file holding lines, newline terminated.
func writeLines(tb testing.TB, name string, lines ...string) string {
	tb.Helper()
	p := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		tb.Fatalf("write input: %v", err)
	}
	return p
}

func peopleContract() schema.Contract {
	return schema.Contract{
		Name: "people",
		Fields: []schema.ContractField{
			{Name: "id", Type: "int"},
			{Name: "Full Name", Type: "string"},
			{Name: "balance", Type: "decimal?"},
			{Name: "active", Type: "boolean"},
		},
	}
}

// buildPipeline is a minimal working pipeline over a local file.
func buildPipeline(kind, dsn, table, path string) config.Pipeline {
	return config.Pipeline{
		Job:    "people-test",
		Source: config.Source{Kind: "file", File: config.SourceFile{Path: path}},
		Parser: config.Parser{Kind: "csv", Options: config.Options{"skip_headers": 1}},
		Schema: peopleContract(),
		Storage: config.Storage{
			Kind: kind,
			DB:   config.DBConfig{DSN: dsn, Table: table},
		},
		Runtime: config.RuntimeConfig{BatchSize: 2},
	}
}

// End-to-end: CSV file → typed records → SQLite table created from the
// contract.
func TestRunStreamed_E2E_SQLite_AutoCreate(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "people.sqlite")
	dsn := "file:" + url.PathEscape(dbPath) + "?mode=rwc"

	in := writeLines(t, "people.csv",
		"id,Full Name,balance,active",
		"1,Ann,10.50,true",
		"2,Bob,,false",
		"3,Cyd,-0.25,TRUE",
	)
	p := buildPipeline("sqlite", dsn, "people", in)
	p.Storage.DB.AutoCreateTable = true

	s, err := runStreamed(context.Background(), p)
	if err != nil {
		t.Fatalf("runStreamed: %v", err)
	}
	want := summary{Read: 3, Inserted: 3, Batches: 2}
	if s != want {
		t.Fatalf("summary = %+v, want %+v", s, want)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("sql open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT id, full_name, balance, active FROM people ORDER BY id`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	type person struct {
		id      int64
		name    string
		balance sql.NullString
		active  bool
	}
	var got []person
	for rows.Next() {
		var r person
		if err := rows.Scan(&r.id, &r.name, &r.balance, &r.active); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, r)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	wantRows := []person{
		{1, "Ann", sql.NullString{String: "10.5", Valid: true}, true},
		{2, "Bob", sql.NullString{}, false},
		{3, "Cyd", sql.NullString{String: "-0.25", Valid: true}, true},
	}
	if !reflect.DeepEqual(got, wantRows) {
		t.Fatalf("rows = %+v, want %+v", got, wantRows)
	}
}

// Dedup and skip_invalid together: duplicates and bad rows never reach the
// sink and are counted separately.
func TestRunStreamed_Stdout_DedupAndSkipInvalid(t *testing.T) {
	var out bytes.Buffer
	prev := sinkOut
	sinkOut = &out
	t.Cleanup(func() { sinkOut = prev })

	in := writeLines(t, "people.csv",
		"id,Full Name,balance,active",
		"1,Ann,,true",
		"2,Bob,1.5,false",
		"1,Ann again,,true",
		"x,Bad,,true",
		"3,,,true",
		"4,Dee,2,false",
	)
	p := buildPipeline("stdout", "", "people", in)
	p.Storage.DB.KeyColumns = []string{"id"}
	p.Runtime.Dedup = true
	p.Runtime.SkipInvalid = true

	s, err := runStreamed(context.Background(), p)
	if err != nil {
		t.Fatalf("runStreamed: %v", err)
	}
	want := summary{Read: 4, Invalid: 2, Duplicates: 1, Inserted: 3, Batches: 2}
	if s != want {
		t.Fatalf("summary = %+v, want %+v", s, want)
	}
	if s.Read != s.Duplicates+s.Inserted {
		t.Fatalf("read=%d != duplicates+inserted=%d", s.Read, s.Duplicates+s.Inserted)
	}

	wantOut := `{"id":1,"full_name":"Ann","balance":null,"active":true}
{"id":2,"full_name":"Bob","balance":"1.5","active":false}
{"id":4,"full_name":"Dee","balance":"2","active":false}
`
	if out.String() != wantOut {
		t.Fatalf("output:\n%s\nwant:\n%s", out.String(), wantOut)
	}
}

// Without skip_invalid the first bad row aborts the run with a typed error.
func TestRunStreamed_AbortsOnInvalidRow(t *testing.T) {
	prev := sinkOut
	sinkOut = &bytes.Buffer{}
	t.Cleanup(func() { sinkOut = prev })

	in := writeLines(t, "people.csv",
		"id,Full Name,balance,active",
		"1,Ann,,true",
		"oops,Bob,,false",
		"3,Cyd,,true",
	)
	p := buildPipeline("stdout", "", "people", in)

	_, err := runStreamed(context.Background(), p)
	if err == nil {
		t.Fatal("expected error")
	}
	if k := csv.KindOf(err); k != csv.KindFieldConversion {
		t.Fatalf("kind = %q, want %q (err=%v)", k, csv.KindFieldConversion, err)
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("error %q does not name line 3", err)
	}
}

// captureRepo records every copied row. Rows are copied because the loader
// recycles them after each flush.
type captureRepo struct {
	mu      sync.Mutex
	rows    [][]any
	execs   []string
	copyErr error
	closed  bool
}

func (r *captureRepo) CopyFrom(_ context.Context, _ []string, rows [][]any) (int64, error) {
	if r.copyErr != nil {
		return 0, r.copyErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		r.rows = append(r.rows, append([]any(nil), row...))
	}
	return int64(len(rows)), nil
}

func (r *captureRepo) Exec(_ context.Context, sql string) error {
	r.execs = append(r.execs, sql)
	return nil
}

func (r *captureRepo) Close() { r.closed = true }

func useRepo(t *testing.T, repo storage.Repository, err error) *storage.Config {
	t.Helper()
	var seen storage.Config
	prev := newRepositoryFn
	newRepositoryFn = func(_ context.Context, cfg storage.Config) (storage.Repository, error) {
		seen = cfg
		return repo, err
	}
	t.Cleanup(func() { newRepositoryFn = prev })
	return &seen
}

func TestRunStreamed_RepoInitError(t *testing.T) {
	useRepo(t, nil, errors.New("boom"))

	in := writeLines(t, "people.csv", "id,Full Name,balance,active", "1,Ann,,true")
	_, err := runStreamed(context.Background(), buildPipeline("fake", "", "people", in))
	if err == nil || !strings.Contains(err.Error(), "init repo: boom") {
		t.Fatalf("err = %v, want init repo: boom", err)
	}
}

func TestRunStreamed_CopyErrorNamesLines(t *testing.T) {
	repo := &captureRepo{copyErr: errors.New("disk full")}
	useRepo(t, repo, nil)

	in := writeLines(t, "people.csv",
		"id,Full Name,balance,active",
		"1,Ann,,true",
		"2,Bob,,true",
	)
	_, err := runStreamed(context.Background(), buildPipeline("fake", "", "people", in))
	if err == nil || !strings.Contains(err.Error(), "copy lines 2-3: disk full") {
		t.Fatalf("err = %v, want copy lines 2-3: disk full", err)
	}
	if !repo.closed {
		t.Fatal("repository was not closed")
	}
}

func TestRunStreamed_ConfiguredColumnsAndDDL(t *testing.T) {
	repo := &captureRepo{}
	seen := useRepo(t, repo, nil)

	in := writeLines(t, "people.csv", "id,Full Name,balance,active", "7,Gil,0.1,false")
	p := buildPipeline("sqlite", "", "people", in)
	p.Storage.DB.Columns = []string{"pid", "name", "bal", "is_active"}
	p.Storage.DB.AutoCreateTable = true

	if _, err := runStreamed(context.Background(), p); err != nil {
		t.Fatalf("runStreamed: %v", err)
	}
	if !reflect.DeepEqual(seen.Columns, p.Storage.DB.Columns) {
		t.Fatalf("columns = %v, want %v", seen.Columns, p.Storage.DB.Columns)
	}
	if len(repo.execs) != 1 || !strings.Contains(repo.execs[0], `CREATE TABLE IF NOT EXISTS "people"`) ||
		!strings.Contains(repo.execs[0], `"bal" TEXT`) {
		t.Fatalf("execs = %q", repo.execs)
	}
	if len(repo.rows) != 1 || repo.rows[0][0] != int64(7) || repo.rows[0][1] != "Gil" {
		t.Fatalf("rows = %v", repo.rows)
	}
}

func TestRunStreamed_SourceError(t *testing.T) {
	repo := &captureRepo{}
	useRepo(t, repo, nil)

	p := buildPipeline("fake", "", "people", filepath.Join(t.TempDir(), "missing.csv"))
	_, err := runStreamed(context.Background(), p)
	if err == nil || !strings.Contains(err.Error(), "source open:") {
		t.Fatalf("err = %v, want source open error", err)
	}
	if !repo.closed {
		t.Fatal("repository was not closed")
	}
}

func TestRunStreamed_Canceled(t *testing.T) {
	useRepo(t, &captureRepo{}, nil)

	in := writeLines(t, "people.csv", "id,Full Name,balance,active", "1,Ann,,true")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := runStreamed(ctx, buildPipeline("fake", "", "people", in)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

// -inputs: each listed file replaces the configured source in turn.
func TestRunAll_Inputs(t *testing.T) {
	repo := &captureRepo{}
	useRepo(t, repo, nil)

	a := writeLines(t, "a.csv", "id,Full Name,balance,active", "1,Ann,,true")
	b := writeLines(t, "b.csv", "id,Full Name,balance,active", "2,Bob,,false", "3,Cyd,,true")
	p := buildPipeline("fake", "", "people", "/nonexistent/configured.csv")

	if err := runAll(context.Background(), p, []string{a, b}); err != nil {
		t.Fatalf("runAll: %v", err)
	}
	var ids []int64
	for _, r := range repo.rows {
		ids = append(ids, r[0].(int64))
	}
	if !reflect.DeepEqual(ids, []int64{1, 2, 3}) {
		t.Fatalf("ids = %v, want [1 2 3]", ids)
	}

	err := runAll(context.Background(), p, []string{a, "/nonexistent/x.csv"})
	if err == nil || !strings.HasPrefix(err.Error(), "/nonexistent/x.csv: ") {
		t.Fatalf("err = %v, want failing path prefix", err)
	}
}

func TestNewPlan(t *testing.T) {
	t.Parallel()

	p := buildPipeline("stdout", "", "people", "x.csv")
	p.Runtime = config.RuntimeConfig{}

	pl, err := newPlan(p)
	if err != nil {
		t.Fatalf("newPlan: %v", err)
	}
	if pl.job != "people-test" || pl.batchSize != defaultBatchSize || pl.buffer != defaultChannelBuffer {
		t.Fatalf("plan = job %q batch %d buffer %d", pl.job, pl.batchSize, pl.buffer)
	}
	if want := []string{"id", "full_name", "balance", "active"}; !reflect.DeepEqual(pl.columns, want) {
		t.Fatalf("columns = %v, want %v", pl.columns, want)
	}
	if pl.opts.SkipHeaders != 1 || pl.keys != nil {
		t.Fatalf("opts = %+v keys = %v", pl.opts, pl.keys)
	}

	p.Runtime.Dedup = true
	p.Storage.DB.KeyColumns = []string{"full_name", "id"}
	if pl, err = newPlan(p); err != nil {
		t.Fatalf("newPlan dedup: %v", err)
	}
	if want := []string{"Full Name", "id"}; !reflect.DeepEqual(pl.keys, want) {
		t.Fatalf("keys = %v, want %v", pl.keys, want)
	}

	bad := p
	bad.Schema = schema.Contract{}
	if _, err := newPlan(bad); err == nil || !strings.HasPrefix(err.Error(), "schema: ") {
		t.Fatalf("err = %v, want schema error", err)
	}
}

func TestResolveKeys(t *testing.T) {
	t.Parallel()

	fields := []string{"Vehicle ID", "owner"}
	aliases := [][]string{{"vin", "owner"}, {"vehicle_id", "owner"}}

	cases := []struct {
		name    string
		keys    []string
		want    []string
		wantErr string
	}{
		{"field names", []string{"owner", "Vehicle ID"}, []string{"owner", "Vehicle ID"}, ""},
		{"override", []string{"vin"}, []string{"Vehicle ID"}, ""},
		{"normalized", []string{"vehicle_id"}, []string{"Vehicle ID"}, ""},
		{"unknown", []string{"nope"}, nil, `dedup: unknown key column "nope"`},
		{"none", nil, nil, "dedup: no key columns"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := resolveKeys(fields, aliases, c.keys)
			if c.wantErr != "" {
				if err == nil || err.Error() != c.wantErr {
					t.Fatalf("err = %v, want %q", err, c.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, c.want) {
				t.Fatalf("got %v, want %v", got, c.want)
			}
		})
	}
}

func TestOpenSource_FileAndUnsupported(t *testing.T) {
	t.Parallel()

	in := writeLines(t, "a.csv", "1,Ann,,true")
	src, err := openSource(context.Background(), buildPipeline("stdout", "", "t", in))
	if err != nil {
		t.Fatalf("openSource(file): %v", err)
	}
	line, err := src.ReadLine()
	if err != nil || line != "1,Ann,,true" {
		t.Fatalf("ReadLine = %q, %v", line, err)
	}
	_ = src.Close()

	p := buildPipeline("stdout", "", "t", in)
	p.Source.Kind = "ftp"
	if src, err := openSource(context.Background(), p); err == nil || src != nil {
		t.Fatalf("openSource(ftp) = %v, %v; want nil source and error", src, err)
	}
}

func TestPickInt(t *testing.T) {
	t.Parallel()

	if v := pickInt(5, 9); v != 5 {
		t.Fatalf("pickInt(5,9) = %d, want 5", v)
	}
	if v := pickInt(0, 9); v != 9 {
		t.Fatalf("pickInt(0,9) = %d, want 9", v)
	}
	if v := pickInt(-1, 9); v != 9 {
		t.Fatalf("pickInt(-1,9) = %d, want 9", v)
	}
}

func TestErrAgg_LimitsAndBuckets(t *testing.T) {
	t.Parallel()

	a := newErrAgg(3)
	msgs := []string{"A", "B", "A", "C", "A", "D"}
	for _, m := range msgs {
		a.add(m, "msg "+m)
	}
	if a.count != len(msgs) {
		t.Fatalf("count=%d want %d", a.count, len(msgs))
	}
	if want := []string{"msg A", "msg B", "msg A"}; !reflect.DeepEqual(a.first, want) {
		t.Fatalf("first=%v want %v", a.first, want)
	}
	if a.buckets["A"] != 3 || a.buckets["B"] != 1 || a.buckets["C"] != 1 || a.buckets["D"] != 1 {
		t.Fatalf("buckets=%v", a.buckets)
	}
	a.log("test")
}

func TestErrAgg_ConcurrentAdds(t *testing.T) {
	t.Parallel()

	a := newErrAgg(2)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				a.add("k", "msg")
			}
		}()
	}
	wg.Wait()
	if a.count != 16*100 || a.buckets["k"] != 16*100 || len(a.first) != 2 {
		t.Fatalf("count=%d bucket=%d first=%d", a.count, a.buckets["k"], len(a.first))
	}
}
