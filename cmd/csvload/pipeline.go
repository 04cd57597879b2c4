package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"csvrecord/internal/config"
	"csvrecord/internal/datasource"
	"csvrecord/internal/ddl"
	"csvrecord/internal/linesource"
	"csvrecord/internal/metrics"
	"csvrecord/internal/parser/csv"
	"csvrecord/internal/schema"
	"csvrecord/internal/storage"
	"csvrecord/internal/transformer"
)

const (
	defaultBatchSize     = 10000
	defaultChannelBuffer = 4096
	progressEvery        = 100000
	firstErrors          = 3
)

// Test seams.
var (
	newRepositoryFn = storage.New
	openSourceFn    = openSource
	// sinkOut is where text sinks (stdout) write.
	sinkOut io.Writer = os.Stdout
)

// counters holds cross-goroutine statistics for one run.
type counters struct {
	read       atomic.Int64 // lines mapped to records
	invalid    atomic.Int64 // lines skipped after a row error
	duplicates atomic.Int64 // records dropped by dedup
	inserted   atomic.Int64 // rows reported written by the sink
	batches    atomic.Int64 // batches flushed
}

// summary is the end-of-run snapshot of counters.
type summary struct {
	Read, Invalid, Duplicates, Inserted, Batches int64
}

func (c *counters) snapshot() summary {
	return summary{
		Read:       c.read.Load(),
		Invalid:    c.invalid.Load(),
		Duplicates: c.duplicates.Load(),
		Inserted:   c.inserted.Load(),
		Batches:    c.batches.Load(),
	}
}

// plan is everything resolved from the pipeline before any goroutine starts.
type plan struct {
	job       string
	desc      schema.Descriptor
	opts      csv.Options
	columns   []string
	keys      []string // dedup keys as descriptor field names
	batchSize int
	buffer    int
	store     storage.Config
}

func newPlan(p config.Pipeline) (plan, error) {
	desc, err := p.Schema.Descriptor()
	if err != nil {
		return plan{}, fmt.Errorf("schema: %w", err)
	}
	columns, err := ddl.ColumnNames(p.Schema, p.Storage.DB.Columns)
	if err != nil {
		return plan{}, fmt.Errorf("columns: %w", err)
	}
	pl := plan{
		job:       metrics.DefaultJob(p.Job),
		desc:      desc,
		opts:      csv.OptionsFrom(p.Parser.Options),
		columns:   columns,
		batchSize: pickInt(p.Runtime.BatchSize, defaultBatchSize),
		buffer:    pickInt(p.Runtime.ChannelBuffer, defaultChannelBuffer),
		store: storage.Config{
			Kind:    p.Storage.Kind,
			DSN:     p.Storage.DB.DSN,
			Table:   p.Storage.DB.Table,
			Columns: columns,
			Out:     sinkOut,
		},
	}
	if p.Runtime.Dedup {
		pl.keys, err = resolveKeys(desc.Names(), [][]string{p.Schema.Columns(), columns}, p.Storage.DB.KeyColumns)
		if err != nil {
			return plan{}, err
		}
	}
	return pl, nil
}

// resolveKeys maps key columns to field names. A key may name a field
// directly or any of the parallel column lists in aliases.
func resolveKeys(fields []string, aliases [][]string, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("dedup: no key columns")
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		name, ok := "", false
		for j := range fields {
			if fields[j] == k {
				name, ok = fields[j], true
				break
			}
			for _, cols := range aliases {
				if j < len(cols) && cols[j] == k {
					name, ok = fields[j], true
					break
				}
			}
			if ok {
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("dedup: unknown key column %q", k)
		}
		out = append(out, name)
	}
	return out, nil
}

// openSource opens the configured data source as a decoded line source.
func openSource(ctx context.Context, p config.Pipeline) (linesource.Source, error) {
	ds, err := datasource.FromConfig(p.Source)
	if err != nil {
		return nil, err
	}
	src, err := csv.OpenSource(ctx, ds, csv.OptionsFrom(p.Parser.Options))
	if err != nil {
		return nil, err
	}
	return src, nil
}

// runStreamed loads one input end to end:
//
//	iterator → dedup → projection → LoadBatches → Repository.CopyFrom
//
// The reader and loader run under one errgroup; the first failure cancels
// the other. Row-scoped mapping errors are skipped and counted when
// runtime.skip_invalid is set; otherwise the first one aborts the run.
func runStreamed(ctx context.Context, p config.Pipeline) (summary, error) {
	pl, err := newPlan(p)
	if err != nil {
		return summary{}, err
	}
	log.Printf("stream runtime: batch=%d buffer=%d columns=%d dedup=%v skip_invalid=%v",
		pl.batchSize, pl.buffer, len(pl.columns), len(pl.keys) > 0, p.Runtime.SkipInvalid)

	repo, err := newRepositoryFn(ctx, pl.store)
	if err != nil {
		return summary{}, fmt.Errorf("init repo: %w", err)
	}
	defer repo.Close()

	if p.Storage.DB.AutoCreateTable {
		log.Printf("auto-create table enabled for %s", pl.store.Table)
		if err := storage.EnsureTable(ctx, pl.store, repo, p.Schema); err != nil {
			return summary{}, err
		}
	}

	src, err := openSourceFn(ctx, p)
	if err != nil {
		return summary{}, fmt.Errorf("source open: %w", err)
	}

	var (
		stats   counters
		rowErrs = newErrAgg(firstErrors)
		rows    = make(chan *transformer.Row, pl.buffer)
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		err := readRecords(gctx, src, pl, p.Runtime.SkipInvalid, rows, &stats, rowErrs)
		metrics.RecordStep(pl.job, "read", err, time.Since(start))
		return err
	})

	g.Go(func() error {
		start := time.Now()
		copyFn := func(ctx context.Context, columns []string, batch [][]any) (int64, error) {
			n, err := repo.CopyFrom(ctx, columns, batch)
			stats.inserted.Add(n)
			if err == nil {
				stats.batches.Add(1)
				metrics.RecordBatches(pl.job, 1)
			}
			return n, err
		}
		_, err := storage.LoadBatches(gctx, pl.columns, rows, pl.batchSize, copyFn)
		metrics.RecordStep(pl.job, "load", err, time.Since(start))
		return err
	})

	err = g.Wait()
	s := stats.snapshot()
	metrics.RecordRow(pl.job, metrics.KindRead, s.Read)
	metrics.RecordRow(pl.job, metrics.KindInvalid, s.Invalid)
	metrics.RecordRow(pl.job, metrics.KindDuplicate, s.Duplicates)
	metrics.RecordRow(pl.job, metrics.KindInserted, s.Inserted)

	rowErrs.log("row errors")
	logSummary(s)
	return s, err
}

// readRecords drives the iterator and sends projected rows to out, closing
// out and the source when done.
func readRecords(
	ctx context.Context,
	src linesource.Source,
	pl plan,
	skipInvalid bool,
	out chan<- *transformer.Row,
	stats *counters,
	rowErrs *errAgg,
) error {
	defer close(out)

	it := csv.NewIterator(src, pl.desc, pl.opts)
	defer it.Close()

	var chain transformer.Chain
	if len(pl.keys) > 0 {
		chain = append(chain, transformer.NewDedup(pl.keys))
	}
	proj := transformer.NewProjector(pl.desc.Names())

	for it.HasNext() {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := it.Next()
		if err != nil {
			if skipInvalid && csv.IsRowError(err) {
				stats.invalid.Add(1)
				rowErrs.add(string(csv.KindOf(err)), err.Error())
				continue
			}
			return err
		}
		if n := stats.read.Add(1); n%progressEvery == 0 {
			log.Printf("reader: read=%d invalid=%d duplicates=%d", n, stats.invalid.Load(), stats.duplicates.Load())
		}
		if rec, ok := chain.Apply(rec); ok {
			r := proj.Project(rec, it.Line())
			select {
			case out <- r:
			case <-ctx.Done():
				r.Free()
				return ctx.Err()
			}
		} else {
			stats.duplicates.Add(1)
		}
	}
	return nil
}

// logSummary prints final statistics. Every mapped record is either dropped
// as a duplicate or handed to the loader, so on success
//
//	read == duplicates + inserted
func logSummary(s summary) {
	log.Printf(
		"summary: read=%d invalid=%d duplicates=%d inserted=%d batches=%d",
		s.Read, s.Invalid, s.Duplicates, s.Inserted, s.Batches,
	)
}

// pickInt chooses a when positive, otherwise b.
func pickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

// errAgg counts messages per bucket and keeps the first few for the summary.
type errAgg struct {
	mu      sync.Mutex
	limit   int
	count   int
	first   []string
	buckets map[string]int
}

func newErrAgg(limit int) *errAgg {
	return &errAgg{limit: limit, buckets: make(map[string]int)}
}

func (a *errAgg) add(bucket, msg string) {
	a.mu.Lock()
	if a.count < a.limit {
		a.first = append(a.first, msg)
	}
	a.count++
	a.buckets[bucket]++
	a.mu.Unlock()
}

func (a *errAgg) log(what string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.count == 0 {
		return
	}
	log.Printf("%s: %d (showing first %d) by kind=%v", what, a.count, len(a.first), a.buckets)
	for i, s := range a.first {
		log.Printf("  #%03d: %s", i+1, s)
	}
}
