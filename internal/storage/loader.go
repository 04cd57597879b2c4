package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"csvrecord/internal/transformer"
)

// CopyFn abstracts a backend's bulk insert. It receives rows aligned to
// columns and returns the number of rows written. It must not retain rows
// after returning and should cancel promptly when ctx is done.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains pooled rows from in, groups them into batches of
// batchSize and calls copyFn for each non-empty batch. Every received row is
// freed once its batch has been flushed, or on early return. It returns the
// total reported by copyFn and the first error.
//
// A progress line is logged per successful flush with running totals and the
// rows/sec since the previous flush.
func LoadBatches(
	ctx context.Context,
	columns []string,
	in <-chan *transformer.Row,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total       int64
		batches     int64
		pending     = make([]*transformer.Row, 0, batchSize)
		batch       = make([][]any, 0, batchSize)
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	release := func() {
		for i, r := range pending {
			r.Free()
			pending[i] = nil
		}
		pending = pending[:0]
		clear(batch)
		batch = batch[:0]
	}
	defer release()

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		first, last := pending[0].Line, pending[len(pending)-1].Line
		release()

		if err != nil {
			if first > 0 {
				return fmt.Errorf("copy lines %d-%d: %w", first, last, err)
			}
			return err
		}

		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(total-lastTotal) / sinceLast.Seconds()
		}
		log.Printf(
			"batch #%d: rps=%.0f inserted=%d total_inserted=%d elapsed=%s since_last=%s",
			batches,
			rps,
			n,
			total,
			now.Sub(start).Truncate(time.Millisecond),
			sinceLast.Truncate(time.Millisecond),
		)
		lastFlushTS = now
		lastTotal = total
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				final := len(batch)
				if err := flush(); err != nil {
					log.Printf("loader: COPY failed total=%d err=%v", total, err)
					return total, err
				}
				log.Printf("loader: input closed, final_flush=%d total_inserted=%d", final, total)
				return total, nil
			}
			pending = append(pending, row)
			batch = append(batch, row.V)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					log.Printf("loader: COPY failed total=%d err=%v", total, err)
					return total, err
				}
			}
		}
	}
}
