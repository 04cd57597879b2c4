// Package stdout is a dry-run storage backend that writes each row as one
// JSON object per line. Keys follow the column order. NaN and infinite
// floats are written as strings ("NaN", "+Inf", "-Inf"), like decimals.
package stdout

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"csvrecord/internal/ddl"
	"csvrecord/internal/schema"
	"csvrecord/internal/storage"
)

// Repository writes rows to an io.Writer.
type Repository struct {
	w   *bufio.Writer
	buf []byte
}

// New returns a Repository writing to w (os.Stdout when nil).
func New(w io.Writer) *Repository {
	if w == nil {
		w = os.Stdout
	}
	return &Repository{w: bufio.NewWriterSize(w, 64<<10)}
}

// CopyFrom writes one JSON line per row and flushes once per batch.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	keys := make([][]byte, len(columns))
	for i, c := range columns {
		k, err := json.Marshal(c)
		if err != nil {
			return 0, err
		}
		keys[i] = k
	}

	var n int64
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if len(row) != len(columns) {
			return n, fmt.Errorf("stdout: row %d has %d values for %d columns", i, len(row), len(columns))
		}
		b := append(r.buf[:0], '{')
		for j, v := range row {
			if j > 0 {
				b = append(b, ',')
			}
			b = append(b, keys[j]...)
			b = append(b, ':')
			val, err := marshalValue(v)
			if err != nil {
				return n, fmt.Errorf("stdout: row %d column %s: %w", i, columns[j], err)
			}
			b = append(b, val...)
		}
		b = append(b, '}', '\n')
		r.buf = b
		if _, err := r.w.Write(b); err != nil {
			return n, err
		}
		n++
	}
	return n, r.w.Flush()
}

func marshalValue(v any) ([]byte, error) {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return json.Marshal(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return json.Marshal(v)
}

// Exec logs the statement instead of running it.
func (r *Repository) Exec(_ context.Context, sql string) error {
	log.Printf("stdout: skip exec: %s", strings.Join(strings.Fields(sql), " "))
	return nil
}

// Close flushes pending output.
func (r *Repository) Close() { _ = r.w.Flush() }

// MapType maps contract types to portable SQL type names for the logged DDL.
func MapType(t schema.TypeTag) string {
	switch t {
	case schema.Int:
		return "BIGINT"
	case schema.Float:
		return "DOUBLE PRECISION"
	case schema.Decimal:
		return "DECIMAL"
	case schema.Boolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func init() {
	storage.Register("stdout", func(_ context.Context, cfg storage.Config) (storage.Repository, error) {
		return New(cfg.Out), nil
	})
	storage.RegisterDDL("stdout", storage.DDL{
		MapType: MapType,
		CreateTableSQL: func(t ddl.TableDef) (string, error) {
			return ddl.BuildCreateTableSQL(t, ddl.Dialect{IfNotExists: true})
		},
	})
}
