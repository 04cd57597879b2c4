// Package probe samples the head of a delimited input and drafts a schema
// contract and a starter pipeline for it.
//
// Inference is conservative: a column gets a narrower type only when every
// non-empty sampled value satisfies it, and any empty value makes it
// nullable. The result is meant to be reviewed, not trusted blindly.
package probe

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"csvrecord/internal/config"
	"csvrecord/internal/datasource"
	"csvrecord/internal/ddl"
	"csvrecord/internal/linesource"
	"csvrecord/internal/parser/csv"
	"csvrecord/internal/schema"
)

// DefaultMaxLines bounds the sample when Options.MaxLines is zero.
const DefaultMaxLines = 1000

// Options control sampling and the drafted pipeline.
type Options struct {
	// Name labels the contract and the pipeline job.
	Name string
	// Table and StorageKind seed the storage section of the draft.
	Table       string
	StorageKind string
	DSN         string

	// MaxLines is the number of data lines sampled after the header.
	MaxLines int
	// NoHeader treats the first line as data and names columns col_1..col_n.
	NoHeader bool

	// FieldSeparator, RowSeparator and Encoding are passed to the line
	// source and tokenizer as in a real run.
	FieldSeparator string
	RowSeparator   string
	Encoding       string
}

func (o Options) csvOptions() csv.Options {
	return csv.Options{
		FieldSeparator: o.FieldSeparator,
		RowSeparator:   o.RowSeparator,
		Encoding:       o.Encoding,
	}
}

// Result is what a probe saw and inferred.
type Result struct {
	Headers []string
	// Rows is the number of sampled data rows used for inference.
	Rows int
	// Skipped counts empty or misaligned lines left out of the sample.
	Skipped  int
	Contract schema.Contract
}

// Probe opens ds, samples it and infers a contract.
func Probe(ctx context.Context, ds datasource.Source, opt Options) (Result, error) {
	src, err := csv.OpenSource(ctx, ds, opt.csvOptions())
	if err != nil {
		return Result{}, err
	}
	defer src.Close()

	headers, rows, skipped, err := Sample(src, opt)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Headers:  headers,
		Rows:     len(rows),
		Skipped:  skipped,
		Contract: Infer(opt.Name, headers, rows),
	}, nil
}

// Sample reads the header (unless opt.NoHeader) and up to opt.MaxLines data
// lines. Empty lines and lines whose width differs from the header are
// skipped and counted so inference only sees aligned rows.
func Sample(src linesource.Source, opt Options) (headers []string, rows [][]string, skipped int, err error) {
	limit := opt.MaxLines
	if limit <= 0 {
		limit = DefaultMaxLines
	}
	sep := opt.FieldSeparator
	if sep == "" {
		sep = csv.DefaultFieldSeparator
	}

	for len(rows) < limit {
		line, err := src.ReadLine()
		if errors.Is(err, linesource.ErrEndOfStream) {
			break
		}
		if err != nil {
			return nil, nil, 0, fmt.Errorf("sample: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			skipped++
			continue
		}
		fields := csv.Tokenize(line, sep)
		if headers == nil {
			if !opt.NoHeader {
				headers = uniqueHeaders(fields)
				continue
			}
			headers = make([]string, len(fields))
			for i := range headers {
				headers[i] = fmt.Sprintf("col_%d", i+1)
			}
		}
		if len(fields) != len(headers) {
			skipped++
			continue
		}
		rows = append(rows, fields)
	}
	if headers == nil {
		return nil, nil, skipped, fmt.Errorf("sample: no header line")
	}
	return headers, rows, skipped, nil
}

// uniqueHeaders trims header text and renames blanks and any header whose
// storage column would collide with an earlier one.
func uniqueHeaders(fields []string) []string {
	out := make([]string, len(fields))
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		base := strings.TrimSpace(f)
		if base == "" {
			base = fmt.Sprintf("col_%d", i+1)
		}
		name := base
		for n := 2; seen[ddl.NormalizeIdent(name)]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		seen[ddl.NormalizeIdent(name)] = true
		out[i] = name
	}
	return out
}

// Infer drafts a contract with one field per header.
func Infer(name string, headers []string, rows [][]string) schema.Contract {
	c := schema.Contract{Name: name, Fields: make([]schema.ContractField, len(headers))}
	for i, h := range headers {
		col := make([]string, 0, len(rows))
		for _, r := range rows {
			if i < len(r) {
				col = append(col, r[i])
			}
		}
		c.Fields[i] = schema.ContractField{Name: h, Type: InferType(col)}
	}
	return c
}

// InferType returns the contract type for a column of sampled values:
// int, boolean, decimal, float or string, with a "?" suffix when any value
// is empty. Only literally empty text counts as empty: a blank cell such as
// " " is a value and makes the column string. A column with no values at all
// is "string?".
func InferType(values []string) string {
	nonEmpty := nonEmptyTrimmed(values)
	if len(nonEmpty) == 0 {
		return "string?"
	}
	typ := "string"
	switch {
	case allMatch(nonEmpty, isInt):
		typ = "int"
	case allMatch(nonEmpty, isBool):
		typ = "boolean"
	case allMatch(nonEmpty, isDecimal):
		typ = "decimal"
	case allMatch(nonEmpty, isFloat):
		typ = "float"
	}
	if len(nonEmpty) < len(values) {
		typ += "?"
	}
	return typ
}

// Pipeline wraps a probe result into a starter pipeline reading from src.
func Pipeline(src config.Source, opt Options, res Result) config.Pipeline {
	popts := config.Options{}
	if opt.FieldSeparator != "" {
		popts["field_separator"] = opt.FieldSeparator
	}
	if opt.RowSeparator != "" {
		popts["row_separator"] = opt.RowSeparator
	}
	if opt.Encoding != "" {
		popts["encoding"] = opt.Encoding
	}
	if !opt.NoHeader {
		popts["skip_headers"] = 1
	}

	kind := opt.StorageKind
	if kind == "" {
		kind = "stdout"
	}
	table := opt.Table
	if table == "" {
		table = ddl.NormalizeIdent(opt.Name)
	}

	return config.Pipeline{
		Job:    opt.Name,
		Source: src,
		Parser: config.Parser{Kind: "csv", Options: popts},
		Schema: res.Contract,
		Storage: config.Storage{
			Kind: kind,
			DB: config.DBConfig{
				DSN:             opt.DSN,
				Table:           table,
				AutoCreateTable: true,
			},
		},
		Runtime: config.RuntimeConfig{
			BatchSize:     5000,
			ChannelBuffer: 1000,
			SkipInvalid:   true,
		},
	}
}

func nonEmptyTrimmed(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v != "" {
			out = append(out, strings.TrimSpace(v))
		}
	}
	return out
}

func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

// isBool accepts only what the mapper reads as a boolean literal.
func isBool(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// isDecimal accepts plain fixed-point text; exponents are left to float.
func isDecimal(s string) bool {
	if strings.ContainsAny(s, "eE") {
		return false
	}
	_, err := decimal.NewFromString(s)
	return err == nil
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
