// Package csv maps delimited text lines to typed records.
//
// Lines come from a linesource.Source, are split with Tokenize, and are
// converted by MapRow against a schema.Descriptor. ReadAll collects every
// record of a stream; Iterator yields them one at a time.
//
// There is no quoting or escaping: every occurrence of the field separator
// splits a field. Header lines are never detected, only skipped by count.
package csv

import (
	"csvrecord/internal/config"
	"csvrecord/internal/linesource"
)

// DefaultFieldSeparator is used when Options.FieldSeparator is empty.
const DefaultFieldSeparator = ","

// Options configures one read or iteration session.
type Options struct {
	// FieldSeparator splits a line into fields; may be longer than one
	// character. Empty means ",".
	FieldSeparator string
	// RowSeparator ends a record instead of a newline when non-empty.
	RowSeparator string
	// SkipHeaders is the number of leading lines discarded unmapped.
	SkipHeaders int
	// Encoding is the input character set label; empty means UTF-8.
	Encoding string
	// MaxLineBytes bounds one record; 0 uses linesource.DefaultMaxLineBytes.
	MaxLineBytes int
}

func (o Options) sep() string {
	if o.FieldSeparator == "" {
		return DefaultFieldSeparator
	}
	return o.FieldSeparator
}

func (o Options) lineOptions() linesource.Options {
	return linesource.Options{
		RowSeparator: o.RowSeparator,
		Encoding:     o.Encoding,
		MaxLineBytes: o.MaxLineBytes,
	}
}

// OptionsFrom reads parser options from a pipeline options bag:
//
//	field_separator (string, default ","), row_separator (string),
//	skip_headers (int), encoding (string), max_line_bytes (int)
func OptionsFrom(o config.Options) Options {
	return Options{
		FieldSeparator: o.String("field_separator", DefaultFieldSeparator),
		RowSeparator:   o.String("row_separator", ""),
		SkipHeaders:    o.Int("skip_headers", 0),
		Encoding:       o.String("encoding", ""),
		MaxLineBytes:   o.Int("max_line_bytes", 0),
	}
}
