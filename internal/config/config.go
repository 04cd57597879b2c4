// Package config defines the JSON pipeline file read by csvload.
//
// A pipeline names one delimited input file, the parser options used to split
// it, the schema contract each line is mapped against, and the storage sink
// that receives the records:
//
//	{
//	  "job":     "people_daily",
//	  "source":  { "kind": "file", "file": { "path": "testdata/people.csv" } },
//	  "parser":  { "kind": "csv", "options": { "field_separator": ";", "skip_headers": 1 } },
//	  "schema":  { "name": "people", "fields": [ { "name": "id", "type": "int" } ] },
//	  "storage": { "kind": "postgres", "db": { "dsn": "...", "table": "public.people" } },
//	  "runtime": { "batch_size": 5000, "channel_buffer": 1000 }
//	}
//
// Decoding uses encoding/json only; Options gives typed access to the free-form
// parser options bag.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"csvrecord/internal/schema"
)

// Pipeline is the top-level object of a pipeline file.
type Pipeline struct {
	// Job labels metrics and log lines for this run.
	Job string `json:"job"`

	Source  Source          `json:"source"`
	Parser  Parser          `json:"parser"`
	Schema  schema.Contract `json:"schema"`
	Storage Storage         `json:"storage"`
	Runtime RuntimeConfig   `json:"runtime"`
}

// RuntimeConfig controls batching, buffering and error tolerance.
type RuntimeConfig struct {
	BatchSize     int `json:"batch_size"`
	ChannelBuffer int `json:"channel_buffer"`

	// Dedup drops records whose storage.db.key_columns tuple was already seen.
	Dedup bool `json:"dedup"`

	// SkipInvalid logs and skips rows that fail mapping instead of aborting.
	SkipInvalid bool `json:"skip_invalid"`
}

// Source identifies where input lines come from: "file" or "http".
type Source struct {
	Kind string     `json:"kind"`
	File SourceFile `json:"file"`
	HTTP SourceHTTP `json:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL                string            `json:"url"`
	Headers            map[string]string `json:"headers"`
	MaxRetries         int               `json:"max_retries"`
	TimeoutSeconds     int               `json:"timeout_seconds"`
	InsecureSkipVerify bool              `json:"insecure_skip_verify"`
}

// Parser selects the line parser. Kind is "csv"; Options keys are
// field_separator, row_separator, skip_headers, encoding and max_line_bytes.
type Parser struct {
	Kind    string  `json:"kind"`
	Options Options `json:"options"`
}

// Storage selects the sink: postgres, mssql, sqlite, mysql or stdout.
type Storage struct {
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures a database sink.
type DBConfig struct {
	// DSN is the driver connection string. Unused by stdout.
	DSN string `json:"dsn"`

	// Table may be schema-qualified (e.g. "public.people").
	Table string `json:"table"`

	// Columns lists destination columns in schema field order. When empty the
	// column names are derived from the schema contract.
	Columns []string `json:"columns"`

	// KeyColumns identify a record for dedup. Not necessarily a primary key.
	KeyColumns []string `json:"key_columns"`

	// AutoCreateTable creates Table from the schema contract before loading.
	AutoCreateTable bool `json:"auto_create_table"`
}

// Load reads and decodes the pipeline file at path. It does not validate;
// see ValidatePipeline.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var p Pipeline
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p, nil
}

// Options fetches typed values from a free-form JSON object. Missing keys and
// values of the wrong type yield the supplied default.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. encoding/json decodes numbers as
// float64, which is truncated.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Has reports whether key is present, whatever its value.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// UnmarshalJSON decodes a missing or null object to an empty, non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	if tmp == nil {
		tmp = map[string]any{}
	}
	*o = Options(tmp)
	return nil
}
