package config

import (
	"fmt"
	"net/url"
	"strings"

	"csvrecord/internal/linesource"
	"csvrecord/internal/schema"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is a dotted path into the
// config (e.g. "storage.db.table", "schema.fields[2].type").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static checks over p without mutating it.
// Callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels metrics and log lines",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateSchema(p)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateRuntime(p)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	switch strings.TrimSpace(s.Kind) {
	case "":
		issues = append(issues, Issue{SeverityError, "source.kind", "source.kind must not be empty"})
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{SeverityError, "source.file.path", "file source requires a non-empty path"})
		}
	case "http":
		u, err := url.Parse(strings.TrimSpace(s.HTTP.URL))
		switch {
		case err != nil:
			issues = append(issues, Issue{SeverityError, "source.http.url", err.Error()})
		case u.Scheme != "http" && u.Scheme != "https":
			issues = append(issues, Issue{SeverityError, "source.http.url", "http source requires an http(s) url"})
		}
		if s.HTTP.MaxRetries < 0 {
			issues = append(issues, Issue{SeverityError, "source.http.max_retries", "max_retries must not be negative"})
		}
		if s.HTTP.InsecureSkipVerify {
			issues = append(issues, Issue{SeverityWarning, "source.http.insecure_skip_verify", "TLS verification is disabled"})
		}
	default:
		issues = append(issues, Issue{SeverityError, "source.kind", fmt.Sprintf("unknown source kind %q", s.Kind)})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	switch strings.TrimSpace(p.Kind) {
	case "":
		return append(issues, Issue{SeverityError, "parser.kind", "parser.kind must not be empty"})
	case "csv":
	default:
		return append(issues, Issue{SeverityError, "parser.kind", fmt.Sprintf("unknown parser kind %q", p.Kind)})
	}

	o := p.Options
	if o.Has("field_separator") && o.String("field_separator", "") == "" {
		issues = append(issues, Issue{SeverityError, "parser.options.field_separator", "field_separator must be a non-empty string"})
	}
	if n := o.Int("skip_headers", 0); n < 0 {
		issues = append(issues, Issue{SeverityError, "parser.options.skip_headers", fmt.Sprintf("skip_headers=%d must not be negative", n)})
	}
	if n := o.Int("max_line_bytes", 0); n < 0 {
		issues = append(issues, Issue{SeverityError, "parser.options.max_line_bytes", fmt.Sprintf("max_line_bytes=%d must not be negative", n)})
	}
	if enc := o.String("encoding", ""); enc != "" {
		if err := linesource.CheckEncoding(enc); err != nil {
			issues = append(issues, Issue{SeverityError, "parser.options.encoding", err.Error()})
		}
	}
	fs, rs := o.String("field_separator", ","), o.String("row_separator", "")
	if rs != "" && strings.Contains(rs, fs) {
		issues = append(issues, Issue{SeverityWarning, "parser.options.row_separator",
			fmt.Sprintf("row_separator %q contains field_separator %q", rs, fs)})
	}
	return issues
}

func validateSchema(p Pipeline) []Issue {
	var issues []Issue

	c := p.Schema
	if len(c.Fields) == 0 {
		return append(issues, Issue{SeverityError, "schema.fields", "schema must declare at least one field"})
	}
	if _, err := c.Descriptor(); err != nil {
		issues = append(issues, Issue{SeverityError, "schema", err.Error()})
	}
	for i, f := range c.Fields {
		path := fmt.Sprintf("schema.fields[%d].type", i)
		fd := f.Field()
		t, ok := fd.Effective()
		switch {
		case !ok:
			issues = append(issues, Issue{SeverityWarning, path,
				fmt.Sprintf("union %s is not shaped [T, null]; every row will fail on this field", fd.TypeName())})
		case t == schema.Unsupported:
			issues = append(issues, Issue{SeverityWarning, path,
				fmt.Sprintf("unsupported field type %q; rows with a value here will fail", f.Type)})
		}
	}
	if cols := p.Storage.DB.Columns; len(cols) > 0 && len(cols) != len(c.Fields) {
		issues = append(issues, Issue{SeverityError, "storage.db.columns",
			fmt.Sprintf("%d columns configured for %d schema fields", len(cols), len(c.Fields))})
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	switch strings.TrimSpace(s.Kind) {
	case "":
		return append(issues, Issue{SeverityError, "storage.kind", "storage.kind must not be empty"})
	case "stdout":
		return issues
	case "postgres", "mssql", "sqlite", "mysql":
	default:
		issues = append(issues, Issue{SeverityWarning, "storage.kind",
			fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind)})
	}

	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{SeverityError, "storage.db.dsn", "storage.db.dsn must not be empty"})
	}
	if strings.TrimSpace(s.DB.Table) == "" {
		issues = append(issues, Issue{SeverityError, "storage.db.table", "storage.db.table must not be empty"})
	}
	return issues
}

func validateRuntime(p Pipeline) []Issue {
	var issues []Issue

	r := p.Runtime
	if r.BatchSize <= 0 {
		issues = append(issues, Issue{SeverityWarning, "runtime.batch_size",
			fmt.Sprintf("batch_size=%d; a default will be used", r.BatchSize)})
	}
	if r.ChannelBuffer < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.channel_buffer", "channel_buffer must not be negative"})
	}
	if r.Dedup && len(p.Storage.DB.KeyColumns) == 0 {
		issues = append(issues, Issue{SeverityError, "runtime.dedup", "dedup requires storage.db.key_columns"})
	}
	if r.Dedup {
		known := map[string]bool{}
		for _, c := range p.Storage.DB.Columns {
			known[c] = true
		}
		for _, f := range p.Schema.Fields {
			known[f.Name] = true
			if f.Column != "" {
				known[f.Column] = true
			}
		}
		for i, k := range p.Storage.DB.KeyColumns {
			if !known[k] {
				issues = append(issues, Issue{SeverityError, fmt.Sprintf("storage.db.key_columns[%d]", i),
					fmt.Sprintf("key column %q is not a schema field or storage column", k)})
			}
		}
	}
	return issues
}
