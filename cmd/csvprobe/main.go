// Command csvprobe samples the head of a delimited file or URL and prints a
// starter csvload pipeline with an inferred schema contract.
//
//	csvprobe -file data/people.csv -name people > pipelines/people.json
//	csvprobe -url https://example.com/export.csv -delimiter ';' -encoding windows-1250
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"csvrecord/internal/config"
	"csvrecord/internal/datasource"
	"csvrecord/internal/probe"
)

var (
	flagURL       = flag.String("url", "", "URL of the file to sample")
	flagFile      = flag.String("file", "", "local path of the file to sample (wins over -url)")
	flagLines     = flag.Int("lines", probe.DefaultMaxLines, "number of data lines to sample")
	flagDelimiter = flag.String("delimiter", ",", "field separator; may be longer than one character")
	flagEncoding  = flag.String("encoding", "", "input encoding label, e.g. windows-1250 (default utf-8)")
	flagName      = flag.String("name", "data_set_name", "contract and job name")
	flagTable     = flag.String("table", "", "target table (default: normalized -name)")
	flagStorage   = flag.String("storage", "stdout", "storage kind: postgres, mssql, sqlite, mysql or stdout")
	flagDSN       = flag.String("dsn", "", "storage DSN")
	flagNoHeader  = flag.Bool("no-header", false, "treat the first line as data")
)

func main() {
	flag.Parse()

	src := config.Source{Kind: "http", HTTP: config.SourceHTTP{URL: *flagURL, MaxRetries: 2, TimeoutSeconds: 30}}
	if *flagFile != "" {
		src = config.Source{Kind: "file", File: config.SourceFile{Path: *flagFile}}
	} else if *flagURL == "" {
		fmt.Fprintln(os.Stderr, "csvprobe: one of -file or -url is required")
		os.Exit(2)
	}

	opt := probe.Options{
		Name:           *flagName,
		Table:          *flagTable,
		StorageKind:    *flagStorage,
		DSN:            *flagDSN,
		MaxLines:       *flagLines,
		NoHeader:       *flagNoHeader,
		FieldSeparator: *flagDelimiter,
		Encoding:       *flagEncoding,
	}
	if err := run(context.Background(), src, opt, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "csvprobe: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, src config.Source, opt probe.Options, w io.Writer) error {
	ds, err := datasource.FromConfig(src)
	if err != nil {
		return err
	}
	res, err := probe.Probe(ctx, ds, opt)
	if err != nil {
		return err
	}
	log.Printf("probe: sampled rows=%d skipped=%d columns=%d", res.Rows, res.Skipped, len(res.Headers))

	out, err := json.MarshalIndent(probe.Pipeline(src, opt, res), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", out)
	return err
}
