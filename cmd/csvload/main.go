// Command csvload streams a delimited text file through the typed record
// mapper and bulk-loads the records into a storage backend.
//
//	csvload -config pipelines/people.json
//	csvload -config pipelines/people.json -inputs files.txt
//	csvload -config pipelines/people.json -validate
//
// The pipeline file is described in package config. With -inputs, every path
// listed in the file (one per line, # comments allowed) is loaded in turn
// with the pipeline's source replaced by that file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"csvrecord/internal/config"
	"csvrecord/internal/datasource/file"
	"csvrecord/internal/metrics"
	"csvrecord/internal/metrics/datadog"
	"csvrecord/internal/metrics/prompush"

	// register every storage backend; the pipeline picks one by kind.
	_ "csvrecord/internal/storage/all"
)

func main() {
	var (
		cfgPath           string
		inputsPath        string
		metricsBackendFlg string
		pushGatewayURLFlg string
		datadogAddrFlg    string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "pipelines/sample.json", "pipeline config JSON path")
	flag.StringVar(&inputsPath, "inputs", "", "file listing input paths, one per line (overrides source)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend: pushgateway, datadog or none (env METRICS_BACKEND)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (env PUSHGATEWAY_URL)")
	flag.StringVar(&datadogAddrFlg, "datadog-addr", "", "DogStatsD address (env DD_AGENT_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	if !reportIssues(config.ValidatePipeline(p)) {
		log.Printf("Configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("Configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	var inputs []string
	if inputsPath != "" {
		if inputs, err = file.ReadList(inputsPath); err != nil {
			fatalf("%v", err)
		}
		if len(inputs) == 0 {
			fatalf("inputs: %s lists no files", inputsPath)
		}
	}

	flushMetrics := setupMetrics(p.Job,
		firstNonEmpty(metricsBackendFlg, os.Getenv("METRICS_BACKEND")),
		firstNonEmpty(pushGatewayURLFlg, os.Getenv("PUSHGATEWAY_URL"), "http://localhost:9091"),
		firstNonEmpty(datadogAddrFlg, os.Getenv("DD_AGENT_ADDR"), "127.0.0.1:8125"),
		*verbose,
	)
	defer flushMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if *verbose {
		log.Printf("pipeline: job=%s source=%s storage=%s table=%s",
			metrics.DefaultJob(p.Job), p.Source.Kind, p.Storage.Kind, p.Storage.DB.Table)
	}

	if err := runAll(ctx, p, inputs); err != nil {
		flushMetrics()
		log.Fatalf("%v", err)
	}

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// runAll runs the pipeline once, or once per input path.
func runAll(ctx context.Context, p config.Pipeline, inputs []string) error {
	if len(inputs) == 0 {
		_, err := runStreamed(ctx, p)
		return err
	}
	for i, path := range inputs {
		q := p
		q.Source = config.Source{Kind: "file", File: config.SourceFile{Path: path}}
		log.Printf("input %d/%d: %s", i+1, len(inputs), path)
		if _, err := runStreamed(ctx, q); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// reportIssues prints every issue to stderr and reports whether none of them
// is an error.
func reportIssues(issues []config.Issue) bool {
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	return !config.HasErrors(issues)
}

// setupMetrics installs the named backend and returns a flush function that
// is safe to call more than once.
func setupMetrics(job, backendName, gatewayURL, ddAddr string, verbose bool) func() {
	var b metrics.Backend
	switch backendName {
	case "pushgateway":
		pb, err := prompush.NewBackend(metrics.DefaultJob(job), gatewayURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			break
		}
		log.Printf("metrics: url=%v, backend=%v, job_name=%v", gatewayURL, backendName, metrics.DefaultJob(job))
		b = pb

	case "datadog":
		db, err := datadog.NewBackend(datadog.Config{
			Addr:       ddAddr,
			Namespace:  "csvrecord.",
			GlobalTags: []string{"job:" + metrics.DefaultJob(job)},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			break
		}
		log.Printf("metrics: addr=%v, backend=%v", ddAddr, backendName)
		b = db

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled")
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}

	if b == nil {
		return func() {}
	}
	metrics.SetBackend(b)
	flushed := false
	return func() {
		if flushed {
			return
		}
		flushed = true
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
