package main

import (
	"testing"

	"csvrecord/internal/config"
)

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   []string
		want string
	}{
		{[]string{"flag", "env", "def"}, "flag"},
		{[]string{"", "env", "def"}, "env"},
		{[]string{"", "", "def"}, "def"},
		{[]string{"", ""}, ""},
		{nil, ""},
	}
	for _, c := range cases {
		if got := firstNonEmpty(c.in...); got != c.want {
			t.Errorf("firstNonEmpty(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestReportIssues(t *testing.T) {
	t.Parallel()

	if !reportIssues(nil) {
		t.Fatal("no issues should be valid")
	}
	warn := config.Issue{Severity: config.SeverityWarning, Path: "runtime.batch_size", Message: "default used"}
	if !reportIssues([]config.Issue{warn}) {
		t.Fatal("warnings alone should be valid")
	}
	bad := config.Issue{Severity: config.SeverityError, Path: "storage.kind", Message: "required"}
	if reportIssues([]config.Issue{warn, bad}) {
		t.Fatal("an error issue should be invalid")
	}
}

// Backends that install nothing return a no-op flush.
func TestSetupMetrics_Disabled(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "none", "statsd-classic"} {
		flush := setupMetrics("job", name, "http://127.0.0.1:9091", "127.0.0.1:8125", true)
		if flush == nil {
			t.Fatalf("setupMetrics(%q) returned nil flush", name)
		}
		flush()
		flush()
	}
}

func TestSamplePipelineIsValid(t *testing.T) {
	t.Parallel()

	p, err := config.Load("../../pipelines/sample.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if issues := config.ValidatePipeline(p); config.HasErrors(issues) {
		t.Fatalf("sample pipeline has errors: %v", issues)
	}
	if p.Storage.Kind != "stdout" || !p.Runtime.Dedup || len(p.Schema.Fields) != 5 {
		t.Fatalf("unexpected sample pipeline: %+v", p)
	}
}
