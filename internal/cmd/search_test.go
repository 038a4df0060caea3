package cmd

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/jimezsa/jobcollector/internal/aggregator"
	"github.com/jimezsa/jobcollector/internal/export"
	"github.com/jimezsa/jobcollector/internal/models"
)

func TestResolveFormatWithOutputPathRespectsGlobalFlags(t *testing.T) {
	ctx := &Context{Out: io.Discard, JSONOutput: true}
	got, err := resolveFormat(ctx, SearchOptions{}, "jobs.json")
	if err != nil {
		t.Fatalf("resolveFormat() error = %v", err)
	}
	if got != export.FormatJSON {
		t.Fatalf("resolveFormat() = %q, want %q", got, export.FormatJSON)
	}

	ctx = &Context{Out: io.Discard, PlainText: true}
	got, err = resolveFormat(ctx, SearchOptions{}, "jobs.tsv")
	if err != nil {
		t.Fatalf("resolveFormat() error = %v", err)
	}
	if got != export.FormatTSV {
		t.Fatalf("resolveFormat() = %q, want %q", got, export.FormatTSV)
	}
}

func TestResolveFormatDefaultsToCSVForFiles(t *testing.T) {
	ctx := &Context{Out: io.Discard}
	got, err := resolveFormat(ctx, SearchOptions{}, "jobs.csv")
	if err != nil {
		t.Fatalf("resolveFormat() error = %v", err)
	}
	if got != export.FormatCSV {
		t.Fatalf("resolveFormat() = %q, want %q", got, export.FormatCSV)
	}

	got, err = resolveFormat(ctx, SearchOptions{Format: "md"}, "jobs.md")
	if err != nil {
		t.Fatalf("resolveFormat() error = %v", err)
	}
	if got != export.FormatMarkdown {
		t.Fatalf("resolveFormat() = %q, want %q", got, export.FormatMarkdown)
	}
}

func TestMergeUniqueJobsDedupesAcrossQueries(t *testing.T) {
	existing := []models.Job{
		{Source: "linkedin", Title: "Backend Engineer", Company: "Acme", Location: "Remote"},
		{Source: "indeed", Title: "SRE", Company: "Beta", Location: "Berlin"},
	}
	incoming := []models.Job{
		{Source: "glassdoor", Title: "backend engineer", Company: "ACME", Location: "remote"},
		{Source: "linkedin", Title: "Data Engineer", Company: "Acme", Location: "Remote"},
		{Source: "upwork", Title: "SRE", Company: "Beta", Location: "Munich"},
	}

	got := mergeUniqueJobs(existing, incoming)
	if len(got) != 4 {
		t.Fatalf("len(got) = %d, want 4", len(got))
	}
	if got[0].Source != "linkedin" || got[1].Source != "indeed" {
		t.Fatalf("existing jobs order/values changed: %#v", got[:2])
	}
	if got[2].Title != "Data Engineer" || got[3].Location != "Munich" {
		t.Fatalf("unexpected incoming jobs: %#v", got[2:])
	}
}

func TestMergeUniqueJobsKeepsSingleQueryDuplicates(t *testing.T) {
	incoming := []models.Job{
		{Source: "linkedin", Title: "Backend Engineer", Company: "Acme"},
		{Source: "indeed", Title: "Backend Engineer", Company: "Acme"},
	}

	got := mergeUniqueJobs(nil, incoming)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
}

func TestFormatSearchSummary(t *testing.T) {
	if got := formatSearchSummary(nil); got != "summary: jobs=0 by_source=none" {
		t.Fatalf("formatSearchSummary(nil) = %q", got)
	}

	jobs := []models.Job{
		{Source: "upwork"},
		{Source: "LinkedIn"},
		{Source: "linkedin"},
		{},
	}
	want := "summary: jobs=4 by_source=linkedin:2, unknown:1, upwork:1"
	if got := formatSearchSummary(jobs); got != want {
		t.Fatalf("formatSearchSummary() = %q, want %q", got, want)
	}
}

func TestCollectFailuresSortsBySource(t *testing.T) {
	outcomes := map[string]aggregator.SourceOutcome{
		"upwork":   {Err: errors.New("http 403")},
		"linkedin": {Count: 3},
		"indeed":   {Err: errors.New("timeout")},
	}

	got := collectFailures("sre", outcomes)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0].source != "indeed" || got[1].source != "upwork" || got[0].query != "sre" {
		t.Fatalf("collectFailures() = %#v", got)
	}
}

func TestPathsEqual(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "out.json")
	if !pathsEqual(a, filepath.Join(dir, ".", "out.json")) {
		t.Fatalf("pathsEqual() = false for the same file")
	}
	if pathsEqual(a, "") {
		t.Fatalf("pathsEqual() = true for an empty path")
	}
}
