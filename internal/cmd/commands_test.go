package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jimezsa/jobcollector/internal/collector"
	"github.com/jimezsa/jobcollector/internal/config"
	"github.com/jimezsa/jobcollector/internal/models"
	"github.com/jimezsa/jobcollector/internal/scraper"
	"github.com/jimezsa/jobcollector/internal/store"
	"github.com/jimezsa/jobcollector/internal/ui"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testContext(t *testing.T) (*Context, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	return &Context{
		Out:     out,
		Err:     io.Discard,
		UI:      ui.New(out, io.Discard, ui.ColorNever, true),
		Config:  config.Config{Store: store.BackendJSON},
		DataDir: t.TempDir(),
		Now:     func() time.Time { return fixedNow },
	}, out
}

func TestApplyOverrides(t *testing.T) {
	sources := []scraper.Source{
		{Name: "remoteok", Enabled: true, Priority: 1, RateLimit: 15},
		{Name: "upwork", Enabled: true, Priority: 2, RateLimit: 20},
	}
	disabled := false
	priority := 5
	rate := 3

	err := applyOverrides(sources, map[string]config.SourceOverride{
		"RemoteOK": {Enabled: &disabled},
		"upwork":   {Priority: &priority, RateLimit: &rate},
	})
	if err != nil {
		t.Fatalf("applyOverrides() error = %v", err)
	}
	if sources[0].Enabled || sources[0].Priority != 1 {
		t.Fatalf("remoteok = %#v, want disabled with priority 1", sources[0])
	}
	if sources[1].Priority != 5 || sources[1].RateLimit != 3 || !sources[1].Enabled {
		t.Fatalf("upwork = %#v", sources[1])
	}

	err = applyOverrides(sources, map[string]config.SourceOverride{"monster": {}})
	if err == nil || !strings.Contains(err.Error(), "unknown source") {
		t.Fatalf("applyOverrides() error = %v, want unknown source", err)
	}
}

func TestRestrictSources(t *testing.T) {
	sources := []scraper.Source{
		{Name: "remoteok", Enabled: true},
		{Name: "adzuna", Enabled: false},
		{Name: "upwork", Enabled: true},
	}

	got, err := restrictSources(sources, "")
	if err != nil || len(got) != 3 {
		t.Fatalf("restrictSources(\"\") = %d, %v", len(got), err)
	}

	got, err = restrictSources(sources, "Upwork, adzuna")
	if err != nil {
		t.Fatalf("restrictSources() error = %v", err)
	}
	if len(got) != 2 || got[0].Name != "upwork" || got[1].Name != "adzuna" || !got[1].Enabled {
		t.Fatalf("restrictSources() = %#v", got)
	}

	if _, err := restrictSources(sources, "monster"); err == nil {
		t.Fatalf("restrictSources() error = nil, want unknown site")
	}
}

func TestCollectRequestDefaultsToConfig(t *testing.T) {
	ctx, _ := testContext(t)
	ctx.Config.Queries = []string{"DevOps engineer"}
	ctx.Config.Locations = []string{"Berlin"}

	req, err := CollectOptions{MaxPerSource: 7}.request(ctx, "")
	if err != nil {
		t.Fatalf("request() error = %v", err)
	}
	if len(req.Queries) != 1 || req.Queries[0] != "DevOps engineer" {
		t.Fatalf("Queries = %#v", req.Queries)
	}
	if len(req.Locations) != 1 || req.Locations[0] != "Berlin" || req.MaxJobsPerSource != 7 {
		t.Fatalf("request() = %#v", req)
	}

	req, err = CollectOptions{
		Locations:     "Remote, Singapore",
		Categories:    "SRE,DevOps",
		ContractTypes: "Remote",
	}.request(ctx, "SRE, platform engineer")
	if err != nil {
		t.Fatalf("request() error = %v", err)
	}
	if len(req.Queries) != 2 || len(req.Locations) != 2 {
		t.Fatalf("request() = %#v", req)
	}
	if len(req.Categories) != 2 || req.Categories[0] != models.CategorySRE {
		t.Fatalf("Categories = %#v", req.Categories)
	}
	if len(req.ContractTypes) != 1 || req.ContractTypes[0] != models.ContractRemote {
		t.Fatalf("ContractTypes = %#v", req.ContractTypes)
	}

	ctx.Config.Queries = nil
	if _, err := (CollectOptions{}).request(ctx, ""); !errors.Is(err, collector.ErrNoQueries) {
		t.Fatalf("request() error = %v, want ErrNoQueries", err)
	}
}

func TestJobsFilter(t *testing.T) {
	cmd := JobsCmd{
		Query:       " kubernetes ",
		Sources:     "linkedin,upwork",
		Regions:     "EU",
		Statuses:    "active",
		Bookmarked:  true,
		HideIgnored: true,
		Limit:       5,
	}
	filter := cmd.filter()
	if filter.Query != "kubernetes" || len(filter.Sources) != 2 || filter.Limit != 5 {
		t.Fatalf("filter() = %#v", filter)
	}
	if len(filter.Regions) != 1 || filter.Regions[0] != models.RegionEU {
		t.Fatalf("Regions = %#v", filter.Regions)
	}
	if filter.Bookmarked == nil || !*filter.Bookmarked || filter.Ignored == nil || *filter.Ignored {
		t.Fatalf("flags = %v %v", filter.Bookmarked, filter.Ignored)
	}
	if got := (&JobsCmd{}).filter(); got.Bookmarked != nil || got.Ignored != nil {
		t.Fatalf("empty filter sets flags: %#v", got)
	}
}

func TestJobsCmdQueriesStore(t *testing.T) {
	ctx, out := testContext(t)
	ctx.JSONOutput = true
	seedStore(t, ctx, []models.Job{
		{ID: "1", Title: "SRE", Company: "Acme", Source: "linkedin", Region: models.RegionEU},
		{ID: "2", Title: "DevOps Engineer", Company: "Beta", Source: "upwork", Region: models.RegionNA},
	})

	if err := (&JobsCmd{Regions: "eu"}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	var got []models.Job
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("jobs = %#v", got)
	}
}

func TestStatsCmdPrintsBreakdown(t *testing.T) {
	ctx, out := testContext(t)
	seedStore(t, ctx, []models.Job{
		{Title: "SRE", Company: "Acme", Source: "linkedin", Category: models.CategorySRE},
		{Title: "SRE", Company: "Beta", Source: "linkedin", Category: models.CategorySRE},
		{Title: "Cloud", Company: "Gamma", Source: "upwork", Category: models.CategoryCloud,
			Salary: &models.SalaryRange{Min: 100, Max: 200, Currency: "USD"}},
	})

	if err := (&StatsCmd{}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	text := out.String()
	for _, want := range []string{"total", "3", "source: linkedin", "category: SRE", "with salary"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Index(text, "source: linkedin") > strings.Index(text, "source: upwork") {
		t.Fatalf("breakdown not sorted by count:\n%s", text)
	}
}

func TestHistoryCmdLimitsEntries(t *testing.T) {
	ctx, out := testContext(t)
	ctx.JSONOutput = true
	path := store.HistoryPath(ctx.DataDir)
	for i := 1; i <= 3; i++ {
		entry := store.HistoryEntry{LastRun: fixedNow.Add(time.Duration(i) * time.Hour), TotalCollected: i}
		if err := store.AppendHistory(path, entry); err != nil {
			t.Fatalf("AppendHistory() error = %v", err)
		}
	}

	if err := (&HistoryCmd{Limit: 2}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	var got []store.HistoryEntry
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(got) != 2 || got[0].TotalCollected != 2 || got[1].TotalCollected != 3 {
		t.Fatalf("history = %#v", got)
	}
}

func TestFailedSources(t *testing.T) {
	if got := failedSources(nil); got != "-" {
		t.Fatalf("failedSources(nil) = %q", got)
	}
	got := failedSources([]store.SourceLog{{Name: "a"}, {Name: "b", Error: "x"}, {Name: "c", Error: "y"}})
	if got != "b,c" {
		t.Fatalf("failedSources() = %q", got)
	}
}

func TestDedupeRunKeepsNewest(t *testing.T) {
	ctx, out := testContext(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "in.json")
	output := filepath.Join(dir, "out", "deduped.json")
	older := fixedNow.Add(-48 * time.Hour)
	newer := fixedNow.Add(-time.Hour)
	writeJobs(t, input, []models.Job{
		{ID: "old", Title: "SRE", Company: "Acme", Location: "Remote", PostedAt: &older},
		{ID: "new", Title: "sre", Company: "ACME", Location: "remote", PostedAt: &newer},
		{ID: "other", Title: "DevOps", Company: "Acme"},
	})

	if err := (&DedupeRunCmd{Input: input, Out: output, Stats: true}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got, err := readJobsFile(output)
	if err != nil {
		t.Fatalf("readJobsFile() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "new" || got[1].ID != "other" {
		t.Fatalf("deduped = %#v", got)
	}
	if strings.TrimSpace(out.String()) != "input=3 output=2 dropped=1 replaced=1" {
		t.Fatalf("stats = %q", out.String())
	}
}

func TestDedupeDiffTreatsMissingSeenAsEmpty(t *testing.T) {
	ctx, out := testContext(t)
	dir := t.TempDir()
	newPath := filepath.Join(dir, "new.json")
	outPath := filepath.Join(dir, "unseen.json")
	writeJobs(t, newPath, []models.Job{{Title: "SRE", Company: "Acme"}})

	cmd := &DedupeDiffCmd{New: newPath, Seen: filepath.Join(dir, "missing.json"), Out: outPath, Stats: true}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got, err := readJobsFile(outPath)
	if err != nil {
		t.Fatalf("readJobsFile() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	if strings.TrimSpace(out.String()) != "total_new=1 total_seen=0 unseen_emitted=1" {
		t.Fatalf("stats = %q", out.String())
	}
}

func TestDedupeMergeKeepsMetadata(t *testing.T) {
	ctx, _ := testContext(t)
	dir := t.TempDir()
	seenPath := filepath.Join(dir, "seen.json")
	inputPath := filepath.Join(dir, "input.json")
	outPath := filepath.Join(dir, "merged.json")
	writeJobs(t, seenPath, []models.Job{
		{ID: "a", Title: "SRE", Company: "Acme", Metadata: models.Metadata{IsBookmarked: true}},
	})
	writeJobs(t, inputPath, []models.Job{
		{ID: "a2", Title: "SRE", Company: "Acme"},
		{ID: "b", Title: "DevOps", Company: "Beta"},
	})

	if err := (&DedupeMergeCmd{Seen: seenPath, Input: inputPath, Out: outPath}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got, err := readJobsFile(outPath)
	if err != nil {
		t.Fatalf("readJobsFile() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "a2" || !got[0].Metadata.IsBookmarked {
		t.Fatalf("merged = %#v", got)
	}
}

func TestReadJobsFileErrors(t *testing.T) {
	if _, err := readJobsFile(" "); err == nil {
		t.Fatalf("readJobsFile() error = nil for empty path")
	}
	if _, err := readJobsFile(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("readJobsFile() error = %v, want ErrNotExist", err)
	}
	jobs, err := readJobsFileAllowMissing(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil || len(jobs) != 0 {
		t.Fatalf("readJobsFileAllowMissing() = %v, %v", jobs, err)
	}
}

func TestVersionCmdJSON(t *testing.T) {
	ctx, out := testContext(t)
	ctx.Version = "1.2.3"
	ctx.JSONOutput = true
	if err := (&VersionCmd{}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.TrimSpace(out.String()) != `{"version":"1.2.3"}` {
		t.Fatalf("output = %q", out.String())
	}
}

func seedStore(t *testing.T, ctx *Context, jobs []models.Job) {
	t.Helper()
	st, err := ctx.openStore()
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	defer st.Close()
	if err := st.Save(ctx.context(), store.Merge(nil, jobs, fixedNow)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

func writeJobs(t *testing.T, path string, jobs []models.Job) {
	t.Helper()
	if err := writeJobsFile(path, jobs); err != nil {
		t.Fatalf("writeJobsFile() error = %v", err)
	}
}
