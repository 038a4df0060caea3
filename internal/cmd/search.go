package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jimezsa/jobcollector/internal/aggregator"
	"github.com/jimezsa/jobcollector/internal/dedup"
	"github.com/jimezsa/jobcollector/internal/export"
	"github.com/jimezsa/jobcollector/internal/models"
	"github.com/jimezsa/jobcollector/internal/scraper"
	"github.com/jimezsa/jobcollector/internal/store"
	"github.com/muesli/termenv"
)

type SearchCmd struct {
	Query string `arg:"" optional:"" help:"Search query (comma-separated). Optional when --query-file is provided."`
	Sites string `help:"Comma-separated list of sites (default: configured search sources; \"all\" for every site)."`
	SearchOptions
}

type SiteCmd struct {
	Query string `arg:"" optional:"" help:"Search query (comma-separated). Optional when --query-file is provided."`
	SearchOptions
	Site string `kong:"-"`
}

type SearchOptions struct {
	Location  string `help:"Job location." env:"JOBCOLLECTOR_DEFAULT_LOCATION"`
	Limit     int    `help:"Maximum results per query." env:"JOBCOLLECTOR_DEFAULT_LIMIT"`
	Timeout   int    `help:"Per-source timeout in seconds (default: configured search timeout)."`
	Format    string `help:"Output format: csv, json, md." enum:",csv,json,md" default:""`
	Links     string `help:"Table link display: short or full." enum:"short,full" default:"full"`
	Output    string `name:"output" short:"o" help:"Write output to a file."`
	Out       string `name:"out" help:"Alias for --output."`
	File      string `name:"file" help:"Alias for --output."`
	Proxies   string `help:"Comma-separated proxy URLs." env:"JOBCOLLECTOR_PROXIES"`
	QueryFile string `help:"Path to JSON file with queries (top-level string array or object with job_titles array)."`
	NewOnly   bool   `help:"Output only jobs that are not in the store yet."`
	NewOut    string `help:"Write jobs that are not in the store yet to a JSON file."`
}

func (s *SearchCmd) Run(ctx *Context) error {
	return runSearch(ctx, s.Query, s.Sites, s.SearchOptions)
}

func (s *SiteCmd) Run(ctx *Context) error {
	return runSearch(ctx, s.Query, s.Site, s.SearchOptions)
}

func runSearch(ctx *Context, query string, sitesArg string, opts SearchOptions) error {
	queries, err := resolveQueries(query, opts.QueryFile)
	if err != nil {
		return err
	}

	sites := splitList(sitesArg)
	if len(sites) == 0 {
		sites = ctx.Config.SearchSources
	}

	selected, err := searchAdapters(ctx, opts.Proxies, sites)
	if err != nil {
		return err
	}

	timeout := ctx.Config.SearchTimeout()
	if opts.Timeout > 0 {
		timeout = time.Duration(opts.Timeout) * time.Second
	}
	agg := aggregator.New(selected, timeout, ctx.Logger)

	stopIndicator := startSearchIndicator(ctx)

	var (
		jobs     []models.Job
		failures []sourceFailure
	)
	for _, currentQuery := range queries {
		queryJobs, outcomes := agg.Search(ctx.context(), aggregator.Query{
			Query:    currentQuery,
			Location: opts.Location,
			Limit:    opts.Limit,
		})
		jobs = mergeUniqueJobs(jobs, queryJobs)
		failures = append(failures, collectFailures(currentQuery, outcomes)...)
	}
	if stopIndicator != nil {
		stopIndicator()
	}
	if err := ctx.context().Err(); err != nil {
		return err
	}

	store.SortByPostedAt(jobs)
	reportSourceFailures(ctx, failures)

	outputPath := resolveOutputPath(opts)
	if strings.TrimSpace(opts.NewOut) != "" && pathsEqual(outputPath, opts.NewOut) {
		return fmt.Errorf("--new-out path must differ from --output")
	}

	var unseenJobs []models.Job
	compareWithStore := opts.NewOnly || strings.TrimSpace(opts.NewOut) != ""
	if compareWithStore {
		unseenJobs, err = unseenInStore(ctx, jobs)
		if err != nil {
			return err
		}
	}
	if strings.TrimSpace(opts.NewOut) != "" {
		if err := writeJobsFile(opts.NewOut, unseenJobs); err != nil {
			return fmt.Errorf("write --new-out: %w", err)
		}
	}

	outputJobs := jobs
	if opts.NewOnly {
		outputJobs = unseenJobs
	}

	format, err := resolveFormat(ctx, opts, outputPath)
	if err != nil {
		return err
	}

	writer := ctx.Out
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer file.Close()
		writer = file
	}

	colorEnabled := ctx.UI != nil && ctx.UI.ColorEnabled
	hyperlinks := colorEnabled && isTTY(writer)
	linkStyle := export.LinkStyleShort
	if strings.EqualFold(opts.Links, string(export.LinkStyleFull)) {
		linkStyle = export.LinkStyleFull
	}
	if err := export.WriteJobs(writer, outputJobs, format, export.WriteOptions{
		ColorEnabled: colorEnabled,
		Hyperlinks:   hyperlinks,
		LinkStyle:    linkStyle,
		Now:          ctx.now(),
	}); err != nil {
		return err
	}

	summaryJobs := jobs
	if compareWithStore {
		summaryJobs = unseenJobs
	}
	printSearchSummary(ctx, summaryJobs)

	return nil
}

func searchAdapters(ctx *Context, proxiesFlag string, sites []string) ([]scraper.Scraper, error) {
	rotator, err := loadRotator(proxiesFlag)
	if err != nil {
		return nil, err
	}
	sources, err := buildSources(ctx, rotator)
	if err != nil {
		return nil, err
	}
	registry := make(map[string]scraper.Scraper, len(sources))
	for _, source := range sources {
		registry[source.Name] = source.Adapter
	}
	return aggregator.Select(registry, sites)
}

func unseenInStore(ctx *Context, jobs []models.Job) ([]models.Job, error) {
	st, err := ctx.openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	corpus, err := st.Load(ctx.context())
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}
	unseen, _ := dedup.Diff(jobs, corpus.Jobs)
	return unseen, nil
}

func pathsEqual(a, b string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil {
		return absA == absB
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

func printSearchSummary(ctx *Context, jobs []models.Job) {
	if ctx == nil || ctx.Err == nil {
		return
	}
	_, _ = fmt.Fprintf(ctx.Err, "%s\n", formatSearchSummary(jobs))
}

func formatSearchSummary(jobs []models.Job) string {
	counts := countJobsBySource(jobs)
	if len(counts) == 0 {
		return "summary: jobs=0 by_source=none"
	}

	parts := make([]string, 0, len(counts))
	for _, count := range counts {
		parts = append(parts, fmt.Sprintf("%s:%d", count.source, count.total))
	}

	return fmt.Sprintf("summary: jobs=%d by_source=%s", len(jobs), strings.Join(parts, ", "))
}

type sourceCount struct {
	source string
	total  int
}

func countJobsBySource(jobs []models.Job) []sourceCount {
	totals := make(map[string]int, len(jobs))
	for _, job := range jobs {
		source := strings.ToLower(strings.TrimSpace(job.Source))
		if source == "" {
			source = "unknown"
		}
		totals[source]++
	}

	counts := make([]sourceCount, 0, len(totals))
	for source, total := range totals {
		counts = append(counts, sourceCount{source: source, total: total})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].source < counts[j].source
	})
	return counts
}

// mergeUniqueJobs appends incoming jobs whose dedupe key is not already in
// existing. Repeats within incoming are left alone.
func mergeUniqueJobs(existing []models.Job, incoming []models.Job) []models.Job {
	if len(incoming) == 0 {
		return existing
	}

	keys := make(map[string]struct{}, len(existing)+len(incoming))
	merged := make([]models.Job, 0, len(existing)+len(incoming))

	for _, job := range existing {
		merged = append(merged, job)
		keys[dedup.Key(job)] = struct{}{}
	}

	for _, job := range incoming {
		key := dedup.Key(job)
		if _, exists := keys[key]; exists {
			continue
		}
		merged = append(merged, job)
	}

	return merged
}

type sourceFailure struct {
	source string
	query  string
	err    error
}

func collectFailures(query string, outcomes map[string]aggregator.SourceOutcome) []sourceFailure {
	var failures []sourceFailure
	for name, outcome := range outcomes {
		if outcome.Err == nil {
			continue
		}
		failures = append(failures, sourceFailure{source: name, query: query, err: outcome.Err})
	}
	sort.SliceStable(failures, func(i, j int) bool {
		return failures[i].source < failures[j].source
	})
	return failures
}

func reportSourceFailures(ctx *Context, failures []sourceFailure) {
	if ctx == nil || ctx.UI == nil {
		return
	}
	if !ctx.Verbose {
		return
	}

	if len(failures) == 0 {
		return
	}

	ctx.UI.Warnf("\nSource errors:")
	for _, failure := range failures {
		ctx.UI.Warnf("  %s (%s): %v", failure.source, failure.query, failure.err)
	}
}

func resolveOutputPath(opts SearchOptions) string {
	if opts.Output != "" {
		return opts.Output
	}
	if opts.Out != "" {
		return opts.Out
	}
	return opts.File
}

func resolveFormat(ctx *Context, opts SearchOptions, outputPath string) (export.Format, error) {
	return chooseFormat(ctx, opts.Format, outputPath)
}

// chooseFormat picks the output format: global --json/--plain first, then
// --format, then CSV for files and pipes and a table for terminals.
func chooseFormat(ctx *Context, requested string, outputPath string) (export.Format, error) {
	if ctx.JSONOutput {
		return export.FormatJSON, nil
	}
	if ctx.PlainText {
		return export.FormatTSV, nil
	}
	if requested != "" {
		return export.ParseFormat(requested)
	}
	if outputPath == "" && isTTY(ctx.Out) {
		return export.FormatTable, nil
	}
	return export.FormatCSV, nil
}

func isTTY(out io.Writer) bool {
	output := termenv.NewOutput(out)
	return output.ColorProfile() != termenv.Ascii
}

func startSearchIndicator(ctx *Context) func() {
	if ctx == nil || ctx.Err == nil || ctx.UI == nil {
		return nil
	}
	if !isTTY(ctx.Err) {
		return nil
	}

	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		start := time.Now()
		frames := []string{"|", "/", "-", "\\"}
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		index := 0

		for {
			select {
			case <-done:
				fmt.Fprint(ctx.Err, "\r\033[2K")
				return
			case <-ticker.C:
				seconds := int(time.Since(start).Seconds())
				frame := frames[index%len(frames)]
				fmt.Fprintf(ctx.Err, "\r\033[2KSearching... %ds %s", seconds, frame)
				index++
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}
