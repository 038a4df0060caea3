// Package collector drives the registered sources through one collection run
// and persists the outcome.
package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jimezsa/jobcollector/internal/classify"
	"github.com/jimezsa/jobcollector/internal/dedup"
	"github.com/jimezsa/jobcollector/internal/models"
	"github.com/jimezsa/jobcollector/internal/ratelimit"
	"github.com/jimezsa/jobcollector/internal/retry"
	"github.com/jimezsa/jobcollector/internal/scraper"
	"github.com/jimezsa/jobcollector/internal/store"
	"github.com/rs/zerolog"
)

var ErrNoQueries = errors.New("at least one non-empty query is required")

// Request is the input of one collection run. Empty allow-lists keep
// everything; a zero MaxJobsPerSource falls back to the configured cap.
type Request struct {
	Queries          []string              `json:"queries"`
	Locations        []string              `json:"locations,omitempty"`
	Categories       []models.Category     `json:"categories,omitempty"`
	ContractTypes    []models.ContractType `json:"contractTypes,omitempty"`
	MaxJobsPerSource int                   `json:"maxJobsPerSource,omitempty"`
}

// SourceResult is one source's outcome within a run.
type SourceResult struct {
	Success       bool     `json:"success"`
	JobsCollected int      `json:"jobsCollected"`
	Errors        []string `json:"errors,omitempty"`
	Attempts      int      `json:"attempts"`
}

// Result describes a finished run. Jobs holds the deduplicated, enriched
// records; NewJobs is filled in by Service once the corpus is known.
type Result struct {
	Success    bool                    `json:"success"`
	TotalJobs  int                     `json:"totalJobs"`
	NewJobs    int                     `json:"newJobs"`
	PerSource  map[string]SourceResult `json:"perSource"`
	Order      []string                `json:"-"`
	DurationMs int64                   `json:"durationMs"`
	Stats      store.Stats             `json:"stats"`
	Jobs       []models.Job            `json:"-"`
}

// Collector runs sources one at a time in priority order. Each Collector
// builds its own limiter unless WithLimiter hands it one to share.
type Collector struct {
	sources []scraper.Source
	config  models.CollectionConfig
	limiter *ratelimit.Limiter
	logger  zerolog.Logger
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	backoff time.Duration
}

type Option func(*Collector)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Collector) { c.logger = logger }
}

func WithLimiter(limiter *ratelimit.Limiter) Option {
	return func(c *Collector) { c.limiter = limiter }
}

func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// WithSleep replaces the wait used for request delays and retry backoff.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Collector) { c.sleep = sleep }
}

// WithBackoffBase sets the unit of the exponential retry backoff.
func WithBackoffBase(base time.Duration) Option {
	return func(c *Collector) { c.backoff = base }
}

func New(sources []scraper.Source, cfg models.CollectionConfig, opts ...Option) *Collector {
	c := &Collector{
		sources: sources,
		config:  cfg,
		logger:  zerolog.Nop(),
		now:     time.Now,
		sleep:   ratelimit.Sleep,
		backoff: retry.DefaultBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limiter == nil {
		c.limiter = ratelimit.New(ratelimit.WithClock(c.now), ratelimit.WithSleep(c.sleep))
	}
	return c
}

// Run collects from every enabled source. Source failures are recorded in
// the result and never fail the run; an error is returned only when the run
// itself could not complete.
func (c *Collector) Run(ctx context.Context, req Request) (result Result, err error) {
	start := c.now()
	result = Result{PerSource: map[string]SourceResult{}}

	defer func() {
		result.DurationMs = c.now().Sub(start).Milliseconds()
		if r := recover(); r != nil {
			result.Success = false
			err = fmt.Errorf("collection aborted: %v", r)
			c.logger.Error().Interface("panic", r).Msg("collection aborted")
		}
	}()

	queries := normalizeQueries(req.Queries)
	if len(queries) == 0 {
		return result, ErrNoQueries
	}
	maxJobs := req.MaxJobsPerSource
	if maxJobs <= 0 {
		maxJobs = c.config.MaxJobsPerSource
	}

	sources := enabledSources(c.sources)
	c.logger.Info().Int("sources", len(sources)).Strs("queries", queries).Msg("collection started")

	var collected []models.Job
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		jobs, outcome := c.collectSource(ctx, source, queries, req, maxJobs)
		result.PerSource[source.Name] = outcome
		result.Order = append(result.Order, source.Name)
		collected = append(collected, jobs...)
	}

	jobs := Enrich(dedup.Dedupe(collected), c.now())
	result.Jobs = jobs
	result.TotalJobs = len(jobs)
	result.Stats = store.ComputeStats(jobs)
	result.Success = true

	c.logger.Info().
		Int("total", result.TotalJobs).
		Int("raw", len(collected)).
		Dur("elapsed", c.now().Sub(start)).
		Msg("collection completed")
	return result, nil
}

func (c *Collector) collectSource(ctx context.Context, source scraper.Source, queries []string, req Request, maxJobs int) ([]models.Job, SourceResult) {
	logger := c.logger.With().Str("source", source.Name).Logger()
	locations := scraper.EffectiveLocations(source.Priority, req.Locations)

	controller := &retry.Controller{
		Attempts: c.config.RetryAttempts,
		Base:     c.backoff,
		Sleep:    c.sleep,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			logger.Warn().Err(err).Int("attempt", attempt).Dur("backoff", wait).Msg("retrying source")
		},
	}

	var gathered []models.Job
	attempts, err := controller.Do(ctx, func(ctx context.Context) error {
		jobs, err := c.fetchSource(ctx, source, queries, locations, maxJobs)
		if err != nil {
			return err
		}
		gathered = jobs
		return nil
	})
	if err != nil {
		logger.Warn().Err(err).Int("attempts", attempts).Msg("source failed")
		return nil, SourceResult{
			Success:  false,
			Errors:   []string{err.Error()},
			Attempts: attempts,
		}
	}

	jobs := filterJobs(gathered, req.Categories, req.ContractTypes)
	jobs = dedup.Dedupe(jobs)
	logger.Info().Int("jobs", len(jobs)).Int("attempts", attempts).Msg("source collected")
	return jobs, SourceResult{Success: true, JobsCollected: len(jobs), Attempts: attempts}
}

// fetchSource is the unit retried per source: every query and location, in
// order, stopping once maxJobs records are gathered.
func (c *Collector) fetchSource(ctx context.Context, source scraper.Source, queries []string, locations []string, maxJobs int) ([]models.Job, error) {
	var out []models.Job
	calls := 0
	for _, query := range queries {
		for _, location := range locations {
			if maxJobs > 0 && len(out) >= maxJobs {
				return out[:maxJobs], nil
			}
			if calls > 0 && c.config.DelayBetweenRequests > 0 {
				if err := c.sleep(ctx, c.config.DelayBetweenRequests); err != nil {
					return nil, err
				}
			}
			calls++

			if err := c.limiter.Wait(ctx, source.Name, source.RateLimit); err != nil {
				return nil, err
			}
			left, resetAt := c.limiter.Remaining(source.Name, source.RateLimit)
			c.logger.Debug().Str("source", source.Name).Int("window_left", left).Time("window_reset", resetAt).
				Str("query", query).Str("location", displayLocation(location)).Msg("request admitted")
			jobs, err := c.search(ctx, source, models.SearchParams{
				Query:    query,
				Location: location,
				Limit:    remaining(maxJobs, len(out)),
			})
			if err != nil {
				return nil, fmt.Errorf("search %q in %q: %w", query, displayLocation(location), err)
			}
			for i := range jobs {
				jobs[i].Source = source.Name
			}
			out = append(out, jobs...)
		}
	}
	if maxJobs > 0 && len(out) > maxJobs {
		out = out[:maxJobs]
	}
	return out, nil
}

func (c *Collector) search(ctx context.Context, source scraper.Source, params models.SearchParams) ([]models.Job, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}
	return source.Adapter.Search(ctx, params)
}

// Enrich re-derives category, region, contract type and skills from each
// record's text. The adapter's own values are kept in AdapterClassification.
func Enrich(jobs []models.Job, now time.Time) []models.Job {
	for i := range jobs {
		job := &jobs[i]
		if job.AdapterClassification == nil {
			original := job.Classification()
			job.AdapterClassification = &original
		}
		derived := classify.Classify(job.Title, job.Description, job.Location)
		job.Category = derived.Category
		job.Region = derived.Region
		job.ContractType = derived.ContractType
		job.Skills = derived.Skills
		job.UpdatedAt = now
	}
	return jobs
}

func filterJobs(jobs []models.Job, categories []models.Category, contractTypes []models.ContractType) []models.Job {
	if len(categories) == 0 && len(contractTypes) == 0 {
		return jobs
	}
	out := make([]models.Job, 0, len(jobs))
	for _, job := range jobs {
		if len(categories) > 0 && !containsFold(categories, job.Category) {
			continue
		}
		if len(contractTypes) > 0 && !containsFold(contractTypes, job.ContractType) {
			continue
		}
		out = append(out, job)
	}
	return out
}

func containsFold[T ~string](values []T, value T) bool {
	for _, candidate := range values {
		if strings.EqualFold(string(candidate), string(value)) {
			return true
		}
	}
	return false
}

func enabledSources(sources []scraper.Source) []scraper.Source {
	out := make([]scraper.Source, 0, len(sources))
	for _, source := range sources {
		if source.Enabled && source.Adapter != nil {
			out = append(out, source)
		}
	}
	scraper.SortByPriority(out)
	return out
}

func normalizeQueries(queries []string) []string {
	out := make([]string, 0, len(queries))
	seen := make(map[string]struct{}, len(queries))
	for _, query := range queries {
		query = strings.TrimSpace(query)
		key := strings.ToLower(query)
		if query == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, query)
	}
	return out
}

func remaining(maxJobs, have int) int {
	if maxJobs <= 0 {
		return 0
	}
	return maxJobs - have
}

func displayLocation(location string) string {
	if location == "" {
		return "anywhere"
	}
	return location
}
