// Package aggregator runs one ad-hoc search across a few sources at once and
// merges what comes back. Nothing it returns is persisted.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/jimezsa/jobcollector/internal/dedup"
	"github.com/jimezsa/jobcollector/internal/models"
	"github.com/jimezsa/jobcollector/internal/scraper"
	"github.com/jimezsa/jobcollector/internal/store"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultTimeout = 30 * time.Second

// DefaultSources are searched when the caller does not pick any.
var DefaultSources = []string{scraper.SiteLinkedIn, scraper.SiteUpwork}

type Query struct {
	Query    string
	Location string
	Limit    int
}

// SourceOutcome reports how one source did. A failed source has Err set and
// contributed nothing.
type SourceOutcome struct {
	Count    int
	Err      error
	Duration time.Duration
}

type Aggregator struct {
	adapters []scraper.Scraper
	timeout  time.Duration
	logger   zerolog.Logger
}

// New builds an aggregator over adapters. timeout bounds each source call;
// zero means DefaultTimeout.
func New(adapters []scraper.Scraper, timeout time.Duration, logger zerolog.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Aggregator{adapters: adapters, timeout: timeout, logger: logger}
}

// Search queries every adapter concurrently, sorts the union newest first,
// drops exact title+company repeats and applies q.Limit.
func (a *Aggregator) Search(ctx context.Context, q Query) ([]models.Job, map[string]SourceOutcome) {
	results := make([][]models.Job, len(a.adapters))
	outcomes := make([]SourceOutcome, len(a.adapters))
	params := models.SearchParams{Query: q.Query, Location: q.Location, Limit: q.Limit}

	var g errgroup.Group
	for i, adapter := range a.adapters {
		i, adapter := i, adapter
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			start := time.Now()
			jobs, err := search(callCtx, adapter, params)
			outcomes[i] = SourceOutcome{Count: len(jobs), Err: err, Duration: time.Since(start)}
			if err != nil {
				outcomes[i].Count = 0
				a.logger.Warn().Err(err).Str("source", adapter.Name()).Msg("search failed")
				return nil
			}
			results[i] = jobs
			return nil
		})
	}
	_ = g.Wait()

	var all []models.Job
	byName := make(map[string]SourceOutcome, len(a.adapters))
	for i, adapter := range a.adapters {
		all = append(all, results[i]...)
		byName[adapter.Name()] = outcomes[i]
	}

	store.SortByPostedAt(all)
	all = dedup.DedupeLight(all)
	if q.Limit > 0 && len(all) > q.Limit {
		all = all[:q.Limit]
	}
	return all, byName
}

func search(ctx context.Context, adapter scraper.Scraper, params models.SearchParams) (jobs []models.Job, err error) {
	defer func() {
		if r := recover(); r != nil {
			jobs, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return adapter.Search(ctx, params)
}

// Select picks adapters from registry by name. Empty names select
// DefaultSources.
func Select(registry map[string]scraper.Scraper, names []string) ([]scraper.Scraper, error) {
	names = scraper.NormalizeSites(names)
	if len(names) == 0 {
		names = DefaultSources
	}
	if len(names) == 1 && names[0] == "all" {
		names = scraper.SiteNames()
	}

	selected := make([]scraper.Scraper, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		adapter, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("unknown site: %s", name)
		}
		selected = append(selected, adapter)
	}
	return selected, nil
}
