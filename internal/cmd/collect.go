package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jimezsa/jobcollector/internal/collector"
	"github.com/jimezsa/jobcollector/internal/models"
	"github.com/jimezsa/jobcollector/internal/network"
	"github.com/jimezsa/jobcollector/internal/scraper"
	"github.com/jimezsa/jobcollector/internal/store"
	"github.com/jimezsa/jobcollector/internal/ui"
)

type CollectCmd struct {
	Query string `arg:"" optional:"" help:"Search queries (comma-separated). Defaults to the configured queries."`
	CollectOptions
}

type CollectOptions struct {
	QueryFile     string `help:"Path to JSON file with queries (top-level string array or object with job_titles array)."`
	Locations     string `help:"Comma-separated locations. Defaults to the configured locations."`
	Categories    string `help:"Keep only these categories (comma-separated: DevSecOps, DevOps, SRE, Cloud, Other)."`
	ContractTypes string `name:"contract-types" help:"Keep only these contract types (comma-separated: remote, hybrid, onsite, contract, permanent)."`
	MaxPerSource  int    `name:"max-per-source" help:"Maximum jobs per source for this run."`
	Sites         string `help:"Comma-separated sources to run (default: every enabled source)."`
	Proxies       string `help:"Comma-separated proxy URLs." env:"JOBCOLLECTOR_PROXIES"`
}

func (c *CollectCmd) Run(ctx *Context) error {
	req, err := c.CollectOptions.request(ctx, c.Query)
	if err != nil {
		return err
	}
	rotator, err := loadRotator(c.Proxies)
	if err != nil {
		return err
	}
	sources, err := c.CollectOptions.sources(ctx, rotator)
	if err != nil {
		return err
	}

	outcome, err := runCollection(ctx.context(), ctx, sources, req)
	logProxyStatus(ctx, rotator)
	if err != nil {
		if errors.Is(err, store.ErrLocked) {
			return fmt.Errorf("%w (data dir %s)", err, ctx.DataDir)
		}
		return err
	}
	return printCollectOutcome(ctx, outcome)
}

func (o CollectOptions) request(ctx *Context, query string) (collector.Request, error) {
	var queries []string
	if strings.TrimSpace(query) == "" && strings.TrimSpace(o.QueryFile) == "" {
		queries = ctx.Config.Queries
	} else {
		resolved, err := resolveQueries(query, o.QueryFile)
		if err != nil {
			return collector.Request{}, err
		}
		queries = resolved
	}
	if len(queries) == 0 {
		return collector.Request{}, collector.ErrNoQueries
	}

	locations := ctx.Config.Locations
	if strings.TrimSpace(o.Locations) != "" {
		locations = splitList(o.Locations)
	}

	req := collector.Request{
		Queries:          queries,
		Locations:        locations,
		MaxJobsPerSource: o.MaxPerSource,
	}
	for _, value := range splitList(o.Categories) {
		req.Categories = append(req.Categories, models.Category(value))
	}
	for _, value := range splitList(o.ContractTypes) {
		req.ContractTypes = append(req.ContractTypes, models.ContractType(strings.ToLower(value)))
	}
	return req, nil
}

func (o CollectOptions) sources(ctx *Context, rotator *network.Rotator) ([]scraper.Source, error) {
	sources, err := buildSources(ctx, rotator)
	if err != nil {
		return nil, err
	}
	return restrictSources(sources, o.Sites)
}

// restrictSources keeps only the named sources, enabling them even if the
// config disabled them. An empty list keeps the table as is.
func restrictSources(sources []scraper.Source, sitesArg string) ([]scraper.Source, error) {
	names := scraper.NormalizeSites(splitList(sitesArg))
	if len(names) == 0 || (len(names) == 1 && names[0] == "all") {
		return sources, nil
	}

	byName := make(map[string]scraper.Source, len(sources))
	for _, source := range sources {
		byName[source.Name] = source
	}
	out := make([]scraper.Source, 0, len(names))
	for _, name := range names {
		source, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown site: %s", name)
		}
		source.Enabled = true
		out = append(out, source)
	}
	return out, nil
}

func runCollection(runCtx context.Context, ctx *Context, sources []scraper.Source, req collector.Request, opts ...collector.Option) (collector.Outcome, error) {
	st, err := ctx.openStore()
	if err != nil {
		return collector.Outcome{}, err
	}
	defer st.Close()

	opts = append([]collector.Option{
		collector.WithLogger(ctx.Logger),
		collector.WithClock(ctx.now),
		collector.WithBackoffBase(ctx.Config.RetryBase()),
	}, opts...)
	c := collector.New(sources, ctx.Config.CollectionConfig(), opts...)
	return collector.NewService(c, st, ctx.DataDir, ctx.Logger).Collect(runCtx, req)
}

func printCollectOutcome(ctx *Context, outcome collector.Outcome) error {
	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	}

	result := outcome.Result
	if ctx.PlainText {
		for _, name := range result.Order {
			source := result.PerSource[name]
			fmt.Fprintf(ctx.Out, "%s\t%t\t%d\t%s\n", name, source.Success, source.JobsCollected, strings.Join(source.Errors, "; "))
		}
		return nil
	}

	for _, name := range result.Order {
		source := result.PerSource[name]
		ctx.UI.SourceLine(name, source.Success, source.JobsCollected, strings.Join(source.Errors, "; "))
	}
	elapsed := (time.Duration(result.DurationMs) * time.Millisecond).Round(time.Second)
	ctx.UI.Infof("Collected %s jobs (%s new) in %s; %s stored.",
		ui.Count(result.TotalJobs), ui.Count(result.NewJobs), elapsed, ui.Count(outcome.TotalStored))
	return nil
}
