package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jimezsa/jobcollector/internal/config"
	"github.com/jimezsa/jobcollector/internal/network"
	"github.com/jimezsa/jobcollector/internal/scraper"
)

const proxyBanDuration = 10 * time.Minute

type SourcesCmd struct{}

type sourceRow struct {
	Name      string `json:"name"`
	Enabled   bool   `json:"enabled"`
	Priority  int    `json:"priority"`
	RateLimit int    `json:"rate_limit"`
}

func (s *SourcesCmd) Run(ctx *Context) error {
	sources, err := buildSources(ctx, nil)
	if err != nil {
		return err
	}
	scraper.SortByPriority(sources)

	rows := make([]sourceRow, 0, len(sources))
	for _, source := range sources {
		rows = append(rows, sourceRow{
			Name:      source.Name,
			Enabled:   source.Enabled,
			Priority:  source.Priority,
			RateLimit: source.RateLimit,
		})
	}

	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	if ctx.PlainText {
		for _, row := range rows {
			fmt.Fprintf(ctx.Out, "%s\t%t\t%d\t%d\n", row.Name, row.Enabled, row.Priority, row.RateLimit)
		}
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "source\tenabled\tpriority\trate/min")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%t\t%d\t%d\n", row.Name, row.Enabled, row.Priority, row.RateLimit)
	}
	return tw.Flush()
}

// buildSources returns the registration table with config overrides applied.
// Every adapter shares rotator, which may be nil.
func buildSources(ctx *Context, rotator *network.Rotator) ([]scraper.Source, error) {
	cfg := ctx.Config
	sources, err := scraper.DefaultSources(scraper.Options{
		Rotator: rotator,
		Timeout: cfg.CollectionConfig().Timeout,
		Logger:  ctx.Logger,
		Adzuna: scraper.AdzunaCredentials{
			AppID:   cfg.Adzuna.AppID,
			AppKey:  cfg.Adzuna.AppKey,
			Country: cfg.Adzuna.Country,
		},
	})
	if err != nil {
		return nil, err
	}
	if err := applyOverrides(sources, cfg.Sources); err != nil {
		return nil, err
	}
	return sources, nil
}

func applyOverrides(sources []scraper.Source, overrides map[string]config.SourceOverride) error {
	index := make(map[string]int, len(sources))
	for i, source := range sources {
		index[source.Name] = i
	}

	for name, override := range overrides {
		key := strings.ToLower(strings.TrimSpace(name))
		i, ok := index[key]
		if !ok {
			return fmt.Errorf("config: unknown source %q", name)
		}
		if override.Enabled != nil {
			sources[i].Enabled = *override.Enabled
		}
		if override.Priority != nil {
			sources[i].Priority = *override.Priority
		}
		if override.RateLimit != nil {
			sources[i].RateLimit = *override.RateLimit
		}
	}
	return nil
}

func loadRotator(flagValue string) (*network.Rotator, error) {
	proxies, err := config.LoadProxies(flagValue)
	if err != nil {
		return nil, err
	}
	if len(proxies) == 0 {
		return nil, nil
	}
	return network.NewRotator(proxies, proxyBanDuration)
}

// logProxyStatus reports how each proxy fared during a run.
func logProxyStatus(ctx *Context, rotator *network.Rotator) {
	if rotator == nil {
		return
	}
	for _, status := range rotator.Status() {
		event := ctx.Logger.Debug().Str("proxy", status.Proxy).Int("uses", status.Uses).Int("bans", status.Bans)
		if !status.BannedUntil.IsZero() {
			event = event.Time("banned_until", status.BannedUntil)
		}
		event.Msg("proxy status")
	}
}
