package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jimezsa/jobcollector/internal/store"
	"github.com/jimezsa/jobcollector/internal/ui"
)

type StatsCmd struct{}

func (s *StatsCmd) Run(ctx *Context) error {
	st, err := ctx.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	corpus, err := st.Load(ctx.context())
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}
	stats := store.ComputeStats(corpus.Jobs)

	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			LastUpdated time.Time   `json:"lastUpdated"`
			Stats       store.Stats `json:"stats"`
		}{corpus.LastUpdated, stats})
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "total\t%s\n", ui.Count(stats.Total))
	if !corpus.LastUpdated.IsZero() {
		fmt.Fprintf(tw, "last updated\t%s\n", humanize.RelTime(corpus.LastUpdated, ctx.now(), "ago", "from now"))
	}
	fmt.Fprintf(tw, "with salary\t%s\n", ui.Count(stats.BySalary.WithSalary))
	fmt.Fprintf(tw, "without salary\t%s\n", ui.Count(stats.BySalary.WithoutSalary))
	writeBreakdown(tw, "source", stats.BySource)
	writeBreakdown(tw, "category", stats.ByCategory)
	writeBreakdown(tw, "region", stats.ByRegion)
	writeBreakdown(tw, "contract", stats.ByContractType)
	return tw.Flush()
}

// writeBreakdown prints one line per key, largest count first.
func writeBreakdown(tw *tabwriter.Writer, label string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, key := range keys {
		fmt.Fprintf(tw, "%s: %s\t%s\n", label, key, ui.Count(counts[key]))
	}
}
