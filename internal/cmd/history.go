package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jimezsa/jobcollector/internal/store"
)

type HistoryCmd struct {
	Limit int `help:"Number of most recent runs to print." default:"10"`
}

func (h *HistoryCmd) Run(ctx *Context) error {
	entries, err := store.ReadHistory(store.HistoryPath(ctx.DataDir))
	if err != nil {
		return err
	}
	if h.Limit > 0 && len(entries) > h.Limit {
		entries = entries[len(entries)-h.Limit:]
	}

	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		ctx.UI.Infof("No collection runs recorded in %s", ctx.DataDir)
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "run\tcollected\tnew\tstored\tduration\tfailed")
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%s\n",
			humanize.RelTime(entry.LastRun, ctx.now(), "ago", "from now"),
			entry.TotalCollected,
			entry.NewJobs,
			entry.TotalStored,
			(time.Duration(entry.DurationMs) * time.Millisecond).Round(time.Second),
			failedSources(entry.Sources),
		)
	}
	return tw.Flush()
}

func failedSources(sources []store.SourceLog) string {
	var failed []string
	for _, source := range sources {
		if source.Error != "" {
			failed = append(failed, source.Name)
		}
	}
	if len(failed) == 0 {
		return "-"
	}
	return strings.Join(failed, ",")
}
