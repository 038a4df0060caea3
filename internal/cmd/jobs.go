package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jimezsa/jobcollector/internal/export"
	"github.com/jimezsa/jobcollector/internal/models"
	"github.com/jimezsa/jobcollector/internal/store"
)

type JobsCmd struct {
	Query         string `arg:"" optional:"" help:"Free-text terms matched against title, company, description and skills."`
	Location      string `help:"Location substring."`
	Sources       string `help:"Comma-separated sources."`
	Categories    string `help:"Comma-separated categories."`
	Regions       string `help:"Comma-separated regions (APAC, EU, NA, OTHER)."`
	ContractTypes string `name:"contract-types" help:"Comma-separated contract types."`
	Statuses      string `help:"Comma-separated statuses (active, expired, ignored, applied)."`
	Bookmarked    bool   `help:"Only bookmarked jobs."`
	HideIgnored   bool   `name:"hide-ignored" help:"Leave out ignored jobs."`
	Limit         int    `help:"Maximum jobs to print." default:"50"`
	Format        string `help:"Output format: csv, json, md." enum:",csv,json,md" default:""`
	Output        string `name:"output" short:"o" help:"Write output to a file."`
}

func (c *JobsCmd) Run(ctx *Context) error {
	st, err := ctx.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	corpus, err := st.Load(ctx.context())
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}

	jobs := store.Query(corpus.Jobs, c.filter())

	format, err := chooseFormat(ctx, c.Format, c.Output)
	if err != nil {
		return err
	}

	writer := ctx.Out
	if c.Output != "" {
		file, err := os.Create(c.Output)
		if err != nil {
			return err
		}
		defer file.Close()
		writer = file
	}

	colorEnabled := ctx.UI != nil && ctx.UI.ColorEnabled
	return export.WriteJobs(writer, jobs, format, export.WriteOptions{
		ColorEnabled: colorEnabled,
		Hyperlinks:   colorEnabled && isTTY(writer),
		LinkStyle:    export.LinkStyleShort,
		Now:          ctx.now(),
	})
}

func (c *JobsCmd) filter() models.Filter {
	filter := models.Filter{
		Query:    strings.TrimSpace(c.Query),
		Location: strings.TrimSpace(c.Location),
		Sources:  splitList(c.Sources),
		Limit:    c.Limit,
	}
	for _, value := range splitList(c.Categories) {
		filter.Categories = append(filter.Categories, models.Category(value))
	}
	for _, value := range splitList(c.Regions) {
		filter.Regions = append(filter.Regions, models.Region(value))
	}
	for _, value := range splitList(c.ContractTypes) {
		filter.ContractTypes = append(filter.ContractTypes, models.ContractType(value))
	}
	for _, value := range splitList(c.Statuses) {
		filter.Statuses = append(filter.Statuses, models.Status(value))
	}
	if c.Bookmarked {
		yes := true
		filter.Bookmarked = &yes
	}
	if c.HideIgnored {
		no := false
		filter.Ignored = &no
	}
	return filter
}
