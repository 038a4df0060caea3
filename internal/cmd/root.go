package cmd

import (
	"github.com/alecthomas/kong"
	"github.com/jimezsa/jobcollector/internal/scraper"
)

type CLI struct {
	Color   string `help:"Color output: auto, always, never." enum:"auto,always,never" default:"auto"`
	JSON    bool   `help:"JSON output to stdout; disables colors."`
	Plain   bool   `help:"TSV output to stdout; disables colors."`
	Verbose bool   `help:"Enable debug logging."`

	VersionFlag kong.VersionFlag `help:"Print version."`

	Version  VersionCmd  `cmd:"" help:"Print version."`
	Config   ConfigCmd   `cmd:"" help:"Manage configuration."`
	Collect  CollectCmd  `cmd:"" help:"Collect jobs from every enabled source into the store."`
	Schedule ScheduleCmd `cmd:"" help:"Collect now and then on a cron schedule."`
	Search   SearchCmd   `cmd:"" help:"Search a few sources live without storing results."`
	LinkedIn SiteCmd     `cmd:"" name:"linkedin" help:"Search LinkedIn."`
	Upwork   SiteCmd     `cmd:"" name:"upwork" help:"Search Upwork."`
	Indeed   SiteCmd     `cmd:"" name:"indeed" help:"Search Indeed."`
	RemoteOK SiteCmd     `cmd:"" name:"remoteok" help:"Search RemoteOK."`
	Jobs     JobsCmd     `cmd:"" help:"Query stored jobs."`
	Stats    StatsCmd    `cmd:"" help:"Print stored corpus statistics."`
	History  HistoryCmd  `cmd:"" help:"Print the collection log."`
	Sources  SourcesCmd  `cmd:"" help:"List registered sources."`
	Dedupe   DedupeCmd   `cmd:"" help:"Deduplicate and diff job JSON files."`
	Proxies  ProxiesCmd  `cmd:"" help:"Proxy utilities."`
}

func NewCLI() *CLI {
	return &CLI{
		LinkedIn: SiteCmd{Site: scraper.SiteLinkedIn},
		Upwork:   SiteCmd{Site: scraper.SiteUpwork},
		Indeed:   SiteCmd{Site: scraper.SiteIndeed},
		RemoteOK: SiteCmd{Site: scraper.SiteRemoteOK},
	}
}
