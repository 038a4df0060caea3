package scraper

import (
	"sort"
	"strings"
	"time"

	"github.com/jimezsa/jobcollector/internal/network"
	"github.com/rs/zerolog"
)

const (
	SiteRemoteOK       = "remoteok"
	SiteWeWorkRemotely = "weworkremotely"
	SiteAngelList      = "angellist"
	SiteIndeed         = "indeed"
	SiteGlassdoor      = "glassdoor"
	SiteAdzuna         = "adzuna"
	SiteLinkedIn       = "linkedin"
	SiteUpwork         = "upwork"
	SiteVietnamWorks   = "vietnamworks"
	SiteTopCV          = "topcv"
	SiteITviec         = "itviec"
	SiteCareerBuilder  = "careerbuilder"
)

// BroadLocations are searched ahead of the caller's locations by sources
// whose priority is BroadPriority or lower.
var BroadLocations = []string{"Remote", "Global", "APAC", "EU", "NA"}

const BroadPriority = 2

// Source is one entry of the source registration table.
type Source struct {
	Name      string
	Adapter   Scraper
	Enabled   bool
	Priority  int
	RateLimit int
}

// Options configures the adapters built by DefaultSources.
type Options struct {
	Rotator *network.Rotator
	Timeout time.Duration
	Logger  zerolog.Logger
	Adzuna  AdzunaCredentials
}

type registration struct {
	name      string
	priority  int
	rateLimit int
	build     func(client *network.Client, opts Options) Scraper
}

func boardBuilder(layout boardLayout) func(*network.Client, Options) Scraper {
	return func(client *network.Client, opts Options) Scraper {
		return newBoard(layout, client, opts.Logger)
	}
}

var registrations = []registration{
	{SiteRemoteOK, 1, 15, func(c *network.Client, o Options) Scraper { return NewRemoteOK(c, o.Logger) }},
	{SiteWeWorkRemotely, 1, 10, boardBuilder(weWorkRemotelyLayout)},
	{SiteAngelList, 1, 10, boardBuilder(angelListLayout)},
	{SiteIndeed, 1, 20, func(c *network.Client, o Options) Scraper { return NewIndeed(c, o.Logger) }},
	{SiteGlassdoor, 1, 15, func(c *network.Client, o Options) Scraper { return NewGlassdoor(c, o.Logger) }},
	{SiteAdzuna, 1, 20, func(c *network.Client, o Options) Scraper { return NewAdzuna(c, o.Logger, o.Adzuna) }},
	{SiteLinkedIn, 2, 25, func(c *network.Client, o Options) Scraper { return NewLinkedIn(c, o.Logger) }},
	{SiteUpwork, 2, 20, func(c *network.Client, o Options) Scraper { return NewUpwork(c, o.Logger) }},
	{SiteVietnamWorks, 3, 30, boardBuilder(vietnamWorksLayout)},
	{SiteTopCV, 3, 30, boardBuilder(topCVLayout)},
	{SiteITviec, 3, 30, boardBuilder(itViecLayout)},
	{SiteCareerBuilder, 3, 20, boardBuilder(careerBuilderLayout)},
}

// DefaultSources builds the registration table, one HTTP client per adapter.
// Adzuna starts disabled unless credentials are configured.
func DefaultSources(opts Options) ([]Source, error) {
	sources := make([]Source, 0, len(registrations))
	for _, reg := range registrations {
		client, err := network.NewClient(opts.Rotator, opts.Timeout)
		if err != nil {
			return nil, err
		}
		enabled := true
		if reg.name == SiteAdzuna {
			enabled = opts.Adzuna.Valid()
		}
		sources = append(sources, Source{
			Name:      reg.name,
			Adapter:   reg.build(client, opts),
			Enabled:   enabled,
			Priority:  reg.priority,
			RateLimit: reg.rateLimit,
		})
	}
	return sources, nil
}

// SiteNames lists every registered site in registration order.
func SiteNames() []string {
	names := make([]string, 0, len(registrations))
	for _, reg := range registrations {
		names = append(names, reg.name)
	}
	return names
}

// SortByPriority orders sources ascending by priority, keeping registration
// order within a priority.
func SortByPriority(sources []Source) {
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Priority < sources[j].Priority
	})
}

// EffectiveLocations returns the locations a source searches for one run.
// Broad sources get the broad tokens followed by the caller's locations,
// without repeats. Other sources get the caller's locations unchanged. With
// nothing to search it returns one empty location, which adapters read as
// "anywhere".
func EffectiveLocations(priority int, locations []string) []string {
	if priority > BroadPriority {
		if len(locations) == 0 {
			return []string{""}
		}
		return append([]string(nil), locations...)
	}
	candidates := append(append([]string(nil), BroadLocations...), locations...)

	out := make([]string, 0, len(candidates))
	seen := map[string]struct{}{}
	for _, location := range candidates {
		location = strings.TrimSpace(location)
		key := strings.ToLower(location)
		if location == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, location)
	}
	if len(out) == 0 {
		out = append(out, "")
	}
	return out
}

func NormalizeSites(sites []string) []string {
	out := make([]string, 0, len(sites))
	for _, site := range sites {
		site = strings.ToLower(strings.TrimSpace(site))
		if site == "" {
			continue
		}
		site = strings.TrimPrefix(site, "www.")
		site = strings.TrimSuffix(site, ".com")
		out = append(out, site)
	}
	return out
}
