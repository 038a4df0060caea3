package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jimezsa/jobcollector/internal/models"
	"github.com/jimezsa/jobcollector/internal/network"
	"github.com/rs/zerolog"
)

// boardLayout describes a listing board that renders one card per posting.
// The selectors in each list are tried in order.
type boardLayout struct {
	name     string
	baseURL  string
	buildURL func(params models.SearchParams) string
	headers  map[string]string

	cards       string
	title       []string
	link        []string
	company     []string
	location    []string
	description []string
	salary      []string
	posted      []string

	defaultLocation string
	region          models.Region
	contractType    models.ContractType
}

// Board is the adapter for every card-based board without its own type.
type Board struct {
	layout boardLayout
	client *network.Client
	logger zerolog.Logger
}

func newBoard(layout boardLayout, client *network.Client, logger zerolog.Logger) *Board {
	return &Board{layout: layout, client: client, logger: logger.With().Str("source", layout.name).Logger()}
}

func (b *Board) Name() string {
	return b.layout.name
}

func (b *Board) Search(ctx context.Context, params models.SearchParams) ([]models.Job, error) {
	doc, err := fetchDocument(ctx, b.client, b.layout.buildURL(params), copyHeaders(b.layout.headers))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.layout.name, err)
	}
	return limitJobs(parseBoardJobs(b.layout, doc, time.Now(), b.logger), params.Limit), nil
}

func parseBoardJobs(layout boardLayout, doc *goquery.Document, now time.Time, logger zerolog.Logger) []models.Job {
	items := parseJSONLDJobs(doc)
	items = append(items, eachListing(doc.Find(layout.cards), logger, func(s *goquery.Selection) listing {
		return parseBoardCard(layout, s)
	})...)
	for i := range items {
		if items[i].Region == "" {
			items[i].Region = layout.region
		}
		if items[i].ContractType == "" {
			items[i].ContractType = layout.contractType
		}
	}
	return buildJobs(layout.name, items, now, logger)
}

func parseBoardCard(layout boardLayout, s *goquery.Selection) listing {
	title := firstText(s, layout.title...)
	company := firstText(s, layout.company...)
	location := firstText(s, layout.location...)

	// Some boards drop the class names; fall back to reading the card lines.
	if title != "" && (company == "" || location == "") {
		lines := cardLines(s, title)
		if company == "" && len(lines) > 0 {
			company = lines[0]
		}
		if location == "" && len(lines) > 1 && company == lines[0] {
			location = lines[1]
		}
	}
	if location == "" {
		location = layout.defaultLocation
	}

	posted := firstAttr(s, "datetime", layout.posted...)
	if posted == "" {
		posted = firstText(s, layout.posted...)
	}

	link := firstAttr(s, "href", layout.link...)
	if link == "" && goquery.NodeName(s) == "a" {
		link = s.AttrOr("href", "")
	}

	return listing{
		Title:       title,
		Company:     company,
		Location:    location,
		Description: firstText(s, layout.description...),
		SalaryText:  firstText(s, layout.salary...),
		PostedText:  posted,
		URL:         absoluteURL(layout.baseURL, link),
	}
}

// cardLines returns the distinct text lines of a card other than the title
// and the usual badge noise.
func cardLines(card *goquery.Selection, title string) []string {
	var out []string
	seen := map[string]struct{}{}
	card.Find("*").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		line := cleanText(s.Text())
		if line == "" || line == title || isNoiseLine(line) {
			return
		}
		if _, ok := seen[line]; ok {
			return
		}
		seen[line] = struct{}{}
		out = append(out, line)
	})
	return out
}

func isNoiseLine(line string) bool {
	switch strings.ToLower(line) {
	case "new", "mới", "hot", "featured", "top", "urgent", "gấp", "save", "apply":
		return true
	}
	return false
}

func copyHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for key, value := range headers {
		out[key] = value
	}
	return out
}

func queryURL(base string, queryKey string) func(models.SearchParams) string {
	return func(params models.SearchParams) string {
		values := url.Values{}
		values.Set(queryKey, params.Query)
		if params.Location != "" {
			values.Set("location", params.Location)
		}
		return base + "?" + values.Encode()
	}
}

var vietnameseHeaders = map[string]string{
	"accept-language": "vi-VN,vi;q=0.9,en-US;q=0.8,en;q=0.7",
}

var (
	weWorkRemotelyLayout = boardLayout{
		name:    SiteWeWorkRemotely,
		baseURL: "https://weworkremotely.com",
		buildURL: func(params models.SearchParams) string {
			values := url.Values{}
			values.Set("term", params.Query)
			return "https://weworkremotely.com/remote-jobs/search?" + values.Encode()
		},
		cards:           "section.jobs li:not(.view-all)",
		title:           []string{".title", ".new-listing__header__title"},
		link:            []string{"a[href^='/remote-jobs/']", ".title a"},
		company:         []string{".company", ".new-listing__company-name"},
		location:        []string{".region", ".new-listing__company-headquarters"},
		description:     []string{".description"},
		posted:          []string{"time", ".new-listing__header__icons__date"},
		defaultLocation: "Remote",
		region:          models.RegionOther,
		contractType:    models.ContractRemote,
	}

	angelListLayout = boardLayout{
		name:            SiteAngelList,
		baseURL:         "https://wellfound.com",
		buildURL:        queryURL("https://wellfound.com/role_locations", "search"),
		cards:           ".job-card, [data-test='JobSearchResult']",
		title:           []string{".job-title", "[data-test='job-title']"},
		link:            []string{".job-link", "a[href*='/jobs/']"},
		company:         []string{".company-name", "[data-test='company-name']"},
		location:        []string{".job-location", "[data-test='job-location']"},
		description:     []string{".job-description"},
		salary:          []string{".salary", "[data-test='compensation']"},
		posted:          []string{"time", ".posted"},
		defaultLocation: "Remote",
	}

	vietnamWorksLayout = boardLayout{
		name:            SiteVietnamWorks,
		baseURL:         "https://www.vietnamworks.com",
		buildURL:        queryURL("https://www.vietnamworks.com/tim-viec-lam", "q"),
		headers:         vietnameseHeaders,
		cards:           ".job-item, .search_list.view_job_item",
		title:           []string{".job-title a", "h2 a"},
		link:            []string{".job-title a", "h2 a"},
		company:         []string{".company-name", ".sc-cdaca-d"},
		location:        []string{".job-location", ".location"},
		description:     []string{".job-description"},
		salary:          []string{".salary"},
		posted:          []string{".job-posted", ".time"},
		defaultLocation: "Vietnam",
		region:          models.RegionAPAC,
	}

	topCVLayout = boardLayout{
		name:            SiteTopCV,
		baseURL:         "https://www.topcv.vn",
		buildURL:        queryURL("https://www.topcv.vn/tim-viec-lam", "q"),
		headers:         vietnameseHeaders,
		cards:           ".job-item, .job-item-search-result",
		title:           []string{".job-title a", "h3.title a"},
		link:            []string{".job-title a", "h3.title a"},
		company:         []string{".company-name", ".company"},
		location:        []string{".job-location", ".address"},
		description:     []string{".job-description"},
		salary:          []string{".salary", ".title-salary"},
		posted:          []string{".job-posted", ".label-update"},
		defaultLocation: "Vietnam",
		region:          models.RegionAPAC,
	}

	itViecLayout = boardLayout{
		name:            SiteITviec,
		baseURL:         "https://itviec.com",
		buildURL:        queryURL("https://itviec.com/it-jobs", "q"),
		headers:         vietnameseHeaders,
		cards:           ".job, .job-card",
		title:           []string{".job-title a", "h3 a", "h3"},
		link:            []string{".job-title a", "h3 a", "[data-search--job-selection-job-url-value]"},
		company:         []string{".company-name", ".logo-employer-card + span a"},
		location:        []string{".job-location", ".text-rich-grey[title]"},
		description:     []string{".job-description"},
		salary:          []string{".salary", ".salary-text"},
		posted:          []string{".job-posted", ".small-text.text-dark-grey"},
		defaultLocation: "Vietnam",
		region:          models.RegionAPAC,
	}

	careerBuilderLayout = boardLayout{
		name:            SiteCareerBuilder,
		baseURL:         "https://careerbuilder.vn",
		buildURL:        queryURL("https://careerbuilder.vn/viec-lam", "keyword"),
		headers:         vietnameseHeaders,
		cards:           ".job-item",
		title:           []string{".job-title a", ".title a"},
		link:            []string{".job-title a", ".title a"},
		company:         []string{".company-name", ".caption a.company-name"},
		location:        []string{".job-location", ".location"},
		description:     []string{".job-description"},
		salary:          []string{".salary"},
		posted:          []string{".job-posted", ".time time"},
		defaultLocation: "Vietnam",
		region:          models.RegionAPAC,
	}
)
