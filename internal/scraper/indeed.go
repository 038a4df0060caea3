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

const indeedBaseURL = "https://www.indeed.com"

type Indeed struct {
	client *network.Client
	logger zerolog.Logger
}

func NewIndeed(client *network.Client, logger zerolog.Logger) *Indeed {
	return &Indeed{client: client, logger: logger.With().Str("source", SiteIndeed).Logger()}
}

func (i *Indeed) Name() string {
	return SiteIndeed
}

func (i *Indeed) Search(ctx context.Context, params models.SearchParams) ([]models.Job, error) {
	doc, err := fetchDocument(ctx, i.client, buildIndeedURL(params), nil)
	if err != nil {
		return nil, fmt.Errorf("indeed: %w", err)
	}
	return limitJobs(parseIndeedJobs(doc, time.Now(), i.logger), params.Limit), nil
}

func buildIndeedURL(params models.SearchParams) string {
	values := url.Values{}
	values.Set("q", params.Query)
	if params.Location != "" {
		values.Set("l", params.Location)
	}
	values.Set("sort", "date")
	return fmt.Sprintf("%s/jobs?%s", indeedBaseURL, values.Encode())
}

func parseIndeedJobs(doc *goquery.Document, now time.Time, logger zerolog.Logger) []models.Job {
	items := parseJSONLDJobs(doc)
	items = append(items, eachListing(doc.Find(".job_seen_beacon"), logger, parseIndeedCard)...)
	items = append(items, eachListing(doc.Find("a.tapItem"), logger, parseIndeedCard)...)
	return buildJobs(SiteIndeed, items, now, logger)
}

func parseIndeedCard(s *goquery.Selection) listing {
	link := firstAttr(s, "href", ".jobTitle a", "h2.jobTitle a")
	if link == "" {
		link = s.AttrOr("href", "")
	}
	link = absoluteURL(indeedBaseURL, link)

	jk := firstAttr(s, "data-jk", ".jobTitle a", "[data-jk]")
	if jk == "" {
		jk = s.AttrOr("data-jk", "")
	}
	if jk == "" {
		jk = queryParam(link, "jk")
	}
	if jk != "" {
		link = indeedBaseURL + "/viewjob?jk=" + jk
	}

	location := firstText(s, ".companyLocation", "[data-testid='text-location']")
	if location == "" {
		location = "Remote"
	}

	return listing{
		OriginalID:  jk,
		Title:       firstText(s, ".jobTitle a span[title]", ".jobTitle a", "h2.jobTitle span"),
		Company:     firstText(s, ".companyName", "[data-testid='company-name']", "span.companyName"),
		Location:    location,
		Description: firstText(s, ".job-snippet", "div.job-snippet"),
		SalaryText:  firstText(s, ".salary-snippet", ".salary-snippet-container", "[data-testid='attribute_snippet_testid']"),
		PostedText:  firstText(s, ".date", "span.date"),
		URL:         link,
	}
}

func queryParam(link string, key string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get(key))
}

func limitJobs(jobs []models.Job, limit int) []models.Job {
	if limit > 0 && len(jobs) > limit {
		return jobs[:limit]
	}
	return jobs
}
