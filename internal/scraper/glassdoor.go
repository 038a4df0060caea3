package scraper

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jimezsa/jobcollector/internal/models"
	"github.com/jimezsa/jobcollector/internal/network"
	"github.com/rs/zerolog"
)

const glassdoorBaseURL = "https://www.glassdoor.com"

type Glassdoor struct {
	client *network.Client
	logger zerolog.Logger
}

func NewGlassdoor(client *network.Client, logger zerolog.Logger) *Glassdoor {
	return &Glassdoor{client: client, logger: logger.With().Str("source", SiteGlassdoor).Logger()}
}

func (g *Glassdoor) Name() string {
	return SiteGlassdoor
}

func (g *Glassdoor) Search(ctx context.Context, params models.SearchParams) ([]models.Job, error) {
	doc, err := fetchDocument(ctx, g.client, buildGlassdoorURL(params), nil)
	if err != nil {
		return nil, fmt.Errorf("glassdoor: %w", err)
	}
	return limitJobs(parseGlassdoorJobs(doc, time.Now(), g.logger), params.Limit), nil
}

func buildGlassdoorURL(params models.SearchParams) string {
	values := url.Values{}
	values.Set("sc.keyword", params.Query)
	if params.Location != "" {
		values.Set("locKeyword", params.Location)
	}
	values.Set("sortBy", "date_desc")
	return fmt.Sprintf("%s/Job/jobs.htm?%s", glassdoorBaseURL, values.Encode())
}

func parseGlassdoorJobs(doc *goquery.Document, now time.Time, logger zerolog.Logger) []models.Job {
	items := parseJSONLDJobs(doc)
	items = append(items, eachListing(doc.Find(".react-job-listing, li[data-test='jobListing']"), logger, parseGlassdoorCard)...)
	return buildJobs(SiteGlassdoor, items, now, logger)
}

func parseGlassdoorCard(s *goquery.Selection) listing {
	link := firstAttr(s, "href", "a.jobLink", "a[data-test='job-link']", "a[data-test='job-title']")
	location := firstText(s, ".jobLocation", ".loc", "[data-test='emp-location']")
	if location == "" {
		location = "Remote"
	}

	originalID := s.AttrOr("data-id", "")
	if originalID == "" {
		originalID = s.AttrOr("data-jobid", "")
	}

	return listing{
		OriginalID:  originalID,
		Title:       firstText(s, "a.jobLink", "[data-test='job-title']", ".jobLink"),
		Company:     firstText(s, ".jobEmployerName", ".employerName", "[data-test='employer-name']", ".jobEmpolyerName"),
		Location:    location,
		Description: firstText(s, ".jobDescriptionContent", "[data-test='descSnippet']"),
		SalaryText:  firstText(s, ".salarySnippet", ".salaryText", "[data-test='detailSalary']"),
		PostedText:  firstText(s, "[data-test='job-age']", ".listing-age"),
		URL:         absoluteURL(glassdoorBaseURL, link),
	}
}
