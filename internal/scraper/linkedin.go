package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jimezsa/jobcollector/internal/classify"
	"github.com/jimezsa/jobcollector/internal/models"
	"github.com/jimezsa/jobcollector/internal/network"
	"github.com/rs/zerolog"
)

const (
	linkedInSearchURL = "https://www.linkedin.com/jobs-guest/jobs/api/seeMoreJobPostings/search"
	linkedInDetailAPI = "https://www.linkedin.com/jobs-guest/jobs/api/jobPosting/"
	linkedInViewURL   = "https://www.linkedin.com/jobs/view/"

	// Detail pages cost one request each.
	linkedInMaxDetails = 10
)

var linkedInJobID = regexp.MustCompile(`(\d{6,})/?$`)

type LinkedIn struct {
	client *network.Client
	logger zerolog.Logger
}

func NewLinkedIn(client *network.Client, logger zerolog.Logger) *LinkedIn {
	return &LinkedIn{client: client, logger: logger.With().Str("source", SiteLinkedIn).Logger()}
}

func (l *LinkedIn) Name() string {
	return SiteLinkedIn
}

func (l *LinkedIn) Search(ctx context.Context, params models.SearchParams) ([]models.Job, error) {
	doc, err := fetchDocument(ctx, l.client, buildLinkedInURL(params), nil)
	if err != nil {
		return nil, fmt.Errorf("linkedin: %w", err)
	}

	jobs := limitJobs(parseLinkedInJobs(doc, time.Now(), l.logger), params.Limit)
	for i := range jobs {
		if i >= linkedInMaxDetails || ctx.Err() != nil {
			break
		}
		l.enrichFromDetail(ctx, &jobs[i])
	}
	return jobs, nil
}

// enrichFromDetail fills description and salary from the posting page. A
// failed detail fetch leaves the card data as is.
func (l *LinkedIn) enrichFromDetail(ctx context.Context, job *models.Job) {
	detailURL := linkedInDetailURL(job.URL)
	if detailURL == "" {
		return
	}
	doc, err := fetchDocument(ctx, l.client, detailURL, nil)
	if err != nil {
		l.logger.Debug().Err(err).Str("url", detailURL).Msg("detail fetch failed")
		return
	}
	if description := parseLinkedInDescription(doc); description != "" {
		job.Description = description
		job.Category = classify.Categorize(job.Title, description)
		job.Skills = classify.Skills(description)
	}
	if salary := classify.ParseSalary(cleanText(doc.Find(".compensation__salary").First().Text())); salary != nil {
		job.Salary = salary
	}
}

func buildLinkedInURL(params models.SearchParams) string {
	location := params.Location
	if location == "" {
		location = "Worldwide"
	}
	values := url.Values{}
	values.Set("keywords", params.Query)
	values.Set("location", location)
	values.Set("sortBy", "DD")
	values.Set("start", "0")
	return fmt.Sprintf("%s?%s", linkedInSearchURL, values.Encode())
}

func parseLinkedInJobs(doc *goquery.Document, now time.Time, logger zerolog.Logger) []models.Job {
	items := eachListing(doc.Find("li"), logger, parseLinkedInCard)
	return buildJobs(SiteLinkedIn, items, now, logger)
}

func parseLinkedInCard(s *goquery.Selection) listing {
	link := firstAttr(s, "href", "a.base-card__full-link", "a.job-search-card__link", "a.base-card__full-link--link")
	id := linkedInID(link)
	if id == "" {
		id = linkedInID(s.Find("[data-entity-urn]").First().AttrOr("data-entity-urn", ""))
	}
	if id != "" {
		link = linkedInViewURL + id
	}

	location := firstText(s, ".job-search-card__location")
	description := firstText(s, ".job-search-card__snippet")

	posted := firstAttr(s, "datetime", "time")
	if posted == "" {
		posted = firstText(s, "time")
	}

	item := listing{
		OriginalID:  id,
		Title:       firstText(s, ".base-search-card__title", ".job-search-card__title"),
		Company:     firstText(s, ".base-search-card__subtitle", ".job-search-card__company-name"),
		Location:    location,
		Description: description,
		SalaryText:  firstText(s, ".job-search-card__salary-info"),
		PostedText:  posted,
		URL:         link,
	}
	if strings.Contains(strings.ToLower(location+" "+description), "remote") {
		item.ContractType = models.ContractRemote
	}
	return item
}

func linkedInID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if i := strings.IndexAny(value, "?#"); i >= 0 {
		value = value[:i]
	}
	match := linkedInJobID.FindStringSubmatch(value)
	if match == nil {
		return ""
	}
	return match[1]
}

func linkedInDetailURL(link string) string {
	id := linkedInID(link)
	if id == "" {
		return ""
	}
	return linkedInDetailAPI + id
}

func parseLinkedInDescription(doc *goquery.Document) string {
	return cleanText(doc.Find(".show-more-less-html__markup").First().Text())
}
