package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jimezsa/jobcollector/internal/models"
	"github.com/jimezsa/jobcollector/internal/network"
	"github.com/rs/zerolog"
)

const (
	upworkBaseURL   = "https://www.upwork.com"
	upworkCompany   = "Upwork Client"
	upworkLocation  = "Remote"
	upworkSearchURL = upworkBaseURL + "/nx/jobs/search/"
)

var upworkAmount = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

type Upwork struct {
	client *network.Client
	logger zerolog.Logger
}

func NewUpwork(client *network.Client, logger zerolog.Logger) *Upwork {
	return &Upwork{client: client, logger: logger.With().Str("source", SiteUpwork).Logger()}
}

func (u *Upwork) Name() string {
	return SiteUpwork
}

// Search ignores the location; every Upwork contract is remote.
func (u *Upwork) Search(ctx context.Context, params models.SearchParams) ([]models.Job, error) {
	doc, err := fetchDocument(ctx, u.client, buildUpworkURL(params), nil)
	if err != nil {
		return nil, fmt.Errorf("upwork: %w", err)
	}
	return limitJobs(parseUpworkJobs(doc, time.Now(), u.logger), params.Limit), nil
}

func buildUpworkURL(params models.SearchParams) string {
	values := url.Values{}
	values.Set("q", params.Query)
	values.Set("sort", "recency")
	values.Set("contractor_tier", "2,3")
	values.Set("t", "0,1")
	return upworkSearchURL + "?" + values.Encode()
}

func parseUpworkJobs(doc *goquery.Document, now time.Time, logger zerolog.Logger) []models.Job {
	items := eachListing(doc.Find(".job-tile, article[data-test='JobTile']"), logger, parseUpworkCard)
	return buildJobs(SiteUpwork, items, now, logger)
}

func parseUpworkCard(s *goquery.Selection) listing {
	link := firstAttr(s, "href", "a.job-link", ".job-title a", "a[data-test='job-tile-title-link']")
	link = absoluteURL(upworkBaseURL, link)

	description := firstText(s, ".job-description", "[data-test='JobDescription'] p", "[data-test='UpCLineClamp JobDescription']")
	posted := firstAttr(s, "datetime", ".job-date", "time")
	if posted == "" {
		posted = firstText(s, ".job-date", "[data-test='job-pubilshed-date'] span")
	}

	item := listing{
		OriginalID:   upworkID(link),
		Title:        firstText(s, ".job-title", "[data-test='job-tile-title-link']", "h2"),
		Company:      upworkCompany,
		Location:     upworkLocation,
		Description:  description,
		Salary:       parseUpworkBudget(firstText(s, ".budget", "[data-test='budget']", "[data-test='is-fixed-price']")),
		PostedText:   posted,
		URL:          link,
		ContractType: models.ContractRemote,
		Region:       models.RegionOther,
	}
	if description == "" {
		// Upwork tiles without a description are ads.
		item.Title = ""
	}
	return item
}

// parseUpworkBudget reads the first amount on the tile. Upwork budgets are
// recorded as USD per hour whether the tile says hourly or fixed.
func parseUpworkBudget(text string) *models.SalaryRange {
	match := upworkAmount.FindString(text)
	if match == "" {
		return nil
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &models.SalaryRange{Min: amount, Max: amount, Currency: "USD", Period: models.PeriodHour}
}

func upworkID(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	path := strings.TrimSuffix(u.Path, "/")
	if i := strings.LastIndex(path, "~"); i >= 0 {
		return path[i:]
	}
	return path
}
