package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jimezsa/jobcollector/internal/models"
	"github.com/jimezsa/jobcollector/internal/network"
	"github.com/rs/zerolog"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
)

var adzunaCurrencies = map[string]string{
	"us": "USD", "ca": "CAD", "gb": "GBP", "au": "AUD", "nz": "NZD", "sg": "SGD",
	"in": "INR", "de": "EUR", "fr": "EUR", "nl": "EUR", "it": "EUR", "es": "EUR",
	"at": "EUR", "be": "EUR", "pl": "PLN", "ch": "CHF",
}

// AdzunaCredentials are the app id and key issued by developer.adzuna.com.
type AdzunaCredentials struct {
	AppID   string
	AppKey  string
	Country string
}

func (c AdzunaCredentials) Valid() bool {
	return strings.TrimSpace(c.AppID) != "" && strings.TrimSpace(c.AppKey) != ""
}

type Adzuna struct {
	client *network.Client
	logger zerolog.Logger
	creds  AdzunaCredentials
}

func NewAdzuna(client *network.Client, logger zerolog.Logger, creds AdzunaCredentials) *Adzuna {
	if creds.Country == "" {
		creds.Country = "us"
	}
	creds.Country = strings.ToLower(creds.Country)
	return &Adzuna{client: client, logger: logger.With().Str("source", SiteAdzuna).Logger(), creds: creds}
}

func (a *Adzuna) Name() string {
	return SiteAdzuna
}

type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

type adzunaResult struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Company      adzunaNamed `json:"company"`
	Location     adzunaNamed `json:"location"`
	SalaryMin    float64     `json:"salary_min"`
	SalaryMax    float64     `json:"salary_max"`
	RedirectURL  string      `json:"redirect_url"`
	Created      string      `json:"created"`
	ContractTime string      `json:"contract_time"`
	ContractType string      `json:"contract_type"`
}

type adzunaNamed struct {
	DisplayName string `json:"display_name"`
}

func (a *Adzuna) Search(ctx context.Context, params models.SearchParams) ([]models.Job, error) {
	if !a.creds.Valid() {
		return nil, fmt.Errorf("adzuna: %w", ErrMissingCredentials)
	}

	var resp adzunaResponse
	if err := fetchJSON(ctx, a.client, a.buildURL(params), nil, &resp); err != nil {
		return nil, fmt.Errorf("adzuna: %w", err)
	}
	return limitJobs(parseAdzuna(resp, a.creds.Country, time.Now(), a.logger), params.Limit), nil
}

func (a *Adzuna) buildURL(params models.SearchParams) string {
	values := url.Values{}
	values.Set("app_id", a.creds.AppID)
	values.Set("app_key", a.creds.AppKey)
	values.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	values.Set("what", params.Query)
	if where := adzunaWhere(params.Location); where != "" {
		values.Set("where", where)
	}
	values.Set("sort_by", "date")
	return fmt.Sprintf("%s/%s/search/1?%s", adzunaBaseURL, a.creds.Country, values.Encode())
}

// adzunaWhere drops region tokens the API cannot geocode.
func adzunaWhere(location string) string {
	switch strings.ToLower(strings.TrimSpace(location)) {
	case "", "global", "apac", "eu", "na":
		return ""
	}
	return location
}

func parseAdzuna(resp adzunaResponse, country string, now time.Time, logger zerolog.Logger) []models.Job {
	items := make([]listing, 0, len(resp.Results))
	for _, r := range resp.Results {
		item := listing{
			OriginalID:  r.ID,
			Title:       r.Title,
			Company:     r.Company.DisplayName,
			Location:    r.Location.DisplayName,
			Description: htmlText(r.Description),
			URL:         r.RedirectURL,
			PostedText:  r.Created,
		}
		if r.SalaryMin > 0 || r.SalaryMax > 0 {
			currency := adzunaCurrencies[country]
			if currency == "" {
				currency = "USD"
			}
			item.Salary = &models.SalaryRange{Min: r.SalaryMin, Max: r.SalaryMax, Currency: currency, Period: models.PeriodYear}
		}
		if r.ContractType == "contract" {
			item.ContractType = models.ContractContract
		}
		items = append(items, item)
	}
	return buildJobs(SiteAdzuna, items, now, logger)
}
