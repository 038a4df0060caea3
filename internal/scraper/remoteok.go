package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jimezsa/jobcollector/internal/classify"
	"github.com/jimezsa/jobcollector/internal/models"
	"github.com/jimezsa/jobcollector/internal/network"
	"github.com/rs/zerolog"
)

const remoteOKAPI = "https://remoteok.com/api"

// RemoteOK reads the board's public JSON feed and filters it locally, since
// the feed has no keyword search.
type RemoteOK struct {
	client *network.Client
	logger zerolog.Logger
}

func NewRemoteOK(client *network.Client, logger zerolog.Logger) *RemoteOK {
	return &RemoteOK{client: client, logger: logger.With().Str("source", SiteRemoteOK).Logger()}
}

func (r *RemoteOK) Name() string {
	return SiteRemoteOK
}

type remoteOKItem struct {
	ID          json.RawMessage `json:"id"`
	Slug        string          `json:"slug"`
	Epoch       int64           `json:"epoch"`
	Date        string          `json:"date"`
	Company     string          `json:"company"`
	Position    string          `json:"position"`
	Tags        []string        `json:"tags"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	SalaryMin   float64         `json:"salary_min"`
	SalaryMax   float64         `json:"salary_max"`
	URL         string          `json:"url"`
	ApplyURL    string          `json:"apply_url"`
}

func (r *RemoteOK) Search(ctx context.Context, params models.SearchParams) ([]models.Job, error) {
	var payload []json.RawMessage
	if err := fetchJSON(ctx, r.client, remoteOKAPI, nil, &payload); err != nil {
		return nil, fmt.Errorf("remoteok: %w", err)
	}
	return limitJobs(parseRemoteOK(payload, params.Query, time.Now(), r.logger), params.Limit), nil
}

func parseRemoteOK(payload []json.RawMessage, query string, now time.Time, logger zerolog.Logger) []models.Job {
	terms := strings.Fields(strings.ToLower(query))

	var items []listing
	for i, raw := range payload {
		var item remoteOKItem
		if err := json.Unmarshal(raw, &item); err != nil {
			logger.Debug().Err(err).Int("item", i).Msg("skipping listing")
			continue
		}
		// The first element of the feed is a legal notice.
		if item.Position == "" {
			continue
		}
		haystack := strings.ToLower(item.Position + " " + strings.Join(item.Tags, " ") + " " + item.Description)
		if !containsTerms(haystack, terms) {
			continue
		}
		items = append(items, remoteOKListing(item))
	}
	return buildJobs(SiteRemoteOK, items, now, logger)
}

func remoteOKListing(item remoteOKItem) listing {
	location := item.Location
	if location == "" {
		location = "Remote"
	}
	link := item.URL
	if link == "" && item.Slug != "" {
		link = "https://remoteok.com/remote-jobs/" + item.Slug
	}

	out := listing{
		OriginalID:   strings.Trim(string(item.ID), `"`),
		Title:        item.Position,
		Company:      item.Company,
		Location:     location,
		Description:  htmlText(item.Description),
		URL:          link,
		PostedText:   item.Date,
		ContractType: models.ContractRemote,
		Tags:         classify.Skills(strings.Join(item.Tags, " ")),
	}
	if out.PostedText == "" && item.Epoch > 0 {
		ts := time.Unix(item.Epoch, 0).UTC()
		out.PostedAt = &ts
	}
	if item.SalaryMin > 0 || item.SalaryMax > 0 {
		out.Salary = &models.SalaryRange{Min: item.SalaryMin, Max: item.SalaryMax, Currency: "USD", Period: models.PeriodYear}
	}
	return out
}

func containsTerms(haystack string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}
