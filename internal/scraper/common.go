package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jimezsa/jobcollector/internal/classify"
	"github.com/jimezsa/jobcollector/internal/models"
	"github.com/jimezsa/jobcollector/internal/network"
	"github.com/rs/zerolog"
)

// listing is what a parser pulls off one card or payload item before it is
// turned into a record.
type listing struct {
	OriginalID  string
	Title       string
	Company     string
	Location    string
	Description string
	URL         string
	SalaryText  string
	Salary      *models.SalaryRange
	PostedText  string
	PostedAt    *time.Time

	// Board-specific overrides of the shared classification.
	ContractType models.ContractType
	Region       models.Region
	Tags         []string
}

func fetchDocument(ctx context.Context, client *network.Client, target string, headers map[string]string) (*goquery.Document, error) {
	body, err := client.Get(ctx, target, defaultHeaders(headers))
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

func fetchJSON(ctx context.Context, client *network.Client, target string, headers map[string]string, out any) error {
	if headers == nil {
		headers = map[string]string{}
	}
	if _, ok := headers["accept"]; !ok {
		headers["accept"] = "application/json"
	}
	body, err := client.Get(ctx, target, defaultHeaders(headers))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", target, err)
	}
	return nil
}

func defaultHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		headers = map[string]string{}
	}
	if _, ok := headers["accept"]; !ok {
		headers["accept"] = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	}
	if _, ok := headers["accept-language"]; !ok {
		headers["accept-language"] = "en-US,en;q=0.9"
	}
	return headers
}

// eachListing runs parse over every card in sel. A card whose parser panics
// is skipped and logged; the rest of the page still counts.
func eachListing(sel *goquery.Selection, logger zerolog.Logger, parse func(*goquery.Selection) listing) []listing {
	var out []listing
	sel.Each(func(i int, s *goquery.Selection) {
		item, err := parseCard(s, parse)
		if err != nil {
			logger.Debug().Err(err).Int("card", i).Msg("skipping listing")
			return
		}
		out = append(out, item)
	})
	return out
}

func parseCard(s *goquery.Selection, parse func(*goquery.Selection) listing) (item listing, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse listing: %v", r)
		}
	}()
	return parse(s), nil
}

// buildJobs turns parsed listings into records. Listings without a title,
// company or link are dropped.
func buildJobs(source string, items []listing, now time.Time, logger zerolog.Logger) []models.Job {
	jobs := make([]models.Job, 0, len(items))
	for _, item := range dedupeListings(items) {
		job, ok := newJob(source, item, now)
		if !ok {
			logger.Debug().Str("title", item.Title).Str("url", item.URL).Msg("skipping incomplete listing")
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs
}

func newJob(source string, item listing, now time.Time) (models.Job, bool) {
	title := cleanText(item.Title)
	company := cleanText(item.Company)
	link := strings.TrimSpace(item.URL)
	if title == "" || company == "" || link == "" {
		return models.Job{}, false
	}
	location := cleanText(item.Location)
	description := cleanText(item.Description)

	cls := classify.Classify(title, description, location)
	if item.ContractType != "" {
		cls.ContractType = item.ContractType
	}
	if item.Region != "" {
		cls.Region = item.Region
	}
	cls.Skills = mergeSkills(cls.Skills, item.Tags)

	salary := item.Salary
	if salary == nil {
		salary = classify.ParseSalary(item.SalaryText)
	}
	postedAt := item.PostedAt
	if postedAt == nil {
		postedAt = classify.ParsePostedAt(item.PostedText, now)
	}
	postedRaw := strings.TrimSpace(item.PostedText)
	if postedRaw == "" && postedAt != nil {
		postedRaw = postedAt.UTC().Format(time.RFC3339)
	}

	originalID := strings.TrimSpace(item.OriginalID)
	if originalID == "" {
		originalID = link
	}

	return models.Job{
		ID:           models.RecordID(source, originalID),
		Title:        title,
		Company:      company,
		Location:     location,
		Description:  description,
		Salary:       salary,
		ContractType: cls.ContractType,
		URL:          link,
		Source:       source,
		SourceData: models.SourceData{
			OriginalID:         originalID,
			OriginalURL:        link,
			OriginalPostedDate: postedRaw,
		},
		Category:  cls.Category,
		Region:    cls.Region,
		Skills:    cls.Skills,
		PostedAt:  postedAt,
		Status:    models.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, true
}

func mergeSkills(skills []string, tags []string) []string {
	if len(tags) == 0 {
		return skills
	}
	seen := map[string]struct{}{}
	for _, skill := range skills {
		seen[strings.ToLower(skill)] = struct{}{}
	}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(tag)]; ok {
			continue
		}
		seen[strings.ToLower(tag)] = struct{}{}
		skills = append(skills, tag)
	}
	return skills
}

func cleanText(value string) string {
	value = html.UnescapeString(value)
	return strings.Join(strings.Fields(value), " ")
}

// htmlText flattens an HTML fragment, as shipped in JSON-LD and API
// descriptions, to plain text.
func htmlText(value string) string {
	if !strings.Contains(value, "<") {
		return value
	}
	frag, err := goquery.NewDocumentFromReader(strings.NewReader(value))
	if err != nil {
		return value
	}
	return frag.Text()
}

func absoluteURL(base string, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

func firstText(s *goquery.Selection, selectors ...string) string {
	for _, selector := range selectors {
		if value := cleanText(s.Find(selector).First().Text()); value != "" {
			return value
		}
	}
	return ""
}

func firstAttr(s *goquery.Selection, attr string, selectors ...string) string {
	for _, selector := range selectors {
		if value := strings.TrimSpace(s.Find(selector).First().AttrOr(attr, "")); value != "" {
			return value
		}
	}
	return ""
}

func parseJSONLDJobs(doc *goquery.Document) []listing {
	var items []listing
	doc.Find("script[type='application/ld+json']").Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}

		data, err := decodeJSONLD(raw)
		if err != nil {
			return
		}
		items = append(items, extractJobsFromJSONLD(data)...)
	})
	return dedupeListings(items)
}

func decodeJSONLD(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "<!--")
	raw = strings.TrimSuffix(raw, "-->")
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, "\u2028", "")
	raw = strings.ReplaceAll(raw, "\u2029", "")

	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, err
	}
	return data, nil
}

func extractJobsFromJSONLD(data any) []listing {
	var items []listing

	switch value := data.(type) {
	case []any:
		for _, item := range value {
			items = append(items, extractJobsFromJSONLD(item)...)
		}
	case map[string]any:
		switch strings.ToLower(stringValue(value["@type"], value["type"])) {
		case "jobposting":
			return append(items, listingFromJobPosting(value))
		case "itemlist":
			items = append(items, listingsFromItemList(value)...)
		}
		if graph, ok := value["@graph"]; ok {
			items = append(items, extractJobsFromJSONLD(graph)...)
		}
		if main, ok := value["mainEntity"]; ok {
			items = append(items, extractJobsFromJSONLD(main)...)
		}
		if item, ok := value["item"]; ok {
			items = append(items, extractJobsFromJSONLD(item)...)
		}
	}

	return items
}

func listingsFromItemList(value map[string]any) []listing {
	elements, ok := value["itemListElement"]
	if !ok {
		return nil
	}
	return extractJobsFromJSONLD(elements)
}

func listingFromJobPosting(value map[string]any) listing {
	item := listing{
		OriginalID:  stringValue(mapValue(value["identifier"], "value"), value["identifier"]),
		Title:       stringValue(value["title"], value["name"]),
		Company:     stringValue(mapValue(value["hiringOrganization"], "name"), value["hiringOrganization"]),
		URL:         stringValue(value["url"], value["@id"]),
		Description: stringValue(value["description"]),
		Salary:      salaryFromJSONLD(value["baseSalary"]),
		PostedText:  stringValue(value["datePosted"]),
		Location:    locationFromJSONLD(value["jobLocation"]),
	}
	if strings.EqualFold(stringValue(value["jobLocationType"]), "TELECOMMUTE") {
		item.ContractType = models.ContractRemote
		if item.Location == "" {
			item.Location = "Remote"
		}
	}
	item.Description = htmlText(item.Description)
	return item
}

func salaryFromJSONLD(value any) *models.SalaryRange {
	m, ok := value.(map[string]any)
	if !ok {
		if text, ok := value.(string); ok {
			return classify.ParseSalary(text)
		}
		return nil
	}
	inner, _ := m["value"].(map[string]any)
	if inner == nil {
		return nil
	}
	minValue := floatValue(inner["minValue"], inner["value"])
	maxValue := floatValue(inner["maxValue"], inner["value"])
	if minValue == 0 && maxValue == 0 {
		return nil
	}
	currency := strings.ToUpper(stringValue(m["currency"], inner["currency"]))
	if currency == "" {
		currency = "USD"
	}

	period := models.PeriodYear
	switch strings.ToUpper(stringValue(inner["unitText"], m["unitText"])) {
	case "HOUR":
		period = models.PeriodHour
	case "MONTH":
		period = models.PeriodMonth
	}
	return &models.SalaryRange{Min: minValue, Max: maxValue, Currency: currency, Period: period}
}

func locationFromJSONLD(value any) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case []any:
		var parts []string
		for _, item := range v {
			loc := locationFromJSONLD(item)
			if loc != "" {
				parts = append(parts, loc)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		address := v["address"]
		if addressMap, ok := address.(map[string]any); ok {
			return joinAddress(addressMap)
		}
		return joinAddress(v)
	case string:
		return v
	}

	return ""
}

func joinAddress(value map[string]any) string {
	parts := []string{
		stringValue(value["addressLocality"]),
		stringValue(value["addressRegion"]),
		stringValue(value["addressCountry"]),
	}
	var cleaned []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cleaned = append(cleaned, part)
	}
	return strings.Join(cleaned, ", ")
}

func stringValue(values ...any) string {
	for _, value := range values {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		case float64:
			return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
		case int:
			return fmt.Sprintf("%d", v)
		case int64:
			return fmt.Sprintf("%d", v)
		case json.Number:
			return v.String()
		case map[string]any:
			if name := stringValue(v["name"]); name != "" {
				return name
			}
		}
	}
	return ""
}

func floatValue(values ...any) float64 {
	for _, value := range values {
		switch v := value.(type) {
		case float64:
			if v != 0 {
				return v
			}
		case int:
			if v != 0 {
				return float64(v)
			}
		case string:
			if parsed, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64); err == nil && parsed != 0 {
				return parsed
			}
		}
	}
	return 0
}

func mapValue(value any, key string) any {
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}

// dedupeListings drops repeats within one page, which happens when a board
// ships the same posting as a card and as JSON-LD. A dated repeat replaces an
// undated one.
func dedupeListings(items []listing) []listing {
	index := map[string]int{}
	out := make([]listing, 0, len(items))
	for _, item := range items {
		key := item.URL
		if key == "" {
			key = strings.ToLower(item.Title + "|" + item.Company + "|" + item.Location)
		}
		if key == "||" {
			continue
		}
		if i, ok := index[key]; ok {
			if !out[i].dated() && item.dated() {
				out[i] = item
			}
			continue
		}
		index[key] = len(out)
		out = append(out, item)
	}
	return out
}

func (l listing) dated() bool {
	return l.PostedAt != nil || strings.TrimSpace(l.PostedText) != ""
}
