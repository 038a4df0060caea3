package classify

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jimezsa/jobcollector/internal/models"
)

var absoluteLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

var relativeNumber = regexp.MustCompile(`(\d+)\s*\+?\s*([\p{L}]+)`)

var relativeUnits = []struct {
	prefixes []string
	unit     time.Duration
}{
	{[]string{"min", "phút"}, time.Minute},
	{[]string{"hour", "hr", "h", "giờ", "stunde"}, time.Hour},
	{[]string{"day", "d", "ngày", "tag"}, 24 * time.Hour},
	{[]string{"week", "wk", "w", "tuần", "woche"}, 7 * 24 * time.Hour},
	{[]string{"month", "mo", "tháng", "monat"}, 30 * 24 * time.Hour},
}

// ParsePostedAt resolves absolute ("2024-01-05") and relative ("3 days ago",
// "2 ngày trước", "vor 2 Tagen") posting dates against now. It returns nil
// when the text carries no usable date.
func ParsePostedAt(value string, now time.Time) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range absoluteLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return &ts
		}
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 1_000_000_000 {
		var ts time.Time
		if ms > 1_000_000_000_000 {
			ts = time.UnixMilli(ms).UTC()
		} else {
			ts = time.Unix(ms, 0).UTC()
		}
		return &ts
	}

	lower := strings.ToLower(value)
	switch {
	case strings.Contains(lower, "just posted"), strings.Contains(lower, "today"),
		strings.Contains(lower, "heute"), strings.Contains(lower, "hôm nay"),
		strings.Contains(lower, "just now"):
		ts := now
		return &ts
	case strings.Contains(lower, "yesterday"), strings.Contains(lower, "gestern"),
		strings.Contains(lower, "hôm qua"):
		ts := now.Add(-24 * time.Hour)
		return &ts
	}

	match := relativeNumber.FindStringSubmatch(lower)
	if match == nil {
		return nil
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return nil
	}
	word := match[2]
	for _, candidate := range relativeUnits {
		for _, prefix := range candidate.prefixes {
			if word == prefix || (len(prefix) > 1 && strings.HasPrefix(word, prefix)) {
				ts := now.Add(-time.Duration(n) * candidate.unit)
				return &ts
			}
		}
	}
	return nil
}

var (
	salaryRange  = regexp.MustCompile(`(?i)([$€£])\s?(\d[\d,.]*)\s*(k)?\s*(?:-|–|to)\s*[$€£]?\s?(\d[\d,.]*)\s*(k)?`)
	salarySingle = regexp.MustCompile(`(?i)([$€£])\s?(\d[\d,.]*)\s*(k)?`)
	salaryCode   = regexp.MustCompile(`(?i)(usd|eur|gbp|vnd)\s?(\d[\d,.]*)\s*(?:-|–|to)\s*(\d[\d,.]*)`)
	salaryVND    = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:-|–)\s*(\d+(?:[.,]\d+)?)\s*triệu`)
	salaryVNDOne = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*triệu`)
)

var currencySymbols = map[string]string{"$": "USD", "€": "EUR", "£": "GBP"}

// ParseSalary extracts a salary band from free text such as "$120k - $150k",
// "$45/hr" or "15 - 25 triệu". It returns nil when nothing salary-like is
// found.
func ParseSalary(text string) *models.SalaryRange {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)

	if m := salaryVND.FindStringSubmatch(lower); m != nil {
		return &models.SalaryRange{
			Min:      parseAmount(decimalComma(m[1]), false) * 1_000_000,
			Max:      parseAmount(decimalComma(m[2]), false) * 1_000_000,
			Currency: "VND",
			Period:   models.PeriodMonth,
		}
	}
	if m := salaryVNDOne.FindStringSubmatch(lower); m != nil {
		amount := parseAmount(decimalComma(m[1]), false) * 1_000_000
		return &models.SalaryRange{Min: amount, Max: amount, Currency: "VND", Period: models.PeriodMonth}
	}

	period := salaryPeriod(lower)
	if m := salaryRange.FindStringSubmatch(text); m != nil {
		return &models.SalaryRange{
			Min:      parseAmount(m[2], m[3] != ""),
			Max:      parseAmount(m[4], m[5] != "" || m[3] != ""),
			Currency: currencySymbols[m[1]],
			Period:   period,
		}
	}
	if m := salaryCode.FindStringSubmatch(text); m != nil {
		return &models.SalaryRange{
			Min:      parseAmount(m[2], false),
			Max:      parseAmount(m[3], false),
			Currency: strings.ToUpper(m[1]),
			Period:   period,
		}
	}
	if m := salarySingle.FindStringSubmatch(text); m != nil {
		amount := parseAmount(m[2], m[3] != "")
		if amount == 0 {
			return nil
		}
		return &models.SalaryRange{Min: amount, Max: amount, Currency: currencySymbols[m[1]], Period: period}
	}
	return nil
}

func salaryPeriod(lower string) models.SalaryPeriod {
	switch {
	case strings.Contains(lower, "/hr"), strings.Contains(lower, "hour"), strings.Contains(lower, "/h"):
		return models.PeriodHour
	case strings.Contains(lower, "month"), strings.Contains(lower, "/mo"), strings.Contains(lower, "tháng"):
		return models.PeriodMonth
	default:
		return models.PeriodYear
	}
}

func parseAmount(raw string, thousands bool) float64 {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimRight(raw, ".,")
	raw = strings.ReplaceAll(raw, ",", "")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	if thousands {
		value *= 1000
	}
	return value
}

// decimalComma turns "15,5" into "15.5"; Vietnamese boards write millions
// with a decimal comma.
func decimalComma(raw string) string {
	return strings.Replace(raw, ",", ".", 1)
}
