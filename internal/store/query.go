package store

import (
	"sort"
	"strings"

	"github.com/jimezsa/jobcollector/internal/models"
)

// Query returns the records matching filter, newest postedAt first. Records
// without a date sort last and keep their stored order among themselves.
func Query(jobs []models.Job, filter models.Filter) []models.Job {
	terms := strings.Fields(strings.ToLower(filter.Query))
	location := strings.ToLower(strings.TrimSpace(filter.Location))

	out := make([]models.Job, 0, len(jobs))
	for _, job := range jobs {
		if !matchesText(job, terms) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(job.Location), location) {
			continue
		}
		if !allowed(filter.Sources, job.Source, strings.EqualFold) {
			continue
		}
		if !allowed(filter.Categories, job.Category, equalFold[models.Category]) {
			continue
		}
		if !allowed(filter.Regions, job.Region, equalFold[models.Region]) {
			continue
		}
		if !allowed(filter.ContractTypes, job.ContractType, equalFold[models.ContractType]) {
			continue
		}
		if !allowed(filter.Statuses, job.Status, equalFold[models.Status]) {
			continue
		}
		if filter.Bookmarked != nil && job.Metadata.IsBookmarked != *filter.Bookmarked {
			continue
		}
		if filter.Ignored != nil && job.Metadata.IsIgnored != *filter.Ignored {
			continue
		}
		out = append(out, job)
	}

	SortByPostedAt(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

// SortByPostedAt orders jobs newest first with undated records last.
func SortByPostedAt(jobs []models.Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		a, b := jobs[i], jobs[j]
		if !a.HasPostedAt() {
			return false
		}
		if !b.HasPostedAt() {
			return true
		}
		return a.PostedAt.After(*b.PostedAt)
	})
}

func matchesText(job models.Job, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	haystack := strings.ToLower(strings.Join([]string{
		job.Title,
		job.Company,
		job.Description,
		strings.Join(job.Skills, " "),
	}, " "))
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

func allowed[T any](allow []T, value T, eq func(a, b T) bool) bool {
	if len(allow) == 0 {
		return true
	}
	for _, candidate := range allow {
		if eq(candidate, value) {
			return true
		}
	}
	return false
}

func equalFold[T ~string](a, b T) bool {
	return strings.EqualFold(string(a), string(b))
}
