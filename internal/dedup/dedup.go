// Package dedup collapses postings that describe the same job.
package dedup

import (
	"strings"

	"github.com/jimezsa/jobcollector/internal/models"
)

const keySeparator = "_"

// Stats captures what a Dedupe pass did.
type Stats struct {
	Input    int
	Output   int
	Dropped  int
	Replaced int
}

// DiffStats captures stats for filtering records already present in a corpus.
type DiffStats struct {
	TotalIncoming int
	TotalExisting int
	Unseen        int
}

// Key builds the case-insensitive title+company+location key for a job.
func Key(job models.Job) string {
	return strings.ToLower(job.Title) + keySeparator +
		strings.ToLower(job.Company) + keySeparator +
		strings.ToLower(job.Location)
}

// LightKey is the exact title+company key used by the read-time aggregator.
func LightKey(job models.Job) string {
	return job.Title + "\x00" + job.Company
}

// Dedupe keeps one record per Key. The first record seen for a key holds its
// slot; a later record replaces it only when its postedAt is strictly after
// the kept one's, or when the kept record has no postedAt and the later one
// does. Output order follows first appearance of each key.
func Dedupe(jobs []models.Job) []models.Job {
	out, _ := DedupeWithStats(jobs)
	return out
}

// DedupeWithStats is Dedupe plus counters for logging.
func DedupeWithStats(jobs []models.Job) ([]models.Job, Stats) {
	stats := Stats{Input: len(jobs)}
	index := make(map[string]int, len(jobs))
	out := make([]models.Job, 0, len(jobs))

	for _, job := range jobs {
		key := Key(job)
		pos, exists := index[key]
		if !exists {
			index[key] = len(out)
			out = append(out, job)
			continue
		}
		if newer(job, out[pos]) {
			out[pos] = job
			stats.Replaced++
		}
		stats.Dropped++
	}

	stats.Output = len(out)
	return out, stats
}

// newer reports whether incoming should replace kept.
func newer(incoming, kept models.Job) bool {
	if !incoming.HasPostedAt() {
		return false
	}
	if !kept.HasPostedAt() {
		return true
	}
	return incoming.PostedAt.After(*kept.PostedAt)
}

// DedupeLight keeps the first record per LightKey.
func DedupeLight(jobs []models.Job) []models.Job {
	seen := make(map[string]struct{}, len(jobs))
	out := make([]models.Job, 0, len(jobs))
	for _, job := range jobs {
		key := LightKey(job)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, job)
	}
	return out
}

// Diff returns the incoming records whose Key is absent from existing.
// Duplicate keys within incoming are reported once.
func Diff(incoming []models.Job, existing []models.Job) ([]models.Job, DiffStats) {
	stats := DiffStats{
		TotalIncoming: len(incoming),
		TotalExisting: len(existing),
	}

	existingKeys := make(map[string]struct{}, len(existing))
	for _, job := range existing {
		existingKeys[Key(job)] = struct{}{}
	}

	incomingKeys := make(map[string]struct{}, len(incoming))
	unseen := make([]models.Job, 0, len(incoming))
	for _, job := range incoming {
		key := Key(job)
		if _, exists := incomingKeys[key]; exists {
			continue
		}
		incomingKeys[key] = struct{}{}
		if _, exists := existingKeys[key]; exists {
			continue
		}
		unseen = append(unseen, job)
	}

	stats.Unseen = len(unseen)
	return unseen, stats
}
