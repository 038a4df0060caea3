// Package store persists the collected corpus and the collection history.
package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jimezsa/jobcollector/internal/dedup"
	"github.com/jimezsa/jobcollector/internal/models"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"

	corpusFile  = "jobs.json"
	sqliteFile  = "jobs.db"
	historyFile = "collection-log.json"
	lockFile    = ".collect.lock"
)

// SalaryStats counts records with and without a parsed salary.
type SalaryStats struct {
	WithSalary    int `json:"withSalary"`
	WithoutSalary int `json:"withoutSalary"`
}

// Stats summarizes a record set. It is always recomputed from the records.
type Stats struct {
	Total          int            `json:"total"`
	BySource       map[string]int `json:"bySource"`
	ByCategory     map[string]int `json:"byCategory"`
	ByRegion       map[string]int `json:"byRegion"`
	ByContractType map[string]int `json:"byContractType"`
	BySalary       SalaryStats    `json:"bySalary"`
}

// Corpus is the persisted document: every stored record plus summary data.
type Corpus struct {
	Jobs        []models.Job `json:"jobs"`
	LastUpdated time.Time    `json:"lastUpdated"`
	Stats       Stats        `json:"stats"`
}

// Store loads and fully overwrites a corpus. Callers serialize writers with
// Lock.
type Store interface {
	Load(ctx context.Context) (Corpus, error)
	Save(ctx context.Context, corpus Corpus) error
	Close() error
}

// Open returns the backend named by backend, rooted at dir.
func Open(backend string, dir string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendJSON:
		return NewFileStore(filepath.Join(dir, corpusFile)), nil
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dir, sqliteFile))
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// HistoryPath returns the collection log location under dir.
func HistoryPath(dir string) string {
	return filepath.Join(dir, historyFile)
}

// LockPath returns the run lock location under dir.
func LockPath(dir string) string {
	return filepath.Join(dir, lockFile)
}

// Merge places incoming records ahead of existing ones and deduplicates the
// combination, so an incoming record wins a tie with a stored duplicate
// unless the stored one carries a later postedAt. A replacing record inherits
// the stored record's user metadata, status and creation time.
func Merge(existing []models.Job, incoming []models.Job, now time.Time) Corpus {
	combined := make([]models.Job, 0, len(incoming)+len(existing))
	combined = append(combined, incoming...)
	combined = append(combined, existing...)

	jobs := dedup.Dedupe(combined)
	carryOver(jobs, existing)
	return Corpus{
		Jobs:        jobs,
		LastUpdated: now,
		Stats:       ComputeStats(jobs),
	}
}

func carryOver(jobs []models.Job, existing []models.Job) {
	stored := make(map[string]models.Job, len(existing))
	for _, job := range existing {
		key := dedup.Key(job)
		if _, ok := stored[key]; !ok {
			stored[key] = job
		}
	}
	for i := range jobs {
		prev, ok := stored[dedup.Key(jobs[i])]
		if !ok {
			continue
		}
		jobs[i].Metadata = prev.Metadata
		if prev.Status != "" {
			jobs[i].Status = prev.Status
		}
		if !prev.CreatedAt.IsZero() {
			jobs[i].CreatedAt = prev.CreatedAt
		}
	}
}

// ComputeStats counts jobs by source, category, region, contract type and
// salary presence.
func ComputeStats(jobs []models.Job) Stats {
	stats := Stats{
		Total:          len(jobs),
		BySource:       map[string]int{},
		ByCategory:     map[string]int{},
		ByRegion:       map[string]int{},
		ByContractType: map[string]int{},
	}
	for _, job := range jobs {
		stats.BySource[job.Source]++
		stats.ByCategory[string(job.Category)]++
		stats.ByRegion[string(job.Region)]++
		stats.ByContractType[string(job.ContractType)]++
		if job.Salary != nil {
			stats.BySalary.WithSalary++
		} else {
			stats.BySalary.WithoutSalary++
		}
	}
	return stats
}

func emptyCorpus() Corpus {
	return Corpus{Jobs: []models.Job{}, Stats: ComputeStats(nil)}
}
