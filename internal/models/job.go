package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryDevSecOps Category = "DevSecOps"
	CategoryDevOps    Category = "DevOps"
	CategorySRE       Category = "SRE"
	CategoryCloud     Category = "Cloud"
	CategoryOther     Category = "Other"
)

type Region string

const (
	RegionAPAC  Region = "APAC"
	RegionEU    Region = "EU"
	RegionNA    Region = "NA"
	RegionOther Region = "OTHER"
)

type ContractType string

const (
	ContractRemote    ContractType = "remote"
	ContractHybrid    ContractType = "hybrid"
	ContractOnsite    ContractType = "onsite"
	ContractContract  ContractType = "contract"
	ContractPermanent ContractType = "permanent"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusIgnored Status = "ignored"
	StatusApplied Status = "applied"
)

type SalaryPeriod string

const (
	PeriodHour  SalaryPeriod = "hour"
	PeriodMonth SalaryPeriod = "month"
	PeriodYear  SalaryPeriod = "year"
)

// SalaryRange is a parsed compensation band.
type SalaryRange struct {
	Min      float64      `json:"min"`
	Max      float64      `json:"max"`
	Currency string       `json:"currency"`
	Period   SalaryPeriod `json:"period"`
}

// SourceData records where a posting came from.
type SourceData struct {
	OriginalID         string   `json:"originalId"`
	OriginalURL        string   `json:"originalUrl"`
	OriginalPostedDate string   `json:"originalPostedDate"`
	ApplicationURL     string   `json:"applicationUrl,omitempty"`
	Requirements       []string `json:"requirements,omitempty"`
	Benefits           []string `json:"benefits,omitempty"`
}

// Metadata holds user-facing flags. The collection path only initializes it.
type Metadata struct {
	IsBookmarked bool       `json:"isBookmarked"`
	IsIgnored    bool       `json:"isIgnored"`
	IgnoredAt    *time.Time `json:"ignoredAt,omitempty"`
	AppliedAt    *time.Time `json:"appliedAt,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
}

// Classification is the derived part of a record: what an adapter or the
// enrichment pass decided about a posting.
type Classification struct {
	Category     Category     `json:"category"`
	Region       Region       `json:"region"`
	ContractType ContractType `json:"contractType"`
	Skills       []string     `json:"skills"`
}

// Job is the canonical posting produced by source adapters.
type Job struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Company      string       `json:"company"`
	Location     string       `json:"location"`
	Description  string       `json:"description"`
	Salary       *SalaryRange `json:"salary,omitempty"`
	ContractType ContractType `json:"contractType"`
	URL          string       `json:"url"`
	Source       string       `json:"source"`
	SourceData   SourceData   `json:"sourceData"`
	Category     Category     `json:"category"`
	Region       Region       `json:"region"`
	Skills       []string     `json:"skills"`
	PostedAt     *time.Time   `json:"postedAt,omitempty"`
	Status       Status       `json:"status"`
	Metadata     Metadata     `json:"metadata"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`

	// AdapterClassification keeps what the adapter reported before the
	// enrichment pass normalized category, region, contract type and skills.
	AdapterClassification *Classification `json:"adapterClassification,omitempty"`
}

// Classification returns the record's current derived fields.
func (j Job) Classification() Classification {
	return Classification{
		Category:     j.Category,
		Region:       j.Region,
		ContractType: j.ContractType,
		Skills:       append([]string(nil), j.Skills...),
	}
}

// HasPostedAt reports whether the posting date is known.
func (j Job) HasPostedAt() bool {
	return j.PostedAt != nil && !j.PostedAt.IsZero()
}

var recordNamespace = uuid.MustParse("6f1c9a3e-2b7d-5e4a-9c1f-8d3b2a6e4f70")

// RecordID derives a stable identifier from a record's provenance so the same
// listing gets the same id on every run.
func RecordID(source string, originalID string) string {
	name := strings.ToLower(strings.TrimSpace(source)) + ":" + strings.TrimSpace(originalID)
	return uuid.NewSHA1(recordNamespace, []byte(name)).String()
}
