package scraper

import (
	"context"
	"errors"

	"github.com/jimezsa/jobcollector/internal/models"
)

// ErrMissingCredentials marks a source that cannot run without configured
// API keys. Callers treat it like any other transport failure of that source.
var ErrMissingCredentials = errors.New("missing credentials")

// Scraper is the Source Adapter contract. Search returns an error only for
// transport failures (network error, non-2xx, timeout, missing credentials);
// individual listings that fail to parse are skipped.
type Scraper interface {
	Name() string
	Search(ctx context.Context, params models.SearchParams) ([]models.Job, error)
}
