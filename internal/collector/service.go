package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/jimezsa/jobcollector/internal/dedup"
	"github.com/jimezsa/jobcollector/internal/store"
	"github.com/rs/zerolog"
)

// Outcome is a persisted run: the run result plus the corpus it produced.
type Outcome struct {
	Result      Result       `json:"result"`
	TotalStored int          `json:"totalStored"`
	Corpus      store.Corpus `json:"-"`
}

// Service runs a collection under the data directory lock and merges the
// output into the stored corpus.
type Service struct {
	collector *Collector
	store     store.Store
	dataDir   string
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(collector *Collector, st store.Store, dataDir string, logger zerolog.Logger) *Service {
	return &Service{
		collector: collector,
		store:     st,
		dataDir:   dataDir,
		logger:    logger,
		now:       collector.now,
	}
}

// Collect returns store.ErrLocked when another run holds the data directory.
// Load, save and history failures are returned as errors; source failures
// only show up in the result.
func (s *Service) Collect(ctx context.Context, req Request) (Outcome, error) {
	lock, err := store.AcquireLock(store.LockPath(s.dataDir))
	if err != nil {
		return Outcome{}, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			s.logger.Warn().Err(err).Msg("release run lock")
		}
	}()

	existing, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("load corpus")
		return Outcome{}, fmt.Errorf("load corpus: %w", err)
	}

	result, err := s.collector.Run(ctx, req)
	if err != nil {
		return Outcome{Result: result}, err
	}

	unseen, _ := dedup.Diff(result.Jobs, existing.Jobs)
	result.NewJobs = len(unseen)

	corpus := store.Merge(existing.Jobs, result.Jobs, s.now())
	if err := s.store.Save(ctx, corpus); err != nil {
		s.logger.Error().Err(err).Msg("save corpus")
		return Outcome{Result: result}, fmt.Errorf("save corpus: %w", err)
	}

	entry := historyEntry(result, len(corpus.Jobs), s.now())
	if err := store.AppendHistory(store.HistoryPath(s.dataDir), entry); err != nil {
		s.logger.Error().Err(err).Msg("append collection history")
		return Outcome{Result: result, TotalStored: len(corpus.Jobs), Corpus: corpus}, fmt.Errorf("append history: %w", err)
	}

	s.logger.Info().
		Int("collected", result.TotalJobs).
		Int("new", result.NewJobs).
		Int("stored", len(corpus.Jobs)).
		Msg("corpus updated")

	return Outcome{Result: result, TotalStored: len(corpus.Jobs), Corpus: corpus}, nil
}

func historyEntry(result Result, stored int, now time.Time) store.HistoryEntry {
	entry := store.HistoryEntry{
		LastRun:        now,
		TotalCollected: result.TotalJobs,
		NewJobs:        result.NewJobs,
		TotalStored:    stored,
		DurationMs:     result.DurationMs,
		Sources:        make([]store.SourceLog, 0, len(result.Order)),
	}
	for _, name := range result.Order {
		outcome := result.PerSource[name]
		line := store.SourceLog{Name: name, Count: outcome.JobsCollected}
		if len(outcome.Errors) > 0 {
			line.Error = outcome.Errors[len(outcome.Errors)-1]
		}
		entry.Sources = append(entry.Sources, line)
	}
	return entry
}
