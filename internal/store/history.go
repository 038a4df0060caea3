package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// MaxHistory bounds the collection log.
const MaxHistory = 100

// SourceLog is one source's line in a history entry.
type SourceLog struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

// HistoryEntry records one persisted collection run.
type HistoryEntry struct {
	LastRun        time.Time   `json:"lastRun"`
	TotalCollected int         `json:"totalCollected"`
	NewJobs        int         `json:"newJobs"`
	TotalStored    int         `json:"totalStored"`
	DurationMs     int64       `json:"durationMs"`
	Sources        []SourceLog `json:"sources"`
}

// ReadHistory reads the collection log. A missing file is an empty log.
func ReadHistory(path string) ([]HistoryEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []HistoryEntry{}, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []HistoryEntry{}, nil
	}

	var entries []HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", path, err)
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}
	return entries, nil
}

// AppendHistory adds entry to the log at path, dropping the oldest entries
// beyond MaxHistory.
func AppendHistory(path string, entry HistoryEntry) error {
	entries, err := ReadHistory(path)
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	if len(entries) > MaxHistory {
		entries = entries[len(entries)-MaxHistory:]
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}
