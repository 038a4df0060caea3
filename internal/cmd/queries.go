package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const maxQueries = 10

// queryFile is the object form of a --query-file. Both lists are read.
type queryFile struct {
	JobTitles []string `json:"job_titles"`
	Queries   []string `json:"queries"`
}

// resolveQueries combines the comma-separated positional queries with the
// ones from queryFile. Positional queries come first.
func resolveQueries(raw string, queryFile string) ([]string, error) {
	lists := [][]string{splitList(raw)}
	if strings.TrimSpace(queryFile) != "" {
		fromFile, err := loadQueryFile(queryFile)
		if err != nil {
			return nil, err
		}
		lists = append(lists, fromFile)
	}
	return normalizeQueries(lists...)
}

// normalizeQueries trims, drops blanks and case-insensitive repeats, and
// enforces 1..maxQueries.
func normalizeQueries(lists ...[]string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, list := range lists {
		for _, query := range list {
			query = strings.TrimSpace(query)
			key := strings.ToLower(query)
			if query == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, query)
		}
	}

	switch {
	case len(out) == 0:
		return nil, fmt.Errorf("at least one non-empty query is required")
	case len(out) > maxQueries:
		return nil, fmt.Errorf("too many queries: max %d", maxQueries)
	}
	return out, nil
}

// loadQueryFile reads a JSON5 file holding either a string array or an object
// with "job_titles" and/or "queries" arrays.
func loadQueryFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read --query-file %q: %w", path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []string
		if err := json5.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("parse --query-file %q: %w", path, err)
		}
		return list, nil
	}

	var file queryFile
	if err := json5.Unmarshal(trimmed, &file); err != nil {
		return nil, fmt.Errorf("parse --query-file %q: %w", path, err)
	}
	if file.JobTitles == nil && file.Queries == nil {
		return nil, fmt.Errorf("invalid --query-file %q: expected a string array or an object with \"job_titles\" or \"queries\"", path)
	}
	return append(file.JobTitles, file.Queries...), nil
}
