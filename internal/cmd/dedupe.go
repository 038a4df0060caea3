package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jimezsa/jobcollector/internal/dedup"
	"github.com/jimezsa/jobcollector/internal/models"
	"github.com/jimezsa/jobcollector/internal/store"
)

type DedupeCmd struct {
	Run   DedupeRunCmd   `cmd:"" help:"Deduplicate a jobs JSON file, keeping the newest posting per key."`
	Diff  DedupeDiffCmd  `cmd:"" help:"Write jobs from --new that are not in --seen (A-B) to JSON."`
	Merge DedupeMergeCmd `cmd:"" help:"Merge --input into --seen with the store's merge rules."`
}

type DedupeRunCmd struct {
	Input string `name:"input" required:"" help:"Path to jobs JSON file."`
	Out   string `name:"out" required:"" help:"Output path for deduplicated jobs JSON."`
	Stats bool   `name:"stats" help:"Print dedupe stats."`
}

type DedupeDiffCmd struct {
	New   string `name:"new" required:"" help:"Path to new jobs JSON file (A)."`
	Seen  string `name:"seen" required:"" help:"Path to seen jobs JSON file (B). Missing file is treated as empty."`
	Out   string `name:"out" required:"" help:"Output path for unseen jobs JSON file (C)."`
	Stats bool   `name:"stats" help:"Print comparison stats."`
}

type DedupeMergeCmd struct {
	Seen  string `name:"seen" required:"" help:"Path to seen jobs JSON file (B). Missing file is treated as empty."`
	Input string `name:"input" required:"" help:"Path to input jobs JSON file to merge into seen history."`
	Out   string `name:"out" required:"" help:"Output path for merged jobs JSON."`
	Stats bool   `name:"stats" help:"Print merge stats."`
}

func (c *DedupeRunCmd) Run(ctx *Context) error {
	jobs, err := readJobsFile(c.Input)
	if err != nil {
		return fmt.Errorf("read --input: %w", err)
	}

	kept, stats := dedup.DedupeWithStats(jobs)
	if err := writeJobsFile(c.Out, kept); err != nil {
		return fmt.Errorf("write --out: %w", err)
	}

	if c.Stats {
		_, err := fmt.Fprintf(ctx.Out, "input=%d output=%d dropped=%d replaced=%d\n",
			stats.Input, stats.Output, stats.Dropped, stats.Replaced)
		return err
	}
	return nil
}

func (c *DedupeDiffCmd) Run(ctx *Context) error {
	newJobs, err := readJobsFile(c.New)
	if err != nil {
		return fmt.Errorf("read --new: %w", err)
	}
	seenJobs, err := readJobsFileAllowMissing(c.Seen)
	if err != nil {
		return fmt.Errorf("read --seen: %w", err)
	}

	unseenJobs, stats := dedup.Diff(newJobs, seenJobs)
	if err := writeJobsFile(c.Out, unseenJobs); err != nil {
		return fmt.Errorf("write --out: %w", err)
	}

	if c.Stats {
		_, err := fmt.Fprintf(ctx.Out, "total_new=%d total_seen=%d unseen_emitted=%d\n",
			stats.TotalIncoming, stats.TotalExisting, stats.Unseen)
		return err
	}
	return nil
}

func (c *DedupeMergeCmd) Run(ctx *Context) error {
	seenJobs, err := readJobsFileAllowMissing(c.Seen)
	if err != nil {
		return fmt.Errorf("read --seen: %w", err)
	}
	inputJobs, err := readJobsFile(c.Input)
	if err != nil {
		return fmt.Errorf("read --input: %w", err)
	}

	merged := store.Merge(seenJobs, inputJobs, ctx.now())
	if err := writeJobsFile(c.Out, merged.Jobs); err != nil {
		return fmt.Errorf("write --out: %w", err)
	}

	if c.Stats {
		_, err := fmt.Fprintf(ctx.Out, "total_seen=%d total_input=%d total_out=%d\n",
			len(seenJobs), len(inputJobs), len(merged.Jobs))
		return err
	}
	return nil
}

// readJobsFile reads a JSON array of jobs from path.
func readJobsFile(path string) ([]models.Job, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []models.Job{}, nil
	}

	var jobs []models.Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, err
	}
	if jobs == nil {
		return []models.Job{}, nil
	}
	return jobs, nil
}

func readJobsFileAllowMissing(path string) ([]models.Job, error) {
	jobs, err := readJobsFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.Job{}, nil
		}
		return nil, err
	}
	return jobs, nil
}

// writeJobsFile writes jobs as pretty JSON.
func writeJobsFile(path string, jobs []models.Job) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is required")
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
