package dedup

import (
	"reflect"
	"testing"
	"time"

	"github.com/jimezsa/jobcollector/internal/models"
)

func day(d int) *time.Time {
	t := time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestKey(t *testing.T) {
	job := models.Job{Title: "SRE Engineer", Company: "ACME", Location: "Remote"}
	got := Key(job)
	want := "sre engineer_acme_remote"
	if got != want {
		t.Fatalf("Key() = %q, want %q", got, want)
	}
}

func TestDedupeKeepsLaterPostedAt(t *testing.T) {
	jobs := []models.Job{
		{ID: "a", Title: "SRE Engineer", Company: "Acme", Location: "Remote", PostedAt: day(1)},
		{ID: "b", Title: "sre engineer", Company: "acme", Location: "remote", PostedAt: day(5)},
		{ID: "c", Title: "SRE Engineer", Company: "Acme", Location: "Remote", PostedAt: day(3)},
	}

	out, stats := DedupeWithStats(jobs)
	if len(out) != 1 {
		t.Fatalf("expected 1 job, got %d", len(out))
	}
	if out[0].ID != "b" {
		t.Fatalf("expected the Jan 5 record to win, got %q", out[0].ID)
	}
	if stats.Input != 3 || stats.Output != 1 || stats.Dropped != 2 || stats.Replaced != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestDedupeEqualDatesKeepFirst(t *testing.T) {
	jobs := []models.Job{
		{ID: "first", Title: "A", Company: "B", PostedAt: day(2)},
		{ID: "second", Title: "A", Company: "B", PostedAt: day(2)},
	}
	out := Dedupe(jobs)
	if len(out) != 1 || out[0].ID != "first" {
		t.Fatalf("expected first-seen record, got %+v", out)
	}
}

func TestDedupeMissingDateRule(t *testing.T) {
	dated := models.Job{ID: "dated", Title: "A", Company: "B", PostedAt: day(2)}
	undated := models.Job{ID: "undated", Title: "A", Company: "B"}

	out := Dedupe([]models.Job{dated, undated})
	if out[0].ID != "dated" {
		t.Fatalf("undated record must not displace a dated one, got %q", out[0].ID)
	}

	out = Dedupe([]models.Job{undated, dated})
	if out[0].ID != "dated" {
		t.Fatalf("dated record must displace an undated one, got %q", out[0].ID)
	}

	other := models.Job{ID: "undated-2", Title: "A", Company: "B"}
	out = Dedupe([]models.Job{undated, other})
	if out[0].ID != "undated" {
		t.Fatalf("undated record keeps its first-seen slot, got %q", out[0].ID)
	}
}

func TestDedupePreservesFirstAppearanceOrder(t *testing.T) {
	jobs := []models.Job{
		{ID: "x1", Title: "X", Company: "C"},
		{ID: "y", Title: "Y", Company: "C"},
		{ID: "x2", Title: "X", Company: "C", PostedAt: day(9)},
		{ID: "z", Title: "Z", Company: "C"},
	}
	out := Dedupe(jobs)
	ids := []string{out[0].ID, out[1].ID, out[2].ID}
	want := []string{"x2", "y", "z"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("order = %v, want %v", ids, want)
	}
}

func TestDedupeIdempotent(t *testing.T) {
	jobs := []models.Job{
		{ID: "1", Title: "DevOps", Company: "Acme", Location: "Berlin", PostedAt: day(1)},
		{ID: "2", Title: "devops", Company: "acme", Location: "berlin", PostedAt: day(4)},
		{ID: "3", Title: "SRE", Company: "Beta"},
		{ID: "4", Title: "SRE", Company: "Beta", Location: "Remote"},
		{ID: "5", Title: "SRE", Company: "Beta"},
		{ID: "6", Title: "Cloud", Company: "Gamma", PostedAt: day(2)},
	}

	once := Dedupe(jobs)
	twice := Dedupe(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("dedupe is not idempotent:\n once=%+v\ntwice=%+v", once, twice)
	}
	if len(once) != 4 {
		t.Fatalf("expected 4 unique jobs, got %d", len(once))
	}
}

func TestDedupeLightIsExactMatch(t *testing.T) {
	jobs := []models.Job{
		{ID: "1", Title: "SRE", Company: "Acme", Location: "Remote"},
		{ID: "2", Title: "SRE", Company: "Acme", Location: "Berlin"},
		{ID: "3", Title: "sre", Company: "Acme"},
	}
	out := DedupeLight(jobs)
	if len(out) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(out))
	}
	if out[0].ID != "1" || out[1].ID != "3" {
		t.Fatalf("unexpected jobs: %+v", out)
	}
}

func TestDiff(t *testing.T) {
	incoming := []models.Job{
		{Title: "Senior Engineer", Company: "Acme", Location: "Remote"},
		{Title: "senior engineer", Company: "ACME", Location: "remote"},
		{Title: "Platform Engineer", Company: "Beta"},
		{Title: "Platform Engineer", Company: "Beta"},
	}
	existing := []models.Job{
		{Title: "SENIOR ENGINEER", Company: "acme", Location: "Remote"},
	}

	unseen, stats := Diff(incoming, existing)
	if len(unseen) != 1 || unseen[0].Title != "Platform Engineer" {
		t.Fatalf("unexpected unseen jobs: %+v", unseen)
	}
	if stats.TotalIncoming != 4 || stats.TotalExisting != 1 || stats.Unseen != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
