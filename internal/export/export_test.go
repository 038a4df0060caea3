package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jimezsa/jobcollector/internal/models"
)

var exportNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func exportJobs() []models.Job {
	posted := exportNow.Add(-72 * time.Hour)
	return []models.Job{
		{
			ID: "id-1", Source: "indeed", Title: "SRE", Company: "Acme", Location: "Remote",
			Category: models.CategorySRE, Region: models.RegionOther, ContractType: models.ContractRemote,
			Salary:   &models.SalaryRange{Min: 120000, Max: 150000, Currency: "USD", Period: models.PeriodYear},
			Skills:   []string{"AWS", "Terraform"},
			PostedAt: &posted, Status: models.StatusActive, URL: "https://example.com/jobs/1",
		},
		{ID: "id-2", Source: "upwork", Title: "DevOps", Company: "Upwork Client", URL: ""},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJobs(&buf, exportJobs(), FormatCSV, WriteOptions{}); err != nil {
		t.Fatalf("WriteJobs() error = %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	row := records[1]
	if row[8] != "120,000-150,000 USD/year" {
		t.Fatalf("unexpected salary cell: %q", row[8])
	}
	if row[9] != "AWS;Terraform" {
		t.Fatalf("unexpected skills cell: %q", row[9])
	}
	if records[2][10] != "" {
		t.Fatalf("expected empty posted_at for undated job, got %q", records[2][10])
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJobs(&buf, nil, FormatJSON, WriteOptions{}); err != nil {
		t.Fatalf("WriteJobs() error = %v", err)
	}
	var decoded []models.Job
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded == nil || len(decoded) != 0 {
		t.Fatalf("expected empty array, got %s", buf.String())
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJobs(&buf, exportJobs(), FormatTable, WriteOptions{Now: exportNow}); err != nil {
		t.Fatalf("WriteJobs() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "3 days ago") {
		t.Fatalf("expected relative posted time, got:\n%s", out)
	}
	if !strings.Contains(out, "https://example.com/jobs/1") {
		t.Fatalf("expected full url, got:\n%s", out)
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJobs(&buf, exportJobs()[:1], FormatMarkdown, WriteOptions{}); err != nil {
		t.Fatalf("WriteJobs() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"**SRE** (Acme)", "Source: indeed", "Salary: 120,000-150,000 USD/year", "Skills: AWS, Terraform"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestFormatSalarySingleValue(t *testing.T) {
	got := FormatSalary(&models.SalaryRange{Min: 45, Max: 45, Currency: "USD", Period: models.PeriodHour})
	if got != "45 USD/hour" {
		t.Fatalf("FormatSalary() = %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("Markdown"); err != nil || f != FormatMarkdown {
		t.Fatalf("ParseFormat(markdown) = %q, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
