package scraper

import (
	"testing"

	"github.com/jimezsa/jobcollector/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUpworkJobs(t *testing.T) {
	html := `
<section>
  <div class="job-tile">
    <h2 class="job-title"><a class="job-link" href="/jobs/Terraform-AWS-setup_~01abc/?referrer=search">Terraform AWS setup</a></h2>
    <div class="job-description">Automate our AWS infrastructure with Terraform and GitHub Actions.</div>
    <span class="budget">Hourly: $45.00 - $60.00</span>
    <time class="job-date" datetime="2024-02-28T10:00:00Z"></time>
  </div>
  <div class="job-tile">
    <h2 class="job-title"><a class="job-link" href="/jobs/sponsored">Sponsored</a></h2>
  </div>
</section>`

	jobs := parseUpworkJobs(mustDoc(t, html), testNow, zerolog.Nop())
	require.Len(t, jobs, 1)

	job := jobs[0]
	assert.Equal(t, "Upwork Client", job.Company)
	assert.Equal(t, "Remote", job.Location)
	assert.Equal(t, models.ContractRemote, job.ContractType)
	assert.Equal(t, models.RegionOther, job.Region)
	assert.Equal(t, "https://www.upwork.com/jobs/Terraform-AWS-setup_~01abc/?referrer=search", job.URL)
	assert.Equal(t, "~01abc", job.SourceData.OriginalID)
	require.NotNil(t, job.Salary)
	assert.Equal(t, models.SalaryRange{Min: 45, Max: 45, Currency: "USD", Period: models.PeriodHour}, *job.Salary)
	require.NotNil(t, job.PostedAt)
	assert.Equal(t, "2024-02-28", job.PostedAt.Format("2006-01-02"))
	assert.Contains(t, job.Skills, "Terraform")
	assert.Contains(t, job.Skills, "GitHub Actions")
}

func TestParseUpworkBudget(t *testing.T) {
	assert.Nil(t, parseUpworkBudget(""))
	assert.Nil(t, parseUpworkBudget("Fixed-price"))

	budget := parseUpworkBudget("Est. budget: $1,500")
	require.NotNil(t, budget)
	assert.Equal(t, 1500.0, budget.Min)
	assert.Equal(t, models.PeriodHour, budget.Period)
}
