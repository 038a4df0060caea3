package scraper

import (
	"testing"

	"github.com/jimezsa/jobcollector/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVietnamWorksJobs(t *testing.T) {
	html := `
<div class="job-item">
  <h3 class="job-title"><a href="/devops-engineer-123-jv">DevOps Engineer</a></h3>
  <div class="company-name">FPT Software</div>
  <div class="job-location">Hồ Chí Minh</div>
  <div class="salary">20 - 35 triệu</div>
  <div class="job-posted">2 ngày trước</div>
  <div class="job-description">Docker, Kubernetes, Jenkins</div>
</div>
<div class="job-item">
  <h3 class="job-title"><a href="/no-company-124-jv">Cloud Engineer</a></h3>
</div>`

	jobs := parseBoardJobs(vietnamWorksLayout, mustDoc(t, html), testNow, zerolog.Nop())
	require.Len(t, jobs, 1)

	job := jobs[0]
	assert.Equal(t, SiteVietnamWorks, job.Source)
	assert.Equal(t, "https://www.vietnamworks.com/devops-engineer-123-jv", job.URL)
	assert.Equal(t, models.RegionAPAC, job.Region)
	assert.Equal(t, models.ContractPermanent, job.ContractType)
	require.NotNil(t, job.Salary)
	assert.Equal(t, models.SalaryRange{Min: 20_000_000, Max: 35_000_000, Currency: "VND", Period: models.PeriodMonth}, *job.Salary)
	require.NotNil(t, job.PostedAt)
	assert.True(t, job.PostedAt.Equal(testNow.AddDate(0, 0, -2)), "postedAt %v", job.PostedAt)
	assert.Equal(t, []string{"Docker", "Kubernetes", "Jenkins"}, job.Skills)
}

func TestParseBoardCardFallsBackToCardLines(t *testing.T) {
	html := `
<div class="job-card">
  <h3><a href="/it-jobs/sre-acme-0001">SRE</a></h3>
  <span class="badge">Hot</span>
  <div><span>Acme Vietnam</span></div>
  <div><span>Ha Noi</span></div>
</div>`

	jobs := parseBoardJobs(itViecLayout, mustDoc(t, html), testNow, zerolog.Nop())
	require.Len(t, jobs, 1)
	assert.Equal(t, "Acme Vietnam", jobs[0].Company)
	assert.Equal(t, "Ha Noi", jobs[0].Location)
	assert.Equal(t, "https://itviec.com/it-jobs/sre-acme-0001", jobs[0].URL)
}

func TestParseWeWorkRemotelyJobs(t *testing.T) {
	html := `
<section class="jobs">
  <ul>
    <li class="feature">
      <a href="/remote-jobs/acme-cloud-engineer">
        <span class="company">Acme</span>
        <span class="title">Cloud Engineer</span>
        <span class="region company">Anywhere in the World</span>
        <time datetime="2024-02-25T00:00:00Z"></time>
      </a>
    </li>
    <li class="view-all"><a href="/categories/remote-devops-sysadmin-jobs">View all</a></li>
  </ul>
</section>`

	jobs := parseBoardJobs(weWorkRemotelyLayout, mustDoc(t, html), testNow, zerolog.Nop())
	require.Len(t, jobs, 1)
	assert.Equal(t, models.ContractRemote, jobs[0].ContractType)
	assert.Equal(t, models.CategoryCloud, jobs[0].Category)
	assert.Equal(t, "https://weworkremotely.com/remote-jobs/acme-cloud-engineer", jobs[0].URL)
}

func TestBoardURLs(t *testing.T) {
	params := models.SearchParams{Query: "devops", Location: "Hanoi"}
	assert.Equal(t, "https://careerbuilder.vn/viec-lam?keyword=devops&location=Hanoi", careerBuilderLayout.buildURL(params))
	assert.Equal(t, "https://www.topcv.vn/tim-viec-lam?location=Hanoi&q=devops", topCVLayout.buildURL(params))
	assert.Equal(t, "https://weworkremotely.com/remote-jobs/search?term=devops", weWorkRemotelyLayout.buildURL(params))
}
