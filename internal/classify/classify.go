// Package classify derives category, region, contract type and skills from
// the free text of a posting. Every function is pure and safe for concurrent
// use.
package classify

import (
	"strings"
	"unicode"

	"github.com/jimezsa/jobcollector/internal/models"
)

type categoryRule struct {
	category models.Category
	keywords []string
}

// Rules are evaluated in order; the first match wins.
var categoryRules = []categoryRule{
	{models.CategoryDevSecOps, []string{"security", "devsecops", "compliance", "audit"}},
	{models.CategoryDevOps, []string{"devops", "ci/cd", "pipeline", "automation"}},
	{models.CategorySRE, []string{"sre", "reliability", "infrastructure"}},
	{models.CategoryCloud, []string{"cloud", "aws", "azure", "gcp"}},
}

type regionRule struct {
	region   models.Region
	keywords []string
}

var regionRules = []regionRule{
	{models.RegionAPAC, []string{
		"apac", "asia", "pacific", "singapore", "japan", "korea", "australia", "india",
		"thailand", "malaysia", "philippines", "indonesia", "china", "hong kong", "taiwan",
		"vietnam", "viet nam", "ho chi minh", "hanoi", "ha noi", "da nang",
	}},
	{models.RegionEU, []string{
		"eu", "emea", "europe", "germany", "france", "uk", "united kingdom", "spain", "italy",
		"netherlands", "sweden", "norway", "denmark", "finland", "poland", "portugal",
		"austria", "belgium", "switzerland", "ireland", "berlin", "london", "paris", "amsterdam",
	}},
	{models.RegionNA, []string{
		"na", "us", "usa", "united states", "canada", "mexico", "america",
	}},
}

var contractRules = []struct {
	needle   string
	contract models.ContractType
}{
	{"remote", models.ContractRemote},
	{"contract", models.ContractContract},
	{"hybrid", models.ContractHybrid},
	{"onsite", models.ContractOnsite},
}

// Vocabulary is the fixed skill list matched by Skills.
var Vocabulary = []string{
	"AWS", "Azure", "GCP", "Google Cloud",
	"Docker", "Kubernetes", "K8s", "OpenShift", "Rancher", "Helm",
	"Terraform", "CloudFormation", "Ansible", "Pulumi", "CDK",
	"Jenkins", "GitLab CI", "GitHub Actions", "Azure DevOps", "CircleCI", "CI/CD",
	"Prometheus", "Grafana", "ELK", "Datadog", "New Relic", "Splunk", "OpenTelemetry",
	"Monitoring", "Logging",
	"Python", "Go", "Bash", "Shell", "PowerShell", "Java", "Node.js",
	"PostgreSQL", "MySQL", "MongoDB", "Redis", "Elasticsearch",
	"Linux", "Networking", "Cloud Native", "Git",
	"SLO", "Incident Response", "FinOps",
	"DevSecOps", "Security", "Compliance", "SOC2", "ISO27001",
}

// Categorize classifies a posting from its title and description.
func Categorize(title, description string) models.Category {
	text := strings.ToLower(title + " " + description)
	for _, rule := range categoryRules {
		if containsAny(text, rule.keywords) {
			return rule.category
		}
	}
	return models.CategoryOther
}

// Region maps a free-text location to a region, checking APAC, EU and NA in
// that order.
func Region(location string) models.Region {
	text := strings.ToLower(location)
	for _, rule := range regionRules {
		if containsAny(text, rule.keywords) {
			return rule.region
		}
	}
	return models.RegionOther
}

// ContractType looks for remote, contract, hybrid and onsite in that order and
// falls back to permanent.
func ContractType(text string) models.ContractType {
	text = strings.ToLower(text)
	for _, rule := range contractRules {
		if strings.Contains(text, rule.needle) {
			return rule.contract
		}
	}
	return models.ContractPermanent
}

// Skills returns every vocabulary entry contained in the description, in
// vocabulary order. Entries match as plain substrings, so "golang" yields Go.
func Skills(description string) []string {
	text := strings.ToLower(description)
	skills := []string{}
	for _, skill := range Vocabulary {
		if strings.Contains(text, strings.ToLower(skill)) {
			skills = append(skills, skill)
		}
	}
	return skills
}

// Classify runs all four helpers the way adapters and the enrichment pass do.
func Classify(title, description, location string) models.Classification {
	return models.Classification{
		Category:     Categorize(title, description),
		Region:       Region(location),
		ContractType: ContractType(location),
		Skills:       Skills(description),
	}
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if containsKeyword(text, keyword) {
			return true
		}
	}
	return false
}

// containsKeyword matches keywords of three characters or fewer only on word
// boundaries ("uk" must not hit "milwaukee"); longer ones are substrings.
func containsKeyword(text, keyword string) bool {
	if keyword == "" {
		return false
	}
	if len(keyword) > 3 {
		return strings.Contains(text, keyword)
	}
	offset := 0
	for {
		idx := strings.Index(text[offset:], keyword)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(keyword)
		if isBoundary(text, start-1) && isBoundary(text, end) {
			return true
		}
		offset = start + 1
	}
}

func isBoundary(text string, idx int) bool {
	if idx < 0 || idx >= len(text) {
		return true
	}
	r := rune(text[idx])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
