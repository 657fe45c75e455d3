package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/acmecorp/accesshub/internal/app/domain/catalog"
)

// LoadCatalogFromPath loads and validates a catalog fixture. Any malformed
// entry fails the whole load; callers treat that as fatal at startup.
func LoadCatalogFromPath(path string) ([]catalog.App, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read catalog fixture: %w", err)
	}

	var fixture struct {
		Apps []catalog.App `yaml:"apps"`
	}
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("parse catalog fixture: %w", err)
	}
	if err := ValidateCatalog(fixture.Apps); err != nil {
		return nil, err
	}
	return fixture.Apps, nil
}

// ValidateCatalog checks the invariants every catalog record must satisfy.
func ValidateCatalog(apps []catalog.App) error {
	if len(apps) == 0 {
		return fmt.Errorf("catalog fixture is empty")
	}
	seen := make(map[string]struct{}, len(apps))
	for i, app := range apps {
		if strings.TrimSpace(app.ID) == "" {
			return fmt.Errorf("catalog entry %d: id is required", i)
		}
		if _, dup := seen[app.ID]; dup {
			return fmt.Errorf("catalog entry %d: duplicate id %s", i, app.ID)
		}
		seen[app.ID] = struct{}{}
		if strings.TrimSpace(app.Name) == "" {
			return fmt.Errorf("catalog entry %s: name is required", app.ID)
		}
		if app.Rating < 0 || app.Rating > 5 {
			return fmt.Errorf("catalog entry %s: rating %.2f out of range", app.ID, app.Rating)
		}
		if app.ReviewCount < 0 {
			return fmt.Errorf("catalog entry %s: negative review count", app.ID)
		}
		switch app.BaseStatus {
		case catalog.StatusAvailable, catalog.StatusRestricted:
		default:
			return fmt.Errorf("catalog entry %s: invalid base status %q", app.ID, app.BaseStatus)
		}
		switch app.SecurityLevel {
		case catalog.SecurityHigh, catalog.SecurityMedium, catalog.SecurityLow, "":
		default:
			return fmt.Errorf("catalog entry %s: invalid security level %q", app.ID, app.SecurityLevel)
		}
	}
	return nil
}

// DefaultCatalog returns the built-in application catalog in declaration
// order.
func DefaultCatalog() []catalog.App {
	return []catalog.App{
		{
			ID:               "slack",
			Name:             "Slack",
			Description:      "Team messaging and collaboration hub for channels, huddles and integrations",
			Category:         "Communication",
			Departments:      []string{"Marketing", "Sales", "Engineering", "HR", "Finance", "Design", "Legal", "Operations"},
			Rating:           4.7,
			ReviewCount:      2840,
			Tags:             []string{"chat", "collaboration", "messaging"},
			ComplianceBadges: []string{"SOC2", "GDPR", "ISO27001"},
			BaseStatus:       catalog.StatusAvailable,
			Trending:         true,
			Recommended:      true,
			SecurityLevel:    catalog.SecurityHigh,
			UsageStats:       "12,400 daily users",
			MonthlyCost:      "$8.75",
		},
		{
			ID:               "figma",
			Name:             "Figma",
			Description:      "Collaborative interface design, prototyping and design systems",
			Category:         "Design",
			Departments:      []string{"Design", "Engineering", "Marketing"},
			Rating:           4.8,
			ReviewCount:      1920,
			Tags:             []string{"design", "prototyping", "ui"},
			ComplianceBadges: []string{"SOC2", "GDPR"},
			BaseStatus:       catalog.StatusAvailable,
			Trending:         true,
			SecurityLevel:    catalog.SecurityMedium,
			UsageStats:       "3,100 weekly users",
			MonthlyCost:      "$15.00",
		},
		{
			ID:               "salesforce",
			Name:             "Salesforce",
			Description:      "Customer relationship management platform for pipeline and accounts",
			Category:         "Sales",
			Departments:      []string{"Sales", "Marketing"},
			Rating:           4.3,
			ReviewCount:      3410,
			Tags:             []string{"crm", "sales", "pipeline"},
			ComplianceBadges: []string{"SOC2", "GDPR", "HIPAA", "ISO27001"},
			BaseStatus:       catalog.StatusAvailable,
			Recommended:      true,
			SecurityLevel:    catalog.SecurityHigh,
			UsageStats:       "860 daily users",
			MonthlyCost:      "$165.00",
		},
		{
			ID:               "github",
			Name:             "GitHub",
			Description:      "Source code hosting, review and CI for engineering teams",
			Category:         "Development",
			Departments:      []string{"Engineering"},
			Rating:           4.9,
			ReviewCount:      4150,
			Tags:             []string{"git", "code", "ci"},
			ComplianceBadges: []string{"SOC2", "ISO27001"},
			BaseStatus:       catalog.StatusAvailable,
			Recommended:      true,
			SecurityLevel:    catalog.SecurityHigh,
			UsageStats:       "1,950 daily users",
			MonthlyCost:      "$21.00",
		},
		{
			ID:               "jira",
			Name:             "Jira",
			Description:      "Issue tracking and agile project management",
			Category:         "Project Management",
			Departments:      []string{"Engineering", "Operations", "Design"},
			Rating:           4.1,
			ReviewCount:      2650,
			Tags:             []string{"tickets", "agile", "sprints"},
			ComplianceBadges: []string{"SOC2", "GDPR"},
			BaseStatus:       catalog.StatusAvailable,
			SecurityLevel:    catalog.SecurityMedium,
			UsageStats:       "2,300 daily users",
			MonthlyCost:      "$7.75",
		},
		{
			ID:               "notion",
			Name:             "Notion",
			Description:      "Docs, wikis and lightweight databases for team knowledge",
			Category:         "Productivity",
			Departments:      []string{"Marketing", "HR", "Operations", "Design"},
			Rating:           4.6,
			ReviewCount:      1540,
			Tags:             []string{"docs", "wiki", "notes"},
			ComplianceBadges: []string{"SOC2"},
			BaseStatus:       catalog.StatusAvailable,
			Trending:         true,
			SecurityLevel:    catalog.SecurityMedium,
			UsageStats:       "5,800 weekly users",
			MonthlyCost:      "$10.00",
		},
		{
			ID:               "zoom",
			Name:             "Zoom",
			Description:      "Video conferencing, webinars and meeting rooms",
			Category:         "Communication",
			Departments:      []string{"Marketing", "Sales", "Engineering", "HR", "Finance", "Design", "Legal", "Operations"},
			Rating:           4.4,
			ReviewCount:      3890,
			Tags:             []string{"video", "meetings", "webinar"},
			ComplianceBadges: []string{"SOC2", "GDPR", "HIPAA"},
			BaseStatus:       catalog.StatusAvailable,
			SecurityLevel:    catalog.SecurityMedium,
			UsageStats:       "9,700 weekly users",
			MonthlyCost:      "$13.33",
		},
		{
			ID:               "tableau",
			Name:             "Tableau",
			Description:      "Interactive dashboards and business intelligence analytics",
			Category:         "Analytics",
			Departments:      []string{"Finance", "Operations", "Marketing"},
			Rating:           4.2,
			ReviewCount:      1180,
			Tags:             []string{"analytics", "dashboards", "bi"},
			ComplianceBadges: []string{"SOC2", "HIPAA"},
			BaseStatus:       catalog.StatusAvailable,
			SecurityLevel:    catalog.SecurityHigh,
			UsageStats:       "430 weekly users",
			MonthlyCost:      "$70.00",
		},
		{
			ID:               "workday",
			Name:             "Workday",
			Description:      "HR management, payroll and talent administration",
			Category:         "HR",
			Departments:      []string{"HR", "Finance"},
			Rating:           3.9,
			ReviewCount:      920,
			Tags:             []string{"hr", "payroll", "talent"},
			ComplianceBadges: []string{"SOC2", "GDPR", "ISO27001"},
			BaseStatus:       catalog.StatusRestricted,
			SecurityLevel:    catalog.SecurityHigh,
			UsageStats:       "310 daily users",
		},
		{
			ID:               "aws-console",
			Name:             "AWS Console",
			Description:      "Cloud infrastructure management for production environments",
			Category:         "Infrastructure",
			Departments:      []string{"Engineering", "Operations"},
			Rating:           4.5,
			ReviewCount:      760,
			Tags:             []string{"cloud", "infrastructure", "devops"},
			ComplianceBadges: []string{"SOC2", "ISO27001"},
			BaseStatus:       catalog.StatusRestricted,
			SecurityLevel:    catalog.SecurityHigh,
			UsageStats:       "280 daily users",
		},
		{
			ID:               "docusign",
			Name:             "DocuSign",
			Description:      "Electronic signatures and contract lifecycle management",
			Category:         "Legal",
			Departments:      []string{"Legal", "Sales", "HR"},
			Rating:           4.0,
			ReviewCount:      670,
			Tags:             []string{"contracts", "signatures", "legal"},
			ComplianceBadges: []string{"SOC2", "GDPR", "HIPAA", "ISO27001"},
			BaseStatus:       catalog.StatusAvailable,
			SecurityLevel:    catalog.SecurityHigh,
			UsageStats:       "190 weekly users",
			MonthlyCost:      "$25.00",
		},
		{
			ID:               "quickbooks",
			Name:             "QuickBooks",
			Description:      "Accounting, invoicing and expense tracking",
			Category:         "Finance",
			Departments:      []string{"Finance"},
			Rating:           4.1,
			ReviewCount:      540,
			Tags:             []string{"accounting", "invoicing", "expenses"},
			ComplianceBadges: []string{"SOC2"},
			BaseStatus:       catalog.StatusAvailable,
			SecurityLevel:    catalog.SecurityMedium,
			UsageStats:       "120 daily users",
			MonthlyCost:      "$30.00",
		},
	}
}
