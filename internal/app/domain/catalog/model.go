package catalog

// Status describes how an application presents to the current user. Available
// and Restricted are intrinsic catalog statuses; Owned and Pending are
// personalization overlays computed by the resolver.
type Status string

const (
	StatusAvailable  Status = "available"
	StatusRestricted Status = "restricted"
	StatusOwned      Status = "owned"
	StatusPending    Status = "pending"
)

// SecurityLevel classifies an application's security posture.
type SecurityLevel string

const (
	SecurityHigh   SecurityLevel = "high"
	SecurityMedium SecurityLevel = "medium"
	SecurityLow    SecurityLevel = "low"
)

// App is an immutable catalog record. The catalog is loaded once at startup
// and never mutated; personalization happens on resolved copies.
type App struct {
	ID               string        `json:"id" yaml:"id"`
	Name             string        `json:"name" yaml:"name"`
	Description      string        `json:"description" yaml:"description"`
	Category         string        `json:"category" yaml:"category"`
	Departments      []string      `json:"departments" yaml:"departments"`
	Rating           float64       `json:"rating" yaml:"rating"`
	ReviewCount      int           `json:"review_count" yaml:"review_count"`
	Tags             []string      `json:"tags" yaml:"tags"`
	ComplianceBadges []string      `json:"compliance_badges" yaml:"compliance_badges"`
	BaseStatus       Status        `json:"base_status" yaml:"base_status"`
	Trending         bool          `json:"trending" yaml:"trending"`
	Recommended      bool          `json:"recommended" yaml:"recommended"`
	SecurityLevel    SecurityLevel `json:"security_level" yaml:"security_level"`
	UsageStats       string        `json:"usage_stats,omitempty" yaml:"usage_stats"`
	MonthlyCost      string        `json:"monthly_cost,omitempty" yaml:"monthly_cost"`
}

// InDepartment reports whether the app is affiliated with the department.
func (a App) InDepartment(department string) bool {
	for _, d := range a.Departments {
		if d == department {
			return true
		}
	}
	return false
}

// ResolvedApp is a catalog record with the effective status for one user.
type ResolvedApp struct {
	App
	Status Status `json:"status"`
}
