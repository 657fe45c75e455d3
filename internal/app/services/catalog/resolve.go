package catalog

import (
	"sort"
	"strings"

	"github.com/acmecorp/accesshub/internal/app/domain/catalog"
)

// Sentinel filter values meaning "no filtering on this dimension".
const (
	AllDepartments = "All"
	AllValues      = "all"
)

// Sort keys accepted by Query.
const (
	SortPopular = "popular"
	SortRating  = "rating"
	SortName    = "name"
	// SortNewest orders by descending id string. The catalog carries no
	// creation timestamp, so this is a stand-in ordering, not true recency.
	SortNewest = "newest"
)

// Query describes one catalog view: conjunctive filters plus a ranking key.
type Query struct {
	Department string
	Search     string
	Compliance string
	Status     string
	Sort       string
}

// Resolve overlays ownership and in-flight requests onto the intrinsic
// catalog. Precedence is strict: owned beats pending beats the base status,
// even when an id appears in both sets. Pure; output order matches input.
func Resolve(apps []catalog.App, ownedIDs, pendingIDs []string) []catalog.ResolvedApp {
	owned := toSet(ownedIDs)
	pending := toSet(pendingIDs)

	resolved := make([]catalog.ResolvedApp, 0, len(apps))
	for _, app := range apps {
		status := app.BaseStatus
		if _, ok := owned[app.ID]; ok {
			status = catalog.StatusOwned
		} else if _, ok := pending[app.ID]; ok {
			status = catalog.StatusPending
		}
		resolved = append(resolved, catalog.ResolvedApp{App: app, Status: status})
	}
	return resolved
}

// Apply filters and ranks a resolved catalog. Every active filter must match
// for a record to be included; ranking puts trending first, recommended
// second and the selected sort key last. The sort is stable.
func Apply(apps []catalog.ResolvedApp, q Query) []catalog.ResolvedApp {
	result := make([]catalog.ResolvedApp, 0, len(apps))
	for _, app := range apps {
		if matches(app, q) {
			result = append(result, app)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Trending != b.Trending {
			return a.Trending
		}
		if a.Recommended != b.Recommended {
			return a.Recommended
		}
		switch q.Sort {
		case SortRating:
			return a.Rating > b.Rating
		case SortName:
			return a.Name < b.Name
		case SortNewest:
			return a.ID > b.ID
		case SortPopular, "":
			return a.Rating*float64(a.ReviewCount) > b.Rating*float64(b.ReviewCount)
		default:
			return false
		}
	})
	return result
}

func matches(app catalog.ResolvedApp, q Query) bool {
	if q.Department != "" && q.Department != AllDepartments && !app.InDepartment(q.Department) {
		return false
	}
	if q.Search != "" && !matchesSearch(app, q.Search) {
		return false
	}
	// Badge matching is case-sensitive; badges are a fixed vocabulary.
	if q.Compliance != "" && q.Compliance != AllValues && !contains(app.ComplianceBadges, q.Compliance) {
		return false
	}
	if q.Status != "" && q.Status != AllValues && string(app.Status) != q.Status {
		return false
	}
	return true
}

func matchesSearch(app catalog.ResolvedApp, search string) bool {
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(app.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(app.Description), needle) {
		return true
	}
	for _, tag := range app.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
