package enrollment

import (
	"testing"
	"time"

	"github.com/p-n-ai/pai-academy/internal/plan"
)

func TestSubscriptionAllows(t *testing.T) {
	now := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(24 * time.Hour)

	plans := plan.NewCatalog(
		plan.Plan{ID: "premium", Capabilities: plan.Capabilities{Courses: plan.CourseAccess{All: true}}},
		plan.Plan{ID: "basic", Capabilities: plan.Capabilities{Courses: plan.CourseAccess{Slugs: []string{"go-basics"}}}},
	)

	tests := []struct {
		name      string
		planID    string
		expiresAt *time.Time
		slug      string
		want      bool
	}{
		{"premium without expiry", "premium", nil, "rust-intro", true},
		{"premium expired", "premium", &past, "rust-intro", false},
		{"basic listed", "basic", &future, "go-basics", true},
		{"basic unlisted", "basic", &future, "rust-intro", false},
		{"unknown plan", "gold", nil, "go-basics", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := subscriptionAllows(plans, tt.planID, tt.expiresAt, tt.slug, now); got != tt.want {
				t.Errorf("subscriptionAllows() = %v, want %v", got, tt.want)
			}
		})
	}
}
