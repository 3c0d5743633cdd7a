package plan_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/p-n-ai/pai-academy/internal/plan"
)

const samplePlans = `
plans:
  - id: premium
    name: Premium
    price_cents: 2900
    interval: month
    capabilities:
      courses:
        all: true
      events:
        access: true
        discount_percent: 20
      gallery:
        download: true
      shop:
        discount_percent: 15
      certificates: true
      support:
        priority: true
  - id: basic
    name: Basic
    price_cents: 900
    interval: month
    capabilities:
      courses:
        slugs: [go-basics, "Programación Básica"]
      certificates: false
`

func TestParse(t *testing.T) {
	catalog, err := plan.Parse([]byte(samplePlans))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	all := catalog.All()
	if len(all) != 2 {
		t.Fatalf("All() returned %d plans, want 2", len(all))
	}
	if all[0].ID != "basic" {
		t.Errorf("All()[0] = %q, want basic (cheapest first)", all[0].ID)
	}

	premium, ok := catalog.Get("premium")
	if !ok {
		t.Fatal("Get(premium) not found")
	}
	caps := premium.Capabilities
	if !caps.Events.Access || caps.Events.DiscountPercent != 20 {
		t.Errorf("Events = %+v", caps.Events)
	}
	if !caps.Gallery.Download || caps.Shop.DiscountPercent != 15 || !caps.Support.Priority || !caps.Certificates {
		t.Errorf("Capabilities = %+v", caps)
	}
}

func TestPlan_AllowsCourse(t *testing.T) {
	catalog, err := plan.Parse([]byte(samplePlans))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	premium, _ := catalog.Get("premium")
	basic, _ := catalog.Get("basic")

	tests := []struct {
		name string
		plan plan.Plan
		slug string
		want bool
	}{
		{"all courses", premium, "anything", true},
		{"listed slug", basic, "go-basics", true},
		{"listed title normalizes", basic, "programacion-basica", true},
		{"unlisted slug", basic, "rust-intro", false},
		{"zero plan", plan.Plan{}, "go-basics", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.plan.AllowsCourse(tt.slug); got != tt.want {
				t.Errorf("AllowsCourse(%q) = %v, want %v", tt.slug, got, tt.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing id":     "plans:\n  - name: x\n",
		"bad interval":   "plans:\n  - id: x\n    interval: weekly\n",
		"bad discount":   "plans:\n  - id: x\n    capabilities:\n      shop:\n        discount_percent: 150\n",
		"duplicate id":   "plans:\n  - id: x\n  - id: x\n",
		"negative price": "plans:\n  - id: x\n    price_cents: -1\n",
		"not yaml":       "plans: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := plan.Parse([]byte(doc)); err == nil {
				t.Error("Parse() should fail")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	if err := os.WriteFile(path, []byte(samplePlans), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	catalog, err := plan.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, ok := catalog.Get("basic"); !ok {
		t.Error("Get(basic) not found")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	catalog, err := plan.Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(catalog.All()) != 0 {
		t.Error("missing file should give an empty catalog")
	}
}
