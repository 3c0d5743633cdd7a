// Package plan loads the subscription plan catalog and answers what each plan unlocks.
package plan

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/pai-academy/internal/course"
)

// Plan is a subscription tier.
type Plan struct {
	ID           string       `yaml:"id" json:"id"`
	Name         string       `yaml:"name" json:"name"`
	PriceCents   int          `yaml:"price_cents" json:"price_cents"`
	Interval     string       `yaml:"interval" json:"interval"` // "month" or "year"
	Capabilities Capabilities `yaml:"capabilities" json:"capabilities"`
}

// Capabilities lists what a plan unlocks.
type Capabilities struct {
	Courses      CourseAccess   `yaml:"courses" json:"courses"`
	Events       EventAccess    `yaml:"events" json:"events"`
	Gallery      GalleryAccess  `yaml:"gallery" json:"gallery"`
	Shop         ShopAccess     `yaml:"shop" json:"shop"`
	Certificates bool           `yaml:"certificates" json:"certificates"`
	Support      SupportOptions `yaml:"support" json:"support"`
}

// CourseAccess grants either every course or a fixed list of slugs.
type CourseAccess struct {
	All   bool     `yaml:"all" json:"all"`
	Slugs []string `yaml:"slugs" json:"slugs,omitempty"`
}

type EventAccess struct {
	Access          bool `yaml:"access" json:"access"`
	DiscountPercent int  `yaml:"discount_percent" json:"discount_percent"`
}

type GalleryAccess struct {
	Download bool `yaml:"download" json:"download"`
}

type ShopAccess struct {
	DiscountPercent int `yaml:"discount_percent" json:"discount_percent"`
}

type SupportOptions struct {
	Priority bool `yaml:"priority" json:"priority"`
}

// AllowsCourse reports whether the plan grants access to the course slug.
func (p Plan) AllowsCourse(slug string) bool {
	if p.Capabilities.Courses.All {
		return true
	}
	want := course.Slugify(slug)
	for _, s := range p.Capabilities.Courses.Slugs {
		if course.Slugify(s) == want {
			return true
		}
	}
	return false
}

func (p Plan) validate() error {
	if p.ID == "" {
		return fmt.Errorf("plan id is required")
	}
	if p.PriceCents < 0 {
		return fmt.Errorf("plan %s: negative price", p.ID)
	}
	switch p.Interval {
	case "", "month", "year":
	default:
		return fmt.Errorf("plan %s: unknown interval %q", p.ID, p.Interval)
	}
	for name, pct := range map[string]int{
		"events": p.Capabilities.Events.DiscountPercent,
		"shop":   p.Capabilities.Shop.DiscountPercent,
	} {
		if pct < 0 || pct > 100 {
			return fmt.Errorf("plan %s: %s discount %d out of range", p.ID, name, pct)
		}
	}
	return nil
}

// Catalog holds the plans keyed by ID.
type Catalog struct {
	plans map[string]Plan
	mu    sync.RWMutex
}

type document struct {
	Plans []Plan `yaml:"plans"`
}

// Load reads a plan catalog file. A missing file yields an empty catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Warn("plan catalog not found, no plans loaded", "path", path)
		return NewCatalog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading plan catalog: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading plan catalog %s: %w", path, err)
	}
	slog.Info("plan catalog loaded", "plans", len(c.plans), "path", path)
	return c, nil
}

// Parse decodes a plan catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding plans YAML: %w", err)
	}
	c := NewCatalog()
	for _, p := range doc.Plans {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.plans[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plan id %q", p.ID)
		}
		c.plans[p.ID] = p
	}
	return c, nil
}

// NewCatalog builds a catalog from in-memory plans.
func NewCatalog(plans ...Plan) *Catalog {
	c := &Catalog{plans: make(map[string]Plan, len(plans))}
	for _, p := range plans {
		c.plans[p.ID] = p
	}
	return c
}

// Get returns the plan with the given ID.
func (c *Catalog) Get(id string) (Plan, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.plans[id]
	return p, ok
}

// All returns every plan ordered by price, then ID.
func (c *Catalog) All() []Plan {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PriceCents != out[j].PriceCents {
			return out[i].PriceCents < out[j].PriceCents
		}
		return out[i].ID < out[j].ID
	})
	return out
}
