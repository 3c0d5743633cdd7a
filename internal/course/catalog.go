// Package course holds the course catalog and the lesson graph addressing rules.
package course

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog loads and caches course definitions from the filesystem.
type Catalog struct {
	rootDir string
	courses map[string]Course // keyed by slug
	mu      sync.RWMutex
}

// NewCatalog creates a catalog and loads every course YAML under rootDir.
func NewCatalog(rootDir string) (*Catalog, error) {
	c := &Catalog{
		rootDir: rootDir,
		courses: make(map[string]Course),
	}

	if err := c.loadAll(); err != nil {
		return nil, fmt.Errorf("loading course catalog: %w", err)
	}

	slog.Info("course catalog loaded", "courses", len(c.courses), "root", rootDir)
	return c, nil
}

// NewStaticCatalog builds a catalog from in-memory courses.
func NewStaticCatalog(courses ...Course) *Catalog {
	c := &Catalog{courses: make(map[string]Course, len(courses))}
	for _, crs := range courses {
		c.add(crs, "static")
	}
	return c
}

// GetCourseBySlug returns the course with the given slug. The slug is
// normalized first, so "Go Básico" finds "go-basico".
func (c *Catalog) GetCourseBySlug(slug string) (Course, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	crs, ok := c.courses[Slugify(slug)]
	return crs, ok
}

// AllCourses returns every course ordered by slug.
func (c *Catalog) AllCourses() []Course {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Course, 0, len(c.courses))
	for _, crs := range c.courses {
		out = append(out, crs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

func (c *Catalog) loadAll() error {
	if _, err := os.Stat(c.rootDir); err != nil {
		return err
	}
	return filepath.Walk(c.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			return c.loadCourse(path)
		}
		return nil
	})
}

func (c *Catalog) loadCourse(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	crs, err := ParseCourse(data)
	if err != nil {
		slog.Warn("skipping invalid course YAML", "path", path, "error", err)
		return nil
	}

	c.add(crs, path)
	return nil
}

func (c *Catalog) add(crs Course, source string) {
	if crs.Slug == "" {
		crs.Slug = Slugify(crs.Title)
	}
	crs.Slug = Slugify(crs.Slug)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.courses[crs.Slug]; dup {
		slog.Warn("duplicate course slug, keeping first", "slug", crs.Slug, "source", source)
		return
	}
	c.courses[crs.Slug] = crs
}

// ParseCourse decodes and validates a single course document.
func ParseCourse(data []byte) (Course, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Course{}, fmt.Errorf("decoding course YAML: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return Course{}, err
	}

	var crs Course
	if err := yaml.Unmarshal(data, &crs); err != nil {
		return Course{}, fmt.Errorf("decoding course YAML: %w", err)
	}
	return crs, nil
}
