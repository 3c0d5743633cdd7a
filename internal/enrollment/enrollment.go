// Package enrollment decides whether a learner may open a course.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/pai-academy/internal/course"
	"github.com/p-n-ai/pai-academy/internal/plan"
)

const dbTimeout = 5 * time.Second

// Checker reports whether a learner is enrolled in a course.
type Checker interface {
	IsEnrolled(ctx context.Context, learnerID, courseSlug string) (bool, error)
}

// OpenChecker admits everyone.
type OpenChecker struct{}

func (OpenChecker) IsEnrolled(context.Context, string, string) (bool, error) {
	return true, nil
}

// StaticChecker admits learners from a fixed in-memory list.
type StaticChecker struct {
	mu      sync.RWMutex
	courses map[string]map[string]struct{} // learner -> slugs
}

func NewStaticChecker() *StaticChecker {
	return &StaticChecker{courses: make(map[string]map[string]struct{})}
}

// Enroll grants learnerID access to courseSlug.
func (c *StaticChecker) Enroll(learnerID, courseSlug string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.courses[learnerID] == nil {
		c.courses[learnerID] = make(map[string]struct{})
	}
	c.courses[learnerID][course.Slugify(courseSlug)] = struct{}{}
}

func (c *StaticChecker) IsEnrolled(_ context.Context, learnerID, courseSlug string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.courses[learnerID][course.Slugify(courseSlug)]
	return ok, nil
}

// PostgresChecker admits a learner with an explicit enrollments row, or with
// an active subscription whose plan allows the course.
type PostgresChecker struct {
	pool  *pgxpool.Pool
	plans *plan.Catalog
	now   func() time.Time
}

func NewPostgresChecker(pool *pgxpool.Pool, plans *plan.Catalog) (*PostgresChecker, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	if plans == nil {
		plans = plan.NewCatalog()
	}
	return &PostgresChecker{pool: pool, plans: plans, now: time.Now}, nil
}

func (c *PostgresChecker) IsEnrolled(ctx context.Context, learnerID, courseSlug string) (bool, error) {
	if strings.TrimSpace(learnerID) == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var enrolled bool
	err := c.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM enrollments WHERE learner_id = $1 AND course_slug = $2
		)`,
		learnerID, courseSlug,
	).Scan(&enrolled)
	if err != nil {
		return false, fmt.Errorf("query enrollment: %w", err)
	}
	if enrolled {
		return true, nil
	}

	var planID string
	var expiresAt *time.Time
	err = c.pool.QueryRow(ctx,
		`SELECT plan_id, expires_at FROM subscriptions WHERE learner_id = $1`,
		learnerID,
	).Scan(&planID, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query subscription: %w", err)
	}

	return subscriptionAllows(c.plans, planID, expiresAt, courseSlug, c.now()), nil
}

func subscriptionAllows(plans *plan.Catalog, planID string, expiresAt *time.Time, courseSlug string, now time.Time) bool {
	if expiresAt != nil && !expiresAt.After(now) {
		return false
	}
	p, ok := plans.Get(planID)
	if !ok {
		return false
	}
	return p.AllowsCourse(courseSlug)
}
