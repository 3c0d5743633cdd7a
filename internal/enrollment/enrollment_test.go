package enrollment_test

import (
	"context"
	"testing"

	"github.com/p-n-ai/pai-academy/internal/enrollment"
	"github.com/p-n-ai/pai-academy/internal/plan"
	"github.com/p-n-ai/pai-academy/internal/platform/database/dbtest"
)

func TestOpenChecker(t *testing.T) {
	ok, err := enrollment.OpenChecker{}.IsEnrolled(context.Background(), "anyone", "any-course")
	if err != nil || !ok {
		t.Errorf("IsEnrolled() = %v, %v; want true, nil", ok, err)
	}
}

func TestStaticChecker(t *testing.T) {
	checker := enrollment.NewStaticChecker()
	checker.Enroll("learner-1", "Go Basics")

	tests := []struct {
		learner string
		slug    string
		want    bool
	}{
		{"learner-1", "go-basics", true},
		{"learner-1", "rust-intro", false},
		{"learner-2", "go-basics", false},
	}

	for _, tt := range tests {
		ok, err := checker.IsEnrolled(context.Background(), tt.learner, tt.slug)
		if err != nil {
			t.Fatalf("IsEnrolled() error = %v", err)
		}
		if ok != tt.want {
			t.Errorf("IsEnrolled(%s, %s) = %v, want %v", tt.learner, tt.slug, ok, tt.want)
		}
	}
}

func TestNewPostgresChecker_NilPool(t *testing.T) {
	if _, err := enrollment.NewPostgresChecker(nil, nil); err == nil {
		t.Fatal("NewPostgresChecker(nil) should fail")
	}
}

func TestPostgresChecker_IsEnrolled(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)

	seed := []string{
		`INSERT INTO enrollments (learner_id, course_slug) VALUES ('ada', 'go-basics')`,
		`INSERT INTO subscriptions (learner_id, plan_id, expires_at) VALUES ('bob', 'premium', NOW() + INTERVAL '30 days')`,
		`INSERT INTO subscriptions (learner_id, plan_id, expires_at) VALUES ('cleo', 'premium', NOW() - INTERVAL '1 day')`,
		`INSERT INTO subscriptions (learner_id, plan_id) VALUES ('dan', 'basic')`,
	}
	for _, q := range seed {
		if _, err := db.Pool.Exec(ctx, q); err != nil {
			t.Fatalf("seed %q: %v", q, err)
		}
	}

	plans := plan.NewCatalog(
		plan.Plan{ID: "premium", Capabilities: plan.Capabilities{Courses: plan.CourseAccess{All: true}}},
		plan.Plan{ID: "basic", Capabilities: plan.Capabilities{Courses: plan.CourseAccess{Slugs: []string{"go-basics"}}}},
	)
	checker, err := enrollment.NewPostgresChecker(db.Pool, plans)
	if err != nil {
		t.Fatalf("NewPostgresChecker() error = %v", err)
	}

	tests := []struct {
		name    string
		learner string
		course  string
		want    bool
	}{
		{"enrollment row", "ada", "go-basics", true},
		{"enrolled in another course", "ada", "rust-intro", false},
		{"active subscription", "bob", "rust-intro", true},
		{"expired subscription", "cleo", "go-basics", false},
		{"plan without the course", "dan", "rust-intro", false},
		{"plan with the course", "dan", "go-basics", true},
		{"unknown learner", "eve", "go-basics", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checker.IsEnrolled(ctx, tt.learner, tt.course)
			if err != nil {
				t.Fatalf("IsEnrolled() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsEnrolled(%s, %s) = %v, want %v", tt.learner, tt.course, got, tt.want)
			}
		})
	}
}
