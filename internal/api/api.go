// Package api wires the HTTP routes of the learning service.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/p-n-ai/pai-academy/internal/course"
	"github.com/p-n-ai/pai-academy/internal/plan"
	"github.com/p-n-ai/pai-academy/internal/platform/metrics"
	"github.com/p-n-ai/pai-academy/internal/progress"
	"github.com/p-n-ai/pai-academy/internal/report"
)

const readyTimeout = 2 * time.Second

// HealthChecker is a backend that can be pinged.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Catalog lists and looks up courses.
type Catalog interface {
	AllCourses() []course.Course
	GetCourseBySlug(slug string) (course.Course, bool)
}

// Deps holds what the routes need. Sessions, Gatherer and Checks are optional.
type Deps struct {
	Courses    Catalog
	Plans      *plan.Catalog
	Store      progress.Store
	Sessions   http.Handler
	Gatherer   prometheus.Gatherer
	Checks     map[string]HealthChecker
	AdminToken string
}

// NewMux creates the HTTP router, instrumented with request metrics.
func NewMux(d Deps) http.Handler {
	if d.Plans == nil {
		d.Plans = plan.NewCatalog()
	}
	s := &server{deps: d}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	if d.Gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(d.Gatherer))
	}
	mux.HandleFunc("GET /courses", s.handleCourses)
	mux.HandleFunc("GET /courses/{slug}", s.handleCourse)
	mux.HandleFunc("GET /courses/{slug}/progress", s.handleProgress)
	mux.HandleFunc("GET /plans", s.handlePlans)
	mux.HandleFunc("GET /admin/courses/{slug}/progress.xlsx", s.requireAdmin(s.handleReport))
	if d.Sessions != nil {
		mux.Handle("GET /ws/courses/{slug}", d.Sessions)
	}
	return metrics.Middleware(mux)
}

type server struct {
	deps Deps
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	var failed []string
	for name, check := range s.deps.Checks {
		if err := check.HealthCheck(ctx); err != nil {
			slog.Warn("readiness check failed", "backend", name, "error", err)
			failed = append(failed, name)
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"failed": failed,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

type courseSummary struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Modules     int    `json:"modules"`
	Lessons     int    `json:"lessons"`
}

func (s *server) handleCourses(w http.ResponseWriter, r *http.Request) {
	courses := s.deps.Courses.AllCourses()
	out := make([]courseSummary, 0, len(courses))
	for _, c := range courses {
		out = append(out, courseSummary{
			ID:          c.ID,
			Slug:        c.Slug,
			Title:       c.Title,
			Description: c.Description,
			Modules:     len(c.Modules),
			Lessons:     c.TotalLessons(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleCourse(w http.ResponseWriter, r *http.Request) {
	c, ok := s.deps.Courses.GetCourseBySlug(r.PathValue("slug"))
	if !ok {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *server) handlePlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Plans.All())
}

type progressView struct {
	Course           string   `json:"course"`
	Learner          string   `json:"learner"`
	Progress         float64  `json:"progress"`
	CompletedLessons []string `json:"completedLessons"`
	CourseCompleted  bool     `json:"courseCompleted"`
	CompletionDate   string   `json:"completionDate"`
	TotalLessons     int      `json:"totalLessons"`
}

func (s *server) handleProgress(w http.ResponseWriter, r *http.Request) {
	learner := strings.TrimSpace(r.URL.Query().Get("learner"))
	if learner == "" {
		writeError(w, http.StatusBadRequest, "learner is required")
		return
	}
	c, ok := s.deps.Courses.GetCourseBySlug(r.PathValue("slug"))
	if !ok {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	rec, found, err := s.deps.Store.Load(r.Context(), progress.Key{LearnerID: learner, CourseSlug: c.Slug})
	if err != nil {
		slog.Warn("progress lookup failed", "course", c.Slug, "error", err)
		metrics.ProgressStoreErrors.WithLabelValues("load").Inc()
		writeError(w, http.StatusServiceUnavailable, "progress unavailable")
		return
	}
	if !found {
		rec = progress.NewRecord()
	}

	writeJSON(w, http.StatusOK, progressView{
		Course:           c.Slug,
		Learner:          learner,
		Progress:         progress.ComputePercent(c.CountCompleted(rec.CompletedLessons), c.TotalLessons()),
		CompletedLessons: rec.CompletedLessons,
		CourseCompleted:  rec.CourseCompleted,
		CompletionDate:   rec.CompletionDate,
		TotalLessons:     c.TotalLessons(),
	})
}

func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	c, ok := s.deps.Courses.GetCourseBySlug(r.PathValue("slug"))
	if !ok {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}
	entries, err := s.deps.Store.ListByCourse(r.Context(), c.Slug)
	if err != nil {
		slog.Warn("progress listing failed", "course", c.Slug, "error", err)
		metrics.ProgressStoreErrors.WithLabelValues("list").Inc()
		writeError(w, http.StatusServiceUnavailable, "progress unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+c.Slug+`-progress.xlsx"`)
	if err := report.Write(w, c, entries); err != nil {
		slog.Error("report generation failed", "course", c.Slug, "error", err)
	}
}

// requireAdmin checks the bearer token when one is configured.
func (s *server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.AdminToken == "" {
			next(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.deps.AdminToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
