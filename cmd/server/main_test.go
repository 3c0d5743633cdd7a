package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-academy/internal/platform/config"
)

const testCourse = `
id: course-1
slug: intro
title: Intro
modules:
  - id: m1
    title: Only
    lessons:
      - id: l1
        title: Welcome
        type: video
`

func TestNewApp_MemoryBackend(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "intro.yaml"), []byte(testCourse), 0o644); err != nil {
		t.Fatalf("write course: %v", err)
	}

	cfg := &config.Config{
		Progress:    config.ProgressConfig{Backend: config.BackendMemory},
		Enrollment:  config.EnrollmentConfig{Mode: config.EnrollmentOpen},
		Quiz:        config.QuizConfig{PassPercent: 70},
		CatalogPath: dir,
		PlansPath:   filepath.Join(dir, "plans.yaml"),
	}
	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.close()

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/healthz", http.StatusOK},
		{"/readyz", http.StatusOK},
		{"/courses/intro", http.StatusOK},
		{"/plans", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestNewApp_MissingCatalog(t *testing.T) {
	cfg := &config.Config{
		Progress:    config.ProgressConfig{Backend: config.BackendMemory},
		Enrollment:  config.EnrollmentConfig{Mode: config.EnrollmentOpen},
		CatalogPath: filepath.Join(t.TempDir(), "nope"),
	}
	if _, err := newApp(context.Background(), cfg); err == nil {
		t.Fatal("newApp() should fail without a catalog")
	}
}

func TestNewApp_UnreachableCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test in short mode")
	}
	cfg := &config.Config{
		Progress:    config.ProgressConfig{Backend: config.BackendRedis},
		Cache:       config.CacheConfig{URL: "redis://localhost:1"},
		CatalogPath: t.TempDir(),
	}
	if _, err := newApp(context.Background(), cfg); err == nil {
		t.Fatal("newApp() should fail when the cache is unreachable")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, config.LogConfig{Level: "warn", Format: "json"}).Info("hidden")
	newLogger(&buf, config.LogConfig{Level: "warn", Format: "json"}).Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("info message logged at warn level")
	}
	if !strings.Contains(buf.String(), `"msg":"shown"`) {
		t.Errorf("JSON output = %q", buf.String())
	}

	buf.Reset()
	newLogger(&buf, config.LogConfig{Level: "info", Format: "text"}).Info("plain")
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Errorf("text output = %q", buf.String())
	}
}
