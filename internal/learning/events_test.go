package learning_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/p-n-ai/pai-academy/internal/learning"
	"github.com/p-n-ai/pai-academy/internal/platform/database/dbtest"
)

func TestMemoryEventLogger_LogEvent(t *testing.T) {
	logger := learning.NewMemoryEventLogger()

	err := logger.LogEvent(learning.Event{
		LearnerID:  "learner-1",
		CourseSlug: "go-basics",
		EventType:  learning.EventLessonCompleted,
		Data: map[string]any{
			"address": "0-0",
		},
	})
	if err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].EventType != learning.EventLessonCompleted {
		t.Errorf("EventType = %q, want lesson_completed", events[0].EventType)
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestMemoryEventLogger_RequiresType(t *testing.T) {
	logger := learning.NewMemoryEventLogger()

	if err := logger.LogEvent(learning.Event{LearnerID: "l"}); err == nil {
		t.Fatal("expected error for missing event type")
	}
}

func TestPostgresEventLogger_LogEvent_NilPool(t *testing.T) {
	logger := learning.NewPostgresEventLogger(nil)

	err := logger.LogEvent(learning.Event{
		LearnerID:  "learner-1",
		CourseSlug: "go-basics",
		EventType:  learning.EventSessionStarted,
	})
	if err == nil {
		t.Fatal("expected error for nil pool")
	}
}

func TestPostgresEventLogger_LogEvent(t *testing.T) {
	db := dbtest.New(t)
	logger := learning.NewPostgresEventLogger(db.Pool)

	err := logger.LogEvent(learning.Event{
		SessionID:  "s-1",
		LearnerID:  "learner-1",
		CourseSlug: "go-basics",
		EventType:  learning.EventLessonCompleted,
		Data:       map[string]any{"address": "0-1"},
	})
	if err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}
	if err := logger.LogEvent(learning.Event{LearnerID: "learner-1", CourseSlug: "go-basics", EventType: learning.EventSessionStarted}); err != nil {
		t.Fatalf("LogEvent() without session error = %v", err)
	}

	var (
		sessionID string
		eventType string
		raw       []byte
	)
	err = db.Pool.QueryRow(context.Background(),
		`SELECT session_id, event_type, data FROM learning_events
		 WHERE learner_id = $1 AND course_slug = $2 AND session_id IS NOT NULL`,
		"learner-1", "go-basics",
	).Scan(&sessionID, &eventType, &raw)
	if err != nil {
		t.Fatalf("query event: %v", err)
	}
	if sessionID != "s-1" || eventType != learning.EventLessonCompleted {
		t.Errorf("row = %s, %s", sessionID, eventType)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data["address"] != "0-1" {
		t.Errorf("data = %v", data)
	}

	var count int
	if err := db.Pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM learning_events`).Scan(&count); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 2 {
		t.Errorf("events = %d, want 2", count)
	}
}
