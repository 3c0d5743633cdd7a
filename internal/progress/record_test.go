package progress_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-academy/internal/progress"
)

func TestRecord_AddIsIdempotent(t *testing.T) {
	rec := progress.NewRecord()

	if !rec.Add("0-0") {
		t.Error("first Add should report true")
	}
	if rec.Add("0-0") {
		t.Error("second Add should report false")
	}
	if len(rec.CompletedLessons) != 1 {
		t.Errorf("CompletedLessons = %v, want one entry", rec.CompletedLessons)
	}
}

func TestRecord_CloneIsIndependent(t *testing.T) {
	rec := progress.NewRecord()
	rec.Add("0-0")

	cp := rec.Clone()
	cp.Add("0-1")

	if rec.Has("0-1") {
		t.Error("mutating the clone changed the original")
	}
}

func TestRecord_JSONFieldNames(t *testing.T) {
	rec := progress.Record{
		Progress:         50,
		CompletedLessons: []string{"0-0"},
		CourseCompleted:  true,
		CompletionDate:   "March 4, 2026",
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, field := range []string{`"progress":50`, `"completedLessons":["0-0"]`, `"courseCompleted":true`, `"completionDate":"March 4, 2026"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("JSON %s missing %s", data, field)
		}
	}
	if !strings.Contains(string(mustMarshal(t, progress.NewRecord())), `"completedLessons":[]`) {
		t.Error("new record should encode an empty completed set as []")
	}
}

func TestKey_String(t *testing.T) {
	k := progress.Key{LearnerID: "alice@example.com", CourseSlug: "go-basics"}

	s := k.String()
	if !strings.HasPrefix(s, progress.CoursePrefix("go-basics")) {
		t.Errorf("String() = %q, want prefix %q", s, progress.CoursePrefix("go-basics"))
	}
	if strings.Contains(s, "alice") {
		t.Errorf("String() = %q leaks the learner id", s)
	}
	if s != k.String() {
		t.Error("String() is not deterministic")
	}
	other := progress.Key{LearnerID: "bob@example.com", CourseSlug: "go-basics"}
	if other.String() == s {
		t.Error("different learners share a key")
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	return data
}
