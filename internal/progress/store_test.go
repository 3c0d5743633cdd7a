package progress_test

import (
	"context"
	"errors"
	"testing"

	"github.com/p-n-ai/pai-academy/internal/progress"
)

func TestMemoryStore_SaveAndLoad(t *testing.T) {
	store := progress.NewMemoryStore()
	ctx := context.Background()
	key := progress.Key{LearnerID: "learner-1", CourseSlug: "go-basics"}

	_, found, err := store.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if found {
		t.Fatal("Load() found a record before any save")
	}

	rec := progress.NewRecord()
	rec.Add("0-0")
	rec.Progress = 25
	if err := store.Save(ctx, key, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, found, err := store.Load(ctx, key)
	if err != nil || !found {
		t.Fatalf("Load() = found %v, err %v", found, err)
	}
	if got.Progress != 25 || !got.Has("0-0") {
		t.Errorf("Load() = %+v", got)
	}

	// Returned records are copies.
	got.Add("9-9")
	again, _, _ := store.Load(ctx, key)
	if again.Has("9-9") {
		t.Error("mutating a loaded record changed the store")
	}
}

func TestMemoryStore_LastWriteWins(t *testing.T) {
	store := progress.NewMemoryStore()
	ctx := context.Background()
	key := progress.Key{LearnerID: "learner-1", CourseSlug: "go-basics"}

	first := progress.NewRecord()
	first.Add("0-0")
	second := progress.NewRecord()
	second.Add("1-0")

	store.Save(ctx, key, first)
	store.Save(ctx, key, second)

	got, _, _ := store.Load(ctx, key)
	if got.Has("0-0") || !got.Has("1-0") {
		t.Errorf("Load() = %v, want only the second write", got.CompletedLessons)
	}
}

func TestMemoryStore_InvalidKey(t *testing.T) {
	store := progress.NewMemoryStore()

	err := store.Save(context.Background(), progress.Key{CourseSlug: "go-basics"}, progress.NewRecord())
	var serr *progress.StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("Save() error = %v, want *StorageError", err)
	}
	if serr.Op != "save" {
		t.Errorf("Op = %q, want save", serr.Op)
	}
}

func TestMemoryStore_ListByCourse(t *testing.T) {
	store := progress.NewMemoryStore()
	ctx := context.Background()

	for _, k := range []progress.Key{
		{LearnerID: "zoe", CourseSlug: "go-basics"},
		{LearnerID: "adam", CourseSlug: "go-basics"},
		{LearnerID: "adam", CourseSlug: "rust-intro"},
	} {
		if err := store.Save(ctx, k, progress.NewRecord()); err != nil {
			t.Fatalf("Save(%v) error = %v", k, err)
		}
	}

	entries, err := store.ListByCourse(ctx, "go-basics")
	if err != nil {
		t.Fatalf("ListByCourse() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].LearnerID != "adam" || entries[1].LearnerID != "zoe" {
		t.Errorf("entries not ordered by learner: %s, %s", entries[0].LearnerID, entries[1].LearnerID)
	}
	if entries[0].UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}
}

func TestStorageError_Unwrap(t *testing.T) {
	base := errors.New("boom")
	err := &progress.StorageError{Op: "load", Key: "k", Err: base}
	if !errors.Is(err, base) {
		t.Error("StorageError should unwrap to its cause")
	}
}
