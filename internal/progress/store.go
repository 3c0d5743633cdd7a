package progress

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Entry is a stored record together with the key it was saved under.
type Entry struct {
	Key       Key       `json:"-"`
	LearnerID string    `json:"learner_id"`
	Record    Record    `json:"record"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Store persists one progress record per learner and course.
// Load returns false when no record exists yet.
type Store interface {
	Load(ctx context.Context, key Key) (Record, bool, error)
	Save(ctx context.Context, key Key, rec Record) error
	ListByCourse(ctx context.Context, courseSlug string) ([]Entry, error)
}

// StorageError reports a failed store operation.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("progress store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("progress store %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, key Key, err error) error {
	return &StorageError{Op: op, Key: key.String(), Err: err}
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	records map[Key]Entry
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory progress store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[Key]Entry),
	}
}

func (s *MemoryStore) Load(_ context.Context, key Key) (Record, bool, error) {
	if !key.valid() {
		return Record{}, false, storageErr("load", key, fmt.Errorf("learner and course are required"))
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.records[key]
	if !ok {
		return Record{}, false, nil
	}
	return e.Record.Clone(), true, nil
}

func (s *MemoryStore) Save(_ context.Context, key Key, rec Record) error {
	if !key.valid() {
		return storageErr("save", key, fmt.Errorf("learner and course are required"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = Entry{
		Key:       key,
		LearnerID: key.LearnerID,
		Record:    rec.Clone(),
		UpdatedAt: time.Now(),
	}
	return nil
}

func (s *MemoryStore) ListByCourse(_ context.Context, courseSlug string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for k, e := range s.records {
		if k.CourseSlug != courseSlug {
			continue
		}
		e.Record = e.Record.Clone()
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LearnerID < out[j].LearnerID })
	return out, nil
}
