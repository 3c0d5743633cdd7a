// Package progress derives and persists per-learner course completion state.
package progress

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// DateLayout is the human-readable form of Record.CompletionDate.
const DateLayout = "January 2, 2006"

// Record is the persisted completion state for one learner and course.
// Progress is a cache of the value derived from CompletedLessons.
type Record struct {
	Progress         float64  `json:"progress"`
	CompletedLessons []string `json:"completedLessons"`
	CourseCompleted  bool     `json:"courseCompleted"`
	CompletionDate   string   `json:"completionDate"`
}

// NewRecord returns an empty record.
func NewRecord() Record {
	return Record{CompletedLessons: []string{}}
}

// Has reports whether addr is in the completed set.
func (r Record) Has(addr string) bool {
	for _, a := range r.CompletedLessons {
		if a == addr {
			return true
		}
	}
	return false
}

// Add inserts addr into the completed set and reports whether it was new.
func (r *Record) Add(addr string) bool {
	if r.Has(addr) {
		return false
	}
	r.CompletedLessons = append(r.CompletedLessons, addr)
	return true
}

// Clone returns a deep copy so callers cannot mutate a store's internal state.
func (r Record) Clone() Record {
	out := r
	out.CompletedLessons = append([]string{}, r.CompletedLessons...)
	return out
}

// Key identifies the record of one learner in one course.
type Key struct {
	LearnerID  string
	CourseSlug string
}

// String derives the storage key name. The learner ID is hashed in the name
// only; stores still keep the raw ID alongside the record for listing.
func (k Key) String() string {
	sum := blake2b.Sum256([]byte(k.LearnerID))
	return "progress:" + k.CourseSlug + ":" + hex.EncodeToString(sum[:16])
}

// CoursePrefix is the key prefix shared by every record of a course.
func CoursePrefix(slug string) string {
	return "progress:" + slug + ":"
}

func (k Key) valid() bool {
	return strings.TrimSpace(k.LearnerID) != "" && strings.TrimSpace(k.CourseSlug) != ""
}
