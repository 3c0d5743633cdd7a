// Package learning drives a learner through a course: it owns the lesson
// cursor, records completions and persists the progress record.
package learning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/p-n-ai/pai-academy/internal/course"
	"github.com/p-n-ai/pai-academy/internal/platform/metrics"
	"github.com/p-n-ai/pai-academy/internal/progress"
)

// State is the navigator's position in the learning state machine.
type State int

const (
	StateAwaitingContent State = iota
	StateAdvancing
	StateCourseComplete
)

func (s State) String() string {
	switch s {
	case StateAwaitingContent:
		return "awaiting_content"
	case StateAdvancing:
		return "advancing"
	case StateCourseComplete:
		return "course_complete"
	default:
		return "unknown"
	}
}

// Config holds dependencies for a Navigator.
type Config struct {
	Course    course.Course
	LearnerID string
	SessionID string
	Store     progress.Store
	Events    EventLogger // optional
	Viewers   Viewers     // zero value gets DefaultViewers
	Now       func() time.Time
}

// Step describes the outcome of one completion.
type Step struct {
	Address         course.Address
	Added           bool
	Cursor          course.Address
	Percent         float64
	CourseCompleted bool
	NewlyCompleted  bool
	EndOfCourse     bool
	// SaveErr is set when the record could not be persisted. The in-memory
	// state already reflects the completion.
	SaveErr error
}

// Navigator owns the cursor and progress record of one learning session.
// It is not safe for concurrent use; each session drives its own Navigator.
type Navigator struct {
	course    course.Course
	key       progress.Key
	sessionID string
	store     progress.Store
	events    EventLogger
	viewers   Viewers
	now       func() time.Time

	record  progress.Record
	cursor  course.Address
	state   State
	loadErr error
	saveErr error
}

// Open loads the learner's progress record and positions the cursor on the
// first lesson not yet completed. A failed load is not fatal: the navigator
// starts from an empty record and LoadErr reports the failure. A loaded
// record that covers every lesson but was never flagged complete is completed
// and saved; SaveErr reports a failure of that save.
func Open(ctx context.Context, cfg Config) (*Navigator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("progress store is required")
	}
	if cfg.LearnerID == "" {
		return nil, fmt.Errorf("learner id is required")
	}
	if cfg.Course.Slug == "" {
		return nil, fmt.Errorf("course slug is required")
	}

	n := &Navigator{
		course:    cfg.Course,
		key:       progress.Key{LearnerID: cfg.LearnerID, CourseSlug: cfg.Course.Slug},
		sessionID: cfg.SessionID,
		store:     cfg.Store,
		events:    cfg.Events,
		viewers:   cfg.Viewers,
		now:       cfg.Now,
	}
	if n.events == nil {
		n.events = NopEventLogger{}
	}
	if n.viewers.empty() {
		n.viewers = DefaultViewers(0)
	}
	if n.now == nil {
		n.now = time.Now
	}

	rec, found, err := n.store.Load(ctx, n.key)
	switch {
	case err != nil:
		slog.Warn("progress load failed, starting fresh",
			"course", n.key.CourseSlug,
			"error", err,
		)
		metrics.ProgressStoreErrors.WithLabelValues("load").Inc()
		n.loadErr = err
		rec = progress.NewRecord()
	case !found:
		rec = progress.NewRecord()
	}
	n.record = rec
	if n.resume() {
		n.saveErr = n.Save(ctx)
	}

	n.logEvent(EventSessionStarted, map[string]any{
		"progress": n.record.Progress,
		"address":  n.cursor.String(),
	})
	return n, nil
}

// resume recomputes the cached percent and re-derives the cursor from the
// completed set. It reports whether the record had to be flagged complete.
func (n *Navigator) resume() (healed bool) {
	n.record.Progress = n.percent()
	if !n.record.CourseCompleted && n.course.TotalLessons() > 0 && n.record.Progress >= 100 {
		n.record.CourseCompleted = true
		n.record.CompletionDate = n.now().Format(progress.DateLayout)
		healed = true
	}

	n.cursor = course.Address{}
	if first, ok := n.course.FirstAddress(); ok {
		n.cursor = first
	}
	for _, addr := range n.course.Addresses() {
		if !n.record.Has(addr.String()) {
			n.cursor = addr
			break
		}
	}

	n.state = StateAwaitingContent
	if n.record.CourseCompleted {
		n.state = StateCourseComplete
	}
	return healed
}

func (n *Navigator) percent() float64 {
	return progress.ComputePercent(n.course.CountCompleted(n.record.CompletedLessons), n.course.TotalLessons())
}

// LoadErr returns the error from the initial load, if any.
func (n *Navigator) LoadErr() error { return n.loadErr }

// SaveErr returns the error from saving a record completed on open, if any.
func (n *Navigator) SaveErr() error { return n.saveErr }

// Course returns the course being navigated.
func (n *Navigator) Course() course.Course { return n.course }

// Key returns the progress key of this session.
func (n *Navigator) Key() progress.Key { return n.key }

// State returns the current state.
func (n *Navigator) State() State { return n.state }

// CurrentAddress returns the cursor.
func (n *Navigator) CurrentAddress() course.Address { return n.cursor }

// CurrentLesson returns the lesson under the cursor. It fails only for a
// course without lessons.
func (n *Navigator) CurrentLesson() (course.Lesson, error) {
	return n.course.LessonAt(n.cursor)
}

// CurrentViewer returns the viewer for the lesson under the cursor.
func (n *Navigator) CurrentViewer() (Viewer, error) {
	lesson, err := n.CurrentLesson()
	if err != nil {
		return nil, err
	}
	return n.viewers.For(lesson.Type)
}

// ProgressPercent returns the derived completion percent.
func (n *Navigator) ProgressPercent() float64 { return n.record.Progress }

// Record returns a copy of the in-memory progress record.
func (n *Navigator) Record() progress.Record { return n.record.Clone() }

// MarkComplete completes the lesson under the cursor.
func (n *Navigator) MarkComplete(ctx context.Context) (Step, error) {
	return n.MarkLessonComplete(ctx, n.cursor)
}

// MarkLessonComplete adds addr to the completed set, recomputes progress,
// fires the one-time course completion or advances the cursor, and persists
// the record. Marking an already completed lesson leaves the set unchanged.
func (n *Navigator) MarkLessonComplete(ctx context.Context, addr course.Address) (Step, error) {
	lesson, err := n.course.LessonAt(addr)
	if err != nil {
		return Step{}, err
	}

	n.state = StateAdvancing
	previous := n.record.Progress
	added := n.record.Add(addr.String())
	n.record.Progress = n.percent()

	step := Step{Address: addr, Added: added}
	if added {
		metrics.LessonsCompleted.WithLabelValues(n.key.CourseSlug, lesson.Type.String()).Inc()
		n.logEvent(EventLessonCompleted, map[string]any{
			"address":  addr.String(),
			"lesson":   lesson.ID,
			"progress": n.record.Progress,
		})
	}

	if !n.record.CourseCompleted && progress.IsNewlyCompleted(previous, n.record.Progress) {
		n.record.CourseCompleted = true
		n.record.CompletionDate = n.now().Format(progress.DateLayout)
		n.state = StateCourseComplete
		step.NewlyCompleted = true

		metrics.CoursesCompleted.WithLabelValues(n.key.CourseSlug).Inc()
		n.logEvent(EventCourseCompleted, map[string]any{
			"completion_date": n.record.CompletionDate,
		})
		slog.Info("course completed", "course", n.key.CourseSlug, "session_id", n.sessionID)
	} else {
		if next, ok := n.course.NextAddress(addr); ok {
			n.cursor = next
		} else {
			n.cursor = addr
			step.EndOfCourse = true
		}
		n.state = StateAwaitingContent
	}

	step.SaveErr = n.Save(ctx)
	step.Cursor = n.cursor
	step.Percent = n.record.Progress
	step.CourseCompleted = n.record.CourseCompleted
	return step, nil
}

// Save persists the current record. Failures are logged and returned; the
// in-memory state is never rolled back.
func (n *Navigator) Save(ctx context.Context) error {
	if err := n.store.Save(ctx, n.key, n.record.Clone()); err != nil {
		slog.Warn("progress not saved",
			"course", n.key.CourseSlug,
			"session_id", n.sessionID,
			"error", err,
		)
		metrics.ProgressStoreErrors.WithLabelValues("save").Inc()
		return err
	}
	return nil
}

// SelectLesson jumps to addr. An invalid address leaves the navigator untouched.
func (n *Navigator) SelectLesson(addr course.Address) (course.Lesson, error) {
	lesson, err := n.course.LessonAt(addr)
	if err != nil {
		return course.Lesson{}, err
	}
	n.cursor = addr
	n.state = StateAwaitingContent
	return lesson, nil
}

// GoNext moves the cursor forward without completing anything. The second
// result is false at the end of the course, where the cursor stays put.
func (n *Navigator) GoNext() (course.Address, bool) {
	next, ok := n.course.NextAddress(n.cursor)
	if !ok {
		return n.cursor, false
	}
	n.cursor = next
	n.state = StateAwaitingContent
	return next, true
}

// GoPrevious moves the cursor back. The second result is false at the start
// of the course.
func (n *Navigator) GoPrevious() (course.Address, bool) {
	prev, ok := n.course.PreviousAddress(n.cursor)
	if !ok {
		return n.cursor, false
	}
	n.cursor = prev
	n.state = StateAwaitingContent
	return prev, true
}

// Submit hands learner input to the viewer of the current lesson. When the
// viewer signals completion the lesson is marked complete and the resulting
// step is returned; otherwise the step is nil.
func (n *Navigator) Submit(ctx context.Context, in Input) (Feedback, *Step, error) {
	addr := n.cursor
	lesson, err := n.course.LessonAt(addr)
	if err != nil {
		return Feedback{}, nil, err
	}
	viewer, err := n.viewers.For(lesson.Type)
	if err != nil {
		return Feedback{}, nil, err
	}

	var (
		step    *Step
		stepErr error
		fired   bool
	)
	fb, err := viewer.Handle(lesson, in, func() {
		if fired {
			return
		}
		fired = true
		s, err := n.MarkLessonComplete(ctx, addr)
		step, stepErr = &s, err
	})
	if err != nil {
		return Feedback{}, nil, err
	}
	if stepErr != nil {
		return fb, nil, stepErr
	}

	if fb.Quiz != nil {
		n.logEvent(EventQuizGraded, map[string]any{
			"address": addr.String(),
			"percent": fb.Quiz.Percent,
			"passed":  fb.Quiz.Passed,
		})
	}
	return fb, step, nil
}

func (n *Navigator) logEvent(eventType string, data map[string]any) {
	err := n.events.LogEvent(Event{
		SessionID:  n.sessionID,
		LearnerID:  n.key.LearnerID,
		CourseSlug: n.key.CourseSlug,
		EventType:  eventType,
		Data:       data,
	})
	if err != nil {
		slog.Warn("failed to log learning event", "type", eventType, "error", err)
	}
}
