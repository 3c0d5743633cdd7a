package learning

import (
	"errors"
	"fmt"

	"github.com/p-n-ai/pai-academy/internal/course"
	"github.com/p-n-ai/pai-academy/internal/quiz"
)

var (
	// ErrNoViewer means the lesson's content type has no viewer configured.
	ErrNoViewer = errors.New("no viewer for content type")
	// ErrQuizMissing means a quiz lesson carries no questions.
	ErrQuizMissing = errors.New("quiz lesson has no quiz")
)

// Learner actions understood by the built-in viewers.
const (
	ActionEnded     = "ended"
	ActionSubmitted = "submitted"
	ActionRead      = "read"
	ActionClaimed   = "claimed"
)

// Input is what the learner sent for the current lesson.
type Input struct {
	Action  string       `json:"action,omitempty"`
	Answers quiz.Answers `json:"answers,omitempty"`
}

// Feedback is the viewer's answer to one Input.
type Feedback struct {
	Completed bool         `json:"completed"`
	Quiz      *quiz.Result `json:"quiz,omitempty"`
}

// Viewer presents one kind of lesson content. It calls onComplete once,
// and only when the learner has met the lesson's completion criterion.
type Viewer interface {
	Handle(lesson course.Lesson, in Input, onComplete func()) (Feedback, error)
}

// Viewers holds one viewer per content type.
type Viewers struct {
	Video       Viewer
	Exercise    Viewer
	Note        Viewer
	Certificate Viewer
	Quiz        Viewer
}

// DefaultViewers returns the built-in viewers. quizPass is the fallback pass
// percent for quizzes that do not set their own.
func DefaultViewers(quizPass float64) Viewers {
	return Viewers{
		Video:       ActionViewer{Action: ActionEnded},
		Exercise:    ActionViewer{Action: ActionSubmitted},
		Note:        ActionViewer{Action: ActionRead},
		Certificate: ActionViewer{Action: ActionClaimed},
		Quiz:        QuizViewer{PassPercent: quizPass},
	}
}

func (v Viewers) empty() bool {
	return v.Video == nil && v.Exercise == nil && v.Note == nil && v.Certificate == nil && v.Quiz == nil
}

// For dispatches on the closed set of content types.
func (v Viewers) For(t course.ContentType) (Viewer, error) {
	var vw Viewer
	switch t {
	case course.ContentVideo:
		vw = v.Video
	case course.ContentExercise:
		vw = v.Exercise
	case course.ContentNote:
		vw = v.Note
	case course.ContentCertificate:
		vw = v.Certificate
	case course.ContentQuiz:
		vw = v.Quiz
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoViewer, t)
	}
	if vw == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoViewer, t)
	}
	return vw, nil
}

// ActionViewer completes a lesson when the learner reports a single action,
// such as a video reaching its end.
type ActionViewer struct {
	Action string
}

func (a ActionViewer) Handle(_ course.Lesson, in Input, onComplete func()) (Feedback, error) {
	if in.Action != a.Action {
		return Feedback{}, nil
	}
	onComplete()
	return Feedback{Completed: true}, nil
}

// QuizViewer grades submitted answers and completes the lesson on a pass.
type QuizViewer struct {
	PassPercent float64
}

func (q QuizViewer) Handle(lesson course.Lesson, in Input, onComplete func()) (Feedback, error) {
	if lesson.Quiz == nil {
		return Feedback{}, fmt.Errorf("%w: %s", ErrQuizMissing, lesson.ID)
	}
	res := lesson.Quiz.Grade(in.Answers, q.PassPercent)
	if res.Passed {
		onComplete()
	}
	return Feedback{Completed: res.Passed, Quiz: &res}, nil
}
