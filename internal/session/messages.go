package session

import (
	"github.com/p-n-ai/pai-academy/internal/course"
	"github.com/p-n-ai/pai-academy/internal/learning"
	"github.com/p-n-ai/pai-academy/internal/quiz"
)

// Client message types.
const (
	MsgState    = "state"
	MsgSelect   = "select"
	MsgNext     = "next"
	MsgPrevious = "previous"
	MsgComplete = "complete"
	MsgSubmit   = "submit"
)

// Server-only message types.
const (
	MsgQuizResult = "quiz_result"
	MsgNotice     = "notice"
	MsgError      = "error"
)

// Error and notice codes.
const (
	CodeAddressOutOfRange = "address_out_of_range"
	CodeStartOfCourse     = "start_of_course"
	CodeEndOfCourse       = "end_of_course"
	CodeBadRequest        = "bad_request"
	CodeRateLimited       = "rate_limited"
	CodeProgressNotSaved  = "progress_not_saved"
	CodeProgressNotLoaded = "progress_not_loaded"
)

// ClientMessage is a learner command.
type ClientMessage struct {
	Type    string       `json:"type"`
	Address string       `json:"address,omitempty"`
	Action  string       `json:"action,omitempty"`
	Answers quiz.Answers `json:"answers,omitempty"`
}

// ServerMessage is sent to the learner.
type ServerMessage struct {
	Type    string       `json:"type"`
	State   *Snapshot    `json:"state,omitempty"`
	Quiz    *quiz.Result `json:"quiz,omitempty"`
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Snapshot is the learner-visible state of a session.
type Snapshot struct {
	SessionID        string         `json:"session_id"`
	Course           string         `json:"course"`
	Title            string         `json:"title"`
	State            string         `json:"state"`
	Address          string         `json:"address"`
	Lesson           *course.Lesson `json:"lesson,omitempty"`
	TotalLessons     int            `json:"total_lessons"`
	Progress         float64        `json:"progress"`
	CompletedLessons []string       `json:"completed_lessons"`
	CourseCompleted  bool           `json:"course_completed"`
	CompletionDate   string         `json:"completion_date,omitempty"`
}

func snapshot(sessionID string, nav *learning.Navigator) Snapshot {
	rec := nav.Record()
	c := nav.Course()
	s := Snapshot{
		SessionID:        sessionID,
		Course:           c.Slug,
		Title:            c.Title,
		State:            nav.State().String(),
		Address:          nav.CurrentAddress().String(),
		TotalLessons:     c.TotalLessons(),
		Progress:         rec.Progress,
		CompletedLessons: rec.CompletedLessons,
		CourseCompleted:  rec.CourseCompleted,
		CompletionDate:   rec.CompletionDate,
	}
	if lesson, err := nav.CurrentLesson(); err == nil {
		s.Lesson = &lesson
	}
	return s
}

func stateMsg(sessionID string, nav *learning.Navigator) ServerMessage {
	s := snapshot(sessionID, nav)
	return ServerMessage{Type: MsgState, State: &s}
}

func errorMsg(code, message string) ServerMessage {
	return ServerMessage{Type: MsgError, Code: code, Message: message}
}

func noticeMsg(code, message string) ServerMessage {
	return ServerMessage{Type: MsgNotice, Code: code, Message: message}
}
