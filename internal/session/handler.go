// Package session serves learning sessions over WebSocket. Each connection
// owns one learning.Navigator for its whole lifetime.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/p-n-ai/pai-academy/internal/course"
	"github.com/p-n-ai/pai-academy/internal/enrollment"
	"github.com/p-n-ai/pai-academy/internal/learning"
	"github.com/p-n-ai/pai-academy/internal/platform/metrics"
	"github.com/p-n-ai/pai-academy/internal/progress"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 16 << 10

	// Per-connection command budget: 10/s with bursts of 20.
	messageRate  = 10
	messageBurst = 20
)

// Courses looks up courses by slug.
type Courses interface {
	GetCourseBySlug(slug string) (course.Course, bool)
}

// Config holds dependencies for a Handler.
type Config struct {
	Courses         Courses
	Store           progress.Store
	Enrollment      enrollment.Checker   // nil admits everyone
	Events          learning.EventLogger // optional
	QuizPassPercent float64
	OriginPatterns  []string
	Now             func() time.Time
}

// Handler upgrades GET /ws/courses/{slug}?learner=ID to a learning session.
type Handler struct {
	courses Courses
	store   progress.Store
	enroll  enrollment.Checker
	events  learning.EventLogger
	viewers learning.Viewers
	origins []string
	now     func() time.Time
}

// NewHandler validates cfg and returns a session handler.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Courses == nil {
		return nil, fmt.Errorf("course catalog is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("progress store is required")
	}
	h := &Handler{
		courses: cfg.Courses,
		store:   cfg.Store,
		enroll:  cfg.Enrollment,
		events:  cfg.Events,
		viewers: learning.DefaultViewers(cfg.QuizPassPercent),
		origins: cfg.OriginPatterns,
		now:     cfg.Now,
	}
	if h.enroll == nil {
		h.enroll = enrollment.OpenChecker{}
	}
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	learnerID := strings.TrimSpace(r.URL.Query().Get("learner"))
	if learnerID == "" {
		http.Error(w, "learner is required", http.StatusBadRequest)
		return
	}
	crs, ok := h.courses.GetCourseBySlug(r.PathValue("slug"))
	if !ok {
		http.Error(w, "course not found", http.StatusNotFound)
		return
	}

	enrolled, err := h.enroll.IsEnrolled(r.Context(), learnerID, crs.Slug)
	if err != nil {
		slog.Error("enrollment check failed", "course", crs.Slug, "error", err)
		http.Error(w, "enrollment check failed", http.StatusInternalServerError)
		return
	}
	if !enrolled {
		http.Error(w, "not enrolled", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		slog.Warn("websocket accept failed", "course", crs.Slug, "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxMessageSize)

	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	s := &session{
		id:      uuid.NewString(),
		conn:    conn,
		limiter: rate.NewLimiter(messageRate, messageBurst),
	}
	if err := s.run(r.Context(), h, crs, learnerID); err != nil {
		slog.Warn("session ended with error", "session_id", s.id, "course", crs.Slug, "error", err)
		conn.Close(websocket.StatusInternalError, "session error")
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

type session struct {
	id      string
	conn    *websocket.Conn
	nav     *learning.Navigator
	limiter *rate.Limiter
}

func (s *session) run(ctx context.Context, h *Handler, crs course.Course, learnerID string) error {
	nav, err := learning.Open(ctx, learning.Config{
		Course:    crs,
		LearnerID: learnerID,
		SessionID: s.id,
		Store:     h.store,
		Events:    h.events,
		Viewers:   h.viewers,
		Now:       h.now,
	})
	if err != nil {
		return fmt.Errorf("open navigator: %w", err)
	}
	s.nav = nav

	slog.Info("learning session started",
		"session_id", s.id,
		"course", crs.Slug,
		"progress", nav.ProgressPercent(),
	)

	if nav.LoadErr() != nil {
		if err := s.send(ctx, noticeMsg(CodeProgressNotLoaded, "saved progress could not be loaded")); err != nil {
			return err
		}
	}
	if nav.SaveErr() != nil {
		if err := s.send(ctx, noticeMsg(CodeProgressNotSaved, "completed course could not be saved")); err != nil {
			return err
		}
	}
	if err := s.send(ctx, stateMsg(s.id, nav)); err != nil {
		return err
	}

	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			if isClosed(err) {
				slog.Info("learning session closed", "session_id", s.id, "course", crs.Slug)
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		if !s.limiter.Allow() {
			if err := s.send(ctx, errorMsg(CodeRateLimited, "too many messages")); err != nil {
				return err
			}
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := s.send(ctx, errorMsg(CodeBadRequest, "malformed message")); err != nil {
				return err
			}
			continue
		}

		for _, reply := range s.handle(ctx, msg) {
			if err := s.send(ctx, reply); err != nil {
				return err
			}
		}
	}
}

// handle applies one command and returns the replies in send order.
func (s *session) handle(ctx context.Context, msg ClientMessage) []ServerMessage {
	switch msg.Type {
	case MsgState:
		return []ServerMessage{stateMsg(s.id, s.nav)}

	case MsgSelect:
		addr, err := course.ParseAddress(msg.Address)
		if err != nil {
			return []ServerMessage{errorMsg(CodeBadRequest, err.Error())}
		}
		if _, err := s.nav.SelectLesson(addr); err != nil {
			return []ServerMessage{errorMsg(CodeAddressOutOfRange, err.Error())}
		}
		return []ServerMessage{stateMsg(s.id, s.nav)}

	case MsgNext:
		if _, ok := s.nav.GoNext(); !ok {
			return []ServerMessage{errorMsg(CodeEndOfCourse, "already at the last lesson")}
		}
		return []ServerMessage{stateMsg(s.id, s.nav)}

	case MsgPrevious:
		if _, ok := s.nav.GoPrevious(); !ok {
			return []ServerMessage{errorMsg(CodeStartOfCourse, "already at the first lesson")}
		}
		return []ServerMessage{stateMsg(s.id, s.nav)}

	case MsgComplete:
		step, err := s.nav.MarkComplete(ctx)
		if err != nil {
			return []ServerMessage{errorMsg(CodeAddressOutOfRange, err.Error())}
		}
		return s.afterStep(&step, nil)

	case MsgSubmit:
		fb, step, err := s.nav.Submit(ctx, learning.Input{Action: msg.Action, Answers: msg.Answers})
		switch {
		case errors.Is(err, course.ErrAddressOutOfRange):
			return []ServerMessage{errorMsg(CodeAddressOutOfRange, err.Error())}
		case err != nil:
			return []ServerMessage{errorMsg(CodeBadRequest, err.Error())}
		}
		var out []ServerMessage
		if fb.Quiz != nil {
			out = append(out, ServerMessage{Type: MsgQuizResult, Quiz: fb.Quiz})
		}
		return s.afterStep(step, out)

	default:
		return []ServerMessage{errorMsg(CodeBadRequest, fmt.Sprintf("unknown message type %q", msg.Type))}
	}
}

func (s *session) afterStep(step *learning.Step, out []ServerMessage) []ServerMessage {
	if step != nil && step.SaveErr != nil {
		out = append(out, noticeMsg(CodeProgressNotSaved, "progress was recorded for this session but could not be saved"))
	}
	return append(out, stateMsg(s.id, s.nav))
}

func (s *session) send(ctx context.Context, msg ServerMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	if err := wsjson.Write(ctx, s.conn, msg); err != nil {
		return fmt.Errorf("write %s: %w", msg.Type, err)
	}
	return nil
}

func isClosed(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return errors.Is(err, context.Canceled)
}
