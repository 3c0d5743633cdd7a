package course

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/pai-academy/internal/quiz"
)

// ContentType tags what kind of viewer a lesson needs.
type ContentType uint8

const (
	ContentVideo ContentType = iota + 1
	ContentExercise
	ContentNote
	ContentCertificate
	ContentQuiz
)

func (t ContentType) String() string {
	switch t {
	case ContentVideo:
		return "video"
	case ContentExercise:
		return "exercise"
	case ContentNote:
		return "note"
	case ContentCertificate:
		return "certificate"
	case ContentQuiz:
		return "quiz"
	default:
		return "unknown"
	}
}

// ParseContentType maps a content tag to a ContentType. "pdf" is accepted as a note.
func ParseContentType(s string) (ContentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "video":
		return ContentVideo, nil
	case "exercise":
		return ContentExercise, nil
	case "note", "notes", "pdf":
		return ContentNote, nil
	case "certificate":
		return ContentCertificate, nil
	case "quiz":
		return ContentQuiz, nil
	default:
		return 0, fmt.Errorf("unknown content type %q", s)
	}
}

func (t ContentType) MarshalText() ([]byte, error) {
	if t < ContentVideo || t > ContentQuiz {
		return nil, fmt.Errorf("invalid content type %d", t)
	}
	return []byte(t.String()), nil
}

func (t *ContentType) UnmarshalText(b []byte) error {
	v, err := ParseContentType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t *ContentType) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return t.UnmarshalText([]byte(s))
}

// Course is a read-only lesson graph loaded from the catalog.
type Course struct {
	ID          string   `yaml:"id" json:"id"`
	Slug        string   `yaml:"slug" json:"slug"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description,omitempty"`
	Modules     []Module `yaml:"modules" json:"modules"`
}

// Module groups lessons; its position in Course.Modules is significant.
type Module struct {
	ID      string   `yaml:"id" json:"id"`
	Title   string   `yaml:"title" json:"title"`
	Lessons []Lesson `yaml:"lessons" json:"lessons"`
}

// Lesson is a single unit of content.
type Lesson struct {
	ID       string      `yaml:"id" json:"id"`
	Title    string      `yaml:"title" json:"title"`
	Type     ContentType `yaml:"type" json:"type"`
	Duration string      `yaml:"duration" json:"duration,omitempty"`
	Quiz     *quiz.Quiz  `yaml:"quiz" json:"quiz,omitempty"`
}

// Address locates a lesson by module and lesson index.
type Address struct {
	Module int
	Lesson int
}

// String renders the storage form "{module}-{lesson}".
func (a Address) String() string {
	return strconv.Itoa(a.Module) + "-" + strconv.Itoa(a.Lesson)
}

// ParseAddress parses the canonical "{module}-{lesson}" form. Spellings such
// as "00-0" or " 0-0" are rejected.
func ParseAddress(s string) (Address, error) {
	m, l, ok := strings.Cut(s, "-")
	if !ok {
		return Address{}, fmt.Errorf("malformed lesson address %q", s)
	}
	mi, err := strconv.Atoi(m)
	if err != nil {
		return Address{}, fmt.Errorf("malformed lesson address %q: %w", s, err)
	}
	li, err := strconv.Atoi(l)
	if err != nil {
		return Address{}, fmt.Errorf("malformed lesson address %q: %w", s, err)
	}
	addr := Address{Module: mi, Lesson: li}
	if mi < 0 || li < 0 || addr.String() != s {
		return Address{}, fmt.Errorf("malformed lesson address %q", s)
	}
	return addr, nil
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(b []byte) error {
	v, err := ParseAddress(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
