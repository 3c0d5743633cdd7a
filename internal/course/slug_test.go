package course_test

import (
	"testing"

	"github.com/p-n-ai/pai-academy/internal/course"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Go Basics", "go-basics"},
		{"  Go   Basics!! ", "go-basics"},
		{"Programación Básica", "programacion-basica"},
		{"go-basics", "go-basics"},
		{"Módulo 2: Funções", "modulo-2-funcoes"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := course.Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
