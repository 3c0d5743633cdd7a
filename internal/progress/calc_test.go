package progress_test

import (
	"testing"

	"github.com/p-n-ai/pai-academy/internal/progress"
)

func TestComputePercent(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		want      float64
	}{
		{"none", 0, 4, 0},
		{"quarter", 1, 4, 25},
		{"all", 4, 4, 100},
		{"over count clamps", 6, 4, 100},
		{"empty course", 0, 0, 0},
		{"empty course with stale entries", 3, 0, 0},
		{"negative completed", -1, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := progress.ComputePercent(tt.completed, tt.total); got != tt.want {
				t.Errorf("ComputePercent(%d, %d) = %v, want %v", tt.completed, tt.total, got, tt.want)
			}
		})
	}
}

func TestComputePercent_Monotonic(t *testing.T) {
	for total := 1; total <= 12; total++ {
		last := -1.0
		for done := 0; done <= total; done++ {
			p := progress.ComputePercent(done, total)
			if p < last {
				t.Fatalf("ComputePercent(%d, %d) = %v decreased from %v", done, total, p, last)
			}
			last = p
		}
		if last != 100 {
			t.Errorf("ComputePercent(%d, %d) = %v, want 100", total, total, last)
		}
	}
}

func TestIsNewlyCompleted(t *testing.T) {
	tests := []struct {
		prev, next float64
		want       bool
	}{
		{75, 100, true},
		{0, 100, true},
		{100, 100, false},
		{50, 75, false},
	}
	for _, tt := range tests {
		if got := progress.IsNewlyCompleted(tt.prev, tt.next); got != tt.want {
			t.Errorf("IsNewlyCompleted(%v, %v) = %v, want %v", tt.prev, tt.next, got, tt.want)
		}
	}
}
