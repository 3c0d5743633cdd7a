// Package quiz grades multiple-choice quizzes against a pass threshold.
package quiz

import "sort"

// DefaultPassPercent applies when neither the quiz nor the caller sets a threshold.
const DefaultPassPercent = 70.0

// Quiz is a set of questions attached to a quiz lesson.
type Quiz struct {
	PassPercent float64    `yaml:"pass_percent" json:"pass_percent,omitempty"`
	Questions   []Question `yaml:"questions" json:"questions"`
}

// Question is a single multiple-choice item. More than one option may be correct.
type Question struct {
	ID      string   `yaml:"id" json:"id"`
	Prompt  string   `yaml:"prompt" json:"prompt"`
	Options []Option `yaml:"options" json:"options"`
}

// Option is one answer choice.
type Option struct {
	ID      string `yaml:"id" json:"id"`
	Text    string `yaml:"text" json:"text"`
	Correct bool   `yaml:"correct" json:"-"`
}

// Answers maps question IDs to the option IDs the learner selected.
type Answers map[string][]string

// Result is the outcome of grading one submission.
type Result struct {
	Correct     int      `json:"correct"`
	Total       int      `json:"total"`
	Percent     float64  `json:"percent"`
	PassPercent float64  `json:"pass_percent"`
	Passed      bool     `json:"passed"`
	Missed      []string `json:"missed,omitempty"`
}

// Threshold returns the quiz's own pass percent, or fallback when unset.
func (q Quiz) Threshold(fallback float64) float64 {
	if q.PassPercent > 0 {
		return q.PassPercent
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultPassPercent
}

// Grade scores answers. A question counts as correct only when the selected
// option set equals the set of correct options. A quiz without questions
// never passes.
func (q Quiz) Grade(answers Answers, fallbackPass float64) Result {
	res := Result{
		Total:       len(q.Questions),
		PassPercent: q.Threshold(fallbackPass),
	}
	for _, question := range q.Questions {
		if question.matches(answers[question.ID]) {
			res.Correct++
		} else {
			res.Missed = append(res.Missed, question.ID)
		}
	}
	if res.Total == 0 {
		return res
	}
	res.Percent = 100 * float64(res.Correct) / float64(res.Total)
	res.Passed = res.Percent >= res.PassPercent
	return res
}

func (q Question) matches(selected []string) bool {
	want := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		if o.Correct {
			want = append(want, o.ID)
		}
	}
	got := dedupe(selected)
	if len(got) != len(want) {
		return false
	}
	sort.Strings(want)
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
