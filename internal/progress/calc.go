package progress

// ComputePercent returns 100*completed/total clamped to [0,100].
// An empty course yields 0.
func ComputePercent(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	p := 100 * float64(completed) / float64(total)
	if p > 100 {
		return 100
	}
	return p
}

// IsNewlyCompleted reports the crossing into full completion.
func IsNewlyCompleted(previous, next float64) bool {
	return previous < 100 && next >= 100
}
