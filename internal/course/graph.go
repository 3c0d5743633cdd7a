package course

import (
	"errors"
	"fmt"
)

// ErrAddressOutOfRange is returned when an address does not name a lesson in the course.
var ErrAddressOutOfRange = errors.New("lesson address out of range")

// TotalLessons returns the number of lessons across all modules.
func (c Course) TotalLessons() int {
	n := 0
	for _, m := range c.Modules {
		n += len(m.Lessons)
	}
	return n
}

// Valid reports whether addr names a lesson in c.
func (c Course) Valid(addr Address) bool {
	if addr.Module < 0 || addr.Module >= len(c.Modules) {
		return false
	}
	return addr.Lesson >= 0 && addr.Lesson < len(c.Modules[addr.Module].Lessons)
}

// LessonAt returns the lesson at addr.
func (c Course) LessonAt(addr Address) (Lesson, error) {
	if !c.Valid(addr) {
		return Lesson{}, fmt.Errorf("%w: %s in course %s", ErrAddressOutOfRange, addr, c.Slug)
	}
	return c.Modules[addr.Module].Lessons[addr.Lesson], nil
}

// FirstAddress returns the first lesson of the course, skipping empty modules.
func (c Course) FirstAddress() (Address, bool) {
	for mi, m := range c.Modules {
		if len(m.Lessons) > 0 {
			return Address{Module: mi}, true
		}
	}
	return Address{}, false
}

// NextAddress returns the lesson after addr in module-then-lesson order.
// The second result is false at the end of the course or when addr is invalid.
func (c Course) NextAddress(addr Address) (Address, bool) {
	if !c.Valid(addr) {
		return Address{}, false
	}
	if addr.Lesson+1 < len(c.Modules[addr.Module].Lessons) {
		return Address{Module: addr.Module, Lesson: addr.Lesson + 1}, true
	}
	for mi := addr.Module + 1; mi < len(c.Modules); mi++ {
		if len(c.Modules[mi].Lessons) > 0 {
			return Address{Module: mi}, true
		}
	}
	return Address{}, false
}

// PreviousAddress returns the lesson before addr.
// The second result is false at the start of the course or when addr is invalid.
func (c Course) PreviousAddress(addr Address) (Address, bool) {
	if !c.Valid(addr) {
		return Address{}, false
	}
	if addr.Lesson > 0 {
		return Address{Module: addr.Module, Lesson: addr.Lesson - 1}, true
	}
	for mi := addr.Module - 1; mi >= 0; mi-- {
		if n := len(c.Modules[mi].Lessons); n > 0 {
			return Address{Module: mi, Lesson: n - 1}, true
		}
	}
	return Address{}, false
}

// Addresses lists every lesson address in course order.
func (c Course) Addresses() []Address {
	out := make([]Address, 0, c.TotalLessons())
	for mi, m := range c.Modules {
		for li := range m.Lessons {
			out = append(out, Address{Module: mi, Lesson: li})
		}
	}
	return out
}

// CountCompleted counts the entries of completed that name a lesson in c.
// Malformed, stale or duplicate entries are ignored.
func (c Course) CountCompleted(completed []string) int {
	seen := make(map[Address]struct{}, len(completed))
	for _, s := range completed {
		addr, err := ParseAddress(s)
		if err != nil || !c.Valid(addr) {
			continue
		}
		seen[addr] = struct{}{}
	}
	return len(seen)
}
