// Package report renders course progress as an XLSX workbook.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-academy/internal/course"
	"github.com/p-n-ai/pai-academy/internal/progress"
)

const (
	SheetProgress = "Progress"
	SheetLessons  = "Lessons"
)

var (
	progressHeader = []any{"Learner", "Progress %", "Completed lessons", "Course completed", "Completion date", "Last update"}
	lessonsHeader  = []any{"Address", "Module", "Lesson", "Type", "Learners completed"}
)

// Build creates a workbook for one course from its stored progress records.
// Percentages are derived from the course so stale cached values never show.
func Build(c course.Course, entries []progress.Entry) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetProgress); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetLessons); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeProgress(f, c, entries, header); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeLessons(f, c, entries, header); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Write builds the workbook and streams it to w.
func Write(w io.Writer, c course.Course, entries []progress.Entry) error {
	f, err := Build(c, entries)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeProgress(f *excelize.File, c course.Course, entries []progress.Entry, style int) error {
	if err := writeHeader(f, SheetProgress, progressHeader, style); err != nil {
		return err
	}
	total := c.TotalLessons()
	for i, e := range entries {
		done := c.CountCompleted(e.Record.CompletedLessons)
		updated := ""
		if !e.UpdatedAt.IsZero() {
			updated = e.UpdatedAt.UTC().Format("2006-01-02 15:04:05")
		}
		row := []any{
			e.LearnerID,
			progress.ComputePercent(done, total),
			done,
			e.Record.CourseCompleted,
			e.Record.CompletionDate,
			updated,
		}
		if err := setRow(f, SheetProgress, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetProgress, "A", "F", 22)
}

func writeLessons(f *excelize.File, c course.Course, entries []progress.Entry, style int) error {
	if err := writeHeader(f, SheetLessons, lessonsHeader, style); err != nil {
		return err
	}
	for i, addr := range c.Addresses() {
		lesson, err := c.LessonAt(addr)
		if err != nil {
			return err
		}
		learners := 0
		for _, e := range entries {
			if e.Record.Has(addr.String()) {
				learners++
			}
		}
		row := []any{
			addr.String(),
			c.Modules[addr.Module].Title,
			lesson.Title,
			lesson.Type.String(),
			learners,
		}
		if err := setRow(f, SheetLessons, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetLessons, "B", "C", 30)
}

func writeHeader(f *excelize.File, sheet string, cols []any, style int) error {
	if err := setRow(f, sheet, 1, cols); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
