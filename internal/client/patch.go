package client

import (
	"time"

	"taskdo/internal/models"
)

// nowFunc is swapped in tests to pin the due-today rule to a known date.
var nowFunc = time.Now

// TaskForm mirrors the compact edit surface: every field is present and is
// compared against the current record to decide what actually changed.
type TaskForm struct {
	Title       string
	Description string
	Completed   *bool
	DueAt       *time.Time
}

// FormFromTask seeds a form with the record's current values, the way the
// edit surface opens.
func FormFromTask(t models.Task) TaskForm {
	return TaskForm{
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		DueAt:       t.DueAt,
	}
}

// BuildPatch diffs the form against the current record. A field equal to its
// stored value is left unset. A due date falling on today's calendar date is
// also left unset, so freshly picking today collapses to a no-op when the
// task was not otherwise touched. Returns false when nothing changed.
func BuildPatch(current models.Task, form TaskForm, now time.Time) (models.TaskPatch, bool) {
	var patch models.TaskPatch

	if form.Title != current.Title && form.Title != "" {
		patch.Title = models.FieldOf(form.Title)
	}
	if form.Description != current.Description {
		patch.Description = models.FieldOf(form.Description)
	}
	if !equalBool(form.Completed, current.Completed) {
		if form.Completed == nil {
			patch.Completed = models.NullField[bool]()
		} else {
			patch.Completed = models.FieldOf(*form.Completed)
		}
	}

	switch {
	case form.DueAt == nil && current.DueAt == nil:
		// unchanged
	case form.DueAt == nil:
		patch.DueAt = models.NullField[time.Time]()
	case sameDay(*form.DueAt, now):
		// A fresh selection of today's date is treated as unset.
	case current.DueAt == nil || !current.DueAt.Equal(*form.DueAt):
		patch.DueAt = models.FieldOf(*form.DueAt)
	}

	return patch, !patch.Empty()
}

func equalBool(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
