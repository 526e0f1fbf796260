package view

import (
	"fmt"
	"time"

	"taskdo/internal/models"
)

// SortForDisplay lists incomplete tasks before completed ones. Within each
// group the store order is preserved; there is no client-side re-sort.
func SortForDisplay(tasks []models.Task) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Done() {
			out = append(out, t)
		}
	}
	for _, t := range tasks {
		if t.Done() {
			out = append(out, t)
		}
	}
	return out
}

// DueLabel renders a due date relative to now: "Today" and "Tomorrow" for
// zero and one day offsets by calendar day, otherwise a formatted date. The
// offset is a calendar-day difference, not elapsed hours, so a task due at
// 23:59 tonight is still "Today" at 23:58.
func DueLabel(due, now time.Time) string {
	dueDay := truncateToDay(due)
	nowDay := truncateToDay(now)
	diff := int(dueDay.Sub(nowDay).Hours() / 24)

	switch diff {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return fmt.Sprintf("%s %d %s %d", due.Format("Mon"), due.Day(), due.Format("January"), due.Year())
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
