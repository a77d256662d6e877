package board

import (
	"time"

	"github.com/weekplanner/core/internal/domain/entities"
)

// InboxColumn is the identifier of the undated inbox column.
const InboxColumn = string(entities.DayInbox)

// Column is one dated bucket of the displayed week.
type Column struct {
	ID  string             // ISO date, YYYY-MM-DD
	Day entities.DayOfWeek // weekday label derived from the date
}

// Week is the seven dated columns starting on a Monday. The inbox is not part
// of the week; it exists regardless of which week is displayed.
type Week struct {
	Start   time.Time
	Columns [7]Column
}

var weekdays = [7]entities.DayOfWeek{
	entities.DayMonday,
	entities.DayTuesday,
	entities.DayWednesday,
	entities.DayThursday,
	entities.DayFriday,
	entities.DaySaturday,
	entities.DaySunday,
}

// StartOfWeek returns the Monday of the week containing t, at midnight in t's
// location.
func StartOfWeek(t time.Time) time.Time {
	day := int(t.Weekday())
	// Sunday belongs to the week that started six days earlier.
	diff := day - 1
	if day == 0 {
		diff = 6
	}
	d := t.AddDate(0, 0, -diff)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

// WeekOf builds the week containing the given time.
func WeekOf(t time.Time) Week {
	start := StartOfWeek(t)
	var w Week
	w.Start = start
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i)
		w.Columns[i] = Column{ID: d.Format(entities.DateLayout), Day: weekdays[i]}
	}
	return w
}

// WeekStarting builds the week from an ISO start date. The date is snapped to
// its week's Monday, so any day of the target week is accepted.
func WeekStarting(date string) (Week, error) {
	t, err := time.Parse(entities.DateLayout, date)
	if err != nil {
		return Week{}, err
	}
	return WeekOf(t), nil
}

// Column resolves a column identifier against the week. The inbox sentinel is
// not resolved here; callers check for it first.
func (w Week) Column(id string) (Column, bool) {
	for _, c := range w.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}

// Next returns the following week.
func (w Week) Next() Week {
	return WeekOf(w.Start.AddDate(0, 0, 7))
}

// Prev returns the preceding week.
func (w Week) Prev() Week {
	return WeekOf(w.Start.AddDate(0, 0, -7))
}
