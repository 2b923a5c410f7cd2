// Package timeslot computes which delivery windows are currently bookable.
// Availability is a pure function of the instant passed in; nothing here
// reads the wall clock or caches results.
package timeslot

import "time"

// Window is a fixed daily delivery window, keyed by its local time range.
type Window string

const (
	Morning Window = "10:00-14:00"
	Evening Window = "16:00-20:00"
)

// PrepHours is the minimum lead time between "now" and a window's start for
// the window to be bookable.
const PrepHours = 20

// DaysOffered is how many calendar days ahead are offered. Today is never
// offered; the range is day+1 through day+DaysOffered.
const DaysOffered = 3

// morningCutoffHour: once the local clock reaches 14:00, tomorrow's morning
// window is closed for booking regardless of the lead-time formula.
const morningCutoffHour = 14

// DateFormat is the calendar-day encoding used everywhere a slot date is
// stored or compared.
const DateFormat = "2006-01-02"

// Valid reports whether w is one of the two known windows.
func (w Window) Valid() bool {
	return w == Morning || w == Evening
}

func (w Window) startHour() int {
	if w == Morning {
		return 10
	}
	return 16
}

// Label renders the window the way the storefront displays it.
func (w Window) Label() string {
	switch w {
	case Morning:
		return "10:00 AM - 2:00 PM"
	case Evening:
		return "4:00 PM - 8:00 PM"
	}
	return string(w)
}

// Slot is a derived (date, window) availability entry. It is recomputed on
// demand and never persisted.
type Slot struct {
	Date      string `json:"date"`
	Window    Window `json:"timeSlot"`
	Available bool   `json:"available"`
}

// Available enumerates the bookable windows for the DaysOffered days after
// now's calendar day, ordered by date then morning before evening. The
// result always has DaysOffered*2 entries; unavailable windows are included
// with Available=false so callers can render them greyed out.
func Available(now time.Time) []Slot {
	slots := make([]Slot, 0, DaysOffered*2)
	for i := 1; i <= DaysOffered; i++ {
		day := now.AddDate(0, 0, i)
		date := day.Format(DateFormat)

		morning := startsAfterLeadTime(now, day, Morning)
		if i == 1 && now.Hour() >= morningCutoffHour {
			morning = false
		}
		slots = append(slots, Slot{Date: date, Window: Morning, Available: morning})

		slots = append(slots, Slot{
			Date:      date,
			Window:    Evening,
			Available: startsAfterLeadTime(now, day, Evening),
		})
	}
	return slots
}

// IsBookable reports whether the (date, window) pair is among the currently
// available slots. Dates outside the offered range are not bookable.
func IsBookable(now time.Time, date string, w Window) bool {
	if !w.Valid() {
		return false
	}
	for _, s := range Available(now) {
		if s.Date == date && s.Window == w {
			return s.Available
		}
	}
	return false
}

// startsAfterLeadTime applies the strict lead-time rule: the window start
// must be strictly later than now + PrepHours. A window starting exactly
// PrepHours from now is not bookable.
func startsAfterLeadTime(now, day time.Time, w Window) bool {
	start := time.Date(day.Year(), day.Month(), day.Day(), w.startHour(), 0, 0, 0, now.Location())
	return start.After(now.Add(PrepHours * time.Hour))
}
