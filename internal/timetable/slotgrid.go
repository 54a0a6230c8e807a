// Package timetable implements the weekly timetable generation engine: a
// randomized-restart greedy search over (day, slot) cells with a
// deterministic fallback pass. The engine is pure; it reads reference data
// and a schedule snapshot and returns entries, leaving persistence to the
// caller.
package timetable

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// SlotMinutes is the fixed duration of every teaching slot.
	SlotMinutes = 50

	// The recess window is fixed at 1:30 PM - 2:00 PM.
	recessStart = 810
	recessEnd   = 840

	recessLabel = "01:30 PM - 02:00 PM"
)

// Weekdays is the teaching week, Monday through Saturday.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// TimeSlot is one window of the daily grid. Slots are derived per run and
// never persisted.
type TimeSlot struct {
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	Label       string `json:"label"`
	IsRecess    bool   `json:"is_recess"`
}

// BuildSlots walks from startMinute toward endMinute in 50-minute steps,
// substituting the single recess block when the walk reaches it. A trailing
// slot that would overrun endMinute is dropped. An inverted window yields an
// empty grid; callers must treat that as a precondition failure.
func BuildSlots(startMinute, endMinute int) []TimeSlot {
	var slots []TimeSlot
	current := startMinute
	for current < endMinute {
		switch {
		case current+SlotMinutes <= recessStart:
			slots = append(slots, newSlot(current))
			current += SlotMinutes
		case current < recessEnd:
			slots = append(slots, TimeSlot{StartMinute: recessStart, EndMinute: recessEnd, Label: recessLabel, IsRecess: true})
			current = recessEnd
		case current+SlotMinutes <= endMinute:
			slots = append(slots, newSlot(current))
			current += SlotMinutes
		default:
			return slots
		}
	}
	return slots
}

// ActiveSlots drops the recess block, leaving only schedulable slots.
func ActiveSlots(slots []TimeSlot) []TimeSlot {
	active := make([]TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if !slot.IsRecess {
			active = append(active, slot)
		}
	}
	return active
}

func newSlot(start int) TimeSlot {
	return TimeSlot{
		StartMinute: start,
		EndMinute:   start + SlotMinutes,
		Label:       fmt.Sprintf("%s - %s", clockLabel(start), clockLabel(start+SlotMinutes)),
	}
}

func clockLabel(minute int) string {
	h := minute / 60
	m := minute % 60
	meridiem := "AM"
	if h >= 12 {
		meridiem = "PM"
	}
	h = h % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h, m, meridiem)
}

// ParseClock converts a "HH:MM" wall-clock string into minutes since
// midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("parse clock %q: expected HH:MM", raw)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", raw, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", raw, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("parse clock %q: out of range", raw)
	}
	return h*60 + m, nil
}
