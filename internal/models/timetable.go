package models

import "time"

// SessionType distinguishes lecture sessions from lab sessions.
type SessionType string

const (
	SessionTypeLecture SessionType = "Lecture"
	SessionTypeLab     SessionType = "Lab"
)

// TimetableEntry is one scheduled session: a (day, time, division) cell of
// the weekly grid. Entries for a scope are deleted wholesale and regenerated
// on every generation run; entries outside the scope are read-only conflict
// baseline.
type TimetableEntry struct {
	ID        string      `db:"id" json:"id"`
	Day       string      `db:"day" json:"day"`
	TimeLabel string      `db:"time_label" json:"time"`
	Semester  int         `db:"semester" json:"semester"`
	Division  string      `db:"division" json:"division"`
	StaffID   string      `db:"staff_id" json:"staff_id"`
	StaffName string      `db:"staff_name" json:"staff_name"`
	Subject   string      `db:"subject" json:"subject"`
	Type      SessionType `db:"session_type" json:"type"`
	RoomName  string      `db:"room_name" json:"room_name"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// TimetableFilter describes query params for listing timetable entries.
type TimetableFilter struct {
	Semester int
	Division string
	StaffID  string
	Day      string
}

// Scope identifies the (semester, division) pair targeted by one generation
// run.
type Scope struct {
	Semester int    `json:"semester"`
	Division string `json:"division"`
}
