package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// SubjectType classifies a subject for scheduling priority.
type SubjectType string

const (
	SubjectTypeMajor SubjectType = "Major"
	SubjectTypeMinor SubjectType = "Minor"
	SubjectTypeAEC   SubjectType = "AEC"
	SubjectTypeSEC   SubjectType = "SEC"
	SubjectTypeVAC   SubjectType = "VAC"
)

// Minority reports whether the type belongs to the elective/minority group
// that gets pushed toward Saturday during generation.
func (t SubjectType) Minority() bool {
	switch t {
	case SubjectTypeMinor, SubjectTypeAEC, SubjectTypeSEC, SubjectTypeVAC:
		return true
	}
	return false
}

// Subject represents an academic subject with its weekly session demand.
type Subject struct {
	ID               string         `db:"id" json:"id"`
	Name             string         `db:"name" json:"name"`
	Semester         int            `db:"semester" json:"semester"`
	Department       string         `db:"department" json:"department"`
	Type             SubjectType    `db:"subject_type" json:"type"`
	LectureCount     int            `db:"lecture_count" json:"lecture_count"`
	LabCount         int            `db:"lab_count" json:"lab_count"`
	AllowedDivisions pq.StringArray `db:"allowed_divisions" json:"allowed_divisions"`
	DivisionStaff    types.JSONText `db:"division_staff" json:"division_staff"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// AllowsDivision reports whether the subject is taught in the given division.
func (s *Subject) AllowsDivision(division string) bool {
	for _, d := range s.AllowedDivisions {
		if d == division {
			return true
		}
	}
	return false
}

// StaffFor resolves the primary staff id assigned to the division. An empty
// result means any staff is acceptable for the subject's sessions.
func (s *Subject) StaffFor(division string) string {
	return s.staffMap()[division]
}

// TaughtBy reports whether the staff id is the subject's primary staff in any
// division.
func (s *Subject) TaughtBy(staffID string) bool {
	if staffID == "" {
		return false
	}
	for _, id := range s.staffMap() {
		if id == staffID {
			return true
		}
	}
	return false
}

func (s *Subject) staffMap() map[string]string {
	if len(s.DivisionStaff) == 0 {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(s.DivisionStaff, &m); err != nil {
		return nil
	}
	return m
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Semester   int
	Department string
	Division   string
}
