package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Worker roles form a closed set.
const (
	RoleCarer     = "Carer"
	RoleCook      = "Cook"
	RoleCleaner   = "Cleaner"
	RoleExecutive = "Executive"
	RoleVolunteer = "Volunteer"
)

// Shift labels. "Evening" is the canonical label for the late shift.
const (
	ShiftMorning   = "Morning"
	ShiftAfternoon = "Afternoon"
	ShiftEvening   = "Evening"
	ShiftOffDay    = "Off Day"
)

var Roles = []string{RoleCarer, RoleCook, RoleCleaner, RoleExecutive, RoleVolunteer}

var Shifts = []string{ShiftMorning, ShiftAfternoon, ShiftEvening, ShiftOffDay}

var DaysOfWeek = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Schedule maps each weekday name to the worker's shift for that day.
type Schedule map[string]string

// ShiftOn returns the shift scheduled at t, or ok=false when the worker has
// no working shift that day (no entry, or Off Day).
func (s Schedule) ShiftOn(t time.Time) (string, bool) {
	shift, ok := s[t.Weekday().String()]
	if !ok || shift == "" || shift == ShiftOffDay {
		return "", false
	}
	return shift, true
}

// Valid reports whether every entry uses a known weekday and shift label.
func (s Schedule) Valid() bool {
	for day, shift := range s {
		if !contains(DaysOfWeek, day) || !contains(Shifts, shift) {
			return false
		}
	}
	return true
}

func ValidRole(role string) bool {
	return contains(Roles, role)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

type Worker struct {
	bun.BaseModel `bun:"table:workers"`

	BasicEntity
	Name     *string  `json:"name" bun:"name"`
	Role     *string  `json:"role" bun:"role"`
	Pin      *string  `json:"pin" bun:"pin"`
	Schedule Schedule `json:"schedule" bun:"schedule,type:jsonb"`
}
