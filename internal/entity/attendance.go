package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Attendance record moderation states. Records are created pending and move
// to approved or rejected exactly once in the normal flow; repeating a
// transition is harmless (status is the only mutable field).
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// AttendanceRecord is an append-style submission event. Name, role and shift
// are copied from the worker at submission time and never synced with later
// worker edits; worker_id is a back-reference that may dangle after the
// worker is deleted.
type AttendanceRecord struct {
	bun.BaseModel `bun:"table:attendance_records"`

	BasicEntity
	WorkerID  *int       `json:"worker_id" bun:"worker_id"`
	Name      *string    `json:"name" bun:"name"`
	Role      *string    `json:"role" bun:"role"`
	Shift     *string    `json:"shift" bun:"shift"`
	Notes     string     `json:"notes" bun:"notes"`
	Timestamp *time.Time `json:"timestamp" bun:"timestamp"`
	Status    *string    `json:"status" bun:"status"`
}
