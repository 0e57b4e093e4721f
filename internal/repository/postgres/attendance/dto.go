package attendance

import (
	"time"

	"github.com/uptrace/bun"
)

type Filter struct {
	Limit  *int
	Offset *int
	Page   *int
	Search *string
	Status *string
	Date   *string
}

type SubmitRequest struct {
	Pin   *string `json:"pin" form:"pin"`
	Notes string  `json:"notes" form:"notes"`
}

type SubmitResponse struct {
	bun.BaseModel `bun:"table:attendance_records"`

	ID        int       `json:"id" bun:"-"`
	WorkerID  *int      `json:"worker_id" bun:"worker_id"`
	Name      *string   `json:"name" bun:"name"`
	Role      *string   `json:"role" bun:"role"`
	Shift     *string   `json:"shift" bun:"shift"`
	Notes     string    `json:"notes" bun:"notes"`
	Timestamp time.Time `json:"timestamp" bun:"timestamp"`
	Status    string    `json:"status" bun:"status"`
	CreatedAt time.Time `json:"-" bun:"created_at"`
}

type GetListResponse struct {
	ID        int        `json:"id"`
	WorkerID  *int       `json:"worker_id"`
	Name      *string    `json:"name"`
	Role      *string    `json:"role"`
	Shift     *string    `json:"shift"`
	Notes     string     `json:"notes"`
	Timestamp *time.Time `json:"timestamp"`
	Status    *string    `json:"status"`
}

type SetStatusRequest struct {
	ID     int     `json:"id" form:"id"`
	Status *string `json:"status" form:"status"`
}

// Row is one line of the approved-attendance report.
type Row struct {
	Name  string
	Role  string
	Shift string
	Time  string
	Notes string
}

// DayGroup is one report section: a calendar day and its rows in store
// order (newest first).
type DayGroup struct {
	Day  time.Time
	Rows []Row
}
