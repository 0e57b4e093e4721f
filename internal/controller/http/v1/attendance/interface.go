package attendance

import (
	"context"

	"carelog/backend/internal/pkg/repository/redisdb"
	"carelog/backend/internal/repository/postgres/attendance"
)

type Attendance interface {
	Submit(ctx context.Context, request attendance.SubmitRequest) (attendance.SubmitResponse, error)
	GetList(ctx context.Context, filter attendance.Filter) ([]attendance.GetListResponse, int, error)
	GetFeedList(ctx context.Context, filter attendance.Filter) ([]attendance.GetListResponse, int, error)
	GetDetailById(ctx context.Context, id int) (attendance.GetListResponse, error)
	SetStatus(ctx context.Context, request attendance.SetStatusRequest) error
	ApprovedGroupedByDay(ctx context.Context) ([]attendance.DayGroup, error)
}

// Subscriber yields live change events for the streaming log view.
type Subscriber interface {
	SubscribeEvents(ctx context.Context) <-chan redisdb.Event
}
