package worker

import (
	"context"

	"carelog/backend/internal/repository/postgres/worker"
)

type Worker interface {
	GetList(ctx context.Context, filter worker.Filter) ([]worker.GetListResponse, int, error)
	GetDetailById(ctx context.Context, id int) (worker.GetDetailByIdResponse, error)
	Create(ctx context.Context, request worker.CreateRequest) (worker.CreateResponse, error)
	UpdateAll(ctx context.Context, request worker.UpdateRequest) error
	UpdateColumns(ctx context.Context, request worker.UpdateRequest) error
	Delete(ctx context.Context, id int) error
}
