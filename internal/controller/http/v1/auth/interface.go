package auth

import (
	"context"

	"carelog/backend/internal/entity"
)

type Admin interface {
	GetByEmail(ctx context.Context, email string) (entity.Admin, error)
	GetById(ctx context.Context, id int) (entity.Admin, error)
}
