package admin

import (
	"context"
	"net/http"

	"carelog/backend/foundation/web"
	"carelog/backend/internal/entity"
	"carelog/backend/internal/pkg/repository/postgresql"

	"github.com/pkg/errors"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

func (r Repository) GetByEmail(ctx context.Context, email string) (entity.Admin, error) {
	var detail entity.Admin

	err := r.NewSelect().Model(&detail).
		Where("email = ? AND deleted_at IS NULL", email).
		Scan(ctx)
	if err != nil {
		return entity.Admin{}, &web.Error{
			Err:    errors.New("admin not found"),
			Status: http.StatusUnauthorized,
		}
	}

	return detail, nil
}

func (r Repository) GetById(ctx context.Context, id int) (entity.Admin, error) {
	var detail entity.Admin

	err := r.NewSelect().Model(&detail).
		Where("id = ? AND deleted_at IS NULL", id).
		Scan(ctx)
	if err != nil {
		return entity.Admin{}, &web.Error{
			Err:    errors.New("admin not found"),
			Status: http.StatusUnauthorized,
		}
	}

	return detail, nil
}
