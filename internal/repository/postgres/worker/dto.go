package worker

import (
	"time"

	"carelog/backend/internal/entity"

	"github.com/uptrace/bun"
)

type Filter struct {
	Limit  *int
	Offset *int
	Page   *int
	Search *string
	Role   *string
}

type GetListResponse struct {
	ID       int             `json:"id"`
	Name     *string         `json:"name"`
	Role     *string         `json:"role"`
	Pin      *string         `json:"pin"`
	Schedule entity.Schedule `json:"schedule"`
}

type GetDetailByIdResponse struct {
	ID       int             `json:"id"`
	Name     *string         `json:"name"`
	Role     *string         `json:"role"`
	Pin      *string         `json:"pin"`
	Schedule entity.Schedule `json:"schedule"`
}

type CreateRequest struct {
	Name     *string         `json:"name" form:"name"`
	Role     *string         `json:"role" form:"role"`
	Pin      *string         `json:"pin" form:"pin"`
	Schedule entity.Schedule `json:"schedule" form:"schedule"`
}

type CreateResponse struct {
	bun.BaseModel `bun:"table:workers"`

	ID        int             `json:"id" bun:"-"`
	Name      *string         `json:"name" bun:"name"`
	Role      *string         `json:"role" bun:"role"`
	Pin       *string         `json:"pin" bun:"pin"`
	Schedule  entity.Schedule `json:"schedule" bun:"schedule,type:jsonb"`
	CreatedAt time.Time       `json:"-" bun:"created_at"`
	CreatedBy int             `json:"-" bun:"created_by"`
}

type UpdateRequest struct {
	ID       int             `json:"id" form:"id"`
	Name     *string         `json:"name" form:"name"`
	Role     *string         `json:"role" form:"role"`
	Pin      *string         `json:"pin" form:"pin"`
	Schedule entity.Schedule `json:"schedule" form:"schedule"`
}
