package entity

import (
	"github.com/uptrace/bun"
)

type Admin struct {
	bun.BaseModel `bun:"table:admins"`

	BasicEntity
	Email    *string `json:"email" bun:"email"`
	Password *string `json:"-" bun:"password"`
	Role     *string `json:"role" bun:"role"`
}
