// Package postgresql owns the bun database handle shared by all
// repositories, plus the claim and validation helpers they use.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"carelog/backend/foundation/web"
	"carelog/backend/internal/auth"

	"github.com/pkg/errors"
)

type Database struct {
	*bun.DB
}

// NewDatabase opens the connection pool described by the DSN parameters.
func NewDatabase(username, password, host, port, name string, disableTLS bool) *Database {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", username, password, host, port, name)
	if disableTLS {
		dsn += "?sslmode=disable"
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if os.Getenv("DEBUG") != "" {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	return &Database{DB: db}
}

// CheckClaims pulls the authenticated claims from the context, optionally
// requiring one of the given roles.
func (d *Database) CheckClaims(ctx context.Context, roles ...string) (auth.Claims, error) {
	claims, ok := ctx.Value(auth.Key).(auth.Claims)
	if !ok {
		return auth.Claims{}, web.NewRequestError(errors.New("claims missing from context"), http.StatusUnauthorized)
	}

	if len(roles) > 0 && !claims.Authorized(roles...) {
		return auth.Claims{}, web.NewRequestError(errors.New("attempted action is not allowed"), http.StatusUnauthorized)
	}

	return claims, nil
}

// ValidateStruct checks required request fields before a write is attempted.
func (d *Database) ValidateStruct(v interface{}, requiredFields ...string) error {
	return web.ValidateStruct(v, requiredFields...)
}

// DeleteRow marks a row deleted. Rows stay in the table but every read in
// the repositories filters on deleted_at IS NULL, so a deleted row is gone
// as far as the API is concerned.
func (d *Database) DeleteRow(ctx context.Context, table string, id int) error {
	claims, err := d.CheckClaims(ctx)
	if err != nil {
		return err
	}

	result, err := d.NewUpdate().
		Table(table).
		Where("deleted_at IS NULL AND id = ?", id).
		Set("deleted_at = ?", time.Now()).
		Set("deleted_by = ?", claims.UserId).
		Exec(ctx)
	if err != nil {
		return web.NewRequestError(errors.Wrapf(err, "deleting from %s", table), http.StatusInternalServerError)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "checking delete result"), http.StatusInternalServerError)
	}
	if rows == 0 {
		return web.NewRequestError(errors.Errorf("%s row not found", table), http.StatusNotFound)
	}

	return nil
}
