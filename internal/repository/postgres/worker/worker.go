package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"carelog/backend/foundation/web"
	"carelog/backend/internal/auth"
	"carelog/backend/internal/entity"
	"carelog/backend/internal/pkg/repository/postgresql"
	"carelog/backend/internal/repository/postgres"

	"github.com/pkg/errors"
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

// GetByPin returns the first worker matching the pin in id order. PINs are
// unique by a write-time check only, so the tie-break matters when the check
// has raced.
func (r Repository) GetByPin(ctx context.Context, pin string) (entity.Worker, error) {
	if !pinPattern.MatchString(pin) {
		return entity.Worker{}, web.NewRequestError(postgres.ErrInvalidPin, http.StatusBadRequest)
	}

	var detail entity.Worker

	err := r.NewSelect().Model(&detail).
		Where("pin = ? AND deleted_at IS NULL", pin).
		Order("id ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Worker{}, web.NewRequestError(postgres.ErrInvalidPin, http.StatusBadRequest)
	}
	if err != nil {
		return entity.Worker{}, web.NewRequestError(errors.Wrap(err, "selecting worker by pin"), http.StatusInternalServerError)
	}

	return detail, nil
}

func (r Repository) GetList(ctx context.Context, filter Filter) ([]GetListResponse, int, error) {
	_, err := r.CheckClaims(ctx, auth.RoleAdmin)
	if err != nil {
		return nil, 0, err
	}

	whereQuery := `
			WHERE
				w.deleted_at IS NULL
			`

	if filter.Search != nil {
		search := strings.Replace(*filter.Search, "'", "''", -1)
		whereQuery += fmt.Sprintf(` AND w.name ilike '%s'`, "%"+search+"%")
	}
	if filter.Role != nil {
		role := strings.Replace(*filter.Role, "'", "''", -1)
		whereQuery += fmt.Sprintf(` AND w.role = '%s'`, role)
	}

	orderQuery := "ORDER BY w.name asc"

	var limitQuery, offsetQuery string

	if filter.Page != nil && filter.Limit != nil {
		offset := (*filter.Page - 1) * (*filter.Limit)
		filter.Offset = &offset
	}

	if filter.Limit != nil {
		limitQuery += fmt.Sprintf(" LIMIT %d", *filter.Limit)
	}

	if filter.Offset != nil {
		offsetQuery += fmt.Sprintf(" OFFSET %d", *filter.Offset)
	}

	query := fmt.Sprintf(`
		SELECT
			w.id,
			w.name,
			w.role,
			w.pin,
			w.schedule
		FROM workers w
		%s %s %s %s
	`, whereQuery, orderQuery, limitQuery, offsetQuery)

	rows, err := r.QueryContext(ctx, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}
	if err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "selecting workers"), http.StatusInternalServerError)
	}
	defer rows.Close()

	var list []GetListResponse

	for rows.Next() {
		var detail GetListResponse
		var scheduleBytes []byte

		if err = rows.Scan(
			&detail.ID,
			&detail.Name,
			&detail.Role,
			&detail.Pin,
			&scheduleBytes); err != nil {
			return nil, 0, web.NewRequestError(errors.Wrap(err, "scanning worker list"), http.StatusBadRequest)
		}

		if scheduleBytes != nil {
			if err = json.Unmarshal(scheduleBytes, &detail.Schedule); err != nil {
				return nil, 0, web.NewRequestError(errors.Wrap(err, "parsing worker schedule"), http.StatusInternalServerError)
			}
		}

		list = append(list, detail)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "reading worker list"), http.StatusInternalServerError)
	}

	countQuery := fmt.Sprintf(`
		SELECT
			count(w.id)
		FROM workers w
		%s
	`, whereQuery)

	count := 0
	if err = r.QueryRowContext(ctx, countQuery).Scan(&count); err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "scanning worker count"), http.StatusInternalServerError)
	}

	return list, count, nil
}

func (r Repository) GetDetailById(ctx context.Context, id int) (GetDetailByIdResponse, error) {
	_, err := r.CheckClaims(ctx, auth.RoleAdmin)
	if err != nil {
		return GetDetailByIdResponse{}, err
	}

	query := fmt.Sprintf(`
		SELECT
			w.id,
			w.name,
			w.role,
			w.pin,
			w.schedule
		FROM workers w
		WHERE w.deleted_at IS NULL AND w.id = %d
	`, id)

	var detail GetDetailByIdResponse
	var scheduleBytes []byte

	err = r.QueryRowContext(ctx, query).Scan(
		&detail.ID,
		&detail.Name,
		&detail.Role,
		&detail.Pin,
		&scheduleBytes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return GetDetailByIdResponse{}, web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}
	if err != nil {
		return GetDetailByIdResponse{}, web.NewRequestError(errors.Wrap(err, "selecting worker detail"), http.StatusInternalServerError)
	}

	if scheduleBytes != nil {
		if err = json.Unmarshal(scheduleBytes, &detail.Schedule); err != nil {
			return GetDetailByIdResponse{}, web.NewRequestError(errors.Wrap(err, "parsing worker schedule"), http.StatusInternalServerError)
		}
	}

	return detail, nil
}

func (r Repository) Create(ctx context.Context, request CreateRequest) (CreateResponse, error) {
	claims, err := r.CheckClaims(ctx, auth.RoleAdmin)
	if err != nil {
		return CreateResponse{}, err
	}

	if err := r.ValidateStruct(&request, "Name", "Role", "Pin"); err != nil {
		return CreateResponse{}, err
	}

	if err := validateWorker(request.Role, request.Pin, request.Schedule); err != nil {
		return CreateResponse{}, err
	}

	if err := r.checkPinInUse(ctx, *request.Pin, 0); err != nil {
		return CreateResponse{}, err
	}

	var response CreateResponse
	response.Name = request.Name
	response.Role = request.Role
	response.Pin = request.Pin
	response.Schedule = request.Schedule
	response.CreatedAt = time.Now()
	response.CreatedBy = claims.UserId

	_, err = r.NewInsert().Model(&response).Returning("id").Exec(ctx, &response.ID)
	if err != nil {
		return CreateResponse{}, web.NewRequestError(errors.Wrap(err, "creating worker"), http.StatusBadRequest)
	}

	return response, nil
}

func (r Repository) UpdateAll(ctx context.Context, request UpdateRequest) error {
	claims, err := r.CheckClaims(ctx, auth.RoleAdmin)
	if err != nil {
		return err
	}

	if err := r.ValidateStruct(&request, "ID", "Name", "Role", "Pin"); err != nil {
		return err
	}

	if err := validateWorker(request.Role, request.Pin, request.Schedule); err != nil {
		return err
	}

	if err := r.checkPinInUse(ctx, *request.Pin, request.ID); err != nil {
		return err
	}

	scheduleJSON, err := json.Marshal(request.Schedule)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "encoding schedule"), http.StatusBadRequest)
	}

	q := r.NewUpdate().Table("workers").Where("deleted_at IS NULL AND id = ?", request.ID)
	q.Set("name = ?", request.Name)
	q.Set("role = ?", request.Role)
	q.Set("pin = ?", request.Pin)
	q.Set("schedule = ?", string(scheduleJSON))
	q.Set("updated_at = ?", time.Now())
	q.Set("updated_by = ?", claims.UserId)

	result, err := q.Exec(ctx)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "updating worker"), http.StatusBadRequest)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}

	return nil
}

func (r Repository) UpdateColumns(ctx context.Context, request UpdateRequest) error {
	claims, err := r.CheckClaims(ctx, auth.RoleAdmin)
	if err != nil {
		return err
	}

	if err := r.ValidateStruct(&request, "ID"); err != nil {
		return err
	}

	q := r.NewUpdate().Table("workers").Where("deleted_at IS NULL AND id = ?", request.ID)

	if request.Name != nil {
		q.Set("name = ?", request.Name)
	}
	if request.Role != nil {
		if !entity.ValidRole(*request.Role) {
			return web.NewRequestError(errors.Errorf("incorrect role. role should be one of: %s", strings.Join(entity.Roles, ", ")), http.StatusBadRequest)
		}
		q.Set("role = ?", request.Role)
	}
	if request.Pin != nil {
		if !pinPattern.MatchString(*request.Pin) {
			return web.NewRequestError(errors.New("pin must be exactly 4 digits"), http.StatusBadRequest)
		}
		if err := r.checkPinInUse(ctx, *request.Pin, request.ID); err != nil {
			return err
		}
		q.Set("pin = ?", request.Pin)
	}
	if request.Schedule != nil {
		if !request.Schedule.Valid() {
			return web.NewRequestError(errors.New("schedule contains an unknown weekday or shift"), http.StatusBadRequest)
		}
		scheduleJSON, err := json.Marshal(request.Schedule)
		if err != nil {
			return web.NewRequestError(errors.Wrap(err, "encoding schedule"), http.StatusBadRequest)
		}
		q.Set("schedule = ?", string(scheduleJSON))
	}
	q.Set("updated_at = ?", time.Now())
	q.Set("updated_by = ?", claims.UserId)

	result, err := q.Exec(ctx)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "updating worker"), http.StatusBadRequest)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}

	return nil
}

func (r Repository) Delete(ctx context.Context, id int) error {
	if _, err := r.CheckClaims(ctx, auth.RoleAdmin); err != nil {
		return err
	}

	// Unconditional: attendance records referencing this worker keep their
	// snapshot fields and a dangling worker_id.
	return r.DeleteRow(ctx, "workers", id)
}

// checkPinInUse scans for another live worker holding the pin. This is a
// check-then-act pair with the caller's insert/update, so two concurrent
// writers can both pass; the GetByPin tie-break covers that window.
func (r Repository) checkPinInUse(ctx context.Context, pin string, excludeID int) error {
	inUse := false
	query := fmt.Sprintf(`
		SELECT CASE WHEN
		(SELECT id FROM workers WHERE pin = '%s' AND deleted_at IS NULL AND id != %d LIMIT 1) IS NOT NULL
		THEN true ELSE false END`, pin, excludeID)

	if err := r.QueryRowContext(ctx, query).Scan(&inUse); err != nil {
		return web.NewRequestError(errors.Wrap(err, "pin check"), http.StatusInternalServerError)
	}
	if inUse {
		return web.NewRequestError(postgres.ErrDuplicatePin, http.StatusBadRequest)
	}

	return nil
}

func validateWorker(role, pin *string, schedule entity.Schedule) error {
	if role != nil && !entity.ValidRole(*role) {
		return web.NewRequestError(errors.Errorf("incorrect role. role should be one of: %s", strings.Join(entity.Roles, ", ")), http.StatusBadRequest)
	}
	if pin != nil && !pinPattern.MatchString(*pin) {
		return web.NewRequestError(errors.New("pin must be exactly 4 digits"), http.StatusBadRequest)
	}
	if schedule != nil && !schedule.Valid() {
		return web.NewRequestError(errors.New("schedule contains an unknown weekday or shift"), http.StatusBadRequest)
	}

	return nil
}
