package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"carelog/backend/foundation/web"
	"carelog/backend/internal/auth"
	"carelog/backend/internal/entity"
	"carelog/backend/internal/pkg/repository/postgresql"
	"carelog/backend/internal/pkg/repository/redisdb"
	"carelog/backend/internal/repository/postgres"

	"github.com/pkg/errors"
)

const maxNotesLen = 500

// Publisher pushes change events to the live feed. Publishing is best
// effort: a feed failure never fails the durable write that preceded it.
type Publisher interface {
	PublishEvent(ctx context.Context, event redisdb.Event) error
}

// PinResolver maps a submitted pin to a worker. Resolution failures come
// back as *web.Error values ready for the response.
type PinResolver interface {
	GetByPin(ctx context.Context, pin string) (entity.Worker, error)
}

type Repository struct {
	*postgresql.Database
	pins PinResolver
	feed Publisher
	loc  *time.Location
}

func NewRepository(database *postgresql.Database, pins PinResolver, feed Publisher, loc *time.Location) *Repository {
	return &Repository{Database: database, pins: pins, feed: feed, loc: loc}
}

// Submit validates the pin and schedule and creates a pending record with
// the worker's name, role and shift copied as an immutable snapshot.
func (r Repository) Submit(ctx context.Context, request SubmitRequest) (SubmitResponse, error) {
	if err := r.ValidateStruct(&request, "Pin"); err != nil {
		return SubmitResponse{}, err
	}

	notes := strings.TrimSpace(request.Notes)
	if utf8.RuneCountInString(notes) > maxNotesLen {
		return SubmitResponse{}, web.NewRequestError(errors.Errorf("notes cannot be longer than %d characters", maxNotesLen), http.StatusBadRequest)
	}

	worker, err := r.pins.GetByPin(ctx, *request.Pin)
	if err != nil {
		return SubmitResponse{}, err
	}

	now := time.Now().In(r.loc)

	shift, ok := worker.Schedule.ShiftOn(now)
	if !ok {
		return SubmitResponse{}, web.NewRequestError(postgres.ErrNotScheduled, http.StatusBadRequest)
	}

	var response SubmitResponse
	response.WorkerID = &worker.ID
	response.Name = worker.Name
	response.Role = worker.Role
	response.Shift = &shift
	response.Notes = notes
	response.Timestamp = now
	response.Status = entity.StatusPending
	response.CreatedAt = now

	// One durable write; a failure surfaces to the caller for a manual retry.
	_, err = r.NewInsert().Model(&response).Returning("id").Exec(ctx, &response.ID)
	if err != nil {
		return SubmitResponse{}, web.NewRequestError(errors.Wrap(err, "creating attendance record"), http.StatusInternalServerError)
	}

	r.publish(ctx, redisdb.Event{Operation: "create", RecordID: response.ID, At: now})

	return response, nil
}

func (r Repository) GetList(ctx context.Context, filter Filter) ([]GetListResponse, int, error) {
	_, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleDashboard)
	if err != nil {
		return nil, 0, err
	}

	return r.getList(ctx, filter)
}

// GetFeedList is the claims-free variant backing the live feed stream; the
// feed handler has already authenticated the subscriber. The feed shows the
// current day unless the caller narrows it further.
func (r Repository) GetFeedList(ctx context.Context, filter Filter) ([]GetListResponse, int, error) {
	if filter.Date == nil {
		today := time.Now().In(r.loc).Format("2006-01-02")
		filter.Date = &today
	}

	return r.getList(ctx, filter)
}

func (r Repository) getList(ctx context.Context, filter Filter) ([]GetListResponse, int, error) {
	whereQuery := `
			WHERE
				a.deleted_at IS NULL
			`

	if filter.Search != nil {
		search := strings.Replace(*filter.Search, "'", "''", -1)
		whereQuery += fmt.Sprintf(` AND a.name ilike '%s'`, "%"+search+"%")
	}
	if filter.Status != nil {
		status := strings.Replace(*filter.Status, "'", "''", -1)
		whereQuery += fmt.Sprintf(` AND a.status = '%s'`, status)
	}
	if filter.Date != nil {
		day, err := time.ParseInLocation("2006-01-02", *filter.Date, r.loc)
		if err != nil {
			return nil, 0, web.NewRequestError(errors.Wrap(err, "date parse"), http.StatusBadRequest)
		}
		start := day
		end := day.AddDate(0, 0, 1)
		whereQuery += fmt.Sprintf(" AND a.timestamp >= '%s' AND a.timestamp < '%s'",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	orderQuery := "ORDER BY a.timestamp desc"

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
			a.id,
			a.worker_id,
			a.name,
			a.role,
			a.shift,
			a.notes,
			a.timestamp,
			a.status
		FROM attendance_records a
		%s %s %s %s
	`, whereQuery, orderQuery, limitQuery, offsetQuery)

	rows, err := r.QueryContext(ctx, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}
	if err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "selecting attendance records"), http.StatusInternalServerError)
	}
	defer rows.Close()

	var list []GetListResponse

	for rows.Next() {
		var detail GetListResponse

		if err = rows.Scan(
			&detail.ID,
			&detail.WorkerID,
			&detail.Name,
			&detail.Role,
			&detail.Shift,
			&detail.Notes,
			&detail.Timestamp,
			&detail.Status); err != nil {
			return nil, 0, web.NewRequestError(errors.Wrap(err, "scanning attendance list"), http.StatusBadRequest)
		}

		list = append(list, detail)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "reading attendance list"), http.StatusInternalServerError)
	}

	countQuery := fmt.Sprintf(`
		SELECT
			count(a.id)
		FROM attendance_records a
		%s
	`, whereQuery)

	count := 0
	if err = r.QueryRowContext(ctx, countQuery).Scan(&count); err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "scanning attendance count"), http.StatusInternalServerError)
	}

	return list, count, nil
}

func (r Repository) GetDetailById(ctx context.Context, id int) (GetListResponse, error) {
	_, err := r.CheckClaims(ctx, auth.RoleAdmin)
	if err != nil {
		return GetListResponse{}, err
	}

	var detail GetListResponse

	query := fmt.Sprintf(`
		SELECT
			a.id,
			a.worker_id,
			a.name,
			a.role,
			a.shift,
			a.notes,
			a.timestamp,
			a.status
		FROM attendance_records a
		WHERE a.deleted_at IS NULL AND a.id = %d
	`, id)

	err = r.QueryRowContext(ctx, query).Scan(
		&detail.ID,
		&detail.WorkerID,
		&detail.Name,
		&detail.Role,
		&detail.Shift,
		&detail.Notes,
		&detail.Timestamp,
		&detail.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return GetListResponse{}, web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}
	if err != nil {
		return GetListResponse{}, web.NewRequestError(errors.Wrap(err, "selecting attendance detail"), http.StatusInternalServerError)
	}

	return detail, nil
}

// SetStatus moves a record to approved or rejected. Status is the only
// mutable field; repeating a transition leaves everything else untouched,
// and concurrent moderators resolve last-write-wins.
func (r Repository) SetStatus(ctx context.Context, request SetStatusRequest) error {
	claims, err := r.CheckClaims(ctx, auth.RoleAdmin)
	if err != nil {
		return err
	}

	if err := r.ValidateStruct(&request, "ID", "Status"); err != nil {
		return err
	}

	status := *request.Status
	if status != entity.StatusApproved && status != entity.StatusRejected {
		return web.NewRequestError(errors.New("status must be approved or rejected"), http.StatusBadRequest)
	}

	q := r.NewUpdate().Table("attendance_records").Where("deleted_at IS NULL AND id = ?", request.ID)
	q.Set("status = ?", status)
	q.Set("updated_at = ?", time.Now())
	q.Set("updated_by = ?", claims.UserId)

	result, err := q.Exec(ctx)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "updating attendance status"), http.StatusInternalServerError)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "checking status update"), http.StatusInternalServerError)
	}
	if rows == 0 {
		return web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}

	r.publish(ctx, redisdb.Event{Operation: "status", RecordID: request.ID, At: time.Now()})

	return nil
}

// ApprovedNotesByDay collects the non-blank notes of approved records whose
// timestamp falls on the given calendar day, in store order.
func (r Repository) ApprovedNotesByDay(ctx context.Context, day time.Time) ([]string, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, r.loc)
	end := start.AddDate(0, 0, 1)

	rows, err := r.QueryContext(ctx, fmt.Sprintf(`
		SELECT a.notes
		FROM attendance_records a
		WHERE a.deleted_at IS NULL
		  AND a.status = '%s'
		  AND a.timestamp >= '%s' AND a.timestamp < '%s'
		ORDER BY a.timestamp desc
	`, entity.StatusApproved, start.Format(time.RFC3339), end.Format(time.RFC3339)))
	if err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "selecting approved notes"), http.StatusInternalServerError)
	}
	defer rows.Close()

	var notes []string
	for rows.Next() {
		var note string
		if err = rows.Scan(&note); err != nil {
			return nil, web.NewRequestError(errors.Wrap(err, "scanning notes"), http.StatusInternalServerError)
		}
		if strings.TrimSpace(note) == "" {
			continue
		}
		notes = append(notes, note)
	}
	if err = rows.Err(); err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "reading notes"), http.StatusInternalServerError)
	}

	return notes, nil
}

// ApprovedGroupedByDay returns every approved record grouped into report
// sections: days descending, rows within a day in store order.
func (r Repository) ApprovedGroupedByDay(ctx context.Context) ([]DayGroup, error) {
	if _, err := r.CheckClaims(ctx, auth.RoleAdmin); err != nil {
		return nil, err
	}

	status := entity.StatusApproved
	list, _, err := r.getList(ctx, Filter{Status: &status})
	if err != nil {
		return nil, err
	}

	return GroupByDay(list, r.loc), nil
}

// GroupByDay buckets records (already ordered newest first) by calendar day
// in loc. Input order is preserved inside each group, and groups come out
// days-descending because the input is timestamp-descending.
func GroupByDay(list []GetListResponse, loc *time.Location) []DayGroup {
	var groups []DayGroup
	index := map[string]int{}

	for _, record := range list {
		if record.Timestamp == nil {
			continue
		}
		ts := record.Timestamp.In(loc)
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc)
		key := day.Format("2006-01-02")

		i, ok := index[key]
		if !ok {
			groups = append(groups, DayGroup{Day: day})
			i = len(groups) - 1
			index[key] = i
		}

		groups[i].Rows = append(groups[i].Rows, Row{
			Name:  strValue(record.Name),
			Role:  strValue(record.Role),
			Shift: strValue(record.Shift),
			Time:  ts.Format("15:04"),
			Notes: record.Notes,
		})
	}

	return groups
}

func (r Repository) publish(ctx context.Context, event redisdb.Event) {
	if r.feed == nil {
		return
	}
	if err := r.feed.PublishEvent(ctx, event); err != nil {
		log.Println("feed publish:", err)
	}
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
