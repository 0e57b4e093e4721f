package attendance

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"carelog/backend/foundation/web"
	"carelog/backend/internal/auth"
	"carelog/backend/internal/entity"
	"carelog/backend/internal/pkg/repository/postgresql"
	"carelog/backend/internal/pkg/repository/redisdb"
	"carelog/backend/internal/repository/postgres"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// The stub driver serves queued results without a server so repository
// decisions (affected-row handling, scan failures) can be pinned down.
type stubRows struct {
	columns []string
	values  [][]driver.Value
	i       int
	closed  bool
}

func (r *stubRows) Columns() []string { return r.columns }
func (r *stubRows) Close() error      { r.closed = true; return nil }
func (r *stubRows) Next(dest []driver.Value) error {
	if r.i >= len(r.values) {
		return io.EOF
	}
	copy(dest, r.values[r.i])
	r.i++
	return nil
}

type stubConn struct {
	results      []*stubRows
	execAffected int64
	execs        int
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}
func (c *stubConn) Close() error              { return nil }
func (c *stubConn) Begin() (driver.Tx, error) { return nil, errors.New("begin not supported") }

func (c *stubConn) QueryContext(_ context.Context, _ string, _ []driver.NamedValue) (driver.Rows, error) {
	if len(c.results) == 0 {
		return nil, errors.New("no result queued")
	}
	rows := c.results[0]
	c.results = c.results[1:]
	return rows, nil
}

func (c *stubConn) ExecContext(_ context.Context, _ string, _ []driver.NamedValue) (driver.Result, error) {
	c.execs++
	return driver.RowsAffected(c.execAffected), nil
}

type stubDriver struct{ conn *stubConn }

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

var stubbedConn = &stubConn{}

func init() {
	sql.Register("attendancestub", &stubDriver{conn: stubbedConn})
}

func stubDatabase() *postgresql.Database {
	sqldb, _ := sql.Open("attendancestub", "")
	return &postgresql.Database{DB: bun.NewDB(sqldb, pgdialect.New())}
}

type pinResolverFunc func(ctx context.Context, pin string) (entity.Worker, error)

func (f pinResolverFunc) GetByPin(ctx context.Context, pin string) (entity.Worker, error) {
	return f(ctx, pin)
}

type feedRecorder struct{ events []redisdb.Event }

func (f *feedRecorder) PublishEvent(_ context.Context, event redisdb.Event) error {
	f.events = append(f.events, event)
	return nil
}

func adminCtx() context.Context {
	return context.WithValue(context.Background(), auth.Key, auth.Claims{UserId: 1, Role: auth.RoleAdmin})
}

func TestSubmitInvalidPin(t *testing.T) {
	resolver := pinResolverFunc(func(_ context.Context, _ string) (entity.Worker, error) {
		return entity.Worker{}, web.NewRequestError(postgres.ErrInvalidPin, http.StatusBadRequest)
	})
	repo := NewRepository(nil, resolver, nil, time.UTC)

	pin := "9999"
	_, err := repo.Submit(context.Background(), SubmitRequest{Pin: &pin})
	if !errors.Is(err, postgres.ErrInvalidPin) {
		t.Fatalf("expected ErrInvalidPin, got %v", err)
	}

	var webErr *web.Error
	if !errors.As(err, &webErr) || webErr.Status != http.StatusBadRequest {
		t.Fatalf("expected a 400 response error, got %v", err)
	}
}

func TestSubmitNotesLength(t *testing.T) {
	resolverCalls := 0
	resolver := pinResolverFunc(func(_ context.Context, _ string) (entity.Worker, error) {
		resolverCalls++
		return entity.Worker{}, web.NewRequestError(postgres.ErrInvalidPin, http.StatusBadRequest)
	})
	repo := NewRepository(nil, resolver, nil, time.UTC)

	pin := "1234"

	// The bound counts characters, not bytes: 500 two-byte runes are fine,
	// so the pin lookup is reached.
	_, err := repo.Submit(context.Background(), SubmitRequest{Pin: &pin, Notes: strings.Repeat("ā", 500)})
	if !errors.Is(err, postgres.ErrInvalidPin) {
		t.Fatalf("a 500-character note must pass the length check, got %v", err)
	}
	if resolverCalls != 1 {
		t.Fatalf("expected the pin lookup to run, calls=%d", resolverCalls)
	}

	_, err = repo.Submit(context.Background(), SubmitRequest{Pin: &pin, Notes: strings.Repeat("ā", 501)})
	if err == nil || !strings.Contains(err.Error(), "500 characters") {
		t.Fatalf("expected the length error, got %v", err)
	}
	if resolverCalls != 1 {
		t.Fatalf("an over-long note must be rejected before the pin lookup, calls=%d", resolverCalls)
	}
}

func TestSubmitNotScheduled(t *testing.T) {
	name := "Alice Tan"
	role := entity.RoleCarer
	today := time.Now().In(time.UTC).Weekday().String()

	for _, schedule := range []entity.Schedule{
		{},
		{today: entity.ShiftOffDay},
	} {
		resolver := pinResolverFunc(func(_ context.Context, _ string) (entity.Worker, error) {
			return entity.Worker{
				BasicEntity: entity.BasicEntity{ID: 3},
				Name:        &name,
				Role:        &role,
				Schedule:    schedule,
			}, nil
		})
		repo := NewRepository(nil, resolver, nil, time.UTC)

		pin := "1234"
		_, err := repo.Submit(context.Background(), SubmitRequest{Pin: &pin})
		if !errors.Is(err, postgres.ErrNotScheduled) {
			t.Fatalf("schedule %v: expected ErrNotScheduled, got %v", schedule, err)
		}
	}
}

func TestSetStatusIdempotent(t *testing.T) {
	stubbedConn.execAffected = 1
	stubbedConn.execs = 0
	feed := &feedRecorder{}
	repo := NewRepository(stubDatabase(), nil, feed, time.UTC)

	status := entity.StatusApproved
	request := SetStatusRequest{ID: 5, Status: &status}

	if err := repo.SetStatus(adminCtx(), request); err != nil {
		t.Fatal(err)
	}
	// Approving an already-approved record is allowed and succeeds again.
	if err := repo.SetStatus(adminCtx(), request); err != nil {
		t.Fatal(err)
	}

	if stubbedConn.execs != 2 {
		t.Fatalf("expected 2 status writes, got %d", stubbedConn.execs)
	}
	if len(feed.events) != 2 {
		t.Fatalf("expected 2 feed events, got %d", len(feed.events))
	}
	for _, event := range feed.events {
		if event.Operation != "status" || event.RecordID != 5 {
			t.Fatalf("unexpected feed event %+v", event)
		}
	}
}

func TestSetStatusRejectsUnknown(t *testing.T) {
	repo := NewRepository(nil, nil, nil, time.UTC)

	status := "binned"
	err := repo.SetStatus(adminCtx(), SetStatusRequest{ID: 5, Status: &status})
	if err == nil || !strings.Contains(err.Error(), "approved or rejected") {
		t.Fatalf("expected the status vocabulary error, got %v", err)
	}
}

func TestSetStatusNotFound(t *testing.T) {
	stubbedConn.execAffected = 0
	repo := NewRepository(stubDatabase(), nil, nil, time.UTC)

	status := entity.StatusRejected
	err := repo.SetStatus(adminCtx(), SetStatusRequest{ID: 404, Status: &status})
	if !errors.Is(err, postgres.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetFeedListClosesRowsOnScanError(t *testing.T) {
	rows := &stubRows{
		columns: []string{"id", "worker_id", "name", "role", "shift", "notes", "timestamp", "status"},
		values: [][]driver.Value{
			{int64(1), int64(2), "Alice Tan", "Carer", "Morning", "", "not-a-time", "pending"},
		},
	}
	stubbedConn.results = []*stubRows{rows}
	repo := NewRepository(stubDatabase(), nil, nil, time.UTC)

	if _, _, err := repo.GetFeedList(context.Background(), Filter{}); err == nil {
		t.Fatal("expected the scan failure to surface")
	}
	if !rows.closed {
		t.Fatal("rows must be closed when scanning fails midway")
	}
}

func record(name, role, shift string, ts time.Time, notes string) GetListResponse {
	t := ts
	return GetListResponse{
		Name:      &name,
		Role:      &role,
		Shift:     &shift,
		Notes:     notes,
		Timestamp: &t,
	}
}

func TestGroupByDay(t *testing.T) {
	loc, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		t.Fatal(err)
	}

	// Newest first, the order the store hands back.
	list := []GetListResponse{
		record("Alice Tan", entity.RoleCarer, entity.ShiftMorning, time.Date(2026, 8, 31, 14, 30, 0, 0, loc), "handover done"),
		record("Bob Lee", entity.RoleCook, entity.ShiftMorning, time.Date(2026, 8, 31, 8, 5, 0, 0, loc), ""),
		record("Carol Wu", entity.RoleCleaner, entity.ShiftEvening, time.Date(2026, 8, 30, 18, 0, 0, 0, loc), "spill in hall"),
	}

	groups := GroupByDay(list, loc)

	if len(groups) != 2 {
		t.Fatalf("expected 2 day groups, got %d", len(groups))
	}

	if got := groups[0].Day.Format("2006-01-02"); got != "2026-08-31" {
		t.Fatalf("expected newest day first, got %s", got)
	}
	if got := groups[1].Day.Format("2006-01-02"); got != "2026-08-30" {
		t.Fatalf("expected older day second, got %s", got)
	}

	if len(groups[0].Rows) != 2 {
		t.Fatalf("expected 2 rows on 2026-08-31, got %d", len(groups[0].Rows))
	}
	if groups[0].Rows[0].Name != "Alice Tan" || groups[0].Rows[1].Name != "Bob Lee" {
		t.Fatalf("row order inside a day must follow the input: %+v", groups[0].Rows)
	}
	if groups[0].Rows[0].Time != "14:30" {
		t.Fatalf("expected time 14:30, got %s", groups[0].Rows[0].Time)
	}
	if groups[1].Rows[0].Notes != "spill in hall" {
		t.Fatalf("notes must carry through, got %q", groups[1].Rows[0].Notes)
	}
}

func TestGroupByDayDayBoundary(t *testing.T) {
	loc, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		t.Fatal(err)
	}

	// 23:50 and 00:10 UTC fall on the same UTC day but different Sydney days.
	list := []GetListResponse{
		record("Alice Tan", entity.RoleCarer, entity.ShiftEvening, time.Date(2026, 8, 30, 15, 10, 0, 0, time.UTC), ""),
		record("Bob Lee", entity.RoleCook, entity.ShiftEvening, time.Date(2026, 8, 30, 13, 50, 0, 0, time.UTC), ""),
	}

	groups := GroupByDay(list, loc)

	if len(groups) != 2 {
		t.Fatalf("expected the records to split across local days, got %d group(s)", len(groups))
	}
	if got := groups[0].Day.Format("2006-01-02"); got != "2026-08-31" {
		t.Fatalf("expected 2026-08-31 first, got %s", got)
	}
}

func TestGroupByDayEmpty(t *testing.T) {
	if groups := GroupByDay(nil, time.UTC); len(groups) != 0 {
		t.Fatalf("expected no groups for empty input, got %d", len(groups))
	}

	// Records without a timestamp cannot be bucketed.
	list := []GetListResponse{{Notes: "orphan"}}
	if groups := GroupByDay(list, time.UTC); len(groups) != 0 {
		t.Fatalf("expected records without timestamps to be skipped, got %d group(s)", len(groups))
	}
}
