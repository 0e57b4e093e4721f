package worker

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"net/http"
	"strings"
	"testing"

	"carelog/backend/foundation/web"
	"carelog/backend/internal/auth"
	"carelog/backend/internal/entity"
	"carelog/backend/internal/pkg/repository/postgresql"
	"carelog/backend/internal/repository/postgres"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// The stub driver serves queued results without a server so repository
// decisions (pin uniqueness, scan failures) can be pinned down.
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
	results []*stubRows
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

type stubDriver struct{ conn *stubConn }

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

var stubbedConn = &stubConn{}

func init() {
	sql.Register("workerstub", &stubDriver{conn: stubbedConn})
}

func stubDatabase() *postgresql.Database {
	sqldb, _ := sql.Open("workerstub", "")
	return &postgresql.Database{DB: bun.NewDB(sqldb, pgdialect.New())}
}

func adminCtx() context.Context {
	return context.WithValue(context.Background(), auth.Key, auth.Claims{UserId: 1, Role: auth.RoleAdmin})
}

func TestGetByPinFormat(t *testing.T) {
	r := NewRepository(nil)

	for _, pin := range []string{"", "123", "12345", "abcd", "12a4", "12 4"} {
		_, err := r.GetByPin(context.Background(), pin)
		if !errors.Is(err, postgres.ErrInvalidPin) {
			t.Fatalf("pin %q: expected ErrInvalidPin, got %v", pin, err)
		}
	}

	_, err := r.GetByPin(context.Background(), "no")
	var webErr *web.Error
	if !errors.As(err, &webErr) || webErr.Status != http.StatusBadRequest {
		t.Fatalf("expected a 400 response error, got %v", err)
	}
}

func TestGetByPinNoMatch(t *testing.T) {
	stubbedConn.results = []*stubRows{{columns: []string{"id"}}}
	r := NewRepository(stubDatabase())

	_, err := r.GetByPin(context.Background(), "1234")
	if !errors.Is(err, postgres.ErrInvalidPin) {
		t.Fatalf("expected ErrInvalidPin when no worker holds the pin, got %v", err)
	}
}

func TestCreateDuplicatePin(t *testing.T) {
	// The uniqueness query reports the pin as taken.
	stubbedConn.results = []*stubRows{{
		columns: []string{"case"},
		values:  [][]driver.Value{{true}},
	}}
	r := NewRepository(stubDatabase())

	name := "Alice Tan"
	role := entity.RoleCarer
	pin := "1234"

	_, err := r.Create(adminCtx(), CreateRequest{Name: &name, Role: &role, Pin: &pin})
	if !errors.Is(err, postgres.ErrDuplicatePin) {
		t.Fatalf("expected ErrDuplicatePin, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	r := NewRepository(nil)

	name := "Alice Tan"
	role := "Manager"
	pin := "1234"

	_, err := r.Create(adminCtx(), CreateRequest{Name: &name, Role: &role, Pin: &pin})
	if err == nil || !strings.Contains(err.Error(), "incorrect role") {
		t.Fatalf("expected the role error, got %v", err)
	}

	role = entity.RoleCarer
	pin = "12345"
	_, err = r.Create(adminCtx(), CreateRequest{Name: &name, Role: &role, Pin: &pin})
	if err == nil || !strings.Contains(err.Error(), "4 digits") {
		t.Fatalf("expected the pin format error, got %v", err)
	}
}

func TestGetListClosesRowsOnScanError(t *testing.T) {
	rows := &stubRows{
		columns: []string{"id", "name", "role", "pin", "schedule"},
		values: [][]driver.Value{
			{int64(1), "Alice Tan", "Carer", "1234", []byte("{bad json")},
		},
	}
	stubbedConn.results = []*stubRows{rows}
	r := NewRepository(stubDatabase())

	if _, _, err := r.GetList(adminCtx(), Filter{}); err == nil {
		t.Fatal("expected the schedule parse failure to surface")
	}
	if !rows.closed {
		t.Fatal("rows must be closed when scanning fails midway")
	}
}
