package commands

import (
	"fmt"
	"log"
	"strings"

	"carelog/backend/internal/pkg/repository/postgresql"

	"github.com/pkg/errors"
)

// ErrHelp provides context that help was given.
var ErrHelp = errors.New("provided help")

type Scheme struct {
	Index       int
	Description string
	Query       string
}

var scheme = []Scheme{
	{
		Index:       1,
		Description: "CREATE TYPE \"admin_role\" AS ENUM",
		Query: `
        CREATE TYPE "admin_role" AS ENUM ('ADMIN','DASHBOARD');`,
	},
	{
		Index:       2,
		Description: "Create table: admins.",
		Query: `
        CREATE TABLE IF NOT EXISTS admins (
            id serial primary key,
            email text not null,
            password text not null,
            role admin_role,
            created_at timestamp default now(),
            created_by int references admins(id),
            updated_at timestamp,
            updated_by int references admins(id),
            deleted_at timestamp,
            deleted_by int references admins(id)
        );`,
	},
	{
		Index:       3,
		Description: "Seed admin account, password: 1 (change after first sign-in)",
		Query: `
        INSERT INTO admins(email, role, password)
        SELECT 'admin@vibrantaging.com', 'ADMIN', '$2a$10$NKtnMwDPFSQLG6uOi4Zqheru5Ygbj9TWFHjpl478rRSaO5cJ9QuH2'
        WHERE NOT EXISTS (SELECT email FROM admins WHERE email = 'admin@vibrantaging.com');
        `,
	},
	{
		Index:       4,
		Description: "Create table: workers.",
		Query: `
        CREATE TABLE IF NOT EXISTS workers (
            id serial primary key,
            name text not null,
            role text not null,
            pin varchar(4) not null,
            schedule jsonb not null default '{}'::jsonb,
            created_at timestamp default now(),
            created_by int references admins(id),
            updated_at timestamp,
            updated_by int references admins(id),
            deleted_at timestamp,
            deleted_by int references admins(id)
        );`,
	},
	{
		Index:       5,
		Description: "Create index on workers pin lookups",
		Query: `
        CREATE INDEX IF NOT EXISTS workers_pin_idx ON workers (pin) WHERE deleted_at IS NULL;`,
	},
	{
		Index:       6,
		Description: "Create table: attendance_records.",
		Query: `
        CREATE TABLE IF NOT EXISTS attendance_records (
            id SERIAL PRIMARY KEY,
            worker_id INT NOT NULL,
            name TEXT NOT NULL,
            role TEXT NOT NULL,
            shift TEXT NOT NULL,
            notes TEXT NOT NULL DEFAULT '',
            timestamp TIMESTAMPTZ NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            created_at TIMESTAMP DEFAULT NOW(),
            created_by INT REFERENCES admins(id),
            updated_at TIMESTAMP,
            updated_by INT REFERENCES admins(id),
            deleted_at TIMESTAMP,
            deleted_by INT REFERENCES admins(id)
        );`,
	},
	{
		Index:       7,
		Description: "Create index on attendance_records status and day",
		Query: `
        CREATE INDEX IF NOT EXISTS attendance_records_status_ts_idx
            ON attendance_records (status, timestamp DESC) WHERE deleted_at IS NULL;`,
	},
}

// quoteErr makes an error message safe to embed as a SQL string literal.
func quoteErr(err error) string {
	return strings.Replace(err.Error(), "'", "''", -1)
}

// Migrate creates the scheme in the database.
func Migrate(db *postgresql.Database) {
	for _, s := range scheme {
		if _, err := db.Query(s.Query); err != nil {
			log.Fatalln("migrate error", err)
		}
	}
}

func MigrateUP(db *postgresql.Database) {
	var (
		version int
		dirty   bool
		er      *string
	)
	err := db.QueryRow("SELECT version, dirty, error FROM schema_migrations").Scan(&version, &dirty, &er)
	if err != nil {
		if err.Error() == `ERROR: relation "schema_migrations" does not exist (SQLSTATE=42P01)` {
			if _, err = db.Exec(`
				CREATE TABLE IF NOT EXISTS schema_migrations (version int not null, dirty bool not null, error text);
				DELETE FROM schema_migrations;
				INSERT INTO schema_migrations (version, dirty) values (0, false);
			`); err != nil {
				log.Fatalln("migrate schema_migrations create error", err)
			}
			version = 0
			dirty = false
		} else {
			log.Fatalln("migrate schema_migrations scan: ", err)
		}
	}

	if dirty {
		for _, v := range scheme {
			if v.Index == version {
				if _, err = db.Exec(v.Query); err != nil {
					if _, err = db.Exec(fmt.Sprintf(`UPDATE schema_migrations SET error = '%s'`, quoteErr(err))); err != nil {
						log.Fatalln("migrate error", err)
					}
					log.Fatalln(fmt.Sprintf("migrate error version: %d", version), err)
				}
				if _, err = db.Exec(`UPDATE schema_migrations SET dirty = false, error = null`); err != nil {
					log.Fatalln("migrate error", err)
				}
			}
		}
	}

	for _, s := range scheme {
		if s.Index > version {
			if _, err = db.Exec(s.Query); err != nil {
				if _, err = db.Exec(fmt.Sprintf(`UPDATE schema_migrations SET error = '%s', version = %d, dirty = true`, quoteErr(err), s.Index)); err != nil {
					log.Fatalln("migrate error", err)
				}
				log.Fatalln(fmt.Sprintf("migrate error version: %d", s.Index), err)
			}
			if _, err = db.Exec(fmt.Sprintf(`UPDATE schema_migrations SET version = %d`, s.Index)); err != nil {
				log.Fatalln("migrate error", err)
			}
		}
	}
}
