// Package mirror projects TinfoilHat documents into a Postgres table for
// downstream dashboards, per spec.md §4.12.
package mirror

import (
	"context"
	"encoding/json"

	"github.com/doug-martin/goqu/v8"
	_ "github.com/doug-martin/goqu/v8/dialect/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quay/zlog"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
)

// Mode selects how a session's rows are reconciled against the table.
type Mode string

const (
	// FULL deletes every row for the session, then inserts the full set.
	FULL Mode = "FULL"
	// DELTA inserts only rows whose (session, fname) key is not already
	// present.
	DELTA Mode = "DELTA"
)

const tableName = "tinfoilhat_mirror"

// Row is one (session, fname) -> document mapping.
type Row struct {
	Session string
	FName   string
	Data    json.RawMessage
}

// Mirror writes TinfoilHat documents into Postgres.
type Mirror struct {
	Pool   *pgxpool.Pool
	dialect goqu.DialectWrapper
}

func New(pool *pgxpool.Pool) *Mirror {
	return &Mirror{Pool: pool, dialect: goqu.Dialect("postgres")}
}

// EnsureSchema creates the mirror table if it does not already exist,
// with the uniqueness constraint spec.md §4.12 requires.
func (m *Mirror) EnsureSchema(ctx context.Context) error {
	defer observe("ensure_schema")()
	const ddl = `
CREATE TABLE IF NOT EXISTS ` + tableName + ` (
	session text NOT NULL,
	fname   text NOT NULL,
	data    jsonb NOT NULL,
	UNIQUE (session, fname)
)`
	if _, err := m.Pool.Exec(ctx, ddl); err != nil {
		return a4ferr.New("mirror.EnsureSchema", a4ferr.KindInternal, "creating mirror table", err)
	}
	return nil
}

// Project writes rows for one session transactionally, per spec.md §4.12:
// "Both modes are transactional per session."
func (m *Mirror) Project(ctx context.Context, session string, rows []Row, mode Mode) error {
	defer observe("project_" + string(mode))()
	ctx = zlog.ContextWithValues(ctx, "component", "mirror.Project", "session", session, "mode", string(mode))

	tx, err := m.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return a4ferr.New("mirror.Project", a4ferr.KindInternal, "beginning transaction", err)
	}
	defer tx.Rollback(ctx)

	switch mode {
	case FULL:
		if err := m.projectFull(ctx, tx, session, rows); err != nil {
			return err
		}
	case DELTA:
		if err := m.projectDelta(ctx, tx, session, rows); err != nil {
			return err
		}
	default:
		return a4ferr.New("mirror.Project", a4ferr.KindConfig, "unknown mirror mode: "+string(mode), nil)
	}

	if err := tx.Commit(ctx); err != nil {
		return a4ferr.New("mirror.Project", a4ferr.KindInternal, "committing transaction", err)
	}
	return nil
}

func (m *Mirror) projectFull(ctx context.Context, tx pgx.Tx, session string, rows []Row) error {
	del, args, err := m.dialect.Delete(tableName).
		Where(goqu.Ex{"session": session}).
		ToSQL()
	if err != nil {
		return a4ferr.New("mirror.projectFull", a4ferr.KindInternal, "building delete statement", err)
	}
	if _, err := tx.Exec(ctx, del, args...); err != nil {
		return a4ferr.New("mirror.projectFull", a4ferr.KindInternal, "deleting existing session rows", err)
	}
	return m.insertAll(ctx, tx, rows)
}

func (m *Mirror) projectDelta(ctx context.Context, tx pgx.Tx, session string, rows []Row) error {
	existing := map[string]bool{}
	sel, args, err := m.dialect.From(tableName).
		Select("fname").
		Where(goqu.Ex{"session": session}).
		ToSQL()
	if err != nil {
		return a4ferr.New("mirror.projectDelta", a4ferr.KindInternal, "building select statement", err)
	}
	pgRows, err := tx.Query(ctx, sel, args...)
	if err != nil {
		return a4ferr.New("mirror.projectDelta", a4ferr.KindInternal, "querying existing rows", err)
	}
	for pgRows.Next() {
		var fname string
		if err := pgRows.Scan(&fname); err != nil {
			pgRows.Close()
			return a4ferr.New("mirror.projectDelta", a4ferr.KindInternal, "scanning fname", err)
		}
		existing[fname] = true
	}
	pgRows.Close()

	var fresh []Row
	for _, r := range rows {
		if !existing[r.FName] {
			fresh = append(fresh, r)
		}
	}
	return m.insertAll(ctx, tx, fresh)
}

func (m *Mirror) insertAll(ctx context.Context, tx pgx.Tx, rows []Row) error {
	defer observe("insert_all")()
	for _, r := range rows {
		ins, args, err := m.dialect.Insert(tableName).
			Rows(goqu.Record{"session": r.Session, "fname": r.FName, "data": []byte(r.Data)}).
			ToSQL()
		if err != nil {
			return a4ferr.New("mirror.insertAll", a4ferr.KindInternal, "building insert statement", err)
		}
		if _, err := tx.Exec(ctx, ins, args...); err != nil {
			return a4ferr.New("mirror.insertAll", a4ferr.KindInternal, "inserting row", err)
		}
	}
	return nil
}
