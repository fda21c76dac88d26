/*
Package sqlite provides a SQLite-backed implementation of maintenance.Store.

PURPOSE:
  Persists the maintenance plan in a single table (plan_mantenimiento)
  inside a user-selected SQLite file. Databases created by earlier versions
  of the tool are upgraded in place by adding missing columns.

INTERFACES IMPLEMENTED:
  maintenance.Store: schema, insert, completion, delete, list

CONNECTION MODEL:
  Every operation opens a fresh connection, does its work and closes the
  connection before returning (deferred, so error paths release it too).
  No cursor outlives a call. Only EnsureSchema may create the database
  file; every other operation opens it read-write and fails with a
  StorageError when the file is missing.

ERRORS:
  Open/lock/permission/corruption failures and a missing plan table are
  reported as *maintenance.StorageError, which matches
  errors.Is(err, maintenance.ErrStorageUnavailable).

TABLE:
  plan_mantenimiento:
    id                   INTEGER PRIMARY KEY AUTOINCREMENT
    equipo, marca, modelo, codigo, ubicacion, responsable TEXT
    fecha_tentativa      TEXT (dd/mm/yyyy)
    cumplido             INTEGER DEFAULT 0
    fecha_cumplimiento   TEXT (set iff cumplido = 1)
    ultimo_mantenimiento TEXT
    frecuencia_meses     INTEGER

MIGRATION:
  EnsureSchema is additive-only and idempotent: CREATE TABLE IF NOT EXISTS
  with the id column, then ALTER TABLE ADD COLUMN for each missing target
  column. Nothing is ever dropped or renamed.

USAGE:
  store := sqlite.New("./data/plan.db")
  if err := store.EnsureSchema(ctx); err != nil {
      log.Fatal(err)
  }
  records, err := store.ListAll(ctx)

SEE ALSO:
  - maintenance/store.go: Interface definition
  - maintenance/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/warp/maintenance-plan/maintenance"
)

// PlanTable is the name of the plan table.
const PlanTable = "plan_mantenimiento"

type column struct {
	Name string
	Decl string
}

// targetColumns is the fixed column set, in creation order.
var targetColumns = []column{
	{"id", "INTEGER PRIMARY KEY AUTOINCREMENT"},
	{"equipo", "TEXT"},
	{"marca", "TEXT"},
	{"modelo", "TEXT"},
	{"codigo", "TEXT"},
	{"ubicacion", "TEXT"},
	{"responsable", "TEXT"},
	{"fecha_tentativa", "TEXT"},
	{"cumplido", "INTEGER DEFAULT 0"},
	{"fecha_cumplimiento", "TEXT"},
	{"ultimo_mantenimiento", "TEXT"},
	{"frecuencia_meses", "INTEGER"},
}

// TargetColumns returns the names of the columns EnsureSchema guarantees.
func TargetColumns() []string {
	names := make([]string, len(targetColumns))
	for i, c := range targetColumns {
		names[i] = c.Name
	}
	return names
}

// Store implements maintenance.Store on a SQLite file.
type Store struct {
	path string
}

// New creates a store for the database at path. Nothing is opened until
// the first operation.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// =============================================================================
// CONNECTION HANDLING
// =============================================================================

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

func (s *Store) dsn(create bool) string {
	mode := "rw"
	if create {
		mode = "rwc"
	}
	return fmt.Sprintf("file:%s?mode=%s&_busy_timeout=2000", uriEscaper.Replace(s.path), mode)
}

// withDB opens a connection, runs fn and always closes the connection.
func (s *Store) withDB(ctx context.Context, op string, create bool, fn func(db *sqlx.DB) error) (err error) {
	if s.path == "" {
		return &maintenance.StorageError{Op: op, Path: s.path, Err: maintenance.ErrNoStoreSelected}
	}
	if !create {
		if _, statErr := os.Stat(s.path); statErr != nil {
			return &maintenance.StorageError{Op: op, Path: s.path, Err: statErr}
		}
	}

	db, err := sqlx.Open("sqlite3", s.dsn(create))
	if err != nil {
		return &maintenance.StorageError{Op: op, Path: s.path, Err: err}
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = s.wrap(op, cerr)
		}
	}()
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return s.wrap(op, err)
	}
	if err := fn(db); err != nil {
		return s.wrap(op, err)
	}
	return nil
}

// withTx runs fn inside a transaction on a fresh connection.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	return s.withDB(ctx, op, false, func(db *sqlx.DB) error {
		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		if err := fn(tx); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// wrap converts storage-level failures into StorageError and leaves the
// rest (input errors, constraint violations) untouched.
func (s *Store) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var storageErr *maintenance.StorageError
	if errors.As(err, &storageErr) || maintenance.IsInputError(err) {
		return err
	}
	if isUnavailable(err) {
		return &maintenance.StorageError{Op: op, Path: s.path, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return true
	}
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code {
	case sqlite3.ErrCantOpen, sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrPerm,
		sqlite3.ErrReadonly, sqlite3.ErrNotADB, sqlite3.ErrIoErr, sqlite3.ErrCorrupt,
		sqlite3.ErrFull, sqlite3.ErrAuth:
		return true
	case sqlite3.ErrError:
		// The file opened but is not a plan database.
		return strings.Contains(sqliteErr.Error(), "no such table")
	}
	return false
}

// =============================================================================
// SCHEMA
// =============================================================================

type tableColumn struct {
	CID     int            `db:"cid"`
	Name    string         `db:"name"`
	Type    string         `db:"type"`
	NotNull bool           `db:"notnull"`
	Default sql.NullString `db:"dflt_value"`
	PK      int            `db:"pk"`
}

// EnsureSchema creates the plan table if absent and adds missing columns.
// Running it on a current schema is a no-op.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if dir := filepath.Dir(s.path); dir != "" && s.path != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &maintenance.StorageError{Op: "ensure schema", Path: s.path, Err: err}
		}
	}

	return s.withDB(ctx, "ensure schema", true, func(db *sqlx.DB) error {
		if _, err := db.ExecContext(ctx,
			fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY AUTOINCREMENT)", PlanTable),
		); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}

		existing, err := s.columns(ctx, db)
		if err != nil {
			return err
		}

		for _, col := range targetColumns {
			if existing[col.Name] {
				continue
			}
			if _, err := db.ExecContext(ctx,
				fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", PlanTable, col.Name, col.Decl),
			); err != nil {
				return fmt.Errorf("failed to add column %s: %w", col.Name, err)
			}
		}
		return nil
	})
}

func (s *Store) columns(ctx context.Context, db *sqlx.DB) (map[string]bool, error) {
	var cols []tableColumn
	if err := db.SelectContext(ctx, &cols, fmt.Sprintf("PRAGMA table_info(%s)", PlanTable)); err != nil {
		return nil, fmt.Errorf("failed to read table info: %w", err)
	}
	existing := make(map[string]bool, len(cols))
	for _, c := range cols {
		existing[c.Name] = true
	}
	return existing, nil
}

// Columns returns the current column names of the plan table.
func (s *Store) Columns(ctx context.Context) ([]string, error) {
	var names []string
	err := s.withDB(ctx, "list columns", false, func(db *sqlx.DB) error {
		var cols []tableColumn
		if err := db.SelectContext(ctx, &cols, fmt.Sprintf("PRAGMA table_info(%s)", PlanTable)); err != nil {
			return err
		}
		for _, c := range cols {
			names = append(names, c.Name)
		}
		return nil
	})
	return names, err
}

// =============================================================================
// WRITES
// =============================================================================

const insertQuery = `
	INSERT INTO plan_mantenimiento
	(equipo, marca, modelo, codigo, ubicacion, responsable, fecha_tentativa,
	 cumplido, fecha_cumplimiento, ultimo_mantenimiento, frecuencia_meses)
	VALUES (:equipo, :marca, :modelo, :codigo, :ubicacion, :responsable, :fecha_tentativa,
	 0, NULL, :ultimo_mantenimiento, :frecuencia_meses)
`

// Insert appends a record. New records are always open (cumplido = 0).
func (s *Store) Insert(ctx context.Context, rec maintenance.Record) (int64, error) {
	var id int64
	err := s.withDB(ctx, "insert", false, func(db *sqlx.DB) error {
		res, err := db.NamedExecContext(ctx, insertQuery, toRow(rec))
		if err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// InsertBatch appends records atomically.
func (s *Store) InsertBatch(ctx context.Context, recs []maintenance.Record) ([]int64, error) {
	ids := make([]int64, 0, len(recs))
	if len(recs) == 0 {
		return ids, nil
	}

	err := s.withTx(ctx, "insert batch", func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareNamedContext(ctx, insertQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range recs {
			res, err := stmt.ExecContext(ctx, toRow(rec))
			if err != nil {
				return fmt.Errorf("failed to insert %s: %w", rec.Equipment, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

const completionQuery = `UPDATE plan_mantenimiento SET cumplido = ?, fecha_cumplimiento = ? WHERE id = ?`

// UpdateCompletion writes cumplido and fecha_cumplimiento in one statement.
func (s *Store) UpdateCompletion(ctx context.Context, id int64, completed bool, date *string) (int64, error) {
	date, err := maintenance.ValidateCompletion(completed, date)
	if err != nil {
		return 0, err
	}

	var n int64
	err = s.withDB(ctx, "update completion", false, func(db *sqlx.DB) error {
		res, err := db.ExecContext(ctx, completionQuery, boolToInt(completed), nullable(date), id)
		if err != nil {
			return fmt.Errorf("failed to update record %d: %w", id, err)
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

// UpdateCompletionBatch applies all updates in one transaction.
func (s *Store) UpdateCompletionBatch(ctx context.Context, updates []maintenance.CompletionUpdate) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	normalized := make([]maintenance.CompletionUpdate, len(updates))
	for i, u := range updates {
		date, err := maintenance.ValidateCompletion(u.Completed, u.Date)
		if err != nil {
			return 0, err
		}
		normalized[i] = maintenance.CompletionUpdate{ID: u.ID, Completed: u.Completed, Date: date}
	}

	var total int64
	err := s.withTx(ctx, "update completion batch", func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, completionQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare update: %w", err)
		}
		defer stmt.Close()

		for _, u := range normalized {
			res, err := stmt.ExecContext(ctx, boolToInt(u.Completed), nullable(u.Date), u.ID)
			if err != nil {
				return fmt.Errorf("failed to update record %d: %w", u.ID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Delete removes the given ids and returns the number of rows removed.
func (s *Store) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var n int64
	err := s.withDB(ctx, "delete", false, func(db *sqlx.DB) error {
		query, args, err := sqlx.In("DELETE FROM plan_mantenimiento WHERE id IN (?)", ids)
		if err != nil {
			return err
		}
		res, err := db.ExecContext(ctx, db.Rebind(query), args...)
		if err != nil {
			return fmt.Errorf("failed to delete records: %w", err)
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

// =============================================================================
// READS
// =============================================================================

const selectColumns = `
	SELECT id, equipo, marca, modelo, codigo, ubicacion, responsable, fecha_tentativa,
	       cumplido, fecha_cumplimiento, ultimo_mantenimiento, frecuencia_meses
	FROM plan_mantenimiento`

// ListAll returns every record ordered by id.
func (s *Store) ListAll(ctx context.Context) ([]maintenance.Record, error) {
	return s.ListBy(ctx, maintenance.Filter{})
}

// ListBy returns records matching f ordered by id.
func (s *Store) ListBy(ctx context.Context, f maintenance.Filter) ([]maintenance.Record, error) {
	var where []string
	var args []any
	if f.Location != "" {
		where = append(where, "TRIM(ubicacion) = ?")
		args = append(args, strings.TrimSpace(f.Location))
	}
	if f.Completed != nil {
		where = append(where, "COALESCE(cumplido, 0) = ?")
		args = append(args, boolToInt(*f.Completed))
	}
	if len(f.IDs) > 0 {
		where = append(where, "id IN (?)")
		args = append(args, f.IDs)
	}

	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC"

	records := []maintenance.Record{}
	err := s.withDB(ctx, "list", false, func(db *sqlx.DB) error {
		q, qargs := query, args
		if len(f.IDs) > 0 {
			var err error
			q, qargs, err = sqlx.In(query, args...)
			if err != nil {
				return err
			}
			q = db.Rebind(q)
		}

		var rows []recordRow
		if err := db.SelectContext(ctx, &rows, q, qargs...); err != nil {
			return fmt.Errorf("failed to query records: %w", err)
		}
		for _, r := range rows {
			records = append(records, r.toRecord())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetByID returns a single record or maintenance.ErrRecordNotFound.
func (s *Store) GetByID(ctx context.Context, id int64) (maintenance.Record, error) {
	recs, err := s.ListBy(ctx, maintenance.Filter{IDs: []int64{id}})
	if err != nil {
		return maintenance.Record{}, err
	}
	if len(recs) == 0 {
		return maintenance.Record{}, fmt.Errorf("record %d: %w", id, maintenance.ErrRecordNotFound)
	}
	return recs[0], nil
}

var _ maintenance.Store = (*Store)(nil)
