// Package sqlstore implements storage.Storage on top of Go's standard
// database/sql package.
//
// ONE STORE, TWO ENGINES
// ──────────────────────
// The queries below only use '?' placeholders and column types that both
// SQLite and MySQL understand. The sqlite and mysql packages open the
// connection pool for their driver and create the schools table; they
// then hand the *sql.DB to New and every query runs through this file.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aanand-mishra/schools-api/internal/types"
)

// The two statements the system ever runs. There is no update or delete:
// a school is written once and then only read.
const (
	insertSchool  = "INSERT INTO schools (name, email, address, city, state, contact, image) VALUES (?, ?, ?, ?, ?, ?, ?)"
	selectSchools = "SELECT id, name, email, address, city, state, contact, image FROM schools ORDER BY id DESC"
)

// Store is the concrete storage.Storage.
// It holds a *sql.DB, which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use, so one Store is shared by
// every request the server handles.
type Store struct {
	DB *sql.DB
}

// New wraps an already opened pool.
func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateSchool inserts one row and returns its auto-increment id.
//
// HOW THE VALUES REACH THE DATABASE:
// ──────────────────────────────────
// The statement is prepared with seven '?' placeholders and the values
// are sent separately in ExecContext. The engine treats them as data, so
// a school called "'); DROP TABLE schools; --" is stored as exactly that
// text.
//
// A nil Image becomes SQL NULL (sql.NullString with Valid=false), which is
// how "no picture uploaded" is recorded.
// ─────────────────────────────────────────────────────────────────────────────
func (s *Store) CreateSchool(ctx context.Context, school types.School) (int64, error) {
	stmt, err := s.DB.PrepareContext(ctx, insertSchool)
	if err != nil {
		return 0, fmt.Errorf("CreateSchool: prepare: %w", err)
	}
	// Closed on every return path, including the early error ones below.
	defer stmt.Close()

	var image sql.NullString
	if school.Image != nil {
		image = sql.NullString{String: *school.Image, Valid: true}
	}

	// Argument order must match the column list in insertSchool.
	result, err := stmt.ExecContext(ctx,
		school.Name,
		school.Email,
		school.Address,
		school.City,
		school.State,
		school.Contact,
		image,
	)
	if err != nil {
		return 0, fmt.Errorf("CreateSchool: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateSchool: last insert id: %w", err)
	}

	return lastID, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetSchools reads the whole table, newest record first.
//
// HOW ROWS ARE READ:
// ──────────────────
//  1. QueryContext returns a *sql.Rows cursor; it holds a connection
//     until Close, hence the defer.
//  2. rows.Next advances one row at a time and rows.Scan copies the
//     columns, in SELECT order, into the destinations.
//  3. rows.Err reports an error that stopped the loop early (a dropped
//     connection, for example); Next alone would just return false.
//
// The slice starts empty rather than nil so an empty table encodes as
// [] in JSON, never null.
// ─────────────────────────────────────────────────────────────────────────────
func (s *Store) GetSchools(ctx context.Context) ([]types.School, error) {
	rows, err := s.DB.QueryContext(ctx, selectSchools)
	if err != nil {
		return nil, fmt.Errorf("GetSchools: query: %w", err)
	}
	defer rows.Close()

	schools := make([]types.School, 0)

	for rows.Next() {
		var (
			school types.School
			image  sql.NullString
		)

		if err := rows.Scan(
			&school.ID,
			&school.Name,
			&school.Email,
			&school.Address,
			&school.City,
			&school.State,
			&school.Contact,
			&image,
		); err != nil {
			return nil, fmt.Errorf("GetSchools: scan row: %w", err)
		}

		// NULL stays a nil pointer; a stored URL gets its own copy.
		if image.Valid {
			url := image.String
			school.Image = &url
		}

		schools = append(schools, school)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetSchools: rows iteration: %w", err)
	}

	return schools, nil
}

// Close releases every connection in the pool. Call it once, on shutdown.
func (s *Store) Close() error {
	return s.DB.Close()
}

// ConfigurePool applies the pool limits from config.
//
//	maxOpen: at most this many connections exist at once
//	maxIdle: this many are kept open between requests
//
// Zero keeps database/sql's default for that limit.
func ConfigurePool(db *sql.DB, maxOpen, maxIdle int) {
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
}
