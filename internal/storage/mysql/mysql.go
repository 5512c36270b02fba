// Package mysql opens the MySQL backend of storage.Storage using
// go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/aanand-mishra/schools-api/internal/config"
	"github.com/aanand-mishra/schools-api/internal/storage/sqlstore"
	driver "github.com/go-sql-driver/mysql"
)

const schema = `
	CREATE TABLE IF NOT EXISTS schools (
		id      INT AUTO_INCREMENT PRIMARY KEY,
		name    TEXT NOT NULL,
		email   TEXT NOT NULL,
		address TEXT NOT NULL,
		city    TEXT NOT NULL,
		state   TEXT NOT NULL,
		contact TEXT NOT NULL,
		image   TEXT NULL
	)
`

// DSN builds the driver connection string from the config section.
func DSN(cfg config.MySQL) string {
	c := driver.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	c.DBName = cfg.Name
	c.Timeout = 5 * time.Second
	return c.FormatDSN()
}

// New connects, verifies the connection and makes sure the schools table
// exists.
func New(cfg *config.Config) (*sqlstore.Store, error) {
	db, err := sql.Open("mysql", DSN(cfg.Storage.MySQL))
	if err != nil {
		return nil, fmt.Errorf("mysql.New: open db: %w", err)
	}
	sqlstore.ConfigurePool(db, cfg.Storage.MaxOpenConns, cfg.Storage.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql.New: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql.New: create table: %w", err)
	}

	return sqlstore.New(db), nil
}
