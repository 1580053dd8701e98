package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection before returning.
// parseTime maps DATETIME columns to time.Time; loc=UTC keeps membership
// intervals and token expiries comparable across instances.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool sizing is tunable per deployment; the defaults suit a single
	// API instance in front of a small MySQL.
	db.SetMaxOpenConns(poolInt("DB_MAX_OPEN_CONNS", 25))
	db.SetMaxIdleConns(poolInt("DB_MAX_IDLE_CONNS", 25))
	db.SetConnMaxLifetime(time.Duration(poolInt("DB_CONN_MAX_LIFETIME_MIN", 30)) * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

func poolInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
