//go:build !rp2040

package platform

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteMedium keeps the counters in a small sqlite file, one row per
// address. Missing rows read as erased.
type SQLiteMedium struct {
	cells
	path string
	db   *sql.DB
}

func NewSQLiteMedium(path string) *SQLiteMedium { return &SQLiteMedium{path: path} }

func (m *SQLiteMedium) Begin(size int) error {
	m.begin(size)
	if m.db == nil {
		if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
		db, err := sql.Open("sqlite", m.path+"?_pragma=busy_timeout(5000)")
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS counters (
			addr  INTEGER PRIMARY KEY,
			value INTEGER NOT NULL
		)`); err != nil {
			db.Close()
			return fmt.Errorf("initialize schema: %w", err)
		}
		m.db = db
	}

	rows, err := m.db.Query(`SELECT addr, value FROM counters WHERE addr < ?`, size)
	if err != nil {
		return fmt.Errorf("load counters: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var addr, v int
		if err := rows.Scan(&addr, &v); err != nil {
			return fmt.Errorf("scan counter: %w", err)
		}
		m.Write(addr, byte(v))
	}
	return rows.Err()
}

func (m *SQLiteMedium) Commit() error {
	if m.db == nil {
		return fmt.Errorf("commit: medium not open")
	}
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for addr, v := range m.c {
		if _, err := tx.Exec(`INSERT INTO counters (addr, value) VALUES (?, ?)
			ON CONFLICT(addr) DO UPDATE SET value = excluded.value`, addr, int(v)); err != nil {
			tx.Rollback()
			return fmt.Errorf("write counter %d: %w", addr, err)
		}
	}
	return tx.Commit()
}

func (m *SQLiteMedium) End() error {
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}
