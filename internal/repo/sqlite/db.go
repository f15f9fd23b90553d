// Package sqlite — встраиваемый бэкенд хранилища на SQLite.
//
// Используется для локального запуска без PostgreSQL (STORE_DRIVER=sqlite)
// и реализует те же интерфейсы, что и PostgreSQL-репозитории:
// repo.WorkflowStore и repo.NodeStore.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/shaiso/Graphflow/internal/repo"
)

// DefaultPath — путь к файлу БД по умолчанию.
const DefaultPath = "graphflow.sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS workflows (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       VARCHAR(255) NOT NULL UNIQUE,
	nodes      TEXT NOT NULL DEFAULT '[]',
	edges      TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS nodes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	workflow_id INTEGER NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
	node_type   VARCHAR(100) NOT NULL,
	position_x  REAL NOT NULL DEFAULT 0,
	position_y  REAL NOT NULL DEFAULT 0,
	data        TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_nodes_workflow_id ON nodes (workflow_id);
`

// Open открывает (или создаёт) файл БД и применяет схему.
// Внешние ключи включаются через DSN, иначе каскадное удаление не работает.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite допускает одного писателя; один коннект исключает SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// mapSQLiteError переводит нарушения ограничений в ошибки репозитория.
func mapSQLiteError(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%s: %w", op, repo.ErrAlreadyExists)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%s: %w", op, repo.ErrInvalidReference)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
