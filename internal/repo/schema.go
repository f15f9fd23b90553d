package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema — DDL для PostgreSQL. Идемпотентен.
const schema = `
CREATE TABLE IF NOT EXISTS workflows (
	id         BIGSERIAL PRIMARY KEY,
	name       VARCHAR(255) NOT NULL UNIQUE,
	nodes      JSONB NOT NULL DEFAULT '[]',
	edges      JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS nodes (
	id          BIGSERIAL PRIMARY KEY,
	workflow_id BIGINT NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
	node_type   VARCHAR(100) NOT NULL,
	position_x  DOUBLE PRECISION NOT NULL DEFAULT 0,
	position_y  DOUBLE PRECISION NOT NULL DEFAULT 0,
	data        JSONB NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_nodes_workflow_id ON nodes (workflow_id);
CREATE INDEX IF NOT EXISTS idx_nodes_node_type ON nodes (node_type);
`

// Migrate создаёт таблицы, если их ещё нет.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
