package repo

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shaiso/Graphflow/internal/domain"
)

// newTestPool поднимает PostgreSQL в контейнере и применяет схему.
// Без Docker тесты пропускаются.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres tests in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("graphflow"),
		postgres.WithUsername("graphflow"),
		postgres.WithPassword("graphflow"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, connStr, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	// повторная миграция не должна падать
	require.NoError(t, Migrate(ctx, pool))

	return pool
}

func mustNodes(t *testing.T, raw string) []domain.NodeRecord {
	t.Helper()
	var nodes []domain.NodeRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &nodes))
	return nodes
}

func mustEdges(t *testing.T, raw string) []domain.Edge {
	t.Helper()
	var edges []domain.Edge
	require.NoError(t, json.Unmarshal([]byte(raw), &edges))
	return edges
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestPostgresRepos(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()

	workflows := NewWorkflowRepo(pool)
	nodes := NewNodeRepo(pool)

	t.Run("Upsert creates then replaces in place", func(t *testing.T) {
		w := &domain.Workflow{
			Name:  "MyWorkflow",
			Nodes: mustNodes(t, `[{"id":"process-1","nodeType":"process-1","position":{"x":1,"y":2},"data":{"label":"process-1"},"function":"process_function_1"}]`),
			Edges: mustEdges(t, `[]`),
		}
		require.NoError(t, workflows.Upsert(ctx, w))
		require.NotZero(t, w.ID)
		firstID, firstCreated := w.ID, w.CreatedAt

		replaced := &domain.Workflow{
			Name:  "MyWorkflow",
			Nodes: mustNodes(t, `[{"id":"a","nodeType":"process-2"},{"id":"b","nodeType":"x","style":{"color":"red"}}]`),
			Edges: mustEdges(t, `[{"id":"e1","source":"a","target":"b"}]`),
		}
		require.NoError(t, workflows.Upsert(ctx, replaced))
		assert.Equal(t, firstID, replaced.ID)
		assert.True(t, firstCreated.Equal(replaced.CreatedAt))

		all, err := workflows.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 1)

		loaded, err := workflows.GetByName(ctx, "MyWorkflow")
		require.NoError(t, err)
		assert.JSONEq(t, toJSON(t, replaced.Nodes), toJSON(t, loaded.Nodes))
		assert.JSONEq(t, toJSON(t, replaced.Edges), toJSON(t, loaded.Edges))
	})

	t.Run("GetByName missing", func(t *testing.T) {
		_, err := workflows.GetByName(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Create duplicate name", func(t *testing.T) {
		require.NoError(t, workflows.Create(ctx, &domain.Workflow{Name: "dup"}))
		err := workflows.Create(ctx, &domain.Workflow{Name: "dup"})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("List search", func(t *testing.T) {
		require.NoError(t, workflows.Create(ctx, &domain.Workflow{Name: "Billing pipeline"}))

		found, err := workflows.List(ctx, "billing")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Billing pipeline", found[0].Name)
		assert.NotNil(t, found[0].Nodes)
	})

	t.Run("List search treats wildcards literally", func(t *testing.T) {
		require.NoError(t, workflows.Create(ctx, &domain.Workflow{Name: "snake_case"}))
		require.NoError(t, workflows.Create(ctx, &domain.Workflow{Name: "50% off"}))

		found, err := workflows.List(ctx, "_")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "snake_case", found[0].Name)

		found, err = workflows.List(ctx, "%")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "50% off", found[0].Name)
	})

	t.Run("Update and Delete", func(t *testing.T) {
		w := &domain.Workflow{Name: "to-update"}
		require.NoError(t, workflows.Create(ctx, w))

		w.Name = "updated"
		w.Edges = mustEdges(t, `[{"id":"e9"}]`)
		require.NoError(t, workflows.Update(ctx, w))

		got, err := workflows.GetByID(ctx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, "updated", got.Name)
		assert.Len(t, got.Edges, 1)

		require.NoError(t, workflows.Delete(ctx, w.ID))
		assert.ErrorIs(t, workflows.Delete(ctx, w.ID), ErrNotFound)
		assert.ErrorIs(t, workflows.Update(ctx, w), ErrNotFound)
	})

	t.Run("Nodes CRUD with cascade", func(t *testing.T) {
		w := &domain.Workflow{Name: "with-nodes"}
		require.NoError(t, workflows.Create(ctx, w))

		n := &domain.Node{WorkflowID: w.ID, NodeType: "process-1", PositionX: 10.5, PositionY: 20}
		require.NoError(t, nodes.Create(ctx, n))
		require.NotZero(t, n.ID)
		assert.NotNil(t, n.Data)

		n.Data = map[string]any{"label": "moved"}
		n.PositionX = 99
		require.NoError(t, nodes.Update(ctx, n))

		got, err := nodes.GetByID(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, 99.0, got.PositionX)
		assert.Equal(t, "moved", got.Data["label"])

		byType, err := nodes.List(ctx, domain.NodeFilter{NodeType: "process-1"})
		require.NoError(t, err)
		assert.Len(t, byType, 1)

		require.NoError(t, workflows.Delete(ctx, w.ID))
		_, err = nodes.GetByID(ctx, n.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Node with unknown workflow", func(t *testing.T) {
		err := nodes.Create(ctx, &domain.Node{WorkflowID: 424242, NodeType: "process-1"})
		assert.ErrorIs(t, err, ErrInvalidReference)
	})
}
