package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/persistence"
	"github.com/flowgraph/flowgraph/pkg/persistence/postgresql"
)

var postgresContainer *postgres.PostgresContainer

func dropDB(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("pgx", databaseURL)
	require.NoError(t, err)

	// Children first, parents last.
	for _, table := range []string{"trace_events", "runs", "workflow_versions", "workflows", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	require.NoError(t, db.Close())
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("flowgraph_test"),
			postgres.WithUsername("flowgraph"),
			postgres.WithPassword("flowgraph"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDB(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDB(ctx, t, databaseURL)

		require.NoError(t, p.Close(ctx))
		cancel()
	})

	return p, ctx, databaseURL
}

func testGraph() *models.Graph {
	return &models.Graph{
		Nodes: []*models.GraphNode{
			{ID: "start", Type: "manual-trigger"},
			{ID: "shape", Type: "transform", Parameters: map[string]any{"expression": "upper(.inputs.value)"}},
		},
		Edges: []*models.Edge{
			{ID: "e1", SourcePort: "start:payload", TargetPort: "shape:value"},
		},
	}
}

func saveWorkflow(ctx context.Context, t *testing.T, p *postgresql.Persistence) *models.Workflow {
	t.Helper()

	now := time.Now().UTC()
	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        "Order Pipeline",
		Description: "Moves orders through the fulfilment steps",
		Graph:       testGraph(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	require.NoError(t, p.Workflows().Save(ctx, workflow))

	return workflow
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("pgx", databaseURL)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, db.Close())
	}()

	for _, table := range []string{"workflows", "workflow_versions", "runs", "trace_events", "schema_migrations"} {
		var exists bool

		err = db.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)", table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	assert.NoError(t, p.HealthCheck(ctx))
}

func TestNewPersistence_WorkflowRoundTrip(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := saveWorkflow(ctx, t, p)

	retrieved, err := p.Workflows().GetByID(ctx, workflow.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, workflow.ID, retrieved.ID)
	assert.Equal(t, workflow.Name, retrieved.Name)
	assert.Equal(t, workflow.Description, retrieved.Description)
	require.NotNil(t, retrieved.Graph)
	assert.Len(t, retrieved.Graph.Nodes, 2)
	assert.Len(t, retrieved.Graph.Edges, 1)
	assert.Nil(t, retrieved.Definition)

	notFound, err := p.Workflows().GetByID(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, notFound)
}

func TestNewPersistence_WorkflowSaveIsUpsert(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := saveWorkflow(ctx, t, p)

	workflow.Name = "Renamed Pipeline"
	workflow.UpdatedAt = time.Now().UTC().Add(time.Second)
	require.NoError(t, p.Workflows().Save(ctx, workflow))

	retrieved, err := p.Workflows().GetByID(ctx, workflow.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, "Renamed Pipeline", retrieved.Name)

	all, err := p.Workflows().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNewPersistence_WorkflowRecordRun(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := saveWorkflow(ctx, t, p)

	require.NoError(t, p.Workflows().RecordRun(ctx, workflow.ID, "run_1", models.RunStatusRunning))
	require.NoError(t, p.Workflows().RecordRun(ctx, workflow.ID, "run_2", models.RunStatusRunning))

	retrieved, err := p.Workflows().GetByID(ctx, workflow.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, int64(2), retrieved.RunCount)
	assert.Equal(t, "run_2", retrieved.LastRunID)
	assert.Equal(t, models.RunStatusRunning, retrieved.LastRunStatus)

	err = p.Workflows().RecordRun(ctx, uuid.NewString(), "run_3", models.RunStatusRunning)
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestNewPersistence_VersionNumbersAreSequential(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := saveWorkflow(ctx, t, p)

	first, err := p.Versions().Create(ctx, workflow.ID, testGraph())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Number)

	second, err := p.Versions().Create(ctx, workflow.ID, testGraph())
	require.NoError(t, err)
	assert.Equal(t, 2, second.Number)

	latest, err := p.Versions().LatestByWorkflowID(ctx, workflow.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)

	pinned, err := p.Versions().ByWorkflowAndVersion(ctx, workflow.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, pinned)
	assert.Equal(t, first.ID, pinned.ID)

	// The version pointer on the workflow followed the allocation.
	retrieved, err := p.Workflows().GetByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, retrieved.CurrentVersion)
}

func TestNewPersistence_ConcurrentVersionCreation(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := saveWorkflow(ctx, t, p)

	const writers = 8

	var wg sync.WaitGroup

	numbers := make(chan int, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			version, err := p.Versions().Create(ctx, workflow.ID, testGraph())
			assert.NoError(t, err)

			if version != nil {
				numbers <- version.Number
			}
		}()
	}

	wg.Wait()
	close(numbers)

	seen := make(map[int]bool, writers)
	for number := range numbers {
		assert.False(t, seen[number], "version number %d allocated twice", number)
		seen[number] = true
	}

	require.Len(t, seen, writers)

	for number := 1; number <= writers; number++ {
		assert.True(t, seen[number], "version number %d missing", number)
	}
}

func TestNewPersistence_VersionDefinitionAttachment(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := saveWorkflow(ctx, t, p)

	version, err := p.Versions().Create(ctx, workflow.ID, testGraph())
	require.NoError(t, err)
	assert.Nil(t, version.Definition)

	definition := &models.Definition{Actions: []*models.Action{
		{ID: "start", Type: "manual-trigger"},
		{ID: "shape", Type: "transform", Dependencies: []models.Dependency{
			{SourceActionID: "start", SourcePort: "payload", TargetPort: "value"},
		}},
	}}

	require.NoError(t, p.Versions().SetDefinition(ctx, version.ID, definition))

	retrieved, err := p.Versions().GetByID(ctx, version.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved)
	require.NotNil(t, retrieved.Definition)
	assert.Len(t, retrieved.Definition.Actions, 2)
	assert.Equal(t, "start", retrieved.Definition.Actions[1].Dependencies[0].SourceActionID)

	err = p.Versions().SetDefinition(ctx, uuid.NewString(), definition)
	assert.ErrorIs(t, err, persistence.ErrVersionNotFound)
}

func TestNewPersistence_RunLifecycle(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := saveWorkflow(ctx, t, p)

	version, err := p.Versions().Create(ctx, workflow.ID, testGraph())
	require.NoError(t, err)

	run := &models.Run{
		ID:            "run_1",
		WorkflowID:    workflow.ID,
		VersionID:     version.ID,
		VersionNumber: version.Number,
		EngineRunID:   "engine-run-1",
		TotalActions:  2,
		LastStatus:    models.RunStatusRunning,
	}
	require.NoError(t, p.Runs().Save(ctx, run))

	// A retried start upserts on the run id instead of failing.
	run.EngineRunID = "engine-run-2"
	require.NoError(t, p.Runs().Save(ctx, run))

	retrieved, err := p.Runs().GetByID(ctx, "run_1")
	require.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, "engine-run-2", retrieved.EngineRunID)
	assert.Equal(t, models.RunStatusRunning, retrieved.LastStatus)

	require.NoError(t, p.Runs().UpdateStatus(ctx, "run_1", models.RunStatusCompleted))

	retrieved, err = p.Runs().GetByID(ctx, "run_1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, retrieved.LastStatus)

	listed, err := p.Runs().ListByWorkflowID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	missing, err := p.Runs().GetByID(ctx, "run_ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = p.Runs().UpdateStatus(ctx, "run_ghost", models.RunStatusCompleted)
	assert.ErrorIs(t, err, persistence.ErrRunNotFound)
}

func TestNewPersistence_TraceAppendKeyedBySequence(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	now := time.Now().UTC().Truncate(time.Microsecond)
	events := []*models.TraceEvent{
		{RunID: "run_1", NodeID: "start", Type: models.TraceNodeStarted, Sequence: 1, Timestamp: now},
		{RunID: "run_1", NodeID: "start", Type: models.TraceNodeCompleted, Sequence: 2, Timestamp: now,
			OutputSummary: map[string]any{"payload": "{0 keys}"}},
		{RunID: "run_1", NodeID: "shape", Type: models.TraceNodeFailed, Sequence: 3, Timestamp: now,
			Error: "transform failed"},
	}

	for _, event := range events {
		require.NoError(t, p.TraceEvents().Append(ctx, event))
	}

	// The async sink may deliver an event twice; the second write is a no-op.
	require.NoError(t, p.TraceEvents().Append(ctx, events[0]))

	listed, err := p.TraceEvents().ListByRunID(ctx, "run_1")
	require.NoError(t, err)
	require.Len(t, listed, 3)

	assert.Equal(t, int64(1), listed[0].Sequence)
	assert.Equal(t, models.TraceNodeStarted, listed[0].Type)
	assert.Equal(t, map[string]any{"payload": "{0 keys}"}, listed[1].OutputSummary)
	assert.Equal(t, "transform failed", listed[2].Error)

	empty, err := p.TraceEvents().ListByRunID(ctx, "run_ghost")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
