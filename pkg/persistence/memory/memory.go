// Package memory provides the in-process persistence implementation used for
// tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/persistence"
)

type Persistence struct {
	workflows *workflowRepository
	versions  *versionRepository
	runs      *runRepository
	traces    *traceRepository
}

func NewPersistence() *Persistence {
	workflows := &workflowRepository{items: make(map[string]*models.Workflow)}

	return &Persistence{
		workflows: workflows,
		versions: &versionRepository{
			items:     make(map[string]*models.WorkflowVersion),
			workflows: make(map[string]*workflowVersions),
		},
		runs:   &runRepository{items: make(map[string]*models.Run)},
		traces: &traceRepository{items: make(map[string][]*models.TraceEvent)},
	}
}

func (p *Persistence) Workflows() persistence.WorkflowRepository { return p.workflows }
func (p *Persistence) Versions() persistence.VersionRepository   { return p.versions }
func (p *Persistence) Runs() persistence.RunRepository           { return p.runs }
func (p *Persistence) TraceEvents() persistence.TraceRepository  { return p.traces }

func (p *Persistence) HealthCheck(_ context.Context) error { return nil }
func (p *Persistence) Close(_ context.Context) error       { return nil }

type workflowRepository struct {
	mu    sync.RWMutex
	items map[string]*models.Workflow
}

func (r *workflowRepository) List(_ context.Context) ([]*models.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workflows := make([]*models.Workflow, 0, len(r.items))
	for _, w := range r.items {
		workflows = append(workflows, w)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (r *workflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workflow, ok := r.items[id]
	if !ok {
		return nil, nil
	}

	return workflow, nil
}

func (r *workflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[workflow.ID] = workflow

	return nil
}

func (r *workflowRepository) SetDefinition(_ context.Context, workflowID string, definition *models.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	workflow, ok := r.items[workflowID]
	if !ok {
		return persistence.ErrWorkflowNotFound
	}

	workflow.Definition = definition
	workflow.UpdatedAt = time.Now().UTC()

	return nil
}

func (r *workflowRepository) RecordRun(_ context.Context, workflowID, runID string, status models.RunStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	workflow, ok := r.items[workflowID]
	if !ok {
		return persistence.ErrWorkflowNotFound
	}

	workflow.RunCount++
	workflow.LastRunID = runID
	workflow.LastRunStatus = status
	workflow.UpdatedAt = time.Now().UTC()

	return nil
}

// workflowVersions holds one workflow's versions plus the per-workflow lock
// that serializes version-number allocation. A narrow per-key critical
// section, not a global lock.
type workflowVersions struct {
	mu       sync.Mutex
	numbers  []string // Version ids ordered by number
	lastUsed int
}

type versionRepository struct {
	mu        sync.RWMutex
	items     map[string]*models.WorkflowVersion
	workflows map[string]*workflowVersions
}

func (r *versionRepository) forWorkflow(workflowID string) *workflowVersions {
	r.mu.Lock()
	defer r.mu.Unlock()

	wv, ok := r.workflows[workflowID]
	if !ok {
		wv = &workflowVersions{}
		r.workflows[workflowID] = wv
	}

	return wv
}

func (r *versionRepository) Create(_ context.Context, workflowID string, graph *models.Graph) (*models.WorkflowVersion, error) {
	wv := r.forWorkflow(workflowID)

	wv.mu.Lock()
	defer wv.mu.Unlock()

	wv.lastUsed++

	version := &models.WorkflowVersion{
		ID:         uuid.New().String(),
		WorkflowID: workflowID,
		Number:     wv.lastUsed,
		Graph:      graph,
		CreatedAt:  time.Now().UTC(),
	}

	wv.numbers = append(wv.numbers, version.ID)

	r.mu.Lock()
	r.items[version.ID] = version
	r.mu.Unlock()

	return version, nil
}

func (r *versionRepository) GetByID(_ context.Context, id string) (*models.WorkflowVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	version, ok := r.items[id]
	if !ok {
		return nil, nil
	}

	return version, nil
}

func (r *versionRepository) LatestByWorkflowID(_ context.Context, workflowID string) (*models.WorkflowVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wv, ok := r.workflows[workflowID]
	if !ok || len(wv.numbers) == 0 {
		return nil, nil
	}

	return r.items[wv.numbers[len(wv.numbers)-1]], nil
}

func (r *versionRepository) ByWorkflowAndVersion(_ context.Context, workflowID string, number int) (*models.WorkflowVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, version := range r.items {
		if version.WorkflowID == workflowID && version.Number == number {
			return version, nil
		}
	}

	return nil, nil
}

func (r *versionRepository) SetDefinition(_ context.Context, versionID string, definition *models.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	version, ok := r.items[versionID]
	if !ok {
		return persistence.ErrVersionNotFound
	}

	version.Definition = definition

	return nil
}

type runRepository struct {
	mu    sync.RWMutex
	items map[string]*models.Run
}

func (r *runRepository) Save(_ context.Context, run *models.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.items[run.ID]; ok {
		run.CreatedAt = existing.CreatedAt
	}

	run.UpdatedAt = time.Now().UTC()
	r.items[run.ID] = run

	return nil
}

func (r *runRepository) GetByID(_ context.Context, id string) (*models.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.items[id]
	if !ok {
		return nil, nil
	}

	return run, nil
}

func (r *runRepository) ListByWorkflowID(_ context.Context, workflowID string) ([]*models.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]*models.Run, 0)

	for _, run := range r.items {
		if run.WorkflowID == workflowID {
			runs = append(runs, run)
		}
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.Before(runs[j].CreatedAt) })

	return runs, nil
}

func (r *runRepository) UpdateStatus(_ context.Context, id string, status models.RunStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.items[id]
	if !ok {
		return persistence.ErrRunNotFound
	}

	run.LastStatus = status
	run.UpdatedAt = time.Now().UTC()

	return nil
}

type traceRepository struct {
	mu    sync.Mutex
	items map[string][]*models.TraceEvent
}

func (r *traceRepository) Append(_ context.Context, event *models.TraceEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[event.RunID] = append(r.items[event.RunID], event)

	return nil
}

func (r *traceRepository) ListByRunID(_ context.Context, runID string) ([]*models.TraceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := make([]*models.TraceEvent, len(r.items[runID]))
	copy(events, r.items[runID])

	sort.Slice(events, func(i, j int) bool { return events[i].Sequence < events[j].Sequence })

	return events, nil
}
