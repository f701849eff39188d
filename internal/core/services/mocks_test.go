package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/flowsync/internal/core/domain"
	"github.com/custodia-labs/flowsync/internal/core/ports/driven"
	"github.com/custodia-labs/flowsync/internal/core/ports/driving"
)

// --- Mock implementations shared by the service tests ---

// mockClock hands out a fixed time that tests can advance.
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock(start time.Time) *mockClock {
	return &mockClock{now: start}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// mockLocalStore implements driven.LocalWorkflowStore in memory.
type mockLocalStore struct {
	mu        sync.Mutex
	clock     *mockClock
	docs      map[string]*driven.LocalWorkflow
	raw       map[string][]byte
	readErr   error
	writeErr  error
	backupErr error
	writes    int
	backups   int
}

func newMockLocalStore(clock *mockClock) *mockLocalStore {
	return &mockLocalStore{
		clock: clock,
		docs:  make(map[string]*driven.LocalWorkflow),
		raw:   make(map[string][]byte),
	}
}

func (m *mockLocalStore) put(path string, wf domain.Workflow, modifiedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = &driven.LocalWorkflow{Path: path, Workflow: wf, ModifiedAt: modifiedAt}
}

func (m *mockLocalStore) Read(_ context.Context, path string) (*driven.LocalWorkflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	doc, ok := m.docs[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	docCopy := *doc
	return &docCopy, nil
}

func (m *mockLocalStore) Write(_ context.Context, path string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	wf, err := decodeWorkflow(content)
	if err != nil {
		return err
	}
	m.writes++
	m.raw[path] = content
	m.docs[path] = &driven.LocalWorkflow{Path: path, Workflow: wf, ModifiedAt: m.clock.Now()}
	return nil
}

func (m *mockLocalStore) Backup(_ context.Context, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.backupErr != nil {
		return "", m.backupErr
	}
	if _, ok := m.docs[path]; !ok {
		return "", nil
	}
	m.backups++
	return path + ".backup", nil
}

func (m *mockLocalStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// mockRemoteStore implements driven.RemoteWorkflowStore in memory.
type mockRemoteStore struct {
	mu        sync.Mutex
	clock     *mockClock
	workflows map[string]*driven.RemoteWorkflow
	getErr    error
	updateErr error
	listErr   error
	updates   int
	getHook   func()

	// normalise, when set, rewrites workflows on Update the way a server
	// might (e.g. adding default settings).
	normalise func(domain.Workflow) domain.Workflow
}

func newMockRemoteStore(clock *mockClock) *mockRemoteStore {
	return &mockRemoteStore{
		clock:     clock,
		workflows: make(map[string]*driven.RemoteWorkflow),
	}
}

func (m *mockRemoteStore) put(id string, wf domain.Workflow, updatedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflows[id] = &driven.RemoteWorkflow{ID: id, Workflow: wf, UpdatedAt: updatedAt}
}

func (m *mockRemoteStore) Get(_ context.Context, id string) (*driven.RemoteWorkflow, error) {
	m.mu.Lock()
	hook := m.getHook
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	wf, ok := m.workflows[id]
	if !ok {
		return nil, fmt.Errorf("%w: workflow %s", domain.ErrNotFound, id)
	}
	wfCopy := *wf
	return &wfCopy, nil
}

func (m *mockRemoteStore) Update(_ context.Context, id string, wf domain.Workflow) (*driven.RemoteWorkflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	if _, ok := m.workflows[id]; !ok {
		return nil, fmt.Errorf("%w: workflow %s", domain.ErrNotFound, id)
	}
	m.updates++
	if m.normalise != nil {
		wf = m.normalise(wf)
	}
	stored := &driven.RemoteWorkflow{ID: id, Workflow: wf, UpdatedAt: m.clock.Now()}
	m.workflows[id] = stored
	storedCopy := *stored
	return &storedCopy, nil
}

func (m *mockRemoteStore) List(_ context.Context) ([]driven.WorkflowSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]driven.WorkflowSummary, 0, len(m.workflows))
	for id, wf := range m.workflows {
		out = append(out, driven.WorkflowSummary{ID: id, Name: wf.Workflow.Name, UpdatedAt: wf.UpdatedAt})
	}
	return out, nil
}

func (m *mockRemoteStore) updateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

// mockHistoryStore implements driven.HistoryStore in memory.
type mockHistoryStore struct {
	mu        sync.Mutex
	records   []domain.PassRecord
	recordErr error
	pruned    []int
}

func (m *mockHistoryStore) Record(_ context.Context, record *domain.PassRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	if record == nil {
		return domain.ErrInvalidInput
	}
	m.records = append(m.records, *record)
	return nil
}

func (m *mockHistoryStore) List(_ context.Context, binding string, limit int) ([]domain.PassRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PassRecord
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		if binding == "" || m.records[i].Binding == binding {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

func (m *mockHistoryStore) Stats(_ context.Context, binding string) (domain.PassStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stats domain.PassStats
	for _, r := range m.records {
		if r.Binding == binding {
			stats.Total++
		}
	}
	return stats, nil
}

func (m *mockHistoryStore) Prune(_ context.Context, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruned = append(m.pruned, keep)
	return nil
}

// mockMetrics implements driven.MetricsRecorder.
type mockMetrics struct {
	mu       sync.Mutex
	passes   map[domain.Outcome]int
	dropped  map[domain.Trigger]int
	lastTook time.Duration
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{
		passes:  make(map[domain.Outcome]int),
		dropped: make(map[domain.Trigger]int),
	}
}

func (m *mockMetrics) ObservePass(_ string, _ domain.Decision, outcome domain.Outcome, took time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passes[outcome]++
	m.lastTook = took
}

func (m *mockMetrics) DroppedTrigger(_ string, trigger domain.Trigger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped[trigger]++
}

func (m *mockMetrics) droppedCount(trigger domain.Trigger) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped[trigger]
}

// mockCredentialSource implements driven.CredentialSource.
type mockCredentialSource struct {
	values map[string]string
	err    error
}

func (m *mockCredentialSource) Load(_ context.Context) (map[string]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.values, nil
}

// Ensure mocks implement interfaces
var (
	_ driven.LocalWorkflowStore  = (*mockLocalStore)(nil)
	_ driven.RemoteWorkflowStore = (*mockRemoteStore)(nil)
	_ driven.HistoryStore        = (*mockHistoryStore)(nil)
	_ driven.MetricsRecorder     = (*mockMetrics)(nil)
	_ driven.CredentialSource    = (*mockCredentialSource)(nil)
	_ driving.SyncEngine         = (*SyncEngine)(nil)
)

var errServer = errors.New("status 500: internal server error")

func decodeWorkflow(content []byte) (domain.Workflow, error) {
	var wf domain.Workflow
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	if err := dec.Decode(&wf); err != nil {
		return domain.Workflow{}, fmt.Errorf("decode workflow: %w", err)
	}
	return wf, nil
}

func sampleWorkflow(name string, retries int) domain.Workflow {
	return domain.Workflow{
		Name: name,
		Nodes: []any{
			map[string]any{
				"name":       "Webhook",
				"type":       "n8n-nodes-base.webhook",
				"position":   []any{json.Number("250"), json.Number("300")},
				"parameters": map[string]any{"path": "quark"},
			},
			map[string]any{
				"name":       "HTTP Request",
				"type":       "n8n-nodes-base.httpRequest",
				"parameters": map[string]any{"retries": json.Number(fmt.Sprint(retries))},
			},
		},
		Connections: map[string]any{
			"Webhook": map[string]any{
				"main": []any{[]any{map[string]any{"node": "HTTP Request", "type": "main", "index": json.Number("0")}}},
			},
		},
		Settings: map[string]any{"executionOrder": "v1"},
	}
}
