package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/flowsync/internal/adapters/driven/localfile"
	"github.com/custodia-labs/flowsync/internal/core/domain"
	"github.com/custodia-labs/flowsync/internal/core/ports/driven"
	"github.com/custodia-labs/flowsync/internal/core/services"
)

// pullRuntime wires the real sync engine to a local store under a temp
// directory and a fake remote holding one workflow.
func pullRuntime(t *testing.T) (*Runtime, domain.Binding) {
	t.Helper()
	binding := domain.Binding{
		Name:       "quark",
		WorkflowID: "L6K4bzSKlGC36ABL",
		LocalPath:  filepath.Join(t.TempDir(), "quark-workflow.json"),
	}
	remote := &mockRemoteStore{workflows: map[string]driven.RemoteWorkflow{
		binding.WorkflowID: {
			ID: binding.WorkflowID,
			Workflow: domain.Workflow{
				Name:        "Quark Crew",
				Nodes:       []any{map[string]any{"name": "Webhook", "type": "n8n-nodes-base.webhook"}},
				Connections: map[string]any{},
				Settings:    map[string]any{"executionOrder": "v1"},
			},
			UpdatedAt: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		},
	}}
	engine := services.NewSyncEngine(
		services.SyncEngineConfig{Bindings: []domain.Binding{binding}, BackupBeforePull: true},
		localfile.NewStore(), remote, nil, nil,
	)
	return &Runtime{Engine: engine, Workflows: remote}, binding
}

func TestWorkflowsPull_WritesMissingFile(t *testing.T) {
	rt, binding := pullRuntime(t)
	opts := setupRuntime(t, rt, nil)

	out, err := executeCommand("workflows", "pull", "quark")

	require.NoError(t, err)
	assert.Equal(t, "quark", opts.Binding)
	assert.False(t, opts.Offline)
	assert.Contains(t, out, "quark: pulled")
	assert.Contains(t, out, "Downloaded L6K4bzSKlGC36ABL to "+binding.LocalPath)

	data, err := os.ReadFile(binding.LocalPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Quark Crew"`)

	state, err := rt.Engine.Session("quark")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomePulled, state.LastOutcome)
}

func TestWorkflowsPull_ExistingFileNeedsForce(t *testing.T) {
	rt, binding := pullRuntime(t)
	original := []byte(`{"name":"Local Draft","nodes":[],"connections":{},"settings":{}}`)
	require.NoError(t, os.WriteFile(binding.LocalPath, original, 0o644))
	setupRuntime(t, rt, nil)

	_, err := executeCommand("workflows", "pull", "quark")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "--force")
	data, err := os.ReadFile(binding.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, original, data)

	out, err := executeCommand("workflows", "pull", "quark", "--force")

	require.NoError(t, err)
	assert.Contains(t, out, "Downloaded")
	data, err = os.ReadFile(binding.LocalPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Quark Crew")

	backups, err := filepath.Glob(binding.LocalPath + ".backup.*")
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestWorkflowsPull_RemoteMissing(t *testing.T) {
	rt, binding := pullRuntime(t)
	rt.Engine = services.NewSyncEngine(
		services.SyncEngineConfig{Bindings: []domain.Binding{binding}},
		localfile.NewStore(), &mockRemoteStore{}, nil, nil,
	)
	setupRuntime(t, rt, nil)

	out, err := executeCommand("workflows", "pull", "quark")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pull quark failed")
	assert.Contains(t, out, "quark: failed")
	assert.NoFileExists(t, binding.LocalPath)
}

func TestWorkflowsPull_UnknownBinding(t *testing.T) {
	rt, _ := pullRuntime(t)
	setupRuntime(t, rt, nil)

	_, err := executeCommand("workflows", "pull", "missing")

	assert.ErrorIs(t, err, domain.ErrUnknownBinding)
}
