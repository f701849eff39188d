package n8n

import (
	"fmt"
	"time"

	"github.com/custodia-labs/flowsync/internal/core/domain"
	"github.com/custodia-labs/flowsync/internal/core/ports/driven"
)

// workflowRequest is the PUT /workflows/{id} body.
// The public API rejects read-only properties, so only editable fields exist.
type workflowRequest struct {
	Name        string         `json:"name"`
	Nodes       []any          `json:"nodes"`
	Connections map[string]any `json:"connections"`
	Settings    map[string]any `json:"settings"`
}

func newWorkflowRequest(wf domain.Workflow) workflowRequest {
	wf = wf.Normalised()
	return workflowRequest{
		Name:        wf.Name,
		Nodes:       wf.Nodes,
		Connections: wf.Connections,
		Settings:    wf.Settings,
	}
}

// workflowResponse is a workflow as returned by the API. Server-managed
// fields other than id, active and updatedAt (versionId, tags, createdAt,
// meta, pinData, staticData, triggerCount, shared, isArchived) are not
// decoded, which strips them before they reach the core.
type workflowResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Active      bool           `json:"active"`
	Nodes       []any          `json:"nodes"`
	Connections map[string]any `json:"connections"`
	Settings    map[string]any `json:"settings"`
	UpdatedAt   string         `json:"updatedAt"`
}

// listResponse is the GET /workflows page format.
type listResponse struct {
	Data       []workflowResponse `json:"data"`
	NextCursor *string            `json:"nextCursor"`
}

func (w workflowResponse) workflow() domain.Workflow {
	return domain.Workflow{
		Name:        w.Name,
		Nodes:       w.Nodes,
		Connections: w.Connections,
		Settings:    w.Settings,
	}.Normalised()
}

func (w workflowResponse) toRemote() (*driven.RemoteWorkflow, error) {
	updatedAt, err := parseTimestamp(w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("n8n: workflow %s: %w", w.ID, err)
	}
	return &driven.RemoteWorkflow{
		ID:        w.ID,
		Workflow:  w.workflow(),
		UpdatedAt: updatedAt,
	}, nil
}

func (w workflowResponse) toSummary() driven.WorkflowSummary {
	updatedAt, _ := parseTimestamp(w.UpdatedAt)
	return driven.WorkflowSummary{
		ID:        w.ID,
		Name:      w.Name,
		Active:    w.Active,
		UpdatedAt: updatedAt,
	}
}

// parseTimestamp parses updatedAt, which N8N emits as RFC 3339 with
// millisecond precision ("2025-03-14T09:26:53.589Z").
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing updatedAt")
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid updatedAt %q: %w", s, err)
	}
	return t, nil
}
