package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/flowsync/internal/core/domain"
	"github.com/custodia-labs/flowsync/internal/core/ports/driven"
	"github.com/custodia-labs/flowsync/internal/core/ports/driving"
	"github.com/custodia-labs/flowsync/internal/logger"
)

// Ensure SyncEngine implements the interface.
var _ driving.SyncEngine = (*SyncEngine)(nil)

// SyncEngineConfig holds engine behaviour settings.
type SyncEngineConfig struct {
	// Bindings are the workflow/file pairs to keep in sync.
	Bindings []domain.Binding

	// BackupBeforePull copies the local file aside before overwriting it.
	BackupBeforePull bool

	// HistoryKeep is how many passes per binding the history store retains.
	// Zero disables pruning.
	HistoryKeep int
}

// SyncEngine runs snapshot-compare-apply passes, one binding at a time.
type SyncEngine struct {
	config    SyncEngineConfig
	local     driven.LocalWorkflowStore
	remote    driven.RemoteWorkflowStore
	history   driven.HistoryStore
	metrics   driven.MetricsRecorder
	snapshots *SnapshotBuilder

	byName   map[string]domain.Binding
	sessions map[string]*domain.SyncSession

	now func() time.Time
}

// NewSyncEngine creates a sync engine.
// The history store and metrics recorder are optional and may be nil.
func NewSyncEngine(
	config SyncEngineConfig,
	local driven.LocalWorkflowStore,
	remote driven.RemoteWorkflowStore,
	history driven.HistoryStore,
	metrics driven.MetricsRecorder,
) *SyncEngine {
	e := &SyncEngine{
		config:    config,
		local:     local,
		remote:    remote,
		history:   history,
		metrics:   metrics,
		snapshots: NewSnapshotBuilder(local, remote),
		byName:    make(map[string]domain.Binding, len(config.Bindings)),
		sessions:  make(map[string]*domain.SyncSession, len(config.Bindings)),
		now:       time.Now,
	}
	for _, b := range config.Bindings {
		e.byName[b.Name] = b
		e.sessions[b.Name] = domain.NewSyncSession()
	}
	return e
}

// Bindings returns the configured bindings in configuration order.
func (e *SyncEngine) Bindings() []domain.Binding {
	out := make([]domain.Binding, len(e.config.Bindings))
	copy(out, e.config.Bindings)
	return out
}

// Session returns the session state for a binding.
func (e *SyncEngine) Session(name string) (domain.SessionState, error) {
	session, ok := e.sessions[name]
	if !ok {
		return domain.SessionState{}, fmt.Errorf("%w: %s", domain.ErrUnknownBinding, name)
	}
	return session.State(), nil
}

// Plan builds both snapshots and decides, without applying anything.
func (e *SyncEngine) Plan(ctx context.Context, name string) (*driving.PassReport, error) {
	binding, ok := e.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownBinding, name)
	}

	report := e.evaluate(ctx, binding)
	if report.Err == nil {
		report.Outcome = domain.OutcomePlanned
	}
	return report, nil
}

// RunPass runs one pass for a binding.
// Failures inside the pass are reported in PassReport.Err and never returned;
// the returned error is only set for an unknown binding or a pass already in
// flight.
func (e *SyncEngine) RunPass(ctx context.Context, name string, trigger domain.Trigger) (*driving.PassReport, error) {
	binding, ok := e.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownBinding, name)
	}

	session := e.sessions[name]
	if !session.TryBegin() {
		logger.Debug("%s: pass in flight, dropping %s trigger", name, trigger)
		if e.metrics != nil {
			e.metrics.DroppedTrigger(name, trigger)
		}
		return nil, domain.ErrSyncInProgress
	}
	defer session.End()

	startedAt := e.now()
	report := e.evaluate(ctx, binding)
	session.Observe(report.Local.ContentHashOrEmpty(), report.Remote.ContentHashOrEmpty())

	switch report.Decision {
	case domain.DecisionSkip:
		report.Outcome = domain.OutcomeSkipped
		logger.Warn("%s: skipped: %v", name, report.Err)
	case domain.DecisionInSync:
		report.Outcome = domain.OutcomeInSync
		logger.Info("%s: in sync (%s)", name, report.Local.ShortHash())
	case domain.DecisionPush:
		e.push(ctx, binding, report, session)
	case domain.DecisionPull:
		e.pull(ctx, binding, report, session)
	case domain.DecisionConflict:
		report.Outcome = domain.OutcomeConflict
		logger.Warn("%s: CONFLICT: local %s and remote %s differ with identical timestamps %s; resolve manually",
			name, report.Local.ShortHash(), report.Remote.ShortHash(),
			report.Local.LastModifiedAt.UTC().Format(time.RFC3339Nano))
	}

	e.finishPass(ctx, session, report, trigger, startedAt)
	return report, nil
}

// Download fetches the remote workflow and writes it to the local file
// without consulting the decision engine. It gives a new binding its first
// local copy. The write goes through the same pull path as a pass, so
// BackupBeforePull applies when overwrite replaces an existing file.
func (e *SyncEngine) Download(ctx context.Context, name string, overwrite bool) (*driving.PassReport, error) {
	binding, ok := e.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownBinding, name)
	}

	session := e.sessions[name]
	if !session.TryBegin() {
		return nil, domain.ErrSyncInProgress
	}
	defer session.End()

	if !overwrite {
		if _, err := e.local.Read(ctx, binding.LocalPath); !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s already exists", domain.ErrInvalidInput, binding.LocalPath)
		}
	}

	startedAt := e.now()
	report := &driving.PassReport{Binding: binding, Decision: domain.DecisionPull}
	remote, err := e.snapshots.Remote(ctx, binding)
	if err != nil {
		report.Outcome = domain.OutcomeFailed
		report.Err = err
		logger.Error("%s: download failed: %v", name, err)
	} else {
		report.Remote = remote
		session.Observe("", remote.ContentHash)
		e.pull(ctx, binding, report, session)
	}

	e.finishPass(ctx, session, report, domain.TriggerManual, startedAt)
	return report, nil
}

// finishPass fills in the audit record, closes the session and records
// the pass.
func (e *SyncEngine) finishPass(
	ctx context.Context,
	session *domain.SyncSession,
	report *driving.PassReport,
	trigger domain.Trigger,
	startedAt time.Time,
) {
	endedAt := e.now()
	report.Record = domain.PassRecord{
		ID:         uuid.NewString(),
		Binding:    report.Binding.Name,
		Trigger:    trigger,
		Decision:   report.Decision,
		Outcome:    report.Outcome,
		LocalHash:  report.Local.ContentHashOrEmpty(),
		RemoteHash: report.Remote.ContentHashOrEmpty(),
		StartedAt:  startedAt,
		EndedAt:    endedAt,
	}
	if report.Err != nil {
		report.Record.Error = report.Err.Error()
	}

	session.Complete(endedAt, report.Outcome, report.Record.Error)
	e.recordPass(ctx, report.Record)
}

// RunAll runs one pass for every binding.
// Passes dropped because one is already in flight are joined into the error.
func (e *SyncEngine) RunAll(ctx context.Context, trigger domain.Trigger) ([]driving.PassReport, error) {
	reports := make([]driving.PassReport, 0, len(e.config.Bindings))
	var errs []error
	for _, b := range e.config.Bindings {
		report, err := e.RunPass(ctx, b.Name, trigger)
		if err != nil {
			errs = append(errs, fmt.Errorf("pass %s: %w", b.Name, err))
			continue
		}
		reports = append(reports, *report)
	}

	if len(errs) > 0 {
		return reports, errors.Join(errs...)
	}
	return reports, nil
}

// evaluate builds fresh snapshots for both sides and decides.
func (e *SyncEngine) evaluate(ctx context.Context, binding domain.Binding) *driving.PassReport {
	report := &driving.PassReport{Binding: binding}

	local, localErr := e.snapshots.Local(ctx, binding)
	remote, remoteErr := e.snapshots.Remote(ctx, binding)
	report.Local = local
	report.Remote = remote
	report.Err = errors.Join(localErr, remoteErr)

	report.Decision = Decide(local, remote)
	logger.Debug("%s: local=%s@%s remote=%s@%s decision=%s",
		binding.Name,
		local.ShortHash(), formatSnapshotTime(local),
		remote.ShortHash(), formatSnapshotTime(remote),
		report.Decision)
	return report
}

// push replaces the remote workflow with the local document.
func (e *SyncEngine) push(ctx context.Context, binding domain.Binding, report *driving.PassReport, session *domain.SyncSession) {
	stored, err := e.remote.Update(ctx, binding.WorkflowID, report.Local.Workflow)
	if err != nil {
		report.Outcome = domain.OutcomeFailed
		report.Err = fmt.Errorf("%w: push %s: %w", domain.ErrApplyFailed, binding.WorkflowID, err)
		logger.Error("%s: push failed: %v", binding.Name, err)
		return
	}

	// The server may normalise what it stores; the session tracks the
	// stored content, not what was sent.
	remoteHash := report.Local.ContentHash
	if stored != nil {
		if snap, err := newSnapshot(domain.SideRemote, binding.WorkflowID, stored.Workflow); err == nil &&
			snap.ContentHash != remoteHash {
			logger.Debug("%s: server normalised pushed content (%s)", binding.Name, snap.ShortHash())
			remoteHash = snap.ContentHash
		}
	}

	session.SetLastRemoteHash(remoteHash)
	report.Outcome = domain.OutcomePushed
	logger.Info("%s: pushed local to remote (%s)", binding.Name, report.Local.ShortHash())
}

// pull replaces the local document with the remote workflow.
func (e *SyncEngine) pull(ctx context.Context, binding domain.Binding, report *driving.PassReport, session *domain.SyncSession) {
	fail := func(err error) {
		report.Outcome = domain.OutcomeFailed
		report.Err = fmt.Errorf("%w: pull %s: %w", domain.ErrApplyFailed, binding.LocalPath, err)
		logger.Error("%s: pull failed: %v", binding.Name, err)
	}

	content, err := IndentCanonical(report.Remote.Content)
	if err != nil {
		fail(err)
		return
	}

	if e.config.BackupBeforePull {
		backup, err := e.local.Backup(ctx, binding.LocalPath)
		if err != nil {
			fail(fmt.Errorf("backup: %w", err))
			return
		}
		if backup != "" {
			logger.Debug("%s: backed up local file to %s", binding.Name, backup)
		}
	}

	if err := e.local.Write(ctx, binding.LocalPath, content); err != nil {
		fail(err)
		return
	}

	session.SetLastLocalHash(report.Remote.ContentHash)
	report.Outcome = domain.OutcomePulled
	logger.Info("%s: pulled remote to local (%s)", binding.Name, report.Remote.ShortHash())
}

// recordPass writes the pass to history and metrics. Failures are logged only.
func (e *SyncEngine) recordPass(ctx context.Context, record domain.PassRecord) {
	if e.metrics != nil {
		e.metrics.ObservePass(record.Binding, record.Decision, record.Outcome, record.Duration())
	}

	if e.history == nil {
		return
	}
	if err := e.history.Record(ctx, &record); err != nil {
		logger.Warn("%s: failed to record pass: %v", record.Binding, err)
		return
	}
	if e.config.HistoryKeep > 0 {
		if err := e.history.Prune(ctx, e.config.HistoryKeep); err != nil {
			logger.Warn("failed to prune history: %v", err)
		}
	}
}

func formatSnapshotTime(s *domain.Snapshot) string {
	if s == nil {
		return "-"
	}
	return s.LastModifiedAt.UTC().Format(time.RFC3339Nano)
}
