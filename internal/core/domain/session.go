package domain

import (
	"sync"
	"sync/atomic"
	"time"
)

// SyncSession is the process-lifetime state for one binding.
// It is never persisted; a restart re-derives everything from fresh snapshots.
//
// The processing flag is the only gate over the snapshot-compare-apply
// critical section. The remaining fields are written only by the holder of
// that gate and are read under mu for status reporting.
type SyncSession struct {
	processing atomic.Bool

	mu             sync.RWMutex
	lastLocalHash  string
	lastRemoteHash string
	lastSyncAt     time.Time
	lastOutcome    Outcome
	lastError      string
}

// NewSyncSession creates an idle session.
func NewSyncSession() *SyncSession {
	return &SyncSession{}
}

// TryBegin claims the session for a pass.
// Returns false if another pass is already in flight.
func (s *SyncSession) TryBegin() bool {
	return s.processing.CompareAndSwap(false, true)
}

// End releases the session claimed by TryBegin.
func (s *SyncSession) End() {
	s.processing.Store(false)
}

// IsProcessing reports whether a pass is in flight.
func (s *SyncSession) IsProcessing() bool {
	return s.processing.Load()
}

// Observe records the hashes seen during a pass.
// Empty hashes leave the previous value untouched.
func (s *SyncSession) Observe(localHash, remoteHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if localHash != "" {
		s.lastLocalHash = localHash
	}
	if remoteHash != "" {
		s.lastRemoteHash = remoteHash
	}
}

// SetLastLocalHash records the hash written to the local file.
func (s *SyncSession) SetLastLocalHash(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLocalHash = hash
}

// SetLastRemoteHash records the hash pushed to the remote workflow.
func (s *SyncSession) SetLastRemoteHash(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRemoteHash = hash
}

// Complete records the end of a pass.
func (s *SyncSession) Complete(at time.Time, outcome Outcome, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSyncAt = at
	s.lastOutcome = outcome
	s.lastError = errMsg
}

// SessionState is a read-only copy of a SyncSession.
type SessionState struct {
	Processing     bool      `json:"processing"`
	LastLocalHash  string    `json:"last_local_hash,omitempty"`
	LastRemoteHash string    `json:"last_remote_hash,omitempty"`
	LastSyncAt     time.Time `json:"last_sync_at,omitempty"`
	LastOutcome    Outcome   `json:"last_outcome,omitempty"`
	LastError      string    `json:"last_error,omitempty"`
}

// State returns a copy of the session fields.
func (s *SyncSession) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionState{
		Processing:     s.processing.Load(),
		LastLocalHash:  s.lastLocalHash,
		LastRemoteHash: s.lastRemoteHash,
		LastSyncAt:     s.lastSyncAt,
		LastOutcome:    s.lastOutcome,
		LastError:      s.lastError,
	}
}
