package services

import "github.com/custodia-labs/flowsync/internal/core/domain"

// Decide compares a local and a remote snapshot.
//
// Equal hashes are always in sync regardless of timestamps. Otherwise the
// strictly later side wins; an exact tie is a conflict and is never resolved
// automatically.
func Decide(local, remote *domain.Snapshot) domain.Decision {
	if local == nil || remote == nil {
		return domain.DecisionSkip
	}

	if local.ContentHash == remote.ContentHash {
		return domain.DecisionInSync
	}

	switch {
	case local.LastModifiedAt.After(remote.LastModifiedAt):
		return domain.DecisionPush
	case remote.LastModifiedAt.After(local.LastModifiedAt):
		return domain.DecisionPull
	default:
		return domain.DecisionConflict
	}
}
