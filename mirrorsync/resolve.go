package mirrorsync

import "bitbucket.org/thukhadata/creditbook_backend/mirror"

// Action is the reconciler's verdict for one remote record.
type Action int

const (
	// ActionSkip leaves the local row untouched: it is strictly newer than
	// the remote record, which will be overwritten on the next local push.
	ActionSkip Action = iota
	// ActionUpsert writes the full remote record into the local row keyed by id.
	ActionUpsert
	// ActionDelete hard-deletes the local row (remote tombstone won).
	ActionDelete
)

// Resolve applies the last-write-wins rule for a single pulled record.
// The remote record wins unless the local row exists AND its lastModified is
// strictly greater than the remote stamp. Resolving the same snapshot twice
// yields the same actions, so reapplication is idempotent.
func Resolve(localExists bool, localLastModified int64, remote mirror.Meta) Action {
	if localExists && localLastModified > remote.LastModified {
		return ActionSkip
	}
	if remote.IsDeleted {
		return ActionDelete
	}
	return ActionUpsert
}
