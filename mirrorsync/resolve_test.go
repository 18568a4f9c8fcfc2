package mirrorsync

import (
	"testing"

	"bitbucket.org/thukhadata/creditbook_backend/mirror"
)

func TestResolve_RemoteWinsUnlessLocalStrictlyNewer(t *testing.T) {
	cases := []struct {
		name        string
		localExists bool
		localStamp  int64
		remote      mirror.Meta
		expected    Action
	}{
		{"local missing, live record", false, 0, mirror.Meta{Id: 1, LastModified: 100}, ActionUpsert},
		{"local missing, tombstone", false, 0, mirror.Meta{Id: 1, LastModified: 100, IsDeleted: true}, ActionDelete},
		{"local older", true, 50, mirror.Meta{Id: 1, LastModified: 100}, ActionUpsert},
		{"local older, tombstone", true, 50, mirror.Meta{Id: 1, LastModified: 100, IsDeleted: true}, ActionDelete},
		{"equal stamps, remote wins", true, 100, mirror.Meta{Id: 1, LastModified: 100}, ActionUpsert},
		{"equal stamps, tombstone wins", true, 100, mirror.Meta{Id: 1, LastModified: 100, IsDeleted: true}, ActionDelete},
		{"local strictly newer", true, 101, mirror.Meta{Id: 1, LastModified: 100}, ActionSkip},
		{"local strictly newer beats tombstone", true, 101, mirror.Meta{Id: 1, LastModified: 100, IsDeleted: true}, ActionSkip},
	}
	for _, tc := range cases {
		if got := Resolve(tc.localExists, tc.localStamp, tc.remote); got != tc.expected {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}

func TestResolve_ReapplyingSnapshotIsIdempotent(t *testing.T) {
	remote := mirror.Meta{Id: 7, LastModified: 200}

	// First application upserts; the local row now carries the remote stamp.
	if got := Resolve(true, 150, remote); got != ActionUpsert {
		t.Fatalf("first apply expected upsert, got %v", got)
	}
	// Re-applying the same snapshot resolves to the same write, which the
	// upsert-by-id makes a no-op.
	if got := Resolve(true, remote.LastModified, remote); got != ActionUpsert {
		t.Fatalf("second apply expected upsert, got %v", got)
	}
}

func TestResolve_TombstoneAfterLocalDeleteIsStillDelete(t *testing.T) {
	// Deletes never refresh the local stamp, so a pulled tombstone always
	// deletes an already-missing row. Harmless both ways.
	remote := mirror.Meta{Id: 3, LastModified: 300, IsDeleted: true}
	if got := Resolve(false, 0, remote); got != ActionDelete {
		t.Fatalf("expected delete, got %v", got)
	}
}
