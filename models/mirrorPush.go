package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/mirror"
	"bitbucket.org/thukhadata/creditbook_backend/utils"
)

var (
	errorCompanyRequired = errors.New("company id is required")
	errorCompanyInUse    = errors.New("company still has users")
)

const mirrorPushTimeout = 10 * time.Second

// pushMirrorUpsert sends the full record to the remote mirror after the local
// write has committed. At-most-once, best effort: a failed push is logged and
// dropped, and the next local mutation re-pushes current state. There is no
// transactional coupling with the local commit.
func pushMirrorUpsert(companyId int, feed string, id int, record any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorPushTimeout)
		defer cancel()
		if err := mirror.Put(ctx, companyId, feed, id, record); err != nil {
			config.LogError(config.GetLogger(), "models", "pushMirrorUpsert", feed, id, err)
		}
	}()
}

// pushMirrorDelete marks the remote tombstone. The local row is hard-deleted
// by the caller before this runs; the two stores intentionally diverge on
// delete representation.
func pushMirrorDelete(companyId int, feed string, id int) {
	stamp := utils.NowMillis()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorPushTimeout)
		defer cancel()
		if err := mirror.MarkDeleted(ctx, companyId, feed, id, stamp); err != nil {
			config.LogError(config.GetLogger(), "models", "pushMirrorDelete", feed, id, err)
		}
	}()
}
