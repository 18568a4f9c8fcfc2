package mirrorsync

import (
	"context"
	"encoding/json"
	"errors"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/mirror"
	"bitbucket.org/thukhadata/creditbook_backend/models"
	"gorm.io/gorm"
)

// The reconciler pulls remote snapshots into the local store. It never
// creates entities on its own; it only applies remote state into rows keyed
// by id. Pushing the other direction happens at mutation time in models.

// localStamp looks up one local row's lastModified by primary key.
func localStamp[T any](ctx context.Context, id int) (int64, bool, error) {
	db := config.GetDB()
	var m T
	var row struct{ LastModified int64 }
	err := db.WithContext(ctx).Model(&m).
		Select("last_modified").
		Where("id = ?", id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return row.LastModified, true, nil
}

// ApplyCustomersSnapshot merges one full customers-feed snapshot. Per-record
// failures are logged and skipped; a missed record self-heals on the next
// snapshot because every delivery reprocesses all children.
func ApplyCustomersSnapshot(ctx context.Context, companyId int, snapshot map[int]json.RawMessage) error {
	logger := config.GetLogger()
	var firstErr error
	for id, raw := range snapshot {
		var rec mirror.CustomerRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			config.LogError(logger, "mirrorsync", "ApplyCustomersSnapshot", "unmarshal", id, err)
			continue
		}
		if rec.Id == 0 {
			rec.Id = id
		}

		stamp, exists, err := localStamp[models.Customer](ctx, rec.Id)
		if err != nil {
			config.LogError(logger, "mirrorsync", "ApplyCustomersSnapshot", "localStamp", rec.Id, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		switch Resolve(exists, stamp, rec.Meta) {
		case ActionSkip:
		case ActionDelete:
			if err := models.DeleteCustomerLocal(ctx, rec.Id); err != nil {
				config.LogError(logger, "mirrorsync", "ApplyCustomersSnapshot", "delete", rec.Id, err)
				if firstErr == nil {
					firstErr = err
				}
			}
		case ActionUpsert:
			if err := models.UpsertCustomerFromMirror(ctx, rec); err != nil {
				config.LogError(logger, "mirrorsync", "ApplyCustomersSnapshot", "upsert", rec.Id, err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}

// ApplyInvoicesSnapshot merges one full invoices-feed snapshot.
func ApplyInvoicesSnapshot(ctx context.Context, companyId int, snapshot map[int]json.RawMessage) error {
	logger := config.GetLogger()
	var firstErr error
	for id, raw := range snapshot {
		var rec mirror.InvoiceRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			config.LogError(logger, "mirrorsync", "ApplyInvoicesSnapshot", "unmarshal", id, err)
			continue
		}
		if rec.Id == 0 {
			rec.Id = id
		}

		stamp, exists, err := localStamp[models.Invoice](ctx, rec.Id)
		if err != nil {
			config.LogError(logger, "mirrorsync", "ApplyInvoicesSnapshot", "localStamp", rec.Id, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		switch Resolve(exists, stamp, rec.Meta) {
		case ActionSkip:
		case ActionDelete:
			if err := models.DeleteInvoiceLocal(ctx, rec.Id); err != nil {
				config.LogError(logger, "mirrorsync", "ApplyInvoicesSnapshot", "delete", rec.Id, err)
				if firstErr == nil {
					firstErr = err
				}
			}
		case ActionUpsert:
			if err := models.UpsertInvoiceFromMirror(ctx, rec); err != nil {
				config.LogError(logger, "mirrorsync", "ApplyInvoicesSnapshot", "upsert", rec.Id, err)
				// Malformed records are skipped like unmarshal failures; only
				// transient errors bubble up for retry.
				if firstErr == nil && !errors.Is(err, models.ErrorMalformedMirrorRecord) {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}

// PullFeed reads and applies the current snapshot of one feed. Only the
// customers and invoices feeds have pull listeners; receipts and users are
// push-only in this codebase.
func PullFeed(ctx context.Context, companyId int, feed string) error {
	snapshot, err := mirror.Snapshot(ctx, companyId, feed)
	if err != nil {
		return err
	}
	switch feed {
	case mirror.FeedCustomers:
		return ApplyCustomersSnapshot(ctx, companyId, snapshot)
	case mirror.FeedInvoices:
		return ApplyInvoicesSnapshot(ctx, companyId, snapshot)
	default:
		return errors.New("no pull listener for feed " + feed)
	}
}
