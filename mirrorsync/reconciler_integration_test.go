package mirrorsync

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/mirror"
	"bitbucket.org/thukhadata/creditbook_backend/models"
	"bitbucket.org/thukhadata/creditbook_backend/utils"
	"github.com/shopspring/decimal"
)

// End-to-end push/pull convergence against real MySQL + Redis.

func TestPullFeed_ConvergesAfterRemoteWrite(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires MySQL + Redis)")
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	const companyId = 999001

	stamp := utils.NowMillis()
	rec := mirror.CustomerRecord{
		Meta:        mirror.Meta{Id: 999001, LastModified: stamp},
		CompanyId:   companyId,
		Name:        "Integration Pull Customer",
		CreditScore: 60,
	}
	if err := mirror.Put(ctx, companyId, mirror.FeedCustomers, rec.Id, rec); err != nil {
		t.Fatalf("mirror put: %v", err)
	}
	defer func() {
		_ = models.DeleteCustomerLocal(ctx, rec.Id)
	}()

	if err := PullFeed(ctx, companyId, mirror.FeedCustomers); err != nil {
		t.Fatalf("pull: %v", err)
	}

	local, err := utils.FetchModel[models.Customer](ctx, companyId, rec.Id)
	if err != nil {
		t.Fatalf("local row missing after pull: %v", err)
	}
	if local.Name != rec.Name || local.LastModified != stamp {
		t.Fatalf("local row diverged: %+v", local)
	}

	// A strictly newer local edit must survive a re-pull of the stale snapshot.
	newer := utils.NowMillis()
	if newer == stamp {
		newer = stamp + 1
		time.Sleep(2 * time.Millisecond)
	}
	if err := config.GetDB().WithContext(ctx).Model(local).
		Updates(map[string]interface{}{
			"Name":          "Locally Edited",
			"CreditBalance": decimal.NewFromInt(10),
			"LastModified":  newer,
		}).Error; err != nil {
		t.Fatalf("local edit: %v", err)
	}

	if err := PullFeed(ctx, companyId, mirror.FeedCustomers); err != nil {
		t.Fatalf("re-pull: %v", err)
	}
	local, err = utils.FetchModel[models.Customer](ctx, companyId, rec.Id)
	if err != nil {
		t.Fatalf("local row gone after re-pull: %v", err)
	}
	if local.Name != "Locally Edited" {
		t.Fatalf("stale snapshot overwrote a newer local row: %+v", local)
	}

	// Tombstone wins once the remote stamp catches up.
	if err := mirror.MarkDeleted(ctx, companyId, mirror.FeedCustomers, rec.Id, newer+1); err != nil {
		t.Fatalf("mark deleted: %v", err)
	}
	if err := PullFeed(ctx, companyId, mirror.FeedCustomers); err != nil {
		t.Fatalf("tombstone pull: %v", err)
	}
	if _, err := utils.FetchModel[models.Customer](ctx, companyId, rec.Id); err == nil {
		t.Fatalf("tombstoned row still present locally")
	}
}
