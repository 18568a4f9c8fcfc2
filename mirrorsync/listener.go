package mirrorsync

import (
	"context"
	"sync"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/mirror"
	"bitbucket.org/thukhadata/creditbook_backend/models"
	"github.com/sirupsen/logrus"
)

// Listener owns the pull side of sync: one subscription per active company
// per pulled feed (customers, invoices). Each delivery means "re-read the
// full snapshot"; the listener never sees diffs, so a missed delivery is
// healed by the next one.
type Listener struct {
	Logger *logrus.Logger

	// CompanyRescanInterval controls how often new companies get listeners.
	CompanyRescanInterval time.Duration

	mu      sync.Mutex
	running map[string]bool
}

func NewListener(logger *logrus.Logger) *Listener {
	return &Listener{
		Logger:                logger,
		CompanyRescanInterval: time.Minute,
		running:               map[string]bool{},
	}
}

var pulledFeeds = []string{mirror.FeedCustomers, mirror.FeedInvoices}

// Run blocks until ctx is cancelled, keeping one feed loop alive per
// company. Snapshot application failures are logged and dropped; the
// subscription stays up.
func (l *Listener) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		l.rescan(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(l.CompanyRescanInterval):
		}
	}
}

func (l *Listener) rescan(ctx context.Context) {
	companies, err := models.GetAllCompanies(ctx)
	if err != nil {
		config.LogError(l.Logger, "mirrorsync", "rescan", "GetAllCompanies", nil, err)
		return
	}
	for _, company := range companies {
		for _, feed := range pulledFeeds {
			l.ensureFeedLoop(ctx, company.ID, feed)
		}
	}
}

func (l *Listener) ensureFeedLoop(ctx context.Context, companyId int, feed string) {
	key := mirror.ChannelKey(companyId, feed)
	l.mu.Lock()
	if l.running[key] {
		l.mu.Unlock()
		return
	}
	l.running[key] = true
	l.mu.Unlock()

	go l.feedLoop(ctx, companyId, feed, key)
}

func (l *Listener) feedLoop(ctx context.Context, companyId int, feed string, key string) {
	defer func() {
		l.mu.Lock()
		delete(l.running, key)
		l.mu.Unlock()
	}()

	sub, err := mirror.SubscribeFeed(ctx, companyId, feed)
	if err != nil {
		config.LogError(l.Logger, "mirrorsync", "feedLoop", "subscribe "+key, nil, err)
		return
	}
	defer sub.Close()

	// Initial pull so a fresh device converges without waiting for a change.
	if err := PullFeed(ctx, companyId, feed); err != nil {
		config.LogError(l.Logger, "mirrorsync", "feedLoop", "initial pull "+key, nil, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_ = msg // payload is only a change signal; re-read the snapshot
			if err := PullFeed(ctx, companyId, feed); err != nil {
				config.LogError(l.Logger, "mirrorsync", "feedLoop", "pull "+key, nil, err)
			}
		}
	}
}
