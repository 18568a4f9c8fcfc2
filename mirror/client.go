package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"github.com/redis/go-redis/v9"
)

var ErrNotConnected = errors.New("mirror store not connected")

// RootNamespace is the top of the remote tree. All company subtrees hang
// under it.
func RootNamespace() string {
	root := strings.TrimSpace(os.Getenv("MIRROR_ROOT"))
	if root == "" {
		root = "creditbook"
	}
	return root
}

// FeedKey addresses the hash holding all child records of one feed:
// {root}:{companyId}:customers etc. Companies live in a single
// company-independent hash.
func FeedKey(companyId int, feed string) string {
	if feed == FeedCompanies {
		return fmt.Sprintf("%s:%s", RootNamespace(), FeedCompanies)
	}
	return fmt.Sprintf("%s:%d:%s", RootNamespace(), companyId, feed)
}

// ChannelKey is the pub/sub channel a feed's change notifications go out on.
// A delivery carries no diff; it only tells subscribers to re-read the full
// snapshot.
func ChannelKey(companyId int, feed string) string {
	return fmt.Sprintf("%s:%d:feed:%s", RootNamespace(), companyId, feed)
}

func receiptCounterKey(companyId int) string {
	return fmt.Sprintf("%s:%d:counters:receipt", RootNamespace(), companyId)
}

// Put upserts the full record under the feed path and notifies subscribers.
func Put(ctx context.Context, companyId int, feed string, id int, record any) error {
	rdb := config.GetRedisDB()
	if rdb == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := rdb.HSet(ctx, FeedKey(companyId, feed), strconv.Itoa(id), data).Err(); err != nil {
		return err
	}
	return rdb.Publish(ctx, ChannelKey(companyId, feed), "snapshot").Err()
}

// MarkDeleted flips the remote tombstone flag and bumps last_modified so the
// deletion propagates to other replicas. The record body is kept so stale
// readers still see the full field set.
func MarkDeleted(ctx context.Context, companyId int, feed string, id int, lastModified int64) error {
	rdb := config.GetRedisDB()
	if rdb == nil {
		return ErrNotConnected
	}
	key := FeedKey(companyId, feed)
	field := strconv.Itoa(id)

	fields := map[string]any{}
	raw, err := rdb.HGet(ctx, key, field).Result()
	if err == nil {
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			fields = map[string]any{}
		}
	} else if err != redis.Nil {
		return err
	}
	fields["id"] = id
	fields["is_deleted"] = true
	fields["last_modified"] = lastModified

	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := rdb.HSet(ctx, key, field, data).Err(); err != nil {
		return err
	}
	return rdb.Publish(ctx, ChannelKey(companyId, feed), "snapshot").Err()
}

// Snapshot reads every child record under the feed path. Deliveries on the
// change channel always mean "re-read this"; there is no per-record diff.
func Snapshot(ctx context.Context, companyId int, feed string) (map[int]json.RawMessage, error) {
	rdb := config.GetRedisDB()
	if rdb == nil {
		return nil, ErrNotConnected
	}
	raw, err := rdb.HGetAll(ctx, FeedKey(companyId, feed)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[int]json.RawMessage, len(raw))
	for field, val := range raw {
		id, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		out[id] = json.RawMessage(val)
	}
	return out, nil
}

// SubscribeFeed opens a pub/sub subscription on one feed's change channel.
// Callers own the returned subscription and must Close it.
func SubscribeFeed(ctx context.Context, companyId int, feed string) (*redis.PubSub, error) {
	rdb := config.GetRedisDB()
	if rdb == nil {
		return nil, ErrNotConnected
	}
	return rdb.Subscribe(ctx, ChannelKey(companyId, feed)), nil
}

// NextReceiptNumber atomically allocates the next receipt sequence for a
// company. The payments webhook depends on this being a single counter
// transaction per company.
func NextReceiptNumber(ctx context.Context, companyId int) (int64, error) {
	rdb := config.GetRedisDB()
	if rdb == nil {
		return 0, ErrNotConnected
	}
	return rdb.Incr(ctx, receiptCounterKey(companyId)).Result()
}
