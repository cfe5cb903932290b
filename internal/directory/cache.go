package directory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/founddesk/be-lf-workrequests/internal/routing"
)

// cacheKey holds the serialized active-approver set.
const cacheKey = "lf:approvers:all"

// ApproverStore is the directory backend the cache fronts.
type ApproverStore interface {
	ListApprovers(ctx context.Context) ([]routing.Approver, error)
	GetApprover(ctx context.Context, id string) (*routing.Approver, error)
	CreateApprover(ctx context.Context, input NewApprover) (*routing.Approver, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// redisCmd is the slice of the go-redis API the cache uses; narrowed so
// tests can substitute an in-memory implementation.
type redisCmd interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedDirectory fronts an ApproverStore with a Redis read-through cache
// so the engine's per-routing directory lookup stays off the database.
// Cache failures degrade to the store: a lookup never fails because Redis
// is down. Directory writes pass through and invalidate the cached set.
type CachedDirectory struct {
	store ApproverStore
	rdb   redisCmd
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachedDirectory wraps store with a Redis cache. A nil client disables
// caching entirely; every read goes to the store.
func NewCachedDirectory(store ApproverStore, rdb redisCmd, ttl time.Duration, log zerolog.Logger) *CachedDirectory {
	return &CachedDirectory{store: store, rdb: rdb, ttl: ttl, log: log}
}

// ListApprovers returns the cached approver set, filling the cache from
// the store on a miss.
func (d *CachedDirectory) ListApprovers(ctx context.Context) ([]routing.Approver, error) {
	if d.rdb != nil {
		data, err := d.rdb.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var approvers []routing.Approver
			unmarshalErr := json.Unmarshal(data, &approvers)
			if unmarshalErr == nil {
				return approvers, nil
			}
			d.log.Warn().Err(unmarshalErr).Msg("directory cache: discarding unreadable entry")
		} else if err != redis.Nil {
			d.log.Warn().Err(err).Msg("directory cache: read failed, falling back to store")
		}
	}

	approvers, err := d.store.ListApprovers(ctx)
	if err != nil {
		return nil, err
	}

	if d.rdb != nil {
		data, err := json.Marshal(approvers)
		if err == nil {
			if err := d.rdb.Set(ctx, cacheKey, data, d.ttl).Err(); err != nil {
				d.log.Warn().Err(err).Msg("directory cache: write failed")
			}
		}
	}

	return approvers, nil
}

// GetApprover reads one approver straight from the store; single-approver
// lookups are off the routing hot path.
func (d *CachedDirectory) GetApprover(ctx context.Context, id string) (*routing.Approver, error) {
	return d.store.GetApprover(ctx, id)
}

// CreateApprover registers an approver and invalidates the cached set.
func (d *CachedDirectory) CreateApprover(ctx context.Context, input NewApprover) (*routing.Approver, error) {
	approver, err := d.store.CreateApprover(ctx, input)
	if err != nil {
		return nil, err
	}
	d.invalidate(ctx)
	return approver, nil
}

// SetActive toggles an approver's visibility and invalidates the cached set.
func (d *CachedDirectory) SetActive(ctx context.Context, id string, active bool) error {
	if err := d.store.SetActive(ctx, id, active); err != nil {
		return err
	}
	d.invalidate(ctx)
	return nil
}

func (d *CachedDirectory) invalidate(ctx context.Context) {
	if d.rdb == nil {
		return
	}
	if err := d.rdb.Del(ctx, cacheKey).Err(); err != nil {
		d.log.Warn().Err(err).Msg("directory cache: invalidation failed; entry expires by TTL")
	}
}
