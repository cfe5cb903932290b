package directory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/founddesk/be-lf-workrequests/internal/routing"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type fakeStore struct {
	approvers []routing.Approver
	listCalls int
}

func (s *fakeStore) ListApprovers(context.Context) ([]routing.Approver, error) {
	s.listCalls++
	return s.approvers, nil
}

func (s *fakeStore) GetApprover(_ context.Context, id string) (*routing.Approver, error) {
	for _, a := range s.approvers {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("approver %s not found", id)
}

func (s *fakeStore) CreateApprover(_ context.Context, input NewApprover) (*routing.Approver, error) {
	a := routing.Approver{
		ID:    fmt.Sprintf("u-%d", len(s.approvers)+1),
		Name:  input.Name,
		Role:  routing.Role(input.Role),
		OrgID: input.OrgID,
	}
	s.approvers = append(s.approvers, a)
	return &a, nil
}

func (s *fakeStore) SetActive(context.Context, string, bool) error { return nil }

// fakeRedis is an in-memory stand-in for the narrow go-redis surface the
// cache uses.
type fakeRedis struct {
	values map[string][]byte
	down   bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string][]byte)}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.down {
		return redis.NewStringResult("", fmt.Errorf("connection refused"))
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	if f.down {
		return redis.NewStatusResult("", fmt.Errorf("connection refused"))
	}
	f.values[key] = value.([]byte)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.down {
		return redis.NewIntResult(0, fmt.Errorf("connection refused"))
	}
	for _, k := range keys {
		delete(f.values, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func seedApprovers() []routing.Approver {
	return []routing.Approver{
		{ID: "u-1", Name: "Ada", Role: routing.RoleBuildingAdmin},
		{ID: "u-2", Name: "Grace", Role: routing.RoleOrgAdmin},
	}
}

func TestListApproversReadsThroughOnce(t *testing.T) {
	store := &fakeStore{approvers: seedApprovers()}
	dir := NewCachedDirectory(store, newFakeRedis(), time.Minute, zerolog.Nop())

	first, err := dir.ListApprovers(context.Background())
	require.NoError(t, err)
	second, err := dir.ListApprovers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.listCalls, "second lookup within TTL must be served from cache")
}

func TestWriteInvalidatesCache(t *testing.T) {
	store := &fakeStore{approvers: seedApprovers()}
	dir := NewCachedDirectory(store, newFakeRedis(), time.Minute, zerolog.Nop())

	_, err := dir.ListApprovers(context.Background())
	require.NoError(t, err)

	_, err = dir.CreateApprover(context.Background(), NewApprover{Name: "Edsger", Role: "POLICE_LIAISON"})
	require.NoError(t, err)

	approvers, err := dir.ListApprovers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, store.listCalls, "write must invalidate the cached set")
	assert.Len(t, approvers, 3)
}

func TestSetActiveInvalidatesCache(t *testing.T) {
	store := &fakeStore{approvers: seedApprovers()}
	dir := NewCachedDirectory(store, newFakeRedis(), time.Minute, zerolog.Nop())

	_, err := dir.ListApprovers(context.Background())
	require.NoError(t, err)
	require.NoError(t, dir.SetActive(context.Background(), "u-1", false))

	_, err = dir.ListApprovers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls)
}

func TestCacheFailureDegradesToStore(t *testing.T) {
	store := &fakeStore{approvers: seedApprovers()}
	rdb := newFakeRedis()
	rdb.down = true
	dir := NewCachedDirectory(store, rdb, time.Minute, zerolog.Nop())

	approvers, err := dir.ListApprovers(context.Background())
	require.NoError(t, err, "a dead cache must not fail the lookup")
	assert.Len(t, approvers, 2)

	_, err = dir.ListApprovers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls, "every lookup falls through while the cache is down")
}

func TestNilClientDisablesCaching(t *testing.T) {
	store := &fakeStore{approvers: seedApprovers()}
	dir := NewCachedDirectory(store, nil, time.Minute, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := dir.ListApprovers(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, store.listCalls)
}
