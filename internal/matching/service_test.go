package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"matchmaking-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Doubles
// ==========================

type memoryStore struct {
	users     map[string]User
	teams     map[string]Team
	userCalls int
	lastEvent string
}

func (s *memoryStore) GetUser(_ context.Context, id string) (*User, error) {
	s.userCalls++
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrProfileNotFound)
	}
	return &u, nil
}

func (s *memoryStore) GetTeam(_ context.Context, id string) (*Team, error) {
	t, ok := s.teams[id]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", id, ErrProfileNotFound)
	}
	return &t, nil
}

func (s *memoryStore) ListAvailableUsers(_ context.Context, eventID string, _ int) ([]User, error) {
	s.lastEvent = eventID
	out := make([]User, 0, len(s.users))
	for _, id := range sortedKeys(s.users) {
		out = append(out, s.users[id])
	}
	return out, nil
}

func (s *memoryStore) ListOpenTeams(_ context.Context, eventID string, _ int) ([]Team, error) {
	s.lastEvent = eventID
	out := make([]Team, 0, len(s.teams))
	for _, id := range sortedKeys(s.teams) {
		if t := s.teams[id]; t.SpotsLeft() > 0 {
			out = append(out, t)
		}
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*MatchResponse
	ttls    map[string]time.Duration
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]*MatchResponse{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (*MatchResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, errors.New("redis down")
	}
	resp, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	cp := *resp
	return &cp, nil
}

func (c *memoryCache) Set(_ context.Context, key string, resp *MatchResponse, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *resp
	c.entries[key] = &cp
	c.ttls[key] = ttl
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, kind, id string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := fmt.Sprintf("matches:%s:%s:", kind, id)
	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed, nil
}

type recordingLedger struct {
	records []ScoreRecord
	err     error
}

func (l *recordingLedger) SaveScore(_ context.Context, rec ScoreRecord) error {
	if l.err != nil {
		return l.err
	}
	l.records = append(l.records, rec)
	return nil
}

func newTestService(t *testing.T, store *memoryStore, cache ResultCache, ledger ScoreLedger) *Service {
	t.Helper()
	m := newTestMatcher(t, NewTFIDFEngine(DefaultMaxFeatures), nil)
	return NewService(m, store, store, cache, ledger, &ServiceConfig{CacheTTL: 30 * time.Minute}, logger.NewTestLogger(t))
}

func seededStore() *memoryStore {
	full := scenarioTeam()
	full.ID = "team-full"
	full.CurrentMembers = 4

	return &memoryStore{
		users: map[string]User{"user-1": scenarioUser()},
		teams: map[string]Team{"team-1": scenarioTeam(), "team-full": full},
	}
}

// ==========================
// Service Tests
// ==========================

func TestService_RecommendTeams_ComputesRecordsAndCaches(t *testing.T) {
	store := seededStore()
	cache := newMemoryCache()
	ledger := &recordingLedger{}
	svc := newTestService(t, store, cache, ledger)

	resp, err := svc.RecommendTeams(context.Background(), UserMatchRequest{UserID: "user-1"})
	require.NoError(t, err)

	assert.False(t, resp.Cached)
	assert.NotEmpty(t, resp.RequestID)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "team-1", resp.Matches[0].ID)
	assert.Equal(t, 1, resp.TotalCount)

	require.Len(t, ledger.records, 1)
	assert.Equal(t, ScoreRecord{
		UserID:  "user-1",
		TeamID:  "team-1",
		Score:   resp.Matches[0].Score,
		Reasons: resp.Matches[0].Reasons,
	}, ledger.records[0])

	key := "matches:user:user-1:event:all"
	assert.Contains(t, cache.entries, key)
	assert.Equal(t, 30*time.Minute, cache.ttls[key])
}

func TestService_RecommendTeams_ServesFromCache(t *testing.T) {
	store := seededStore()
	cache := newMemoryCache()
	svc := newTestService(t, store, cache, &recordingLedger{})

	first, err := svc.RecommendTeams(context.Background(), UserMatchRequest{UserID: "user-1", EventID: "hack-42"})
	require.NoError(t, err)
	second, err := svc.RecommendTeams(context.Background(), UserMatchRequest{UserID: "user-1", EventID: "hack-42"})
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.RequestID, second.RequestID)
	assert.Equal(t, first.Matches, second.Matches)
	assert.Equal(t, 1, store.userCalls, "cache hit must not touch the store")
	assert.Equal(t, "hack-42", store.lastEvent)

	_, err = svc.RecommendTeams(context.Background(), UserMatchRequest{UserID: "user-1", EventID: "hack-42", SkipCache: true})
	require.NoError(t, err)
	assert.Equal(t, 2, store.userCalls)
}

func TestService_CacheAndLedgerFailuresAreNotFatal(t *testing.T) {
	cache := newMemoryCache()
	cache.failGet = true
	ledger := &recordingLedger{err: errors.New("connection refused")}
	svc := newTestService(t, seededStore(), cache, ledger)

	resp, err := svc.RecommendTeams(context.Background(), UserMatchRequest{UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, resp.Matches, 1)
}

func TestService_NotFound(t *testing.T) {
	svc := newTestService(t, seededStore(), nil, nil)

	_, err := svc.RecommendTeams(context.Background(), UserMatchRequest{UserID: "ghost"})
	assert.ErrorIs(t, err, ErrProfileNotFound)

	_, err = svc.RecommendUsers(context.Background(), TeamMatchRequest{TeamID: "ghost"})
	assert.ErrorIs(t, err, ErrProfileNotFound)

	_, err = svc.Compatibility(context.Background(), "user-1", "ghost")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestService_RecommendUsers_UsesTeamEvent(t *testing.T) {
	store := seededStore()
	team := store.teams["team-1"]
	team.EventID = "hack-7"
	store.teams["team-1"] = team
	ledger := &recordingLedger{}
	svc := newTestService(t, store, newMemoryCache(), ledger)

	resp, err := svc.RecommendUsers(context.Background(), TeamMatchRequest{TeamID: "team-1"})
	require.NoError(t, err)

	assert.Equal(t, "hack-7", store.lastEvent)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "user-1", resp.Matches[0].ID)
	require.Len(t, ledger.records, 1)
	assert.Equal(t, "team-1", ledger.records[0].TeamID)
}

func TestService_Compatibility_RecordsPair(t *testing.T) {
	ledger := &recordingLedger{}
	svc := newTestService(t, seededStore(), nil, ledger)

	result, err := svc.Compatibility(context.Background(), "user-1", "team-full")
	require.NoError(t, err)

	assert.Equal(t, "team-full", result.ID)
	require.Len(t, ledger.records, 1)
	assert.Equal(t, result.Score, ledger.records[0].Score)
}

func TestService_InvalidateCache(t *testing.T) {
	cache := newMemoryCache()
	svc := newTestService(t, seededStore(), cache, nil)

	_, err := svc.RecommendTeams(context.Background(), UserMatchRequest{UserID: "user-1"})
	require.NoError(t, err)
	_, err = svc.RecommendTeams(context.Background(), UserMatchRequest{UserID: "user-1", EventID: "hack-42"})
	require.NoError(t, err)
	require.Len(t, cache.entries, 2)

	removed, err := svc.InvalidateCache(context.Background(), "user", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Empty(t, cache.entries)

	plain := newTestService(t, seededStore(), nil, nil)
	removed, err = plain.InvalidateCache(context.Background(), "user", "user-1")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestCacheKey(t *testing.T) {
	threshold := 0.7

	assert.Equal(t, "matches:user:u1:event:all", CacheKey("user", "u1", "", nil, 0))
	assert.Equal(t, "matches:team:t1:event:e9", CacheKey("team", "t1", "e9", nil, 0))
	assert.Equal(t, "matches:user:u1:event:all:t0.700:n5", CacheKey("user", "u1", "", &threshold, 5))
}
