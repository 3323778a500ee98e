// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchmaking-workers/internal/api"
	"matchmaking-workers/internal/common/config"
	"matchmaking-workers/internal/common/database"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/matching"
	"matchmaking-workers/internal/store"
)

// Needs live Postgres and Redis on localhost: MATCHMAKING_E2E=1 go test ./test/e2e/...
func TestMain(m *testing.M) {
	if os.Getenv("MATCHMAKING_E2E") == "" {
		fmt.Println("MATCHMAKING_E2E not set, skipping e2e tests")
		os.Exit(0)
	}
	os.Exit(m.Run())
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT,
		experience_level TEXT,
		bio TEXT,
		preferred_role TEXT,
		looking_for_team BOOLEAN DEFAULT true,
		created_at TIMESTAMP DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS user_skills (user_id TEXT REFERENCES users(id) ON DELETE CASCADE, skill_name TEXT)`,
	`CREATE TABLE IF NOT EXISTS user_interests (user_id TEXT REFERENCES users(id) ON DELETE CASCADE, interest_category TEXT)`,
	`CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		project_idea TEXT,
		tech_stack TEXT[],
		domains TEXT[],
		experience_level TEXT,
		current_members INTEGER NOT NULL DEFAULT 1,
		max_members INTEGER NOT NULL DEFAULT 4,
		event_id TEXT,
		looking_for_members BOOLEAN DEFAULT true,
		created_at TIMESTAMP DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS open_roles (
		id SERIAL PRIMARY KEY,
		team_id TEXT REFERENCES teams(id) ON DELETE CASCADE,
		role_title TEXT,
		required_skills TEXT[],
		description TEXT,
		is_filled BOOLEAN DEFAULT false
	)`,
	`CREATE TABLE IF NOT EXISTS event_participants (user_id TEXT, event_id TEXT)`,
	`CREATE TABLE IF NOT EXISTS match_scores (
		user_id TEXT,
		team_id TEXT,
		compatibility_score DOUBLE PRECISION,
		match_reasons JSONB,
		calculated_at TIMESTAMP DEFAULT NOW(),
		PRIMARY KEY (user_id, team_id)
	)`,
}

type fixture struct {
	userID  string
	teamID  string
	eventID string
}

func TestMatchmakingE2E(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)

	// The stack publishes its ports on localhost.
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"

	db, err := database.NewPostgres(ctx, cfg.Database.Postgres)
	require.NoError(t, err, "PostgreSQL connection failed")
	defer db.Close()

	rdb, err := database.NewRedis(ctx, cfg.Database.Redis)
	require.NoError(t, err, "Redis connection failed")
	defer rdb.Close()

	createTables(t, db)
	fx := seed(t, db)
	defer cleanup(t, db, rdb, fx)

	log := logger.NewTestLogger(t)
	matcher, err := matching.NewMatcher(matching.NewTFIDFEngine(cfg.Matching.MaxFeatures), matching.DefaultConfig(), log)
	require.NoError(t, err)

	profiles := store.NewPostgresProfileStore(db, log)
	service := matching.NewService(matcher, profiles, profiles,
		store.NewRedisResultCache(rdb), store.NewPostgresScoreLedger(db),
		&matching.ServiceConfig{CacheTTL: time.Minute, CandidateLimit: 100}, log)

	t.Run("user to teams computes then caches", func(t *testing.T) {
		threshold := 0.0
		req := matching.UserMatchRequest{UserID: fx.userID, EventID: fx.eventID, Threshold: &threshold}

		first, err := service.RecommendTeams(ctx, req)
		require.NoError(t, err)
		assert.False(t, first.Cached)
		require.NotEmpty(t, first.Matches)
		assert.Equal(t, fx.teamID, first.Matches[0].ID)

		var score float64
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT compatibility_score FROM match_scores WHERE user_id = $1 AND team_id = $2`,
			fx.userID, fx.teamID).Scan(&score))
		assert.Equal(t, first.Matches[0].Score, score)

		second, err := service.RecommendTeams(ctx, req)
		require.NoError(t, err)
		assert.True(t, second.Cached)
		assert.Equal(t, first.RequestID, second.RequestID)

		deleted, err := service.InvalidateCache(ctx, "user", fx.userID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, deleted, 1)
	})

	t.Run("team to users", func(t *testing.T) {
		threshold := 0.0
		resp, err := service.RecommendUsers(ctx, matching.TeamMatchRequest{TeamID: fx.teamID, EventID: fx.eventID, Threshold: &threshold, SkipCache: true})
		require.NoError(t, err)
		require.NotEmpty(t, resp.Matches)
		assert.Equal(t, fx.userID, resp.Matches[0].ID)
	})

	t.Run("http api", func(t *testing.T) {
		server := httptest.NewServer(api.NewServer(api.Config{Version: "e2e"}, service, nil, nil, log).Router())
		defer server.Close()

		body, _ := json.Marshal(map[string]string{"user_id": fx.userID, "team_id": fx.teamID})
		res, err := http.Post(server.URL+"/api/match/calculate-compatibility", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		var out struct {
			Score   float64  `json:"score"`
			Reasons []string `json:"reasons"`
		}
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
		assert.Greater(t, out.Score, 0.0)
		assert.NotEmpty(t, out.Reasons)

		res, err = http.Post(server.URL+"/api/match/user-to-teams", "application/json",
			bytes.NewReader([]byte(`{"user_id":"missing-`+uuid.NewString()+`"}`)))
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

func createTables(t *testing.T, db *sql.DB) {
	t.Helper()
	for _, q := range schema {
		_, err := db.Exec(q)
		require.NoError(t, err, "creating table failed: %s", q)
	}
}

func seed(t *testing.T, db *sql.DB) fixture {
	t.Helper()
	suffix := uuid.NewString()[:8]
	fx := fixture{
		userID:  "e2e-user-" + suffix,
		teamID:  "e2e-team-" + suffix,
		eventID: "e2e-event-" + suffix,
	}

	stmts := []struct {
		query string
		args  []interface{}
	}{
		{`INSERT INTO users (id, name, experience_level, bio) VALUES ($1, 'E2E User', 'intermediate', 'Go developer who likes payments')`, []interface{}{fx.userID}},
		{`INSERT INTO user_skills (user_id, skill_name) VALUES ($1, 'Go'), ($1, 'PostgreSQL')`, []interface{}{fx.userID}},
		{`INSERT INTO user_interests (user_id, interest_category) VALUES ($1, 'fintech')`, []interface{}{fx.userID}},
		{`INSERT INTO event_participants (user_id, event_id) VALUES ($1, $2)`, []interface{}{fx.userID, fx.eventID}},
		{`INSERT INTO teams (id, name, description, tech_stack, domains, experience_level, current_members, max_members, event_id)
		  VALUES ($1, 'E2E Ledger', 'Payments ledger in Go', '{Go,PostgreSQL}', '{fintech}', 'intermediate', 2, 4, $2)`, []interface{}{fx.teamID, fx.eventID}},
		{`INSERT INTO open_roles (team_id, role_title, required_skills) VALUES ($1, 'Backend', '{Go,Kafka}')`, []interface{}{fx.teamID}},
	}
	for _, s := range stmts {
		_, err := db.Exec(s.query, s.args...)
		require.NoError(t, err, "seeding failed: %s", s.query)
	}
	return fx
}

func cleanup(t *testing.T, db *sql.DB, rdb *redis.Client, fx fixture) {
	t.Helper()
	ctx := context.Background()
	for _, q := range []string{
		`DELETE FROM match_scores WHERE user_id = $1`,
		`DELETE FROM event_participants WHERE user_id = $1`,
		`DELETE FROM users WHERE id = $1`,
	} {
		if _, err := db.ExecContext(ctx, q, fx.userID); err != nil {
			t.Logf("cleanup failed: %v", err)
		}
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, fx.teamID); err != nil {
		t.Logf("cleanup failed: %v", err)
	}
	cache := store.NewRedisResultCache(rdb)
	_, _ = cache.Invalidate(ctx, "user", fx.userID)
	_, _ = cache.Invalidate(ctx, "team", fx.teamID)
}
