// internal/matching/service.go
package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/common/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrProfileNotFound = errors.New("PROFILE_NOT_FOUND")

// ProfileStore resolves profiles by id and lists the users still looking for a team.
type ProfileStore interface {
	GetUser(ctx context.Context, userID string) (*User, error)
	GetTeam(ctx context.Context, teamID string) (*Team, error)
	ListAvailableUsers(ctx context.Context, eventID string, limit int) ([]User, error)
}

// TeamSource lists teams that are still recruiting, optionally scoped to an event.
type TeamSource interface {
	ListOpenTeams(ctx context.Context, eventID string, limit int) ([]Team, error)
}

// ResultCache stores whole match responses. Get returns (nil, nil) on a miss.
type ResultCache interface {
	Get(ctx context.Context, key string) (*MatchResponse, error)
	Set(ctx context.Context, key string, resp *MatchResponse, ttl time.Duration) error
}

// ScoreLedger persists computed scores, upserting on the (user, team) pair.
type ScoreLedger interface {
	SaveScore(ctx context.Context, rec ScoreRecord) error
}

// CacheInvalidator is implemented by caches that can drop every entry for one profile.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, kind, id string) (int, error)
}

type ScoreRecord struct {
	UserID  string
	TeamID  string
	Score   float64
	Reasons []string
}

type MatchResponse struct {
	RequestID  string        `json:"request_id"`
	Matches    []MatchResult `json:"matches"`
	TotalCount int           `json:"total_count"`
	Timestamp  string        `json:"timestamp"`
	Cached     bool          `json:"cached"`
}

type UserMatchRequest struct {
	UserID    string   `json:"user_id"`
	EventID   string   `json:"event_id,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	SkipCache bool     `json:"skip_cache,omitempty"`
}

type TeamMatchRequest struct {
	TeamID    string   `json:"team_id"`
	EventID   string   `json:"event_id,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	SkipCache bool     `json:"skip_cache,omitempty"`
}

type ServiceConfig struct {
	CacheTTL       time.Duration
	CandidateLimit int
	// Tracer opens the request spans. Nil uses the global provider.
	Tracer trace.Tracer
}

// Service wires the Matcher to its collaborators: cache lookup, profile fetch, scoring,
// ledger writes and cache fill. Cache and ledger failures are logged, never returned.
type Service struct {
	matcher *Matcher
	store   ProfileStore
	teams   TeamSource
	cache   ResultCache
	ledger  ScoreLedger
	config  *ServiceConfig
	logger  logger.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

func NewService(matcher *Matcher, store ProfileStore, teams TeamSource, cache ResultCache, ledger ScoreLedger, config *ServiceConfig, log logger.Logger) *Service {
	cfg := ServiceConfig{CacheTTL: 30 * time.Minute}
	if config != nil {
		cfg = *config
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 100
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("matchmaking-workers/matching")
	}
	return &Service{
		matcher: matcher,
		store:   store,
		teams:   teams,
		cache:   cache,
		ledger:  ledger,
		config:  &cfg,
		logger:  log.WithFields(map[string]interface{}{"component": "matching-service"}),
		tracer:  tracer,
		now:     time.Now,
	}
}

func (s *Service) Matcher() *Matcher { return s.matcher }

// RecommendTeams returns the best open teams for a user.
func (s *Service) RecommendTeams(ctx context.Context, req UserMatchRequest) (resp *MatchResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "matching.RecommendTeams", trace.WithAttributes(
		attribute.String("user.id", req.UserID),
		attribute.String("event.id", req.EventID),
	))
	defer endSpan(span, &err)
	start := time.Now()

	key := CacheKey("user", req.UserID, req.EventID, req.Threshold, req.Limit)
	if cached := s.cached(ctx, key, req.SkipCache); cached != nil {
		metrics.MatchRequests.WithLabelValues(DirectionUserToTeams, "cache").Inc()
		return cached, nil
	}

	user, err := s.store.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", req.UserID, err)
	}
	teams, err := s.teams.ListOpenTeams(ctx, req.EventID, s.config.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("list open teams: %w", err)
	}

	matches, err := s.matcher.MatchUserToTeams(ctx, *user, teams, Options{Threshold: req.Threshold, Limit: req.Limit})
	if err != nil {
		return nil, err
	}

	for _, m := range matches {
		s.record(ctx, ScoreRecord{UserID: user.ID, TeamID: m.ID, Score: m.Score, Reasons: m.Reasons})
	}

	resp = s.respond(matches)
	s.fillCache(ctx, key, resp)

	metrics.MatchRequests.WithLabelValues(DirectionUserToTeams, "computed").Inc()
	metrics.MatchDuration.WithLabelValues(DirectionUserToTeams).Observe(time.Since(start).Seconds())
	s.logger.Info("teams recommended", map[string]interface{}{
		"userId":     req.UserID,
		"eventId":    req.EventID,
		"candidates": len(teams),
		"matches":    len(matches),
	})
	return resp, nil
}

// RecommendUsers returns the best available users for a team.
func (s *Service) RecommendUsers(ctx context.Context, req TeamMatchRequest) (resp *MatchResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "matching.RecommendUsers", trace.WithAttributes(
		attribute.String("team.id", req.TeamID),
		attribute.String("event.id", req.EventID),
	))
	defer endSpan(span, &err)
	start := time.Now()

	key := CacheKey("team", req.TeamID, req.EventID, req.Threshold, req.Limit)
	if cached := s.cached(ctx, key, req.SkipCache); cached != nil {
		metrics.MatchRequests.WithLabelValues(DirectionTeamToUsers, "cache").Inc()
		return cached, nil
	}

	team, err := s.store.GetTeam(ctx, req.TeamID)
	if err != nil {
		return nil, fmt.Errorf("get team %s: %w", req.TeamID, err)
	}
	eventID := req.EventID
	if eventID == "" {
		eventID = team.EventID
	}
	users, err := s.store.ListAvailableUsers(ctx, eventID, s.config.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("list available users: %w", err)
	}

	matches, err := s.matcher.MatchTeamToUsers(ctx, *team, users, Options{Threshold: req.Threshold, Limit: req.Limit})
	if err != nil {
		return nil, err
	}

	for _, m := range matches {
		s.record(ctx, ScoreRecord{UserID: m.ID, TeamID: team.ID, Score: m.Score, Reasons: m.Reasons})
	}

	resp = s.respond(matches)
	s.fillCache(ctx, key, resp)

	metrics.MatchRequests.WithLabelValues(DirectionTeamToUsers, "computed").Inc()
	metrics.MatchDuration.WithLabelValues(DirectionTeamToUsers).Observe(time.Since(start).Seconds())
	s.logger.Info("users recommended", map[string]interface{}{
		"teamId":     req.TeamID,
		"eventId":    eventID,
		"candidates": len(users),
		"matches":    len(matches),
	})
	return resp, nil
}

// Compatibility scores one stored user against one stored team and records the result.
func (s *Service) Compatibility(ctx context.Context, userID, teamID string) (result *MatchResult, err error) {
	ctx, span := s.tracer.Start(ctx, "matching.Compatibility", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("team.id", teamID),
	))
	defer endSpan(span, &err)

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("get team %s: %w", teamID, err)
	}

	result, err = s.matcher.Compatibility(ctx, *user, *team)
	if err != nil {
		return nil, err
	}
	s.record(ctx, ScoreRecord{UserID: user.ID, TeamID: team.ID, Score: result.Score, Reasons: result.Reasons})
	return result, nil
}

// InvalidateCache drops the cached recommendations of a user ("user") or team ("team") after its profile changed.
func (s *Service) InvalidateCache(ctx context.Context, kind, id string) (int, error) {
	inv, ok := s.cache.(CacheInvalidator)
	if !ok {
		return 0, nil
	}
	removed, err := inv.Invalidate(ctx, kind, id)
	if err != nil {
		return removed, fmt.Errorf("invalidate %s %s: %w", kind, id, err)
	}
	s.logger.Info("match cache invalidated", map[string]interface{}{
		"kind":    kind,
		"id":      id,
		"removed": removed,
	})
	return removed, nil
}

func (s *Service) cached(ctx context.Context, key string, skip bool) *MatchResponse {
	if s.cache == nil || skip {
		return nil
	}
	resp, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("match cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		return nil
	}
	if resp == nil {
		return nil
	}
	resp.Cached = true
	s.logger.Debug("match cache hit", map[string]interface{}{"key": key})
	return resp
}

func (s *Service) fillCache(ctx context.Context, key string, resp *MatchResponse) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, resp, s.config.CacheTTL); err != nil {
		s.logger.Warn("match cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func (s *Service) record(ctx context.Context, rec ScoreRecord) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.SaveScore(ctx, rec); err != nil {
		metrics.LedgerWriteFailures.Inc()
		s.logger.Warn("score ledger write failed", map[string]interface{}{
			"userId": rec.UserID,
			"teamId": rec.TeamID,
			"error":  err.Error(),
		})
	}
}

func (s *Service) respond(matches []MatchResult) *MatchResponse {
	if matches == nil {
		matches = []MatchResult{}
	}
	return &MatchResponse{
		RequestID:  uuid.NewString(),
		Matches:    matches,
		TotalCount: len(matches),
		Timestamp:  s.now().UTC().Format(time.RFC3339),
	}
}

// CacheKey builds e.g. "matches:user:u1:event:all"; per-request overrides get their own suffix.
func CacheKey(kind, id, eventID string, threshold *float64, limit int) string {
	if eventID == "" {
		eventID = "all"
	}
	key := fmt.Sprintf("matches:%s:%s:event:%s", kind, id, eventID)
	if threshold != nil {
		key += fmt.Sprintf(":t%.3f", *threshold)
	}
	if limit > 0 {
		key += fmt.Sprintf(":n%d", limit)
	}
	return key
}

func endSpan(span trace.Span, err *error) {
	if *err != nil {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}
