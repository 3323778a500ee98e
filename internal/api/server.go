// Package api exposes the matching service and the team-health reports over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/matching"
)

// MatchService is the part of matching.Service the API drives.
type MatchService interface {
	RecommendTeams(ctx context.Context, req matching.UserMatchRequest) (*matching.MatchResponse, error)
	RecommendUsers(ctx context.Context, req matching.TeamMatchRequest) (*matching.MatchResponse, error)
	Compatibility(ctx context.Context, userID, teamID string) (*matching.MatchResult, error)
	InvalidateCache(ctx context.Context, kind, id string) (int, error)
}

// ReadinessChecker reports per-dependency status; database.Health implements it.
type ReadinessChecker interface {
	Run(ctx context.Context) (map[string]string, bool)
}

// ScoreRecorder receives the scores of every served match response.
type ScoreRecorder interface {
	RecordMatchScores(ctx context.Context, direction string, scores ...float64)
}

type Config struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
}

type Server struct {
	config    Config
	matches   MatchService
	readiness ReadinessChecker
	scores    ScoreRecorder
	logger    logger.Logger
	now       func() time.Time
}

// NewServer builds the API. readiness and scores may be nil.
func NewServer(config Config, matches MatchService, readiness ReadinessChecker, scores ScoreRecorder, log logger.Logger) *Server {
	if config.ServiceName == "" {
		config.ServiceName = "matchmaking-service"
	}
	return &Server{
		config:    config,
		matches:   matches,
		readiness: readiness,
		scores:    scores,
		logger:    log.WithFields(map[string]interface{}{"component": "http-api"}),
		now:       time.Now,
	}
}

// Router wires middleware and every route onto a fresh gin engine.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestContext(), s.corsMiddleware())

	router.GET("/health", s.health)
	router.GET("/ready", s.ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	match := router.Group("/api/match")
	{
		match.POST("/user-to-teams", s.matchUserToTeams)
		match.POST("/team-to-users", s.matchTeamToUsers)
		match.GET("/recommendations/:user_id", s.recommendations)
		match.POST("/calculate-compatibility", s.calculateCompatibility)
		match.DELETE("/cache/:kind/:id", s.invalidateCache)
	}

	analyze := router.Group("/api/analyze")
	{
		analyze.POST("/skills", s.analyzeSkills)
		analyze.POST("/radar", s.analyzeRadar)
	}
	return router
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, requestIDHeader)
	cfg.ExposeHeaders = []string{requestIDHeader}
	if len(s.config.AllowedOrigins) == 0 || containsWildcard(s.config.AllowedOrigins) {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.config.AllowedOrigins
	}
	return cors.New(cfg)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   s.config.ServiceName,
		"version":   s.config.Version,
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) ready(c *gin.Context) {
	if s.readiness == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": gin.H{}})
		return
	}
	checks, ok := s.readiness.Run(c.Request.Context())
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}
