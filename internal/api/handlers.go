package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"matchmaking-workers/internal/analysis"
	apperrors "matchmaking-workers/internal/common/errors"
	"matchmaking-workers/internal/common/validation"
	"matchmaking-workers/internal/matching"
)

type compatibilityRequest struct {
	UserID string `json:"user_id"`
	TeamID string `json:"team_id"`
}

type compatibilityResponse struct {
	UserID    string             `json:"user_id"`
	TeamID    string             `json:"team_id"`
	Score     float64            `json:"score"`
	Reasons   []string           `json:"reasons"`
	Breakdown matching.SubScores `json:"breakdown"`
}

type radarRequest struct {
	TeamID   string   `json:"team_id,omitempty"`
	Messages []string `json:"messages"`
}

type radarResponse struct {
	TeamID string `json:"team_id,omitempty"`
	analysis.RadarReport
	NeedsMentor bool `json:"needs_mentor"`
}

func (s *Server) matchUserToTeams(c *gin.Context) {
	var req matching.UserMatchRequest
	if !s.bind(c, validation.SchemaUserToTeams, &req) {
		return
	}
	s.serveUserToTeams(c, req)
}

func (s *Server) recommendations(c *gin.Context) {
	req := matching.UserMatchRequest{
		UserID:  c.Param("user_id"),
		EventID: c.Query("event_id"),
	}
	if raw := c.Query("threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil || threshold < 0 || threshold > 1 {
			s.writeError(c, apperrors.NewInvalidMatchRequestError(fmt.Sprintf("threshold: %q is not a number in [0,1]", raw)))
			return
		}
		req.Threshold = &threshold
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			s.writeError(c, apperrors.NewInvalidMatchRequestError(fmt.Sprintf("limit: %q is not an integer in [1,100]", raw)))
			return
		}
		req.Limit = limit
	}
	s.serveUserToTeams(c, req)
}

func (s *Server) serveUserToTeams(c *gin.Context, req matching.UserMatchRequest) {
	resp, err := s.matches.RecommendTeams(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.recordScores(c, "user_to_teams", resp)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) matchTeamToUsers(c *gin.Context) {
	var req matching.TeamMatchRequest
	if !s.bind(c, validation.SchemaTeamToUsers, &req) {
		return
	}
	resp, err := s.matches.RecommendUsers(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.recordScores(c, "team_to_users", resp)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) calculateCompatibility(c *gin.Context) {
	var req compatibilityRequest
	if !s.bind(c, validation.SchemaCompatibility, &req) {
		return
	}
	result, err := s.matches.Compatibility(c.Request.Context(), req.UserID, req.TeamID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	reasons := result.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	c.JSON(http.StatusOK, compatibilityResponse{
		UserID:    req.UserID,
		TeamID:    req.TeamID,
		Score:     result.Score,
		Reasons:   reasons,
		Breakdown: result.Breakdown,
	})
}

func (s *Server) invalidateCache(c *gin.Context) {
	kind, id := c.Param("kind"), c.Param("id")
	if kind != "user" && kind != "team" {
		s.writeError(c, apperrors.NewInvalidMatchRequestError(fmt.Sprintf("kind: must be user or team, got %q", kind)))
		return
	}
	deleted, err := s.matches.InvalidateCache(c.Request.Context(), kind, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "id": id, "deleted": deleted})
}

func (s *Server) analyzeSkills(c *gin.Context) {
	var req analysis.SkillGapRequest
	if !s.bind(c, validation.SchemaSkillGaps, &req) {
		return
	}
	c.JSON(http.StatusOK, analysis.AnalyzeSkillGaps(req.CurrentSkills, req.RequiredSkills))
}

func (s *Server) analyzeRadar(c *gin.Context) {
	var req radarRequest
	if !s.bind(c, validation.SchemaTeamRadar, &req) {
		return
	}
	report := analysis.AnalyzeTeamStatus(req.Messages)
	if report.Status == analysis.RadarNeedsMentor {
		s.logger.Warn("team flagged for mentor", map[string]interface{}{
			"teamId":        req.TeamID,
			"struggleScore": report.StruggleScore,
		})
	}
	c.JSON(http.StatusOK, radarResponse{
		TeamID:      req.TeamID,
		RadarReport: report,
		NeedsMentor: report.Status == analysis.RadarNeedsMentor,
	})
}

// bind validates the raw body against a named schema before decoding it into dst.
// On failure the error response is already written.
func (s *Server) bind(c *gin.Context, schema validation.SchemaName, dst interface{}) bool {
	body, err := c.GetRawData()
	if err != nil {
		s.writeError(c, apperrors.NewInvalidMatchRequestError(fmt.Sprintf("read body: %v", err)))
		return false
	}
	result, err := validation.Validate(schema, body)
	if err != nil {
		s.writeError(c, apperrors.NewInternalError(err))
		return false
	}
	if !result.Valid {
		stdErr := apperrors.NewInvalidMatchRequestError(result.Summary())
		stdErr.Metadata = map[string]interface{}{"errors": result.Errors}
		s.writeError(c, stdErr)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		s.writeError(c, apperrors.NewInvalidMatchRequestError(fmt.Sprintf("decode body: %v", err)))
		return false
	}
	return true
}

func (s *Server) writeError(c *gin.Context, err error) {
	stdErr := matching.ToStandardError(err)
	status := apperrors.HTTPStatus(stdErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request error", map[string]interface{}{
			"requestId": c.GetString(requestIDKey),
			"code":      stdErr.Code,
			"details":   stdErr.Details,
		})
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":      stdErr,
		"request_id": c.GetString(requestIDKey),
	})
}

func (s *Server) recordScores(c *gin.Context, direction string, resp *matching.MatchResponse) {
	if s.scores == nil || resp == nil || resp.Cached {
		return
	}
	scores := make([]float64, len(resp.Matches))
	for i, m := range resp.Matches {
		scores[i] = m.Score
	}
	s.scores.RecordMatchScores(c.Request.Context(), direction, scores...)
}
