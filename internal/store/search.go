// internal/store/search.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	apperrors "matchmaking-workers/internal/common/errors"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/matching"
)

// teamDocument is the indexed shape of a team. spots_left is precomputed so the
// open-seat filter stays a plain range query.
type teamDocument struct {
	matching.Team
	LookingForMembers bool      `json:"looking_for_members"`
	SpotsLeft         int       `json:"spots_left"`
	IndexedAt         time.Time `json:"indexed_at"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string       `json:"_id"`
			Source teamDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// ElasticsearchTeamSearch serves open-team candidates from the search index
// instead of Postgres when matching.candidate_source is elasticsearch.
type ElasticsearchTeamSearch struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewElasticsearchTeamSearch(client *elasticsearch.Client, index string, log logger.Logger) *ElasticsearchTeamSearch {
	if index == "" {
		index = "teams"
	}
	return &ElasticsearchTeamSearch{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "team-search", "index": index}),
	}
}

func buildOpenTeamsQuery(eventID string, limit int) map[string]interface{} {
	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"looking_for_members": true}},
		map[string]interface{}{"range": map[string]interface{}{"spots_left": map[string]interface{}{"gt": 0}}},
	}
	if eventID != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"event_id": eventID},
		})
	}
	return map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": filters},
		},
		"sort": []interface{}{
			map[string]interface{}{"indexed_at": map[string]interface{}{"order": "desc"}},
		},
	}
}

func (s *ElasticsearchTeamSearch) ListOpenTeams(ctx context.Context, eventID string, limit int) ([]matching.Team, error) {
	body, err := json.Marshal(buildOpenTeamsQuery(eventID, limit))
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(s.index, err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("search returned %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("decode response: %w", err))
	}

	teams := make([]matching.Team, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		team := hit.Source.Team
		if team.ID == "" {
			team.ID = hit.ID
		}
		teams = append(teams, team)
	}

	s.logger.Debug("searched open teams", map[string]interface{}{
		"eventId": eventID,
		"count":   len(teams),
	})
	return teams, nil
}

// IndexTeams writes the given teams into the search index, keyed by team id.
func (s *ElasticsearchTeamSearch) IndexTeams(ctx context.Context, teams []matching.Team) (int, error) {
	indexed := 0
	for _, team := range teams {
		doc := teamDocument{
			Team:              team,
			LookingForMembers: team.SpotsLeft() > 0,
			SpotsLeft:         team.SpotsLeft(),
			IndexedAt:         time.Now().UTC(),
		}
		payload, err := json.Marshal(doc)
		if err != nil {
			return indexed, apperrors.NewSearchQueryFailedError(s.index, err)
		}

		res, err := s.client.Index(
			s.index,
			strings.NewReader(string(payload)),
			s.client.Index.WithContext(ctx),
			s.client.Index.WithDocumentID(team.ID),
		)
		if err != nil {
			return indexed, apperrors.NewSearchQueryFailedError(s.index, err)
		}
		failed := res.IsError()
		status := res.Status()
		res.Body.Close()
		if failed {
			return indexed, apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("index team %s: %s", team.ID, status))
		}
		indexed++
	}
	return indexed, nil
}
