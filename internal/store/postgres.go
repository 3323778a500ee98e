// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	apperrors "matchmaking-workers/internal/common/errors"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/matching"
)

const userColumns = `
		SELECT u.id, COALESCE(u.name, ''), COALESCE(u.experience_level, 'beginner'),
		       COALESCE(u.bio, ''), COALESCE(u.preferred_role, ''),
		       ARRAY(SELECT s.skill_name FROM user_skills s WHERE s.user_id = u.id ORDER BY s.skill_name),
		       ARRAY(SELECT i.interest_category FROM user_interests i WHERE i.user_id = u.id ORDER BY i.interest_category)
		FROM users u`

const teamColumns = `
		SELECT t.id, t.name, COALESCE(t.description, ''), COALESCE(t.project_idea, ''),
		       COALESCE(t.tech_stack, '{}'), COALESCE(t.domains, '{}'),
		       COALESCE(t.experience_level, ''), t.current_members, t.max_members,
		       COALESCE(t.event_id::text, ''),
		       COALESCE((SELECT json_agg(json_build_object(
		                   'title', r.role_title,
		                   'required_skills', COALESCE(r.required_skills, '{}'),
		                   'description', COALESCE(r.description, '')) ORDER BY r.role_title)
		                 FROM open_roles r
		                 WHERE r.team_id = t.id AND r.is_filled = false), '[]')
		FROM teams t`

// PostgresProfileStore reads user and team profiles from the platform database.
type PostgresProfileStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresProfileStore(db *sql.DB, log logger.Logger) *PostgresProfileStore {
	return &PostgresProfileStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "profile-store"}),
	}
}

func (s *PostgresProfileStore) GetUser(ctx context.Context, userID string) (*matching.User, error) {
	row := s.db.QueryRowContext(ctx, userColumns+`
		WHERE u.id = $1`, userID)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, matching.ErrProfileNotFound)
	}
	if err != nil {
		return nil, apperrors.NewProfileStoreFailedError("get_user", err)
	}
	return user, nil
}

func (s *PostgresProfileStore) GetTeam(ctx context.Context, teamID string) (*matching.Team, error) {
	row := s.db.QueryRowContext(ctx, teamColumns+`
		WHERE t.id = $1`, teamID)

	team, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team %s: %w", teamID, matching.ErrProfileNotFound)
	}
	if err != nil {
		return nil, apperrors.NewProfileStoreFailedError("get_team", err)
	}
	return team, nil
}

// ListOpenTeams returns recruiting teams with at least one free seat, newest first.
func (s *PostgresProfileStore) ListOpenTeams(ctx context.Context, eventID string, limit int) ([]matching.Team, error) {
	var (
		query strings.Builder
		args  []interface{}
	)
	query.WriteString(teamColumns)
	query.WriteString(`
		WHERE t.looking_for_members = true AND t.current_members < t.max_members`)
	if eventID != "" {
		args = append(args, eventID)
		fmt.Fprintf(&query, " AND t.event_id = $%d", len(args))
	}
	args = append(args, limit)
	fmt.Fprintf(&query, " ORDER BY t.created_at DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, apperrors.NewProfileStoreFailedError("list_open_teams", err)
	}
	defer rows.Close()

	var teams []matching.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, apperrors.NewProfileStoreFailedError("list_open_teams", err)
		}
		teams = append(teams, *team)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewProfileStoreFailedError("list_open_teams", err)
	}

	s.logger.Debug("loaded open teams", map[string]interface{}{
		"eventId": eventID,
		"count":   len(teams),
	})
	return teams, nil
}

// ListAvailableUsers returns users looking for a team. Event scoping goes through event_participants.
func (s *PostgresProfileStore) ListAvailableUsers(ctx context.Context, eventID string, limit int) ([]matching.User, error) {
	var (
		query strings.Builder
		args  []interface{}
	)
	query.WriteString(userColumns)
	query.WriteString(`
		WHERE u.looking_for_team = true`)
	if eventID != "" {
		args = append(args, eventID)
		fmt.Fprintf(&query, " AND EXISTS (SELECT 1 FROM event_participants ep WHERE ep.user_id = u.id AND ep.event_id = $%d)", len(args))
	}
	args = append(args, limit)
	fmt.Fprintf(&query, " ORDER BY u.created_at DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, apperrors.NewProfileStoreFailedError("list_available_users", err)
	}
	defer rows.Close()

	var users []matching.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, apperrors.NewProfileStoreFailedError("list_available_users", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewProfileStoreFailedError("list_available_users", err)
	}
	return users, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row scanner) (*matching.User, error) {
	var (
		u     matching.User
		level string
	)
	if err := row.Scan(
		&u.ID, &u.Name, &level, &u.Bio, &u.PreferredRole,
		pq.Array(&u.Skills), pq.Array(&u.Interests),
	); err != nil {
		return nil, err
	}
	u.ExperienceLevel = matching.ExperienceLevel(level)
	return &u, nil
}

func scanTeam(row scanner) (*matching.Team, error) {
	var (
		t     matching.Team
		level string
		roles []byte
	)
	if err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.ProjectIdea,
		pq.Array(&t.TechStack), pq.Array(&t.Domains),
		&level, &t.CurrentMembers, &t.MaxMembers, &t.EventID, &roles,
	); err != nil {
		return nil, err
	}
	t.ExperienceLevel = matching.ExperienceLevel(level)

	if len(roles) > 0 {
		if err := json.Unmarshal(roles, &t.OpenRoles); err != nil {
			return nil, fmt.Errorf("decode open roles for team %s: %w", t.ID, err)
		}
	}
	t.RequiredSkills = roleSkills(t.OpenRoles)
	return &t, nil
}

// roleSkills flattens the open roles' skill lists, first occurrence wins.
func roleSkills(roles []matching.OpenRole) []string {
	seen := make(map[string]struct{})
	var skills []string
	for _, role := range roles {
		for _, skill := range role.RequiredSkills {
			key := strings.ToLower(strings.TrimSpace(skill))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			skills = append(skills, skill)
		}
	}
	return skills
}
