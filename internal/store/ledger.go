// internal/store/ledger.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	apperrors "matchmaking-workers/internal/common/errors"
	"matchmaking-workers/internal/matching"
)

const upsertScore = `
		INSERT INTO match_scores (user_id, team_id, compatibility_score, match_reasons)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, team_id)
		DO UPDATE SET compatibility_score = $3, match_reasons = $4, calculated_at = NOW()`

// PostgresScoreLedger keeps the latest score per (user, team) pair in match_scores.
type PostgresScoreLedger struct {
	db *sql.DB
}

func NewPostgresScoreLedger(db *sql.DB) *PostgresScoreLedger {
	return &PostgresScoreLedger{db: db}
}

func (l *PostgresScoreLedger) SaveScore(ctx context.Context, rec matching.ScoreRecord) error {
	reasons := rec.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	payload, err := json.Marshal(reasons)
	if err != nil {
		return apperrors.NewLedgerWriteFailedError(fmt.Errorf("encode reasons: %w", err))
	}

	if _, err := l.db.ExecContext(ctx, upsertScore, rec.UserID, rec.TeamID, rec.Score, string(payload)); err != nil {
		return apperrors.NewLedgerWriteFailedError(err)
	}
	return nil
}
