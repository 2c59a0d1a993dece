package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-battle-service/internal/domain"
)

// ResultStore writes each finished battle once. The full record goes into a
// JSONB column; a few columns are lifted out for querying. There is no update
// path: the row is immutable by construction.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) SaveResult(ctx context.Context, res domain.BattleResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal battle result: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO battle_results (id, subject, winner_id, is_tie, reason, started_at, ended_at, data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		res.BattleID, res.Subject, res.WinnerID, res.IsTie, res.Reason, res.StartedAt, res.EndedAt, data)
	if err != nil {
		return fmt.Errorf("insert battle result: %w", err)
	}
	return nil
}

// LoadResult reads a persisted battle back by ID.
func (s *ResultStore) LoadResult(ctx context.Context, battleID string) (domain.BattleResult, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM battle_results WHERE id=$1`, battleID).Scan(&raw)
	if err != nil {
		return domain.BattleResult{}, fmt.Errorf("load battle result: %w", err)
	}
	var res domain.BattleResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return domain.BattleResult{}, fmt.Errorf("unmarshal battle result: %w", err)
	}
	return res, nil
}
