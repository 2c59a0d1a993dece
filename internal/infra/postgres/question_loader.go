package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-battle-service/internal/domain"
)

// QuestionLoader reads the active question pool from Postgres. Options are
// stored as a JSONB array of strings.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadSubject(ctx context.Context, subject string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, subject, text, options, correct_index FROM questions WHERE active AND subject=$1`, subject)
	if err != nil {
		return nil, fmt.Errorf("load questions for %s: %w", subject, err)
	}
	return scanQuestions(rows)
}

func (l *QuestionLoader) LoadAny(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, subject, text, options, correct_index FROM questions WHERE active`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return scanQuestions(rows)
}

func scanQuestions(rows pgx.Rows) ([]domain.Question, error) {
	defer rows.Close()
	var out []domain.Question
	for rows.Next() {
		var q domain.Question
		var rawOptions []byte
		if err := rows.Scan(&q.ID, &q.Subject, &q.Text, &rawOptions, &q.CorrectIndex); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(rawOptions, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options for %s: %w", q.ID, err)
		}
		q.Active = true
		out = append(out, q)
	}
	return out, rows.Err()
}
