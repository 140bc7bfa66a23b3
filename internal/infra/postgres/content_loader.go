package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"photosynthesis-lab/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ContentLoader loads lab content JSONB from Postgres.
type ContentLoader struct {
	pool *pgxpool.Pool
}

func NewContentLoader(pool *pgxpool.Pool) *ContentLoader {
	return &ContentLoader{pool: pool}
}

func (l *ContentLoader) LoadContent(ctx context.Context, contentID string) (domain.Content, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM lab_content WHERE id=$1`, contentID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Content{}, domain.ErrContentNotFound
	}
	if err != nil {
		return domain.Content{}, fmt.Errorf("load content: %w", err)
	}
	var content domain.Content
	if err := json.Unmarshal(raw, &content); err != nil {
		return domain.Content{}, fmt.Errorf("unmarshal content: %w", err)
	}
	if content.ID == "" {
		content.ID = contentID
	}
	return content, nil
}
