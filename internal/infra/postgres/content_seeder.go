package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"photosynthesis-lab/internal/domain"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// OpenBun opens a bun handle on the Postgres DSN. Callers close it.
func OpenBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

type contentRow struct {
	bun.BaseModel `bun:"table:lab_content"`

	ID        string         `bun:"id,pk"`
	Data      domain.Content `bun:"data,type:jsonb"`
	CreatedAt time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// ContentSeeder upserts lab content documents.
type ContentSeeder struct {
	db  *bun.DB
	now func() time.Time
}

func NewContentSeeder(db *bun.DB) *ContentSeeder {
	return &ContentSeeder{db: db, now: time.Now}
}

// Seed validates and upserts every content document; existing ids are overwritten.
func (s *ContentSeeder) Seed(ctx context.Context, contents ...domain.Content) error {
	for _, content := range contents {
		if err := content.Validate(); err != nil {
			return fmt.Errorf("seed %q: %w", content.ID, err)
		}
		row := contentRow{ID: content.ID, Data: content, UpdatedAt: s.now()}
		_, err := s.db.NewInsert().
			Model(&row).
			On("CONFLICT (id) DO UPDATE").
			Set("data = EXCLUDED.data").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("seed %q: %w", content.ID, err)
		}
	}
	return nil
}

// IDs lists the seeded content ids in order.
func (s *ContentSeeder) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.NewSelect().
		Model((*contentRow)(nil)).
		Column("id").
		Order("id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("list content ids: %w", err)
	}
	return ids, nil
}
