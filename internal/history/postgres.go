package history

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// roundRow is the gorm model behind the postgres store.
type roundRow struct {
	ID         uint   `gorm:"primaryKey"`
	Lobby      string `gorm:"index:idx_round_lobby_finished,priority:1;not null"`
	RoundID    string `gorm:"uniqueIndex;not null"`
	Round      int
	Word       string `gorm:"not null"`
	Mode       string `gorm:"size:16"`
	Correct    bool
	Fills      int
	StartedAt  time.Time
	FinishedAt time.Time `gorm:"index:idx_round_lobby_finished,priority:2"`
}

func (roundRow) TableName() string { return "round_history" }

// Postgres keeps every round; limit only caps List.
type Postgres struct {
	db    *gorm.DB
	limit int
}

var _ Store = (*Postgres)(nil)

// OpenPostgres connects with dsn and migrates the history table.
func OpenPostgres(ctx context.Context, dsn string, limit int) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	p, err := NewPostgres(ctx, db, limit)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			err = multierr.Append(err, sqlDB.Close())
		}
		return nil, err
	}
	return p, nil
}

// NewPostgres wraps an open gorm handle.
func NewPostgres(ctx context.Context, db *gorm.DB, limit int) (*Postgres, error) {
	if err := db.WithContext(ctx).AutoMigrate(&roundRow{}); err != nil {
		return nil, fmt.Errorf("migrate round_history: %w", err)
	}
	return &Postgres{db: db, limit: limit}, nil
}

func (s *Postgres) Record(ctx context.Context, rec Record) error {
	row := roundRow{
		Lobby:      rec.Lobby,
		RoundID:    rec.RoundID,
		Round:      rec.Round,
		Word:       rec.Word,
		Mode:       rec.Mode,
		Correct:    rec.Correct,
		Fills:      rec.Fills,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record round %s: %w", rec.RoundID, err)
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, lobby string, limit int) ([]Record, error) {
	q := s.db.WithContext(ctx).Where("lobby = ?", lobby).Order("finished_at DESC, id DESC")
	if n := clampLimit(limit, s.limit); n > 0 {
		q = q.Limit(n)
	}
	var rows []roundRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list history %s: %w", lobby, err)
	}
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record{
			Lobby:      r.Lobby,
			RoundID:    r.RoundID,
			Round:      r.Round,
			Word:       r.Word,
			Mode:       r.Mode,
			Correct:    r.Correct,
			Fills:      r.Fills,
			StartedAt:  r.StartedAt.UTC(),
			FinishedAt: r.FinishedAt.UTC(),
		})
	}
	return out, nil
}

func (s *Postgres) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
