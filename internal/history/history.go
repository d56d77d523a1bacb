package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DoyleJ11/hiragana-drop/internal/engine"
)

var ErrUnknownBackend = errors.New("unknown history backend")

// Record is one finished round as stored.
type Record struct {
	Lobby      string    `json:"lobby"`
	RoundID    string    `json:"round_id"`
	Round      int       `json:"round"`
	Word       string    `json:"word"`
	Mode       string    `json:"mode"`
	Correct    bool      `json:"correct"`
	Fills      int       `json:"fills"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func FromResult(lobby string, r engine.Result) Record {
	return Record{
		Lobby:      lobby,
		RoundID:    r.RoundID,
		Round:      r.Round,
		Word:       r.Word,
		Mode:       string(r.Mode),
		Correct:    r.Correct,
		Fills:      r.Fills,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

// Store keeps round history per lobby. List returns newest first.
type Store interface {
	Record(ctx context.Context, rec Record) error
	List(ctx context.Context, lobby string, limit int) ([]Record, error)
	Close() error
}

type Options struct {
	Backend     string
	RedisURL    string
	DatabaseURL string
	// Limit caps how many records each lobby keeps.
	Limit int
	TTL   time.Duration
}

// New opens the store named by opts.Backend.
func New(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemory(opts.Limit), nil
	case "redis":
		return OpenRedis(ctx, opts.RedisURL, opts.Limit, opts.TTL)
	case "postgres":
		return OpenPostgres(ctx, opts.DatabaseURL, opts.Limit)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

func clampLimit(limit, max int) int {
	if limit <= 0 || (max > 0 && limit > max) {
		return max
	}
	return limit
}
