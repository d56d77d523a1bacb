package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 5, cfg.PoolSize)
	assert.Equal(t, 2, cfg.SlotCount)
	assert.Equal(t, 5, cfg.ChoiceCount)
	assert.Equal(t, 2*time.Second, cfg.NextRoundDelay)
	assert.Equal(t, 16*time.Millisecond, cfg.FrameInterval)
	assert.Equal(t, "memory", cfg.HistoryBackend)
	assert.Equal(t, 50, cfg.HistoryLimit)

	board := cfg.Board()
	assert.Equal(t, 5, board.PoolSize)
	assert.Equal(t, 2, board.SlotCount)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("LETTER_TILE_COUNT", "8")
	t.Setenv("DROP_SLOT_COUNT", "0")
	t.Setenv("NEXT_ROUND_DELAY", "500ms")
	t.Setenv("ALLOWED_ORIGINS", "localhost:5173,example.com")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.PoolSize)
	assert.Equal(t, 0, cfg.SlotCount)
	assert.Equal(t, 500*time.Millisecond, cfg.NextRoundDelay)
	assert.Equal(t, []string{"localhost:5173", "example.com"}, cfg.AllowedOrigins)
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want error
	}{
		{name: "empty pool", env: map[string]string{"LETTER_TILE_COUNT": "0"}, want: ErrInvalidPoolSize},
		{name: "negative slots", env: map[string]string{"DROP_SLOT_COUNT": "-1"}, want: ErrInvalidSlotCount},
		{name: "redis without url", env: map[string]string{"HISTORY_BACKEND": "redis"}, want: ErrMissingRedisURL},
		{name: "postgres without dsn", env: map[string]string{"HISTORY_BACKEND": "postgres"}, want: ErrMissingDSN},
		{name: "unknown backend", env: map[string]string{"HISTORY_BACKEND": "mongo"}, want: ErrUnknownBackend},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Parse()
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestParse_MalformedValue(t *testing.T) {
	t.Setenv("NEXT_ROUND_DELAY", "soon")
	_, err := Parse()
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "parse env:"), err.Error())
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CHOICE_CARD_COUNT=3\n"), 0o600))
	t.Setenv("CHOICE_CARD_COUNT", "")
	os.Unsetenv("CHOICE_CARD_COUNT")

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.ChoiceCount)
}
