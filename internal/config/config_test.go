package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 60*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 3*time.Second, cfg.Session.LockTTL)
	assert.Equal(t, int64(100), cfg.Game.StartingGold)
	assert.Equal(t, int64(50), cfg.Game.StartingGem)
	assert.Equal(t, 10, cfg.Game.DefaultPageSize)
	assert.Equal(t, "postgres://game:@localhost:5432/game?sslmode=disable", cfg.Database.DSN())
	assert.False(t, cfg.Redis.UsesMemoryStore())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  addr: ":9090"
redis:
  addr: memory
session:
  ttl: 30m
game:
  starting_gold: 500
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	t.Setenv("GAME_STARTING_GEM", "7")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.Redis.UsesMemoryStore())
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, int64(500), cfg.Game.StartingGold)
	assert.Equal(t, int64(7), cfg.Game.StartingGem)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Session:    SessionConfig{LockTTL: 3 * time.Second, LockRenewInterval: time.Second},
			Game:       GameConfig{DefaultPageSize: 10, MaxPageSize: 100},
			MasterData: MasterDataConfig{Path: "masterdata.yaml"},
		}
	}

	require.NoError(t, base().Validate())

	cfg := base()
	cfg.Session.LockRenewInterval = 5 * time.Second
	assert.Error(t, cfg.Validate(), "renew interval longer than the lock ttl")

	cfg = base()
	cfg.Game.DefaultPageSize = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.MasterData.Path = ""
	assert.Error(t, cfg.Validate())
}
