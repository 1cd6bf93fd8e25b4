package testutil

import (
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"game-api-server/internal/cache"
	"game-api-server/internal/config"
	"game-api-server/internal/masterdata"
	"game-api-server/internal/pkg/kv"
	"game-api-server/internal/repository/memory"
	"game-api-server/internal/service"
	"game-api-server/internal/session"
)

// MasterDataPath returns the path of the master data file shipped in config/.
func MasterDataPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "config", "masterdata.yaml")
}

// MasterData loads the shipped master data.
func MasterData(t testing.TB) *masterdata.Store {
	t.Helper()
	snap, err := masterdata.Load(MasterDataPath())
	require.NoError(t, err)
	return masterdata.NewStore(snap)
}

// GameConfig matches the defaults of config.Load.
func GameConfig() config.GameConfig {
	return config.GameConfig{
		StartingGold:    100,
		StartingGem:     50,
		StartingLevel:   1,
		DefaultPageSize: 10,
		MaxPageSize:     100,
		MailTTL:         30 * 24 * time.Hour,
	}
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock stopped at now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Roller returns a fixed draw, settable between calls.
type Roller struct {
	mu    sync.Mutex
	value int
}

func (r *Roller) Roll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

func (r *Roller) Set(value int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = value
}

// Env is a fully wired service layer on in-memory stores.
type Env struct {
	Store    *memory.Store
	KV       *kv.MemoryStore
	Cache    *cache.Cache
	Sessions *session.Store
	Master   *masterdata.Store
	Clock    *Clock
	Roller   *Roller
	Services *service.Services
}

// NewEnv builds an Env. The clock starts at 2026-03-10 12:00 UTC and the
// roller draws 100, so only 100% drops are granted until changed.
func NewEnv(t testing.TB) *Env {
	t.Helper()

	clock := NewClock(time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC))
	roller := &Roller{value: 100}
	store := memory.NewStore()
	kvStore := kv.NewMemoryStore().WithClock(clock.Now)
	c := cache.New(kvStore, 10*time.Minute, 30*time.Minute)
	sessions := session.NewStore(kvStore, time.Hour, 3*time.Second)
	master := MasterData(t)

	return &Env{
		Store:    store,
		KV:       kvStore,
		Cache:    c,
		Sessions: sessions,
		Master:   master,
		Clock:    clock,
		Roller:   roller,
		Services: service.New(service.Dependencies{
			Store:      store,
			Cache:      c,
			Sessions:   sessions,
			MasterData: master,
			Game:       GameConfig(),
			Now:        clock.Now,
			Roller:     roller,
		}),
	}
}
