// Package memory implements the repository in process memory. A unit of work
// runs on a private copy of the data that replaces the shared state only on
// commit, so a failed unit of work leaves nothing behind.
package memory

import (
	"context"
	"maps"
	"sync"

	"game-api-server/internal/model"
	"game-api-server/internal/repository"
)

type questKey struct {
	userID int64
	code   int
}

type stageKey struct {
	userID int64
	code   int
}

type equipKey struct {
	kind       model.InventoryKind
	instanceID int64
}

type state struct {
	nextAccountID int64
	nextUserID    int64
	nextUnitID    int64
	nextMailID    int64

	accounts      map[string]model.Account
	gameData      map[int64]model.UserGameData
	units         map[model.InventoryKind]map[int64]model.Unit
	equipment     map[equipKey]model.Equipment
	questProgress map[questKey]model.QuestProgress
	questComplete map[questKey]model.QuestComplete
	mail          map[int64]model.Mail
	clearStage    map[stageKey]model.ClearStage
	attendance    map[int64]model.Attendance
}

func newState() *state {
	return &state{
		accounts: make(map[string]model.Account),
		gameData: make(map[int64]model.UserGameData),
		units: map[model.InventoryKind]map[int64]model.Unit{
			model.KindCharacter: {},
			model.KindItem:      {},
			model.KindRune:      {},
		},
		equipment:     make(map[equipKey]model.Equipment),
		questProgress: make(map[questKey]model.QuestProgress),
		questComplete: make(map[questKey]model.QuestComplete),
		mail:          make(map[int64]model.Mail),
		clearStage:    make(map[stageKey]model.ClearStage),
		attendance:    make(map[int64]model.Attendance),
	}
}

func (s *state) clone() *state {
	c := *s
	c.accounts = maps.Clone(s.accounts)
	c.gameData = maps.Clone(s.gameData)
	c.units = make(map[model.InventoryKind]map[int64]model.Unit, len(s.units))
	for k, v := range s.units {
		c.units[k] = maps.Clone(v)
	}
	c.equipment = maps.Clone(s.equipment)
	c.questProgress = maps.Clone(s.questProgress)
	c.questComplete = maps.Clone(s.questComplete)
	c.mail = maps.Clone(s.mail)
	c.clearStage = maps.Clone(s.clearStage)
	c.attendance = maps.Clone(s.attendance)
	return &c
}

// Store is an in-memory repository.Store. Units of work are serialized.
type Store struct {
	mu sync.Mutex
	st *state

	faultMu sync.Mutex
	faults  map[string]error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{st: newState(), faults: make(map[string]error)}
}

// InjectFault makes the next call of the named repository method fail with
// err. Used by tests to abort a unit of work at a chosen step.
func (s *Store) InjectFault(method string, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[method] = err
}

func (s *Store) takeFault(method string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	err, ok := s.faults[method]
	if !ok {
		return nil
	}
	delete(s.faults, method)
	return err
}

// Repository returns a handle whose every call is its own atomic step.
func (s *Store) Repository() repository.Repository {
	return &handle{store: s}
}

// WithTx runs fn on a private copy of the data and publishes the copy only
// when fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Repository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&handle{store: s, tx: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// handle implements repository.Repository either on the shared state (tx nil)
// or on a unit of work's copy.
type handle struct {
	store *Store
	tx    *state
}

var _ repository.Repository = (*handle)(nil)

// do runs fn against the state this handle is bound to, after consuming any
// fault injected for method.
func (h *handle) do(method string, fn func(st *state) error) error {
	if err := h.store.takeFault(method); err != nil {
		return err
	}
	if h.tx != nil {
		return fn(h.tx)
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return fn(h.store.st)
}
