package masterdata

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Store publishes the current Snapshot. Readers never block; a reload swaps
// the whole snapshot at once so a request sees either the old or the new
// tables, never a mix.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns a store serving snap.
func NewStore(snap *Snapshot) *Store {
	s := &Store{}
	s.current.Store(snap)
	return s
}

// Current returns the snapshot in effect.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Replace installs snap for every subsequent Current call.
func (s *Store) Replace(snap *Snapshot) {
	s.current.Store(snap)
}

// Reload parses path and installs it. On failure the previous snapshot stays
// in effect.
func (s *Store) Reload(path string) error {
	snap, err := Load(path)
	if err != nil {
		return err
	}
	s.Replace(snap)
	log.Info().Str("path", path).Str("version", snap.Version()).Msg("Master data reloaded")
	return nil
}
