package masterdata

import (
	"errors"
	"fmt"
	"sort"

	"game-api-server/internal/model"
)

// ErrInvalidTables is wrapped by every validation failure in NewSnapshot.
var ErrInvalidTables = errors.New("invalid master data")

type levelKey struct {
	kind  model.InventoryKind
	code  int
	level int
}

// Snapshot is an immutable, validated view over Tables. All lookups are safe
// for concurrent use without synchronization.
type Snapshot struct {
	version      string
	characters   map[int]Character
	items        map[int]Item
	runes        map[int]Rune
	levels       map[levelKey]EnhanceLevel
	quests       map[int]Quest
	questOrder   []Quest
	questsByType map[model.QuestType][]Quest
	stages       map[int]Stage
	attendance   map[int]AttendanceDay
}

// NewSnapshot indexes the tables and checks every cross reference.
func NewSnapshot(t *Tables) (*Snapshot, error) {
	s := &Snapshot{
		version:      t.Version,
		characters:   make(map[int]Character, len(t.Characters)),
		items:        make(map[int]Item, len(t.Items)),
		runes:        make(map[int]Rune, len(t.Runes)),
		levels:       make(map[levelKey]EnhanceLevel),
		quests:       make(map[int]Quest, len(t.Quests)),
		questsByType: make(map[model.QuestType][]Quest),
		stages:       make(map[int]Stage, len(t.Stages)),
		attendance:   make(map[int]AttendanceDay, len(t.Attendance)),
	}

	for _, c := range t.Characters {
		if _, dup := s.characters[c.Code]; dup {
			return nil, invalid("duplicate character code %d", c.Code)
		}
		if c.Gold < 0 || c.Gem < 0 {
			return nil, invalid("character %d has a negative price", c.Code)
		}
		s.characters[c.Code] = c
	}
	for _, it := range t.Items {
		if _, dup := s.items[it.Code]; dup {
			return nil, invalid("duplicate item code %d", it.Code)
		}
		s.items[it.Code] = it
	}
	for _, r := range t.Runes {
		if _, dup := s.runes[r.Code]; dup {
			return nil, invalid("duplicate rune code %d", r.Code)
		}
		s.runes[r.Code] = r
	}

	if err := s.indexLevels(model.KindCharacter, t.Enhance.Characters); err != nil {
		return nil, err
	}
	if err := s.indexLevels(model.KindItem, t.Enhance.Items); err != nil {
		return nil, err
	}
	if err := s.indexLevels(model.KindRune, t.Enhance.Runes); err != nil {
		return nil, err
	}

	for _, q := range t.Quests {
		if _, dup := s.quests[q.Code]; dup {
			return nil, invalid("duplicate quest code %d", q.Code)
		}
		if !q.Type.Valid() {
			return nil, invalid("quest %d has unknown type %q", q.Code, q.Type)
		}
		if q.Target <= 0 {
			return nil, invalid("quest %d needs a positive target", q.Code)
		}
		for _, rw := range q.Rewards {
			if err := s.checkReward(rw); err != nil {
				return nil, fmt.Errorf("quest %d: %w", q.Code, err)
			}
		}
		s.quests[q.Code] = q
		s.questOrder = append(s.questOrder, q)
		s.questsByType[q.Type] = append(s.questsByType[q.Type], q)
	}
	sort.Slice(s.questOrder, func(i, j int) bool { return s.questOrder[i].Code < s.questOrder[j].Code })

	for _, st := range t.Stages {
		if _, dup := s.stages[st.Code]; dup {
			return nil, invalid("duplicate stage code %d", st.Code)
		}
		if len(st.Monsters) == 0 {
			return nil, invalid("stage %d has no monsters", st.Code)
		}
		for _, m := range st.Monsters {
			if m.Count <= 0 {
				return nil, invalid("stage %d monster %d needs a positive count", st.Code, m.Code)
			}
		}
		for _, d := range st.Drops {
			if d.Rate < 1 || d.Rate > 100 {
				return nil, invalid("stage %d drop %d rate %d outside 1..100", st.Code, d.Code, d.Rate)
			}
			if _, ok := d.Kind.InventoryKind(); !ok {
				return nil, invalid("stage %d drop %d must be an item or rune", st.Code, d.Code)
			}
			if err := s.checkReward(model.Reward{Kind: d.Kind, Code: d.Code, Count: 1}); err != nil {
				return nil, fmt.Errorf("stage %d: %w", st.Code, err)
			}
		}
		s.stages[st.Code] = st
	}
	for _, st := range s.stages {
		if st.RequiredStage == 0 {
			continue
		}
		if _, ok := s.stages[st.RequiredStage]; !ok {
			return nil, invalid("stage %d requires unknown stage %d", st.Code, st.RequiredStage)
		}
	}

	for _, a := range t.Attendance {
		if a.Day < 1 || a.Day > 31 {
			return nil, invalid("attendance day %d outside 1..31", a.Day)
		}
		if _, dup := s.attendance[a.Day]; dup {
			return nil, invalid("duplicate attendance day %d", a.Day)
		}
		if err := s.checkReward(a.Reward); err != nil {
			return nil, fmt.Errorf("attendance day %d: %w", a.Day, err)
		}
		s.attendance[a.Day] = a
	}

	return s, nil
}

func (s *Snapshot) indexLevels(kind model.InventoryKind, rows []EnhanceLevel) error {
	for _, row := range rows {
		switch kind {
		case model.KindCharacter:
			if _, ok := s.characters[row.Code]; !ok {
				return invalid("enhance row for unknown character %d", row.Code)
			}
		case model.KindItem:
			if _, ok := s.items[row.Code]; !ok {
				return invalid("enhance row for unknown item %d", row.Code)
			}
		case model.KindRune:
			if _, ok := s.runes[row.Code]; !ok {
				return invalid("enhance row for unknown rune %d", row.Code)
			}
		}
		key := levelKey{kind: kind, code: row.Code, level: row.Level}
		if _, dup := s.levels[key]; dup {
			return invalid("duplicate %s enhance row %d level %d", kind, row.Code, row.Level)
		}
		s.levels[key] = row
	}
	return nil
}

func (s *Snapshot) checkReward(r model.Reward) error {
	if r.Count <= 0 {
		return invalid("reward %s needs a positive count", r.Kind)
	}
	switch r.Kind {
	case model.RewardGold, model.RewardGem, model.RewardExp:
		return nil
	case model.RewardItem:
		if _, ok := s.items[r.Code]; !ok {
			return invalid("reward references unknown item %d", r.Code)
		}
		return nil
	case model.RewardRune:
		if _, ok := s.runes[r.Code]; !ok {
			return invalid("reward references unknown rune %d", r.Code)
		}
		return nil
	default:
		return invalid("reward has unknown kind %d", int(r.Kind))
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTables, fmt.Sprintf(format, args...))
}

// Version returns the version label of the loaded tables.
func (s *Snapshot) Version() string { return s.version }

func (s *Snapshot) Character(code int) (Character, bool) {
	c, ok := s.characters[code]
	return c, ok
}

func (s *Snapshot) Item(code int) (Item, bool) {
	it, ok := s.items[code]
	return it, ok
}

func (s *Snapshot) Rune(code int) (Rune, bool) {
	r, ok := s.runes[code]
	return r, ok
}

// Enhance returns the leveled row for an instance of kind and code at level.
func (s *Snapshot) Enhance(kind model.InventoryKind, code, level int) (EnhanceLevel, bool) {
	row, ok := s.levels[levelKey{kind: kind, code: code, level: level}]
	return row, ok
}

func (s *Snapshot) Quest(code int) (Quest, bool) {
	q, ok := s.quests[code]
	return q, ok
}

// QuestsByType returns the quests advanced by events of type t.
// The returned slice must not be modified.
func (s *Snapshot) QuestsByType(t model.QuestType) []Quest {
	return s.questsByType[t]
}

// Quests returns every quest ordered by code. The returned slice must not be
// modified.
func (s *Snapshot) Quests() []Quest {
	return s.questOrder
}

func (s *Snapshot) Stage(code int) (Stage, bool) {
	st, ok := s.stages[code]
	return st, ok
}

// AttendanceReward returns the reward for the given day of the month.
func (s *Snapshot) AttendanceReward(day int) (AttendanceDay, bool) {
	a, ok := s.attendance[day]
	return a, ok
}
