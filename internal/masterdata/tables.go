// Package masterdata holds the read-only reference tables the game rules are
// evaluated against.
package masterdata

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"game-api-server/internal/model"
)

// Character is a purchasable character origin.
type Character struct {
	Code  int    `yaml:"code"`
	Name  string `yaml:"name"`
	Gold  int64  `yaml:"gold"`
	Gem   int64  `yaml:"gem"`
	Grade int    `yaml:"grade"`
}

// Item is an equippable item origin.
type Item struct {
	Code   int    `yaml:"code"`
	Name   string `yaml:"name"`
	Attack int    `yaml:"attack"`
	Grade  int    `yaml:"grade"`
}

// Rune is an equippable rune origin.
type Rune struct {
	Code  int    `yaml:"code"`
	Name  string `yaml:"name"`
	Stat  string `yaml:"stat"`
	Value int    `yaml:"value"`
}

// EnhanceLevel is one row of a leveled table. EnhanceGold is the price of
// reaching this level; SellGold is what an instance at this level sells for.
type EnhanceLevel struct {
	Code        int   `yaml:"code"`
	Level       int   `yaml:"level"`
	EnhanceGold int64 `yaml:"enhanceGold"`
	SellGold    int64 `yaml:"sellGold"`
}

// Quest is a quest definition.
type Quest struct {
	Code     int             `yaml:"code"`
	Name     string          `yaml:"name"`
	Type     model.QuestType `yaml:"type"`
	Target   int64           `yaml:"target"`
	Duration time.Duration   `yaml:"duration"`
	Rewards  []model.Reward  `yaml:"rewards"`
}

// ExpireAt returns when a quest started at now stops progressing.
// Quests without a duration never expire and yield the zero time.
func (q Quest) ExpireAt(now time.Time) time.Time {
	if q.Duration <= 0 {
		return time.Time{}
	}
	return now.Add(q.Duration)
}

// MonsterCount is a stage roster entry.
type MonsterCount struct {
	Code  int `yaml:"code" json:"monsterCode"`
	Count int `yaml:"count" json:"monsterCount"`
}

// Drop is a stage reward candidate rolled independently on clear.
// Rate is a percentage in 1..100.
type Drop struct {
	Kind model.RewardKind `yaml:"kind"`
	Code int              `yaml:"code"`
	Rate int              `yaml:"rate"`
}

// Stage is a stage definition.
type Stage struct {
	Code          int            `yaml:"code"`
	RequiredStage int            `yaml:"requiredStage"`
	Gold          int64          `yaml:"gold"`
	Exp           int64          `yaml:"exp"`
	Monsters      []MonsterCount `yaml:"monsters"`
	Drops         []Drop         `yaml:"drops"`
}

// Targets returns the roster as monster code to required kill count.
func (s Stage) Targets() map[int]int {
	targets := make(map[int]int, len(s.Monsters))
	for _, m := range s.Monsters {
		targets[m.Code] += m.Count
	}
	return targets
}

// AttendanceDay is the reward mailed on the given day of a month.
type AttendanceDay struct {
	Day    int          `yaml:"day"`
	Title  string       `yaml:"title"`
	Reward model.Reward `yaml:"reward"`
}

// Tables is the on-disk layout of the master data file.
type Tables struct {
	Version    string          `yaml:"version"`
	Characters []Character     `yaml:"characters"`
	Items      []Item          `yaml:"items"`
	Runes      []Rune          `yaml:"runes"`
	Enhance    EnhanceTables   `yaml:"enhance"`
	Quests     []Quest         `yaml:"quests"`
	Stages     []Stage         `yaml:"stages"`
	Attendance []AttendanceDay `yaml:"attendance"`
}

// EnhanceTables groups the leveled tables per inventory kind.
type EnhanceTables struct {
	Characters []EnhanceLevel `yaml:"characters"`
	Items      []EnhanceLevel `yaml:"items"`
	Runes      []EnhanceLevel `yaml:"runes"`
}

// Load reads and validates the master data file at path.
func Load(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read master data: %w", err)
	}

	var tables Tables
	if err := yaml.Unmarshal(raw, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse master data: %w", err)
	}

	return NewSnapshot(&tables)
}
