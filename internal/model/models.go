// Package model defines the data models for the game server.
package model

import (
	"fmt"
	"math"
	"time"
)

// Account is the login identity of a player.
type Account struct {
	AccountID    int64     `db:"account_id"`
	UserID       int64     `db:"user_id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Salt         string    `db:"salt"`
	CreatedAt    time.Time `db:"created_at"`
}

// UserGameData is the per-user resource ledger.
type UserGameData struct {
	UserID     int64 `db:"user_id" json:"userId"`
	Gold       int64 `db:"gold" json:"gold"`
	Gem        int64 `db:"gem" json:"gem"`
	Exp        int64 `db:"exp" json:"exp"`
	Level      int   `db:"level" json:"level"`
	KillCount  int64 `db:"kill_count" json:"totalMonsterKillCount"`
	ClearCount int64 `db:"clear_count" json:"totalStageClearCount"`
}

// ExpPerLevel is the exp needed to gain one level.
const ExpPerLevel = 100

// AddExp adds exp and carries every full ExpPerLevel into levels.
func (d *UserGameData) AddExp(exp int64) {
	d.Exp += exp
	if d.Exp >= ExpPerLevel {
		d.Level += int(d.Exp / ExpPerLevel)
		d.Exp %= ExpPerLevel
	}
}

// CanAfford reports whether both balances cover the given prices.
func (d *UserGameData) CanAfford(gold, gem int64) bool {
	return d.Gold >= gold && d.Gem >= gem
}

// InventoryKind names one of the owned-unit tables.
type InventoryKind int

const (
	KindCharacter InventoryKind = iota + 1
	KindItem
	KindRune
)

func (k InventoryKind) String() string {
	switch k {
	case KindCharacter:
		return "character"
	case KindItem:
		return "item"
	case KindRune:
		return "rune"
	default:
		return fmt.Sprintf("InventoryKind(%d)", int(k))
	}
}

// Unit is a user-owned character, item or rune instance.
type Unit struct {
	ID        int64         `db:"id" json:"id"`
	UserID    int64         `db:"user_id" json:"-"`
	Kind      InventoryKind `db:"-" json:"-"`
	Code      int           `db:"code" json:"code"`
	Level     int           `db:"level" json:"level"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
}

// Equipment links a character instance to an equipped item or rune instance.
type Equipment struct {
	UserID      int64         `db:"user_id" json:"-"`
	CharacterID int64         `db:"character_id" json:"characterId"`
	InstanceID  int64         `db:"instance_id" json:"instanceId"`
	Kind        InventoryKind `db:"kind" json:"-"`
}

// QuestType selects which game events advance a quest.
type QuestType string

const (
	QuestKillMonster QuestType = "KillMonster"
	QuestClearStage  QuestType = "ClearStage"
	QuestGetGold     QuestType = "GetGold"
	QuestGetItem     QuestType = "GetItem"
)

// Valid reports whether t is a known quest type.
func (t QuestType) Valid() bool {
	switch t {
	case QuestKillMonster, QuestClearStage, QuestGetGold, QuestGetItem:
		return true
	}
	return false
}

// QuestProgress is an in-progress quest.
type QuestProgress struct {
	UserID    int64     `db:"user_id" json:"-"`
	QuestCode int       `db:"quest_code" json:"questCode"`
	Progress  int64     `db:"progress" json:"progress"`
	ExpireAt  time.Time `db:"expire_at" json:"expireDate"`
}

// Expired reports whether the quest can no longer progress at now.
// A zero ExpireAt never expires.
func (q *QuestProgress) Expired(now time.Time) bool {
	return !q.ExpireAt.IsZero() && !now.Before(q.ExpireAt)
}

// QuestComplete is a completed quest and whether its reward was claimed.
type QuestComplete struct {
	UserID     int64     `db:"user_id" json:"-"`
	QuestCode  int       `db:"quest_code" json:"questCode"`
	CompleteAt time.Time `db:"complete_at" json:"completeDate"`
	Earned     bool      `db:"earned" json:"isEarned"`
}

// ClearStage records how often a user cleared a stage.
type ClearStage struct {
	UserID       int64     `db:"user_id"`
	StageCode    int       `db:"stage_code"`
	ClearCount   int       `db:"clear_count"`
	FirstClearAt time.Time `db:"first_clear_at"`
	LastClearAt  time.Time `db:"last_clear_at"`
}

// Attendance is the monthly check-in state of a user.
type Attendance struct {
	UserID       int64     `db:"user_id"`
	Day          int       `db:"attendance_day"`
	LastAttendAt time.Time `db:"last_attend_at"`
}

// Page is a 1-based page descriptor applied as offset/limit.
// The zero Page means "everything".
type Page struct {
	Number int `json:"page"`
	Size   int `json:"pageSize"`
}

// IsAll reports whether the page selects every row.
func (p Page) IsAll() bool {
	return p.Size == 0
}

// Offset returns the number of rows to skip, saturating at math.MaxInt.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Size <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// Limit returns the maximum number of rows to return.
func (p Page) Limit() int {
	return p.Size
}

// Paginate returns the slice of list selected by page.
func Paginate[T any](list []T, page Page) []T {
	if page.IsAll() {
		return list
	}
	start := page.Offset()
	if start >= len(list) {
		return []T{}
	}
	end := len(list)
	if page.Limit() < end-start {
		end = start + page.Limit()
	}
	return list[start:end]
}
