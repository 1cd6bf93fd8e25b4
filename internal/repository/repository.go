// Package repository provides data access layer interfaces.
// Implementations live in the postgres and memory subpackages.
package repository

import (
	"context"
	"errors"
	"time"

	"game-api-server/internal/model"
)

// Common errors for repository operations.
var (
	ErrNotFound = errors.New("record not found")

	// ErrNoRowsAffected is returned when a write matched nothing. Inside
	// WithTx it aborts the whole unit of work.
	ErrNoRowsAffected = errors.New("no rows affected")

	ErrDuplicate = errors.New("duplicate record")
)

// AccountRepository handles login identities.
type AccountRepository interface {
	// CreateAccount inserts an account and assigns both its account and
	// user ids. Returns ErrDuplicate when the email is taken.
	CreateAccount(ctx context.Context, email, passwordHash, salt string, now time.Time) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
}

// GameDataRepository handles the per-user resource ledger.
type GameDataRepository interface {
	CreateGameData(ctx context.Context, data *model.UserGameData) error
	GetGameData(ctx context.Context, userID int64) (*model.UserGameData, error)
	// AddCurrency applies the deltas only if neither balance would go
	// negative; otherwise it returns ErrNoRowsAffected.
	AddCurrency(ctx context.Context, userID int64, gold, gem int64) (*model.UserGameData, error)
	// UpdateProgress writes exp, level and the kill and clear counters.
	UpdateProgress(ctx context.Context, data *model.UserGameData) error
}

// UnitRepository handles owned characters, items and runes.
type UnitRepository interface {
	InsertUnit(ctx context.Context, kind model.InventoryKind, userID int64, code, level int, now time.Time) (*model.Unit, error)
	GetUnit(ctx context.Context, kind model.InventoryKind, userID, id int64) (*model.Unit, error)
	// ListUnits returns units ordered by id. The zero Page returns all.
	ListUnits(ctx context.Context, kind model.InventoryKind, userID int64, page model.Page) ([]model.Unit, error)
	DeleteUnit(ctx context.Context, kind model.InventoryKind, userID, id int64) error
	SetUnitLevel(ctx context.Context, kind model.InventoryKind, userID, id int64, level int) error
	HasUnitCode(ctx context.Context, kind model.InventoryKind, userID int64, code int) (bool, error)
}

// EquipmentRepository handles character equip records.
type EquipmentRepository interface {
	IsEquipped(ctx context.Context, kind model.InventoryKind, instanceID int64) (bool, error)
	// InsertEquipment returns ErrDuplicate if the instance is already equipped.
	InsertEquipment(ctx context.Context, e model.Equipment) error
	DeleteEquipment(ctx context.Context, e model.Equipment) error
	ListEquipment(ctx context.Context, userID, characterID int64) ([]model.Equipment, error)
}

// QuestRepository handles quest progress and completion records.
type QuestRepository interface {
	InsertQuestProgress(ctx context.Context, quests []model.QuestProgress) error
	ListQuestProgress(ctx context.Context, userID int64, page model.Page) ([]model.QuestProgress, error)
	UpdateQuestProgress(ctx context.Context, userID int64, questCode int, progress int64) error
	// CompleteQuests moves the given quests from progress to complete.
	CompleteQuests(ctx context.Context, userID int64, questCodes []int, now time.Time) error
	GetQuestComplete(ctx context.Context, userID int64, questCode int) (*model.QuestComplete, error)
	// MarkQuestEarned flips the earned flag. It returns ErrNoRowsAffected if
	// the flag was already set.
	MarkQuestEarned(ctx context.Context, userID int64, questCode int) error
	ListQuestComplete(ctx context.Context, userID int64, page model.Page) ([]model.QuestComplete, error)
}

// MailRepository handles reward mail.
type MailRepository interface {
	InsertMail(ctx context.Context, m *model.Mail) (int64, error)
	// ListMail returns mail newest first.
	ListMail(ctx context.Context, userID int64, page model.Page) ([]model.Mail, error)
	GetMail(ctx context.Context, userID, mailID int64) (*model.Mail, error)
	// MarkMailReceived returns ErrNoRowsAffected if the mail was already
	// received.
	MarkMailReceived(ctx context.Context, userID, mailID int64, now time.Time) error
}

// StageRepository handles stage clear records.
type StageRepository interface {
	GetClearStage(ctx context.Context, userID int64, stageCode int) (*model.ClearStage, error)
	// UpsertClearStage inserts the record with count 1 on the first clear and
	// increments it afterwards.
	UpsertClearStage(ctx context.Context, userID int64, stageCode int, now time.Time) (*model.ClearStage, error)
}

// AttendanceRepository handles monthly check-ins.
type AttendanceRepository interface {
	GetAttendance(ctx context.Context, userID int64) (*model.Attendance, error)
	UpsertAttendance(ctx context.Context, a *model.Attendance) error
}

// Repository is every data operation, bound either to the shared pool or to
// one open transaction.
type Repository interface {
	AccountRepository
	GameDataRepository
	UnitRepository
	EquipmentRepository
	QuestRepository
	MailRepository
	StageRepository
	AttendanceRepository
}

// Store opens units of work.
type Store interface {
	// Repository returns a handle outside any transaction, for precondition
	// reads.
	Repository() Repository
	// WithTx runs fn in one read-committed transaction. Every statement fn
	// issues must go through the handle it receives. The transaction commits
	// when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Repository) error) error
	Ping(ctx context.Context) error
}
