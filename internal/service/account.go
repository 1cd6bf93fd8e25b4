package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/pbkdf2"

	"game-api-server/internal/errcode"
	"game-api-server/internal/model"
	"game-api-server/internal/repository"
	"game-api-server/internal/session"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 64
	maxEmailLength    = 128

	saltBytes        = 16
	hashIterations   = 10000
	derivedKeyLength = 32
)

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	UserID    int64
	AuthToken string
	GameData  *model.UserGameData
}

// AccountService handles registration and login.
type AccountService struct {
	*core
	sessions *session.Store
	gameData *GameDataService
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(c *core, sessions *session.Store, gameData *GameDataService) *AccountService {
	return &AccountService{core: c, sessions: sessions, gameData: gameData}
}

// Register creates the account, its game data at the configured starting
// values and a progress row for every quest definition, all in one unit of
// work.
func (s *AccountService) Register(ctx context.Context, email, password string) error {
	if err := validateCredentials(email, password); err != nil {
		return errcode.Wrap(errcode.InvalidAccountInput, err)
	}

	_, err := s.store.Repository().GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		return errcode.DuplicateEmail
	case !errors.Is(err, repository.ErrNotFound):
		return failure(ctx, errcode.FailedRegisterAccount, err, 0, "register")
	}

	salt, err := newSalt()
	if err != nil {
		return failure(ctx, errcode.FailedRegisterAccount, err, 0, "register")
	}
	hash := hashPassword(password, salt)
	now := s.now()
	quests := s.master.Current().Quests()

	var userID int64
	err = s.store.WithTx(ctx, func(tx repository.Repository) error {
		acc, err := tx.CreateAccount(ctx, email, hash, salt, now)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return errcode.Wrap(errcode.DuplicateEmail, err)
			}
			return fmt.Errorf("create account: %w", err)
		}
		userID = acc.UserID

		if err := tx.CreateGameData(ctx, &model.UserGameData{
			UserID: acc.UserID,
			Gold:   s.game.StartingGold,
			Gem:    s.game.StartingGem,
			Level:  s.game.StartingLevel,
		}); err != nil {
			return fmt.Errorf("create game data: %w", err)
		}

		if len(quests) == 0 {
			return nil
		}
		progress := make([]model.QuestProgress, 0, len(quests))
		for _, q := range quests {
			progress = append(progress, model.QuestProgress{
				UserID:    acc.UserID,
				QuestCode: q.Code,
				ExpireAt:  q.ExpireAt(now),
			})
		}
		if err := tx.InsertQuestProgress(ctx, progress); err != nil {
			return fmt.Errorf("create quest progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return failure(ctx, errcode.FailedRegisterAccount, err, userID, "register")
	}

	log.Ctx(ctx).Info().Int64("user_id", userID).Str("email", email).Msg("Account registered")
	return nil
}

// Login verifies the password, issues a fresh auth token and registers the
// session, replacing any previous one for the same email.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, errcode.Wrap(errcode.InvalidAccountInput, err)
	}

	acc, err := s.store.Repository().GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, notFoundOr(ctx, err, errcode.LoginFailed, errcode.FailedLogin, 0, "login")
	}
	if !verifyPassword(password, acc.Salt, acc.PasswordHash) {
		return nil, errcode.LoginFailed
	}

	sess := &session.Session{
		AccountID: acc.AccountID,
		UserID:    acc.UserID,
		AuthToken: uuid.NewString(),
		Email:     acc.Email,
		CreatedAt: s.now(),
	}
	if err := s.sessions.Register(ctx, sess); err != nil {
		return nil, failure(ctx, errcode.FailedRegisterSession, err, acc.UserID, "login")
	}

	data, err := s.gameData.GetGameData(ctx, acc.UserID)
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Int64("user_id", acc.UserID).Msg("User logged in")
	return &LoginResult{UserID: acc.UserID, AuthToken: sess.AuthToken, GameData: data}, nil
}

func validateCredentials(email, password string) error {
	if len(email) == 0 || len(email) > maxEmailLength {
		return fmt.Errorf("email length must be 1..%d", maxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("malformed email %q", email)
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return fmt.Errorf("password length must be %d..%d", minPasswordLength, maxPasswordLength)
	}
	return nil
}

func newSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashPassword(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), hashIterations, derivedKeyLength, sha256.New)
	return hex.EncodeToString(key)
}

func verifyPassword(password, salt, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(hashPassword(password, salt)), []byte(hash)) == 1
}
