package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"game-api-server/internal/cache"
	"game-api-server/internal/errcode"
	"game-api-server/internal/model"
	"game-api-server/internal/repository"
)

// MailService delivers reward mail and grants it on receipt.
type MailService struct {
	*core
}

// NewMailService creates a new MailService instance.
func NewMailService(c *core) *MailService {
	return &MailService{core: c}
}

// ListMail returns the inbox newest first.
func (s *MailService) ListMail(ctx context.Context, userID int64, page model.Page) ([]model.Mail, error) {
	page, err := s.normalizePage(page)
	if err != nil {
		return nil, err
	}
	list, err := cache.GetOrLoad(ctx, s.cache, cache.MailList, userID, func(ctx context.Context) ([]model.Mail, error) {
		return s.store.Repository().ListMail(ctx, userID, model.Page{})
	})
	if err != nil {
		return nil, failure(ctx, errcode.FailedGetMailList, err, userID, "list mail")
	}
	return model.Paginate(list, page), nil
}

// ReceiveMail grants the mail's reward and marks it received. The cached
// views the reward changes are dropped before the grant is written, so a
// reader never caches the pre-reward state past the commit.
func (s *MailService) ReceiveMail(ctx context.Context, userID, mailID int64) (*model.Mail, error) {
	m, err := s.store.Repository().GetMail(ctx, userID, mailID)
	if err != nil {
		return nil, notFoundOr(ctx, err, errcode.CannotFindMail, errcode.FailedReceiveMail, userID, "receive mail")
	}
	if m.IsReceived() {
		return nil, errcode.AlreadyReceivedMail
	}
	now := s.now()
	if m.Expired(now) {
		return nil, errcode.MailExpired
	}

	err = s.store.WithTx(ctx, func(tx repository.Repository) error {
		views := append(rewardViews(m.Reward), cache.MailList)
		if err := s.cache.Invalidate(ctx, userID, views...); err != nil {
			return err
		}
		if err := s.grant(ctx, tx, userID, m.Reward); err != nil {
			return fmt.Errorf("grant %s: %w", m.Reward.Kind, err)
		}
		if err := tx.MarkMailReceived(ctx, userID, mailID, now); err != nil {
			if errors.Is(err, repository.ErrNoRowsAffected) {
				return errcode.Wrap(errcode.AlreadyReceivedMail, err)
			}
			return fmt.Errorf("mark received: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, failure(ctx, errcode.FailedReceiveMail, err, userID, "receive mail")
	}

	m.ReceiveAt = &now
	log.Ctx(ctx).Info().
		Int64("user_id", userID).
		Int64("mail_id", mailID).
		Str("reward", m.Reward.Kind.String()).
		Int64("count", m.Reward.Count).
		Msg("Mail received")
	return m, nil
}

// SendMail delivers a reward mail through tx. It expires after the
// configured mail TTL.
func (s *MailService) SendMail(ctx context.Context, tx repository.Repository, userID int64, title string, reward model.Reward) (int64, error) {
	if reward.Count <= 0 {
		return 0, fmt.Errorf("%w: %s count %d", errInvalidReward, reward.Kind, reward.Count)
	}

	now := s.now()
	id, err := tx.InsertMail(ctx, &model.Mail{
		UserID:   userID,
		Title:    title,
		Reward:   reward,
		SendAt:   now,
		ExpireAt: now.Add(s.game.MailTTL),
	})
	if err != nil {
		return 0, fmt.Errorf("insert mail: %w", err)
	}
	if err := s.cache.Invalidate(ctx, userID, cache.MailList); err != nil {
		return 0, err
	}
	return id, nil
}
