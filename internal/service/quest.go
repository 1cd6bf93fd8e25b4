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

// QuestRewardResult reports what a claimed quest paid out.
type QuestRewardResult struct {
	QuestCode int
	Rewards   []model.Reward
	GameData  *model.UserGameData
}

// QuestService tracks quest progress and pays out completed quests.
type QuestService struct {
	*core
}

// NewQuestService creates a new QuestService instance.
func NewQuestService(c *core) *QuestService {
	return &QuestService{core: c}
}

func (s *QuestService) ListProgress(ctx context.Context, userID int64, page model.Page) ([]model.QuestProgress, error) {
	page, err := s.normalizePage(page)
	if err != nil {
		return nil, err
	}
	list, err := cache.GetOrLoad(ctx, s.cache, cache.ProgressQuestList, userID, func(ctx context.Context) ([]model.QuestProgress, error) {
		return s.store.Repository().ListQuestProgress(ctx, userID, model.Page{})
	})
	if err != nil {
		return nil, failure(ctx, errcode.FailedGetQuestList, err, userID, "list quest progress")
	}
	return model.Paginate(list, page), nil
}

func (s *QuestService) ListComplete(ctx context.Context, userID int64, page model.Page) ([]model.QuestComplete, error) {
	page, err := s.normalizePage(page)
	if err != nil {
		return nil, err
	}
	list, err := cache.GetOrLoad(ctx, s.cache, cache.CompleteQuestList, userID, func(ctx context.Context) ([]model.QuestComplete, error) {
		return s.store.Repository().ListQuestComplete(ctx, userID, model.Page{})
	})
	if err != nil {
		return nil, failure(ctx, errcode.FailedGetQuestList, err, userID, "list quest complete")
	}
	return model.Paginate(list, page), nil
}

// RewardQuest pays out a completed quest once. A second claim fails with
// AlreadyEarnedQuestReward.
func (s *QuestService) RewardQuest(ctx context.Context, userID int64, questCode int) (*QuestRewardResult, error) {
	complete, err := s.store.Repository().GetQuestComplete(ctx, userID, questCode)
	if err != nil {
		return nil, notFoundOr(ctx, err, errcode.CannotFindCompleteQuest, errcode.FailedRewardQuest, userID, "reward quest")
	}
	if complete.Earned {
		return nil, errcode.AlreadyEarnedQuestReward
	}

	quest, ok := s.master.Current().Quest(questCode)
	if !ok {
		return nil, errcode.Wrap(errcode.CannotFindMasterData, fmt.Errorf("unknown quest %d", questCode))
	}

	result := &QuestRewardResult{QuestCode: questCode, Rewards: quest.Rewards}
	err = s.store.WithTx(ctx, func(tx repository.Repository) error {
		if err := tx.MarkQuestEarned(ctx, userID, questCode); err != nil {
			if errors.Is(err, repository.ErrNoRowsAffected) {
				return errcode.Wrap(errcode.AlreadyEarnedQuestReward, err)
			}
			return fmt.Errorf("mark earned: %w", err)
		}

		views := []cache.Kind{cache.CompleteQuestList, cache.GameData}
		for _, r := range quest.Rewards {
			if err := s.grant(ctx, tx, userID, r); err != nil {
				return fmt.Errorf("grant %s: %w", r.Kind, err)
			}
			views = append(views, rewardViews(r)...)
		}

		data, err := tx.GetGameData(ctx, userID)
		if err != nil {
			return fmt.Errorf("read game data: %w", err)
		}
		result.GameData = data
		return s.cache.Invalidate(ctx, userID, views...)
	})
	if err != nil {
		return nil, failure(ctx, errcode.FailedRewardQuest, err, userID, "reward quest")
	}

	log.Ctx(ctx).Info().Int64("user_id", userID).Int("quest_code", questCode).Msg("Quest reward earned")
	return result, nil
}

// RefreshQuestProgress advances every unexpired in-progress quest of type t
// by add through tx and moves the quests that reached their target to the
// completed set in one batch. It returns the codes that completed. The quest
// list views are invalidated whether or not anything completed.
func (s *QuestService) RefreshQuestProgress(ctx context.Context, tx repository.Repository, userID int64, t model.QuestType, add int64) ([]int, error) {
	if !t.Valid() {
		return nil, errcode.Wrap(errcode.FailedRefreshQuestProgress, fmt.Errorf("unknown quest type %q", t))
	}

	list, err := tx.ListQuestProgress(ctx, userID, model.Page{})
	if err != nil {
		return nil, fmt.Errorf("list quest progress: %w", err)
	}

	snap := s.master.Current()
	now := s.now()
	var completed []int
	for _, p := range list {
		quest, ok := snap.Quest(p.QuestCode)
		if !ok || quest.Type != t || p.Expired(now) {
			continue
		}

		next, done := advanceQuest(t, p.Progress, add, quest.Target)
		if done {
			completed = append(completed, p.QuestCode)
			continue
		}
		if next == p.Progress {
			continue
		}
		if err := tx.UpdateQuestProgress(ctx, userID, p.QuestCode, next); err != nil {
			return nil, fmt.Errorf("update quest %d: %w", p.QuestCode, err)
		}
	}

	if len(completed) > 0 {
		if err := tx.CompleteQuests(ctx, userID, completed, now); err != nil {
			return nil, fmt.Errorf("complete quests: %w", err)
		}
	}

	if err := s.cache.Invalidate(ctx, userID, cache.ProgressQuestList, cache.CompleteQuestList); err != nil {
		return nil, err
	}
	return completed, nil
}

// advanceQuest returns a quest's next progress and whether it completes.
// ClearStage progress is replaced by the cleared stage code and completes
// only on an exact match with the target; every other type accumulates and
// completes once the target is reached.
func advanceQuest(t model.QuestType, progress, add, target int64) (int64, bool) {
	if t == model.QuestClearStage {
		return add, add == target
	}
	next := progress + add
	return next, next >= target
}
