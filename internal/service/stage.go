package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"game-api-server/internal/cache"
	"game-api-server/internal/errcode"
	"game-api-server/internal/masterdata"
	"game-api-server/internal/model"
	"game-api-server/internal/repository"
)

// StageClearResult reports what a cleared stage paid out.
type StageClearResult struct {
	StageCode       int
	Cleared         bool
	Gold            int64
	Exp             int64
	Drops           []model.Reward
	CompletedQuests []int
}

// StageService runs combat attempts. The active attempt lives only in the
// cache; the clear record and rewards are persisted when it ends.
type StageService struct {
	*core
	quests *QuestService
	roller Roller
}

// NewStageService creates a new StageService instance.
func NewStageService(c *core, quests *QuestService, roller Roller) *StageService {
	return &StageService{core: c, quests: quests, roller: roller}
}

// EnterStage starts a fresh attempt with every kill counter at zero. Any
// attempt the user already had is abandoned.
func (s *StageService) EnterStage(ctx context.Context, userID int64, email string, stageCode int, characterIDs []int64) ([]masterdata.MonsterCount, error) {
	stage, ok := s.master.Current().Stage(stageCode)
	if !ok {
		return nil, errcode.CannotFindStage
	}
	if len(characterIDs) == 0 {
		return nil, errcode.Wrap(errcode.InvalidRequestBody, errors.New("no characters selected"))
	}

	repo := s.store.Repository()
	if stage.RequiredStage != 0 {
		if _, err := repo.GetClearStage(ctx, userID, stage.RequiredStage); err != nil {
			return nil, notFoundOr(ctx, err, errcode.StageLocked, errcode.FailedEnterStage, userID, "enter stage")
		}
	}
	for _, id := range characterIDs {
		if _, err := repo.GetUnit(ctx, model.KindCharacter, userID, id); err != nil {
			return nil, notFoundOr(ctx, err, errcode.CannotFindCharacter, errcode.FailedEnterStage, userID, "enter stage")
		}
	}

	sess := model.NewInStageSession(userID, email, stageCode, characterIDs, stage.Targets(), s.now())
	if err := s.cache.SaveStage(ctx, sess); err != nil {
		return nil, failure(ctx, errcode.FailedEnterStage, err, userID, "enter stage")
	}

	log.Ctx(ctx).Info().Int64("user_id", userID).Int("stage_code", stageCode).Msg("Stage entered")
	return stage.Monsters, nil
}

// KillMonster counts one kill of a tracked monster, up to its target.
func (s *StageService) KillMonster(ctx context.Context, userID int64, monsterCode int) error {
	sess, err := s.loadStage(ctx, userID, errcode.FailedKillMonster, "kill monster")
	if err != nil {
		return err
	}

	target, tracked := sess.Targets[monsterCode]
	if !tracked {
		return errcode.CannotFindMonsterCode
	}
	if sess.Kills[monsterCode] >= target {
		return errcode.CannotKillMonster
	}

	sess.Kills[monsterCode]++
	if err := s.cache.SaveStage(ctx, sess); err != nil {
		return failure(ctx, errcode.FailedKillMonster, err, userID, "kill monster")
	}
	return nil
}

// ClearStage ends the active attempt. With clear false the attempt is
// abandoned without reward. Otherwise every target must be met; the clear
// record, counters and kill/clear quests are written in one unit of work,
// and the gold, drops and gold/item quests in a second one.
func (s *StageService) ClearStage(ctx context.Context, userID int64, stageCode int, clear bool) (*StageClearResult, error) {
	sess, err := s.loadStage(ctx, userID, errcode.FailedClearStage, "clear stage")
	if err != nil {
		return nil, err
	}
	if sess.StageCode != stageCode {
		return nil, errcode.StageCodeMismatch
	}

	if !clear {
		if err := s.cache.DeleteStage(ctx, userID); err != nil {
			return nil, failure(ctx, errcode.FailedClearStage, err, userID, "abandon stage")
		}
		log.Ctx(ctx).Info().Int64("user_id", userID).Int("stage_code", stageCode).Msg("Stage abandoned")
		return &StageClearResult{StageCode: stageCode}, nil
	}

	if !sess.AllCleared() {
		return nil, errcode.StageInProgress
	}

	stage, ok := s.master.Current().Stage(stageCode)
	if !ok {
		return nil, errcode.Wrap(errcode.CannotFindMasterData, fmt.Errorf("unknown stage %d", stageCode))
	}

	result := &StageClearResult{StageCode: stageCode, Cleared: true, Exp: stage.Exp}
	err = s.store.WithTx(ctx, func(tx repository.Repository) error {
		if _, err := tx.UpsertClearStage(ctx, userID, stageCode, s.now()); err != nil {
			return fmt.Errorf("upsert clear stage: %w", err)
		}

		data, err := tx.GetGameData(ctx, userID)
		if err != nil {
			return fmt.Errorf("read game data: %w", err)
		}
		data.KillCount += sess.TotalKills()
		data.ClearCount++
		data.AddExp(stage.Exp)
		if err := tx.UpdateProgress(ctx, data); err != nil {
			return fmt.Errorf("update progress: %w", err)
		}

		done, err := s.quests.RefreshQuestProgress(ctx, tx, userID, model.QuestKillMonster, sess.TotalKills())
		if err != nil {
			return err
		}
		result.CompletedQuests = append(result.CompletedQuests, done...)

		done, err = s.quests.RefreshQuestProgress(ctx, tx, userID, model.QuestClearStage, int64(stageCode))
		if err != nil {
			return err
		}
		result.CompletedQuests = append(result.CompletedQuests, done...)

		return s.cache.Invalidate(ctx, userID, cache.GameData)
	})
	if err != nil {
		return nil, failure(ctx, errcode.FailedClearStage, err, userID, "clear stage")
	}

	// The clear is recorded; the attempt must not be cleared twice even if
	// paying out fails.
	defer func() {
		if err := s.cache.DeleteStage(ctx, userID); err != nil {
			log.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Msg("Failed to delete stage session")
		}
	}()

	drops := s.rollDrops(stage.Drops)
	err = s.store.WithTx(ctx, func(tx repository.Repository) error {
		views := []cache.Kind{cache.GameData}
		if stage.Gold > 0 {
			if _, err := tx.AddCurrency(ctx, userID, stage.Gold, 0); err != nil {
				return fmt.Errorf("credit gold: %w", err)
			}
		}
		for _, r := range drops {
			if err := s.grant(ctx, tx, userID, r); err != nil {
				return fmt.Errorf("grant drop: %w", err)
			}
			views = append(views, rewardViews(r)...)
		}

		done, err := s.quests.RefreshQuestProgress(ctx, tx, userID, model.QuestGetGold, stage.Gold)
		if err != nil {
			return err
		}
		result.CompletedQuests = append(result.CompletedQuests, done...)

		done, err = s.quests.RefreshQuestProgress(ctx, tx, userID, model.QuestGetItem, int64(len(drops)))
		if err != nil {
			return err
		}
		result.CompletedQuests = append(result.CompletedQuests, done...)

		return s.cache.Invalidate(ctx, userID, views...)
	})
	if err != nil {
		return nil, failure(ctx, errcode.FailedRewardStage, err, userID, "reward stage")
	}
	result.Gold = stage.Gold
	result.Drops = drops

	log.Ctx(ctx).Info().
		Int64("user_id", userID).
		Int("stage_code", stageCode).
		Int64("gold", stage.Gold).
		Int("drops", len(drops)).
		Ints("completed_quests", result.CompletedQuests).
		Msg("Stage cleared")
	return result, nil
}

// rollDrops rolls every candidate independently; a candidate drops when the
// draw is at most its rate.
func (s *StageService) rollDrops(candidates []masterdata.Drop) []model.Reward {
	var drops []model.Reward
	for _, d := range candidates {
		if s.roller.Roll() <= d.Rate {
			drops = append(drops, model.Reward{Kind: d.Kind, Code: d.Code, Count: 1})
		}
	}
	return drops
}

func (s *StageService) loadStage(ctx context.Context, userID int64, failed errcode.Code, op string) (*model.InStageSession, error) {
	sess, err := s.cache.LoadStage(ctx, userID)
	if err != nil {
		if errors.Is(err, cache.ErrNoActiveStage) {
			return nil, errcode.Wrap(errcode.NotFoundInStageSession, err)
		}
		return nil, failure(ctx, failed, err, userID, op)
	}
	return sess, nil
}
