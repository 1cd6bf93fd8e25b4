package service

import (
	"testing"

	"pgregory.net/rapid"

	"game-api-server/internal/model"
)

func TestAdvanceQuestProperty(t *testing.T) {
	types := []model.QuestType{model.QuestKillMonster, model.QuestGetGold, model.QuestGetItem}

	rapid.Check(t, func(rt *rapid.T) {
		target := rapid.Int64Range(1, 1000).Draw(rt, "target")
		progress := rapid.Int64Range(0, target-1).Draw(rt, "progress")
		add := rapid.Int64Range(0, 2000).Draw(rt, "add")

		qt := rapid.SampledFrom(types).Draw(rt, "type")
		next, done := advanceQuest(qt, progress, add, target)
		if next != progress+add {
			rt.Fatalf("%s: progress %d + %d gave %d", qt, progress, add, next)
		}
		if done != (progress+add >= target) {
			rt.Fatalf("%s: done=%v at %d/%d", qt, done, next, target)
		}

		next, done = advanceQuest(model.QuestClearStage, progress, add, target)
		if next != add {
			rt.Fatalf("clear stage progress must be replaced: got %d want %d", next, add)
		}
		if done != (add == target) {
			rt.Fatalf("clear stage completes only on exact match: add=%d target=%d done=%v", add, target, done)
		}
	})
}

func TestAddExpCarryProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		level := rapid.IntRange(1, 100).Draw(rt, "level")
		exp := rapid.Int64Range(0, model.ExpPerLevel-1).Draw(rt, "exp")
		add := rapid.Int64Range(0, 10_000).Draw(rt, "add")

		d := model.UserGameData{Level: level, Exp: exp}
		d.AddExp(add)

		if d.Exp < 0 || d.Exp >= model.ExpPerLevel {
			rt.Fatalf("exp %d outside 0..%d", d.Exp, model.ExpPerLevel-1)
		}
		total := int64(level)*model.ExpPerLevel + exp + add
		if got := int64(d.Level)*model.ExpPerLevel + d.Exp; got != total {
			rt.Fatalf("carry lost exp: got %d want %d", got, total)
		}
	})
}
