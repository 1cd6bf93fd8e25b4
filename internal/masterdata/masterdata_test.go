package masterdata

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game-api-server/internal/model"
)

func validTables() *Tables {
	return &Tables{
		Version:    "test",
		Characters: []Character{{Code: 1001, Gold: 30, Gem: 10}},
		Items:      []Item{{Code: 10001}},
		Runes:      []Rune{{Code: 20001}},
		Enhance: EnhanceTables{
			Items: []EnhanceLevel{
				{Code: 10001, Level: 1, SellGold: 10},
				{Code: 10001, Level: 2, EnhanceGold: 20, SellGold: 25},
			},
		},
		Quests: []Quest{
			{Code: 2, Type: model.QuestClearStage, Target: 10},
			{Code: 1, Type: model.QuestKillMonster, Target: 3, Rewards: []model.Reward{{Kind: model.RewardGold, Count: 5}}},
		},
		Stages: []Stage{
			{Code: 10, Monsters: []MonsterCount{{Code: 101, Count: 3}}, Drops: []Drop{{Kind: model.RewardItem, Code: 10001, Rate: 50}}},
			{Code: 20, RequiredStage: 10, Monsters: []MonsterCount{{Code: 101, Count: 1}, {Code: 101, Count: 1}}},
		},
		Attendance: []AttendanceDay{{Day: 1, Reward: model.Reward{Kind: model.RewardRune, Code: 20001, Count: 1}}},
	}
}

func TestNewSnapshotLookups(t *testing.T) {
	snap, err := NewSnapshot(validTables())
	require.NoError(t, err)

	c, ok := snap.Character(1001)
	require.True(t, ok)
	assert.Equal(t, int64(30), c.Gold)

	_, ok = snap.Character(9999)
	assert.False(t, ok)

	row, ok := snap.Enhance(model.KindItem, 10001, 2)
	require.True(t, ok)
	assert.Equal(t, int64(20), row.EnhanceGold)

	_, ok = snap.Enhance(model.KindRune, 10001, 2)
	assert.False(t, ok, "levels are keyed by kind")

	quests := snap.Quests()
	require.Len(t, quests, 2)
	assert.Equal(t, 1, quests[0].Code)
	assert.Len(t, snap.QuestsByType(model.QuestClearStage), 1)
	assert.Empty(t, snap.QuestsByType(model.QuestGetGold))

	st, ok := snap.Stage(20)
	require.True(t, ok)
	assert.Equal(t, map[int]int{101: 2}, st.Targets(), "repeated roster entries add up")

	day, ok := snap.AttendanceReward(1)
	require.True(t, ok)
	assert.Equal(t, model.RewardRune, day.Reward.Kind)
}

func TestNewSnapshotRejectsBrokenReferences(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Tables)
	}{
		{"unknown quest type", func(tb *Tables) { tb.Quests[0].Type = "Dance" }},
		{"drop of unknown item", func(tb *Tables) { tb.Stages[0].Drops[0].Code = 1 }},
		{"drop of currency", func(tb *Tables) { tb.Stages[0].Drops[0].Kind = model.RewardGold }},
		{"drop rate out of range", func(tb *Tables) { tb.Stages[0].Drops[0].Rate = 101 }},
		{"unknown required stage", func(tb *Tables) { tb.Stages[1].RequiredStage = 99 }},
		{"attendance day out of range", func(tb *Tables) { tb.Attendance[0].Day = 32 }},
		{"enhance row for unknown item", func(tb *Tables) { tb.Enhance.Items[0].Code = 5 }},
		{"duplicate character", func(tb *Tables) { tb.Characters = append(tb.Characters, tb.Characters[0]) }},
		{"zero reward count", func(tb *Tables) { tb.Quests[1].Rewards[0].Count = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables := validTables()
			tt.mutate(tables)
			_, err := NewSnapshot(tables)
			assert.ErrorIs(t, err, ErrInvalidTables)
		})
	}
}

func TestLoadYAML(t *testing.T) {
	content := `
version: "v1"
characters:
  - {code: 1001, name: Knight, gold: 30, gem: 10}
items:
  - {code: 10001, name: Sword}
quests:
  - code: 3
    type: GetGold
    target: 500
    duration: 168h
    rewards:
      - {kind: item, code: 10001, count: 1}
stages:
  - code: 10
    monsters:
      - {code: 101, count: 3}
`
	path := filepath.Join(t.TempDir(), "masterdata.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	snap, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", snap.Version())

	q, ok := snap.Quest(3)
	require.True(t, ok)
	assert.Equal(t, model.QuestGetGold, q.Type)
	assert.Equal(t, 168*60*60, int(q.Duration.Seconds()))
	require.Len(t, q.Rewards, 1)
	assert.Equal(t, model.Reward{Kind: model.RewardItem, Code: 10001, Count: 1}, q.Rewards[0])
}

func TestLoadRejectsUnknownRewardKind(t *testing.T) {
	content := `
attendance:
  - {day: 1, reward: {kind: diamonds, count: 1}}
`
	path := filepath.Join(t.TempDir(), "masterdata.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadShippedMasterData(t *testing.T) {
	snap, err := Load(filepath.Join("..", "..", "config", "masterdata.yaml"))
	require.NoError(t, err)

	st, ok := snap.Stage(10)
	require.True(t, ok)
	assert.Equal(t, map[int]int{101: 3}, st.Targets())
}

func TestStoreReloadKeepsPreviousOnFailure(t *testing.T) {
	first, err := NewSnapshot(validTables())
	require.NoError(t, err)
	store := NewStore(first)

	err = store.Reload(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Same(t, first, store.Current())

	second, err := NewSnapshot(&Tables{Version: "next"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				v := store.Current().Version()
				if v != "test" && v != "next" {
					t.Errorf("torn snapshot version %q", v)
				}
			}
		}()
	}
	store.Replace(second)
	wg.Wait()

	assert.Equal(t, "next", store.Current().Version())
}
