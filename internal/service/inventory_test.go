package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"game-api-server/internal/errcode"
	"game-api-server/internal/model"
	"game-api-server/internal/testutil"
)

func TestEquipPreconditions(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	uid := registerUser(t, env, "a@b.com")
	charID := giveUnit(t, env, model.KindCharacter, uid, 1001, 1)
	runeID := giveUnit(t, env, model.KindRune, uid, 20001, 1)

	assertCode(t, errcode.CannotFindCharacter, env.Services.Inventory.EquipItem(ctx, uid, 999, 1))
	assertCode(t, errcode.CannotFindInventoryItem, env.Services.Inventory.EquipItem(ctx, uid, charID, 999))
	assertCode(t, errcode.CannotFindInventoryRune, env.Services.Inventory.EquipRune(ctx, uid, charID, 999))
	assertCode(t, errcode.NotEquippedRune, env.Services.Inventory.ReleaseRune(ctx, uid, charID, runeID))

	require.NoError(t, env.Services.Inventory.EquipRune(ctx, uid, charID, runeID))
	assertCode(t, errcode.AlreadyEquippedRune, env.Services.Inventory.EquipRune(ctx, uid, charID, runeID))

	list, err := env.Services.Inventory.ListEquipment(ctx, uid, charID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, runeID, list[0].InstanceID)
	assert.Equal(t, model.KindRune, list[0].Kind)

	require.NoError(t, env.Services.Inventory.ReleaseRune(ctx, uid, charID, runeID))
	list, err = env.Services.Inventory.ListEquipment(ctx, uid, charID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// An item instance is held by at most one character at any time, whatever
// sequence of equips and releases is applied.
func TestEquipExclusivityProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		env := testutil.NewEnv(t)
		uid := registerUser(t, env, "a@b.com")

		chars := []int64{
			giveUnit(t, env, model.KindCharacter, uid, 1001, 1),
			giveUnit(t, env, model.KindCharacter, uid, 1002, 1),
			giveUnit(t, env, model.KindCharacter, uid, 1003, 1),
		}
		itemID := giveUnit(t, env, model.KindItem, uid, 10001, 1)

		var holder int64
		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		for range steps {
			charID := rapid.SampledFrom(chars).Draw(rt, "character")
			if rapid.Bool().Draw(rt, "equip") {
				err := env.Services.Inventory.EquipItem(ctx, uid, charID, itemID)
				if holder == 0 {
					require.NoError(rt, err)
					holder = charID
				} else {
					assert.Equal(rt, errcode.AlreadyEquippedItem, errcode.CodeOf(err))
				}
			} else {
				err := env.Services.Inventory.ReleaseItem(ctx, uid, charID, itemID)
				if holder == charID {
					require.NoError(rt, err)
					holder = 0
				} else {
					assert.Equal(rt, errcode.NotEquippedItem, errcode.CodeOf(err))
				}
			}

			holders := 0
			for _, c := range chars {
				list, err := env.Services.Inventory.ListEquipment(ctx, uid, c)
				require.NoError(rt, err)
				holders += len(list)
			}
			if holder == 0 {
				assert.Equal(rt, 0, holders)
			} else {
				assert.Equal(rt, 1, holders)
			}
		}
	})
}

func TestListEquipmentStoreFailure(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	uid := registerUser(t, env, "a@b.com")
	charID := giveUnit(t, env, model.KindCharacter, uid, 1001, 1)

	env.Store.InjectFault("ListEquipment", errors.New("read failed"))
	_, err := env.Services.Inventory.ListEquipment(ctx, uid, charID)
	assertCode(t, errcode.FailedGetEquipmentList, err)

	env.Store.InjectFault("GetUnit", errors.New("read failed"))
	_, err = env.Services.Inventory.ListEquipment(ctx, uid, charID)
	assertCode(t, errcode.FailedGetEquipmentList, err)
}
