package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game-api-server/internal/errcode"
	"game-api-server/internal/model"
	"game-api-server/internal/testutil"
)

func TestAttendance(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	uid := registerUser(t, env, "a@b.com")

	res, err := env.Services.Attendance.AttendanceAndReward(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Day)
	require.NotNil(t, res.Reward)
	assert.Equal(t, model.RewardGold, res.Reward.Kind)

	assert.Equal(t, int64(100), gameData(t, env, uid).Gold, "rewards are mailed, not granted")
	mails, err := env.Services.Mail.ListMail(ctx, uid, model.Page{})
	require.NoError(t, err)
	require.Len(t, mails, 1)
	assert.Equal(t, res.MailID, mails[0].MailID)
	assert.Equal(t, int64(100), mails[0].Reward.Count)

	_, err = env.Services.Attendance.AttendanceAndReward(ctx, uid)
	assertCode(t, errcode.AlreadyAttendedToday, err)

	env.Clock.Advance(24 * time.Hour)
	res, err = env.Services.Attendance.AttendanceAndReward(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Day)
}

func TestAttendanceResetsEachMonth(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	uid := registerUser(t, env, "a@b.com")

	env.Clock.Set(time.Date(2026, time.February, 27, 9, 0, 0, 0, time.UTC))
	for day := 1; day <= 3; day++ {
		res, err := env.Services.Attendance.AttendanceAndReward(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, day, res.Day)
		env.Clock.Advance(24 * time.Hour)
	}

	res, err := env.Services.Attendance.AttendanceAndReward(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Day, "March starts over")
}

func TestAttendanceMonthCompleted(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	uid := registerUser(t, env, "a@b.com")

	now := env.Clock.Now()
	require.NoError(t, env.Store.Repository().UpsertAttendance(ctx, &model.Attendance{
		UserID:       uid,
		Day:          31,
		LastAttendAt: now.Add(-24 * time.Hour),
	}))

	_, err := env.Services.Attendance.AttendanceAndReward(ctx, uid)
	assertCode(t, errcode.AlreadyCompletedMonthlyAttendance, err)
}

func TestAttendanceDayWithoutReward(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	uid := registerUser(t, env, "a@b.com")

	now := env.Clock.Now()
	require.NoError(t, env.Store.Repository().UpsertAttendance(ctx, &model.Attendance{
		UserID:       uid,
		Day:          7,
		LastAttendAt: now.Add(-24 * time.Hour),
	}))

	res, err := env.Services.Attendance.AttendanceAndReward(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 8, res.Day)
	assert.Nil(t, res.Reward)
	assert.Zero(t, res.MailID)
}
