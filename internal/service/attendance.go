package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"game-api-server/internal/errcode"
	"game-api-server/internal/model"
	"game-api-server/internal/repository"
)

// AttendanceResult reports the day just checked in and the reward mailed
// for it, if the calendar has one.
type AttendanceResult struct {
	Day    int
	MailID int64
	Reward *model.Reward
}

// AttendanceService records daily check-ins. The counter restarts with the
// first check-in of a new month.
type AttendanceService struct {
	*core
	mail *MailService
}

// NewAttendanceService creates a new AttendanceService instance.
func NewAttendanceService(c *core, mail *MailService) *AttendanceService {
	return &AttendanceService{core: c, mail: mail}
}

// AttendanceAndReward checks the user in for today and mails that day's
// reward.
func (s *AttendanceService) AttendanceAndReward(ctx context.Context, userID int64) (*AttendanceResult, error) {
	now := s.now()

	current, err := s.store.Repository().GetAttendance(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		current = &model.Attendance{UserID: userID}
	case err != nil:
		return nil, failure(ctx, errcode.FailedAttendance, err, userID, "attendance")
	}

	day, err := nextAttendanceDay(current, now)
	if err != nil {
		return nil, err
	}

	result := &AttendanceResult{Day: day}
	err = s.store.WithTx(ctx, func(tx repository.Repository) error {
		if err := tx.UpsertAttendance(ctx, &model.Attendance{
			UserID:       userID,
			Day:          day,
			LastAttendAt: now,
		}); err != nil {
			return fmt.Errorf("upsert attendance: %w", err)
		}

		reward, ok := s.master.Current().AttendanceReward(day)
		if !ok {
			return nil
		}
		id, err := s.mail.SendMail(ctx, tx, userID, reward.Title, reward.Reward)
		if err != nil {
			return errcode.Wrap(errcode.FailedSendMail, err)
		}
		result.MailID = id
		result.Reward = &reward.Reward
		return nil
	})
	if err != nil {
		return nil, failure(ctx, errcode.FailedAttendance, err, userID, "attendance")
	}

	log.Ctx(ctx).Info().Int64("user_id", userID).Int("day", day).Int64("mail_id", result.MailID).Msg("Attendance checked")
	return result, nil
}

// nextAttendanceDay returns the day counter after checking in at now. A
// check-in in a later month than the last one starts again from day 1.
func nextAttendanceDay(a *model.Attendance, now time.Time) (int, error) {
	if a.LastAttendAt.IsZero() {
		return 1, nil
	}

	last := a.LastAttendAt.In(now.Location())
	if last.Year() != now.Year() || last.Month() != now.Month() {
		return 1, nil
	}
	if a.Day >= daysIn(now) {
		return 0, errcode.AlreadyCompletedMonthlyAttendance
	}
	if last.Day() == now.Day() {
		return 0, errcode.AlreadyAttendedToday
	}
	return a.Day + 1, nil
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
