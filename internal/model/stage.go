package model

import "time"

// InStageSession is an active combat attempt. It lives only in the cache,
// one per user.
type InStageSession struct {
	UserID       int64       `json:"userId"`
	Email        string      `json:"email"`
	StageCode    int         `json:"stageCode"`
	CharacterIDs []int64     `json:"characterIds"`
	StartAt      time.Time   `json:"startAt"`
	Targets      map[int]int `json:"targets"`
	Kills        map[int]int `json:"kills"`
}

// NewInStageSession builds a session with every kill counter at zero.
func NewInStageSession(userID int64, email string, stageCode int, characterIDs []int64, targets map[int]int, now time.Time) *InStageSession {
	kills := make(map[int]int, len(targets))
	for code := range targets {
		kills[code] = 0
	}
	return &InStageSession{
		UserID:       userID,
		Email:        email,
		StageCode:    stageCode,
		CharacterIDs: characterIDs,
		StartAt:      now,
		Targets:      targets,
		Kills:        kills,
	}
}

// AllCleared reports whether every tracked monster reached its target.
func (s *InStageSession) AllCleared() bool {
	for code, target := range s.Targets {
		if s.Kills[code] < target {
			return false
		}
	}
	return true
}

// TotalKills sums every kill counter.
func (s *InStageSession) TotalKills() int64 {
	var total int64
	for _, n := range s.Kills {
		total += int64(n)
	}
	return total
}
