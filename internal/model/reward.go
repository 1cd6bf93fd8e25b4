package model

import (
	"fmt"
	"time"
)

// RewardKind tags what a Reward grants. It is set explicitly when the reward
// is created and never inferred from the code.
type RewardKind int

const (
	RewardGold RewardKind = iota + 1
	RewardGem
	RewardExp
	RewardItem
	RewardRune
)

var rewardKindNames = map[RewardKind]string{
	RewardGold: "gold",
	RewardGem:  "gem",
	RewardExp:  "exp",
	RewardItem: "item",
	RewardRune: "rune",
}

func (k RewardKind) String() string {
	if name, ok := rewardKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("RewardKind(%d)", int(k))
}

// IsCurrency reports whether the reward credits the game data ledger rather
// than creating inventory instances.
func (k RewardKind) IsCurrency() bool {
	return k == RewardGold || k == RewardGem || k == RewardExp
}

// InventoryKind returns the owned-unit table an item or rune reward fills.
func (k RewardKind) InventoryKind() (InventoryKind, bool) {
	switch k {
	case RewardItem:
		return KindItem, true
	case RewardRune:
		return KindRune, true
	}
	return 0, false
}

// MarshalText encodes the kind by name for JSON and YAML.
func (k RewardKind) MarshalText() ([]byte, error) {
	name, ok := rewardKindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown reward kind %d", int(k))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a kind name.
func (k *RewardKind) UnmarshalText(text []byte) error {
	parsed, err := ParseRewardKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseRewardKind maps a kind name back to its value.
func ParseRewardKind(name string) (RewardKind, error) {
	for kind, n := range rewardKindNames {
		if n == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown reward kind %q", name)
}

// Reward is a tagged reward descriptor. Code is only meaningful for item and
// rune rewards.
type Reward struct {
	Kind  RewardKind `json:"kind" yaml:"kind"`
	Code  int        `json:"code,omitempty" yaml:"code"`
	Count int64      `json:"count" yaml:"count"`
}

// Mail is an inbox entry carrying a reward.
type Mail struct {
	MailID    int64      `db:"mail_id"`
	UserID    int64      `db:"user_id"`
	Title     string     `db:"title"`
	Reward    Reward     `db:"-"`
	SendAt    time.Time  `db:"send_at"`
	ExpireAt  time.Time  `db:"expire_at"`
	ReceiveAt *time.Time `db:"receive_at"`
}

// IsReceived reports whether the reward was already claimed.
func (m *Mail) IsReceived() bool {
	return m.ReceiveAt != nil
}

// Expired reports whether the mail can no longer be received at now.
func (m *Mail) Expired(now time.Time) bool {
	return !now.Before(m.ExpireAt)
}
