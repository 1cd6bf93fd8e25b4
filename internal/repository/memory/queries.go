package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"game-api-server/internal/model"
	"game-api-server/internal/repository"
)

func noRows(op string) error {
	return fmt.Errorf("%s: %w", op, repository.ErrNoRowsAffected)
}

func (h *handle) CreateAccount(_ context.Context, email, passwordHash, salt string, now time.Time) (*model.Account, error) {
	var out model.Account
	err := h.do("CreateAccount", func(st *state) error {
		if _, ok := st.accounts[email]; ok {
			return fmt.Errorf("create account: %w", repository.ErrDuplicate)
		}
		st.nextAccountID++
		st.nextUserID++
		out = model.Account{
			AccountID:    st.nextAccountID,
			UserID:       st.nextUserID,
			Email:        email,
			PasswordHash: passwordHash,
			Salt:         salt,
			CreatedAt:    now,
		}
		st.accounts[email] = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *handle) GetAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	var out model.Account
	err := h.do("GetAccountByEmail", func(st *state) error {
		a, ok := st.accounts[email]
		if !ok {
			return repository.ErrNotFound
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *handle) CreateGameData(_ context.Context, data *model.UserGameData) error {
	return h.do("CreateGameData", func(st *state) error {
		if _, ok := st.gameData[data.UserID]; ok {
			return fmt.Errorf("create game data: %w", repository.ErrDuplicate)
		}
		st.gameData[data.UserID] = *data
		return nil
	})
}

func (h *handle) GetGameData(_ context.Context, userID int64) (*model.UserGameData, error) {
	var out model.UserGameData
	err := h.do("GetGameData", func(st *state) error {
		d, ok := st.gameData[userID]
		if !ok {
			return repository.ErrNotFound
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *handle) AddCurrency(_ context.Context, userID int64, gold, gem int64) (*model.UserGameData, error) {
	var out model.UserGameData
	err := h.do("AddCurrency", func(st *state) error {
		d, ok := st.gameData[userID]
		if !ok || d.Gold+gold < 0 || d.Gem+gem < 0 {
			return noRows("add currency")
		}
		d.Gold += gold
		d.Gem += gem
		st.gameData[userID] = d
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *handle) UpdateProgress(_ context.Context, data *model.UserGameData) error {
	return h.do("UpdateProgress", func(st *state) error {
		d, ok := st.gameData[data.UserID]
		if !ok {
			return noRows("update progress")
		}
		d.Exp = data.Exp
		d.Level = data.Level
		d.KillCount = data.KillCount
		d.ClearCount = data.ClearCount
		st.gameData[data.UserID] = d
		return nil
	})
}

func (h *handle) InsertUnit(_ context.Context, kind model.InventoryKind, userID int64, code, level int, now time.Time) (*model.Unit, error) {
	var out model.Unit
	err := h.do("InsertUnit", func(st *state) error {
		table, ok := st.units[kind]
		if !ok {
			return fmt.Errorf("unknown inventory kind %d", int(kind))
		}
		st.nextUnitID++
		out = model.Unit{ID: st.nextUnitID, UserID: userID, Kind: kind, Code: code, Level: level, CreatedAt: now}
		table[out.ID] = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *handle) GetUnit(_ context.Context, kind model.InventoryKind, userID, id int64) (*model.Unit, error) {
	var out model.Unit
	err := h.do("GetUnit", func(st *state) error {
		u, ok := st.units[kind][id]
		if !ok || u.UserID != userID {
			return repository.ErrNotFound
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *handle) ListUnits(_ context.Context, kind model.InventoryKind, userID int64, page model.Page) ([]model.Unit, error) {
	var out []model.Unit
	err := h.do("ListUnits", func(st *state) error {
		list := []model.Unit{}
		for _, u := range st.units[kind] {
			if u.UserID == userID {
				list = append(list, u)
			}
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		out = model.Paginate(list, page)
		return nil
	})
	return out, err
}

func (h *handle) DeleteUnit(_ context.Context, kind model.InventoryKind, userID, id int64) error {
	return h.do("DeleteUnit", func(st *state) error {
		u, ok := st.units[kind][id]
		if !ok || u.UserID != userID {
			return noRows("delete " + kind.String())
		}
		delete(st.units[kind], id)
		return nil
	})
}

func (h *handle) SetUnitLevel(_ context.Context, kind model.InventoryKind, userID, id int64, level int) error {
	return h.do("SetUnitLevel", func(st *state) error {
		u, ok := st.units[kind][id]
		if !ok || u.UserID != userID {
			return noRows("set " + kind.String() + " level")
		}
		u.Level = level
		st.units[kind][id] = u
		return nil
	})
}

func (h *handle) HasUnitCode(_ context.Context, kind model.InventoryKind, userID int64, code int) (bool, error) {
	var found bool
	err := h.do("HasUnitCode", func(st *state) error {
		for _, u := range st.units[kind] {
			if u.UserID == userID && u.Code == code {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (h *handle) IsEquipped(_ context.Context, kind model.InventoryKind, instanceID int64) (bool, error) {
	var found bool
	err := h.do("IsEquipped", func(st *state) error {
		_, found = st.equipment[equipKey{kind: kind, instanceID: instanceID}]
		return nil
	})
	return found, err
}

func (h *handle) InsertEquipment(_ context.Context, e model.Equipment) error {
	return h.do("InsertEquipment", func(st *state) error {
		k := equipKey{kind: e.Kind, instanceID: e.InstanceID}
		if _, ok := st.equipment[k]; ok {
			return fmt.Errorf("insert equipment: %w", repository.ErrDuplicate)
		}
		st.equipment[k] = e
		return nil
	})
}

func (h *handle) DeleteEquipment(_ context.Context, e model.Equipment) error {
	return h.do("DeleteEquipment", func(st *state) error {
		k := equipKey{kind: e.Kind, instanceID: e.InstanceID}
		cur, ok := st.equipment[k]
		if !ok || cur.UserID != e.UserID || cur.CharacterID != e.CharacterID {
			return noRows("delete equipment")
		}
		delete(st.equipment, k)
		return nil
	})
}

func (h *handle) ListEquipment(_ context.Context, userID, characterID int64) ([]model.Equipment, error) {
	var out []model.Equipment
	err := h.do("ListEquipment", func(st *state) error {
		list := []model.Equipment{}
		for _, e := range st.equipment {
			if e.UserID == userID && e.CharacterID == characterID {
				list = append(list, e)
			}
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Kind != list[j].Kind {
				return list[i].Kind < list[j].Kind
			}
			return list[i].InstanceID < list[j].InstanceID
		})
		out = list
		return nil
	})
	return out, err
}

func (h *handle) InsertQuestProgress(_ context.Context, quests []model.QuestProgress) error {
	return h.do("InsertQuestProgress", func(st *state) error {
		for _, p := range quests {
			k := questKey{userID: p.UserID, code: p.QuestCode}
			if _, ok := st.questProgress[k]; ok {
				return fmt.Errorf("insert quest progress: %w", repository.ErrDuplicate)
			}
			st.questProgress[k] = p
		}
		return nil
	})
}

func (h *handle) ListQuestProgress(_ context.Context, userID int64, page model.Page) ([]model.QuestProgress, error) {
	var out []model.QuestProgress
	err := h.do("ListQuestProgress", func(st *state) error {
		list := []model.QuestProgress{}
		for _, p := range st.questProgress {
			if p.UserID == userID {
				list = append(list, p)
			}
		}
		sort.Slice(list, func(i, j int) bool { return list[i].QuestCode < list[j].QuestCode })
		out = model.Paginate(list, page)
		return nil
	})
	return out, err
}

func (h *handle) UpdateQuestProgress(_ context.Context, userID int64, questCode int, progress int64) error {
	return h.do("UpdateQuestProgress", func(st *state) error {
		k := questKey{userID: userID, code: questCode}
		p, ok := st.questProgress[k]
		if !ok {
			return noRows("update quest progress")
		}
		p.Progress = progress
		st.questProgress[k] = p
		return nil
	})
}

func (h *handle) CompleteQuests(_ context.Context, userID int64, questCodes []int, now time.Time) error {
	return h.do("CompleteQuests", func(st *state) error {
		for _, code := range questCodes {
			k := questKey{userID: userID, code: code}
			if _, ok := st.questProgress[k]; !ok {
				return noRows("complete quests")
			}
			if _, ok := st.questComplete[k]; ok {
				return fmt.Errorf("complete quests: %w", repository.ErrDuplicate)
			}
		}
		for _, code := range questCodes {
			k := questKey{userID: userID, code: code}
			delete(st.questProgress, k)
			st.questComplete[k] = model.QuestComplete{UserID: userID, QuestCode: code, CompleteAt: now}
		}
		return nil
	})
}

func (h *handle) GetQuestComplete(_ context.Context, userID int64, questCode int) (*model.QuestComplete, error) {
	var out model.QuestComplete
	err := h.do("GetQuestComplete", func(st *state) error {
		c, ok := st.questComplete[questKey{userID: userID, code: questCode}]
		if !ok {
			return repository.ErrNotFound
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *handle) MarkQuestEarned(_ context.Context, userID int64, questCode int) error {
	return h.do("MarkQuestEarned", func(st *state) error {
		k := questKey{userID: userID, code: questCode}
		c, ok := st.questComplete[k]
		if !ok || c.Earned {
			return noRows("mark quest earned")
		}
		c.Earned = true
		st.questComplete[k] = c
		return nil
	})
}

func (h *handle) ListQuestComplete(_ context.Context, userID int64, page model.Page) ([]model.QuestComplete, error) {
	var out []model.QuestComplete
	err := h.do("ListQuestComplete", func(st *state) error {
		list := []model.QuestComplete{}
		for _, c := range st.questComplete {
			if c.UserID == userID {
				list = append(list, c)
			}
		}
		sort.Slice(list, func(i, j int) bool {
			if !list[i].CompleteAt.Equal(list[j].CompleteAt) {
				return list[i].CompleteAt.After(list[j].CompleteAt)
			}
			return list[i].QuestCode < list[j].QuestCode
		})
		out = model.Paginate(list, page)
		return nil
	})
	return out, err
}

func (h *handle) InsertMail(_ context.Context, m *model.Mail) (int64, error) {
	var id int64
	err := h.do("InsertMail", func(st *state) error {
		st.nextMailID++
		id = st.nextMailID
		stored := *m
		stored.MailID = id
		stored.ReceiveAt = nil
		st.mail[id] = stored
		return nil
	})
	return id, err
}

func (h *handle) ListMail(_ context.Context, userID int64, page model.Page) ([]model.Mail, error) {
	var out []model.Mail
	err := h.do("ListMail", func(st *state) error {
		list := []model.Mail{}
		for _, m := range st.mail {
			if m.UserID == userID {
				list = append(list, m)
			}
		}
		sort.Slice(list, func(i, j int) bool {
			if !list[i].SendAt.Equal(list[j].SendAt) {
				return list[i].SendAt.After(list[j].SendAt)
			}
			return list[i].MailID > list[j].MailID
		})
		out = model.Paginate(list, page)
		return nil
	})
	return out, err
}

func (h *handle) GetMail(_ context.Context, userID, mailID int64) (*model.Mail, error) {
	var out model.Mail
	err := h.do("GetMail", func(st *state) error {
		m, ok := st.mail[mailID]
		if !ok || m.UserID != userID {
			return repository.ErrNotFound
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *handle) MarkMailReceived(_ context.Context, userID, mailID int64, now time.Time) error {
	return h.do("MarkMailReceived", func(st *state) error {
		m, ok := st.mail[mailID]
		if !ok || m.UserID != userID || m.ReceiveAt != nil {
			return noRows("mark mail received")
		}
		at := now
		m.ReceiveAt = &at
		st.mail[mailID] = m
		return nil
	})
}

func (h *handle) GetClearStage(_ context.Context, userID int64, stageCode int) (*model.ClearStage, error) {
	var out model.ClearStage
	err := h.do("GetClearStage", func(st *state) error {
		c, ok := st.clearStage[stageKey{userID: userID, code: stageCode}]
		if !ok {
			return repository.ErrNotFound
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *handle) UpsertClearStage(_ context.Context, userID int64, stageCode int, now time.Time) (*model.ClearStage, error) {
	var out model.ClearStage
	err := h.do("UpsertClearStage", func(st *state) error {
		k := stageKey{userID: userID, code: stageCode}
		c, ok := st.clearStage[k]
		if !ok {
			c = model.ClearStage{UserID: userID, StageCode: stageCode, FirstClearAt: now}
		}
		c.ClearCount++
		c.LastClearAt = now
		st.clearStage[k] = c
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *handle) GetAttendance(_ context.Context, userID int64) (*model.Attendance, error) {
	var out model.Attendance
	err := h.do("GetAttendance", func(st *state) error {
		a, ok := st.attendance[userID]
		if !ok {
			return repository.ErrNotFound
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *handle) UpsertAttendance(_ context.Context, a *model.Attendance) error {
	return h.do("UpsertAttendance", func(st *state) error {
		st.attendance[a.UserID] = *a
		return nil
	})
}
