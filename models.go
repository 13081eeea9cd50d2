package main

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/duke605/ilsang-bot/ilsang"
)

type Null[T any] struct {
	sql.Null[T]
}

func (n Null[T]) NullOrValue() interface{} {
	if n.Valid {
		return n.V
	}

	return nil
}

func NewNull[T any](v T, valid bool) Null[T] {
	return Null[T]{
		Null: sql.Null[T]{
			V:     v,
			Valid: valid,
		},
	}
}

// QuestRow is the stored snapshot of a quest
type QuestRow struct {
	ID         string       `db:"id"`
	Status     QuestStatus  `db:"status"`
	Title      string       `db:"title"`
	WriterName string       `db:"writer_name"`
	ImageID    Null[string] `db:"image_id"`
	TotalXP    int          `db:"total_xp"`
	Rewards    string       `db:"rewards"`
	ExpireDate Null[string] `db:"expire_date"`
	SyncID     int64        `db:"sync_id"`
	SyncedAt   time.Time    `db:"synced_at"`
}

func NewQuestRow(q *ilsang.Quest, status QuestStatus, syncID int64, syncedAt time.Time) (*QuestRow, error) {
	rewards, err := json.Marshal(q.RewardList)
	if err != nil {
		return nil, err
	}

	return &QuestRow{
		ID:         q.QuestID,
		Status:     status,
		Title:      q.MissionTitle,
		WriterName: q.WriterName,
		ImageID:    NewNull(q.QuestImage, q.QuestImage != ""),
		TotalXP:    q.TotalXP(),
		Rewards:    string(rewards),
		ExpireDate: NewNull(q.ExpireDate, q.ExpireDate != ""),
		SyncID:     syncID,
		SyncedAt:   syncedAt,
	}, nil
}

// RewardList decodes the stored rewards
func (r *QuestRow) RewardList() ([]ilsang.Reward, error) {
	rewards := []ilsang.Reward{}
	if err := json.Unmarshal([]byte(r.Rewards), &rewards); err != nil {
		return nil, err
	}

	return rewards, nil
}

func (QuestRow) GetColumns() []string {
	return []string{
		"id", "status", "title", "writer_name", "image_id", "total_xp", "rewards", "expire_date", "sync_id", "synced_at",
	}
}

func (r *QuestRow) ToColumns(cols []string) []interface{} {
	values := make([]interface{}, len(cols))
	for i, col := range cols {
		switch col {
		case "id":
			values[i] = r.ID
		case "status":
			values[i] = string(r.Status)
		case "title":
			values[i] = r.Title
		case "writer_name":
			values[i] = r.WriterName
		case "image_id":
			values[i] = r.ImageID.NullOrValue()
		case "total_xp":
			values[i] = r.TotalXP
		case "rewards":
			values[i] = r.Rewards
		case "expire_date":
			values[i] = r.ExpireDate.NullOrValue()
		case "sync_id":
			values[i] = r.SyncID
		case "synced_at":
			values[i] = r.SyncedAt
		}
	}

	return values
}
