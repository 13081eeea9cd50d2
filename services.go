package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/duke605/ilsang-bot/utils"
)

const questUpsertBatchSize = 50

type SyncResult struct {
	SyncID  snowflake.ID
	Synced  map[QuestStatus]int
	Removed map[QuestStatus]int64
	// Incomplete holds the statuses whose feed stopped early. Their stored quests are
	// updated but none are removed
	Incomplete map[QuestStatus]bool
}

type QuestSyncService struct {
	questsRepo *QuestsRepo
	feeds      *FeedFactory
	ids        *snowflake.Node
}

func NewQuestSyncService(qr *QuestsRepo, ff *FeedFactory, ids *snowflake.Node) *QuestSyncService {
	return &QuestSyncService{
		questsRepo: qr,
		feeds:      ff.WithoutImages(),
		ids:        ids,
	}
}

// Sync loads every page of every quest status and replaces the stored snapshot with them
func (srv *QuestSyncService) Sync(ctx context.Context) (*SyncResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	res := &SyncResult{
		SyncID:     srv.ids.Generate(),
		Synced:     map[QuestStatus]int{},
		Removed:    map[QuestStatus]int64{},
		Incomplete: map[QuestStatus]bool{},
	}
	syncedAt := time.Now().UTC()

	feed, err := srv.feeds.NewQuestFeed()
	if err != nil {
		return nil, err
	}

	for _, status := range QuestStatuses {
		logger := slog.With("sync_id", res.SyncID.Int64(), "status", status)
		f := feed.Feed(status)
		drainErr := f.Drain(ctx)
		if drainErr != nil && !errors.Is(drainErr, ErrIncomplete) {
			return nil, drainErr
		}

		rows := utils.NewBatcher(questUpsertBatchSize, srv.questsRepo.UpsertMany)
		for _, item := range f.Items() {
			row, err := NewQuestRow(&item.Quest, status, res.SyncID.Int64(), syncedAt)
			if err != nil {
				return nil, err
			}
			if err := rows.Add(ctx, row); err != nil {
				return nil, err
			}
		}
		if err := rows.Flush(ctx); err != nil {
			return nil, err
		}

		var removed int64
		if drainErr != nil {
			res.Incomplete[status] = true
			logger.WarnContext(ctx, "Keeping stored quests since not every quest was loaded", "error", drainErr)
		} else if removed, err = srv.questsRepo.DeleteStale(ctx, status, res.SyncID.Int64()); err != nil {
			return nil, err
		}

		res.Synced[status] = rows.Flushed()
		res.Removed[status] = removed
		logger.InfoContext(ctx, "Synced quests",
			"synced", rows.Flushed(),
			"removed", removed,
			"total", f.Total(),
		)
	}

	return res, nil
}
