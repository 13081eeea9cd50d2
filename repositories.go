package main

import (
	"context"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/duke605/ilsang-bot/utils"
	"github.com/jmoiron/sqlx"
)

type QuestsRepo struct {
	db *sqlx.DB
}

func NewQuestsRepo(db *sqlx.DB) *QuestsRepo {
	return &QuestsRepo{
		db: db,
	}
}

func (repo *QuestsRepo) UpsertMany(ctx context.Context, rows []*QuestRow) error {
	if len(rows) == 0 {
		return nil
	}

	cols := rows[0].GetColumns()
	builder := sq.Insert("quests").Columns(cols...)
	for _, row := range rows {
		builder = builder.Values(row.ToColumns(cols)...)
	}

	query, args, err := builder.
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			status=excluded.status,
			title=excluded.title,
			writer_name=excluded.writer_name,
			image_id=excluded.image_id,
			total_xp=excluded.total_xp,
			rewards=excluded.rewards,
			expire_date=excluded.expire_date,
			sync_id=excluded.sync_id,
			synced_at=excluded.synced_at
		`).
		ToSql()
	if err != nil {
		return err
	}

	start := time.Now()
	defer logQuery(ctx, "Upserting many quests", start, "query", query, "rows", len(rows))
	_, err = repo.db.ExecContext(ctx, query, args...)
	return err
}

// DeleteStale removes quests of the status that were not written by the sync with syncID
func (repo *QuestsRepo) DeleteStale(ctx context.Context, status QuestStatus, syncID int64) (int64, error) {
	query, args, err := sq.Delete("quests").
		Where(sq.Eq{"status": string(status)}).
		Where(sq.NotEq{"sync_id": syncID}).
		ToSql()
	if err != nil {
		return 0, err
	}

	start := time.Now()
	defer logQuery(ctx, "Deleting stale quests", start, "query", query, "args", args)
	r, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	n, _ := r.RowsAffected()
	return n, nil
}

func (repo *QuestsRepo) DeleteAll(ctx context.Context) (int64, error) {
	query, _, err := sq.Delete("quests").ToSql()
	if err != nil {
		return 0, err
	}

	start := time.Now()
	defer logQuery(ctx, "Deleting all quests", start, "query", query)
	r, err := repo.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	n, _ := r.RowsAffected()
	return n, err
}

func (repo *QuestsRepo) Count(ctx context.Context, status QuestStatus) (int, error) {
	query, args, err := sq.Select("COUNT(*)").
		From("quests").
		Where(sq.Eq{"status": string(status)}).
		ToSql()
	if err != nil {
		return 0, err
	}

	start := time.Now()
	defer logQuery(ctx, "Counting quests", start, "query", query, "args", args)
	n := 0
	if err = repo.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, err
	}

	return n, nil
}

// List pages through the stored quests of the status ordered by title
func (repo *QuestsRepo) List(status QuestStatus, pageSize int) utils.Pager[*QuestRow] {
	builder := sq.Select("*").
		From("quests").
		Where(sq.Eq{"status": string(status)}).
		OrderBy("title", "id").
		Limit(uint64(pageSize))

	return utils.NewPager(pageSize, func(ctx context.Context, page int, buf []*QuestRow) ([]*QuestRow, error) {
		query, args, err := builder.Offset(uint64(page * pageSize)).ToSql()
		if err != nil {
			return nil, err
		}

		start := time.Now()
		defer logQuery(ctx, "Listing quests", start, "query", query, "args", args)

		buf = buf[:0]
		if err := repo.db.SelectContext(ctx, &buf, query, args...); err != nil {
			return nil, err
		}

		return buf, nil
	})
}

func logQuery(ctx context.Context, msg string, start time.Time, args ...interface{}) {
	args = append(args, "duration", time.Since(start))
	slog.DebugContext(ctx, msg, args...)
}
