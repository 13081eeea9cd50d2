package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/duke605/ilsang-bot/ilsang"
	"github.com/duke605/ilsang-bot/pagination"
	"github.com/duke605/ilsang-bot/utils"
)

// ErrIncomplete is returned by Drain when the backend stopped adding items before the
// reported total was reached
var ErrIncomplete = errors.New("feed stopped before every item was loaded")

type FeedConfig struct {
	PageSize  int `mapstructure:"page_size"`
	Threshold int `mapstructure:"threshold"`
}

type FeedConfigs struct {
	Uncompleted FeedConfig `mapstructure:"uncompleted"`
	Completed   FeedConfig `mapstructure:"completed"`
	Challenges  FeedConfig `mapstructure:"challenges"`
	XPLog       FeedConfig `mapstructure:"xp_log"`
}

// DefaultFeedConfigs mirrors the sizes the app ships with. Uncompleted quests are fetched in
// one large page because they are regrouped by stat after loading
var DefaultFeedConfigs = FeedConfigs{
	Uncompleted: FeedConfig{PageSize: 100, Threshold: 98},
	Completed:   FeedConfig{PageSize: 10, Threshold: 8},
	Challenges:  FeedConfig{PageSize: 10, Threshold: 8},
	XPLog:       FeedConfig{PageSize: 10, Threshold: 8},
}

// FetchFunc fetches a single page of items from the backend along with the total item count
type FetchFunc[T any] func(ctx context.Context, page, size int) ([]T, int, error)

// EnrichFunc is handed the items a page added to the list and may modify them in place
type EnrichFunc[T any] func(ctx context.Context, items []T)

// Feed is a list that is filled page by page. The list is owned here and the pagination
// manager only decides what to fetch
type Feed[T any, K comparable] struct {
	name   string
	fetch  FetchFunc[T]
	key    func(T) K
	enrich EnrichFunc[T]

	mu    sync.RWMutex
	items []T
	mgr   *pagination.Manager[T]
}

func NewFeed[T any, K comparable](name string, cfg FeedConfig, fetch FetchFunc[T], key func(T) K, enrich EnrichFunc[T]) (*Feed[T, K], error) {
	f := &Feed[T, K]{
		name:   name,
		fetch:  fetch,
		key:    key,
		enrich: enrich,
	}

	mgr, err := pagination.New(cfg.PageSize, cfg.Threshold, f.loadPage)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", name, err)
	}
	f.mgr = mgr

	return f, nil
}

// loadPage replaces the list with page 0 and appends any other page, skipping items
// the list already has since the backend can return the same item on two pages
func (f *Feed[T, K]) loadPage(ctx context.Context, page int) ([]T, int, error) {
	logger := slog.With("feed", f.name, "page", page)

	fetched, total, err := f.fetch(ctx, page, f.mgr.PageSize())
	if err != nil {
		logger.WarnContext(ctx, "Failed to fetch page", "error", err)
		return nil, 0, err
	}

	var current []T
	if page != 0 {
		f.mu.RLock()
		current = slices.Clone(f.items)
		f.mu.RUnlock()
	}

	merged, added := utils.UniqueAppend(current, fetched, f.key)
	if f.enrich != nil && len(added) > 0 {
		f.enrich(ctx, added)
	}

	f.mu.Lock()
	f.items = merged
	f.mu.Unlock()

	logger.DebugContext(ctx, "Fetched page",
		"fetched", len(fetched),
		"added", len(added),
		"loaded", len(merged),
		"total", total,
	)
	return merged, total, nil
}

func (f *Feed[T, K]) Name() string {
	return f.name
}

// Refresh reloads the list from the first page
func (f *Feed[T, K]) Refresh(ctx context.Context) pagination.Outcome {
	return f.mgr.LoadData(ctx, true)
}

func (f *Feed[T, K]) LoadMore(ctx context.Context) pagination.Outcome {
	return f.mgr.LoadData(ctx, false)
}

// Visible tells the feed the item at index is on screen so the next page can be fetched
// before the end of the list is reached
func (f *Feed[T, K]) Visible(ctx context.Context, index int) pagination.Outcome {
	return f.mgr.LoadMoreIfNeeded(ctx, index)
}

// Drain refreshes the feed and keeps loading pages until the backend has nothing more. If a
// page adds nothing while items are still missing the loaded items are kept and
// ErrIncomplete is returned
func (f *Feed[T, K]) Drain(ctx context.Context) error {
	if f.Refresh(ctx) == pagination.OutcomeFailed {
		return f.mgr.Err()
	}

	for f.CanLoadMore() {
		switch f.LoadMore(ctx) {
		case pagination.OutcomeFailed:
			return f.mgr.Err()
		case pagination.OutcomeEmpty, pagination.OutcomeSkipped:
			if n, total := f.Len(), f.Total(); n < total {
				return fmt.Errorf("%s: %w (%d of %d)", f.name, ErrIncomplete, n, total)
			}
			return nil
		}
	}

	return nil
}

func (f *Feed[T, K]) Items() []T {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return slices.Clone(f.items)
}

func (f *Feed[T, K]) At(i int) (T, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if i < 0 || i >= len(f.items) {
		return *new(T), false
	}

	return f.items[i], true
}

func (f *Feed[T, K]) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.items)
}

// Total is the item count the backend last reported
func (f *Feed[T, K]) Total() int {
	return f.mgr.TotalCount()
}

func (f *Feed[T, K]) CanLoadMore() bool {
	return f.mgr.CanLoadMoreData()
}

// Err returns the error of the last page load
func (f *Feed[T, K]) Err() error {
	return f.mgr.Err()
}

func (f *Feed[T, K]) Manager() *pagination.Manager[T] {
	return f.mgr
}

type QuestStatus string

const (
	QuestStatusUncompleted QuestStatus = "uncompleted"
	QuestStatusCompleted   QuestStatus = "completed"
)

var QuestStatuses = []QuestStatus{QuestStatusUncompleted, QuestStatusCompleted}

func ParseQuestStatus(s string) (QuestStatus, error) {
	for _, status := range QuestStatuses {
		if string(status) == s {
			return status, nil
		}
	}

	return "", fmt.Errorf("unknown quest status %q", s)
}

type QuestItem struct {
	ilsang.Quest
	Image []byte
}

type QuestItemFeed = Feed[*QuestItem, string]

// QuestFeed holds one independent feed per quest status
type QuestFeed struct {
	uncompleted *QuestItemFeed
	completed   *QuestItemFeed
}

func (qf *QuestFeed) Feed(status QuestStatus) *QuestItemFeed {
	if status == QuestStatusCompleted {
		return qf.completed
	}

	return qf.uncompleted
}

// LoadInitial refreshes every status
func (qf *QuestFeed) LoadInitial(ctx context.Context) {
	for _, status := range QuestStatuses {
		qf.Feed(status).Refresh(ctx)
	}
}

func (qf *QuestFeed) Items(status QuestStatus) []*QuestItem {
	return qf.Feed(status).Items()
}

func (qf *QuestFeed) HasMorePage(status QuestStatus) bool {
	return qf.Feed(status).CanLoadMore()
}

// ByXpStat groups uncompleted quests under every stat they reward
func (qf *QuestFeed) ByXpStat() map[ilsang.XpStat][]*QuestItem {
	grouped := make(map[ilsang.XpStat][]*QuestItem, len(ilsang.XpStats))
	for _, stat := range ilsang.XpStats {
		grouped[stat] = []*QuestItem{}
	}

	for _, item := range qf.uncompleted.Items() {
		for _, reward := range item.RewardList {
			grouped[reward.Content] = append(grouped[reward.Content], item)
		}
	}

	return grouped
}

// FeedFactory builds feeds against the backend. Every call returns a feed with its own
// pagination state
type FeedFactory struct {
	client  ilsang.Client
	images  *ImageCache
	configs FeedConfigs
}

func NewFeedFactory(client ilsang.Client, images *ImageCache, configs FeedConfigs) *FeedFactory {
	return &FeedFactory{
		client:  client,
		images:  images,
		configs: configs,
	}
}

// WithoutImages returns a factory whose quest feeds skip image downloads
func (ff *FeedFactory) WithoutImages() *FeedFactory {
	return NewFeedFactory(ff.client, nil, ff.configs)
}

func (ff *FeedFactory) NewQuestFeed() (*QuestFeed, error) {
	uncompleted, err := ff.NewQuestStatusFeed(QuestStatusUncompleted)
	if err != nil {
		return nil, err
	}

	completed, err := ff.NewQuestStatusFeed(QuestStatusCompleted)
	if err != nil {
		return nil, err
	}

	return &QuestFeed{uncompleted: uncompleted, completed: completed}, nil
}

func (ff *FeedFactory) NewQuestStatusFeed(status QuestStatus) (*QuestItemFeed, error) {
	cfg := ff.configs.Uncompleted
	get := ff.client.GetUncompletedQuests
	if status == QuestStatusCompleted {
		cfg = ff.configs.Completed
		get = ff.client.GetCompletedQuests
	}

	fetch := func(ctx context.Context, page, size int) ([]*QuestItem, int, error) {
		dst := ilsang.ResponseWithPage[[]ilsang.Quest]{}
		if _, err := get(page, size, &dst, ilsang.RequestOptionWithContext(ctx)); err != nil {
			return nil, 0, err
		}

		return utils.Map(dst.Data, func(q ilsang.Quest, _ int) *QuestItem {
			return &QuestItem{Quest: q}
		}), dst.Total, nil
	}

	var enrich EnrichFunc[*QuestItem]
	if ff.images != nil {
		enrich = ff.images.Attach
	}

	return NewFeed(string(status)+" quests", cfg, fetch, func(q *QuestItem) string {
		return q.QuestID
	}, enrich)
}

func (ff *FeedFactory) NewChallengeFeed() (*Feed[ilsang.Challenge, string], error) {
	fetch := func(ctx context.Context, page, size int) ([]ilsang.Challenge, int, error) {
		dst := ilsang.ResponseWithPage[[]ilsang.Challenge]{}
		if _, err := ff.client.GetChallenges(page, size, &dst, ilsang.RequestOptionWithContext(ctx)); err != nil {
			return nil, 0, err
		}

		return dst.Data, dst.Total, nil
	}

	return NewFeed("challenges", ff.configs.Challenges, fetch, func(c ilsang.Challenge) string {
		return c.ChallengeID
	}, nil)
}

func (ff *FeedFactory) NewXPLogFeed(userID, title string) (*Feed[ilsang.XPLog, string], error) {
	fetch := func(ctx context.Context, page, size int) ([]ilsang.XPLog, int, error) {
		dst := ilsang.ResponseWithPage[[]ilsang.XPLog]{}
		if _, err := ff.client.GetXPLog(userID, title, page, size, &dst, ilsang.RequestOptionWithContext(ctx)); err != nil {
			return nil, 0, err
		}

		return dst.Data, dst.Total, nil
	}

	return NewFeed("xp log", ff.configs.XPLog, fetch, func(l ilsang.XPLog) string {
		return l.RecordID
	}, nil)
}
