package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/duke605/ilsang-bot/ilsang"
	"github.com/duke605/ilsang-bot/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend serves quests, challenges and images out of memory the way the real API pages them
type fakeBackend struct {
	mu         sync.Mutex
	quests     map[QuestStatus][]ilsang.Quest
	challenges []ilsang.Challenge
	images     map[string][]byte
	failing    map[string]bool
	requests   []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		quests:  map[QuestStatus][]ilsang.Quest{},
		images:  map[string][]byte{},
		failing: map[string]bool{},
	}
}

func (fb *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	fb.requests = append(fb.requests, r.URL.Path+"?"+r.URL.RawQuery)
	if fb.failing[r.URL.Path] {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	switch {
	case r.URL.Path == "/quest/uncompleted":
		writePage(w, fb.quests[QuestStatusUncompleted], page, size)
	case r.URL.Path == "/quest/completed":
		writePage(w, fb.quests[QuestStatusCompleted], page, size)
	case r.URL.Path == "/challenge":
		writePage(w, fb.challenges, page, size)
	case strings.HasPrefix(r.URL.Path, "/image/"):
		b, ok := fb.images[strings.TrimPrefix(r.URL.Path, "/image/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(b)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (fb *fakeBackend) Requests() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	return append([]string(nil), fb.requests...)
}

func (fb *fakeBackend) SetQuests(status QuestStatus, quests []ilsang.Quest) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	fb.quests[status] = quests
}

func writePage[T any](w http.ResponseWriter, all []T, page, size int) {
	from := min(page*size, len(all))
	to := min(from+size, len(all))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ilsang.ResponseWithPage[[]T]{
		Data:  append([]T{}, all[from:to]...),
		Total: len(all),
		Page:  page,
		Size:  size,
	})
}

func newTestClient(t *testing.T, fb *fakeBackend) ilsang.Client {
	t.Helper()

	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	c, err := ilsang.NewClient(srv.URL)
	require.NoError(t, err)

	return c
}

func makeQuests(n int, rewards ...ilsang.Reward) []ilsang.Quest {
	quests := make([]ilsang.Quest, n)
	for i := range quests {
		quests[i] = ilsang.Quest{
			QuestID:      fmt.Sprintf("q%02d", i),
			MissionTitle: fmt.Sprintf("Quest %02d", i),
			RewardList:   rewards,
		}
	}

	return quests
}

func smallFeeds(size, threshold int) FeedConfigs {
	cfg := FeedConfig{PageSize: size, Threshold: threshold}
	return FeedConfigs{Uncompleted: cfg, Completed: cfg, Challenges: cfg, XPLog: cfg}
}

func TestQuestFeedLoadsPagesInOrder(t *testing.T) {
	// Arranging
	fb := newFakeBackend()
	fb.SetQuests(QuestStatusCompleted, makeQuests(7))
	ff := NewFeedFactory(newTestClient(t, fb), nil, smallFeeds(3, 1))
	feed, err := ff.NewQuestStatusFeed(QuestStatusCompleted)
	require.NoError(t, err)
	ctx := context.Background()

	// Acting
	first := feed.Refresh(ctx)
	second := feed.LoadMore(ctx)
	third := feed.LoadMore(ctx)

	// Asserting
	assert.Equal(t, pagination.OutcomeProgress, first)
	assert.Equal(t, pagination.OutcomeProgress, second)
	assert.Equal(t, pagination.OutcomeProgress, third)
	assert.Equal(t, 7, feed.Len())
	assert.Equal(t, 7, feed.Total())
	assert.False(t, feed.CanLoadMore())
	assert.Equal(t, []string{
		"/quest/completed?page=0&size=3",
		"/quest/completed?page=1&size=3",
		"/quest/completed?page=2&size=3",
	}, fb.Requests())

	last, ok := feed.At(6)
	require.True(t, ok)
	assert.Equal(t, "q06", last.QuestID)
}

func TestQuestFeedSkipsItemsAlreadyLoaded(t *testing.T) {
	// Arranging
	fb := newFakeBackend()
	quests := makeQuests(4)
	fb.SetQuests(QuestStatusCompleted, quests)
	ff := NewFeedFactory(newTestClient(t, fb), nil, smallFeeds(2, 0))
	feed, err := ff.NewQuestStatusFeed(QuestStatusCompleted)
	require.NoError(t, err)
	ctx := context.Background()
	require.Equal(t, pagination.OutcomeProgress, feed.Refresh(ctx))

	// A new quest is inserted at the front so page 1 now repeats q01
	fb.SetQuests(QuestStatusCompleted, append([]ilsang.Quest{{QuestID: "new"}}, quests...))

	// Acting
	outcome := feed.LoadMore(ctx)

	// Asserting
	assert.Equal(t, pagination.OutcomeProgress, outcome)
	ids := []string{}
	for _, q := range feed.Items() {
		ids = append(ids, q.QuestID)
	}
	assert.Equal(t, []string{"q00", "q01", "q02"}, ids)
}

func TestQuestFeedRefreshReplacesItems(t *testing.T) {
	// Arranging
	fb := newFakeBackend()
	fb.SetQuests(QuestStatusUncompleted, makeQuests(4))
	ff := NewFeedFactory(newTestClient(t, fb), nil, smallFeeds(2, 0))
	feed, err := ff.NewQuestStatusFeed(QuestStatusUncompleted)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, feed.Drain(ctx))
	require.Equal(t, 4, feed.Len())

	fb.SetQuests(QuestStatusUncompleted, makeQuests(1))

	// Acting
	outcome := feed.Refresh(ctx)

	// Asserting
	assert.Equal(t, pagination.OutcomeProgress, outcome)
	assert.Equal(t, 1, feed.Len())
	assert.Equal(t, 1, feed.Total())
	assert.Equal(t, 0, feed.Manager().CurrentPage())
	assert.Equal(t, 1, feed.Manager().NextPage())
}

func TestFeedDrainLoadsEverything(t *testing.T) {
	fb := newFakeBackend()
	fb.SetQuests(QuestStatusUncompleted, makeQuests(11))
	ff := NewFeedFactory(newTestClient(t, fb), nil, smallFeeds(5, 2))
	feed, err := ff.NewQuestStatusFeed(QuestStatusUncompleted)
	require.NoError(t, err)

	err = feed.Drain(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 11, feed.Len())
	assert.Len(t, fb.Requests(), 3)
}

func TestFeedDrainReturnsLoadError(t *testing.T) {
	fb := newFakeBackend()
	fb.failing["/challenge"] = true
	ff := NewFeedFactory(newTestClient(t, fb), nil, smallFeeds(5, 2))
	feed, err := ff.NewChallengeFeed()
	require.NoError(t, err)

	err = feed.Drain(context.Background())

	httpErr := &ilsang.HTTPError{}
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode())
	assert.Equal(t, 0, feed.Len())
	assert.Equal(t, err, feed.Err())
}

func TestFeedDrainReportsRepeatedPage(t *testing.T) {
	// Arranging
	fb := newFakeBackend()
	quests := makeQuests(3)
	fb.SetQuests(QuestStatusCompleted, []ilsang.Quest{quests[0], quests[1], quests[0], quests[1], quests[2]})
	ff := NewFeedFactory(newTestClient(t, fb), nil, smallFeeds(2, 0))
	feed, err := ff.NewQuestStatusFeed(QuestStatusCompleted)
	require.NoError(t, err)

	// Acting
	err = feed.Drain(context.Background())

	// Asserting
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, 2, feed.Len())
	assert.Equal(t, 5, feed.Total())
	assert.NoError(t, feed.Err())
}

func TestFeedVisiblePrefetchesWithinThreshold(t *testing.T) {
	// Arranging
	fb := newFakeBackend()
	fb.challenges = make([]ilsang.Challenge, 25)
	for i := range fb.challenges {
		fb.challenges[i].ChallengeID = strconv.Itoa(i)
	}
	ff := NewFeedFactory(newTestClient(t, fb), nil, smallFeeds(10, 3))
	feed, err := ff.NewChallengeFeed()
	require.NoError(t, err)
	ctx := context.Background()
	require.Equal(t, pagination.OutcomeProgress, feed.Refresh(ctx))

	// Acting
	early := feed.Visible(ctx, 6)
	near := feed.Visible(ctx, 7)

	// Asserting
	assert.Equal(t, pagination.OutcomeSkipped, early)
	assert.Equal(t, pagination.OutcomeProgress, near)
	assert.Equal(t, 20, feed.Len())
}

func TestQuestFeedAttachesImages(t *testing.T) {
	// Arranging
	fb := newFakeBackend()
	quests := makeQuests(3)
	quests[0].QuestImage = "img-a"
	quests[1].QuestImage = "img-missing"
	fb.SetQuests(QuestStatusUncompleted, quests)
	fb.images["img-a"] = []byte("png")
	client := newTestClient(t, fb)
	images, err := NewImageCache(client, 4)
	require.NoError(t, err)
	ff := NewFeedFactory(client, images, smallFeeds(10, 2))
	feed, err := ff.NewQuestStatusFeed(QuestStatusUncompleted)
	require.NoError(t, err)

	// Acting
	outcome := feed.Refresh(context.Background())

	// Asserting
	assert.Equal(t, pagination.OutcomeProgress, outcome)
	items := feed.Items()
	require.Len(t, items, 3)
	assert.Equal(t, []byte("png"), items[0].Image)
	assert.Nil(t, items[1].Image)
	assert.Nil(t, items[2].Image)
}

func TestImageCacheOnlyDownloadsOnce(t *testing.T) {
	fb := newFakeBackend()
	fb.images["img-a"] = []byte("png")
	images, err := NewImageCache(newTestClient(t, fb), 4)
	require.NoError(t, err)
	ctx := context.Background()

	for range 3 {
		b, err := images.Get(ctx, "img-a")
		require.NoError(t, err)
		assert.Equal(t, []byte("png"), b)
	}

	assert.Len(t, fb.Requests(), 1)
}

func TestQuestFeedByXpStat(t *testing.T) {
	// Arranging
	fb := newFakeBackend()
	quests := makeQuests(3)
	quests[0].RewardList = []ilsang.Reward{{Content: ilsang.XpStatStrength, Quantity: 10}}
	quests[1].RewardList = []ilsang.Reward{{Content: ilsang.XpStatStrength, Quantity: 5}, {Content: ilsang.XpStatFun, Quantity: 5}}
	fb.SetQuests(QuestStatusUncompleted, quests)
	fb.SetQuests(QuestStatusCompleted, makeQuests(2, ilsang.Reward{Content: ilsang.XpStatCharm, Quantity: 1}))
	ff := NewFeedFactory(newTestClient(t, fb), nil, smallFeeds(10, 2))
	qf, err := ff.NewQuestFeed()
	require.NoError(t, err)

	// Acting
	qf.LoadInitial(context.Background())
	grouped := qf.ByXpStat()

	// Asserting
	assert.Len(t, grouped, len(ilsang.XpStats))
	assert.Len(t, grouped[ilsang.XpStatStrength], 2)
	assert.Len(t, grouped[ilsang.XpStatFun], 1)
	assert.Empty(t, grouped[ilsang.XpStatCharm])
	assert.Len(t, qf.Items(QuestStatusCompleted), 2)
	assert.False(t, qf.HasMorePage(QuestStatusUncompleted))
}

func TestNewFeedRejectsBadConfig(t *testing.T) {
	ff := NewFeedFactory(nil, nil, smallFeeds(0, 0))

	_, err := ff.NewChallengeFeed()

	assert.ErrorIs(t, err, pagination.ErrInvalidPageSize)
}

func TestParseQuestStatus(t *testing.T) {
	status, err := ParseQuestStatus("completed")
	require.NoError(t, err)
	assert.Equal(t, QuestStatusCompleted, status)

	_, err = ParseQuestStatus("done")
	assert.Error(t, err)
}
