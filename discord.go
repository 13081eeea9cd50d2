package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/snowflake"
	"github.com/duke605/ilsang-bot/ilsang"
	"github.com/duke605/ilsang-bot/pagination"
	"github.com/duke605/ilsang-bot/utils"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	browseButtonPrefix = "browse"
	browseActionMore   = "more"
	browseActionReload = "reload"
)

var ErrSessionExpired = errors.New("this list has expired, run the command again")

// listView is what a browsing session needs from a feed
type listView interface {
	Len() int
	Total() int
	Field(i int) (string, string)
	Refresh(context.Context) pagination.Outcome
	Visible(ctx context.Context, index int) pagination.Outcome
	CanLoadMore() bool
	Err() error
}

type renderedFeed[T any, K comparable] struct {
	*Feed[T, K]
	render func(T) (string, string)
}

func (rf renderedFeed[T, K]) Field(i int) (string, string) {
	t, _ := rf.At(i)
	return rf.render(t)
}

func renderQuest(q *QuestItem) (string, string) {
	rewards := utils.Map(q.RewardList, func(r ilsang.Reward, _ int) string {
		return fmt.Sprintf("%s +%d", strings.ToLower(string(r.Content)), r.Quantity)
	})

	return q.MissionTitle, fmt.Sprintf("by %s · %s", q.WriterName, strings.Join(rewards, ", "))
}

func renderChallenge(c ilsang.Challenge) (string, string) {
	return c.MissionTitle, fmt.Sprintf("%s · 👍 %d 👎 %d", c.Status, c.LikeCnt, c.HateCnt)
}

// browseSession is a window over a feed shown in a single Discord message
type browseSession struct {
	mu     sync.Mutex
	title  string
	cursor int
	list   listView
}

// Window returns the range of items currently shown
func (bs *browseSession) Window(size int) (int, int) {
	end := bs.cursor + size
	if n := bs.list.Len(); end > n {
		end = n
	}

	return bs.cursor, end
}

// HasNext reports whether advancing would show anything
func (bs *browseSession) HasNext(size int) bool {
	_, end := bs.Window(size)
	return end < bs.list.Len() || bs.list.CanLoadMore()
}

// Advance moves the window forward and lets the feed prefetch when the new window reaches
// into the threshold
func (bs *browseSession) Advance(ctx context.Context, size int) {
	if bs.cursor+size < bs.list.Len() {
		bs.cursor += size
	} else if bs.list.CanLoadMore() {
		bs.cursor = bs.list.Len()
	}

	bs.list.Visible(ctx, bs.cursor+size-1)
	if bs.cursor >= bs.list.Len() && bs.list.Len() > 0 {
		bs.cursor = max(0, bs.list.Len()-size)
	}
}

func (bs *browseSession) Reload(ctx context.Context, size int) {
	bs.cursor = 0
	bs.list.Refresh(ctx)
	bs.list.Visible(ctx, size-1)
}

type DiscordCommandService struct {
	discord  *discordgo.Session
	feeds    *FeedFactory
	sessions *lru.Cache[snowflake.ID, *browseSession]
	ids      *snowflake.Node
	window   int
	appID    string
	guildID  string
}

func NewDiscordCommandService(d *discordgo.Session, ff *FeedFactory, ids *snowflake.Node, sessionCacheSize, window int, appID, guildID string) (*DiscordCommandService, error) {
	sessions, err := lru.New[snowflake.ID, *browseSession](sessionCacheSize)
	if err != nil {
		return nil, err
	}

	return &DiscordCommandService{
		discord:  d,
		feeds:    ff,
		sessions: sessions,
		ids:      ids,
		window:   window,
		appID:    appID,
		guildID:  guildID,
	}, nil
}

func (dcs *DiscordCommandService) commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "quests",
			Description: "Browse quests",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "status",
					Description: "Which quests to show",
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Uncompleted", Value: string(QuestStatusUncompleted)},
						{Name: "Completed", Value: string(QuestStatusCompleted)},
					},
				},
			},
		},
		{
			Name:        "challenges",
			Description: "Browse challenges",
		},
	}
}

func (dcs *DiscordCommandService) RegisterCommands(ctx context.Context) error {
	_, err := dcs.discord.ApplicationCommandBulkOverwrite(dcs.appID, dcs.guildID, dcs.commands(), discordgo.WithContext(ctx))
	return err
}

func (dcs *DiscordCommandService) RegisterHandlers(ctx context.Context) {
	dcs.discord.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		var err error
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			switch name := i.ApplicationCommandData().Name; name {
			case "quests":
				err = dcs.handleQuests(ctx, s, i)
			case "challenges":
				err = dcs.handleChallenges(ctx, s, i)
			default:
				slog.WarnContext(ctx, "Unknown command", "command", name)
			}
		case discordgo.InteractionMessageComponent:
			err = dcs.handleBrowseButton(ctx, s, i)
		}

		if err != nil {
			slog.ErrorContext(ctx, "Error occurred while handling interaction", "interaction_id", i.ID, "error", err)
			// A deferred interaction can only be answered by editing the response
			resp := utils.NewDiscordResponse(s, i).SetError(err)
			if err := resp.Respond(); err != nil {
				if _, err := resp.Edit(); err != nil {
					slog.ErrorContext(ctx, "Failed to report error to discord", "interaction_id", i.ID, "error", err)
				}
			}
		}
	})
}

func (dcs *DiscordCommandService) handleQuests(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	status := QuestStatusUncompleted
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "status" {
			st, err := ParseQuestStatus(opt.StringValue())
			if err != nil {
				return err
			}
			status = st
		}
	}

	feed, err := dcs.feeds.NewQuestStatusFeed(status)
	if err != nil {
		return err
	}

	return dcs.startSession(ctx, s, i, fmt.Sprintf("Quests (%s)", status), renderedFeed[*QuestItem, string]{feed, renderQuest})
}

func (dcs *DiscordCommandService) handleChallenges(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	feed, err := dcs.feeds.NewChallengeFeed()
	if err != nil {
		return err
	}

	return dcs.startSession(ctx, s, i, "Challenges", renderedFeed[ilsang.Challenge, string]{feed, renderChallenge})
}

func (dcs *DiscordCommandService) startSession(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, title string, list listView) error {
	resp := utils.NewDiscordResponse(s, i)
	if err := resp.Defer(); err != nil {
		return err
	}

	id := dcs.ids.Generate()
	sess := &browseSession{title: title, list: list}
	sess.Reload(ctx, dcs.window)
	dcs.sessions.Add(id, sess)

	slog.InfoContext(ctx, "Started browsing session", "session_id", id.Int64(), "title", title, "loaded", list.Len(), "total", list.Total())
	_, err := dcs.render(id, sess, resp).Edit()
	return err
}

func (dcs *DiscordCommandService) handleBrowseButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	action, id, err := parseBrowseCustomID(i.MessageComponentData().CustomID)
	if err != nil {
		return err
	}

	resp := utils.NewDiscordResponse(s, i)
	sess, ok := dcs.sessions.Get(id)
	if !ok {
		return resp.SetWarning(ErrSessionExpired.Error()).Update()
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch action {
	case browseActionMore:
		sess.Advance(ctx, dcs.window)
	case browseActionReload:
		sess.Reload(ctx, dcs.window)
	}

	return dcs.render(id, sess, resp).Update()
}

func (dcs *DiscordCommandService) render(id snowflake.ID, sess *browseSession, resp utils.DiscordResponse) utils.DiscordResponse {
	resp.SetTitle(sess.title)

	from, to := sess.Window(dcs.window)
	for idx := from; idx < to; idx++ {
		name, value := sess.list.Field(idx)
		resp.AddField(name, value, false)
	}

	switch {
	case sess.list.Err() != nil:
		resp.SetWarning("Could not load everything: " + sess.list.Err().Error())
	case sess.list.Len() == 0:
		resp.SetInfo("Nothing here yet")
	}

	if to > from {
		resp.SetFooter(fmt.Sprintf("%d-%d of %d", from+1, to, sess.list.Total()))
	}

	resp.AddButton("More", browseCustomID(browseActionMore, id), !sess.HasNext(dcs.window))
	resp.AddButton("Reload", browseCustomID(browseActionReload, id), false)
	return resp
}

func browseCustomID(action string, id snowflake.ID) string {
	return strings.Join([]string{browseButtonPrefix, action, id.String()}, ":")
}

func parseBrowseCustomID(customID string) (string, snowflake.ID, error) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != browseButtonPrefix {
		return "", 0, fmt.Errorf("unknown component %q", customID)
	}

	switch parts[1] {
	case browseActionMore, browseActionReload:
	default:
		return "", 0, fmt.Errorf("unknown browse action %q", parts[1])
	}

	n, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid session id %q: %w", parts[2], err)
	}

	return parts[1], snowflake.ID(n), nil
}
