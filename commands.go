package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/duke605/ilsang-bot/ilsang"
	"github.com/duke605/ilsang-bot/pagination"
	"github.com/duke605/ilsang-bot/utils"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCommand = &cobra.Command{
	Use:   filepath.Base(os.Args[0]),
	Short: "Starts the discord bot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cmd.SilenceUsage = true
		defer utils.ReturnPanic(&err)

		discordCommandService := srvCtn.Get(SrvCtnKeyDiscordCommandSrv).(*DiscordCommandService)
		discord := srvCtn.Get(SrvCtnKeyDiscord).(*discordgo.Session)
		syncService := srvCtn.Get(SrvCtnKeyQuestSyncSrv).(*QuestSyncService)
		v := srvCtn.Get(SrvCtnKeyViper).(*viper.Viper)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		discordCommandService.RegisterHandlers(ctx)
		if err := discord.Open(); err != nil {
			return err
		}
		defer discord.Close()

		c := cron.New()
		err = c.AddFunc(v.GetString("sync.schedule"), func() {
			start := time.Now()
			slog.InfoContext(ctx, "Syncing quests")
			res, err := syncService.Sync(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "Error occurred while syncing quests", "error", err)
				return
			}
			slog.InfoContext(ctx, "Finished syncing quests", "sync_id", res.SyncID.Int64(), "duration", humanDuration(time.Since(start)))
		})
		if err != nil {
			return err
		}

		c.Start()
		defer c.Stop()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		http.HandleFunc("GET /shutdown", func(w http.ResponseWriter, r *http.Request) {
			slog.InfoContext(ctx, "Received shutdown command from HTTP server")
			fmt.Fprintln(w, "Shutting down...")
			signal.Stop(sigs)
			sigs <- syscall.SIGTERM
		})

		server := http.Server{Addr: v.GetString("addr")}
		go server.ListenAndServe()
		httpCtx, httpCancel := context.WithTimeout(context.Background(), time.Second*5)
		defer httpCancel()
		defer server.Shutdown(httpCtx)

		<-sigs
		fmt.Println("Exiting!")

		return nil
	},
}

//go:embed migrations/*.sql
var migrationFS embed.FS

var migrateCommand = &cobra.Command{
	Use:   "migrate",
	Short: "Applies all available migrations.",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return goose.SetDialect("sqlite3")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cmd.SilenceUsage = true
		defer utils.ReturnPanic(&err)

		database := srvCtn.Get(SrvCtnKeyDatabase).(*sqlx.DB)

		goose.SetBaseFS(migrationFS)

		return goose.Up(database.DB, "migrations")
	},
}

var makeMigrationCommand = &cobra.Command{
	Use:   "make:migration",
	Short: "Create writes a new blank migration file.",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return goose.SetDialect("sqlite3")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		migrationName := args[0]

		return goose.Create(nil, "migrations", migrationName, "sql")
	},
}

var rollbackMigrationCommand = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rolls back a single migration from the current version.",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return goose.SetDialect("sqlite3")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cmd.SilenceUsage = true
		defer utils.ReturnPanic(&err)

		database := srvCtn.Get(SrvCtnKeyDatabase).(*sqlx.DB)

		goose.SetBaseFS(migrationFS)

		return goose.Down(database.DB, "migrations")
	},
}

var registerDiscordCommandsCommand = &cobra.Command{
	Use:   "discord:commands:register",
	Short: "Registers discord commands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cmd.SilenceUsage = true
		defer utils.ReturnPanic(&err)

		discordCommandService := srvCtn.Get(SrvCtnKeyDiscordCommandSrv).(*DiscordCommandService)

		if err := discordCommandService.RegisterCommands(cmd.Context()); err != nil {
			return err
		}

		fmt.Println("Registered commands successfully")
		return nil
	},
}

var syncQuestsCommand = &cobra.Command{
	Use:   "quests:sync",
	Short: "Stores every quest from the backend in the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cmd.SilenceUsage = true
		defer utils.ReturnPanic(&err)
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		syncSrv := srvCtn.Get(SrvCtnKeyQuestSyncSrv).(*QuestSyncService)

		start := time.Now()
		res, err := syncSrv.Sync(ctx)
		if err != nil {
			return err
		}

		for _, status := range QuestStatuses {
			fmt.Printf("%s: stored %d, removed %d\n", status, res.Synced[status], res.Removed[status])
			if res.Incomplete[status] {
				fmt.Printf("%s: backend stopped returning new quests early, nothing was removed\n", status)
			}
		}
		fmt.Println("Finished syncing quests. Took", humanDuration(time.Since(start)))
		return nil
	},
}

var purgeQuestsCommand = &cobra.Command{
	Use:   "quests:purge",
	Short: "Deletes every stored quest so the next sync starts from scratch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cmd.SilenceUsage = true
		defer utils.ReturnPanic(&err)
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		questsRepo := srvCtn.Get(SrvCtnKeyQuestsRepo).(*QuestsRepo)

		start := time.Now()
		n, err := questsRepo.DeleteAll(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Finished deleting %d quest(s). Took %s\n", n, humanDuration(time.Since(start)))
		return nil
	},
}

var listCachedQuestsCommand = &cobra.Command{
	Use:   "quests:cached",
	Short: "Lists the quests stored by the last sync",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cmd.SilenceUsage = true
		defer utils.ReturnPanic(&err)

		status, err := ParseQuestStatus(utils.Must(cmd.Flags().GetString("status")))
		if err != nil {
			return err
		}
		questsRepo := srvCtn.Get(SrvCtnKeyQuestsRepo).(*QuestsRepo)

		count, err := questsRepo.Count(cmd.Context(), status)
		if err != nil {
			return err
		}

		pager := questsRepo.List(status, 50)
		for {
			row, more, err := pager.Next(cmd.Context())
			if err != nil {
				return err
			} else if !more {
				break
			}

			fmt.Printf("%-40s %4d xp  synced %s\n", row.Title, row.TotalXP, row.SyncedAt.Local().Format(time.DateTime))
		}

		fmt.Printf("%d %s quest(s)\n", count, status)
		return nil
	},
}

var listQuestsCommand = &cobra.Command{
	Use:   "quests:list",
	Short: "Lists quests from the backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cmd.SilenceUsage = true
		defer utils.ReturnPanic(&err)

		status, err := ParseQuestStatus(utils.Must(cmd.Flags().GetString("status")))
		if err != nil {
			return err
		}
		feeds := srvCtn.Get(SrvCtnKeyFeedFactory).(*FeedFactory)

		feed, err := feeds.WithoutImages().NewQuestStatusFeed(status)
		if err != nil {
			return err
		}

		return printFeed(cmd, feed, func(q *QuestItem) string {
			name, value := renderQuest(q)
			return fmt.Sprintf("%-40s %s", name, value)
		})
	},
}

var questStatsCommand = &cobra.Command{
	Use:   "quests:stats",
	Short: "Counts uncompleted quests per XP stat",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cmd.SilenceUsage = true
		defer utils.ReturnPanic(&err)

		feeds := srvCtn.Get(SrvCtnKeyFeedFactory).(*FeedFactory)
		quests, err := feeds.WithoutImages().NewQuestFeed()
		if err != nil {
			return err
		}

		if err := quests.Feed(QuestStatusUncompleted).Drain(cmd.Context()); errors.Is(err, ErrIncomplete) {
			fmt.Println("Warning:", err)
		} else if err != nil {
			return err
		}

		grouped := quests.ByXpStat()
		for _, stat := range ilsang.XpStats {
			fmt.Printf("%-12s %d\n", strings.ToLower(string(stat)), len(grouped[stat]))
		}
		return nil
	},
}

var listChallengesCommand = &cobra.Command{
	Use:   "challenges:list",
	Short: "Lists challenges from the backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cmd.SilenceUsage = true
		defer utils.ReturnPanic(&err)

		feeds := srvCtn.Get(SrvCtnKeyFeedFactory).(*FeedFactory)
		feed, err := feeds.NewChallengeFeed()
		if err != nil {
			return err
		}

		return printFeed(cmd, feed, func(c ilsang.Challenge) string {
			name, value := renderChallenge(c)
			return fmt.Sprintf("%-40s %s", name, value)
		})
	},
}

var listXPLogCommand = &cobra.Command{
	Use:   "xp:list",
	Short: "Lists the XP log of the authenticated user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cmd.SilenceUsage = true
		defer utils.ReturnPanic(&err)

		client := srvCtn.Get(SrvCtnKeyIlsangClient).(ilsang.Client)
		feeds := srvCtn.Get(SrvCtnKeyFeedFactory).(*FeedFactory)

		user := ilsang.Response[ilsang.User]{}
		if _, err := client.GetUser(&user, ilsang.RequestOptionWithContext(cmd.Context())); err != nil {
			return err
		}

		feed, err := feeds.NewXPLogFeed(user.Data.ID, utils.Must(cmd.Flags().GetString("title")))
		if err != nil {
			return err
		}

		fmt.Printf("%s has %d xp\n", user.Data.Nickname, user.Data.XpPoint)
		return printFeed(cmd, feed, func(l ilsang.XPLog) string {
			return fmt.Sprintf("%-40s %+5d  %s", l.Title, l.XpPoint, l.CreateDate)
		})
	},
}

// printFeed prints the first page of the feed, or every page when --all is set
func printFeed[T any, K comparable](cmd *cobra.Command, feed *Feed[T, K], line func(T) string) error {
	ctx := cmd.Context()
	all := utils.Must(cmd.Flags().GetBool("all"))

	if all {
		if err := feed.Drain(ctx); errors.Is(err, ErrIncomplete) {
			defer fmt.Println("Warning:", err)
		} else if err != nil {
			return err
		}
	} else if feed.Refresh(ctx) == pagination.OutcomeFailed {
		return feed.Err()
	}

	for _, item := range feed.Items() {
		fmt.Println(line(item))
	}

	fmt.Printf("Showing %d of %d\n", feed.Len(), feed.Total())
	return nil
}

func init() {
	for _, cmd := range []*cobra.Command{listQuestsCommand, listCachedQuestsCommand} {
		cmd.Flags().String("status", string(QuestStatusUncompleted), "Quest status to list (uncompleted or completed)")
	}
	for _, cmd := range []*cobra.Command{listQuestsCommand, listChallengesCommand, listXPLogCommand} {
		cmd.Flags().Bool("all", false, "Load every page instead of only the first")
	}
	listXPLogCommand.Flags().String("title", "", "Only list entries with this title")

	rootCommand.AddCommand(
		migrateCommand,
		makeMigrationCommand,
		rollbackMigrationCommand,
		registerDiscordCommandsCommand,
		syncQuestsCommand,
		purgeQuestsCommand,
		listCachedQuestsCommand,
		listQuestsCommand,
		questStatsCommand,
		listChallengesCommand,
		listXPLogCommand,
	)
}
