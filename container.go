package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/snowflake"
	"github.com/duke605/ilsang-bot/ilsang"
	"github.com/duke605/ilsang-bot/utils"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sarulabs/di"
	"github.com/spf13/viper"
	"go.uber.org/ratelimit"
	"golang.org/x/oauth2"
)

const (
	SrvCtnKeyViper             = "viper"
	SrvCtnKeyDatabase          = "database"
	SrvCtnKeyIlsangClient      = "ilsang_client"
	SrvCtnKeyDiscord           = "discord"
	SrvCtnKeySnowflakes        = "snowflakes"
	SrvCtnKeyImageCache        = "image_cache"
	SrvCtnKeyFeedFactory       = "feed_factory"
	SrvCtnKeyQuestsRepo        = "quests_repo"
	SrvCtnKeyQuestSyncSrv      = "quest_sync_service"
	SrvCtnKeyDiscordCommandSrv = "discord_command_service"
)

var srvCtn = buildContainer()

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("db.file", "ilsang.db")
	v.SetDefault("ilsang.requests_per_second", 10)
	v.SetDefault("images.cache_size", 256)
	v.SetDefault("sessions.cache_size", 512)
	v.SetDefault("discord.window_size", 5)
	v.SetDefault("snowflake.node", 1)
	v.SetDefault("sync.schedule", "@every 30m")
}

func loadConfig() (*viper.Viper, error) {
	v := viper.New()
	setConfigDefaults(v)
	v.SetConfigFile(".env.yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return v, nil
}

// loadFeedConfigs overlays the feeds section of the config on top of the defaults
func loadFeedConfigs(v *viper.Viper) (FeedConfigs, error) {
	cfgs := DefaultFeedConfigs
	if err := v.UnmarshalKey("feeds", &cfgs); err != nil {
		return FeedConfigs{}, fmt.Errorf("reading feed config: %w", err)
	}

	return cfgs, nil
}

func buildContainer() di.Container {
	builder := utils.Must(di.NewBuilder())

	err := builder.Add(
		di.Def{
			Name: SrvCtnKeyViper,
			Build: func(ctn di.Container) (interface{}, error) {
				return loadConfig()
			},
		},
		di.Def{
			Name: SrvCtnKeyDatabase,
			Build: func(ctn di.Container) (interface{}, error) {
				v := ctn.Get(SrvCtnKeyViper).(*viper.Viper)
				connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", v.GetString("db.file"))

				return sqlx.Connect("sqlite3", connStr)
			},
			Close: func(obj interface{}) error {
				return obj.(*sqlx.DB).Close()
			},
		},
		di.Def{
			Name: SrvCtnKeyIlsangClient,
			Build: func(ctn di.Container) (interface{}, error) {
				v := ctn.Get(SrvCtnKeyViper).(*viper.Viper)
				t := oauth2.StaticTokenSource(&oauth2.Token{
					AccessToken: v.GetString("ilsang.access_token"),
					TokenType:   "bearer",
				})
				httpClient := oauth2.NewClient(context.Background(), t)

				return ilsang.NewClient(v.GetString("ilsang.base_url"),
					ilsang.ClientOptionWithHTTPClient(httpClient),
					ilsang.ClientOptionWithRateLimiter(ratelimit.New(v.GetInt("ilsang.requests_per_second"))),
				)
			},
		},
		di.Def{
			Name: SrvCtnKeyDiscord,
			Build: func(ctn di.Container) (interface{}, error) {
				v := ctn.Get(SrvCtnKeyViper).(*viper.Viper)

				return discordgo.New("Bot " + v.GetString("discord.access_token"))
			},
			Close: func(obj interface{}) error {
				return obj.(*discordgo.Session).Close()
			},
		},
		di.Def{
			Name: SrvCtnKeySnowflakes,
			Build: func(ctn di.Container) (interface{}, error) {
				v := ctn.Get(SrvCtnKeyViper).(*viper.Viper)

				return snowflake.NewNode(v.GetInt64("snowflake.node"))
			},
		},
		di.Def{
			Name: SrvCtnKeyImageCache,
			Build: func(ctn di.Container) (interface{}, error) {
				v := ctn.Get(SrvCtnKeyViper).(*viper.Viper)
				client := ctn.Get(SrvCtnKeyIlsangClient).(ilsang.Client)

				return NewImageCache(client, v.GetInt("images.cache_size"))
			},
		},
		di.Def{
			Name: SrvCtnKeyFeedFactory,
			Build: func(ctn di.Container) (interface{}, error) {
				v := ctn.Get(SrvCtnKeyViper).(*viper.Viper)
				client := ctn.Get(SrvCtnKeyIlsangClient).(ilsang.Client)
				images := ctn.Get(SrvCtnKeyImageCache).(*ImageCache)

				cfgs, err := loadFeedConfigs(v)
				if err != nil {
					return nil, err
				}

				return NewFeedFactory(client, images, cfgs), nil
			},
		},
		di.Def{
			Name: SrvCtnKeyQuestsRepo,
			Build: func(ctn di.Container) (interface{}, error) {
				return NewQuestsRepo(ctn.Get(SrvCtnKeyDatabase).(*sqlx.DB)), nil
			},
		},
		di.Def{
			Name: SrvCtnKeyQuestSyncSrv,
			Build: func(ctn di.Container) (interface{}, error) {
				return NewQuestSyncService(
					ctn.Get(SrvCtnKeyQuestsRepo).(*QuestsRepo),
					ctn.Get(SrvCtnKeyFeedFactory).(*FeedFactory),
					ctn.Get(SrvCtnKeySnowflakes).(*snowflake.Node),
				), nil
			},
		},
		di.Def{
			Name: SrvCtnKeyDiscordCommandSrv,
			Build: func(ctn di.Container) (interface{}, error) {
				v := ctn.Get(SrvCtnKeyViper).(*viper.Viper)

				return NewDiscordCommandService(
					ctn.Get(SrvCtnKeyDiscord).(*discordgo.Session),
					ctn.Get(SrvCtnKeyFeedFactory).(*FeedFactory),
					ctn.Get(SrvCtnKeySnowflakes).(*snowflake.Node),
					v.GetInt("sessions.cache_size"),
					v.GetInt("discord.window_size"),
					v.GetString("discord.app_id"),
					v.GetString("discord.guild_id"),
				)
			},
		},
	)
	if err != nil {
		panic(err)
	}

	return builder.Build()
}
