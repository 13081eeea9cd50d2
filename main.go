package main

import (
	"log/slog"
	"os"

	"github.com/duke605/ilsang-bot/utils"
	"github.com/spf13/afero"
)

func init() {
	f := utils.NewDateFile(afero.NewOsFs(), "log.jsonl", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	l := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: logLevel()})
	slog.SetDefault(slog.New(l))
}

// logLevel reads LOG_LEVEL before the config is loaded so the container can log while building
func logLevel() slog.Level {
	lvl := slog.LevelInfo
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		if err := lvl.UnmarshalText([]byte(s)); err != nil {
			return slog.LevelInfo
		}
	}

	return lvl
}

func main() {
	defer srvCtn.Delete()

	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
