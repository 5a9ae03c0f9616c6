package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KirkDiggler/initiative-tracker/internal/config"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/KirkDiggler/initiative-tracker/internal/services"
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var CLI struct {
	Debug bool `help:"Whether to enable debug logging."`

	Encounters struct{} `cmd:"" help:"List stored encounters."`

	Players struct{} `cmd:"" help:"Print the stored player roster."`

	Preview struct {
		Ref string `arg:"" name:"ref" help:"Encounter reference, e.g. Goblin_Ambush.json."`
	} `cmd:"" help:"Load the stored players and an encounter, roll a round and print the order."`

	Watch struct{} `cmd:"" help:"Print roster changes as they are published (Redis only)."`
}

func main() {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(consoleWriter)

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	kctx := kong.Parse(&CLI,
		kong.Name("tracker"),
		kong.Description("inspect initiative tracker storage"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	if err := run(kctx.Command()); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run owns every resource the command needs so deferred cleanup happens before exit
func run(command string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zerolog.SetGlobalLevel(cfg.Level())
	if CLI.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Warn().Msg("debug logging enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var client redis.UniversalClient
	if cfg.RedisEnabled() {
		opts, err := cfg.RedisOptions()
		if err != nil {
			return err
		}
		rc := redis.NewClient(opts)
		defer rc.Close()

		if err := rc.Ping(ctx).Err(); err != nil {
			return dnderr.Wrap(err, "failed to connect to redis")
		}
		client = rc
		log.Debug().Str("addr", opts.Addr).Msg("using redis storage")
	} else {
		log.Debug().Str("dir", cfg.Storage.DataDir).Msg("using file storage")
	}

	provider := services.NewProvider(&services.ProviderConfig{
		Config:      cfg,
		RedisClient: client,
	})

	return dispatch(ctx, os.Stdout, command, provider, client, cfg.Redis.UpdatesChannel)
}

func dispatch(ctx context.Context, out io.Writer, command string, provider *services.Provider, client redis.UniversalClient, channel string) error {
	switch command {
	case "encounters":
		return listEncounters(ctx, out, provider)
	case "players":
		return listPlayers(ctx, out, provider)
	case "preview <ref>":
		return preview(ctx, out, provider, CLI.Preview.Ref)
	case "watch":
		if client == nil {
			return dnderr.FailedPrecondition("watch needs REDIS_URL")
		}
		return watch(ctx, out, client, channel)
	default:
		return dnderr.InvalidArgumentf("unknown command %q", command)
	}
}
