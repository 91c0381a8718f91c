package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/MKhiriev/go-account-keeper/internal/adapter"
	"github.com/MKhiriev/go-account-keeper/internal/config"
	"github.com/MKhiriev/go-account-keeper/internal/crypto"
	"github.com/MKhiriev/go-account-keeper/internal/logger"
	"github.com/MKhiriev/go-account-keeper/internal/service"
	"github.com/MKhiriev/go-account-keeper/internal/store"
	"github.com/MKhiriev/go-account-keeper/internal/workers"
	"github.com/MKhiriev/go-account-keeper/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

const usage = `usage: account-keeper [flags] <command>

commands:
  migrate           encrypt legacy plaintext secrets (default)
  keygen            print a new base64 cipher key
  accounts <owner>  list the identities stored for an owner`

func main() {
	buildInfo := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	fmt.Println(buildInfo)

	cfg, err := config.GetStructuredConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	log := logger.NewLogger("account-keeper", cfg.App.LogLevel)
	log.Debug().Object("build", buildInfo).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = run(log.ToContext(ctx), cfg, log); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.StructuredConfig, log *logger.Logger) error {
	command := "migrate"
	if len(cfg.Command) > 0 {
		command = cfg.Command[0]
	}

	switch command {
	case "keygen":
		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Println(key)
		return nil

	case "migrate":
		services, closeFn, err := buildServices(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeFn()

		// the flag is meant for the bot process; here migration is the command itself
		cfg.Workers.SkipMigration = false
		return workers.NewWorkers(services, cfg.Workers, log).Run(ctx)

	case "accounts":
		if len(cfg.Command) < 2 {
			return fmt.Errorf("accounts: owner id required\n%s", usage)
		}
		ownerID, err := strconv.ParseInt(cfg.Command[1], 10, 64)
		if err != nil {
			return fmt.Errorf("accounts: bad owner id %q: %w", cfg.Command[1], err)
		}

		services, closeFn, err := buildServices(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeFn()

		accounts, err := services.AccountService.List(ctx, ownerID)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			fmt.Println("no identities stored")
		}
		for _, account := range accounts {
			marker := " "
			if account.IsActive {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, account.Label)
		}
		return nil
	}

	return fmt.Errorf("unknown command %q\n%s", command, usage)
}

func buildServices(ctx context.Context, cfg *config.StructuredConfig, log *logger.Logger) (*service.Services, func(), error) {
	storages, err := store.NewStorages(ctx, cfg.Storage.DB, log)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating storages: %w", err)
	}
	closeFn := func() {
		if err := storages.Close(context.Background()); err != nil {
			log.Err(err).Msg("error closing storages")
		}
	}

	cipher, err := crypto.NewCipherService(cfg.App.CipherKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("error loading cipher key: %w", err)
	}

	upstream, err := adapter.NewHTTPUpstreamAdapter(cfg.Adapter, cfg.App.HashKey, log)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("error creating upstream adapter: %w", err)
	}

	return service.NewServices(storages, upstream, cipher, cfg.App, log), closeFn, nil
}
