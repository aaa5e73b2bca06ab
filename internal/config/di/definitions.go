package di

import (
	"time"

	"github.com/artfolio/marketplace-chain-sync/internal/config"
	"github.com/artfolio/marketplace-chain-sync/internal/daemon"
	"github.com/artfolio/marketplace-chain-sync/internal/elastic_search"
	"github.com/artfolio/marketplace-chain-sync/internal/ledger"
	"github.com/artfolio/marketplace-chain-sync/internal/messenger"
	"github.com/artfolio/marketplace-chain-sync/internal/repository"
	"github.com/artfolio/marketplace-chain-sync/internal/watcher"
	"github.com/patrickmn/go-cache"
	"github.com/sarulabs/di/v2"
	"go.uber.org/zap"
)

func NewContainer() di.Container {
	builder, err := di.NewBuilder()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to create DI builder")
	}

	if err := builder.Add(definitions...); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to register DI definitions")
	}

	return builder.Build()
}

var definitions = []di.Def{
	{
		Name: "elastic",
		Build: func(ctn di.Container) (interface{}, error) {
			return elastic_search.New()
		},
	},
	{
		Name: "cache",
		Build: func(ctn di.Container) (interface{}, error) {
			return cache.New(5*time.Minute, 10*time.Minute), nil
		},
	},
	{
		Name: "ledger",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get().Ledger
			if cfg.Url == "" || cfg.SettlementContract == "" || cfg.AssetRegistry == "" {
				zap.L().Warn("Ledger configuration missing, reconciliation loops will no-op")
				return ledger.Service(nil), nil
			}

			client, err := ledger.NewClient(cfg.Url, cfg.Timeout, cfg.Debug)
			if err != nil {
				zap.L().With(zap.Error(err)).Warn("Failed to dial ledger, reconciliation loops will no-op")
				return ledger.Service(nil), nil
			}

			return ledger.NewService(client, cfg.SettlementContract, cfg.AssetRegistry)
		},
	},
	{
		Name: "listing.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewListingRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "transaction.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewTransactionRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "cursor.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewCursorRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "reconciler",
		Build: func(ctn di.Container) (interface{}, error) {
			base := ctn.Get("elastic").(elastic_search.Index)
			return watcher.NewReconciler(
				ctn.Get("listing.repo").(repository.ListingRepository),
				ctn.Get("transaction.repo").(repository.TransactionRepository),
				elastic_search.NewWithClient(base.GetClient()),
			), nil
		},
	},
	{
		Name: "scanner",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get().Ledger
			base := ctn.Get("elastic").(elastic_search.Index)
			ledgerService, _ := ctn.Get("ledger").(ledger.Service)

			return watcher.NewScanner(
				ledgerService,
				ctn.Get("reconciler").(watcher.Reconciler),
				elastic_search.NewWithClient(base.GetClient()),
				ctn.Get("cursor.repo").(repository.CursorRepository),
				ctn.Get("cache").(*cache.Cache),
				cfg.DeploymentBlock,
				time.Duration(cfg.PollInterval)*time.Second,
				time.Duration(cfg.ErrorCooldown)*time.Second,
			), nil
		},
	},
	{
		Name: "auditor",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get().Ledger
			base := ctn.Get("elastic").(elastic_search.Index)
			ledgerService, _ := ctn.Get("ledger").(ledger.Service)

			return watcher.NewAuditor(
				ledgerService,
				ctn.Get("listing.repo").(repository.ListingRepository),
				elastic_search.NewWithClient(base.GetClient()),
				time.Duration(cfg.AuditInterval)*time.Second,
				time.Duration(cfg.AuditDelay)*time.Second,
			), nil
		},
	},
	{
		Name: "daemon",
		Build: func(ctn di.Container) (interface{}, error) {
			return daemon.NewDaemon(
				ctn.Get("scanner").(watcher.Scanner),
				ctn.Get("auditor").(watcher.Auditor),
			), nil
		},
	},
	{
		Name: "messenger",
		Build: func(ctn di.Container) (interface{}, error) {
			return messenger.NewMessenger(), nil
		},
	},
}
