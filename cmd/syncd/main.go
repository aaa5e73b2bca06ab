package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/artfolio/marketplace-chain-sync/internal/config"
	"github.com/artfolio/marketplace-chain-sync/internal/config/di"
	"github.com/artfolio/marketplace-chain-sync/internal/daemon"
	"github.com/artfolio/marketplace-chain-sync/internal/elastic_search"
	"github.com/artfolio/marketplace-chain-sync/internal/event"
	"github.com/artfolio/marketplace-chain-sync/internal/messenger"
	"github.com/artfolio/marketplace-chain-sync/internal/metrics"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	config.Init("syncd")
	container := di.NewContainer()

	container.Get("elastic").(elastic_search.Index).InstallMappings()

	metrics.Subscribe()
	event.AddEventListener(event.TransactionRecordedEvent, container.Get("messenger").(messenger.MessageService).TriggerSettlementNotification)

	go health()

	zap.L().With(zap.String("port", config.Get().HealthPort)).Info("Marketplace sync started")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container.Get("daemon").(*daemon.Daemon).Execute(ctx)
}

func health() {
	if err := http.ListenAndServe(":"+config.Get().HealthPort, router()); err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to start health server")
	}
}

func router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}
