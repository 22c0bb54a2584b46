// Package main boots the offline-resilient POS storefront service.
package main

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erpgo/pos-storefront/internal/cart"
	"github.com/erpgo/pos-storefront/internal/catalog"
	"github.com/erpgo/pos-storefront/internal/config"
	"github.com/erpgo/pos-storefront/internal/connectivity"
	httpapi "github.com/erpgo/pos-storefront/internal/http"
	"github.com/erpgo/pos-storefront/internal/obs"
	"github.com/erpgo/pos-storefront/internal/push"
	"github.com/erpgo/pos-storefront/internal/store"
	"github.com/erpgo/pos-storefront/internal/syncer"
	"github.com/erpgo/pos-storefront/internal/webcache"
)

func main() {
	cfg := config.Load()
	obs.InitLogger()
	obs.Logger.Info("service_starting", "backend", cfg.BackendBaseURL, "store_backend", cfg.StoreBackend)

	base, err := url.Parse(cfg.BackendBaseURL)
	if err != nil {
		obs.Logger.Error("invalid_backend_url", "error", err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Response cache: install the configured generation, then activate it,
	// purging every older generation.
	webStore, err := webcache.NewStore(cfg.CacheDir, cfg.CacheGeneration)
	if err != nil {
		obs.Logger.Error("webcache_open_failed", "error", err.Error())
		os.Exit(1)
	}
	assets, err := webcache.LoadManifest(cfg.AssetManifest)
	if err != nil {
		obs.Logger.Warn("asset_manifest_unreadable", "path", cfg.AssetManifest, "error", err.Error())
		assets = webcache.DefaultAssets
	}
	webcache.Install(ctx, webStore, cfg.BackendBaseURL, assets, &http.Client{Timeout: cfg.FetchTimeout})
	if err := webStore.Activate(); err != nil {
		obs.Logger.Error("webcache_activate_failed", "error", err.Error())
	}
	writer := webcache.NewWriter(webStore)
	writer.Start(ctx)
	transport := webcache.NewTransport(webStore, writer, nil)
	backendClient := &http.Client{Transport: transport, Timeout: cfg.FetchTimeout}

	// Structured catalog cache and its synchronizer.
	catalogStore, err := store.Open(cfg)
	if err != nil {
		obs.Logger.Error("store_open_failed", "error", err.Error())
		os.Exit(1)
	}
	remote := catalog.NewClient(cfg.BackendBaseURL, cfg.APIToken, backendClient)

	monitor := connectivity.NewMonitor(cfg.BackendBaseURL, cfg.ProbeInterval, cfg.ProbeTimeout)
	// Subscribe before the probe loop starts so the seed transition is
	// not lost.
	events := monitor.Subscribe()
	monitor.Start(ctx)

	sync := syncer.New(remote, catalogStore, monitor)
	go sync.Run(ctx, events)

	hub := push.NewHub()
	go func() {
		updates := sync.Subscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case <-updates:
				hub.Broadcast(push.Notification{Title: push.DefaultTitle, Body: "catalog_updated"})
			}
		}
	}()

	app := httpapi.NewApp(cfg, sync, monitor, cart.NewSessions(), hub, webcache.NewProxy(base, transport))
	handler := httpapi.NewRouter(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obs.Logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	obs.Logger.Info("shutdown_signal", "signal", s.String())

	writer.CloseIntake()
	ctxDrain, cancelDrain := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelDrain()
	if drained := writer.DrainUntil(ctxDrain); !drained {
		obs.Logger.Warn("webcache_drain_timeout", "backlog_size", writer.BacklogSize())
	}

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}

	hub.Close()
	monitor.Stop()
	if err := catalogStore.Close(); err != nil {
		obs.Logger.Error("store_close_error", "error", err.Error())
	}
	obs.Logger.Info("service_stopped")
}
