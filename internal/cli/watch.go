package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/xrpl-ledger-watch/internal/catalog"
	"github.com/LeJamon/xrpl-ledger-watch/internal/config"
	"github.com/LeJamon/xrpl-ledger-watch/internal/ledgerstream"
	"github.com/LeJamon/xrpl-ledger-watch/internal/metrics"
	"github.com/LeJamon/xrpl-ledger-watch/internal/publish"
	"github.com/LeJamon/xrpl-ledger-watch/internal/watch"
)

// watchCmd runs the watcher until interrupted
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a node's ledger stream and serve change snapshots",
	Long: `Connects to the configured XRPL node, subscribes to the ledger and
transactions streams and serves per-ledger change snapshots on the
listen address: WebSocket on /ws, Prometheus metrics on /metrics.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if verbose {
		log.Printf("watching %s, serving on %s", cfg.Node.WebSocketURL, cfg.Listen)
	}

	// The entry-type catalog is fetched once at startup. A node without
	// server_definitions is still usable with the built-in list.
	cat := fetchCatalog(ctx, cfg)
	log.Printf("entry-type catalog loaded: %d types, %d displayable", cat.Len(), len(cat.Displayable()))

	met := metrics.New()
	hub, err := publish.NewHub(cat.Displayable(), cfg.SnapshotCache, met)
	if err != nil {
		return err
	}

	client := ledgerstream.NewClient(ledgerstream.Config{
		URL:              cfg.Node.WebSocketURL,
		HandshakeTimeout: cfg.Node.HandshakeTimeout,
		ReconnectMin:     cfg.Node.ReconnectMin,
		ReconnectMax:     cfg.Node.ReconnectMax,
	})
	watcher := watch.New(hub, met)

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.Handle("/metrics", met.Handler())
	server := &http.Server{Addr: cfg.Listen, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.Run(ctx)
	})
	g.Go(func() error {
		return watcher.Run(ctx, client.Events())
	})
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving on %s: %w", cfg.Listen, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	log.Printf("xrplwatch started, listening on %s", cfg.Listen)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Printf("xrplwatch stopped")
	return nil
}

func fetchCatalog(ctx context.Context, cfg *config.Config) *catalog.Catalog {
	fetcher := catalog.NewFetcher(cfg.Node.HTTPURL, cfg.Node.DefinitionsTimeout)
	cat, err := fetcher.Fetch(ctx)
	if err != nil {
		log.Printf("server_definitions unavailable (%v), using built-in entry types", err)
		return catalog.Fallback()
	}
	return cat
}
