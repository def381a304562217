// Command api starts the webscan HTTP API server.
// Usage: go run ./cmd/api -listen :8080 [-store sqlite|postgres]
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cayfen/webscan/internal/app"
	"github.com/cayfen/webscan/internal/cli"
	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/scanner"
	"github.com/cayfen/webscan/internal/server"
	"github.com/cayfen/webscan/internal/store"
	"github.com/cayfen/webscan/internal/webclient"
)

func main() {
	args, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("invalid arguments: %v", err)
	}

	logger := logging.NewStdoutLogger("webscan")

	cfg := app.DefaultConfig()
	cfg.SQLitePath = args.SQLitePath
	cfg.PostgresURL = args.PostgresURL
	cfg.StoreBackend = app.StoreBackend(args.Store)
	cfg.WebClientCfg.Backend = webclient.Backend(args.Backend)

	st, err := openStore(cfg, logger)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer st.Close()

	wc, err := webclient.New(cfg.WebClientCfg, logger)
	if err != nil {
		log.Fatalf("creating web client: %v", err)
	}
	defer wc.Close()

	engine := scanner.NewEngine(wc, cfg.RequestsPerSecond, cfg.Burst, logger)
	orch := app.NewOrchestrator(cfg, st, engine, logger)
	srv := server.NewServer(server.Config{ListenAddr: args.Listen, Logger: logger}, orch)

	httpServer := srv.HTTPServer()
	go func() {
		logger.Info("listening", logging.Field{Key: "addr", Value: args.Listen})
		if err := httpServer.ListenAndServe(); err != nil {
			logger.Info("http server stopped", logging.Field{Key: "error", Value: err.Error()})
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	_ = orch.Shutdown(ctx)
}

func openStore(cfg *app.Config, logger logging.Logger) (store.Store, error) {
	if cfg.StoreBackend == app.StorePostgres {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return store.OpenPostgres(ctx, cfg.PostgresURL, logger)
	}
	return store.OpenSQLite(cfg.SQLitePath, logger)
}
