package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"talentpass/config"
	"talentpass/gateway"
	"talentpass/observability/logging"
	"talentpass/settlement"
	"talentpass/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup("talentpassd", "").Error("load config", "error", err)
		os.Exit(1)
	}

	log := logging.Setup("talentpassd", cfg.Environment)

	secret, err := cfg.JWTSecret()
	if err != nil {
		log.Error("resolve jwt secret", "error", err)
		os.Exit(1)
	}

	var db storage.Database
	if cfg.DataDir == ":memory:" {
		db = storage.NewMemDB()
	} else {
		ldb, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "settlement"))
		if err != nil {
			log.Error("open database", "error", err, "dir", cfg.DataDir)
			os.Exit(1)
		}
		db = ldb
	}
	defer db.Close()

	svc := settlement.New(db, settlement.WithContactToken(cfg.ContactToken))
	server := gateway.New(svc, gateway.NewAuthenticator(secret), gateway.NewMetrics(), log)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("gateway listening", "addr", cfg.ListenAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("gateway serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("gateway shutdown", "error", err)
	}
	log.Info("shutdown complete")
}
