package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fxterm/trading-client/internal/backend"
	"github.com/fxterm/trading-client/internal/config"
	"github.com/fxterm/trading-client/internal/instruments"
	"github.com/fxterm/trading-client/internal/journal"
	"github.com/fxterm/trading-client/internal/logger"
	"github.com/fxterm/trading-client/internal/postgres"
	"github.com/fxterm/trading-client/internal/session"
	"github.com/joho/godotenv"
)

const (
	_terminalCfgFilePath = "./configs/terminal.yaml"
	_snapshotLogInterval = 5 * time.Second
)

func main() {
	zapLogger, loggerSync, err := logger.NewZapLogger(logger.Debug)
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	if err := godotenv.Load(); err != nil {
		zapLogger.Warnf("can't detect .env file")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadTerminalConfig(_terminalCfgFilePath)
	if err != nil {
		zapLogger.Fatalf("%s: can't load terminal cfg", err)
	}

	userID := os.Getenv("TERMINAL_USER_ID")
	if userID == "" {
		zapLogger.Fatalf("empty TERMINAL_USER_ID")
	}

	client := backend.NewClient(cfg.Backend, zapLogger)
	defer func() {
		if err := client.Close(); err != nil {
			zapLogger.Errorf("%s: can't close backend client", err)
		}
	}()

	s := session.New(cfg, client, userID, instruments.NewList(instruments.Defaults()), zapLogger)

	if cfg.Journal.Enabled {
		db, err := postgres.NewDB(postgres.NewConfigFromEnv().Setup())
		if err != nil {
			zapLogger.Fatalf("%s: can't connect to postgres", err)
		}
		defer db.Close()

		j := journal.New(db, cfg.Journal.FlushInterval, zapLogger)
		s.SetHistorySink(j)
		go j.Run(ctx)
	}

	accountID := os.Getenv("TERMINAL_ACCOUNT_ID")
	if accountID == "" {
		accounts, err := s.Accounts(ctx)
		if err != nil {
			zapLogger.Fatalf("%s: can't list accounts", err)
		}
		if len(accounts) == 0 {
			zapLogger.Fatalf("no trading accounts for user %s", userID)
		}
		accountID = accounts[0].ID
	}

	if err := s.Start(ctx, accountID); err != nil {
		zapLogger.Fatalf("%s: can't start session", err)
	}
	defer s.Stop()

	ticker := time.NewTicker(_snapshotLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := s.Snapshot()
			zapLogger.Infof("state=%s account=%s positions=%d pending=%d equity=%.2f free_margin=%.2f floating_pnl=%.2f",
				snap.State, snap.AccountID, len(snap.Positions), len(snap.Pending),
				snap.Summary.Equity, snap.Summary.FreeMargin, snap.Summary.FloatingPnl)
		}
	}
}
