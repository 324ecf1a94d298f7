package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/kinobot/internal/catalog"
	"github.com/user/kinobot/internal/gateway"
	"github.com/user/kinobot/internal/history"
	"github.com/user/kinobot/internal/router"
	"github.com/user/kinobot/internal/scheduler"
	"github.com/user/kinobot/internal/state"
	"github.com/user/kinobot/internal/telegram"
)

const (
	pidFileName   = "kinobot.pid"
	shutdownGrace = 10 * time.Second
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, pidFileName)
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func newCatalogClient(apiKey, baseURL string, timeoutSeconds, retries, retryDelayMs int) *catalog.Client {
	return catalog.New(apiKey,
		catalog.WithBaseURL(baseURL),
		catalog.WithTimeout(time.Duration(timeoutSeconds)*time.Second),
		catalog.WithRetryPolicy(&catalog.RetryPolicy{
			Retries: retries,
			Delay:   time.Duration(retryDelayMs) * time.Millisecond,
		}),
	)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	closeLog := setupLogging(cfg)
	defer closeLog()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	client := newCatalogClient(cfg.Kinopoisk.APIKey, cfg.Kinopoisk.BaseURL,
		cfg.Kinopoisk.TimeoutSeconds, cfg.Kinopoisk.Retries, cfg.Kinopoisk.RetryDelayMs)
	sessions := state.NewSessionStore()

	gw := gateway.New(int64(cfg.MaxConcurrent))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gw.Start(ctx)
	defer gw.Stop()

	adapter, err := telegram.New(cfg.Telegram.Token, gw)
	if err != nil {
		return fmt.Errorf("create telegram adapter: %w", err)
	}
	rt := router.New(client, store, sessions, adapter)

	sched := scheduler.New(store, cfg.History.PruneSchedule, cfg.History.RetentionDays)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	go adapter.Start(ctx, rt)

	slog.Info("kinobot started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"max_concurrent", cfg.MaxConcurrent,
		"catalog", cfg.Kinopoisk.BaseURL,
		"history", cfg.HistoryPath(),
		"pid_file", pidPath,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigChan
		if sig == syscall.SIGHUP {
			slog.Info("received SIGHUP, restarting")
			execPath, err := os.Executable()
			if err != nil {
				slog.Error("failed to get executable path", "error", err)
				continue
			}
			os.Remove(pidPath)
			store.Close()
			if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
				return fmt.Errorf("re-exec: %w", err)
			}
		}
		slog.Info("shutting down", "signal", sig)
		if !gw.Queue.WaitIdle(shutdownGrace) {
			slog.Warn("in-flight events still running at shutdown", "grace", shutdownGrace)
		}
		return nil
	}
}
