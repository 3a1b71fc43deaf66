package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/omarjafor/voice-chatbot-lead-backend/internal/api"
	"github.com/omarjafor/voice-chatbot-lead-backend/internal/config"
	"github.com/omarjafor/voice-chatbot-lead-backend/internal/conversation"
	"github.com/omarjafor/voice-chatbot-lead-backend/internal/session"
	"github.com/omarjafor/voice-chatbot-lead-backend/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the leadbot server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show leadbot server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "leadbot version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open the lead store.
	leads, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening lead storage: %w", err)
	}
	defer func() {
		if err := leads.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing lead storage: %v\n", err)
		}
	}()

	// Session store and conversation machine.
	sessions := session.NewStore()
	machine := conversation.NewMachine(sessions, leads)

	// Evict idle sessions in the background.
	ttl := parseDurationOr(cfg.Session.TTL, 30*time.Minute, "session ttl")
	sweepInterval := parseDurationOr(cfg.Session.SweepInterval, 5*time.Minute, "session sweep interval")
	go sessions.RunSweeper(ctx, sweepInterval, ttl)

	handler := api.NewHandler(api.Deps{
		Machine:        machine,
		Leads:          leads,
		Sessions:       sessions,
		AllowedOrigins: cfg.CORS.Origins(),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "leadbot listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func parseDurationOr(value string, fallback time.Duration, what string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid "+what+", using default", "value", value, "default", fallback, "error", err)
		return fallback
	}
	return d
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	// Show lead count if the server is running.
	if resp != nil && resp.StatusCode == 200 {
		leadsResp, err := client.Get(serverURL + "/api/leads")
		if err == nil {
			var leads []struct {
				ID string `json:"id"`
			}
			if decodeJSON(leadsResp, &leads) == nil {
				printStatus("Leads", "%d", len(leads))
			}
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	printStatus("Session TTL", "%s", cfg.Session.TTL)
	return nil
}
