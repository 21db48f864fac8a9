// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// sendcard — Actionable Message Sender
//
// Signs the user in to Microsoft 365, then sends them an actionable
// message: the card JSON embedded in an HTML body with an inline image.
//
// Usage:
//
//	go run ./cmd/sendcard/ [--config config.yaml] [--flow browser|device] [--wait]
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/browser"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/bcem/sendcard/internal/auth"
	"github.com/bcem/sendcard/internal/config"
	"github.com/bcem/sendcard/internal/console"
	"github.com/bcem/sendcard/internal/flow"
	"github.com/bcem/sendcard/internal/graph"
	"github.com/bcem/sendcard/internal/journal"
	"github.com/bcem/sendcard/internal/queue"
)

var (
	configFlag string
	flowFlag   string
	waitFlag   bool
)

var rootCmd = &cobra.Command{
	Use:           "sendcard",
	Short:         "Send yourself an actionable message through Microsoft Graph",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSend,
}

func init() {
	rootCmd.Flags().StringVarP(&configFlag, "config", "c", "", "Path to config.yaml (default $CONFIG_PATH or ./config.yaml)")
	rootCmd.Flags().StringVar(&flowFlag, "flow", "", "Sign-in flow: browser or device (overrides auth.flow)")
	rootCmd.Flags().BoolVar(&waitFlag, "wait", false, "Wait for a key press before exiting")
}

// errReported marks failures already printed as an error block.
var errReported = errors.New("reported")

func main() {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	if waitFlag {
		console.NewReporter(os.Stdout).WaitForKey(os.Stdin)
	}
	if err != nil {
		os.Exit(1)
	}
}

func runSend(cmd *cobra.Command, _ []string) error {
	// --- Load Configuration ---
	cfg, err := config.Load(config.Path(configFlag))
	if err != nil {
		return err
	}
	if flowFlag != "" {
		cfg.Auth.Flow = flowFlag
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	// Diagnostics go to stderr; stdout carries the user-facing result.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})))

	slog.Debug("configuration loaded",
		"tenant", cfg.Tenant,
		"flow", cfg.Auth.Flow,
		"graph", cfg.GraphBaseURL,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Audit recorders (optional) ---
	recorders, closeRecorders, err := buildRecorders(ctx, cfg.Audit)
	if err != nil {
		return err
	}
	defer closeRecorders()

	// --- Authenticator ---
	authenticator, err := auth.New(auth.Options{
		ApplicationID: cfg.ApplicationID,
		Tenant:        cfg.Tenant,
		Authority:     cfg.Auth.Authority,
		Flow:          cfg.Auth.Flow,
		RedirectPort:  cfg.Auth.RedirectPort,
		Out:           os.Stdout,
		OpenURL:       browser.OpenURL,
	})
	if err != nil {
		return err
	}

	runner := flow.NewRunner(flow.RunnerConfig{
		Auth: authenticator,
		NewClient: func(token *oauth2.Token) flow.MailClient {
			return graph.NewClient(http.DefaultClient, cfg.GraphBaseURL, token)
		},
		Message:   cfg.Message,
		Recorders: recorders,
	})

	// --- Run ---
	reporter := console.NewReporter(os.Stdout)

	res, err := runner.Run(ctx)
	if err != nil {
		category, code, message, handled := flow.Describe(err)
		if !handled {
			return err
		}
		slog.Debug("send flow failed", "error", err)
		reporter.Failure(category, code, message)
		return errReported
	}

	slog.Debug("send flow complete", "elapsed", res.Elapsed, "record_id", res.Record.ID)
	reporter.Success("Message sent")
	return nil
}

// buildRecorders connects the audit backends that are configured. The
// returned func closes whatever was opened.
func buildRecorders(ctx context.Context, cfg config.AuditConfig) ([]flow.Recorder, func(), error) {
	var (
		recorders []flow.Recorder
		closers   []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// --- Connect to PostgreSQL ---
	if cfg.DatabaseURL != "" {
		pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("create Postgres pool: %w", err)
		}
		closers = append(closers, pgPool.Close)

		if err := pgPool.Ping(ctx); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("connect to PostgreSQL: %w", err)
		}

		store, err := journal.NewStore(ctx, pgPool)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		recorders = append(recorders, store)
	}

	// --- Connect to Redis ---
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("invalid redis url: %w", err)
		}
		rdb := redis.NewClient(opt)
		closers = append(closers, func() { rdb.Close() })

		publisher := queue.NewPublisher(rdb, cfg.Queue)
		if err := publisher.Ping(ctx); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("connect to Redis: %w", err)
		}
		slog.Debug("connected to Redis", "queue", cfg.Queue)
		recorders = append(recorders, publisher)
	}

	return recorders, closeAll, nil
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
