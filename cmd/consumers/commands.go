package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"affiliate/cmd/consumers/handlers"
	"affiliate/internal/app"
	"affiliate/internal/config"
	"affiliate/kit/observability"
)

type options struct {
	settingsFile string
	development  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "consumers",
		Short:         "Event reactions and payment reconciliation for the affiliate service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.settingsFile, "settings", os.Getenv(config.SettingsFileEnv), "YAML settings file")
	root.PersistentFlags().BoolVar(&opts.development, "dev", false, "human readable logs")

	root.AddCommand(serveCmd(opts))
	root.AddCommand(reconcileCmd(opts))
	root.AddCommand(checkCmd(opts))
	return root
}

// bootstrap builds the service graph with every reaction subscribed, the
// same way the web process does.
func bootstrap(ctx context.Context, opts *options) (*app.App, error) {
	logger := observability.NewLogger()
	if opts.development {
		logger = observability.NewDevelopmentLogger()
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.LoadFile(opts.settingsFile)
	if err != nil {
		return nil, err
	}
	if cfg.Log.Development {
		logger = observability.NewDevelopmentLogger()
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	handlers.Register(a.Bus, handlers.Set{
		Activation:   handlers.NewActivationEvent(logger, a.Activations),
		Withdrawal:   handlers.NewWithdrawalEvent(logger, a.Withdrawals),
		Referral:     handlers.NewReferralEvent(logger, a.Referrals),
		Audit:        handlers.NewAuditEvent(a.Audit),
		Metrics:      handlers.NewMetricsEvent(a.Metrics),
		Notification: handlers.NewNotificationEvent(a.Notifications),
		Projector:    a.Projector,
		Relay:        a.Relay,
	})
	return a, nil
}

func serveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Reconcile pending payments on an interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx, opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			a.Logger.Info("consumers started", "interval", a.Config.Reconciliation.Interval, "gateway", a.Config.Gateway.Mode)
			go logSnapshots(ctx, a)
			a.Poller.Run(ctx)
			a.Logger.Info("consumers stopped")
			return nil
		},
	}
}

func logSnapshots(ctx context.Context, a *app.App) {
	t := time.NewTicker(a.Config.Reconciliation.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			kv := make([]any, 0, 2*8)
			for name, v := range a.Snapshot.Snapshot() {
				kv = append(kv, name, v)
			}
			a.Logger.Info("metrics snapshot", kv...)
		}
	}
}

func reconcileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation pass and print its report",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			report := a.Poller.Tick(cmd.Context())
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}

func checkCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [reference]",
		Short: "Ask the gateway for the status of one payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			outcome, err := a.Payments.CheckPayment(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], outcome)
			return err
		},
	}
}
