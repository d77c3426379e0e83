package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/18999029117-create/weaver/api/schemas"
	"github.com/18999029117-create/weaver/internal/analyzer"
	"github.com/18999029117-create/weaver/internal/browser"
	"github.com/18999029117-create/weaver/internal/observability"
)

// newScanCmd creates and configures the `scan` command.
func newScanCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan <url>",
		Short: "Scans a page and emits a fingerprint batch for every interactive element",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags so command-line values override config and env with
			// the right precedence.
			if err := viper.BindPFlag("browser.remote_url", cmd.Flags().Lookup("remote")); err != nil {
				return err
			}
			if err := viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless")); err != nil {
				return err
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			target := normalizeTarget(args[0])

			// Flags were bound in PreRunE, after the root's config load; apply
			// their overrides now.
			if err := reloadConfig(); err != nil {
				return err
			}

			maxWait := viper.GetDuration("max-wait")
			retryInterval := viper.GetDuration("retry-interval")
			output := viper.GetString("output")

			session, err := browser.NewSession(ctx, cfg.Browser, logger)
			if err != nil {
				return fmt.Errorf("failed to start browser session: %w", err)
			}
			defer session.Close()

			if err := session.GuardDialogs(ctx); err != nil {
				logger.Warn("Dialog guard could not be installed", zap.Error(err))
			}
			if err := session.Navigate(ctx, target); err != nil {
				return err
			}

			engine := analyzer.New(cfg.Heuristics, nil, logger)
			result, err := scanUntilReady(ctx, session, engine, maxWait, retryInterval, logger)
			if err != nil {
				return err
			}

			if result.Status == schemas.ScanError {
				logger.Error("Scan failed", zap.String("error", result.Error))
			}
			return writeJSON(output, result)
		},
	}

	scanCmd.Flags().StringP("output", "o", "", "Output file path for the batch. Defaults to stdout.")
	scanCmd.Flags().Duration("max-wait", 30*time.Second, "Total time to wait for the page to leave its loading state.")
	scanCmd.Flags().Duration("retry-interval", 2*time.Second, "Delay between scan retries while the page is loading.")
	scanCmd.Flags().String("remote", "", "DevTools endpoint of an already running browser. (Overrides config/env)")
	scanCmd.Flags().Bool("headless", true, "Run the launched browser headless. (Overrides config/env)")

	return scanCmd
}

// scanUntilReady retries the snapshot-and-scan cycle while the readiness gate
// reports loading, up to maxWait. The final loading result is returned as-is
// when the budget runs out: the host learns what blocked the scan.
func scanUntilReady(
	ctx context.Context,
	session *browser.Session,
	engine *analyzer.Engine,
	maxWait, retryInterval time.Duration,
	logger *zap.Logger,
) (schemas.ScanResult, error) {

	deadline := time.Now().Add(maxWait)
	for {
		doc, err := session.Snapshot(ctx)
		if err != nil {
			return schemas.ScanResult{}, fmt.Errorf("failed to capture snapshot: %w", err)
		}

		result := engine.ScanPage(doc)
		if result.Status != schemas.ScanLoading || time.Now().After(deadline) {
			return result, nil
		}

		logger.Info("Page still loading, retrying scan",
			zap.String("loader", result.Loader),
			zap.Duration("retry_in", retryInterval))
		select {
		case <-ctx.Done():
			return schemas.ScanResult{}, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}
