package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/18999029117-create/weaver/api/schemas"
	"github.com/18999029117-create/weaver/internal/browser"
	"github.com/18999029117-create/weaver/internal/observability"
)

// probeReport is the `probe` command's combined output: the page-structure
// facts a host wants before deciding how to scan.
type probeReport struct {
	URL        string                        `json:"url"`
	Pagination []schemas.PaginationCandidate `json:"pagination"`
	Iframes    []schemas.IframeInfo          `json:"iframes"`
	Dialogs    []browser.DialogRecord        `json:"dialogs"`
}

// newProbeCmd creates and configures the `probe` command.
func newProbeCmd() *cobra.Command {
	probeCmd := &cobra.Command{
		Use:   "probe <url>",
		Short: "Reports page structure: pagination controls, iframes, and suppressed dialogs",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("browser.remote_url", cmd.Flags().Lookup("remote")); err != nil {
				return err
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			target := normalizeTarget(args[0])

			if err := reloadConfig(); err != nil {
				return err
			}

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

			doc, err := session.Snapshot(ctx)
			if err != nil {
				return fmt.Errorf("failed to capture snapshot: %w", err)
			}

			dialogs, err := session.DrainDialogs(ctx)
			if err != nil {
				logger.Debug("Could not drain dialog records", zap.Error(err))
				dialogs = []browser.DialogRecord{}
			}

			report := probeReport{
				URL:        target,
				Pagination: browser.DetectPagination(doc),
				Iframes:    browser.DetectIframes(doc),
				Dialogs:    dialogs,
			}
			logger.Info("Probe complete",
				zap.Int("pagination_candidates", len(report.Pagination)),
				zap.Int("iframes", len(report.Iframes)),
				zap.Int("dialogs", len(report.Dialogs)))

			return writeJSON(viper.GetString("output"), report)
		},
	}

	probeCmd.Flags().StringP("output", "o", "", "Output file path for the report. Defaults to stdout.")
	probeCmd.Flags().String("remote", "", "DevTools endpoint of an already running browser. (Overrides config/env)")

	return probeCmd
}
